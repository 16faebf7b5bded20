package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discussion-den/den/internal/account"
	"github.com/discussion-den/den/internal/database"
	"github.com/discussion-den/den/internal/identity"
	"github.com/discussion-den/den/internal/post"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}
	return e
}

func setTestAuth(c echo.Context) {
	c.Set(authContextKey, &authContext{
		Account: &account.Account{ID: 1, Username: "demo"},
		Ident:   identity.Context{Identity: identity.AsAccount(1), Label: "demo"},
	})
}

func TestListCommentsUnknownPostReturnsNotFound(t *testing.T) {
	url := os.Getenv("DEN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DEN_TEST_DATABASE_URL not set; skipping database integration test")
	}
	db, err := database.Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	s := &Server{posts: post.NewStore(db, 0)}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("-1")

	require.NoError(t, s.handleListComments(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post not found.")
}

func TestPersonaSwitchRejectsNegativeID(t *testing.T) {
	s := &Server{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"persona_id":-1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := newTestEcho().NewContext(req, rec)
	setTestAuth(c)

	require.NoError(t, s.handlePersonaSwitch(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
