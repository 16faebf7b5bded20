package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/discussion-den/den/internal/identity"
	"github.com/discussion-den/den/internal/metrics"
	"github.com/discussion-den/den/internal/persona"
	"github.com/discussion-den/den/internal/post"
)

const (
	defaultPageSize = 10
	maxPageSize     = 25
)

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// handleMeIdentity reports the caller's account, their personas, and
// which identity the session is currently acting as.
// GET /api/me/identity
func (s *Server) handleMeIdentity(c echo.Context) error {
	ac := getAuth(c)
	ctx := c.Request().Context()

	personas, err := s.personas.ListByOwner(ctx, ac.Account.ID)
	if err != nil {
		log.Printf("Error listing personas for account %d: %v", ac.Account.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	var active *persona.Persona
	if pid, ok := ac.Ident.Identity.PersonaID(); ok {
		if p, found := lo.Find(personas, func(p persona.Persona) bool { return p.ID == pid }); found {
			active = &p
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"account":        ac.Account,
		"personas":       personas,
		"active_persona": active,
		"display_name":   ac.Ident.Label,
		"is_persona":     ac.Ident.IsPersona(),
	})
}

type personaSwitchRequest struct {
	// PersonaID selects a persona; zero switches back to the account.
	PersonaID int64 `json:"persona_id" validate:"min=0"`
}

// handlePersonaSwitch changes which identity the session acts as. The
// selection is baked into a fresh session cookie, so it survives no
// longer than the session and is re-validated on every request.
// POST /api/persona/switch
func (s *Server) handlePersonaSwitch(c echo.Context) error {
	ac := getAuth(c)

	var req personaSwitchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid persona id.")
	}

	var active *persona.Persona
	if req.PersonaID != 0 {
		p, err := s.personas.GetByID(c.Request().Context(), req.PersonaID)
		if err != nil || p.UserID != ac.Account.ID {
			return fail(c, http.StatusForbidden, "That persona is not yours.")
		}
		active = p
	}

	if err := s.issueSession(c, ac.Account.ID, req.PersonaID); err != nil {
		log.Printf("Error reissuing session for account %d: %v", ac.Account.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	displayName := ac.Account.Username
	if active != nil {
		displayName = active.Name
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"active_persona": active,
		"display_name":   displayName,
	})
}

// handleFeed returns the paginated reverse-chronological post feed.
// GET /api/feed?page=&page_size=
func (s *Server) handleFeed(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	cards, hasMore, err := s.posts.Feed(c.Request().Context(), viewerIdentity(c), page, pageSize)
	if err != nil {
		log.Printf("Error loading feed page %d: %v", page, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"page":      page,
		"page_size": pageSize,
		"has_more":  hasMore,
		"posts":     cards,
	})
}

type voteRequest struct {
	Vote int `json:"vote"`
}

// handleVote records, changes, or removes the caller's vote on a post
// and returns the post's resulting tallies.
// POST /api/post/:id/vote
func (s *Server) handleVote(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}
	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}

	ac := getAuth(c)
	result, err := s.posts.CastVote(c.Request().Context(), postID, ac.Ident.Identity, req.Vote)
	switch {
	case errors.Is(err, post.ErrInvalidVote):
		return fail(c, http.StatusBadRequest, "Vote must be -1, 0, or 1.")
	case errors.Is(err, post.ErrNotFound):
		return fail(c, http.StatusNotFound, "Post not found.")
	case err != nil:
		log.Printf("Error casting vote on post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	metrics.VotesCast.WithLabelValues(strconv.Itoa(result.Vote)).Inc()
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"upvotes":   result.Upvotes,
		"downvotes": result.Downvotes,
		"score":     result.Score,
		"vote":      result.Vote,
	})
}

type saveRequest struct {
	Saved bool `json:"saved"`
}

// handleSave sets whether the caller's acting identity has the post
// saved. The operation is idempotent: repeating it leaves the same
// single ledger row (or its absence).
// POST /api/post/:id/save
func (s *Server) handleSave(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}

	ac := getAuth(c)
	saved, err := s.posts.SetSaved(c.Request().Context(), postID, ac.Ident.Identity, req.Saved)
	switch {
	case errors.Is(err, post.ErrNotFound):
		return fail(c, http.StatusNotFound, "Post not found.")
	case err != nil:
		log.Printf("Error saving post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"is_saved": saved,
	})
}

type addCommentRequest struct {
	Body            string `json:"body"`
	ParentCommentID *int64 `json:"parent_comment_id"`
}

// handleAddComment adds a comment (or reply) to a post, attributed to
// the caller's acting identity.
// POST /api/post/:id/comment
func (s *Server) handleAddComment(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}
	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}

	ac := getAuth(c)
	ctx := c.Request().Context()

	comment, err := s.posts.AddComment(ctx, postID, ac.Ident.Identity, req.Body, req.ParentCommentID)
	switch {
	case errors.Is(err, post.ErrEmptyBody):
		return fail(c, http.StatusBadRequest, "Comment cannot be empty.")
	case errors.Is(err, post.ErrNotFound):
		return fail(c, http.StatusNotFound, "Post not found.")
	case errors.Is(err, post.ErrInvalidParent):
		return fail(c, http.StatusBadRequest, "Invalid parent comment.")
	case errors.Is(err, post.ErrMaxDepth):
		return fail(c, http.StatusBadRequest, "Maximum reply depth reached.")
	case err != nil:
		log.Printf("Error adding comment to post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	metrics.CommentsCreated.WithLabelValues(metrics.AuthorKind(ac.Ident.Identity.IsPersona())).Inc()

	views, err := s.commentViews(ctx, ac.Ident.Identity, []post.Comment{*comment})
	if err != nil {
		log.Printf("Error resolving comment author for post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"comment": views[0],
	})
}

// handleListComments returns all comments on a post in creation order.
// Clients assemble the reply tree from parent_comment_id.
// GET /api/post/:id/comments
func (s *Server) handleListComments(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}

	ctx := c.Request().Context()
	comments, err := s.posts.ListComments(ctx, postID)
	switch {
	case errors.Is(err, post.ErrNotFound):
		return fail(c, http.StatusNotFound, "Post not found.")
	case err != nil:
		log.Printf("Error listing comments for post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	views, err := s.commentViews(ctx, viewerIdentity(c), comments)
	if err != nil {
		log.Printf("Error resolving comment authors for post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"comments": views,
	})
}

// commentView is a comment plus the resolved author badge and whether
// the viewer's acting identity authored it.
type commentView struct {
	post.Comment
	AuthorName string `json:"author_name"`
	IsOwn      bool   `json:"is_own"`
}

// commentViews resolves author display names for a batch of comments
// with one lookup per author kind.
func (s *Server) commentViews(ctx context.Context, viewer identity.Identity, comments []post.Comment) ([]commentView, error) {
	userIDs := lo.Uniq(lo.FilterMap(comments, func(cm post.Comment, _ int) (int64, bool) {
		if cm.AuthorUserID != nil {
			return *cm.AuthorUserID, true
		}
		return 0, false
	}))
	personaIDs := lo.Uniq(lo.FilterMap(comments, func(cm post.Comment, _ int) (int64, bool) {
		if cm.AuthorPersonaID != nil {
			return *cm.AuthorPersonaID, true
		}
		return 0, false
	}))

	usernames, err := s.accounts.Usernames(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	personas, err := s.personas.GetMany(ctx, personaIDs)
	if err != nil {
		return nil, err
	}

	return lo.Map(comments, func(cm post.Comment, _ int) commentView {
		v := commentView{
			Comment: cm,
			IsOwn:   viewer.Matches(cm.AuthorUserID, cm.AuthorPersonaID),
		}
		switch {
		case cm.AuthorPersonaID != nil:
			if p, ok := personas[*cm.AuthorPersonaID]; ok {
				v.AuthorName = p.Name
			}
		case cm.AuthorUserID != nil:
			v.AuthorName = usernames[*cm.AuthorUserID]
		}
		return v
	}), nil
}
