package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/discussion-den/den/internal/account"
)

// handleUserProfile shows an account's profile: their posts authored
// as the account, plus their public personas. Private personas show
// only on the owner's own profile.
// GET /u/:username
func (s *Server) handleUserProfile(c echo.Context) error {
	username := strings.TrimSpace(c.Param("username"))

	ac := getAuth(c)
	ctx := c.Request().Context()

	target, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, account.ErrNotFound) {
		return fail(c, http.StatusNotFound, "User not found.")
	}
	if err != nil {
		log.Printf("Error loading profile %q: %v", username, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	isSelf := target.ID == ac.Account.ID
	if !isSelf {
		// Never leak another account's email.
		target.Email = ""
	}

	cards, err := s.posts.ListByAuthor(ctx, ac.Ident.Identity, &target.ID, nil, maxPageSize)
	if err != nil {
		log.Printf("Error listing posts for account %d: %v", target.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	list := s.personas.ListPublicByOwner
	if isSelf {
		list = s.personas.ListByOwner
	}
	personas, err := list(ctx, target.ID)
	if err != nil {
		log.Printf("Error listing personas for account %d: %v", target.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"account":  target,
		"posts":    cards,
		"personas": personas,
		"is_self":  isSelf,
	})
}

type editProfileRequest struct {
	Avatar *string `json:"avatar" validate:"omitempty,url"`
	Bio    *string `json:"bio" validate:"omitempty,max=500"`
}

// handleEditProfile updates the caller's avatar and bio.
// PUT /me/profile
func (s *Server) handleEditProfile(c echo.Context) error {
	var req editProfileRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid profile fields.")
	}

	ac := getAuth(c)
	updated, err := s.accounts.UpdateProfile(c.Request().Context(), ac.Account.ID, req.Avatar, req.Bio)
	if err != nil {
		log.Printf("Error updating profile for account %d: %v", ac.Account.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "account": updated})
}

// handleListSaved returns the posts saved by the caller's acting
// identity. Saves are per identity: switching personas switches which
// saved list this shows.
// GET /me/saved
func (s *Server) handleListSaved(c echo.Context) error {
	ac := getAuth(c)
	cards, err := s.posts.ListSaved(c.Request().Context(), ac.Ident.Identity, maxPageSize)
	if err != nil {
		log.Printf("Error listing saved posts for account %d: %v", ac.Account.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "posts": cards})
}
