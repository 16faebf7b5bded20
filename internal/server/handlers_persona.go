package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/discussion-den/den/internal/persona"
)

type personaRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=48"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
	Banner   *string `json:"banner" validate:"omitempty,url"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	IsPublic bool    `json:"is_public"`
}

// handleCreatePersona creates a persona owned by the caller's account.
// POST /persona
func (s *Server) handleCreatePersona(c echo.Context) error {
	var req personaRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Persona name is required.")
	}

	ac := getAuth(c)
	p, err := s.personas.Create(c.Request().Context(), persona.CreateParams{
		UserID:   ac.Account.ID,
		Name:     req.Name,
		Avatar:   req.Avatar,
		Banner:   req.Banner,
		Bio:      req.Bio,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		log.Printf("Error creating persona for account %d: %v", ac.Account.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "persona": p})
}

// handleListMyPersonas returns every persona the caller owns,
// including private ones.
// GET /personas
func (s *Server) handleListMyPersonas(c echo.Context) error {
	ac := getAuth(c)
	personas, err := s.personas.ListByOwner(c.Request().Context(), ac.Account.ID)
	if err != nil {
		log.Printf("Error listing personas for account %d: %v", ac.Account.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "personas": personas})
}

// handlePersonaProfile shows a persona's profile with its posts. A
// private persona is visible only to its owner; everyone else gets a
// 404 rather than confirmation that it exists.
// GET /p/:id
func (s *Server) handlePersonaProfile(c echo.Context) error {
	personaID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid persona id.")
	}

	ac := getAuth(c)
	ctx := c.Request().Context()

	p, err := s.personas.GetByID(ctx, personaID)
	if errors.Is(err, persona.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Persona not found.")
	}
	if err != nil {
		log.Printf("Error loading persona %d: %v", personaID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	isOwner := p.UserID == ac.Account.ID
	if !p.IsPublic && !isOwner {
		return fail(c, http.StatusNotFound, "Persona not found.")
	}

	cards, err := s.posts.ListByAuthor(ctx, ac.Ident.Identity, nil, &p.ID, maxPageSize)
	if err != nil {
		log.Printf("Error listing posts for persona %d: %v", personaID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"persona":  p,
		"posts":    cards,
		"is_owner": isOwner,
	})
}

// handleUpdatePersona edits a persona's profile fields. Owner only.
// PUT /persona/:id
func (s *Server) handleUpdatePersona(c echo.Context) error {
	personaID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid persona id.")
	}
	var req personaRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Persona name is required.")
	}

	ac := getAuth(c)
	p, err := s.personas.Update(c.Request().Context(), personaID, ac.Account.ID, persona.CreateParams{
		Name:     req.Name,
		Avatar:   req.Avatar,
		Banner:   req.Banner,
		Bio:      req.Bio,
		IsPublic: req.IsPublic,
	})
	switch {
	case errors.Is(err, persona.ErrNotFound):
		return fail(c, http.StatusNotFound, "Persona not found.")
	case errors.Is(err, persona.ErrNotOwner):
		return fail(c, http.StatusForbidden, "That persona is not yours.")
	case err != nil:
		log.Printf("Error updating persona %d: %v", personaID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "persona": p})
}
