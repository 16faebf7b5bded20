package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/discussion-den/den/internal/community"
)

// handleListCommunities lists all communities with post counts.
// GET /communities
func (s *Server) handleListCommunities(c echo.Context) error {
	communities, err := s.communities.ListWithCounts(c.Request().Context())
	if err != nil {
		log.Printf("Error listing communities: %v", err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "communities": communities})
}

// handleCommunityPage shows one community and its posts, newest first.
// Anonymous viewers see the posts without vote or save state.
// GET /community/:name
func (s *Server) handleCommunityPage(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))

	ctx := c.Request().Context()
	comm, err := s.communities.GetByName(ctx, name)
	if errors.Is(err, community.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Community not found.")
	}
	if err != nil {
		log.Printf("Error loading community %q: %v", name, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	cards, err := s.posts.ListByCommunity(ctx, viewerIdentity(c), comm.ID, maxPageSize)
	if err != nil {
		log.Printf("Error listing posts for community %d: %v", comm.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"community": comm,
		"posts":     cards,
	})
}

type createCommunityRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=64,alphanum"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Rules       *string `json:"rules" validate:"omitempty,max=2000"`
}

// handleCreateCommunity creates a new community.
// POST /community
func (s *Server) handleCreateCommunity(c echo.Context) error {
	var req createCommunityRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Community name must be 2-64 alphanumeric characters.")
	}

	comm, err := s.communities.Create(c.Request().Context(), req.Name, req.Description, req.Rules)
	switch {
	case errors.Is(err, community.ErrNameTaken):
		return fail(c, http.StatusBadRequest, "That community name is taken.")
	case err != nil:
		log.Printf("Error creating community %q: %v", req.Name, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "community": comm})
}
