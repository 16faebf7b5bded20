package server

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleSearch finds posts, communities, and users matching the query,
// case-insensitively. The type parameter narrows the search to one
// result kind; the default searches all three.
// GET /search?q=&type=all|posts|communities|users&page=
func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return fail(c, http.StatusBadRequest, "Search query is required.")
	}

	kind := c.QueryParam("type")
	if kind == "" {
		kind = "all"
	}
	switch kind {
	case "all", "posts", "communities", "users":
	default:
		return fail(c, http.StatusBadRequest, "Search type must be all, posts, communities, or users.")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	ctx := c.Request().Context()
	result := map[string]any{
		"success": true,
		"query":   query,
		"type":    kind,
		"page":    page,
	}

	if kind == "all" || kind == "posts" {
		cards, err := s.posts.Search(ctx, viewerIdentity(c), query, maxPageSize, (page-1)*maxPageSize)
		if err != nil {
			log.Printf("Error searching posts for %q: %v", query, err)
			return fail(c, http.StatusInternalServerError, "Please try again.")
		}
		result["posts"] = cards
	}

	if kind == "all" || kind == "communities" {
		communities, err := s.communities.Search(ctx, query, maxPageSize)
		if err != nil {
			log.Printf("Error searching communities for %q: %v", query, err)
			return fail(c, http.StatusInternalServerError, "Please try again.")
		}
		result["communities"] = communities
	}

	if kind == "all" || kind == "users" {
		users, err := s.accounts.Search(ctx, query, maxPageSize)
		if err != nil {
			log.Printf("Error searching users for %q: %v", query, err)
			return fail(c, http.StatusInternalServerError, "Please try again.")
		}
		result["users"] = users
	}

	return c.JSON(http.StatusOK, result)
}
