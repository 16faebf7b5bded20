package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	// --- Public endpoints (no auth) ---
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", metricsHandler())

	s.echo.POST("/auth/register", s.handleRegister)
	s.echo.POST("/auth/verify-otp", s.handleVerifyOTP)
	s.echo.POST("/auth/login", s.handleLogin)
	s.echo.POST("/auth/logout", s.handleLogout)

	s.echo.GET("/communities", s.handleListCommunities, s.optionalAuth)
	s.echo.GET("/community/:name", s.handleCommunityPage, s.optionalAuth)

	// --- Authenticated endpoints ---
	authed := s.echo.Group("", s.requireAuth)

	api := authed.Group("/api")
	api.GET("/me/identity", s.handleMeIdentity)
	api.POST("/persona/switch", s.handlePersonaSwitch)
	api.GET("/feed", s.handleFeed)
	api.POST("/post/:id/vote", s.handleVote)
	api.POST("/post/:id/save", s.handleSave)
	api.POST("/post/:id/comment", s.handleAddComment)
	api.GET("/post/:id/comments", s.handleListComments)

	authed.POST("/post", s.handleCreatePost)
	authed.GET("/post/:id", s.handlePostDetail)
	authed.PUT("/post/:id", s.handleUpdatePost)
	authed.DELETE("/post/:id", s.handleDeletePost)
	authed.PUT("/comment/:id", s.handleUpdateComment)
	authed.DELETE("/comment/:id", s.handleDeleteComment)

	authed.POST("/persona", s.handleCreatePersona)
	authed.GET("/personas", s.handleListMyPersonas)
	authed.GET("/p/:id", s.handlePersonaProfile)
	authed.PUT("/persona/:id", s.handleUpdatePersona)

	authed.GET("/u/:username", s.handleUserProfile)
	authed.PUT("/me/profile", s.handleEditProfile)
	authed.GET("/me/saved", s.handleListSaved)

	authed.POST("/community", s.handleCreateCommunity)
	authed.GET("/search", s.handleSearch)
}

// handleHealth returns basic server health information.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"version": "0.1.0",
	})
}
