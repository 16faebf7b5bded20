package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/discussion-den/den/internal/community"
	"github.com/discussion-den/den/internal/metrics"
	"github.com/discussion-den/den/internal/post"
)

type createPostRequest struct {
	Community string  `json:"community" validate:"required,min=1,max=64"`
	Title     string  `json:"title" validate:"required,max=200"`
	Body      string  `json:"body" validate:"required"`
	ImageURL  *string `json:"image_url" validate:"omitempty,url"`
}

// handleCreatePost submits a post to a community, attributed to the
// caller's acting identity.
// POST /post
func (s *Server) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Title and body are required.")
	}

	ac := getAuth(c)
	ctx := c.Request().Context()

	comm, err := s.communities.GetByName(ctx, req.Community)
	if errors.Is(err, community.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Community not found.")
	}
	if err != nil {
		log.Printf("Error loading community %q: %v", req.Community, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	p, err := s.posts.Create(ctx, ac.Ident.Identity, post.CreateParams{
		CommunityID: comm.ID,
		Title:       req.Title,
		Body:        req.Body,
		ImageURL:    req.ImageURL,
	})
	switch {
	case errors.Is(err, post.ErrEmptyTitle):
		return fail(c, http.StatusBadRequest, "Title cannot be empty.")
	case errors.Is(err, post.ErrEmptyBody):
		return fail(c, http.StatusBadRequest, "Body cannot be empty.")
	case err != nil:
		log.Printf("Error creating post in community %d: %v", comm.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	metrics.PostsCreated.WithLabelValues(metrics.AuthorKind(ac.Ident.Identity.IsPersona())).Inc()

	card, err := s.posts.CardFor(ctx, ac.Ident.Identity, p.ID)
	if err != nil {
		log.Printf("Error loading card for post %d: %v", p.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "post": card})
}

// handlePostDetail returns one post with viewer state plus its comments.
// GET /post/:id
func (s *Server) handlePostDetail(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}

	ctx := c.Request().Context()
	viewer := viewerIdentity(c)

	card, err := s.posts.CardFor(ctx, viewer, postID)
	if errors.Is(err, post.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Post not found.")
	}
	if err != nil {
		log.Printf("Error loading post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	comments, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		log.Printf("Error listing comments for post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	views, err := s.commentViews(ctx, viewer, comments)
	if err != nil {
		log.Printf("Error resolving comment authors for post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"post":      card,
		"comments":  views,
		"is_author": viewer.Matches(card.AuthorUserID, card.AuthorPersonaID),
	})
}

type updatePostRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Body     string  `json:"body" validate:"required"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

// handleUpdatePost edits a post's content. Only the exact authoring
// identity may edit.
// PUT /post/:id
func (s *Server) handleUpdatePost(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}
	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Title and body are required.")
	}

	ac := getAuth(c)
	p, err := s.posts.Update(c.Request().Context(), postID, ac.Ident.Identity, post.CreateParams{
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	switch {
	case errors.Is(err, post.ErrNotFound):
		return fail(c, http.StatusNotFound, "Post not found.")
	case errors.Is(err, post.ErrNotAuthor):
		return fail(c, http.StatusForbidden, "You can only edit your own posts.")
	case errors.Is(err, post.ErrEmptyTitle):
		return fail(c, http.StatusBadRequest, "Title cannot be empty.")
	case errors.Is(err, post.ErrEmptyBody):
		return fail(c, http.StatusBadRequest, "Body cannot be empty.")
	case err != nil:
		log.Printf("Error updating post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "post": p})
}

// handleDeletePost deletes a post along with its comments, votes, and
// saves. Only the exact authoring identity may delete.
// DELETE /post/:id
func (s *Server) handleDeletePost(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid post id.")
	}

	ac := getAuth(c)
	err = s.posts.Delete(c.Request().Context(), postID, ac.Ident.Identity)
	switch {
	case errors.Is(err, post.ErrNotFound):
		return fail(c, http.StatusNotFound, "Post not found.")
	case errors.Is(err, post.ErrNotAuthor):
		return fail(c, http.StatusForbidden, "You can only delete your own posts.")
	case err != nil:
		log.Printf("Error deleting post %d: %v", postID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

type updateCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// handleUpdateComment edits a comment's body. Only the exact authoring
// identity may edit.
// PUT /comment/:id
func (s *Server) handleUpdateComment(c echo.Context) error {
	commentID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid comment id.")
	}
	var req updateCommentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}

	ac := getAuth(c)
	ctx := c.Request().Context()

	comment, err := s.posts.UpdateComment(ctx, commentID, ac.Ident.Identity, req.Body)
	switch {
	case errors.Is(err, post.ErrCommentNotFound):
		return fail(c, http.StatusNotFound, "Comment not found.")
	case errors.Is(err, post.ErrNotAuthor):
		return fail(c, http.StatusForbidden, "You can only edit your own comments.")
	case errors.Is(err, post.ErrEmptyBody):
		return fail(c, http.StatusBadRequest, "Comment cannot be empty.")
	case err != nil:
		log.Printf("Error updating comment %d: %v", commentID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	views, err := s.commentViews(ctx, ac.Ident.Identity, []post.Comment{*comment})
	if err != nil {
		log.Printf("Error resolving comment author %d: %v", commentID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "comment": views[0]})
}

// handleDeleteComment deletes a comment and its reply subtree. Only the
// exact authoring identity may delete.
// DELETE /comment/:id
func (s *Server) handleDeleteComment(c echo.Context) error {
	commentID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid comment id.")
	}

	ac := getAuth(c)
	err = s.posts.DeleteComment(c.Request().Context(), commentID, ac.Ident.Identity)
	switch {
	case errors.Is(err, post.ErrCommentNotFound):
		return fail(c, http.StatusNotFound, "Comment not found.")
	case errors.Is(err, post.ErrNotAuthor):
		return fail(c, http.StatusForbidden, "You can only delete your own comments.")
	case err != nil:
		log.Printf("Error deleting comment %d: %v", commentID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
