package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/discussion-den/den/internal/identity"
)

// Sentinel errors for comment operations.
var (
	ErrCommentNotFound = errors.New("post: comment not found")
	ErrInvalidParent   = errors.New("post: parent comment missing or on a different post")
	ErrMaxDepth        = errors.New("post: maximum reply depth reached")
)

// Comment represents one comment on a post. ParentCommentID is nil for
// root comments. Comments form a forest: a parent is always an
// earlier-created comment on the same post, so cycles cannot occur.
type Comment struct {
	ID              int64     `json:"id"`
	PostID          int64     `json:"post_id"`
	Body            string    `json:"body"`
	AuthorUserID    *int64    `json:"author_user_id,omitempty"`
	AuthorPersonaID *int64    `json:"author_persona_id,omitempty"`
	ParentCommentID *int64    `json:"parent_comment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

const commentColumns = `id, post_id, body, author_user_id, author_persona_id, parent_comment_id, created_at`

// AddComment inserts a comment attributed to the identity. The body
// must be non-empty after trimming. A parent, when given, must exist on
// the same post; when the store has a reply-depth cap, replies whose
// chain would exceed it are rejected with ErrMaxDepth rather than
// silently reparented or truncated.
func (s *Store) AddComment(ctx context.Context, postID int64, ident identity.Identity, body string, parentID *int64) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	if _, err := s.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	if parentID != nil {
		depth, err := s.chainDepth(ctx, postID, *parentID)
		if err != nil {
			return nil, err
		}
		if s.maxCommentDepth > 0 && depth+1 > s.maxCommentDepth {
			return nil, fmt.Errorf("%w: %d", ErrMaxDepth, s.maxCommentDepth)
		}
	}

	authorUserID, authorPersonaID := ident.AuthorRefs()

	var c Comment
	err := s.db.Pool.QueryRow(ctx,
		`INSERT INTO comments (post_id, body, author_user_id, author_persona_id, parent_comment_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+commentColumns,
		postID, body, authorUserID, authorPersonaID, parentID,
	).Scan(&c.ID, &c.PostID, &c.Body, &c.AuthorUserID, &c.AuthorPersonaID, &c.ParentCommentID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("post: add comment: %w", err)
	}
	return &c, nil
}

// chainDepth walks the parent chain upward from the given comment and
// returns its length (the comment itself counts as one). Validates that
// the starting comment exists and belongs to postID.
func (s *Store) chainDepth(ctx context.Context, postID, commentID int64) (int, error) {
	depth := 0
	cur := &commentID
	for cur != nil {
		var parentPostID int64
		var parent *int64
		err := s.db.Pool.QueryRow(ctx,
			`SELECT post_id, parent_comment_id FROM comments WHERE id = $1`, *cur,
		).Scan(&parentPostID, &parent)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: id %d", ErrInvalidParent, *cur)
		}
		if err != nil {
			return 0, fmt.Errorf("post: walk comment chain: %w", err)
		}
		if parentPostID != postID {
			return 0, fmt.Errorf("%w: id %d", ErrInvalidParent, *cur)
		}
		depth++
		cur = parent
	}
	return depth, nil
}

// GetComment returns a comment by id. Returns ErrCommentNotFound if no
// comment matches.
func (s *Store) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.Pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id,
	).Scan(&c.ID, &c.PostID, &c.Body, &c.AuthorUserID, &c.AuthorPersonaID, &c.ParentCommentID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrCommentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("post: get comment %d: %w", id, err)
	}
	return &c, nil
}

// ListComments returns all comments on a post as a flat slice in
// creation order, each annotated with its parent id. Consumers rebuild
// the tree by grouping children under parents. Returns ErrNotFound for
// an unknown post.
func (s *Store) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	if _, err := s.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE post_id = $1 ORDER BY created_at, id`,
		postID)
	if err != nil {
		return nil, fmt.Errorf("post: list comments %d: %w", postID, err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Body, &c.AuthorUserID, &c.AuthorPersonaID, &c.ParentCommentID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("post: scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment replaces a comment's body. Only the author may edit,
// matched against the full disjoint identity.
func (s *Store) UpdateComment(ctx context.Context, id int64, ident identity.Identity, body string) (*Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	existing, err := s.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ident.Matches(existing.AuthorUserID, existing.AuthorPersonaID) {
		return nil, fmt.Errorf("%w: comment %d", ErrNotAuthor, id)
	}

	var c Comment
	err = s.db.Pool.QueryRow(ctx,
		`UPDATE comments SET body = $1 WHERE id = $2 RETURNING `+commentColumns,
		body, id,
	).Scan(&c.ID, &c.PostID, &c.Body, &c.AuthorUserID, &c.AuthorPersonaID, &c.ParentCommentID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("post: update comment %d: %w", id, err)
	}
	return &c, nil
}

// DeleteComment removes a comment and, via ON DELETE CASCADE on the
// parent reference, its entire reply subtree. Only the author may
// delete.
func (s *Store) DeleteComment(ctx context.Context, id int64, ident identity.Identity) error {
	existing, err := s.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !ident.Matches(existing.AuthorUserID, existing.AuthorPersonaID) {
		return fmt.Errorf("%w: comment %d", ErrNotAuthor, id)
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("post: delete comment %d: %w", id, err)
	}
	return nil
}
