// Package post provides posts and the interactions scoped to them:
// votes, saves, and threaded comments. Every authored row is attributed
// to exactly one identity (account or persona); the stores here convert
// identity.Identity to the nullable author column pair at the SQL
// boundary and never set both or neither.
package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/discussion-den/den/internal/database"
	"github.com/discussion-den/den/internal/identity"
)

// Sentinel errors for post operations.
var (
	ErrNotFound   = errors.New("post: not found")
	ErrNotAuthor  = errors.New("post: not the author")
	ErrEmptyTitle = errors.New("post: title must not be empty")
	ErrEmptyBody  = errors.New("post: body must not be empty")
)

// Post represents a single submission to a community. Upvotes and
// downvotes are denormalized counters maintained by the vote ledger.
type Post struct {
	ID              int64     `json:"id"`
	CommunityID     int64     `json:"community_id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	ImageURL        *string   `json:"image_url,omitempty"`
	Upvotes         int       `json:"upvotes"`
	Downvotes       int       `json:"downvotes"`
	AuthorUserID    *int64    `json:"author_user_id,omitempty"`
	AuthorPersonaID *int64    `json:"author_persona_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Card is the post representation used by feed, community, and search
// listings: the post plus viewer-dependent interaction state and the
// author badge.
type Card struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	ImageURL        *string   `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	CommunityName   string    `json:"community_name"`
	Upvotes         int       `json:"upvotes"`
	Downvotes       int       `json:"downvotes"`
	Score           int       `json:"score"`
	IsSaved         bool      `json:"is_saved"`
	UserVote        int       `json:"user_vote"`
	AuthorName      string    `json:"author_name"`
	AuthorUserID    *int64    `json:"author_user_id,omitempty"`
	AuthorPersonaID *int64    `json:"author_persona_id,omitempty"`
	CommentCount    int64     `json:"comment_count"`
}

// CreateParams holds the parameters for creating a post.
type CreateParams struct {
	CommunityID int64
	Title       string
	Body        string
	ImageURL    *string
}

// Store provides post, vote, save, and comment operations backed by
// PostgreSQL.
type Store struct {
	db *database.DB

	// maxCommentDepth caps reply chain length; zero disables the cap.
	maxCommentDepth int
}

// NewStore creates a post Store. maxCommentDepth bounds comment reply
// chains (see AddComment); pass zero to allow unlimited nesting.
func NewStore(db *database.DB, maxCommentDepth int) *Store {
	return &Store{db: db, maxCommentDepth: maxCommentDepth}
}

const postColumns = `id, community_id, title, body, image_url, upvotes, downvotes,
	author_user_id, author_persona_id, created_at`

// Create inserts a post authored by the given identity. Title and body
// must be non-empty after trimming.
func (s *Store) Create(ctx context.Context, ident identity.Identity, p CreateParams) (*Post, error) {
	title := strings.TrimSpace(p.Title)
	body := strings.TrimSpace(p.Body)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if body == "" {
		return nil, ErrEmptyBody
	}

	authorUserID, authorPersonaID := ident.AuthorRefs()

	var out Post
	err := s.db.Pool.QueryRow(ctx,
		`INSERT INTO posts (community_id, title, body, image_url, author_user_id, author_persona_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+postColumns,
		p.CommunityID, title, body, p.ImageURL, authorUserID, authorPersonaID,
	).Scan(&out.ID, &out.CommunityID, &out.Title, &out.Body, &out.ImageURL,
		&out.Upvotes, &out.Downvotes, &out.AuthorUserID, &out.AuthorPersonaID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("post: create: %w", err)
	}
	return &out, nil
}

// GetByID returns a post by id. Returns ErrNotFound if no post matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Post, error) {
	var p Post
	err := s.db.Pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id,
	).Scan(&p.ID, &p.CommunityID, &p.Title, &p.Body, &p.ImageURL,
		&p.Upvotes, &p.Downvotes, &p.AuthorUserID, &p.AuthorPersonaID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("post: get %d: %w", id, err)
	}
	return &p, nil
}

// Update replaces a post's content. Only the author may edit: the
// acting identity must match the stored author pair exactly. A
// persona-authored post is not editable by its owner acting as the
// account, and vice versa.
func (s *Store) Update(ctx context.Context, id int64, ident identity.Identity, p CreateParams) (*Post, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ident.Matches(existing.AuthorUserID, existing.AuthorPersonaID) {
		return nil, fmt.Errorf("%w: post %d", ErrNotAuthor, id)
	}

	title := strings.TrimSpace(p.Title)
	body := strings.TrimSpace(p.Body)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if body == "" {
		return nil, ErrEmptyBody
	}

	var out Post
	err = s.db.Pool.QueryRow(ctx,
		`UPDATE posts SET title = $1, body = $2, image_url = $3
		 WHERE id = $4
		 RETURNING `+postColumns,
		title, body, p.ImageURL, id,
	).Scan(&out.ID, &out.CommunityID, &out.Title, &out.Body, &out.ImageURL,
		&out.Upvotes, &out.Downvotes, &out.AuthorUserID, &out.AuthorPersonaID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("post: update %d: %w", id, err)
	}
	return &out, nil
}

// Delete removes a post. Only the author may delete; comments, votes,
// and saves go with it via ON DELETE CASCADE.
func (s *Store) Delete(ctx context.Context, id int64, ident identity.Identity) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !ident.Matches(existing.AuthorUserID, existing.AuthorPersonaID) {
		return fmt.Errorf("%w: post %d", ErrNotAuthor, id)
	}

	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("post: delete %d: %w", id, err)
	}
	return nil
}

// viewerColumns returns the vote/save column names and the id to match
// for the viewing identity. The column names come from a fixed set,
// never from user input.
func viewerColumns(ident identity.Identity) (voteCol, saveCol string, viewerID int64) {
	if pid, ok := ident.PersonaID(); ok {
		return "voted_by_persona_id", "saved_by_persona_id", pid
	}
	return "voted_by_user_id", "saved_by_user_id", ident.AccountID()
}

// cardQuery builds the base card SELECT with viewer state for the given
// identity. The viewer id is always argument $1; callers append their
// own WHERE/ORDER/LIMIT with arguments numbered from $2.
func cardQuery(ident identity.Identity, tail string) (string, int64) {
	voteCol, saveCol, viewerID := viewerColumns(ident)
	q := fmt.Sprintf(`
		SELECT p.id, p.title, p.body, p.image_url, p.created_at,
		       c.name,
		       p.upvotes, p.downvotes,
		       COALESCE(v.value, 0),
		       sp.id IS NOT NULL,
		       COALESCE(pe.name, u.username, 'Unknown'),
		       p.author_user_id, p.author_persona_id,
		       (SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id)
		FROM posts p
		JOIN communities c ON c.id = p.community_id
		LEFT JOIN users u ON u.id = p.author_user_id
		LEFT JOIN personas pe ON pe.id = p.author_persona_id
		LEFT JOIN votes v ON v.post_id = p.id AND v.%s = $1
		LEFT JOIN saved_posts sp ON sp.post_id = p.id AND sp.%s = $1
		%s`, voteCol, saveCol, tail)
	return q, viewerID
}

func (s *Store) queryCards(ctx context.Context, ident identity.Identity, tail string, args ...any) ([]Card, error) {
	q, viewerID := cardQuery(ident, tail)
	rows, err := s.db.Pool.Query(ctx, q, append([]any{viewerID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("post: query cards: %w", err)
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.Title, &c.Body, &c.ImageURL, &c.CreatedAt,
			&c.CommunityName, &c.Upvotes, &c.Downvotes, &c.UserVote, &c.IsSaved,
			&c.AuthorName, &c.AuthorUserID, &c.AuthorPersonaID, &c.CommentCount); err != nil {
			return nil, fmt.Errorf("post: scan card: %w", err)
		}
		c.Score = c.Upvotes - c.Downvotes
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Feed returns one page of the global recency feed as cards for the
// viewing identity. It fetches pageSize+1 rows to detect whether more
// pages remain.
func (s *Store) Feed(ctx context.Context, ident identity.Identity, page, pageSize int) (cards []Card, hasMore bool, err error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	cards, err = s.queryCards(ctx, ident,
		`ORDER BY p.created_at DESC, p.id DESC OFFSET $2 LIMIT $3`,
		offset, pageSize+1)
	if err != nil {
		return nil, false, err
	}
	if len(cards) > pageSize {
		return cards[:pageSize], true, nil
	}
	return cards, false, nil
}

// ListByCommunity returns the most recent cards in one community.
func (s *Store) ListByCommunity(ctx context.Context, ident identity.Identity, communityID int64, limit int) ([]Card, error) {
	return s.queryCards(ctx, ident,
		`WHERE p.community_id = $2 ORDER BY p.created_at DESC, p.id DESC LIMIT $3`,
		communityID, limit)
}

// ListByAuthor returns the most recent cards authored by the given
// identity columns; exactly one of authorUserID / authorPersonaID
// should be set. Used by profile pages.
func (s *Store) ListByAuthor(ctx context.Context, ident identity.Identity, authorUserID, authorPersonaID *int64, limit int) ([]Card, error) {
	switch {
	case authorPersonaID != nil:
		return s.queryCards(ctx, ident,
			`WHERE p.author_persona_id = $2 ORDER BY p.created_at DESC, p.id DESC LIMIT $3`,
			*authorPersonaID, limit)
	case authorUserID != nil:
		return s.queryCards(ctx, ident,
			`WHERE p.author_user_id = $2 ORDER BY p.created_at DESC, p.id DESC LIMIT $3`,
			*authorUserID, limit)
	default:
		return []Card{}, nil
	}
}

// ListSaved returns the cards the viewing identity has saved, most
// recently saved first.
func (s *Store) ListSaved(ctx context.Context, ident identity.Identity, limit int) ([]Card, error) {
	return s.queryCards(ctx, ident,
		`WHERE sp.id IS NOT NULL ORDER BY sp.saved_at DESC LIMIT $2`,
		limit)
}

// Search returns cards whose title or body matches the query,
// case-insensitively, newest first.
func (s *Store) Search(ctx context.Context, ident identity.Identity, query string, limit, offset int) ([]Card, error) {
	pattern := "%" + query + "%"
	return s.queryCards(ctx, ident,
		`WHERE p.title ILIKE $2 OR p.body ILIKE $2
		 ORDER BY p.created_at DESC, p.id DESC LIMIT $3 OFFSET $4`,
		pattern, limit, offset)
}

// CardFor returns the single card for one post as seen by the viewing
// identity. Returns ErrNotFound if the post does not exist.
func (s *Store) CardFor(ctx context.Context, ident identity.Identity, postID int64) (*Card, error) {
	cards, err := s.queryCards(ctx, ident, `WHERE p.id = $2`, postID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, postID)
	}
	return &cards[0], nil
}
