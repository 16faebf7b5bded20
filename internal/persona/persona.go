// Package persona provides the data model and operations for personas:
// alternate display identities owned by exactly one account. The owner
// never changes after creation; deleting the owner cascades to its
// personas.
package persona

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/discussion-den/den/internal/database"
)

// Sentinel errors for persona operations.
var (
	ErrNotFound = errors.New("persona: not found")
	ErrNotOwner = errors.New("persona: not owned by account")
)

// Persona represents an alternate display identity.
type Persona struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar,omitempty"`
	Banner    *string   `json:"banner,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateParams holds the parameters for creating a persona.
type CreateParams struct {
	UserID   int64
	Name     string
	Avatar   *string
	Banner   *string
	Bio      *string
	IsPublic bool
}

// Store provides persona CRUD operations backed by PostgreSQL.
type Store struct {
	db *database.DB
}

// NewStore creates a persona Store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const personaColumns = `id, user_id, name, avatar, banner, bio, is_public, created_at`

// Create inserts a new persona for the owning account.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Persona, error) {
	var out Persona
	err := s.db.Pool.QueryRow(ctx,
		`INSERT INTO personas (user_id, name, avatar, banner, bio, is_public)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+personaColumns,
		p.UserID, p.Name, p.Avatar, p.Banner, p.Bio, p.IsPublic,
	).Scan(&out.ID, &out.UserID, &out.Name, &out.Avatar, &out.Banner, &out.Bio, &out.IsPublic, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("persona: create %q: %w", p.Name, err)
	}
	return &out, nil
}

// GetByID returns a persona by id. Returns ErrNotFound if no persona
// matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Persona, error) {
	var p Persona
	err := s.db.Pool.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Avatar, &p.Banner, &p.Bio, &p.IsPublic, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("persona: get by id %d: %w", id, err)
	}
	return &p, nil
}

// ListByOwner returns all personas owned by an account, oldest first.
func (s *Store) ListByOwner(ctx context.Context, userID int64) ([]Persona, error) {
	return s.list(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE user_id = $1 ORDER BY id`, userID)
}

// ListPublicByOwner returns an account's public personas, oldest first.
// Used for profile pages viewed by other users.
func (s *Store) ListPublicByOwner(ctx context.Context, userID int64) ([]Persona, error) {
	return s.list(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE user_id = $1 AND is_public ORDER BY id`, userID)
}

// GetMany returns the personas for the given ids, keyed by id. Ids
// with no matching persona are simply absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []int64) (map[int64]Persona, error) {
	out := make(map[int64]Persona, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := s.list(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

// Update replaces a persona's profile fields. The caller must be the
// owner; a mismatch returns ErrNotOwner without mutating anything.
func (s *Store) Update(ctx context.Context, id, ownerID int64, p CreateParams) (*Persona, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != ownerID {
		return nil, fmt.Errorf("%w: persona %d, account %d", ErrNotOwner, id, ownerID)
	}

	var out Persona
	err = s.db.Pool.QueryRow(ctx,
		`UPDATE personas SET name = $1, avatar = $2, banner = $3, bio = $4, is_public = $5
		 WHERE id = $6
		 RETURNING `+personaColumns,
		p.Name, p.Avatar, p.Banner, p.Bio, p.IsPublic, id,
	).Scan(&out.ID, &out.UserID, &out.Name, &out.Avatar, &out.Banner, &out.Bio, &out.IsPublic, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("persona: update %d: %w", id, err)
	}
	return &out, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Persona, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("persona: list: %w", err)
	}
	defer rows.Close()

	personas := []Persona{}
	for rows.Next() {
		var p Persona
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Avatar, &p.Banner, &p.Bio, &p.IsPublic, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("persona: list scan: %w", err)
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}
