// Package community provides the data model and CRUD operations for
// communities: named topic containers that posts are submitted into.
// Communities are never deleted.
package community

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/discussion-den/den/internal/database"
)

// Sentinel errors for community operations.
var (
	ErrNotFound  = errors.New("community: not found")
	ErrNameTaken = errors.New("community: name already taken")
)

// Community represents a single topic container.
type Community struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Rules       *string   `json:"rules,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// PostCount is populated by ListWithCounts; zero elsewhere.
	PostCount int64 `json:"post_count,omitempty"`
}

// Store provides community CRUD operations backed by PostgreSQL.
type Store struct {
	db *database.DB
}

// NewStore creates a community Store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new community. Returns ErrNameTaken when the name is
// already in use.
func (s *Store) Create(ctx context.Context, name string, description, rules *string) (*Community, error) {
	var c Community
	err := s.db.Pool.QueryRow(ctx,
		`INSERT INTO communities (name, description, rules)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, description, rules, created_at`,
		name, description, rules,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Rules, &c.CreatedAt)
	if database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	if err != nil {
		return nil, fmt.Errorf("community: create %q: %w", name, err)
	}
	return &c, nil
}

// GetByName returns a community by its unique name.
// Returns ErrNotFound if no community matches.
func (s *Store) GetByName(ctx context.Context, name string) (*Community, error) {
	var c Community
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, name, description, rules, created_at
		 FROM communities WHERE name = $1`,
		name,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Rules, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("community: get %q: %w", name, err)
	}
	return &c, nil
}

// GetByID returns a community by id. Returns ErrNotFound if no
// community matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Community, error) {
	var c Community
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, name, description, rules, created_at
		 FROM communities WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Rules, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("community: get %d: %w", id, err)
	}
	return &c, nil
}

// ListWithCounts returns all communities ordered by name, each with its
// post count.
func (s *Store) ListWithCounts(ctx context.Context) ([]Community, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT c.id, c.name, c.description, c.rules, c.created_at,
		        COUNT(p.id)
		 FROM communities c
		 LEFT JOIN posts p ON p.community_id = c.id
		 GROUP BY c.id
		 ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("community: list: %w", err)
	}
	defer rows.Close()

	communities := []Community{} // empty slice, not nil (clean JSON: [] not null)
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Rules, &c.CreatedAt, &c.PostCount); err != nil {
			return nil, fmt.Errorf("community: list scan: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// Search returns communities whose name or description matches the
// query, case-insensitively, ordered by name.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Community, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, name, description, rules, created_at
		 FROM communities
		 WHERE name ILIKE $1 OR description ILIKE $1
		 ORDER BY name LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("community: search: %w", err)
	}
	defer rows.Close()

	communities := []Community{}
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Rules, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("community: search scan: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}
