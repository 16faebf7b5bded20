// Package account provides the data model and operations for
// registered user accounts. Accounts authenticate with a username and
// bcrypt-hashed password and may own any number of personas.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/discussion-den/den/internal/database"
)

// Sentinel errors for account operations.
var (
	ErrNotFound        = errors.New("account: not found")
	ErrUsernameTaken   = errors.New("account: username already taken")
	ErrEmailTaken      = errors.New("account: email already taken")
	ErrInvalidPassword = errors.New("account: invalid password")
)

// Account represents a registered user.
type Account struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateParams holds the parameters for creating a new account.
type CreateParams struct {
	Username string
	Email    string
	Password string // plaintext, will be hashed
}

// Store provides account CRUD operations backed by PostgreSQL.
type Store struct {
	db *database.DB
}

// NewStore creates an account Store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new account, hashing the password. Username and
// email are lowercased for uniqueness. Returns ErrUsernameTaken or
// ErrEmailTaken when the corresponding unique index rejects the insert.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Account, error) {
	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("account: create: %w", err)
	}
	return s.CreateWithHash(ctx, p.Username, p.Email, hash)
}

// CreateWithHash inserts an account whose password is already bcrypt
// hashed. The registration flow uses this after the OTP round trip,
// since the hash travels inside the registration token.
func (s *Store) CreateWithHash(ctx context.Context, username, email, hash string) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	var a Account
	err := s.db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, avatar, bio, created_at`,
		username, email, hash,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Avatar, &a.Bio, &a.CreatedAt)
	if database.IsUniqueViolation(err) {
		taken, lookupErr := s.usernameExists(ctx, username)
		if lookupErr == nil && taken {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	if err != nil {
		return nil, fmt.Errorf("account: create %q: %w", username, err)
	}
	return &a, nil
}

// GetByID returns an account by id. Returns ErrNotFound if no account
// matches.
func (s *Store) GetByID(ctx context.Context, id int64) (*Account, error) {
	var a Account
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, username, email, avatar, bio, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Avatar, &a.Bio, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("account: get by id %d: %w", id, err)
	}
	return &a, nil
}

// GetByUsername returns an account by its (lowercased) username.
// Returns ErrNotFound if no account matches.
func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var a Account
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, username, email, avatar, bio, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Avatar, &a.Bio, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("account: get by username %q: %w", username, err)
	}
	return &a, nil
}

// UsernameOrEmailTaken reports whether either value is already
// registered. Used by the registration flow before the OTP round trip.
func (s *Store) UsernameOrEmailTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	err = s.db.Pool.QueryRow(ctx,
		`SELECT
		    EXISTS (SELECT 1 FROM users WHERE username = $1),
		    EXISTS (SELECT 1 FROM users WHERE email = $2)`,
		username, email,
	).Scan(&usernameTaken, &emailTaken)
	if err != nil {
		return false, false, fmt.Errorf("account: check taken: %w", err)
	}
	return usernameTaken, emailTaken, nil
}

// Search returns accounts whose username matches the query,
// case-insensitively, ordered by username. Email is never populated:
// search results are public.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Account, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, username, avatar, bio, created_at
		 FROM users WHERE username ILIKE $1
		 ORDER BY username LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("account: search: %w", err)
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Avatar, &a.Bio, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("account: search scan: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Usernames returns id -> username for the given account ids. Ids with
// no matching account are absent from the result.
func (s *Store) Usernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.Pool.Query(ctx,
		`SELECT id, username FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("account: usernames: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, fmt.Errorf("account: usernames: %w", err)
		}
		out[id] = username
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account: usernames: %w", err)
	}
	return out, nil
}

// UpdateProfile sets the optional profile fields. Nil clears a field.
func (s *Store) UpdateProfile(ctx context.Context, id int64, avatar, bio *string) (*Account, error) {
	var a Account
	err := s.db.Pool.QueryRow(ctx,
		`UPDATE users SET avatar = $1, bio = $2
		 WHERE id = $3
		 RETURNING id, username, email, avatar, bio, created_at`,
		avatar, bio, id,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Avatar, &a.Bio, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("account: update profile %d: %w", id, err)
	}
	return &a, nil
}

// VerifyPassword checks the password for an account identified by
// username. Returns the Account on success, ErrNotFound for an unknown
// username, or ErrInvalidPassword on mismatch.
func (s *Store) VerifyPassword(ctx context.Context, username, password string) (*Account, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	var a Account
	var hash string
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, avatar, bio, created_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&a.ID, &a.Username, &a.Email, &hash, &a.Avatar, &a.Bio, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("account: verify password %q: %w", username, err)
	}

	if err := CheckPassword(hash, password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPassword, username)
	}
	return &a, nil
}

func (s *Store) usernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	return exists, err
}
