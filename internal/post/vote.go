package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/discussion-den/den/internal/database"
	"github.com/discussion-den/den/internal/identity"
)

// ErrInvalidVote is returned for vote values outside {-1, 0, 1}.
var ErrInvalidVote = errors.New("post: vote value must be -1, 0, or 1")

// VoteResult is the post's aggregate after a vote operation, plus the
// caller's resulting vote value.
type VoteResult struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	Score     int `json:"score"`
	Vote      int `json:"vote"`
}

// CastVote records, changes, or removes (value 0) the identity's vote
// on a post and returns the resulting aggregate.
//
// The vote row mutation and the denormalized counter adjustment commit
// in one transaction; the post row is locked first so concurrent votes
// on the same post serialize and neither loses its counter update. A
// unique-constraint violation from a concurrent duplicate insert for
// the same (post, identity) is converged by retrying, which re-reads
// the winner's row and takes the update path.
func (s *Store) CastVote(ctx context.Context, postID int64, ident identity.Identity, value int) (*VoteResult, error) {
	if value < -1 || value > 1 {
		return nil, ErrInvalidVote
	}

	res, err := s.castVote(ctx, postID, ident, value)
	if database.IsUniqueViolation(err) {
		res, err = s.castVote(ctx, postID, ident, value)
	}
	return res, err
}

func (s *Store) castVote(ctx context.Context, postID int64, ident identity.Identity, value int) (*VoteResult, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("post: cast vote: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the post row so concurrent votes serialize on the counters.
	var up, down int
	err = tx.QueryRow(ctx,
		`SELECT upvotes, downvotes FROM posts WHERE id = $1 FOR UPDATE`,
		postID,
	).Scan(&up, &down)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("post: cast vote: lock post %d: %w", postID, err)
	}

	voteCol, _, voterID := viewerColumns(ident)

	var voteID int64
	prior := 0
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, value FROM votes WHERE post_id = $1 AND %s = $2`, voteCol),
		postID, voterID,
	).Scan(&voteID, &prior)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post: cast vote: read prior: %w", err)
	}

	switch {
	case value == 0:
		if prior != 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE id = $1`, voteID); err != nil {
				return nil, fmt.Errorf("post: cast vote: delete: %w", err)
			}
		}
	case prior != 0:
		if _, err := tx.Exec(ctx, `UPDATE votes SET value = $1 WHERE id = $2`, value, voteID); err != nil {
			return nil, fmt.Errorf("post: cast vote: update: %w", err)
		}
	default:
		voterUserID, voterPersonaID := ident.AuthorRefs()
		if _, err := tx.Exec(ctx,
			`INSERT INTO votes (post_id, voted_by_user_id, voted_by_persona_id, value)
			 VALUES ($1, $2, $3, $4)`,
			postID, voterUserID, voterPersonaID, value); err != nil {
			return nil, fmt.Errorf("post: cast vote: insert: %w", err)
		}
	}

	up, down = adjustCounters(up, down, prior, value)
	if _, err := tx.Exec(ctx,
		`UPDATE posts SET upvotes = $1, downvotes = $2 WHERE id = $3`,
		up, down, postID); err != nil {
		return nil, fmt.Errorf("post: cast vote: counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("post: cast vote: commit: %w", err)
	}

	return &VoteResult{Upvotes: up, Downvotes: down, Score: up - down, Vote: value}, nil
}

// adjustCounters applies the delta between the prior and new vote value
// to the denormalized counters. Decrements are clamped at zero so
// counter drift is absorbed instead of going negative.
func adjustCounters(up, down, prior, next int) (int, int) {
	switch prior {
	case 1:
		up = max(up-1, 0)
	case -1:
		down = max(down-1, 0)
	}
	switch next {
	case 1:
		up++
	case -1:
		down++
	}
	return up, down
}
