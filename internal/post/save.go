package post

import (
	"context"
	"fmt"

	"github.com/discussion-den/den/internal/identity"
)

// SetSaved adds or removes the post from the identity's saved set and
// returns the resulting state. Both directions are idempotent: saving
// an already-saved post and unsaving a never-saved one are no-ops, so
// retries and duplicate requests converge. Returns ErrNotFound for an
// unknown post.
func (s *Store) SetSaved(ctx context.Context, postID int64, ident identity.Identity, saved bool) (bool, error) {
	if _, err := s.GetByID(ctx, postID); err != nil {
		return false, err
	}

	if saved {
		// ON CONFLICT DO NOTHING resolves both a repeated save and a
		// concurrent duplicate insert against the partial unique index.
		saverUserID, saverPersonaID := ident.AuthorRefs()
		_, err := s.db.Pool.Exec(ctx,
			`INSERT INTO saved_posts (post_id, saved_by_user_id, saved_by_persona_id)
			 VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			postID, saverUserID, saverPersonaID)
		if err != nil {
			return false, fmt.Errorf("post: save %d: %w", postID, err)
		}
		return true, nil
	}

	_, saveCol, saverID := viewerColumns(ident)
	_, err := s.db.Pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM saved_posts WHERE post_id = $1 AND %s = $2`, saveCol),
		postID, saverID)
	if err != nil {
		return false, fmt.Errorf("post: unsave %d: %w", postID, err)
	}
	return false, nil
}

// IsSaved reports whether the identity has saved the post.
func (s *Store) IsSaved(ctx context.Context, postID int64, ident identity.Identity) (bool, error) {
	_, saveCol, saverID := viewerColumns(ident)

	var saved bool
	err := s.db.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM saved_posts WHERE post_id = $1 AND %s = $2)`, saveCol),
		postID, saverID,
	).Scan(&saved)
	if err != nil {
		return false, fmt.Errorf("post: is saved %d: %w", postID, err)
	}
	return saved, nil
}
