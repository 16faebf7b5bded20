package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discussion-den/den/internal/account"
	"github.com/discussion-den/den/internal/persona"
)

// fakePersonas serves GetByID from a fixed map, or fails with err.
type fakePersonas struct {
	byID map[int64]*persona.Persona
	err  error
}

func (f *fakePersonas) GetByID(_ context.Context, id int64) (*persona.Persona, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, persona.ErrNotFound
	}
	return p, nil
}

func TestResolve(t *testing.T) {
	acct := &account.Account{ID: 7, Username: "demo"}
	owned := &persona.Persona{ID: 3, UserID: 7, Name: "Night Owl"}
	foreign := &persona.Persona{ID: 9, UserID: 8, Name: "Someone Else"}

	personas := &fakePersonas{byID: map[int64]*persona.Persona{3: owned, 9: foreign}}
	r := NewResolver(personas)
	ctx := context.Background()

	t.Run("no selection resolves to the account", func(t *testing.T) {
		ident, cleared, err := r.Resolve(ctx, acct, 0)
		require.NoError(t, err)
		assert.False(t, cleared)
		assert.False(t, ident.IsPersona())
		assert.EqualValues(t, 7, ident.AccountID())
		assert.Equal(t, "demo", ident.Label)
	})

	t.Run("owned selection resolves to the persona", func(t *testing.T) {
		ident, cleared, err := r.Resolve(ctx, acct, 3)
		require.NoError(t, err)
		assert.False(t, cleared)
		assert.True(t, ident.IsPersona())
		pid, _ := ident.PersonaID()
		assert.EqualValues(t, 3, pid)
		assert.Equal(t, "Night Owl", ident.Label)
	})

	t.Run("deleted persona falls back and clears", func(t *testing.T) {
		ident, cleared, err := r.Resolve(ctx, acct, 42)
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.False(t, ident.IsPersona())
		assert.Equal(t, "demo", ident.Label)
	})

	t.Run("foreign persona falls back and clears", func(t *testing.T) {
		ident, cleared, err := r.Resolve(ctx, acct, 9)
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.False(t, ident.IsPersona())
	})

	t.Run("storage errors propagate instead of falling back", func(t *testing.T) {
		boom := errors.New("connection reset")
		broken := NewResolver(&fakePersonas{err: boom})

		_, cleared, err := broken.Resolve(ctx, acct, 3)
		require.ErrorIs(t, err, boom)
		assert.False(t, cleared)
	})
}
