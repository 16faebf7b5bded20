package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestAuthorRefs(t *testing.T) {
	t.Run("account identity sets only the user column", func(t *testing.T) {
		userID, personaID := AsAccount(7).AuthorRefs()
		require.NotNil(t, userID)
		assert.EqualValues(t, 7, *userID)
		assert.Nil(t, personaID)
	})

	t.Run("persona identity sets only the persona column", func(t *testing.T) {
		userID, personaID := AsPersona(7, 3).AuthorRefs()
		assert.Nil(t, userID)
		require.NotNil(t, personaID)
		assert.EqualValues(t, 3, *personaID)
	})
}

func TestMatches(t *testing.T) {
	account := AsAccount(7)
	persona := AsPersona(7, 3)

	t.Run("account matches account-authored rows only", func(t *testing.T) {
		assert.True(t, account.Matches(ptr(7), nil))
		assert.False(t, account.Matches(ptr(8), nil))
		assert.False(t, account.Matches(nil, ptr(3)))
	})

	t.Run("persona matches persona-authored rows only", func(t *testing.T) {
		assert.True(t, persona.Matches(nil, ptr(3)))
		assert.False(t, persona.Matches(nil, ptr(4)))

		// The owning account acting as itself does not own the
		// persona's rows, and vice versa.
		assert.False(t, persona.Matches(ptr(7), nil))
		assert.False(t, account.Matches(nil, ptr(3)))
	})

	t.Run("anonymous matches nothing", func(t *testing.T) {
		anon := Anonymous()
		assert.False(t, anon.Matches(ptr(7), nil))
		assert.False(t, anon.Matches(nil, ptr(3)))
	})
}

func TestPersonaID(t *testing.T) {
	_, ok := AsAccount(7).PersonaID()
	assert.False(t, ok)

	pid, ok := AsPersona(7, 3).PersonaID()
	assert.True(t, ok)
	assert.EqualValues(t, 3, pid)
}
