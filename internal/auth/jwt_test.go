package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.CreateSession(42, 7)
	require.NoError(t, err)

	accountID, personaID, err := m.ValidateSession(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, accountID)
	assert.EqualValues(t, 7, personaID)
}

func TestSessionWithoutPersona(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.CreateSession(42, 0)
	require.NoError(t, err)

	_, personaID, err := m.ValidateSession(token)
	require.NoError(t, err)
	assert.Zero(t, personaID)
}

func TestValidateSessionRejects(t *testing.T) {
	m := NewManager("test-secret")

	t.Run("garbage", func(t *testing.T) {
		_, _, err := m.ValidateSession("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("other-secret")
		token, err := other.CreateSession(42, 0)
		require.NoError(t, err)

		_, _, err = m.ValidateSession(token)
		assert.Error(t, err)
	})

	t.Run("registration token used as session", func(t *testing.T) {
		token, err := m.CreateRegistration("demo", "demo@example.com", "hash", "otp-hash")
		require.NoError(t, err)

		_, _, err = m.ValidateSession(token)
		assert.Error(t, err)
	})
}

func TestRegistrationRoundTrip(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.CreateRegistration("demo", "demo@example.com", "pw-hash", "otp-hash")
	require.NoError(t, err)

	claims, err := m.ValidateRegistration(token)
	require.NoError(t, err)
	assert.Equal(t, "demo", claims.Username)
	assert.Equal(t, "demo@example.com", claims.Email)
	assert.Equal(t, "pw-hash", claims.PasswordHash)
	assert.Equal(t, "otp-hash", claims.OTPHash)
}

func TestValidateRegistrationRejectsSessionToken(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.CreateSession(42, 0)
	require.NoError(t, err)

	_, err = m.ValidateRegistration(token)
	assert.Error(t, err)
}
