// Package auth provides JWT token management for browser sessions. A
// session token (HS256, cookie-carried) identifies the account and
// carries the selected persona id, the session-scoped marker the
// identity resolver validates on every request. Registration tokens
// carry pending signup data through the email verification round trip
// so no server-side pending state is needed.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token scopes.
const (
	ScopeSession  = "den.session"
	ScopeRegister = "den.register"
)

// Token lifetimes.
const (
	SessionTTL  = 7 * 24 * time.Hour
	RegisterTTL = 10 * time.Minute
)

// SessionClaims are the claims of a session token. Subject is the
// account id; ActivePersonaID is zero when the account acts as itself.
type SessionClaims struct {
	jwt.RegisteredClaims
	Scope           string `json:"scope"`
	ActivePersonaID int64  `json:"activePersonaId,omitempty"`
}

// RegisterClaims carry a pending registration across the OTP round
// trip. OTPHash is a bcrypt hash of the emailed code; the plaintext
// code never leaves the mail channel.
type RegisterClaims struct {
	jwt.RegisteredClaims
	Scope        string `json:"scope"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	OTPHash      string `json:"otpHash"`
}

// Manager signs and validates JWT tokens using HS256.
type Manager struct {
	secret []byte
	issuer string
}

// NewManager creates a manager with the given HMAC secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), issuer: "discussion-den"}
}

// CreateSession issues a session token for the account with the given
// persona selection (zero for none).
func (m *Manager) CreateSession(accountID, activePersonaID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
		Scope:           ScopeSession,
		ActivePersonaID: activePersonaID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// ValidateSession parses and validates a session token, returning the
// account id and the selected persona id (zero for none).
func (m *Manager) ValidateSession(tokenStr string) (accountID, activePersonaID int64, err error) {
	var claims SessionClaims
	if err := m.parse(tokenStr, &claims); err != nil {
		return 0, 0, err
	}
	if claims.Scope != ScopeSession {
		return 0, 0, fmt.Errorf("auth: wrong scope: got %q, want %q", claims.Scope, ScopeSession)
	}

	accountID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, 0, fmt.Errorf("auth: invalid subject %q", claims.Subject)
	}
	return accountID, claims.ActivePersonaID, nil
}

// CreateRegistration issues a short-lived registration token holding
// the pending account data and the OTP hash.
func (m *Manager) CreateRegistration(username, email, passwordHash, otpHash string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &RegisterClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RegisterTTL)),
		},
		Scope:        ScopeRegister,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		OTPHash:      otpHash,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign registration token: %w", err)
	}
	return signed, nil
}

// ValidateRegistration parses and validates a registration token and
// returns its claims.
func (m *Manager) ValidateRegistration(tokenStr string) (*RegisterClaims, error) {
	var claims RegisterClaims
	if err := m.parse(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.Scope != ScopeRegister {
		return nil, fmt.Errorf("auth: wrong scope: got %q, want %q", claims.Scope, ScopeRegister)
	}
	return &claims, nil
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("auth: invalid token claims")
	}
	return nil
}
