package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/discussion-den/den/internal/account"
)

// fail writes the error shape the original API consumers expect.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{"success": false, "error": msg})
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// handleRegister starts the two-step registration: it validates the
// requested account, emails a 6-digit code, and returns a short-lived
// registration token holding the pending data. No account row is
// created until the code is verified.
// POST /auth/register
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Please fix the registration form errors.")
	}

	ctx := c.Request().Context()

	usernameTaken, emailTaken, err := s.accounts.UsernameOrEmailTaken(ctx, req.Username, req.Email)
	if err != nil {
		log.Printf("Error checking registration availability: %v", err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	if usernameTaken {
		return fail(c, http.StatusBadRequest, "That username is taken.")
	}
	if emailTaken {
		return fail(c, http.StatusBadRequest, "That email is already registered.")
	}

	otp, err := account.GenerateOTP()
	if err != nil {
		log.Printf("Error generating OTP: %v", err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	passwordHash, err := account.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}
	otpHash, err := account.HashPassword(otp)
	if err != nil {
		log.Printf("Error hashing OTP: %v", err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	token, err := s.jwt.CreateRegistration(req.Username, req.Email, passwordHash, otpHash)
	if err != nil {
		log.Printf("Error creating registration token: %v", err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	if err := s.mail.SendOTP(req.Email, otp); err != nil {
		// Delivery failures are logged but not fatal: the code is also
		// in the server log for development setups.
		log.Printf("Error sending OTP to %s: %v", req.Email, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":            true,
		"message":            "Verification code sent to your email.",
		"require_otp":        true,
		"registration_token": token,
	})
}

type verifyOTPRequest struct {
	RegistrationToken string `json:"registration_token" validate:"required"`
	OTP               string `json:"otp" validate:"required,len=6"`
}

// handleVerifyOTP checks the emailed code against the registration
// token, creates the account, and starts a session.
// POST /auth/verify-otp
func (s *Server) handleVerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid code. Please try again.")
	}

	claims, err := s.jwt.ValidateRegistration(req.RegistrationToken)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Code expired. Please register again.")
	}

	if account.CheckPassword(claims.OTPHash, req.OTP) != nil {
		return fail(c, http.StatusBadRequest, "Invalid code. Please try again.")
	}

	ctx := c.Request().Context()

	// The password is already hashed inside the token, so insert
	// directly instead of going through Create (which hashes).
	acct, err := s.accounts.CreateWithHash(ctx, claims.Username, claims.Email, claims.PasswordHash)
	switch {
	case errors.Is(err, account.ErrUsernameTaken):
		return fail(c, http.StatusBadRequest, "That username is taken.")
	case errors.Is(err, account.ErrEmailTaken):
		return fail(c, http.StatusBadRequest, "That email is already registered.")
	case err != nil:
		log.Printf("Error creating account %q: %v", claims.Username, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	if err := s.issueSession(c, acct.ID, 0); err != nil {
		log.Printf("Error issuing session for account %d: %v", acct.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	log.Printf("Account registered: %s", acct.Username)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "account": acct})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// handleLogin authenticates by username + password and starts a session.
// POST /auth/login
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body.")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Username and password are required.")
	}

	acct, err := s.accounts.VerifyPassword(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid username or password.")
	}

	if err := s.issueSession(c, acct.ID, 0); err != nil {
		log.Printf("Error issuing session for account %d: %v", acct.ID, err)
		return fail(c, http.StatusInternalServerError, "Please try again.")
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true, "account": acct})
}

// handleLogout clears the session cookie.
// POST /auth/logout
func (s *Server) handleLogout(c echo.Context) error {
	s.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
