// Package server provides the HTTP server for Discussion Den, built on
// Echo v4. All routes speak JSON; session state is an HS256 JWT in an
// HTTP-only cookie carrying the account id and the selected persona.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/discussion-den/den/internal/account"
	"github.com/discussion-den/den/internal/auth"
	"github.com/discussion-den/den/internal/community"
	"github.com/discussion-den/den/internal/config"
	"github.com/discussion-den/den/internal/identity"
	"github.com/discussion-den/den/internal/mailer"
	"github.com/discussion-den/den/internal/metrics"
	"github.com/discussion-den/den/internal/persona"
	"github.com/discussion-den/den/internal/post"
)

// Server wraps the Echo instance and application dependencies.
type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	accounts    *account.Store
	personas    *persona.Store
	communities *community.Store
	posts       *post.Store
	resolver    *identity.Resolver
	jwt         *auth.Manager
	mail        *mailer.Mailer
}

// New creates a configured Echo server with all routes registered.
func New(cfg *config.Config, accounts *account.Store, personas *persona.Store, communities *community.Store, posts *post.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true // We log the listen address ourselves.
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	s := &Server{
		echo:        e,
		cfg:         cfg,
		accounts:    accounts,
		personas:    personas,
		communities: communities,
		posts:       posts,
		resolver:    identity.NewResolver(personas),
		jwt:         auth.NewManager(cfg.SessionSecret),
		mail:        mailer.New(cfg),
	}

	s.registerRoutes()
	return s
}

// requestValidator adapts go-playground/validator to Echo's Validator
// interface.
type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// authContext holds the authenticated caller's account and resolved
// acting identity.
type authContext struct {
	Account *account.Account
	Ident   identity.Context
}

const authContextKey = "auth"

// getAuth retrieves the auth context set by middleware.
func getAuth(c echo.Context) *authContext {
	if ac, ok := c.Get(authContextKey).(*authContext); ok {
		return ac
	}
	return nil
}

const sessionCookieName = "den_session"

// requireAuth is middleware that validates the session cookie, loads
// the account, and resolves the acting identity. A persona selection
// that fails ownership validation is silently cleared: the request
// proceeds under the account identity and a fresh cookie without the
// selection is set on the response.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "AuthRequired",
				"message": "Sign in to continue",
			})
		}

		accountID, personaID, err := s.jwt.ValidateSession(cookie.Value)
		if err != nil {
			s.clearSessionCookie(c)
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "InvalidSession",
				"message": "Session is invalid or expired",
			})
		}

		ctx := c.Request().Context()

		acct, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			s.clearSessionCookie(c)
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":   "InvalidSession",
				"message": "Session is invalid or expired",
			})
		}

		ident, cleared, err := s.resolver.Resolve(ctx, acct, personaID)
		if err != nil {
			log.Printf("Error resolving identity for account %d: %v", accountID, err)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error":   "InternalError",
				"message": "Please try again",
			})
		}
		if cleared {
			metrics.StalePersonaResets.Inc()
			if err := s.issueSession(c, acct.ID, 0); err != nil {
				log.Printf("Error reissuing session for account %d: %v", accountID, err)
			}
		}

		c.Set(authContextKey, &authContext{Account: acct, Ident: ident})
		return next(c)
	}
}

// optionalAuth is middleware for public read endpoints that still show
// viewer-dependent state when a valid session is present. An absent or
// invalid cookie leaves the request anonymous instead of rejecting it.
func (s *Server) optionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		accountID, personaID, err := s.jwt.ValidateSession(cookie.Value)
		if err != nil {
			return next(c)
		}

		ctx := c.Request().Context()
		acct, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return next(c)
		}

		ident, cleared, err := s.resolver.Resolve(ctx, acct, personaID)
		if err != nil {
			return next(c)
		}
		if cleared {
			metrics.StalePersonaResets.Inc()
			if err := s.issueSession(c, acct.ID, 0); err != nil {
				log.Printf("Error reissuing session for account %d: %v", accountID, err)
			}
		}

		c.Set(authContextKey, &authContext{Account: acct, Ident: ident})
		return next(c)
	}
}

// viewerIdentity returns the acting identity for read endpoints,
// falling back to the anonymous viewer.
func viewerIdentity(c echo.Context) identity.Identity {
	if ac := getAuth(c); ac != nil {
		return ac.Ident.Identity
	}
	return identity.Anonymous()
}

// issueSession signs a session token and sets it as the session cookie.
func (s *Server) issueSession(c echo.Context, accountID, activePersonaID int64) error {
	token, err := s.jwt.CreateSession(accountID, activePersonaID)
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Start begins listening for HTTP requests. It blocks until the context
// is cancelled, then performs a graceful shutdown allowing in-flight
// requests to complete.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", s.cfg.ListenAddr)
		if err := s.echo.Start(s.cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Println("Shutting down HTTP server...")
		return s.echo.Shutdown(context.Background())
	}
}

// metricsHandler exposes the Prometheus registry.
func metricsHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
