package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"pizza-authz/internal/domain"
	"pizza-authz/internal/ports"
)

const (
	tokenKey     = "session_token"
	bearerPrefix = "Bearer "
)

// Authenticator resolves a bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

// RequireAuth rejects requests without an active session token. On success
// the identity is attached to the request context and the raw token to the
// echo context. Failures other than token rejection are logged and answered
// with 503.
func RequireAuth(auth Authenticator, logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing authorization token"})
			}
			id, err := auth.Authenticate(c.Request().Context(), token)
			if errors.Is(err, domain.ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			if err != nil {
				return unavailable(c, logger, err)
			}
			attach(c, token, id)
			return next(c)
		}
	}
}

// OptionalAuth attaches the identity when a valid token is presented and
// otherwise lets the request through anonymously.
func OptionalAuth(auth Authenticator, logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return next(c)
			}
			id, err := auth.Authenticate(c.Request().Context(), token)
			switch {
			case err == nil:
				attach(c, token, id)
			case !errors.Is(err, domain.ErrUnauthenticated):
				return unavailable(c, logger, err)
			}
			return next(c)
		}
	}
}

// Token returns the bearer token accepted by RequireAuth or OptionalAuth.
func Token(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c echo.Context) string {
	token, _ := bearerToken(c.Request())
	return token
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

func unavailable(c echo.Context, logger ports.Logger, err error) error {
	logger.Error(c.Request().Context(), "session lookup failed", "error", err)
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "session store unavailable"})
}

func attach(c echo.Context, token string, id domain.Identity) {
	c.Set(tokenKey, token)
	c.SetRequest(c.Request().WithContext(domain.WithIdentity(c.Request().Context(), id)))
}
