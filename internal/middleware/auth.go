// Package middleware provides shared request processing: bearer-token
// identity resolution, Redis rate limiting and response caching.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roamio/audio-tour-api/internal/auth"
)

// IdentityKey is the context key under which resolved claims are
// stored. Handlers read it through ClaimsFrom; tests attach stub claims
// under the same key.
const IdentityKey = "identity"

// ClaimsFrom returns the authenticated claims attached by RequireAuth or
// OptionalAuth. ok is false for anonymous requests.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	cl, ok := c.Get(IdentityKey).(*auth.Claims)
	return cl, ok && cl != nil
}

// bearerToken pulls the raw token out of "Authorization: Bearer <token>".
func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// RequireAuth returns middleware that rejects requests without a valid
// access token. Status mapping: no token 401, expired token 401 with a
// distinct message (the client should log in again), any other
// verification failure 403 (the client should discard the token).
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "token required"})
			}
			claims, err := auth.Verify(secret, raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "token expired"})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "invalid token"})
			}
			c.Set(IdentityKey, claims)
			return next(c)
		}
	}
}

// OptionalAuth resolves an identity when a valid token is present but
// never rejects: missing, expired or garbage tokens all continue as
// anonymous. Public catalogue routes use this so premium-aware responses
// can be personalized without forcing a login.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := bearerToken(c); raw != "" {
				if claims, err := auth.Verify(secret, raw); err == nil {
					c.Set(IdentityKey, claims)
				}
			}
			return next(c)
		}
	}
}

// RequireAdmin composes with RequireAuth on write routes. There is no
// role field on users yet, so any authenticated identity passes; this is
// a known gap carried over deliberately rather than inventing role
// semantics. When roles land, the comparison goes here.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := ClaimsFrom(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "token required"})
			}
			return next(c)
		}
	}
}
