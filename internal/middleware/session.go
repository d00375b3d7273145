// Package middleware provides the session gate: the per-request check that
// resolves a bearer token to an authenticated identity before any protected
// handler runs.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "gatehouse/internal/errors"
	"gatehouse/internal/service"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// identityKey is the echo context key the gate stores the identity under.
const identityKey = "gatehouse.identity"

// IdentityFromContext returns the identity attached by the session gate.
func IdentityFromContext(c echo.Context) (*service.Identity, bool) {
	identity, ok := c.Get(identityKey).(*service.Identity)
	return identity, ok
}

// SessionGate returns echo middleware that authenticates requests using the
// session token from the Authorization header or the session cookie. The
// header wins when both are present. Unknown, expired, and revoked tokens are
// rejected identically; the caller cannot tell them apart.
func SessionGate(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Error: apperrors.ErrNoSession.Error(),
					Code:  "AUTH_REQUIRED",
				})
			}

			identity, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				if httpErr := apperrors.MapErrorToHTTP(err); httpErr.StatusCode == http.StatusUnauthorized {
					return echo.NewHTTPError(http.StatusUnauthorized, httpErr.ToErrorResponse())
				}
				c.Logger().Errorf("session gate: %v", err)
				return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
					Error: "authentication failed",
					Code:  "INTERNAL_ERROR",
				})
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// extractToken pulls the session token from the Authorization: Bearer header,
// falling back to the session cookie.
func extractToken(c echo.Context) string {
	const bearer = "Bearer "
	if header := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(header, bearer) {
		if token := header[len(bearer):]; token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}
