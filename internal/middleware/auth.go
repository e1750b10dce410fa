// Package middleware contains the request-processing chain: bearer-token
// authentication, role guards, and the Redis-backed rate limit and response
// cache.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/superc/price-alert/internal/auth"
	"github.com/superc/price-alert/internal/model"
	"github.com/superc/price-alert/internal/repository"
)

// principalKey is the Echo context key under which the resolved principal is
// stored. Handlers read it through CurrentPrincipal.
const principalKey = "principal"

// Authenticate returns middleware that resolves a bearer access token into a
// request principal. It never rejects a request itself: a missing header, a
// wrong scheme or an undecodable token all let the request continue
// unauthenticated, and the role guards decide between 401 and 200 downstream.
// A decode failure is logged without the token value.
func Authenticate(issuer *auth.Issuer, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Idempotency: if an earlier middleware already attached a
			// principal, keep it.
			if _, ok := CurrentPrincipal(c); ok {
				return next(c)
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return next(c) // no token; proceed unauthenticated
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := issuer.Verify(raw)
			if err != nil {
				// Malformed, expired or forged tokens are absorbed here so
				// the rest of the pipeline runs uniformly.
				c.Logger().Warnf("auth: rejecting bearer token: %v", err)
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			// The token is self-contained but roles may have changed since
			// issuance, so the principal is completed from the store.
			u, err := users.GetByEmail(ctx, claims.Email)
			if err != nil {
				c.Logger().Warnf("auth: cannot load user for token subject: %v", err)
				return next(c)
			}

			c.Set(principalKey, model.Principal{
				UserID: u.ID,
				Email:  u.Email,
				Roles:  u.Roles,
			})
			return next(c)
		}
	}
}

// CurrentPrincipal returns the authenticated principal attached to the
// request, if any.
func CurrentPrincipal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}

// setPrincipal exists for tests that need a request context in a known
// authenticated state without minting tokens.
func setPrincipal(c echo.Context, p model.Principal) {
	c.Set(principalKey, p)
}
