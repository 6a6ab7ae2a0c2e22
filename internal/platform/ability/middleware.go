package ability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medpraxis/praxis/internal/platform/auth"
)

type contextKey string

const PermissionSetKey contextKey = "permission_set"

// Middleware resolves the permission set of the authenticated user once per
// request. Requests without a user resolve as guest. A role without a handler
// fails the request; it is never let through with a partial set.
func Middleware(resolver *Resolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			uid := auth.UserIDFromContext(ctx)
			roles := auth.RolesFromContext(ctx)

			var user *User
			if uid != "" || len(roles) > 0 {
				u := NewUser(uid, roles...)
				user = &u
			}

			set, err := resolver.Resolve(user)
			if err != nil {
				logger.Error().Err(err).
					Str("user_id", uid).
					Strs("roles", roles).
					Msg("permission resolution failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "role configuration error")
			}

			c.SetRequest(c.Request().WithContext(WithPermissionSet(ctx, set)))
			return next(c)
		}
	}
}

// Require returns middleware that rejects the request with 403 unless the
// resolved set allows action on subject.
func Require(action, subject string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := Authorize(c, action, subject); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Authorize checks a single action inside a handler, e.g. against a loaded
// record implementing Subject.
func Authorize(c echo.Context, action string, subject any) error {
	set := FromContext(c.Request().Context())
	if set.Cannot(action, subject) {
		return echo.NewHTTPError(http.StatusForbidden,
			fmt.Sprintf("not allowed to %s %s", action, subjectName(subject)))
	}
	return nil
}

// WithPermissionSet stores set in ctx.
func WithPermissionSet(ctx context.Context, set *PermissionSet) context.Context {
	return context.WithValue(ctx, PermissionSetKey, set)
}

// FromContext returns the resolved set, or a guest set if none was resolved.
func FromContext(ctx context.Context) *PermissionSet {
	if set, ok := ctx.Value(PermissionSetKey).(*PermissionSet); ok && set != nil {
		return set
	}
	return Empty()
}
