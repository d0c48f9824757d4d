package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-storefront/middleware/jwtware"
)

const (
	// UserContextKey is the default router local holding the authenticated *User
	UserContextKey = "user"
	// ClaimsContextKey is the router local holding the *JWTClaims
	ClaimsContextKey = "claims"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// ProtectedRoute returns the Auth Gate. Failures short-circuit with
// ErrUnauthorized family errors rendered by the app ErrorHandler.
// The user is stored under cfg.GetContextKey and in the request context.
func ProtectedRoute(cfg Config, auther *Authenticator, listeners ...jwtware.ValidationListener) router.MiddlewareFunc {
	key := UserContextKey
	lookup := ""
	scheme := ""
	if cfg != nil {
		if k := cfg.GetContextKey(); k != "" {
			key = k
		}
		lookup = cfg.GetTokenLookup()
		scheme = cfg.GetAuthScheme()
	}

	return jwtware.New(jwtware.Config{
		ContextKey:       key,
		ClaimsContextKey: ClaimsContextKey,
		TokenLookup:      lookup,
		AuthScheme:       scheme,
		Resolver: jwtware.TokenResolverFunc(func(ctx context.Context, token string) (any, any, error) {
			return auther.UserFromToken(ctx, token)
		}),
		ValidationListeners: listeners,
		ContextEnricher: func(ctx context.Context, identity any) context.Context {
			if user, ok := identity.(*User); ok {
				return WithContext(ctx, user)
			}
			return ctx
		},
		ErrorHandler: func(ctx router.Context, err error) error {
			var richErr *errors.Error
			if errors.As(err, &richErr) && richErr.Category == errors.CategoryInternal {
				return richErr
			}
			if errors.Is(err, ErrTokenExpired) {
				return ErrTokenExpired
			}
			return ErrUnauthorized
		},
	})
}

// RequireRoles returns the Role Gate. It must be mounted after ProtectedRoute.
func RequireRoles(roles ...Role) router.MiddlewareFunc {
	allowed := NewRoleSet(roles...)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, ok := CurrentUser(ctx)
			if !ok {
				return ErrUnauthorized
			}

			if !user.IsRole(allowed) {
				return ErrForbidden
			}

			return next(ctx)
		}
	}
}

// CurrentUser returns the user attached by the Auth Gate. The request
// context is checked first so a custom context key still resolves.
func CurrentUser(ctx router.Context) (*User, bool) {
	if user, ok := FromContext(ctx.Context()); ok {
		return user, true
	}
	user, ok := ctx.Locals(UserContextKey).(*User)
	return user, ok && user != nil
}

// CurrentClaims returns the token claims attached by the Auth Gate
func CurrentClaims(ctx router.Context) (*JWTClaims, bool) {
	claims, ok := ctx.Locals(ClaimsContextKey).(*JWTClaims)
	return claims, ok && claims != nil
}
