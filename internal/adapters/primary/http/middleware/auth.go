package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tapdine/ordersync-backend/internal/auth"
	"github.com/tapdine/ordersync-backend/internal/core/errors"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for authenticated token claims
	ClaimsKey contextKey = "claims"
)

// Authenticator validates bearer tokens and exposes the resulting claims.
type Authenticator struct {
	tokens       *auth.TokenManager
	errorHandler ErrorResponder
}

// ErrorResponder writes an error response for middleware failures.
type ErrorResponder interface {
	Handle(w http.ResponseWriter, r *http.Request, err error)
}

// NewAuthenticator creates an Authenticator backed by the given token manager.
func NewAuthenticator(tokens *auth.TokenManager, errorHandler ErrorResponder) *Authenticator {
	return &Authenticator{
		tokens:       tokens,
		errorHandler: errorHandler,
	}
}

// RequireAuth validates the Authorization header and stores the claims in the
// request context. Requests without a valid token are rejected.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.claimsFromRequest(r)
		if err != nil {
			a.errorHandler.Handle(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole builds on RequireAuth and additionally checks that the
// authenticated caller holds one of the given roles.
func (a *Authenticator) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				a.errorHandler.Handle(w, r, errors.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			a.errorHandler.Handle(w, r, errors.ErrForbidden)
		}))
	}
}

func (a *Authenticator) claimsFromRequest(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.ErrUnauthorized
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.ErrUnauthorized
	}

	claims, err := a.tokens.ValidateToken(parts[1])
	if err != nil {
		return nil, errors.ErrUnauthorized
	}
	return claims, nil
}

// GetClaims retrieves the authenticated claims from the context, or nil.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}
