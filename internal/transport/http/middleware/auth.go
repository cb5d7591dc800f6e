package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akvora-api/internal/domain"
	jwtinfra "github.com/akvora-api/internal/infrastructure/jwt"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	userKey   contextKey = "user"
)

type tokenVerifier interface {
	Verify(tokenStr string) (*jwtinfra.Claims, error)
}

type identityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

type userResolver interface {
	Resolve(ctx context.Context, ident *domain.Identity) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Authenticator accepts two kinds of bearer token: admin JWTs signed by
// this service, and identity provider ID tokens. Identity tokens are
// disabled when identities is nil.
type Authenticator struct {
	tokens     tokenVerifier
	identities identityVerifier
	users      userResolver
}

func NewAuthenticator(tokens tokenVerifier, identities identityVerifier, users userResolver) *Authenticator {
	return &Authenticator{tokens: tokens, identities: identities, users: users}
}

// Authenticate resolves a bearer token to its claims and current user record.
// Blocked and deleted users are refused on every call.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*jwtinfra.Claims, *domain.User, error) {
	if token == "" {
		return nil, nil, fmt.Errorf("missing token: %w", domain.ErrUnauthorized)
	}
	if a.tokens != nil {
		if claims, err := a.tokens.Verify(token); err == nil {
			u, err := a.users.Get(ctx, claims.UserID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil, fmt.Errorf("unknown account: %w", domain.ErrUnauthorized)
			}
			if err != nil {
				return nil, nil, err
			}
			if !u.Active() {
				return nil, nil, fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
			}
			return claims, u, nil
		}
	}
	if a.identities == nil {
		return nil, nil, fmt.Errorf("invalid or expired token: %w", domain.ErrUnauthorized)
	}
	ident, err := a.identities.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	u, err := a.users.Resolve(ctx, ident)
	if err != nil {
		return nil, nil, err
	}
	return &jwtinfra.Claims{UserID: u.UserID, Email: u.Email, Role: u.Role}, u, nil
}

// Require rejects requests without a valid bearer token and injects the
// caller's claims and user record into the request context.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		claims, u, err := a.Authenticate(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		switch {
		case errors.Is(err, domain.ErrForbidden):
			writeJSONError(w, http.StatusForbidden, "account is blocked")
			return
		case errors.Is(err, domain.ErrUnauthorized):
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		case err != nil:
			slog.Error("authentication failed", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims, u)))
	})
}

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, claims *jwtinfra.Claims, u *domain.User) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, userKey, u)
}

// ClaimsFromContext extracts the caller's claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok
}

// UserFromContext extracts the caller's user record from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok && u != nil
}
