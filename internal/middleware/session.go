package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

type identityKey struct{}

// AccessVerifier validates an access token and returns its claims.
type AccessVerifier interface {
	VerifyAccess(token string) (auth.AccessClaims, error)
}

// IdentityStore resolves a verified subject to a full user record.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// AccessTokenCookie is the cookie checked before the Authorization header.
const AccessTokenCookie = "accessToken"

// Session authenticates each request: cookie first, bearer header as
// fallback. On success the resolved user travels on the context with the
// credential fields blanked; otherwise the request is rejected before any
// handler runs.
func Session(verifier AccessVerifier, users IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				reject(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				reject(w, http.StatusUnauthorized, "invalid access token")
				return
			}

			user, err := users.FindByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, auth.ErrUserGone) {
					reject(w, http.StatusUnauthorized, "invalid access token")
					return
				}
				logging.FromContext(r.Context()).Error("resolve session identity", "error", err)
				reject(w, http.StatusInternalServerError, "unable to resolve identity")
				return
			}

			user.Password = ""
			user.RefreshToken = ""

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

// WithIdentity returns a context carrying the user exactly as Session
// attaches it.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// Identity returns the authenticated user attached by Session. The boolean is
// false on unprotected routes.
func Identity(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(identityKey{}).(models.User)
	return user, ok
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"message":    message,
		"success":    false,
		"errors":     []string{},
	})
}
