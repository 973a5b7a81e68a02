package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akozlov/fintrack-backend/internal/httpx"
	"github.com/akozlov/fintrack-backend/internal/token"
)

type ctxKey struct{}

// IdentityFrom returns the verified token identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (*token.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*token.Identity)
	return id, ok
}

// UserID returns the authenticated user id stored by RequireAuth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return 0, false
	}
	return id.UserID, true
}

// RevocationChecker reports whether a token id has been revoked. A nil
// checker disables the check.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth validates the bearer token and injects the caller's identity
// into the request context. Every resource route passes through here.
func RequireAuth(tokens *token.Service, revoked RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				httpx.Error(w, http.StatusUnauthorized, "no token, authorization denied")
				return
			}

			id, err := tokens.Verify(raw)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "token is not valid")
				return
			}

			if revoked != nil {
				gone, err := revoked.IsRevoked(r.Context(), id.TokenID)
				if err != nil || gone {
					httpx.Error(w, http.StatusUnauthorized, "token is not valid")
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
