package auth

import (
	"net/http"
	"strings"

	"github.com/learnhub-io/learnhub-portal/internal/rbac"
)

// JWTMiddleware validates the bearer token and stashes subject, role and
// the email-verified flag in the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil || c == nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = WithEmailVerified(ctx, c.EmailVerified)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified gates surfaces that need a verified email address.
func RequireVerified() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !EmailVerifiedFromContext(r.Context()) {
				http.Error(w, "email not verified", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
