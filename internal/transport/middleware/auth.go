package middleware

import (
	"net/http"

	"github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/pkg/logger"
)

// UserContext tags the request logger with the authenticated user. It must
// run after the token middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if p, ok := internal.PrincipalFromContext(ctx); ok {
			ctx = logger.With(ctx, "userID", p.UserID, "tokenID", p.TokenID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
