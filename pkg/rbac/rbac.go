// Package rbac gates routes on the role carried in the verified token.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/kabadi/pkg/auth"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
	"github.com/shashiranjanraj/kabadi/pkg/response"
)

// HasRole allows the request only when the caller's role is one of roles.
// middleware.Authenticate must run first.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromCtx(r.Context())
			if !ok {
				response.Unauthorized(w, "missing bearer token")
				return
			}
			if !allowed[claims.Role] {
				logger.WithCtx(r.Context()).Warn("role rejected", "role", claims.Role, "path", r.URL.Path)
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
