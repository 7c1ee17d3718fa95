package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireScope middleware ensures the verified token grants scope
func RequireScope(scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				logger.Warn("Claims not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !claims.HasScope(scope) {
				logger.Warn("Token missing required scope",
					zap.String("required_scope", scope),
					zap.String("scope", claims.Scope),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
