package auth

import (
	"fmt"
	"net/http"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/logger"
	"ms-backoffice/internal/utils"
)

// Middleware verifies the bearer token, rejects revoked tokens and stores the Operator in the
// request context.
func Middleware(tokens *Tokens, deny DenyList, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, log, "authenticate", apperr.Unauthorized(err.Error()))
				return
			}

			claims, err := tokens.Parse(rawToken)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, log, "authenticate", err)
				return
			}

			revoked, err := deny.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				utils.WriteError(w, log, "authenticate", fmt.Errorf("check token revocation: %w", err))
				return
			}
			if revoked {
				utils.WriteError(w, log, "authenticate", apperr.Unauthorized("token has been revoked"))
				return
			}

			op, err := claims.ToOperator()
			if err != nil {
				utils.WriteError(w, log, "authenticate", err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), op)))
		})
	}
}
