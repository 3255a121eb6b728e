package middle

import (
	"net/http"

	"pagewatch/internals/security"
	"pagewatch/pkg/apperror"
	"pagewatch/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// AllowAdmin must run after AuthMiddleware.
func AllowAdmin(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reqID := middleware.GetReqID(ctx)

		claims, ok := ClaimsFromContext(ctx)
		if !ok {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "operator is unauthorised")
			return
		}

		if claims.Subject != security.AdminSubject {
			utils.WriteError(w, http.StatusForbidden, reqID, apperror.Forbidden, "operator does not have access")
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
