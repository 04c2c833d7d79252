package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
)

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.HandleError(w, jwt.ErrInvalidToken)
			return
		}
		if !claims.Role.CanApprove() {
			response.HandleError(w, jwt.ErrManagerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireEmployee guards the /my routes, which act on the caller's own
// employee record.
func RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.HandleError(w, jwt.ErrInvalidToken)
			return
		}
		if claims.EmployeeID == "" {
			response.HandleError(w, jwt.ErrEmployeeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
