package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(svc jwt.Service, extra ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		_, _ = w.Write([]byte(claims.TenantID))
	})
	for i := len(extra) - 1; i >= 0; i-- {
		h = extra[i](h)
	}
	return jwtauth.Verifier(svc.JWTAuth())(AuthRequired(h))
}

func request(t *testing.T, svc jwt.Service, claims jwt.Claims) *http.Request {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(claims)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthRequiredStoresClaims(t *testing.T) {
	svc := jwt.NewJWTService("secret", "1h")
	rec := httptest.NewRecorder()

	protected(svc).ServeHTTP(rec, request(t, svc, jwt.Claims{UserID: "u", TenantID: "tenant-1", Role: jwt.RoleEmployee}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant-1", rec.Body.String())
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	svc := jwt.NewJWTService("secret", "1h")
	rec := httptest.NewRecorder()

	protected(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequiredRejectsSSEToken(t *testing.T) {
	svc := jwt.NewJWTService("secret", "1h")
	token, _, err := svc.GenerateSSEToken(jwt.Claims{UserID: "u", TenantID: "t"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireManager(t *testing.T) {
	svc := jwt.NewJWTService("secret", "1h")

	rec := httptest.NewRecorder()
	protected(svc, RequireManager).ServeHTTP(rec, request(t, svc, jwt.Claims{UserID: "u", TenantID: "t", Role: jwt.RoleEmployee}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	protected(svc, RequireManager).ServeHTTP(rec, request(t, svc, jwt.Claims{UserID: "u", TenantID: "t", Role: jwt.RoleOwner}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireEmployee(t *testing.T) {
	svc := jwt.NewJWTService("secret", "1h")

	rec := httptest.NewRecorder()
	protected(svc, RequireEmployee).ServeHTTP(rec, request(t, svc, jwt.Claims{UserID: "u", TenantID: "t", Role: jwt.RoleOwner}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
