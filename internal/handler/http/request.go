package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

// requestClaims writes a 401 and returns false when the request carries no identity.
func requestClaims(w http.ResponseWriter, r *http.Request) (jwt.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return jwt.Claims{}, false
	}
	return claims, true
}

// decodeJSON accepts an empty body so optional payloads can be omitted.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func paginationFromQuery(r *http.Request) (int, int) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	return page, limit
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// dateParam reads a YYYY-MM-DD value from the named URL param, falling back
// to the query string and then to today.
func dateParam(r *http.Request, key string, clk clock.Clock) (time.Time, error) {
	raw := chi.URLParam(r, key)
	if raw == "" {
		raw = r.URL.Query().Get(key)
	}
	if raw == "" {
		return clock.DateOf(clk.Now()), nil
	}
	return clock.ParseDate(raw)
}
