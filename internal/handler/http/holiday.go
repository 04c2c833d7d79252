package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

type HolidayHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
}

type holidayHandlerImpl struct {
	holidayService schedule.HolidayService
	clock          clock.Clock
}

func NewHolidayHandler(holidayService schedule.HolidayService, clk clock.Clock) HolidayHandler {
	return &holidayHandlerImpl{
		holidayService: holidayService,
		clock:          clk,
	}
}

// List returns the holidays of ?year=, defaulting to the current year.
func (h *holidayHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	year := h.clock.Now().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed < 1900 || parsed > 9999 {
			response.BadRequest(w, "Invalid year", nil)
			return
		}
		year = parsed
	}

	result, err := h.holidayService.ListByYear(r.Context(), claims.TenantID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *holidayHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req schedule.CreateHolidayRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.holidayService.Create(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday created", result)
}
