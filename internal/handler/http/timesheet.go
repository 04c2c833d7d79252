package http

import (
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type TimesheetHandler interface {
	GetMyTimesheet(w http.ResponseWriter, r *http.Request)
	GetMyTotals(w http.ResponseWriter, r *http.Request)
	GetMyDay(w http.ResponseWriter, r *http.Request)
	GetEmployeeTimesheet(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
	Close(w http.ResponseWriter, r *http.Request)
}

type timesheetHandlerImpl struct {
	summaryService summary.SummaryService
	clock          clock.Clock
}

func NewTimesheetHandler(summaryService summary.SummaryService, clk clock.Clock) TimesheetHandler {
	return &timesheetHandlerImpl{
		summaryService: summaryService,
		clock:          clk,
	}
}

func periodFromQuery(r *http.Request) timerecord.PeriodFilter {
	return timerecord.PeriodFilter{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}
}

func (h *timesheetHandlerImpl) GetMyTimesheet(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.summaryService.Timesheet(r.Context(), claims.TenantID, claims.EmployeeID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *timesheetHandlerImpl) GetMyTotals(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.summaryService.PeriodTotals(r.Context(), claims.TenantID, claims.EmployeeID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *timesheetHandlerImpl) GetMyDay(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	date, err := dateParam(r, "date", h.clock)
	if err != nil {
		response.BadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	result, err := h.summaryService.DailySummary(r.Context(), claims.TenantID, claims.EmployeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *timesheetHandlerImpl) GetEmployeeTimesheet(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")

	result, err := h.summaryService.Timesheet(r.Context(), claims.TenantID, employeeID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *timesheetHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	date, err := clock.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		response.BadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	result, err := h.summaryService.Recompute(r.Context(), claims.TenantID, chi.URLParam(r, "employeeID"), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Daily summary recomputed", summary.NewDailySummaryResponse(result))
}

func (h *timesheetHandlerImpl) Close(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	date, err := clock.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		response.BadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	var req summary.CloseDayRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")
	req.Date = date
	req.ClosedBy = claims.UserID

	result, err := h.summaryService.CloseDay(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Day closed", result)
}
