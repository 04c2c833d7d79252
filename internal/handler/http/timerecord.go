package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type TimeRecordHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	GetMyRecords(w http.ResponseWriter, r *http.Request)
	GetMyLast(w http.ResponseWriter, r *http.Request)
	GetMyNextType(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Statistics(w http.ResponseWriter, r *http.Request)
}

type timeRecordHandlerImpl struct {
	timeRecordService timerecord.TimeRecordService
	clock             clock.Clock
}

func NewTimeRecordHandler(timeRecordService timerecord.TimeRecordService, clk clock.Clock) TimeRecordHandler {
	return &timeRecordHandlerImpl{
		timeRecordService: timeRecordService,
		clock:             clk,
	}
}

// Submit accepts either a JSON body or a multipart form with a 'data' JSON
// field and an optional 'photo'.
func (h *timeRecordHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req timerecord.SubmitPunchRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		// Parse multipart form (max 10MB)
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}

		dataJSON := r.FormValue("data")
		if dataJSON == "" {
			response.BadRequest(w, "Field 'data' is required", nil)
			return
		}
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			slog.Error("Failed to unmarshal JSON data", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}

		file, fileHeader, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			req.File = file
			req.FileHeader = fileHeader
		case err != http.ErrMissingFile:
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	req.EmployeeID = claims.EmployeeID
	req.CreatedBy = &claims.UserID
	if ip := clientIP(r); ip != "" {
		req.IPAddress = &ip
	}

	result, err := h.timeRecordService.SubmitPunch(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Time record registered", result)
}

// GetMyRecords returns one day by default, or a period when start_date and
// end_date are given.
func (h *timeRecordHandlerImpl) GetMyRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Get("start_date") != "" || query.Get("end_date") != "" {
		filter := timerecord.PeriodFilter{
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
		}
		days, err := h.timeRecordService.RecordsByPeriod(r.Context(), claims.TenantID, claims.EmployeeID, filter)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, days)
		return
	}

	date, err := dateParam(r, "date", h.clock)
	if err != nil {
		response.BadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	day, err := h.timeRecordService.RecordsByDate(r.Context(), claims.TenantID, claims.EmployeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, day)
}

func (h *timeRecordHandlerImpl) GetMyLast(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	last, err := h.timeRecordService.LastRecord(r.Context(), claims.TenantID, claims.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, last)
}

func (h *timeRecordHandlerImpl) GetMyNextType(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	date, err := dateParam(r, "date", h.clock)
	if err != nil {
		response.BadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
		return
	}

	next, err := h.timeRecordService.ExpectedNext(r.Context(), claims.TenantID, claims.EmployeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, next)
}

func (h *timeRecordHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	filter := timerecord.PendingFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
	}
	filter.Page, filter.Limit = paginationFromQuery(r)

	result, err := h.timeRecordService.PendingRecords(r.Context(), claims.TenantID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *timeRecordHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req timerecord.ApproveRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ApproverID = claims.UserID

	result, err := h.timeRecordService.Approve(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time record approved", result)
}

func (h *timeRecordHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req timerecord.RejectRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ApproverID = claims.UserID

	result, err := h.timeRecordService.Reject(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time record rejected", result)
}

func (h *timeRecordHandlerImpl) Statistics(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	stats, err := h.timeRecordService.Statistics(r.Context(), claims.TenantID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, stats)
}

// clientIP prefers the address chi's RealIP middleware already resolved.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
