package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type OvertimeHandler interface {
	GetMyBalance(w http.ResponseWriter, r *http.Request)
	GetMySummary(w http.ResponseWriter, r *http.Request)
	GetMyMovements(w http.ResponseWriter, r *http.Request)
	GetMyExpiring(w http.ResponseWriter, r *http.Request)
	AddAdjustment(w http.ResponseWriter, r *http.Request)
	AddPayout(w http.ResponseWriter, r *http.Request)
	AddCredit(w http.ResponseWriter, r *http.Request)
	AddDebit(w http.ResponseWriter, r *http.Request)
}

type overtimeHandlerImpl struct {
	overtimeService    overtime.OvertimeService
	expiringSoonInDays int
}

func NewOvertimeHandler(overtimeService overtime.OvertimeService, expiringSoonInDays int) OvertimeHandler {
	return &overtimeHandlerImpl{
		overtimeService:    overtimeService,
		expiringSoonInDays: expiringSoonInDays,
	}
}

func (h *overtimeHandlerImpl) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.overtimeService.Balance(r.Context(), claims.TenantID, claims.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *overtimeHandlerImpl) GetMySummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.overtimeService.Summary(r.Context(), claims.TenantID, claims.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *overtimeHandlerImpl) GetMyMovements(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	filter := overtime.MovementFilter{
		Type: optionalQuery(r, "type"),
	}
	filter.Page, filter.Limit = paginationFromQuery(r)

	result, err := h.overtimeService.Movements(r.Context(), claims.TenantID, claims.EmployeeID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *overtimeHandlerImpl) GetMyExpiring(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	days := h.expiringSoonInDays
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, "days must be a positive number", nil)
			return
		}
		days = parsed
	}

	result, err := h.overtimeService.ExpiringSoon(r.Context(), claims.TenantID, claims.EmployeeID, days)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

type manualEntryFunc func(ctx context.Context, tenantID string, req overtime.ManualEntryRequest) (overtime.EntryResponse, error)

// manualEntry decodes a ledger movement for the employee in the path and
// records the caller as approver.
func (h *overtimeHandlerImpl) manualEntry(w http.ResponseWriter, r *http.Request, post manualEntryFunc, message string) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req overtime.ManualEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")
	req.ApproverID = claims.UserID

	result, err := post(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, message, result)
}

func (h *overtimeHandlerImpl) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	h.manualEntry(w, r, h.overtimeService.AddAdjustment, "Adjustment recorded")
}

func (h *overtimeHandlerImpl) AddPayout(w http.ResponseWriter, r *http.Request) {
	h.manualEntry(w, r, h.overtimeService.AddPayout, "Payout recorded")
}

func (h *overtimeHandlerImpl) AddCredit(w http.ResponseWriter, r *http.Request) {
	h.manualEntry(w, r, h.overtimeService.AddCredit, "Credit recorded")
}

func (h *overtimeHandlerImpl) AddDebit(w http.ResponseWriter, r *http.Request) {
	h.manualEntry(w, r, h.overtimeService.AddDebit, "Debit recorded")
}
