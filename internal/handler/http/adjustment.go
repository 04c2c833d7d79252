package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AdjustmentHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	ListMy(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
}

type adjustmentHandlerImpl struct {
	adjustmentService adjustment.TimeAdjustmentService
}

func NewAdjustmentHandler(adjustmentService adjustment.TimeAdjustmentService) AdjustmentHandler {
	return &adjustmentHandlerImpl{
		adjustmentService: adjustmentService,
	}
}

// Create accepts JSON, or a multipart form with a 'data' JSON field and up to
// five 'attachments' files.
func (h *adjustmentHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req adjustment.CreateAdjustmentRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		// Parse multipart form (max 25MB)
		if err := r.ParseMultipartForm(25 << 20); err != nil {
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

		if r.MultipartForm != nil {
			req.Files = r.MultipartForm.File["attachments"]
		}
	} else if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	req.EmployeeID = claims.EmployeeID
	req.RequestedBy = claims.UserID

	result, err := h.adjustmentService.Create(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Time adjustment requested", result)
}

func adjustmentFilterFromQuery(r *http.Request) adjustment.AdjustmentFilter {
	filter := adjustment.AdjustmentFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		Status:     optionalQuery(r, "status"),
	}
	filter.Page, filter.Limit = paginationFromQuery(r)
	return filter
}

func (h *adjustmentHandlerImpl) ListMy(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.adjustmentService.ListByEmployee(r.Context(), claims.TenantID, claims.EmployeeID, adjustmentFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *adjustmentHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.adjustmentService.ListPending(r.Context(), claims.TenantID, adjustmentFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get lets employees read only their own requests.
func (h *adjustmentHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.adjustmentService.Get(r.Context(), claims.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if !claims.Role.CanApprove() && result.EmployeeID != claims.EmployeeID {
		response.HandleError(w, adjustment.ErrAdjustmentNotFound)
		return
	}

	response.Success(w, result)
}

func (h *adjustmentHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req adjustment.DecisionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ApproverID = claims.UserID

	result, err := h.adjustmentService.Approve(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time adjustment approved", result)
}

func (h *adjustmentHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req adjustment.RejectAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.ApproverID = claims.UserID

	result, err := h.adjustmentService.Reject(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time adjustment rejected", result)
}

func (h *adjustmentHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.adjustmentService.Cancel(r.Context(), claims.TenantID, chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time adjustment cancelled", result)
}
