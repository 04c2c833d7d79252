package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type GeofenceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	ListActive(w http.ResponseWriter, r *http.Request)
	GetMy(w http.ResponseWriter, r *http.Request)
	ValidateLocation(w http.ResponseWriter, r *http.Request)
}

type geofenceHandlerImpl struct {
	geofenceService geofence.GeofenceService
}

func NewGeofenceHandler(geofenceService geofence.GeofenceService) GeofenceHandler {
	return &geofenceHandlerImpl{
		geofenceService: geofenceService,
	}
}

func (h *geofenceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	filter := geofence.GeofenceFilter{
		Search:       optionalQuery(r, "search"),
		LocationType: optionalQuery(r, "location_type"),
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active, err := strconv.ParseBool(a)
		if err != nil {
			response.BadRequest(w, "active must be true or false", nil)
			return
		}
		filter.Active = &active
	}
	filter.Page, filter.Limit = paginationFromQuery(r)

	result, err := h.geofenceService.List(r.Context(), claims.TenantID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *geofenceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req geofence.CreateGeofenceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.CreatedBy = claims.UserID

	result, err := h.geofenceService.Create(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Geofence created", result)
}

func (h *geofenceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.geofenceService.Get(r.Context(), claims.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *geofenceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req geofence.UpdateGeofenceRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.UpdatedBy = claims.UserID

	result, err := h.geofenceService.Update(r.Context(), claims.TenantID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Geofence updated", result)
}

// Delete deactivates the geofence; past punches keep referencing it.
func (h *geofenceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	if err := h.geofenceService.Delete(r.Context(), claims.TenantID, chi.URLParam(r, "id"), claims.UserID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Geofence deleted", nil)
}

func (h *geofenceHandlerImpl) ListActive(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.geofenceService.ListActive(r.Context(), claims.TenantID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *geofenceHandlerImpl) GetMy(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	result, err := h.geofenceService.MyGeofences(r.Context(), claims.TenantID, claims.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *geofenceHandlerImpl) ValidateLocation(w http.ResponseWriter, r *http.Request) {
	claims, ok := requestClaims(w, r)
	if !ok {
		return
	}

	var req geofence.ValidateLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = claims.EmployeeID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.geofenceService.Validate(r.Context(), claims.TenantID, req.EmployeeID, req.Point())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, geofence.NewValidationResponse(result))
}
