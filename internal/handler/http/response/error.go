package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var seqErr *timerecord.SequenceError
	if errors.As(err, &seqErr) {
		details := map[string]interface{}{
			"attempted": seqErr.Attempted,
			"expected":  seqErr.Expected,
		}
		if seqErr.Last != nil {
			details["last"] = *seqErr.Last
		}
		Error(w, http.StatusUnprocessableEntity, "INVALID_SEQUENCE", seqErr.Error(), details)
		return
	}

	var balanceErr *overtime.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		Error(w, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", balanceErr.Error(), map[string]interface{}{
			"requested_minutes": balanceErr.Requested,
			"available_minutes": balanceErr.Available,
		})
		return
	}

	switch {
	// Identity
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, jwt.ErrTenantRequired),
		errors.Is(err, jwt.ErrEmployeeRequired),
		errors.Is(err, jwt.ErrManagerAccessRequired):
		Forbidden(w, err.Error())

	// Time records
	case errors.Is(err, timerecord.ErrInvalidSequence):
		Error(w, http.StatusUnprocessableEntity, "INVALID_SEQUENCE", err.Error(), nil)
	case errors.Is(err, timerecord.ErrFutureRecord):
		Error(w, http.StatusUnprocessableEntity, "FUTURE_RECORD", err.Error(), nil)
	case errors.Is(err, timerecord.ErrDayClosed):
		Error(w, http.StatusConflict, "DAY_CLOSED", err.Error(), nil)
	case errors.Is(err, timerecord.ErrInvalidOperation):
		Error(w, http.StatusConflict, "INVALID_OPERATION", err.Error(), nil)
	case errors.Is(err, timerecord.ErrDuplicateRecord),
		errors.Is(err, timerecord.ErrDuplicateNSR):
		Conflict(w, err.Error())
	case errors.Is(err, timerecord.ErrRecordNotFound):
		NotFound(w, "Time record not found")

	// Daily summaries
	case errors.Is(err, summary.ErrSummaryNotFound):
		NotFound(w, "Daily summary not found")
	case errors.Is(err, summary.ErrAlreadyClosed):
		Error(w, http.StatusConflict, "DAY_CLOSED", err.Error(), nil)

	// Overtime bank
	case errors.Is(err, overtime.ErrInsufficientBalance):
		Error(w, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", err.Error(), nil)
	case errors.Is(err, overtime.ErrEntryNotFound):
		NotFound(w, "Overtime entry not found")
	case errors.Is(err, overtime.ErrApproverRequired):
		Forbidden(w, err.Error())

	// Geofences
	case errors.Is(err, geofence.ErrGeofenceNotFound):
		NotFound(w, "Geofence not found")
	case errors.Is(err, geofence.ErrDuplicateName):
		Conflict(w, err.Error())
	case errors.Is(err, geofence.ErrInvalidCoordinate):
		Error(w, http.StatusUnprocessableEntity, "INVALID_COORDINATE", err.Error(), nil)

	// Adjustments
	case errors.Is(err, adjustment.ErrAdjustmentNotFound):
		NotFound(w, "Time adjustment not found")
	case errors.Is(err, adjustment.ErrDuplicatePending):
		Conflict(w, err.Error())
	case errors.Is(err, adjustment.ErrSelfApproval),
		errors.Is(err, adjustment.ErrNotRequester):
		Forbidden(w, err.Error())
	case errors.Is(err, adjustment.ErrInvalidOperation),
		errors.Is(err, adjustment.ErrRecordNotAdjustable):
		Error(w, http.StatusConflict, "INVALID_OPERATION", err.Error(), nil)

	// Directory and calendar
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrExternalIDNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, schedule.ErrHolidayExists):
		Conflict(w, err.Error())
	case errors.Is(err, schedule.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, schedule.ErrInvalidYear):
		Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
