package geofence

import (
	"context"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/geo"
)

// Validator is the read-only check consulted at punch time.
type Validator interface {
	Validate(ctx context.Context, tenantID string, employeeID string, point geo.Point) (ValidationResult, error)
}

type GeofenceService interface {
	Validator

	Create(ctx context.Context, tenantID string, req CreateGeofenceRequest) (GeofenceResponse, error)
	Update(ctx context.Context, tenantID string, req UpdateGeofenceRequest) (GeofenceResponse, error)
	Delete(ctx context.Context, tenantID string, id string, deletedBy string) error
	Get(ctx context.Context, tenantID string, id string) (GeofenceResponse, error)
	List(ctx context.Context, tenantID string, filter GeofenceFilter) (ListGeofenceResponse, error)
	ListActive(ctx context.Context, tenantID string) ([]GeofenceResponse, error)

	// MyGeofences lists the active geofences the employee may punch in, plus
	// headquarters when its fallback is enabled.
	MyGeofences(ctx context.Context, tenantID string, employeeID string) ([]GeofenceResponse, error)
}
