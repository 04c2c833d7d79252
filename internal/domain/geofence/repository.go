package geofence

import "context"

type GeofenceRepository interface {
	Create(ctx context.Context, g Geofence) (Geofence, error)
	Update(ctx context.Context, g Geofence) (Geofence, error)
	GetByID(ctx context.Context, tenantID string, id string) (Geofence, error)

	// ExistsByName ignores the geofence excludeID, so an update may keep its name.
	ExistsByName(ctx context.Context, tenantID string, name string, excludeID *string) (bool, error)

	List(ctx context.Context, tenantID string, filter GeofenceFilter) ([]Geofence, int64, error)
	ListActive(ctx context.Context, tenantID string) ([]Geofence, error)

	// Deactivate is the only delete; rows are kept for punch history.
	Deactivate(ctx context.Context, tenantID string, id string, updatedBy *string) error
}

// HeadquartersRepository reads the headquarters fields of the company profile.
type HeadquartersRepository interface {
	// Get returns nil when the tenant has no profile.
	Get(ctx context.Context, tenantID string) (*Headquarters, error)
}
