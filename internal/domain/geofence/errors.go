package geofence

import "errors"

var (
	ErrGeofenceNotFound  = errors.New("geofence not found")
	ErrDuplicateName     = errors.New("a geofence with this name already exists")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)
