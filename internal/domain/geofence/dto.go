package geofence

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/geo"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

type CreateGeofenceRequest struct {
	CreatedBy     string   `json:"-"`
	Name          string   `json:"name" validate:"required,max=100"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Latitude      *float64 `json:"latitude" validate:"required,latitude"`
	Longitude     *float64 `json:"longitude" validate:"required,longitude"`
	RadiusMeters  int      `json:"radius_meters" validate:"omitempty,min=10,max=10000"`
	Address       *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	City          *string  `json:"city,omitempty" validate:"omitempty,max=100"`
	State         *string  `json:"state,omitempty" validate:"omitempty,max=50"`
	ZipCode       *string  `json:"zip_code,omitempty" validate:"omitempty,max=10"`
	LocationType  string   `json:"location_type" validate:"omitempty,oneof=HEADQUARTERS BRANCH CLIENT HOME_OFFICE OTHER"`
	DepartmentIDs []string `json:"department_ids,omitempty"`
	EmployeeIDs   []string `json:"employee_ids,omitempty"`
	RequireWifi   bool     `json:"require_wifi"`
	WifiSSID      *string  `json:"wifi_ssid,omitempty" validate:"omitempty,max=100"`
	WifiBSSID     *string  `json:"wifi_bssid,omitempty" validate:"omitempty,max=50"`
}

// DefaultRadiusMeters applies when a geofence is created without a radius.
const DefaultRadiusMeters = 100

func (r *CreateGeofenceRequest) Validate() error {
	errs := validator.Struct(r)
	if r.RequireWifi && r.WifiSSID == nil && r.WifiBSSID == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "wifi_ssid",
			Message: "wifi_ssid or wifi_bssid is required when require_wifi is set",
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToGeofence assumes Validate passed.
func (r *CreateGeofenceRequest) ToGeofence(tenantID string) Geofence {
	radius := r.RadiusMeters
	if radius == 0 {
		radius = DefaultRadiusMeters
	}
	locationType := LocationType(r.LocationType)
	if locationType == "" {
		locationType = LocationOther
	}
	createdBy := r.CreatedBy
	return Geofence{
		TenantID:      tenantID,
		Name:          r.Name,
		Description:   r.Description,
		Latitude:      *r.Latitude,
		Longitude:     *r.Longitude,
		RadiusMeters:  radius,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		ZipCode:       r.ZipCode,
		LocationType:  locationType,
		DepartmentIDs: r.DepartmentIDs,
		EmployeeIDs:   r.EmployeeIDs,
		RequireWifi:   r.RequireWifi,
		WifiSSID:      r.WifiSSID,
		WifiBSSID:     r.WifiBSSID,
		Active:        true,
		CreatedBy:     &createdBy,
	}
}

// UpdateGeofenceRequest replaces only the fields that are sent.
type UpdateGeofenceRequest struct {
	ID            string    `json:"-"`
	UpdatedBy     string    `json:"-"`
	Name          *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Latitude      *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	RadiusMeters  *int      `json:"radius_meters,omitempty" validate:"omitempty,min=10,max=10000"`
	Address       *string   `json:"address,omitempty" validate:"omitempty,max=500"`
	City          *string   `json:"city,omitempty" validate:"omitempty,max=100"`
	State         *string   `json:"state,omitempty" validate:"omitempty,max=50"`
	ZipCode       *string   `json:"zip_code,omitempty" validate:"omitempty,max=10"`
	LocationType  *string   `json:"location_type,omitempty" validate:"omitempty,oneof=HEADQUARTERS BRANCH CLIENT HOME_OFFICE OTHER"`
	DepartmentIDs *[]string `json:"department_ids,omitempty"`
	EmployeeIDs   *[]string `json:"employee_ids,omitempty"`
	RequireWifi   *bool     `json:"require_wifi,omitempty"`
	WifiSSID      *string   `json:"wifi_ssid,omitempty" validate:"omitempty,max=100"`
	WifiBSSID     *string   `json:"wifi_bssid,omitempty" validate:"omitempty,max=50"`
	Active        *bool     `json:"active,omitempty"`
}

func (r *UpdateGeofenceRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply copies the sent fields onto g.
func (r *UpdateGeofenceRequest) Apply(g Geofence) Geofence {
	if r.Name != nil {
		g.Name = *r.Name
	}
	if r.Description != nil {
		g.Description = r.Description
	}
	if r.Latitude != nil {
		g.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		g.Longitude = *r.Longitude
	}
	if r.RadiusMeters != nil {
		g.RadiusMeters = *r.RadiusMeters
	}
	if r.Address != nil {
		g.Address = r.Address
	}
	if r.City != nil {
		g.City = r.City
	}
	if r.State != nil {
		g.State = r.State
	}
	if r.ZipCode != nil {
		g.ZipCode = r.ZipCode
	}
	if r.LocationType != nil {
		g.LocationType = LocationType(*r.LocationType)
	}
	if r.DepartmentIDs != nil {
		g.DepartmentIDs = *r.DepartmentIDs
	}
	if r.EmployeeIDs != nil {
		g.EmployeeIDs = *r.EmployeeIDs
	}
	if r.RequireWifi != nil {
		g.RequireWifi = *r.RequireWifi
	}
	if r.WifiSSID != nil {
		g.WifiSSID = r.WifiSSID
	}
	if r.WifiBSSID != nil {
		g.WifiBSSID = r.WifiBSSID
	}
	if r.Active != nil {
		g.Active = *r.Active
	}
	updatedBy := r.UpdatedBy
	g.UpdatedBy = &updatedBy
	return g
}

type ValidateLocationRequest struct {
	EmployeeID string   `json:"-"`
	Latitude   *float64 `json:"latitude" validate:"required,latitude"`
	Longitude  *float64 `json:"longitude" validate:"required,longitude"`
}

func (r *ValidateLocationRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// Point assumes Validate passed.
func (r *ValidateLocationRequest) Point() geo.Point {
	return geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

type GeofenceFilter struct {
	Search       *string `json:"search,omitempty"`
	LocationType *string `json:"location_type,omitempty"`
	Active       *bool   `json:"active,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *GeofenceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}

	if f.LocationType != nil && !validator.IsInSlice(*f.LocationType, LocationTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "location_type",
			Message: "location_type must be one of: HEADQUARTERS, BRANCH, CLIENT, HOME_OFFICE, OTHER",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type GeofenceResponse struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name"`
	Description       *string  `json:"description,omitempty"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	RadiusMeters      int      `json:"radius_meters"`
	Address           *string  `json:"address,omitempty"`
	City              *string  `json:"city,omitempty"`
	State             *string  `json:"state,omitempty"`
	ZipCode           *string  `json:"zip_code,omitempty"`
	FullAddress       string   `json:"full_address,omitempty"`
	LocationType      string   `json:"location_type"`
	LocationTypeLabel string   `json:"location_type_label"`
	DepartmentIDs     []string `json:"department_ids"`
	EmployeeIDs       []string `json:"employee_ids"`
	RequireWifi       bool     `json:"require_wifi"`
	WifiSSID          *string  `json:"wifi_ssid,omitempty"`
	WifiBSSID         *string  `json:"wifi_bssid,omitempty"`
	Active            bool     `json:"active"`
	CreatedAt         string   `json:"created_at,omitempty"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
}

func NewGeofenceResponse(g Geofence) GeofenceResponse {
	resp := GeofenceResponse{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		Latitude:          g.Latitude,
		Longitude:         g.Longitude,
		RadiusMeters:      g.RadiusMeters,
		Address:           g.Address,
		City:              g.City,
		State:             g.State,
		ZipCode:           g.ZipCode,
		FullAddress:       g.FullAddress(),
		LocationType:      string(g.LocationType),
		LocationTypeLabel: g.LocationType.Label(),
		DepartmentIDs:     nonNil(g.DepartmentIDs),
		EmployeeIDs:       nonNil(g.EmployeeIDs),
		RequireWifi:       g.RequireWifi,
		WifiSSID:          g.WifiSSID,
		WifiBSSID:         g.WifiBSSID,
		Active:            g.Active,
	}
	if !g.CreatedAt.IsZero() {
		resp.CreatedAt = g.CreatedAt.Format(time.RFC3339)
		resp.UpdatedAt = g.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

type ListGeofenceResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Geofences  []GeofenceResponse `json:"geofences"`
}

type ValidationResponse struct {
	WithinGeofence bool     `json:"within_geofence"`
	GeofenceID     *string  `json:"geofence_id,omitempty"`
	GeofenceName   *string  `json:"geofence_name,omitempty"`
	Headquarters   bool     `json:"headquarters"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

func NewValidationResponse(r ValidationResult) ValidationResponse {
	return ValidationResponse{
		WithinGeofence: r.WithinGeofence,
		GeofenceID:     r.GeofenceID,
		GeofenceName:   r.GeofenceName,
		Headquarters:   r.Headquarters,
		DistanceMeters: r.DistanceMeters,
	}
}
