package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/geo"
)

type GeofenceServiceImpl struct {
	geofence.GeofenceRepository
	headquarters  geofence.HeadquartersRepository
	directory     employee.Directory
	defaultRadius int
}

// Validate implements geofence.Validator.
func (s *GeofenceServiceImpl) Validate(ctx context.Context, tenantID string, employeeID string, point geo.Point) (geofence.ValidationResult, error) {
	if !point.Valid() {
		return geofence.ValidationResult{}, geofence.ErrInvalidCoordinate
	}

	active, err := s.GeofenceRepository.ListActive(ctx, tenantID)
	if err != nil {
		return geofence.ValidationResult{}, fmt.Errorf("failed to list active geofences: %w", err)
	}

	allowed, err := s.allowedFor(ctx, tenantID, employeeID, active)
	if err != nil {
		return geofence.ValidationResult{}, err
	}

	var nearest *float64
	for _, g := range allowed {
		distance := geo.Distance(g.Center(), point)
		if g.Contains(point) {
			id, name := g.ID, g.Name
			return geofence.ValidationResult{
				WithinGeofence: true,
				GeofenceID:     &id,
				GeofenceName:   &name,
				DistanceMeters: meters(distance),
			}, nil
		}
		if nearest == nil || distance < *nearest {
			nearest = &distance
		}
	}

	hq, ok, err := s.headquartersGeofence(ctx, tenantID)
	if err != nil {
		return geofence.ValidationResult{}, err
	}
	if ok {
		distance := geo.Distance(hq.Center(), point)
		if hq.Contains(point) {
			name := hq.Name
			return geofence.ValidationResult{
				WithinGeofence: true,
				GeofenceName:   &name,
				Headquarters:   true,
				DistanceMeters: meters(distance),
			}, nil
		}
		if nearest == nil || distance < *nearest {
			nearest = &distance
		}
	}

	result := geofence.ValidationResult{WithinGeofence: false}
	if nearest != nil {
		result.DistanceMeters = meters(*nearest)
	}
	return result, nil
}

func meters(d float64) *float64 {
	rounded := math.Round(d)
	return &rounded
}

// allowedFor keeps the geofences the employee may punch in. The department
// is looked up only when some geofence restricts by department.
func (s *GeofenceServiceImpl) allowedFor(ctx context.Context, tenantID, employeeID string, geofences []geofence.Geofence) ([]geofence.Geofence, error) {
	var departmentID *string
	needDepartment := false
	for _, g := range geofences {
		if len(g.DepartmentIDs) > 0 {
			needDepartment = true
			break
		}
	}
	if needDepartment && s.directory != nil {
		emp, err := s.directory.GetEmployee(ctx, tenantID, employeeID)
		switch {
		case err == nil:
			departmentID = emp.DepartmentID
		case errors.Is(err, employee.ErrEmployeeNotFound):
		default:
			return nil, fmt.Errorf("failed to resolve employee department: %w", err)
		}
	}

	allowed := make([]geofence.Geofence, 0, len(geofences))
	for _, g := range geofences {
		if g.Allows(employeeID, departmentID) {
			allowed = append(allowed, g)
		}
	}
	return allowed, nil
}

func (s *GeofenceServiceImpl) headquartersGeofence(ctx context.Context, tenantID string) (geofence.Geofence, bool, error) {
	hq, err := s.headquarters.Get(ctx, tenantID)
	if err != nil {
		return geofence.Geofence{}, false, fmt.Errorf("failed to get headquarters: %w", err)
	}
	if hq == nil {
		return geofence.Geofence{}, false, nil
	}
	g, ok := hq.Geofence(s.defaultRadius)
	return g, ok, nil
}

// Create implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) Create(ctx context.Context, tenantID string, req geofence.CreateGeofenceRequest) (geofence.GeofenceResponse, error) {
	if err := req.Validate(); err != nil {
		return geofence.GeofenceResponse{}, err
	}

	exists, err := s.GeofenceRepository.ExistsByName(ctx, tenantID, req.Name, nil)
	if err != nil {
		return geofence.GeofenceResponse{}, fmt.Errorf("failed to check geofence name: %w", err)
	}
	if exists {
		return geofence.GeofenceResponse{}, geofence.ErrDuplicateName
	}

	created, err := s.GeofenceRepository.Create(ctx, req.ToGeofence(tenantID))
	if err != nil {
		return geofence.GeofenceResponse{}, fmt.Errorf("failed to create geofence: %w", err)
	}

	slog.Info("geofence created",
		"tenant_id", tenantID,
		"geofence_id", created.ID,
		"name", created.Name,
		"radius_meters", created.RadiusMeters,
	)
	return geofence.NewGeofenceResponse(created), nil
}

// Update implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) Update(ctx context.Context, tenantID string, req geofence.UpdateGeofenceRequest) (geofence.GeofenceResponse, error) {
	if err := req.Validate(); err != nil {
		return geofence.GeofenceResponse{}, err
	}

	current, err := s.GeofenceRepository.GetByID(ctx, tenantID, req.ID)
	if err != nil {
		return geofence.GeofenceResponse{}, err
	}

	if req.Name != nil && *req.Name != current.Name {
		exists, err := s.GeofenceRepository.ExistsByName(ctx, tenantID, *req.Name, &current.ID)
		if err != nil {
			return geofence.GeofenceResponse{}, fmt.Errorf("failed to check geofence name: %w", err)
		}
		if exists {
			return geofence.GeofenceResponse{}, geofence.ErrDuplicateName
		}
	}

	updated, err := s.GeofenceRepository.Update(ctx, req.Apply(current))
	if err != nil {
		return geofence.GeofenceResponse{}, fmt.Errorf("failed to update geofence: %w", err)
	}
	return geofence.NewGeofenceResponse(updated), nil
}

// Delete implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) Delete(ctx context.Context, tenantID string, id string, deletedBy string) error {
	if _, err := s.GeofenceRepository.GetByID(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.GeofenceRepository.Deactivate(ctx, tenantID, id, &deletedBy); err != nil {
		return fmt.Errorf("failed to deactivate geofence: %w", err)
	}
	slog.Info("geofence deactivated", "tenant_id", tenantID, "geofence_id", id, "by", deletedBy)
	return nil
}

// Get implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) Get(ctx context.Context, tenantID string, id string) (geofence.GeofenceResponse, error) {
	g, err := s.GeofenceRepository.GetByID(ctx, tenantID, id)
	if err != nil {
		return geofence.GeofenceResponse{}, err
	}
	return geofence.NewGeofenceResponse(g), nil
}

// List implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) List(ctx context.Context, tenantID string, filter geofence.GeofenceFilter) (geofence.ListGeofenceResponse, error) {
	if err := filter.Validate(); err != nil {
		return geofence.ListGeofenceResponse{}, err
	}

	geofences, total, err := s.GeofenceRepository.List(ctx, tenantID, filter)
	if err != nil {
		return geofence.ListGeofenceResponse{}, fmt.Errorf("failed to list geofences: %w", err)
	}

	resp := geofence.ListGeofenceResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Geofences:  make([]geofence.GeofenceResponse, 0, len(geofences)),
	}
	for _, g := range geofences {
		resp.Geofences = append(resp.Geofences, geofence.NewGeofenceResponse(g))
	}
	return resp, nil
}

// ListActive implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) ListActive(ctx context.Context, tenantID string) ([]geofence.GeofenceResponse, error) {
	active, err := s.GeofenceRepository.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active geofences: %w", err)
	}
	return responses(active), nil
}

// MyGeofences implements geofence.GeofenceService.
func (s *GeofenceServiceImpl) MyGeofences(ctx context.Context, tenantID string, employeeID string) ([]geofence.GeofenceResponse, error) {
	active, err := s.GeofenceRepository.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active geofences: %w", err)
	}

	allowed, err := s.allowedFor(ctx, tenantID, employeeID, active)
	if err != nil {
		return nil, err
	}

	hq, ok, err := s.headquartersGeofence(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if ok {
		allowed = append(allowed, hq)
	}
	return responses(allowed), nil
}

func responses(geofences []geofence.Geofence) []geofence.GeofenceResponse {
	out := make([]geofence.GeofenceResponse, 0, len(geofences))
	for _, g := range geofences {
		out = append(out, geofence.NewGeofenceResponse(g))
	}
	return out
}

func NewGeofenceService(
	geofenceRepo geofence.GeofenceRepository,
	headquartersRepo geofence.HeadquartersRepository,
	directory employee.Directory,
	defaultRadius int,
) geofence.GeofenceService {
	return &GeofenceServiceImpl{
		GeofenceRepository: geofenceRepo,
		headquarters:       headquartersRepo,
		directory:          directory,
		defaultRadius:      defaultRadius,
	}
}
