package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const geofenceColumns = `
	id, tenant_id, name, description, latitude, longitude, radius_meters,
	address, city, state, zip_code, location_type, department_ids, employee_ids,
	require_wifi, wifi_ssid, wifi_bssid, is_active, created_by, updated_by, created_at, updated_at`

type geofenceRepositoryImpl struct {
	db *database.DB
}

func NewGeofenceRepository(db *database.DB) geofence.GeofenceRepository {
	return &geofenceRepositoryImpl{db: db}
}

func scanGeofence(row rowScanner) (geofence.Geofence, error) {
	var g geofence.Geofence
	err := row.Scan(
		&g.ID, &g.TenantID, &g.Name, &g.Description, &g.Latitude, &g.Longitude, &g.RadiusMeters,
		&g.Address, &g.City, &g.State, &g.ZipCode, &g.LocationType, &g.DepartmentIDs, &g.EmployeeIDs,
		&g.RequireWifi, &g.WifiSSID, &g.WifiBSSID, &g.Active, &g.CreatedBy, &g.UpdatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func collectGeofences(rows pgx.Rows) ([]geofence.Geofence, error) {
	defer rows.Close()

	var geofences []geofence.Geofence
	for rows.Next() {
		g, err := scanGeofence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan geofence: %w", err)
		}
		geofences = append(geofences, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate geofences: %w", err)
	}
	return geofences, nil
}

// nonNil keeps empty allow-lists as '{}' instead of NULL.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// Create implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) Create(ctx context.Context, g geofence.Geofence) (geofence.Geofence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO geofences (
			tenant_id, name, description, latitude, longitude, radius_meters,
			address, city, state, zip_code, location_type, department_ids, employee_ids,
			require_wifi, wifi_ssid, wifi_bssid, is_active, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		g.TenantID,
		g.Name,
		g.Description,
		g.Latitude,
		g.Longitude,
		g.RadiusMeters,
		g.Address,
		g.City,
		g.State,
		g.ZipCode,
		g.LocationType,
		nonNil(g.DepartmentIDs),
		nonNil(g.EmployeeIDs),
		g.RequireWifi,
		g.WifiSSID,
		g.WifiBSSID,
		g.Active,
		g.CreatedBy,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_geofences_active_name") {
			return geofence.Geofence{}, geofence.ErrDuplicateName
		}
		return geofence.Geofence{}, fmt.Errorf("failed to create geofence: %w", err)
	}
	return g, nil
}

// Update implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) Update(ctx context.Context, g geofence.Geofence) (geofence.Geofence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE geofences
		SET name = $1, description = $2, latitude = $3, longitude = $4, radius_meters = $5,
			address = $6, city = $7, state = $8, zip_code = $9, location_type = $10,
			department_ids = $11, employee_ids = $12, require_wifi = $13, wifi_ssid = $14, wifi_bssid = $15,
			is_active = $16, updated_by = $17, updated_at = NOW()
		WHERE id = $18 AND tenant_id = $19
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		g.Name,
		g.Description,
		g.Latitude,
		g.Longitude,
		g.RadiusMeters,
		g.Address,
		g.City,
		g.State,
		g.ZipCode,
		g.LocationType,
		nonNil(g.DepartmentIDs),
		nonNil(g.EmployeeIDs),
		g.RequireWifi,
		g.WifiSSID,
		g.WifiBSSID,
		g.Active,
		g.UpdatedBy,
		g.ID,
		g.TenantID,
	).Scan(&g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geofence.Geofence{}, geofence.ErrGeofenceNotFound
		}
		if isUniqueViolation(err, "uq_geofences_active_name") {
			return geofence.Geofence{}, geofence.ErrDuplicateName
		}
		return geofence.Geofence{}, fmt.Errorf("failed to update geofence: %w", err)
	}
	return g, nil
}

// GetByID implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) GetByID(ctx context.Context, tenantID string, id string) (geofence.Geofence, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + geofenceColumns + ` FROM geofences WHERE id = $1 AND tenant_id = $2`

	g, err := scanGeofence(q.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geofence.Geofence{}, geofence.ErrGeofenceNotFound
		}
		return geofence.Geofence{}, fmt.Errorf("failed to get geofence: %w", err)
	}
	return g, nil
}

// ExistsByName implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) ExistsByName(ctx context.Context, tenantID string, name string, excludeID *string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM geofences
			WHERE tenant_id = $1 AND LOWER(name) = LOWER($2) AND is_active
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check geofence name: %w", err)
	}
	return exists, nil
}

// List implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) List(ctx context.Context, tenantID string, filter geofence.GeofenceFilter) ([]geofence.Geofence, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "tenant_id = $1"
	args := []interface{}{tenantID}
	argIdx := 2

	if filter.Search != nil && *filter.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR city ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.LocationType != nil && *filter.LocationType != "" {
		where += fmt.Sprintf(" AND location_type = $%d", argIdx)
		args = append(args, *filter.LocationType)
		argIdx++
	}
	if filter.Active != nil {
		where += fmt.Sprintf(" AND is_active = $%d", argIdx)
		args = append(args, *filter.Active)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM geofences WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count geofences: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM geofences
		WHERE %s
		ORDER BY name ASC
		LIMIT $%d OFFSET $%d
	`, geofenceColumns, where, argIdx, argIdx+1)
	args = append(args, limit, pageOffset(filter.Page, limit))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list geofences: %w", err)
	}
	geofences, err := collectGeofences(rows)
	if err != nil {
		return nil, 0, err
	}
	return geofences, total, nil
}

// ListActive implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) ListActive(ctx context.Context, tenantID string) ([]geofence.Geofence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + geofenceColumns + `
		FROM geofences
		WHERE tenant_id = $1 AND is_active
		ORDER BY created_at ASC
	`

	rows, err := q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active geofences: %w", err)
	}
	return collectGeofences(rows)
}

// Deactivate implements geofence.GeofenceRepository.
func (r *geofenceRepositoryImpl) Deactivate(ctx context.Context, tenantID string, id string, updatedBy *string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE geofences
		SET is_active = FALSE, updated_by = $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3
	`, updatedBy, id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to deactivate geofence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return geofence.ErrGeofenceNotFound
	}
	return nil
}

type headquartersRepositoryImpl struct {
	db *database.DB
}

// NewHeadquartersRepository reads the headquarters columns of company_profiles.
func NewHeadquartersRepository(db *database.DB) geofence.HeadquartersRepository {
	return &headquartersRepositoryImpl{db: db}
}

// Get implements geofence.HeadquartersRepository.
func (r *headquartersRepositoryImpl) Get(ctx context.Context, tenantID string) (*geofence.Headquarters, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT tenant_id, company_name, latitude, longitude, geofence_radius_meters, headquarters_geofence_enabled
		FROM company_profiles
		WHERE tenant_id = $1
	`

	var hq geofence.Headquarters
	err := q.QueryRow(ctx, query, tenantID).Scan(
		&hq.TenantID, &hq.CompanyName, &hq.Latitude, &hq.Longitude, &hq.RadiusMeters, &hq.Enabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get headquarters: %w", err)
	}
	return &hq, nil
}
