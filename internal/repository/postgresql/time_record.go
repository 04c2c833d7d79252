package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const timeRecordColumns = `
	id, tenant_id, employee_id, record_date, record_time, recorded_at, punch_type, source, status,
	latitude, longitude, accuracy, geofence_id, geofence_name, within_geofence,
	photo_url, device_info, ip_address, adjustment_id, original_time,
	rejection_reason, approved_by, approved_at, notes, import_source_id, nsr,
	created_by, created_at, updated_at`

// countingStatus excludes punches that no longer take part in sequencing.
const countingStatus = `status NOT IN ('REJECTED', 'VOIDED_BY_ADJUSTMENT')`

type timeRecordRepositoryImpl struct {
	db *database.DB
}

func NewTimeRecordRepository(db *database.DB) timerecord.TimeRecordRepository {
	return &timeRecordRepositoryImpl{db: db}
}

func scanTimeRecord(row rowScanner) (timerecord.TimeRecord, error) {
	var (
		r            timerecord.TimeRecord
		recordTime   int
		originalTime *int
	)
	err := row.Scan(
		&r.ID, &r.TenantID, &r.EmployeeID, &r.RecordDate, &recordTime, &r.RecordedAt, &r.Type, &r.Source, &r.Status,
		&r.Latitude, &r.Longitude, &r.Accuracy, &r.GeofenceID, &r.GeofenceName, &r.WithinGeofence,
		&r.PhotoURL, &r.DeviceInfo, &r.IPAddress, &r.AdjustmentID, &originalTime,
		&r.RejectionReason, &r.ApprovedBy, &r.ApprovedAt, &r.Notes, &r.ImportSourceID, &r.NSR,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return timerecord.TimeRecord{}, err
	}
	r.RecordTime = clock.TimeOfDay(recordTime)
	r.OriginalTime = timeOfDay(originalTime)
	return r, nil
}

func collectTimeRecords(rows pgx.Rows) ([]timerecord.TimeRecord, error) {
	defer rows.Close()

	var records []timerecord.TimeRecord
	for rows.Next() {
		r, err := scanTimeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time records: %w", err)
	}
	return records, nil
}

// Create implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) Create(ctx context.Context, record timerecord.TimeRecord) (timerecord.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		INSERT INTO time_records (
			tenant_id, employee_id, record_date, record_time, recorded_at, punch_type, source, status,
			latitude, longitude, accuracy, geofence_id, geofence_name, within_geofence,
			photo_url, device_info, ip_address, adjustment_id, original_time,
			approved_by, approved_at, notes, import_source_id, nsr, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.TenantID,
		record.EmployeeID,
		record.RecordDate,
		record.RecordTime.Minutes(),
		record.RecordedAt,
		record.Type,
		record.Source,
		record.Status,
		record.Latitude,
		record.Longitude,
		record.Accuracy,
		record.GeofenceID,
		record.GeofenceName,
		record.WithinGeofence,
		record.PhotoURL,
		record.DeviceInfo,
		record.IPAddress,
		record.AdjustmentID,
		minutesOf(record.OriginalTime),
		record.ApprovedBy,
		record.ApprovedAt,
		record.Notes,
		record.ImportSourceID,
		record.NSR,
		record.CreatedBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_time_records_import_nsr") {
			return timerecord.TimeRecord{}, timerecord.ErrDuplicateNSR
		}
		return timerecord.TimeRecord{}, fmt.Errorf("failed to create time record: %w", err)
	}

	return record, nil
}

// GetByID implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) GetByID(ctx context.Context, tenantID string, id string) (timerecord.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `SELECT ` + timeRecordColumns + ` FROM time_records WHERE id = $1 AND tenant_id = $2`

	record, err := scanTimeRecord(q.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timerecord.TimeRecord{}, timerecord.ErrRecordNotFound
		}
		return timerecord.TimeRecord{}, fmt.Errorf("failed to get time record: %w", err)
	}
	return record, nil
}

// Update implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) Update(ctx context.Context, record timerecord.TimeRecord) (timerecord.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		UPDATE time_records
		SET record_time = $1,
			status = $2,
			adjustment_id = $3,
			original_time = $4,
			rejection_reason = $5,
			approved_by = $6,
			approved_at = $7,
			notes = $8,
			updated_at = NOW()
		WHERE id = $9 AND tenant_id = $10
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		record.RecordTime.Minutes(),
		record.Status,
		record.AdjustmentID,
		minutesOf(record.OriginalTime),
		record.RejectionReason,
		record.ApprovedBy,
		record.ApprovedAt,
		record.Notes,
		record.ID,
		record.TenantID,
	).Scan(&record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timerecord.TimeRecord{}, timerecord.ErrRecordNotFound
		}
		return timerecord.TimeRecord{}, fmt.Errorf("failed to update time record: %w", err)
	}
	return record, nil
}

// ListByDate implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) ListByDate(ctx context.Context, tenantID string, employeeID string, date time.Time) ([]timerecord.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeRecordColumns + `
		FROM time_records
		WHERE tenant_id = $1 AND employee_id = $2 AND record_date = $3
		ORDER BY record_time ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list time records by date: %w", err)
	}
	return collectTimeRecords(rows)
}

// ListByPeriod implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) ListByPeriod(ctx context.Context, tenantID string, employeeID string, start, end time.Time) ([]timerecord.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeRecordColumns + `
		FROM time_records
		WHERE tenant_id = $1 AND employee_id = $2 AND record_date BETWEEN $3 AND $4
		ORDER BY record_date ASC, record_time ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list time records by period: %w", err)
	}
	return collectTimeRecords(rows)
}

// ExistsAt implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) ExistsAt(ctx context.Context, tenantID string, employeeID string, date time.Time, at clock.TimeOfDay, punch timerecord.PunchType) (bool, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM time_records
			WHERE tenant_id = $1 AND employee_id = $2 AND record_date = $3
			  AND record_time = $4 AND punch_type = $5 AND ` + countingStatus + `
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, tenantID, employeeID, date, at.Minutes(), punch).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check duplicate punch: %w", err)
	}
	return exists, nil
}

// ExistsByNSR implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) ExistsByNSR(ctx context.Context, tenantID string, importSourceID string, nsr int64) (bool, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM time_records
			WHERE tenant_id = $1 AND import_source_id = $2 AND nsr = $3
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, tenantID, importSourceID, nsr).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check imported NSR: %w", err)
	}
	return exists, nil
}

// GetLast implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) GetLast(ctx context.Context, tenantID string, employeeID string) (*timerecord.TimeRecord, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT ` + timeRecordColumns + `
		FROM time_records
		WHERE tenant_id = $1 AND employee_id = $2 AND ` + countingStatus + `
		ORDER BY record_date DESC, record_time DESC, created_at DESC
		LIMIT 1
	`

	record, err := scanTimeRecord(q.QueryRow(ctx, query, tenantID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last time record: %w", err)
	}
	return &record, nil
}

// ListPending implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) ListPending(ctx context.Context, tenantID string, filter timerecord.PendingFilter) ([]timerecord.TimeRecord, int64, error) {
	q := GetQuerier(ctx, t.db)

	where := "tenant_id = $1 AND status = 'PENDING_APPROVAL'"
	args := []interface{}{tenantID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM time_records WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending time records: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM time_records
		WHERE %s
		ORDER BY record_date ASC, record_time ASC
		LIMIT $%d OFFSET $%d
	`, timeRecordColumns, where, argIdx, argIdx+1)
	args = append(args, limit, pageOffset(filter.Page, limit))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending time records: %w", err)
	}
	records, err := collectTimeRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// CountPending implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) CountPending(ctx context.Context, tenantID string) (int64, error) {
	q := GetQuerier(ctx, t.db)

	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM time_records WHERE tenant_id = $1 AND status = 'PENDING_APPROVAL'`, tenantID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending time records: %w", err)
	}
	return total, nil
}

// CountByDate implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) CountByDate(ctx context.Context, tenantID string, date time.Time) (int64, error) {
	q := GetQuerier(ctx, t.db)

	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM time_records WHERE tenant_id = $1 AND record_date = $2 AND `+countingStatus, tenantID, date).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count time records by date: %w", err)
	}
	return total, nil
}

// ListEmployeeDays implements timerecord.TimeRecordRepository.
func (t *timeRecordRepositoryImpl) ListEmployeeDays(ctx context.Context, date time.Time) ([]timerecord.EmployeeDay, error) {
	q := GetQuerier(ctx, t.db)

	query := `
		SELECT DISTINCT tenant_id, employee_id
		FROM time_records
		WHERE record_date = $1
		ORDER BY tenant_id, employee_id
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee days: %w", err)
	}
	defer rows.Close()

	var days []timerecord.EmployeeDay
	for rows.Next() {
		day := timerecord.EmployeeDay{Date: date}
		if err := rows.Scan(&day.TenantID, &day.EmployeeID); err != nil {
			return nil, fmt.Errorf("failed to scan employee day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee days: %w", err)
	}
	return days, nil
}
