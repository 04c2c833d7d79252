package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const timeAdjustmentColumns = `
	id, tenant_id, employee_id, requested_by, adjustment_type, original_record_id,
	target_date, target_type, requested_time, original_time, justification, attachments,
	status, approved_by, approved_at, approval_notes, resulting_record_id, created_at, updated_at`

type timeAdjustmentRepositoryImpl struct {
	db *database.DB
}

func NewTimeAdjustmentRepository(db *database.DB) adjustment.TimeAdjustmentRepository {
	return &timeAdjustmentRepositoryImpl{db: db}
}

func scanTimeAdjustment(row rowScanner) (adjustment.TimeAdjustment, error) {
	var (
		a                           adjustment.TimeAdjustment
		requestedTime, originalTime *int
	)
	err := row.Scan(
		&a.ID, &a.TenantID, &a.EmployeeID, &a.RequestedBy, &a.Type, &a.OriginalRecordID,
		&a.TargetDate, &a.TargetType, &requestedTime, &originalTime, &a.Justification, &a.Attachments,
		&a.Status, &a.ApprovedBy, &a.ApprovedAt, &a.ApprovalNotes, &a.ResultingRecordID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return adjustment.TimeAdjustment{}, err
	}
	a.RequestedTime = timeOfDay(requestedTime)
	a.OriginalTime = timeOfDay(originalTime)
	return a, nil
}

// Create implements adjustment.TimeAdjustmentRepository.
func (r *timeAdjustmentRepositoryImpl) Create(ctx context.Context, a adjustment.TimeAdjustment) (adjustment.TimeAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_adjustments (
			tenant_id, employee_id, requested_by, adjustment_type, original_record_id,
			target_date, target_type, requested_time, original_time, justification, attachments, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		a.TenantID,
		a.EmployeeID,
		a.RequestedBy,
		a.Type,
		a.OriginalRecordID,
		a.TargetDate,
		a.TargetType,
		minutesOf(a.RequestedTime),
		minutesOf(a.OriginalTime),
		a.Justification,
		nonNil(a.Attachments),
		a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_time_adjustments_pending_record") {
			return adjustment.TimeAdjustment{}, adjustment.ErrDuplicatePending
		}
		if isForeignKeyViolation(err) {
			return adjustment.TimeAdjustment{}, timerecord.ErrRecordNotFound
		}
		return adjustment.TimeAdjustment{}, fmt.Errorf("failed to create time adjustment: %w", err)
	}
	return a, nil
}

// GetByID implements adjustment.TimeAdjustmentRepository.
func (r *timeAdjustmentRepositoryImpl) GetByID(ctx context.Context, tenantID string, id string) (adjustment.TimeAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeAdjustmentColumns + ` FROM time_adjustments WHERE id = $1 AND tenant_id = $2`

	a, err := scanTimeAdjustment(q.QueryRow(ctx, query, id, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adjustment.TimeAdjustment{}, adjustment.ErrAdjustmentNotFound
		}
		return adjustment.TimeAdjustment{}, fmt.Errorf("failed to get time adjustment: %w", err)
	}
	return a, nil
}

// Update implements adjustment.TimeAdjustmentRepository. Only a PENDING row
// is written; any other current status comes back as a StatusError.
func (r *timeAdjustmentRepositoryImpl) Update(ctx context.Context, a adjustment.TimeAdjustment) (adjustment.TimeAdjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_adjustments
		SET status = $1, approved_by = $2, approved_at = $3, approval_notes = $4,
			resulting_record_id = $5, original_time = $6, updated_at = NOW()
		WHERE id = $7 AND tenant_id = $8 AND status = 'PENDING'
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		a.Status,
		a.ApprovedBy,
		a.ApprovedAt,
		a.ApprovalNotes,
		a.ResultingRecordID,
		minutesOf(a.OriginalTime),
		a.ID,
		a.TenantID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adjustment.TimeAdjustment{}, r.notPending(ctx, a.TenantID, a.ID)
		}
		return adjustment.TimeAdjustment{}, fmt.Errorf("failed to update time adjustment: %w", err)
	}
	return a, nil
}

func (r *timeAdjustmentRepositoryImpl) notPending(ctx context.Context, tenantID string, id string) error {
	q := GetQuerier(ctx, r.db)

	var status string
	err := q.QueryRow(ctx, `SELECT status FROM time_adjustments WHERE id = $1 AND tenant_id = $2`, id, tenantID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return adjustment.ErrAdjustmentNotFound
		}
		return fmt.Errorf("failed to read time adjustment status: %w", err)
	}
	return &adjustment.StatusError{Action: "update", Status: adjustment.Status(status)}
}

// ExistsPendingForRecord implements adjustment.TimeAdjustmentRepository.
func (r *timeAdjustmentRepositoryImpl) ExistsPendingForRecord(ctx context.Context, tenantID string, recordID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM time_adjustments
			WHERE tenant_id = $1 AND original_record_id = $2 AND status = 'PENDING'
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, tenantID, recordID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending adjustments: %w", err)
	}
	return exists, nil
}

// List implements adjustment.TimeAdjustmentRepository.
func (r *timeAdjustmentRepositoryImpl) List(ctx context.Context, tenantID string, filter adjustment.AdjustmentFilter) ([]adjustment.TimeAdjustment, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "tenant_id = $1"
	args := []interface{}{tenantID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM time_adjustments WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time adjustments: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM time_adjustments
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, timeAdjustmentColumns, where, argIdx, argIdx+1)
	args = append(args, limit, pageOffset(filter.Page, limit))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list time adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []adjustment.TimeAdjustment
	for rows.Next() {
		a, err := scanTimeAdjustment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan time adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate time adjustments: %w", err)
	}
	return adjustments, total, nil
}

// CountPending implements adjustment.TimeAdjustmentRepository.
func (r *timeAdjustmentRepositoryImpl) CountPending(ctx context.Context, tenantID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM time_adjustments WHERE tenant_id = $1 AND status = 'PENDING'`, tenantID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending time adjustments: %w", err)
	}
	return total, nil
}

// CountPendingByTenant implements adjustment.TimeAdjustmentRepository.
func (r *timeAdjustmentRepositoryImpl) CountPendingByTenant(ctx context.Context) (map[string]int64, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT tenant_id, COUNT(*)
		FROM time_adjustments
		WHERE status = 'PENDING'
		GROUP BY tenant_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending time adjustments by tenant: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			tenantID string
			count    int64
		)
		if err := rows.Scan(&tenantID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pending count: %w", err)
		}
		counts[tenantID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending counts: %w", err)
	}
	return counts, nil
}
