package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const overtimeEntryColumns = `
	id, tenant_id, employee_id, seq, entry_type, source, reference_date, minutes, balance_after,
	expiration_date, multiplier, original_minutes, description, time_record_id, expires_entry_id,
	approved_by, created_by, created_at`

// notExpired filters credits no EXPIRATION entry has consumed yet.
const notExpired = `NOT EXISTS (SELECT 1 FROM overtime_entries x WHERE x.expires_entry_id = e.id)`

type overtimeEntryRepositoryImpl struct {
	db *database.DB
}

func NewOvertimeEntryRepository(db *database.DB) overtime.EntryRepository {
	return &overtimeEntryRepositoryImpl{db: db}
}

func scanOvertimeEntry(row rowScanner) (overtime.Entry, error) {
	var e overtime.Entry
	err := row.Scan(
		&e.ID, &e.TenantID, &e.EmployeeID, &e.Seq, &e.Type, &e.Source, &e.ReferenceDate, &e.Minutes, &e.BalanceAfter,
		&e.ExpirationDate, &e.Multiplier, &e.OriginalMinutes, &e.Description, &e.TimeRecordID, &e.ExpiresEntryID,
		&e.ApprovedBy, &e.CreatedBy, &e.CreatedAt,
	)
	return e, err
}

func collectOvertimeEntries(rows pgx.Rows) ([]overtime.Entry, error) {
	defer rows.Close()

	var entries []overtime.Entry
	for rows.Next() {
		e, err := scanOvertimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overtime entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overtime entries: %w", err)
	}
	return entries, nil
}

// Append implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) Append(ctx context.Context, entry overtime.Entry) (overtime.Entry, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		INSERT INTO overtime_entries (
			tenant_id, employee_id, seq, entry_type, source, reference_date, minutes, balance_after,
			expiration_date, multiplier, original_minutes, description, time_record_id, expires_entry_id,
			approved_by, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		) RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		entry.TenantID,
		entry.EmployeeID,
		entry.Seq,
		entry.Type,
		entry.Source,
		entry.ReferenceDate,
		entry.Minutes,
		entry.BalanceAfter,
		entry.ExpirationDate,
		entry.Multiplier,
		entry.OriginalMinutes,
		entry.Description,
		entry.TimeRecordID,
		entry.ExpiresEntryID,
		entry.ApprovedBy,
		entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return overtime.Entry{}, fmt.Errorf("failed to append overtime entry: %w", err)
	}
	return entry, nil
}

// LastEntry implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) LastEntry(ctx context.Context, tenantID string, employeeID string) (*overtime.Entry, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT ` + overtimeEntryColumns + `
		FROM overtime_entries
		WHERE tenant_id = $1 AND employee_id = $2
		ORDER BY seq DESC
		LIMIT 1
	`

	entry, err := scanOvertimeEntry(q.QueryRow(ctx, query, tenantID, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last overtime entry: %w", err)
	}
	return &entry, nil
}

// NetSyncedForDate implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) NetSyncedForDate(ctx context.Context, tenantID string, employeeID string, date time.Time) (int, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT COALESCE(SUM(minutes), 0)
		FROM overtime_entries
		WHERE tenant_id = $1 AND employee_id = $2 AND reference_date = $3
		  AND source = 'DAILY_SUMMARY' AND entry_type IN ('CREDIT', 'DEBIT')
	`

	var net int
	if err := q.QueryRow(ctx, query, tenantID, employeeID, date).Scan(&net); err != nil {
		return 0, fmt.Errorf("failed to sum synced minutes: %w", err)
	}
	return net, nil
}

// ListMovements implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) ListMovements(ctx context.Context, tenantID string, employeeID string, filter overtime.MovementFilter) ([]overtime.Entry, int64, error) {
	q := GetQuerier(ctx, o.db)

	where := "e.tenant_id = $1 AND e.employee_id = $2"
	args := []interface{}{tenantID, employeeID}
	argIdx := 3

	if filter.Type != nil && *filter.Type != "" {
		where += fmt.Sprintf(" AND e.entry_type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM overtime_entries e WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count overtime entries: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM overtime_entries e
		WHERE %s
		ORDER BY e.seq DESC
		LIMIT $%d OFFSET $%d
	`, overtimeEntryColumns, where, argIdx, argIdx+1)
	args = append(args, limit, pageOffset(filter.Page, limit))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list overtime entries: %w", err)
	}
	entries, err := collectOvertimeEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Totals implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) Totals(ctx context.Context, tenantID string, employeeID string) (overtime.Totals, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT
			COALESCE(SUM(ABS(minutes)) FILTER (WHERE entry_type = 'CREDIT'), 0),
			COALESCE(SUM(ABS(minutes)) FILTER (WHERE entry_type = 'DEBIT'), 0),
			COALESCE(SUM(ABS(minutes)) FILTER (WHERE entry_type = 'ADJUSTMENT'), 0),
			COALESCE(SUM(ABS(minutes)) FILTER (WHERE entry_type = 'EXPIRATION'), 0),
			COALESCE(SUM(ABS(minutes)) FILTER (WHERE entry_type = 'PAYOUT'), 0)
		FROM overtime_entries
		WHERE tenant_id = $1 AND employee_id = $2
	`

	var t overtime.Totals
	err := q.QueryRow(ctx, query, tenantID, employeeID).Scan(&t.Credits, &t.Debits, &t.Adjustments, &t.Expirations, &t.Payouts)
	if err != nil {
		return overtime.Totals{}, fmt.Errorf("failed to sum overtime entries: %w", err)
	}
	return t, nil
}

// ListExpiringCredits implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) ListExpiringCredits(ctx context.Context, tenantID string, employeeID string, from, to time.Time) ([]overtime.Entry, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT ` + overtimeEntryColumns + `
		FROM overtime_entries e
		WHERE e.tenant_id = $1 AND e.employee_id = $2 AND e.entry_type = 'CREDIT'
		  AND e.expiration_date BETWEEN $3 AND $4
		  AND ` + notExpired + `
		ORDER BY e.expiration_date ASC, e.seq ASC
	`

	rows, err := q.Query(ctx, query, tenantID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring credits: %w", err)
	}
	return collectOvertimeEntries(rows)
}

// ListExpiredCredits implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) ListExpiredCredits(ctx context.Context, asOf time.Time, limit int) ([]overtime.Entry, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT ` + overtimeEntryColumns + `
		FROM overtime_entries e
		WHERE e.entry_type = 'CREDIT'
		  AND e.expiration_date <= $1
		  AND ` + notExpired + `
		ORDER BY e.tenant_id, e.employee_id, e.seq
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired credits: %w", err)
	}
	return collectOvertimeEntries(rows)
}

// IsExpired implements overtime.EntryRepository.
func (o *overtimeEntryRepositoryImpl) IsExpired(ctx context.Context, tenantID string, creditID string) (bool, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM overtime_entries
			WHERE tenant_id = $1 AND expires_entry_id = $2
		)
	`

	var expired bool
	if err := q.QueryRow(ctx, query, tenantID, creditID).Scan(&expired); err != nil {
		return false, fmt.Errorf("failed to check credit expiration: %w", err)
	}
	return expired, nil
}
