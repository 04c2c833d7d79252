package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) schedule.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// GetByDate implements schedule.HolidayRepository.
func (h *holidayRepositoryImpl) GetByDate(ctx context.Context, tenantID string, date time.Time) (*schedule.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	query := `
		SELECT id, tenant_id, holiday_date, name, holiday_type, created_at
		FROM holidays
		WHERE tenant_id = $1 AND holiday_date = $2
	`

	var holiday schedule.Holiday
	err := q.QueryRow(ctx, query, tenantID, date).Scan(
		&holiday.ID, &holiday.TenantID, &holiday.Date, &holiday.Name, &holiday.Type, &holiday.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holiday: %w", err)
	}
	return &holiday, nil
}

// ListByYear implements schedule.HolidayRepository.
func (h *holidayRepositoryImpl) ListByYear(ctx context.Context, tenantID string, year int) ([]schedule.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	query := `
		SELECT id, tenant_id, holiday_date, name, holiday_type, created_at
		FROM holidays
		WHERE tenant_id = $1 AND holiday_date >= $2 AND holiday_date < $3
		ORDER BY holiday_date ASC
	`

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := q.Query(ctx, query, tenantID, start, start.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []schedule.Holiday
	for rows.Next() {
		var holiday schedule.Holiday
		if err := rows.Scan(&holiday.ID, &holiday.TenantID, &holiday.Date, &holiday.Name, &holiday.Type, &holiday.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, holiday)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holidays: %w", err)
	}
	return holidays, nil
}

// Create implements schedule.HolidayRepository.
func (h *holidayRepositoryImpl) Create(ctx context.Context, holiday schedule.Holiday) (schedule.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	query := `
		INSERT INTO holidays (tenant_id, holiday_date, name, holiday_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query, holiday.TenantID, holiday.Date, holiday.Name, holiday.Type).Scan(&holiday.ID, &holiday.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return schedule.Holiday{}, schedule.ErrHolidayExists
		}
		return schedule.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return holiday, nil
}
