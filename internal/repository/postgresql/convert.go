package postgresql

import (
	"errors"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Times of day are stored as SMALLINT minutes since midnight.

func minutesOf(t *clock.TimeOfDay) *int {
	if t == nil {
		return nil
	}
	m := t.Minutes()
	return &m
}

func timeOfDay(m *int) *clock.TimeOfDay {
	if m == nil {
		return nil
	}
	t := clock.TimeOfDay(*m)
	return &t
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// pageOffset turns a 1-based page into an OFFSET.
func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
