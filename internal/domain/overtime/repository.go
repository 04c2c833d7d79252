package overtime

import (
	"context"
	"time"
)

// EntryRepository is append-only: there is no update or delete.
type EntryRepository interface {
	Append(ctx context.Context, entry Entry) (Entry, error)

	// LastEntry returns the newest entry of the employee, or nil.
	LastEntry(ctx context.Context, tenantID string, employeeID string) (*Entry, error)

	// NetSyncedForDate sums the CREDIT and DEBIT minutes the daily summary
	// has already posted for date.
	NetSyncedForDate(ctx context.Context, tenantID string, employeeID string, date time.Time) (int, error)

	ListMovements(ctx context.Context, tenantID string, employeeID string, filter MovementFilter) ([]Entry, int64, error)

	Totals(ctx context.Context, tenantID string, employeeID string) (Totals, error)

	// ListExpiringCredits returns credits not yet expired whose expiration
	// date is within [from, to], soonest first.
	ListExpiringCredits(ctx context.Context, tenantID string, employeeID string, from, to time.Time) ([]Entry, error)

	// ListExpiredCredits returns, across tenants, credits whose expiration
	// date is on or before asOf and that no EXPIRATION entry references.
	ListExpiredCredits(ctx context.Context, asOf time.Time, limit int) ([]Entry, error)

	// IsExpired reports whether an EXPIRATION entry already consumes creditID.
	IsExpired(ctx context.Context, tenantID string, creditID string) (bool, error)
}
