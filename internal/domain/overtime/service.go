package overtime

import (
	"context"
	"time"
)

// Ledger is what the daily summary aggregator needs from the overtime bank.
type Ledger interface {
	// SyncDailyBalance posts the difference between signedMinutes and what was
	// already posted for date. It returns nil when nothing changed.
	SyncDailyBalance(ctx context.Context, tenantID string, employeeID string, date time.Time, signedMinutes int) (*Entry, error)
}

type OvertimeService interface {
	Ledger

	AddCredit(ctx context.Context, tenantID string, req ManualEntryRequest) (EntryResponse, error)
	AddDebit(ctx context.Context, tenantID string, req ManualEntryRequest) (EntryResponse, error)
	AddAdjustment(ctx context.Context, tenantID string, req ManualEntryRequest) (EntryResponse, error)
	// AddPayout fails with InsufficientBalanceError when req.Minutes exceeds the balance.
	AddPayout(ctx context.Context, tenantID string, req ManualEntryRequest) (EntryResponse, error)

	CurrentBalance(ctx context.Context, tenantID string, employeeID string) (int, error)
	Balance(ctx context.Context, tenantID string, employeeID string) (BalanceResponse, error)
	Summary(ctx context.Context, tenantID string, employeeID string) (SummaryResponse, error)
	Movements(ctx context.Context, tenantID string, employeeID string, filter MovementFilter) (ListMovementResponse, error)
	ExpiringSoon(ctx context.Context, tenantID string, employeeID string, horizonDays int) ([]EntryResponse, error)

	// ExpireCredits appends EXPIRATION entries for every credit past its
	// expiration date as of asOf. Per-credit failures are logged and skipped.
	ExpireCredits(ctx context.Context, asOf time.Time) (int, error)
}
