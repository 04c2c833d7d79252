package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
)

type advisoryLocker struct {
	db *database.DB
}

// NewAdvisoryLocker returns a database.Locker backed by pg_advisory_xact_lock.
// The lock is held until the surrounding transaction commits or rolls back.
func NewAdvisoryLocker(db *database.DB) database.Locker {
	return &advisoryLocker{db: db}
}

func (l *advisoryLocker) Lock(ctx context.Context, key string) error {
	state, ok := database.TxStateFromContext(ctx)
	if !ok || state.Tx == nil {
		return database.ErrNoTransaction
	}

	if _, err := state.Tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire advisory lock %q: %w", key, err)
	}
	return nil
}
