package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (pgxmock.PgxPoolIface, *database.DB) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, database.NewWithPool(mock)
}

func TestWithTransactionCommitsAndRunsHooks(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	var hooked bool
	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		_, ok := database.TxStateFromContext(ctx)
		assert.True(t, ok)
		database.AfterCommit(ctx, func() { hooked = true })
		assert.False(t, hooked)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, hooked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	var hooked bool
	err := WithTransaction(context.Background(), db, func(ctx context.Context) error {
		database.AfterCommit(ctx, func() { hooked = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, hooked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransactionJoinsOuter(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	tx := NewTxManager(db)
	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(inner context.Context) error {
			_, ok := database.TxStateFromContext(inner)
			assert.True(t, ok)
			return nil
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisoryLockerRequiresTransaction(t *testing.T) {
	_, db := newMockDB(t)

	err := NewAdvisoryLocker(db).Lock(context.Background(), "employee:t:e")
	assert.ErrorIs(t, err, database.ErrNoTransaction)
}

func TestAdvisoryLockerLocksInsideTransaction(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`)).
		WithArgs("employee:tenant-1:emp-1").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	locker := NewAdvisoryLocker(db)
	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		return locker.Lock(ctx, database.EmployeeLockKey("tenant-1", "emp-1"))
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
