package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrNoTransaction = errors.New("operation requires an active transaction")

// Transactor runs fn inside a unit of work. Nested calls join the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker takes a lock that is released when the surrounding transaction ends.
type Locker interface {
	Lock(ctx context.Context, key string) error
}

type txKey struct{}

// TxState is stored in the context for the lifetime of a transaction.
type TxState struct {
	Tx          pgx.Tx
	afterCommit []func()
}

// WithTxState attaches state to ctx.
func WithTxState(ctx context.Context, state *TxState) context.Context {
	return context.WithValue(ctx, txKey{}, state)
}

// TxStateFromContext returns the transaction state bound to ctx, if any.
func TxStateFromContext(ctx context.Context) (*TxState, bool) {
	state, ok := ctx.Value(txKey{}).(*TxState)
	return state, ok && state != nil
}

// AfterCommit schedules fn to run once the surrounding transaction commits.
// Without a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if state, ok := TxStateFromContext(ctx); ok {
		state.afterCommit = append(state.afterCommit, fn)
		return
	}
	fn()
}

// RunAfterCommit fires the queued hooks in registration order.
func (s *TxState) RunAfterCommit() {
	hooks := s.afterCommit
	s.afterCommit = nil
	for _, fn := range hooks {
		fn()
	}
}

// EmployeeLockKey serializes ledger writes for one employee.
func EmployeeLockKey(tenantID, employeeID string) string {
	return fmt.Sprintf("employee:%s:%s", tenantID, employeeID)
}

// EmployeeDayLockKey serializes punch and summary writes for one employee-day.
// Always take it before EmployeeLockKey.
func EmployeeDayLockKey(tenantID, employeeID string, date time.Time) string {
	return fmt.Sprintf("employee-day:%s:%s:%s", tenantID, employeeID, date.Format("2006-01-02"))
}

// LocalTransactor is an in-process Transactor and Locker. Every unit of work
// runs under a single mutex, so it also satisfies any lock request made inside it.
type LocalTransactor struct {
	mu sync.Mutex
}

func NewLocalTransactor() *LocalTransactor {
	return &LocalTransactor{}
}

func (l *LocalTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxStateFromContext(ctx); ok {
		return fn(ctx)
	}

	l.mu.Lock()
	state := &TxState{}
	err := fn(WithTxState(ctx, state))
	l.mu.Unlock()

	if err != nil {
		return err
	}
	state.RunAfterCommit()
	return nil
}

func (l *LocalTransactor) Lock(ctx context.Context, key string) error {
	if _, ok := TxStateFromContext(ctx); !ok {
		return ErrNoTransaction
	}
	return nil
}
