package overtime

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
)

const (
	recentMovementsLimit = 5
	expirationBatchSize  = 500
)

type OvertimeServiceImpl struct {
	tx     database.Transactor
	locker database.Locker
	overtime.EntryRepository
	publisher        eventbus.Publisher
	clock            clock.Clock
	expirationMonths int
	horizonDays      int
	cache            *balanceCache
}

// SyncDailyBalance implements overtime.Ledger.
func (s *OvertimeServiceImpl) SyncDailyBalance(ctx context.Context, tenantID string, employeeID string, date time.Time, signedMinutes int) (*overtime.Entry, error) {
	var appended *overtime.Entry
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeLockKey(tenantID, employeeID)); err != nil {
			return err
		}

		synced, err := s.EntryRepository.NetSyncedForDate(ctx, tenantID, employeeID, date)
		if err != nil {
			return fmt.Errorf("failed to read synced minutes: %w", err)
		}
		delta := signedMinutes - synced
		if delta == 0 {
			return nil
		}

		entry := overtime.Entry{
			TenantID:      tenantID,
			EmployeeID:    employeeID,
			Source:        overtime.SourceDailySummary,
			ReferenceDate: date,
			Minutes:       delta,
		}
		if delta > 0 {
			expires := s.expirationFor(date)
			entry.Type = overtime.EntryCredit
			entry.ExpirationDate = &expires
			entry.Description = fmt.Sprintf("Overtime worked on %s", date.Format(time.DateOnly))
		} else {
			entry.Type = overtime.EntryDebit
			entry.Description = fmt.Sprintf("Hours owed on %s", date.Format(time.DateOnly))
		}

		saved, err := s.appendLocked(ctx, entry)
		if err != nil {
			return err
		}
		appended = &saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

func (s *OvertimeServiceImpl) expirationFor(date time.Time) time.Time {
	return date.AddDate(0, s.expirationMonths, 0)
}

// appendLocked chains entry onto the employee's last balance. The caller must
// hold the employee lock inside a transaction.
func (s *OvertimeServiceImpl) appendLocked(ctx context.Context, entry overtime.Entry) (overtime.Entry, error) {
	last, err := s.EntryRepository.LastEntry(ctx, entry.TenantID, entry.EmployeeID)
	if err != nil {
		return overtime.Entry{}, fmt.Errorf("failed to read last ledger entry: %w", err)
	}

	previous := 0
	entry.Seq = 1
	if last != nil {
		previous = last.BalanceAfter
		entry.Seq = last.Seq + 1
	}
	entry = entry.Next(previous)

	saved, err := s.EntryRepository.Append(ctx, entry)
	if err != nil {
		return overtime.Entry{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := overtime.VerifyLink(last, saved); err != nil {
		slog.Error("overtime ledger chain check failed",
			"tenant_id", saved.TenantID,
			"employee_id", saved.EmployeeID,
			"error", err,
		)
		return overtime.Entry{}, err
	}

	key := cacheKey(saved.TenantID, saved.EmployeeID)
	event := eventbus.NewEvent(eventbus.OvertimeEntryAppended, saved.TenantID, saved.EmployeeID, saved.ID, map[string]interface{}{
		"type":           string(saved.Type),
		"source":         string(saved.Source),
		"reference_date": saved.ReferenceDate.Format(time.DateOnly),
		"minutes":        saved.Minutes,
		"balance_after":  saved.BalanceAfter,
	})
	database.AfterCommit(ctx, func() {
		s.cache.invalidate(key)
		eventbus.PublishBestEffort(ctx, s.publisher, event)
	})
	return saved, nil
}

// AddCredit implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) AddCredit(ctx context.Context, tenantID string, req overtime.ManualEntryRequest) (overtime.EntryResponse, error) {
	return s.addManual(ctx, tenantID, overtime.EntryCredit, req)
}

// AddDebit implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) AddDebit(ctx context.Context, tenantID string, req overtime.ManualEntryRequest) (overtime.EntryResponse, error) {
	return s.addManual(ctx, tenantID, overtime.EntryDebit, req)
}

// AddAdjustment implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) AddAdjustment(ctx context.Context, tenantID string, req overtime.ManualEntryRequest) (overtime.EntryResponse, error) {
	return s.addManual(ctx, tenantID, overtime.EntryAdjustment, req)
}

// AddPayout implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) AddPayout(ctx context.Context, tenantID string, req overtime.ManualEntryRequest) (overtime.EntryResponse, error) {
	return s.addManual(ctx, tenantID, overtime.EntryPayout, req)
}

func (s *OvertimeServiceImpl) addManual(ctx context.Context, tenantID string, t overtime.EntryType, req overtime.ManualEntryRequest) (overtime.EntryResponse, error) {
	if err := req.Validate(t); err != nil {
		return overtime.EntryResponse{}, err
	}
	if req.ApproverID == "" {
		return overtime.EntryResponse{}, overtime.ErrApproverRequired
	}

	now := s.clock.Now()
	approver := req.ApproverID
	entry := overtime.Entry{
		TenantID:      tenantID,
		EmployeeID:    req.EmployeeID,
		Type:          t,
		Source:        overtime.SourceManual,
		ReferenceDate: req.Date(now),
		Description:   req.Description,
		TimeRecordID:  req.TimeRecordID,
		ApprovedBy:    &approver,
		CreatedBy:     &approver,
	}

	switch t {
	case overtime.EntryCredit:
		entry.Minutes = req.Minutes
		if req.Multiplier != nil {
			original := req.Minutes
			entry.OriginalMinutes = &original
			entry.Multiplier = req.Multiplier
			entry.Minutes = overtime.ApplyMultiplier(req.Minutes, *req.Multiplier)
		}
		expires := s.expirationFor(entry.ReferenceDate)
		entry.ExpirationDate = &expires
	case overtime.EntryAdjustment:
		entry.Minutes = req.Minutes
	default:
		entry.Minutes = -req.Minutes
	}

	var saved overtime.Entry
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeLockKey(tenantID, req.EmployeeID)); err != nil {
			return err
		}

		if t == overtime.EntryPayout {
			balance, err := s.balanceFromRepo(ctx, tenantID, req.EmployeeID)
			if err != nil {
				return err
			}
			if req.Minutes > balance {
				return &overtime.InsufficientBalanceError{Requested: req.Minutes, Available: balance}
			}
		}

		var err error
		saved, err = s.appendLocked(ctx, entry)
		return err
	})
	if err != nil {
		return overtime.EntryResponse{}, err
	}

	if saved.BalanceAfter < 0 {
		slog.Warn("overtime balance is negative",
			"tenant_id", tenantID,
			"employee_id", saved.EmployeeID,
			"balance_after", saved.BalanceAfter,
		)
	}
	slog.Info("overtime entry appended",
		"tenant_id", tenantID,
		"employee_id", saved.EmployeeID,
		"type", saved.Type,
		"minutes", saved.Minutes,
		"balance_after", saved.BalanceAfter,
		"approved_by", approver,
	)
	return overtime.NewEntryResponse(saved, clock.DateOf(now)), nil
}

func (s *OvertimeServiceImpl) balanceFromRepo(ctx context.Context, tenantID, employeeID string) (int, error) {
	last, err := s.EntryRepository.LastEntry(ctx, tenantID, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to read last ledger entry: %w", err)
	}
	if last == nil {
		return 0, nil
	}
	return last.BalanceAfter, nil
}

// CurrentBalance implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) CurrentBalance(ctx context.Context, tenantID string, employeeID string) (int, error) {
	key := cacheKey(tenantID, employeeID)
	balance, generation, ok := s.cache.get(key)
	if ok {
		return balance, nil
	}

	balance, err := s.balanceFromRepo(ctx, tenantID, employeeID)
	if err != nil {
		return 0, err
	}
	s.cache.set(key, balance, generation)
	return balance, nil
}

// Balance implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) Balance(ctx context.Context, tenantID string, employeeID string) (overtime.BalanceResponse, error) {
	balance, err := s.CurrentBalance(ctx, tenantID, employeeID)
	if err != nil {
		return overtime.BalanceResponse{}, err
	}
	return overtime.NewBalanceResponse(employeeID, balance), nil
}

// Summary implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) Summary(ctx context.Context, tenantID string, employeeID string) (overtime.SummaryResponse, error) {
	balance, err := s.CurrentBalance(ctx, tenantID, employeeID)
	if err != nil {
		return overtime.SummaryResponse{}, err
	}

	totals, err := s.EntryRepository.Totals(ctx, tenantID, employeeID)
	if err != nil {
		return overtime.SummaryResponse{}, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	today := clock.DateOf(s.clock.Now())
	expiring, err := s.EntryRepository.ListExpiringCredits(ctx, tenantID, employeeID, today, today.AddDate(0, 0, s.horizonDays))
	if err != nil {
		return overtime.SummaryResponse{}, fmt.Errorf("failed to list expiring credits: %w", err)
	}

	recent, _, err := s.EntryRepository.ListMovements(ctx, tenantID, employeeID, overtime.MovementFilter{Page: 1, Limit: recentMovementsLimit})
	if err != nil {
		return overtime.SummaryResponse{}, fmt.Errorf("failed to list recent movements: %w", err)
	}

	expiringMinutes := 0
	for _, c := range expiring {
		expiringMinutes += c.Minutes
	}
	expiringMinutes = overtime.ExpirableMinutes(expiringMinutes, balance)

	resp := overtime.SummaryResponse{
		BalanceResponse:       overtime.NewBalanceResponse(employeeID, balance),
		TotalCredits:          totals.Credits,
		TotalDebits:           totals.Debits,
		TotalAdjustments:      totals.Adjustments,
		TotalExpired:          totals.Expirations,
		TotalExpiredFormatted: clock.FormatMinutes(totals.Expirations),
		TotalPayouts:          totals.Payouts,
		ExpiringMinutes:       expiringMinutes,
		ExpiringFormatted:     clock.FormatMinutes(expiringMinutes),
		RecentMovements:       make([]overtime.EntryResponse, 0, len(recent)),
	}
	if len(expiring) > 0 && expiring[0].ExpirationDate != nil {
		days := overtime.DaysBetween(today, *expiring[0].ExpirationDate)
		resp.DaysUntilNextExpiration = &days
	}
	for _, e := range recent {
		resp.RecentMovements = append(resp.RecentMovements, overtime.NewEntryResponse(e, today))
	}
	return resp, nil
}

// Movements implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) Movements(ctx context.Context, tenantID string, employeeID string, filter overtime.MovementFilter) (overtime.ListMovementResponse, error) {
	if err := filter.Validate(); err != nil {
		return overtime.ListMovementResponse{}, err
	}

	entries, total, err := s.EntryRepository.ListMovements(ctx, tenantID, employeeID, filter)
	if err != nil {
		return overtime.ListMovementResponse{}, fmt.Errorf("failed to list movements: %w", err)
	}

	today := clock.DateOf(s.clock.Now())
	resp := overtime.ListMovementResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Movements:  make([]overtime.EntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Movements = append(resp.Movements, overtime.NewEntryResponse(e, today))
	}
	return resp, nil
}

// ExpiringSoon implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) ExpiringSoon(ctx context.Context, tenantID string, employeeID string, horizonDays int) ([]overtime.EntryResponse, error) {
	if horizonDays <= 0 {
		horizonDays = s.horizonDays
	}

	today := clock.DateOf(s.clock.Now())
	credits, err := s.EntryRepository.ListExpiringCredits(ctx, tenantID, employeeID, today, today.AddDate(0, 0, horizonDays))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring credits: %w", err)
	}

	out := make([]overtime.EntryResponse, 0, len(credits))
	for _, c := range credits {
		out = append(out, overtime.NewEntryResponse(c, today))
	}
	return out, nil
}

// ExpireCredits implements overtime.OvertimeService.
func (s *OvertimeServiceImpl) ExpireCredits(ctx context.Context, asOf time.Time) (int, error) {
	expired := 0
	failed := map[string]bool{}

	for {
		credits, err := s.EntryRepository.ListExpiredCredits(ctx, asOf, expirationBatchSize)
		if err != nil {
			return expired, fmt.Errorf("failed to list expired credits: %w", err)
		}

		progressed := false
		for _, credit := range credits {
			if failed[credit.ID] {
				continue
			}
			appended, err := s.expireCredit(ctx, credit)
			if err != nil {
				failed[credit.ID] = true
				slog.Error("failed to expire overtime credit",
					"tenant_id", credit.TenantID,
					"employee_id", credit.EmployeeID,
					"credit_id", credit.ID,
					"error", err,
				)
				continue
			}
			progressed = true
			if appended {
				expired++
			}
		}

		if len(credits) < expirationBatchSize || !progressed {
			return expired, nil
		}
	}
}

// expireCredit appends the EXPIRATION that consumes credit. When the balance
// is already spent the entry carries zero minutes and only marks the credit.
func (s *OvertimeServiceImpl) expireCredit(ctx context.Context, credit overtime.Entry) (bool, error) {
	appended := false
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeLockKey(credit.TenantID, credit.EmployeeID)); err != nil {
			return err
		}

		done, err := s.EntryRepository.IsExpired(ctx, credit.TenantID, credit.ID)
		if err != nil {
			return fmt.Errorf("failed to check credit expiration: %w", err)
		}
		if done {
			return nil
		}

		balance, err := s.balanceFromRepo(ctx, credit.TenantID, credit.EmployeeID)
		if err != nil {
			return err
		}

		creditID := credit.ID
		reference := credit.ReferenceDate
		if credit.ExpirationDate != nil {
			reference = *credit.ExpirationDate
		}
		_, err = s.appendLocked(ctx, overtime.Entry{
			TenantID:       credit.TenantID,
			EmployeeID:     credit.EmployeeID,
			Type:           overtime.EntryExpiration,
			Source:         overtime.SourceSweep,
			ReferenceDate:  reference,
			Minutes:        -overtime.ExpirableMinutes(credit.Minutes, balance),
			Description:    fmt.Sprintf("Credit of %s expired", credit.ReferenceDate.Format(time.DateOnly)),
			ExpiresEntryID: &creditID,
		})
		if err != nil {
			return err
		}
		appended = true
		return nil
	})
	return appended, err
}

func NewOvertimeService(
	tx database.Transactor,
	locker database.Locker,
	entryRepo overtime.EntryRepository,
	publisher eventbus.Publisher,
	clk clock.Clock,
	expirationMonths int,
	horizonDays int,
) overtime.OvertimeService {
	return &OvertimeServiceImpl{
		tx:               tx,
		locker:           locker,
		EntryRepository:  entryRepo,
		publisher:        publisher,
		clock:            clk,
		expirationMonths: expirationMonths,
		horizonDays:      horizonDays,
		cache:            newBalanceCache(),
	}
}
