package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

// CreditExpirer is the overtime bank's expiration sweep.
type CreditExpirer interface {
	ExpireCredits(ctx context.Context, asOf time.Time) (int, error)
}

// DayRecomputer rebuilds every employee-day of a date.
type DayRecomputer interface {
	RecomputeDate(ctx context.Context, date time.Time) (int, error)
}

// PendingReminder nudges approvers about pending adjustments.
type PendingReminder interface {
	RemindPending(ctx context.Context) (int, error)
}

// TimesheetJobs holds the daily sweeps of the timesheet core.
type TimesheetJobs struct {
	overtime    CreditExpirer
	summaries   DayRecomputer
	adjustments PendingReminder
	clock       clock.Clock
	sweepHour   int
}

func NewTimesheetJobs(overtime CreditExpirer, summaries DayRecomputer, adjustments PendingReminder, clk clock.Clock, sweepHour int) *TimesheetJobs {
	if clk == nil {
		clk = clock.System()
	}
	return &TimesheetJobs{
		overtime:    overtime,
		summaries:   summaries,
		adjustments: adjustments,
		clock:       clk,
		sweepHour:   sweepHour,
	}
}

func (j *TimesheetJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddDailyJob("recompute_previous_day", j.sweepHour, 15*time.Minute, j.RecomputePreviousDay)
	scheduler.AddDailyJob("expire_overtime_credits", j.sweepHour, 15*time.Minute, j.ExpireOvertimeCredits)
	scheduler.AddDailyJob("remind_pending_adjustments", j.sweepHour, 15*time.Minute, j.RemindPendingAdjustments)
}

// RecomputePreviousDay catches summaries a failed recompute left stale.
func (j *TimesheetJobs) RecomputePreviousDay(ctx context.Context) error {
	yesterday := clock.DateOf(j.clock.Now()).AddDate(0, 0, -1)

	count, err := j.summaries.RecomputeDate(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to recompute %s: %w", yesterday.Format(time.DateOnly), err)
	}
	slog.Info("cron: recomputed daily summaries", "date", yesterday.Format(time.DateOnly), "count", count)
	return nil
}

func (j *TimesheetJobs) ExpireOvertimeCredits(ctx context.Context) error {
	today := clock.DateOf(j.clock.Now())

	count, err := j.overtime.ExpireCredits(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to expire overtime credits: %w", err)
	}
	slog.Info("cron: expired overtime credits", "as_of", today.Format(time.DateOnly), "count", count)
	return nil
}

func (j *TimesheetJobs) RemindPendingAdjustments(ctx context.Context) error {
	count, err := j.adjustments.RemindPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to remind pending adjustments: %w", err)
	}
	slog.Info("cron: pending adjustment reminders sent", "tenants", count)
	return nil
}
