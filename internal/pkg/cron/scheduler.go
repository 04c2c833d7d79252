// Package cron runs the periodic sweeps of the timesheet core on in-process
// tickers.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

// Job is a unit of scheduled work. A job with Daily set fires at most once
// per calendar day, on the first tick at or after Hour.
type Job struct {
	Name     string
	Interval time.Duration
	Daily    bool
	Hour     int
	Fn       func(ctx context.Context) error

	lastDay time.Time
}

// Scheduler runs registered jobs on their own tickers until Stop.
type Scheduler struct {
	jobs   []*Job
	clock  clock.Clock
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(clk clock.Clock, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:  clk,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers fn to run every interval.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.add(&Job{Name: name, Interval: interval, Fn: fn})
}

// AddDailyJob registers fn to run once a day at hour. The ticker checks
// every checkEvery, so a late start still runs the job the same day.
func (s *Scheduler) AddDailyJob(name string, hour int, checkEvery time.Duration, fn func(ctx context.Context) error) {
	s.add(&Job{Name: name, Interval: checkEvery, Daily: true, Hour: hour, Fn: fn})
}

func (s *Scheduler) add(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job)
	s.logger.Info("cron job registered", "name", job.Name, "interval", job.Interval, "daily", job.Daily, "hour", job.Hour)
}

// Start begins running all scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	s.logger.Info("cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels every job and waits for running executions to return.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping cron scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("cron scheduler stopped")
}

func (s *Scheduler) runJob(job *Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.tick(s.ctx, job)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.tick(s.ctx, job)
		}
	}
}

// tick runs job unless it is a daily job that is not yet due.
func (s *Scheduler) tick(ctx context.Context, job *Job) {
	if job.Daily {
		now := s.clock.Now()
		today := clock.DateOf(now)
		if now.Hour() < job.Hour || job.lastDay.Equal(today) {
			return
		}
		job.lastDay = today
	}
	s.execute(ctx, job)
}

func (s *Scheduler) execute(ctx context.Context, job *Job) {
	start := time.Now()
	s.logger.Debug("cron job starting", "name", job.Name)

	if err := job.Fn(ctx); err != nil {
		s.logger.Error("cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("cron job completed", "name", job.Name, "duration", time.Since(start))
}

// RunOnce runs every job immediately, ignoring daily gating.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.execute(ctx, job)
	}
}

// RunDue runs every job whose schedule is due at the clock's current time.
func (s *Scheduler) RunDue(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.tick(ctx, job)
	}
}
