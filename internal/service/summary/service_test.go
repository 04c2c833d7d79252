package summary

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct{ now time.Time }

func (s stubClock) Now() time.Time { return s.now }

type fakeSummaries struct {
	summary.DailySummaryRepository
	rows    map[string]summary.DailySummary
	seq     int
	upserts int
}

func key(tenantID, employeeID string, date time.Time) string {
	return tenantID + "/" + employeeID + "/" + date.Format(time.DateOnly)
}

func (f *fakeSummaries) Upsert(_ context.Context, s summary.DailySummary) (summary.DailySummary, error) {
	f.upserts++
	if s.ID == "" {
		f.seq++
		s.ID = "sum-" + strconv.Itoa(f.seq)
	}
	f.rows[key(s.TenantID, s.EmployeeID, s.SummaryDate)] = s
	return s, nil
}

func (f *fakeSummaries) Get(_ context.Context, tenantID, employeeID string, date time.Time) (*summary.DailySummary, error) {
	s, ok := f.rows[key(tenantID, employeeID, date)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type fakeRecords struct {
	timerecord.TimeRecordRepository
	byDay map[string][]timerecord.TimeRecord
	days  []timerecord.EmployeeDay
}

func (f *fakeRecords) ListByDate(_ context.Context, tenantID, employeeID string, date time.Time) ([]timerecord.TimeRecord, error) {
	return f.byDay[key(tenantID, employeeID, date)], nil
}

func (f *fakeRecords) ListEmployeeDays(_ context.Context, _ time.Time) ([]timerecord.EmployeeDay, error) {
	return f.days, nil
}

type fixedSchedules struct {
	schedule *schedule.WorkSchedule
}

func (f fixedSchedules) GetForEmployee(context.Context, string, string, time.Time) (*schedule.WorkSchedule, error) {
	return f.schedule, nil
}

type fakeHolidays struct {
	schedule.HolidayRepository
	byDate map[string]schedule.Holiday
}

func (f fakeHolidays) GetByDate(_ context.Context, _ string, date time.Time) (*schedule.Holiday, error) {
	h, ok := f.byDate[date.Format(time.DateOnly)]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

type syncCall struct {
	date   time.Time
	signed int
}

type recordingLedger struct {
	calls []syncCall
}

func (l *recordingLedger) SyncDailyBalance(_ context.Context, _, _ string, date time.Time, signed int) (*overtime.Entry, error) {
	l.calls = append(l.calls, syncCall{date: date, signed: signed})
	return nil, nil
}

type fixture struct {
	svc       *SummaryServiceImpl
	summaries *fakeSummaries
	records   *fakeRecords
	holidays  fakeHolidays
	ledger    *recordingLedger
	events    *eventbus.Recorder
}

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newFixture(ws *schedule.WorkSchedule) *fixture {
	f := &fixture{
		summaries: &fakeSummaries{rows: map[string]summary.DailySummary{}},
		records:   &fakeRecords{byDay: map[string][]timerecord.TimeRecord{}},
		holidays:  fakeHolidays{byDate: map[string]schedule.Holiday{}},
		ledger:    &recordingLedger{},
		events:    &eventbus.Recorder{},
	}
	tx := database.NewLocalTransactor()
	f.svc = NewSummaryService(tx, tx, f.summaries, f.records, fixedSchedules{schedule: ws}, f.holidays,
		f.ledger, f.events, stubClock{now: monday.Add(20 * time.Hour)}, Settings{
			DefaultExpectedMinutes:  480,
			DefaultToleranceMinutes: 10,
			Night: summary.NightWindow{
				Start: clock.NewTimeOfDay(22, 0),
				End:   clock.NewTimeOfDay(5, 0),
			},
		}).(*SummaryServiceImpl)
	return f
}

func (f *fixture) punches(date time.Time, punches ...timerecord.TimeRecord) {
	f.records.byDay[key("tenant-1", "emp-1", date)] = punches
}

func rec(p timerecord.PunchType, h, m int) timerecord.TimeRecord {
	return timerecord.TimeRecord{Type: p, RecordTime: clock.NewTimeOfDay(h, m), Status: timerecord.StatusValid}
}

func regularDay() []timerecord.TimeRecord {
	return []timerecord.TimeRecord{
		rec(timerecord.PunchEntry, 8, 0),
		rec(timerecord.PunchBreakStart, 12, 0),
		rec(timerecord.PunchBreakEnd, 13, 0),
		rec(timerecord.PunchExit, 17, 30),
	}
}

func TestRecompute_SavesAndSyncsLedger(t *testing.T) {
	f := newFixture(nil)
	f.punches(monday, regularDay()...)

	s, err := f.svc.Recompute(context.Background(), "tenant-1", "emp-1", monday)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 510, s.WorkedMinutes)
	assert.Equal(t, 30, s.OvertimeMinutes)
	require.Len(t, f.ledger.calls, 1)
	assert.Equal(t, 30, f.ledger.calls[0].signed)
	assert.Equal(t, []string{eventbus.DailySummaryUpdated}, f.events.Types())
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newFixture(nil)
	f.punches(monday, regularDay()...)
	ctx := context.Background()

	first, err := f.svc.Recompute(ctx, "tenant-1", "emp-1", monday)
	require.NoError(t, err)
	second, err := f.svc.Recompute(ctx, "tenant-1", "emp-1", monday)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, summary.SameTotals(first, second))
	assert.Len(t, f.summaries.rows, 1)
	// unchanged totals publish nothing new
	assert.Len(t, f.events.Events, 1)
}

func TestRecompute_UsesScheduleForWeekday(t *testing.T) {
	entry := clock.NewTimeOfDay(9, 0)
	f := newFixture(&schedule.WorkSchedule{
		ID:               "ws-1",
		ToleranceMinutes: 5,
		Days: []schedule.ScheduleDay{
			{Weekday: time.Monday, ExpectedWorkMinutes: 360, EntryTime: &entry},
		},
	})
	f.punches(monday,
		rec(timerecord.PunchEntry, 9, 20),
		rec(timerecord.PunchExit, 16, 20),
	)

	s, err := f.svc.Recompute(context.Background(), "tenant-1", "emp-1", monday)
	require.NoError(t, err)

	require.NotNil(t, s.WorkScheduleID)
	assert.Equal(t, "ws-1", *s.WorkScheduleID)
	assert.Equal(t, 360, s.ExpectedMinutes)
	assert.Equal(t, 60, s.OvertimeMinutes)
	assert.Equal(t, 20, s.LateArrivalMinutes)
}

func TestRecompute_Holiday(t *testing.T) {
	f := newFixture(nil)
	f.holidays.byDate["2024-03-04"] = schedule.Holiday{Name: "Carnival", Type: schedule.HolidayNational}
	f.punches(monday,
		rec(timerecord.PunchEntry, 9, 0),
		rec(timerecord.PunchExit, 11, 0),
	)

	s, err := f.svc.Recompute(context.Background(), "tenant-1", "emp-1", monday)
	require.NoError(t, err)
	assert.True(t, s.IsHoliday)
	assert.Equal(t, 0, s.ExpectedMinutes)
	assert.Equal(t, 120, s.OvertimeMinutes)
	assert.Equal(t, 120, f.ledger.calls[0].signed)
}

func TestRecompute_KeepsClosingFields(t *testing.T) {
	f := newFixture(nil)
	f.punches(monday, regularDay()...)
	ctx := context.Background()

	_, err := f.svc.CloseDay(ctx, "tenant-1", summary.CloseDayRequest{
		EmployeeID: "emp-1",
		Date:       monday,
		ClosedBy:   "manager-1",
	})
	require.NoError(t, err)

	s, err := f.svc.Recompute(ctx, "tenant-1", "emp-1", monday)
	require.NoError(t, err)
	assert.True(t, s.IsClosed)
	require.NotNil(t, s.ClosedBy)
	assert.Equal(t, "manager-1", *s.ClosedBy)
}

func TestCloseDay_Twice(t *testing.T) {
	f := newFixture(nil)
	f.punches(monday, regularDay()...)
	ctx := context.Background()
	req := summary.CloseDayRequest{EmployeeID: "emp-1", Date: monday, ClosedBy: "manager-1"}

	resp, err := f.svc.CloseDay(ctx, "tenant-1", req)
	require.NoError(t, err)
	assert.True(t, resp.IsClosed)

	_, err = f.svc.CloseDay(ctx, "tenant-1", req)
	assert.ErrorIs(t, err, summary.ErrAlreadyClosed)
}

func TestDailySummary_NotFound(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.DailySummary(context.Background(), "tenant-1", "emp-1", monday)
	assert.ErrorIs(t, err, summary.ErrSummaryNotFound)
}

func TestRecomputeDate(t *testing.T) {
	f := newFixture(nil)
	f.punches(monday, regularDay()...)
	f.records.byDay[key("tenant-2", "emp-9", monday)] = []timerecord.TimeRecord{rec(timerecord.PunchEntry, 8, 0)}
	f.records.days = []timerecord.EmployeeDay{
		{TenantID: "tenant-1", EmployeeID: "emp-1", Date: monday},
		{TenantID: "tenant-2", EmployeeID: "emp-9", Date: monday},
	}

	n, err := f.svc.RecomputeDate(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	open, err := f.summaries.Get(context.Background(), "tenant-2", "emp-9", monday)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.True(t, open.HasMissingRecords)
}
