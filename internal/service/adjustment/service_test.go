package adjustment

import (
	"context"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/employee"
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

type memoryAdjustments struct {
	adjustment.TimeAdjustmentRepository
	rows []adjustment.TimeAdjustment
}

func (m *memoryAdjustments) Create(_ context.Context, a adjustment.TimeAdjustment) (adjustment.TimeAdjustment, error) {
	a.ID = "adj-" + strconv.Itoa(len(m.rows)+1)
	m.rows = append(m.rows, a)
	return a, nil
}

func (m *memoryAdjustments) GetByID(_ context.Context, tenantID, id string) (adjustment.TimeAdjustment, error) {
	for _, a := range m.rows {
		if a.TenantID == tenantID && a.ID == id {
			return a, nil
		}
	}
	return adjustment.TimeAdjustment{}, adjustment.ErrAdjustmentNotFound
}

func (m *memoryAdjustments) Update(_ context.Context, a adjustment.TimeAdjustment) (adjustment.TimeAdjustment, error) {
	for i := range m.rows {
		if m.rows[i].ID == a.ID {
			if m.rows[i].Status != adjustment.StatusPending {
				return adjustment.TimeAdjustment{}, &adjustment.StatusError{Action: "update", Status: m.rows[i].Status}
			}
			m.rows[i] = a
			return a, nil
		}
	}
	return adjustment.TimeAdjustment{}, adjustment.ErrAdjustmentNotFound
}

// interleavedAdjustments runs afterRead once, right after the first GetByID,
// to land a competing decision between a read and the write that follows it.
type interleavedAdjustments struct {
	*memoryAdjustments
	afterRead func()
}

func (i *interleavedAdjustments) GetByID(ctx context.Context, tenantID, id string) (adjustment.TimeAdjustment, error) {
	a, err := i.memoryAdjustments.GetByID(ctx, tenantID, id)
	if hook := i.afterRead; hook != nil {
		i.afterRead = nil
		hook()
	}
	return a, err
}

func (m *memoryAdjustments) ExistsPendingForRecord(_ context.Context, tenantID, recordID string) (bool, error) {
	for _, a := range m.rows {
		if a.TenantID == tenantID && a.Status == adjustment.StatusPending &&
			a.OriginalRecordID != nil && *a.OriginalRecordID == recordID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryAdjustments) CountPendingByTenant(context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, a := range m.rows {
		if a.Status == adjustment.StatusPending {
			counts[a.TenantID]++
		}
	}
	return counts, nil
}

type memoryRecords struct {
	timerecord.TimeRecordRepository
	rows []timerecord.TimeRecord
}

func (m *memoryRecords) Create(_ context.Context, r timerecord.TimeRecord) (timerecord.TimeRecord, error) {
	r.ID = "rec-" + strconv.Itoa(len(m.rows)+1)
	m.rows = append(m.rows, r)
	return r, nil
}

func (m *memoryRecords) GetByID(_ context.Context, tenantID, id string) (timerecord.TimeRecord, error) {
	for _, r := range m.rows {
		if r.TenantID == tenantID && r.ID == id {
			return r, nil
		}
	}
	return timerecord.TimeRecord{}, timerecord.ErrRecordNotFound
}

func (m *memoryRecords) Update(_ context.Context, r timerecord.TimeRecord) (timerecord.TimeRecord, error) {
	for i := range m.rows {
		if m.rows[i].ID == r.ID {
			m.rows[i] = r
			return r, nil
		}
	}
	return timerecord.TimeRecord{}, timerecord.ErrRecordNotFound
}

func (m *memoryRecords) ListByDate(_ context.Context, tenantID, employeeID string, date time.Time) ([]timerecord.TimeRecord, error) {
	var out []timerecord.TimeRecord
	for _, r := range m.rows {
		if r.TenantID == tenantID && r.EmployeeID == employeeID && r.RecordDate.Equal(date) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b timerecord.TimeRecord) int { return int(a.RecordTime - b.RecordTime) })
	return out, nil
}

type closedDays struct {
	summary.DailySummaryRepository
	closed bool
}

func (c *closedDays) IsClosed(context.Context, string, string, time.Time) (bool, error) {
	return c.closed, nil
}

// computingAggregator rebuilds the day from the record store like the real
// aggregator does, without persistence.
type computingAggregator struct {
	records *memoryRecords
	last    map[string]summary.DailySummary
}

func (a *computingAggregator) Recompute(ctx context.Context, tenantID, employeeID string, date time.Time) (summary.DailySummary, error) {
	day, _ := a.records.ListByDate(ctx, tenantID, employeeID, date)
	s := summary.Compute(summary.Input{Records: day, DefaultExpectedMinutes: 480, DefaultToleranceMinutes: 5})
	a.last[date.Format(time.DateOnly)] = s
	return s, nil
}

type directory struct{}

func (directory) ResolveEmployeeByExternalID(context.Context, string, string) (string, error) {
	return "", employee.ErrExternalIDNotFound
}

func (directory) GetEmployee(_ context.Context, _ string, employeeID string) (employee.Employee, error) {
	switch employeeID {
	case "emp-1":
		user, manager := "user-emp-1", "emp-boss"
		return employee.Employee{ID: employeeID, UserID: &user, ManagerID: &manager}, nil
	case "emp-boss":
		user := "user-boss"
		return employee.Employee{ID: employeeID, UserID: &user}, nil
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

type fixture struct {
	svc         *TimeAdjustmentServiceImpl
	adjustments *memoryAdjustments
	records     *memoryRecords
	days        *closedDays
	aggregator  *computingAggregator
	events      *eventbus.Recorder
}

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		adjustments: &memoryAdjustments{},
		records:     &memoryRecords{},
		days:        &closedDays{},
		events:      &eventbus.Recorder{},
	}
	f.aggregator = &computingAggregator{records: f.records, last: map[string]summary.DailySummary{}}
	tx := database.NewLocalTransactor()
	f.svc = NewTimeAdjustmentService(tx, tx, f.adjustments, f.records, f.days, f.aggregator,
		directory{}, nil, f.events, stubClock{now: day.AddDate(0, 0, 2)}).(*TimeAdjustmentServiceImpl)
	return f
}

func (f *fixture) punch(typ timerecord.PunchType, h, m int) timerecord.TimeRecord {
	r, _ := f.records.Create(context.Background(), timerecord.TimeRecord{
		TenantID:   "tenant-1",
		EmployeeID: "emp-1",
		RecordDate: day,
		RecordTime: clock.NewTimeOfDay(h, m),
		Type:       typ,
		Source:     timerecord.SourceWeb,
		Status:     timerecord.StatusValid,
	})
	return r
}

func addRequest(typ, at string) adjustment.CreateAdjustmentRequest {
	return adjustment.CreateAdjustmentRequest{
		EmployeeID:    "emp-1",
		RequestedBy:   "user-emp-1",
		Type:          "ADD",
		TargetDate:    "2024-03-04",
		TargetType:    typ,
		RequestedTime: at,
		Justification: "forgot to punch on the way out",
	}
}

func TestApproveAdd_CreatesAdjustedRecordAndRecomputes(t *testing.T) {
	f := newFixture()
	f.punch(timerecord.PunchEntry, 8, 0)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "tenant-1", addRequest("EXIT", "17:00"))
	require.NoError(t, err)
	assert.Equal(t, "PENDING", created.Status)

	approved, err := f.svc.Approve(ctx, "tenant-1", adjustment.DecisionRequest{ID: created.ID, ApproverID: "user-boss"})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)
	require.NotNil(t, approved.ResultingRecordID)

	record, err := f.records.GetByID(ctx, "tenant-1", *approved.ResultingRecordID)
	require.NoError(t, err)
	assert.Equal(t, timerecord.StatusAdjusted, record.Status)
	assert.Equal(t, timerecord.SourceManual, record.Source)
	assert.Equal(t, timerecord.PunchExit, record.Type)
	require.NotNil(t, record.AdjustmentID)
	assert.Equal(t, created.ID, *record.AdjustmentID)

	s := f.aggregator.last["2024-03-04"]
	assert.False(t, s.HasMissingRecords)
	assert.Equal(t, 540, s.WorkedMinutes)

	assert.Equal(t, []string{eventbus.AdjustmentRequested, eventbus.AdjustmentApproved}, f.events.Types())
	payload := f.events.Events[1].Payload
	assert.Equal(t, "user-emp-1", payload["employee_user_id"])
	assert.Equal(t, "user-boss", payload["manager_user_id"])
}

func TestApproveModify_KeepsOriginalTime(t *testing.T) {
	f := newFixture()
	entry := f.punch(timerecord.PunchEntry, 8, 45)
	f.punch(timerecord.PunchExit, 17, 0)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "tenant-1", adjustment.CreateAdjustmentRequest{
		EmployeeID:       "emp-1",
		RequestedBy:      "user-emp-1",
		Type:             "MODIFY",
		OriginalRecordID: &entry.ID,
		RequestedTime:    "08:00",
		Justification:    "clock was late that morning",
	})
	require.NoError(t, err)
	assert.Equal(t, "ENTRY", created.TargetType)
	require.NotNil(t, created.OriginalTime)
	assert.Equal(t, "08:45", *created.OriginalTime)

	_, err = f.svc.Approve(ctx, "tenant-1", adjustment.DecisionRequest{ID: created.ID, ApproverID: "user-boss"})
	require.NoError(t, err)

	modified, err := f.records.GetByID(ctx, "tenant-1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.NewTimeOfDay(8, 0), modified.RecordTime)
	require.NotNil(t, modified.OriginalTime)
	assert.Equal(t, clock.NewTimeOfDay(8, 45), *modified.OriginalTime)
	assert.Equal(t, timerecord.StatusAdjusted, modified.Status)
	assert.Equal(t, 540, f.aggregator.last["2024-03-04"].WorkedMinutes)
}

func TestApproveDelete_VoidsRecord(t *testing.T) {
	f := newFixture()
	f.punch(timerecord.PunchEntry, 8, 0)
	stray := f.punch(timerecord.PunchExit, 8, 1)
	f.punch(timerecord.PunchEntry, 8, 2)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "tenant-1", adjustment.CreateAdjustmentRequest{
		EmployeeID:       "emp-1",
		RequestedBy:      "user-emp-1",
		Type:             "DELETE",
		OriginalRecordID: &stray.ID,
		Justification:    "double tap on the terminal",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, "tenant-1", adjustment.DecisionRequest{ID: created.ID, ApproverID: "user-boss"})
	require.NoError(t, err)

	voided, err := f.records.GetByID(ctx, "tenant-1", stray.ID)
	require.NoError(t, err)
	assert.Equal(t, timerecord.StatusVoidedByAdjustment, voided.Status)
	require.NotNil(t, voided.RejectionReason)
	assert.Contains(t, *voided.RejectionReason, created.ID)
	assert.Len(t, f.records.rows, 3)

	_, err = f.svc.Create(ctx, "tenant-1", adjustment.CreateAdjustmentRequest{
		EmployeeID:       "emp-1",
		RequestedBy:      "user-emp-1",
		Type:             "DELETE",
		OriginalRecordID: &stray.ID,
		Justification:    "double tap on the terminal",
	})
	assert.ErrorIs(t, err, adjustment.ErrRecordNotAdjustable)
}

func TestCreate_DuplicatePending(t *testing.T) {
	f := newFixture()
	entry := f.punch(timerecord.PunchEntry, 8, 0)
	req := adjustment.CreateAdjustmentRequest{
		EmployeeID:       "emp-1",
		RequestedBy:      "user-emp-1",
		Type:             "MODIFY",
		OriginalRecordID: &entry.ID,
		RequestedTime:    "07:55",
		Justification:    "arrived earlier than recorded",
	}

	_, err := f.svc.Create(context.Background(), "tenant-1", req)
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), "tenant-1", req)
	assert.ErrorIs(t, err, adjustment.ErrDuplicatePending)
}

func TestCreate_RejectsOtherEmployeesRecord(t *testing.T) {
	f := newFixture()
	entry := f.punch(timerecord.PunchEntry, 8, 0)

	_, err := f.svc.Create(context.Background(), "tenant-1", adjustment.CreateAdjustmentRequest{
		EmployeeID:       "emp-2",
		RequestedBy:      "user-emp-2",
		Type:             "DELETE",
		OriginalRecordID: &entry.ID,
		Justification:    "not my punch at all",
	})
	assert.ErrorIs(t, err, timerecord.ErrRecordNotFound)
}

func TestCreate_ClosedDay(t *testing.T) {
	f := newFixture()
	f.days.closed = true

	_, err := f.svc.Create(context.Background(), "tenant-1", addRequest("ENTRY", "08:00"))
	assert.ErrorIs(t, err, timerecord.ErrDayClosed)
}

func TestDecisions_FourEyes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "tenant-1", adjustment.CreateAdjustmentRequest{
		EmployeeID:    "emp-1",
		RequestedBy:   "user-hr",
		Type:          "ADD",
		TargetDate:    "2024-03-04",
		TargetType:    "ENTRY",
		RequestedTime: "08:00",
		Justification: "terminal was offline all morning",
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, "tenant-1", adjustment.DecisionRequest{ID: created.ID, ApproverID: "user-hr"})
	assert.ErrorIs(t, err, adjustment.ErrSelfApproval)

	_, err = f.svc.Reject(ctx, "tenant-1", adjustment.RejectAdjustmentRequest{ID: created.ID, ApproverID: "user-emp-1", Reason: "no"})
	assert.ErrorIs(t, err, adjustment.ErrSelfApproval)

	rejected, err := f.svc.Reject(ctx, "tenant-1", adjustment.RejectAdjustmentRequest{ID: created.ID, ApproverID: "user-boss", Reason: "no evidence"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Empty(t, f.records.rows)

	_, err = f.svc.Approve(ctx, "tenant-1", adjustment.DecisionRequest{ID: created.ID, ApproverID: "user-boss"})
	assert.ErrorIs(t, err, adjustment.ErrInvalidOperation)
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "tenant-1", addRequest("ENTRY", "08:00"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, "tenant-1", created.ID, "user-boss")
	assert.ErrorIs(t, err, adjustment.ErrNotRequester)

	cancelled, err := f.svc.Cancel(ctx, "tenant-1", created.ID, "user-emp-1")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	_, err = f.svc.Cancel(ctx, "tenant-1", created.ID, "user-emp-1")
	assert.ErrorIs(t, err, adjustment.ErrInvalidOperation)
}

func TestRemindPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "tenant-1", addRequest("ENTRY", "08:00"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "tenant-1", addRequest("EXIT", "17:00"))
	require.NoError(t, err)

	n, err := f.svc.RemindPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	last := f.events.Events[len(f.events.Events)-1]
	assert.Equal(t, eventbus.PendingApprovalsRemind, last.Type)
	assert.Equal(t, int64(2), last.Payload["pending_adjustments"])
}

func TestDecisions_ApprovalBetweenReadAndWrite(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		decide func(f *fixture, id string) error
	}{
		{
			name: "reject",
			decide: func(f *fixture, id string) error {
				_, err := f.svc.Reject(ctx, "tenant-1", adjustment.RejectAdjustmentRequest{ID: id, ApproverID: "user-boss", Reason: "late"})
				return err
			},
		},
		{
			name: "cancel",
			decide: func(f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, "tenant-1", id, "user-emp-1")
				return err
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.punch(timerecord.PunchEntry, 8, 0)
			created, err := f.svc.Create(ctx, "tenant-1", addRequest("EXIT", "17:00"))
			require.NoError(t, err)

			interleaved := &interleavedAdjustments{memoryAdjustments: f.adjustments}
			interleaved.afterRead = func() {
				_, err := f.svc.Approve(ctx, "tenant-1", adjustment.DecisionRequest{ID: created.ID, ApproverID: "user-boss"})
				require.NoError(t, err)
			}
			f.svc.TimeAdjustmentRepository = interleaved

			err = tc.decide(f, created.ID)
			assert.ErrorIs(t, err, adjustment.ErrInvalidOperation)

			stored, err := f.adjustments.GetByID(ctx, "tenant-1", created.ID)
			require.NoError(t, err)
			assert.Equal(t, adjustment.StatusApproved, stored.Status)
			require.Len(t, f.records.rows, 2)
			assert.Equal(t, timerecord.StatusAdjusted, f.records.rows[1].Status)
		})
	}
}

func TestWithAction_NamesTheRefusedTransition(t *testing.T) {
	err := withAction(&adjustment.StatusError{Action: "update", Status: adjustment.StatusApproved}, "reject")

	var statusErr *adjustment.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "reject", statusErr.Action)
	assert.Equal(t, adjustment.StatusApproved, statusErr.Status)
	assert.NoError(t, withAction(nil, "reject"))
}
