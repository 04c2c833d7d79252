//go:build integration

package postgresql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantID = "7b0e6a4e-3f7d-4a61-9a57-0c6f3a1d2b10"

var testSetup *TestDatabaseSetup

func TestMain(m *testing.M) {
	setup, err := NewTestDatabase()
	if err != nil {
		panic("failed to prepare test database: " + err.Error())
	}
	testSetup = setup
	code := m.Run()
	setup.Close()
	os.Exit(code)
}

func resetData(t *testing.T) *database.DB {
	t.Helper()
	require.NoError(t, testSetup.TruncateAllTables(context.Background()))
	return testSetup.DB
}

func createTestEmployee(t *testing.T, db *database.DB, externalID string) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (tenant_id, external_id, full_name)
		VALUES ($1, $2, 'Test Employee')
		RETURNING id
	`, tenantID, externalID).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestTimeRecordRoundTrip(t *testing.T) {
	db := resetData(t)
	ctx := context.Background()
	employeeID := createTestEmployee(t, db, "000123")
	repo := postgresql.NewTimeRecordRepository(db)
	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	source := "rep-001"
	nsr := int64(7)
	created, err := repo.Create(ctx, timerecord.TimeRecord{
		TenantID:       tenantID,
		EmployeeID:     employeeID,
		RecordDate:     date,
		RecordTime:     clock.NewTimeOfDay(8, 5),
		RecordedAt:     time.Now().UTC(),
		Type:           timerecord.PunchEntry,
		Source:         timerecord.SourceREP,
		Status:         timerecord.StatusValid,
		ImportSourceID: &source,
		NSR:            &nsr,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, created)
	assert.ErrorIs(t, err, timerecord.ErrDuplicateNSR)

	exists, err := repo.ExistsByNSR(ctx, tenantID, source, nsr)
	require.NoError(t, err)
	assert.True(t, exists)

	listed, err := repo.ListByDate(ctx, tenantID, employeeID, date)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "08:05", listed[0].RecordTime.String())

	days, err := repo.ListEmployeeDays(ctx, date)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestDirectoryResolvesPaddedToken(t *testing.T) {
	db := resetData(t)
	employeeID := createTestEmployee(t, db, "000123")

	resolved, err := postgresql.NewEmployeeDirectory(db).ResolveEmployeeByExternalID(context.Background(), tenantID, "123")
	require.NoError(t, err)
	assert.Equal(t, employeeID, resolved)
}

func TestDailySummaryUpsertAndTotals(t *testing.T) {
	db := resetData(t)
	ctx := context.Background()
	employeeID := createTestEmployee(t, db, "1")
	repo := postgresql.NewDailySummaryRepository(db)
	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	entry := clock.NewTimeOfDay(8, 0)
	s := summary.DailySummary{
		TenantID:        tenantID,
		EmployeeID:      employeeID,
		SummaryDate:     date,
		FirstEntry:      &entry,
		WorkedMinutes:   500,
		ExpectedMinutes: 480,
		OvertimeMinutes: 20,
	}
	first, err := repo.Upsert(ctx, s)
	require.NoError(t, err)

	s.WorkedMinutes = 470
	s.OvertimeMinutes = 0
	s.DeficitMinutes = 10
	second, err := repo.Upsert(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, tenantID, employeeID, date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 470, got.WorkedMinutes)
	require.NotNil(t, got.FirstEntry)
	assert.Equal(t, entry, *got.FirstEntry)

	totals, err := repo.PeriodTotals(ctx, tenantID, employeeID, date, date)
	require.NoError(t, err)
	assert.Equal(t, 10, totals.DeficitMinutes)
	assert.Equal(t, 1, totals.Days)
}

func TestOvertimeLedgerChain(t *testing.T) {
	db := resetData(t)
	ctx := context.Background()
	employeeID := createTestEmployee(t, db, "1")
	repo := postgresql.NewOvertimeEntryRepository(db)
	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	expires := date.AddDate(0, 6, 0)

	credit, err := repo.Append(ctx, overtime.Entry{
		TenantID: tenantID, EmployeeID: employeeID, Seq: 1,
		Type: overtime.EntryCredit, Source: overtime.SourceDailySummary,
		ReferenceDate: date, Minutes: 60, BalanceAfter: 60, ExpirationDate: &expires,
	})
	require.NoError(t, err)

	_, err = repo.Append(ctx, overtime.Entry{
		TenantID: tenantID, EmployeeID: employeeID, Seq: 2,
		Type: overtime.EntryDebit, Source: overtime.SourceDailySummary,
		ReferenceDate: date, Minutes: -15, BalanceAfter: 45,
	})
	require.NoError(t, err)

	net, err := repo.NetSyncedForDate(ctx, tenantID, employeeID, date)
	require.NoError(t, err)
	assert.Equal(t, 45, net)

	last, err := repo.LastEntry(ctx, tenantID, employeeID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, int64(2), last.Seq)

	expired, err := repo.IsExpired(ctx, tenantID, credit.ID)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestGeofenceNameUniqueAmongActive(t *testing.T) {
	db := resetData(t)
	ctx := context.Background()
	repo := postgresql.NewGeofenceRepository(db)

	g := geofence.Geofence{
		TenantID: tenantID, Name: "Head Office", Latitude: -6.2, Longitude: 106.8,
		RadiusMeters: 100, LocationType: geofence.LocationBranch, Active: true,
	}
	created, err := repo.Create(ctx, g)
	require.NoError(t, err)

	g.Name = "head office"
	_, err = repo.Create(ctx, g)
	assert.ErrorIs(t, err, geofence.ErrDuplicateName)

	require.NoError(t, repo.Deactivate(ctx, tenantID, created.ID, nil))
	_, err = repo.Create(ctx, g)
	assert.NoError(t, err)
}

func TestTimeAdjustmentSinglePendingPerRecord(t *testing.T) {
	db := resetData(t)
	ctx := context.Background()
	employeeID := createTestEmployee(t, db, "1")
	date := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	record, err := postgresql.NewTimeRecordRepository(db).Create(ctx, timerecord.TimeRecord{
		TenantID: tenantID, EmployeeID: employeeID, RecordDate: date,
		RecordTime: clock.NewTimeOfDay(8, 0), RecordedAt: time.Now().UTC(),
		Type: timerecord.PunchEntry, Source: timerecord.SourceWeb, Status: timerecord.StatusValid,
	})
	require.NoError(t, err)

	repo := postgresql.NewTimeAdjustmentRepository(db)
	requested := clock.NewTimeOfDay(7, 55)
	a := adjustment.TimeAdjustment{
		TenantID: tenantID, EmployeeID: employeeID, RequestedBy: employeeID,
		Type: adjustment.TypeModify, OriginalRecordID: &record.ID,
		TargetDate: date, TargetType: timerecord.PunchEntry,
		RequestedTime: &requested, Justification: "badge reader was offline",
		Status: adjustment.StatusPending,
	}
	_, err = repo.Create(ctx, a)
	require.NoError(t, err)

	_, err = repo.Create(ctx, a)
	assert.ErrorIs(t, err, adjustment.ErrDuplicatePending)

	counts, err := repo.CountPendingByTenant(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[tenantID])
}
