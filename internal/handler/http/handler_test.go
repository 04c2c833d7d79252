package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/clockimport"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/overtime"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// Fakes embed the service interface; calling an unstubbed method panics.

type fakeTimeRecordService struct {
	timerecord.TimeRecordService
	tenantID  string
	submitted timerecord.SubmitPunchRequest
	pending   timerecord.PendingFilter
	err       error
}

func (f *fakeTimeRecordService) SubmitPunch(_ context.Context, tenantID string, req timerecord.SubmitPunchRequest) (timerecord.TimeRecordResponse, error) {
	f.tenantID = tenantID
	f.submitted = req
	if f.err != nil {
		return timerecord.TimeRecordResponse{}, f.err
	}
	return timerecord.TimeRecordResponse{ID: "rec-1", EmployeeID: req.EmployeeID, Type: req.Type}, nil
}

func (f *fakeTimeRecordService) PendingRecords(_ context.Context, tenantID string, filter timerecord.PendingFilter) (timerecord.ListTimeRecordResponse, error) {
	f.tenantID = tenantID
	f.pending = filter
	return timerecord.ListTimeRecordResponse{Page: filter.Page, Limit: filter.Limit, Records: []timerecord.TimeRecordResponse{}}, nil
}

func (f *fakeTimeRecordService) RecordsByDate(_ context.Context, _ string, _ string, date time.Time) (timerecord.DayRecordsResponse, error) {
	return timerecord.DayRecordsResponse{Date: date.Format(time.DateOnly)}, nil
}

type fakeSummaryService struct {
	summary.SummaryService
	closed summary.CloseDayRequest
}

func (f *fakeSummaryService) CloseDay(_ context.Context, _ string, req summary.CloseDayRequest) (summary.DailySummaryResponse, error) {
	f.closed = req
	return summary.DailySummaryResponse{EmployeeID: req.EmployeeID, IsClosed: true}, nil
}

type fakeOvertimeService struct {
	overtime.OvertimeService
	payout overtime.ManualEntryRequest
	err    error
}

func (f *fakeOvertimeService) AddPayout(_ context.Context, _ string, req overtime.ManualEntryRequest) (overtime.EntryResponse, error) {
	f.payout = req
	if f.err != nil {
		return overtime.EntryResponse{}, f.err
	}
	return overtime.EntryResponse{}, nil
}

type fakeAdjustmentService struct {
	adjustment.TimeAdjustmentService
	stored adjustment.AdjustmentResponse
}

func (f *fakeAdjustmentService) Get(_ context.Context, _ string, id string) (adjustment.AdjustmentResponse, error) {
	if id != f.stored.ID {
		return adjustment.AdjustmentResponse{}, adjustment.ErrAdjustmentNotFound
	}
	return f.stored, nil
}

type fakeClockImportService struct {
	clockimport.ClockImportService
	imported clockimport.ImportRequest
	content  string
}

func (f *fakeClockImportService) Import(_ context.Context, _ string, req clockimport.ImportRequest) (clockimport.ImportResult, error) {
	f.imported = req
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(req.File)
	f.content = buf.String()
	return clockimport.ImportResult{FileName: req.FileName, SourceID: req.SourceID, Success: true}, nil
}

type testEnv struct {
	jwt         jwt.Service
	hub         *sse.Hub
	router      http.Handler
	timeRecords *fakeTimeRecordService
	summaries   *fakeSummaryService
	overtime    *fakeOvertimeService
	adjustments *fakeAdjustmentService
	imports     *fakeClockImportService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		jwt:         jwt.NewJWTService(handlerTestSecret, "1h"),
		hub:         sse.NewHub(8),
		timeRecords: &fakeTimeRecordService{},
		summaries:   &fakeSummaryService{},
		overtime:    &fakeOvertimeService{},
		adjustments: &fakeAdjustmentService{},
		imports:     &fakeClockImportService{},
	}
	clk := fixedClock{now: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)}

	env.router = NewRouter(config.AppConfig{Env: "test"}, env.jwt, Handlers{
		TimeRecord:  NewTimeRecordHandler(env.timeRecords, clk),
		Timesheet:   NewTimesheetHandler(env.summaries, clk),
		Overtime:    NewOvertimeHandler(env.overtime, 30),
		Geofence:    NewGeofenceHandler(struct{ geofence.GeofenceService }{}),
		Adjustment:  NewAdjustmentHandler(env.adjustments),
		ClockImport: NewClockImportHandler(env.imports),
		Holiday:     NewHolidayHandler(struct{ schedule.HolidayService }{}, clk),
		Event:       NewEventHandler(env.hub, env.jwt),
	}, "")
	return env
}

var (
	employeeClaims = jwt.Claims{UserID: "user-1", TenantID: "tenant-1", EmployeeID: "emp-1", Role: jwt.RoleEmployee}
	managerClaims  = jwt.Claims{UserID: "user-9", TenantID: "tenant-1", EmployeeID: "emp-9", Role: jwt.RoleManager}
)

func (e *testEnv) do(t *testing.T, claims jwt.Claims, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = new(bytes.Buffer)
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token, _, err := e.jwt.GenerateAccessToken(claims)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTimeRecordHandler_Submit_JSON(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, employeeClaims, http.MethodPost, "/api/v1/time-records",
		bytes.NewBufferString(`{"type":"ENTRY","time":"08:00"}`), "application/json")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "tenant-1", env.timeRecords.tenantID)
	assert.Equal(t, "emp-1", env.timeRecords.submitted.EmployeeID)
	require.NotNil(t, env.timeRecords.submitted.CreatedBy)
	assert.Equal(t, "user-1", *env.timeRecords.submitted.CreatedBy)
	assert.Equal(t, "08:00", env.timeRecords.submitted.Time)
	assert.NotNil(t, env.timeRecords.submitted.IPAddress)
}

func TestTimeRecordHandler_Submit_MultipartWithPhoto(t *testing.T) {
	env := newTestEnv()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("data", `{"type":"EXIT"}`))
	part, err := mw.CreateFormFile("photo", "selfie.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	rec := env.do(t, employeeClaims, http.MethodPost, "/api/v1/time-records", body, mw.FormDataContentType())

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "EXIT", env.timeRecords.submitted.Type)
	require.NotNil(t, env.timeRecords.submitted.FileHeader)
	assert.Equal(t, "selfie.jpg", env.timeRecords.submitted.FileHeader.Filename)
}

func TestTimeRecordHandler_Submit_MultipartWithoutData(t *testing.T) {
	env := newTestEnv()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.Close())

	rec := env.do(t, employeeClaims, http.MethodPost, "/api/v1/time-records", body, mw.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimeRecordHandler_Submit_DayClosed(t *testing.T) {
	env := newTestEnv()
	env.timeRecords.err = timerecord.ErrDayClosed

	rec := env.do(t, employeeClaims, http.MethodPost, "/api/v1/time-records",
		bytes.NewBufferString(`{"type":"ENTRY"}`), "application/json")

	assert.Equal(t, http.StatusConflict, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "DAY_CLOSED", errBody["code"])
}

func TestTimeRecordHandler_Submit_RequiresEmployeeProfile(t *testing.T) {
	env := newTestEnv()
	ownerWithoutEmployee := jwt.Claims{UserID: "owner", TenantID: "tenant-1", Role: jwt.RoleOwner}

	rec := env.do(t, ownerWithoutEmployee, http.MethodPost, "/api/v1/time-records",
		bytes.NewBufferString(`{"type":"ENTRY"}`), "application/json")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTimeRecordHandler_GetMyRecords_DefaultsToToday(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, employeeClaims, http.MethodGet, "/api/v1/time-records/my", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "2024-03-04", data["date"])
}

func TestTimeRecordHandler_GetMyRecords_InvalidDate(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, employeeClaims, http.MethodGet, "/api/v1/time-records/my?date=04-03-2024", nil, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimeRecordHandler_ListPending(t *testing.T) {
	env := newTestEnv()

	t.Run("employee is forbidden", func(t *testing.T) {
		rec := env.do(t, employeeClaims, http.MethodGet, "/api/v1/time-records/pending", nil, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("manager gets paginated list", func(t *testing.T) {
		rec := env.do(t, managerClaims, http.MethodGet, "/api/v1/time-records/pending?page=2&limit=5&employee_id=emp-1", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, env.timeRecords.pending.Page)
		assert.Equal(t, 5, env.timeRecords.pending.Limit)
		require.NotNil(t, env.timeRecords.pending.EmployeeID)
		assert.Equal(t, "emp-1", *env.timeRecords.pending.EmployeeID)
	})
}

func TestTimesheetHandler_Close(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, managerClaims, http.MethodPost, "/api/v1/timesheet/employees/emp-1/2024-03-01/close",
		bytes.NewBufferString(`{"notes":"payroll cut"}`), "application/json")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "emp-1", env.summaries.closed.EmployeeID)
	assert.Equal(t, "user-9", env.summaries.closed.ClosedBy)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), env.summaries.closed.Date)
	require.NotNil(t, env.summaries.closed.Notes)
	assert.Equal(t, "payroll cut", *env.summaries.closed.Notes)
}

func TestTimesheetHandler_Close_InvalidDate(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, managerClaims, http.MethodPost, "/api/v1/timesheet/employees/emp-1/yesterday/close", nil, "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOvertimeHandler_AddPayout(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, managerClaims, http.MethodPost, "/api/v1/overtime-bank/employees/emp-1/payouts",
		bytes.NewBufferString(`{"minutes":120,"description":"March payroll"}`), "application/json")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "emp-1", env.overtime.payout.EmployeeID)
	assert.Equal(t, "user-9", env.overtime.payout.ApproverID)
	assert.Equal(t, 120, env.overtime.payout.Minutes)
}

func TestOvertimeHandler_AddPayout_InsufficientBalance(t *testing.T) {
	env := newTestEnv()
	env.overtime.err = &overtime.InsufficientBalanceError{Requested: 120, Available: 30}

	rec := env.do(t, managerClaims, http.MethodPost, "/api/v1/overtime-bank/employees/emp-1/payouts",
		bytes.NewBufferString(`{"minutes":120,"description":"March payroll"}`), "application/json")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "INSUFFICIENT_BALANCE", errBody["code"])
}

func TestAdjustmentHandler_Get_HidesOtherEmployees(t *testing.T) {
	env := newTestEnv()
	env.adjustments.stored = adjustment.AdjustmentResponse{ID: "adj-1", EmployeeID: "emp-2"}

	rec := env.do(t, employeeClaims, http.MethodGet, "/api/v1/time-adjustments/adj-1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, managerClaims, http.MethodGet, "/api/v1/time-adjustments/adj-1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClockImportHandler_Import(t *testing.T) {
	env := newTestEnv()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("source_id", "REP-01"))
	part, err := mw.CreateFormFile("file", "AFD0001.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("0000000013040320240800123456789012\r\n"))
	require.NoError(t, mw.Close())

	rec := env.do(t, managerClaims, http.MethodPost, "/api/v1/clock-imports", body, mw.FormDataContentType())

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "REP-01", env.imports.imported.SourceID)
	assert.Equal(t, "AFD0001.txt", env.imports.imported.FileName)
	assert.Equal(t, "user-9", env.imports.imported.UploadedBy)
	assert.Contains(t, env.imports.content, "040320240800")
}

func TestClockImportHandler_Import_MissingFile(t *testing.T) {
	env := newTestEnv()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("source_id", "REP-01"))
	require.NoError(t, mw.Close())

	rec := env.do(t, managerClaims, http.MethodPost, "/api/v1/clock-imports", body, mw.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandler_StreamRejectsMissingToken(t *testing.T) {
	env := newTestEnv()
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/stream", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventHandler_StreamRejectsAccessToken(t *testing.T) {
	env := newTestEnv()
	token, _, err := env.jwt.GenerateAccessToken(employeeClaims)
	require.NoError(t, err)
	rec := httptest.NewRecorder()

	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?token="+token, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// flushRecorder signals every flush so the test can follow the stream.
type flushRecorder struct {
	mu      sync.Mutex
	header  http.Header
	body    bytes.Buffer
	flushed chan struct{}
}

func (f *flushRecorder) Header() http.Header { return f.header }
func (f *flushRecorder) WriteHeader(int)     {}

func (f *flushRecorder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body.Write(p)
}

func (f *flushRecorder) Flush() { f.flushed <- struct{}{} }

func (f *flushRecorder) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body.String()
}

func TestEventHandler_StreamFiltersByEmployee(t *testing.T) {
	env := newTestEnv()
	handler := NewEventHandler(env.hub, env.jwt)

	token, _, err := env.jwt.GenerateSSEToken(employeeClaims)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?token="+token, nil).WithContext(ctx)
	rec := &flushRecorder{header: http.Header{}, flushed: make(chan struct{}, 8)}

	done := make(chan struct{})
	go func() {
		handler.Stream(rec, req)
		close(done)
	}()

	<-rec.flushed // connected
	require.Equal(t, 1, env.hub.SubscriberCount("tenant-1"))

	hub := eventbus.NewHubPublisher(env.hub)
	require.NoError(t, hub.Publish(ctx, eventbus.NewEvent(eventbus.TimeRecordCreated, "tenant-1", "emp-2", "rec-2", nil)))
	require.NoError(t, hub.Publish(ctx, eventbus.NewEvent(eventbus.TimeRecordCreated, "tenant-1", "emp-1", "rec-1", nil)))

	select {
	case <-rec.flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not streamed")
	}
	cancel()
	<-done

	out := rec.String()
	assert.Equal(t, "text/event-stream", rec.header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(out, "event: connected"))
	assert.Contains(t, out, "event: TimeRecordCreated")
	assert.Contains(t, out, `"entity_id":"rec-1"`)
	assert.NotContains(t, out, "rec-2")
	assert.Equal(t, 0, env.hub.SubscriberCount("tenant-1"))
}
