package timerecord

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/geofence"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/geo"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
)

// PendingCounter counts adjustments awaiting a decision.
type PendingCounter interface {
	CountPending(ctx context.Context, tenantID string) (int64, error)
}

type TimeRecordServiceImpl struct {
	tx     database.Transactor
	locker database.Locker
	timerecord.TimeRecordRepository
	summaryRepo        summary.DailySummaryRepository
	aggregator         summary.Aggregator
	geofences          geofence.Validator
	pendingAdjustments PendingCounter
	fileService        file.FileService
	publisher          eventbus.Publisher
	clock              clock.Clock
	geofenceEnabled    bool
}

// SubmitPunch implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) SubmitPunch(ctx context.Context, tenantID string, req timerecord.SubmitPunchRequest) (timerecord.TimeRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return timerecord.TimeRecordResponse{}, err
	}

	now := s.clock.Now()
	date, at := req.Resolve(now)
	if isFuture(date, at, now) {
		return timerecord.TimeRecordResponse{}, timerecord.ErrFutureRecord
	}

	source := timerecord.Source(req.Source)
	if source == "" {
		source = timerecord.SourceWeb
	}

	record := timerecord.TimeRecord{
		TenantID:   tenantID,
		EmployeeID: req.EmployeeID,
		RecordDate: date,
		RecordTime: at,
		RecordedAt: now,
		Type:       timerecord.PunchType(req.Type),
		Source:     source,
		Status:     timerecord.StatusValid,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Accuracy:   req.Accuracy,
		DeviceInfo: req.DeviceInfo,
		IPAddress:  req.IPAddress,
		Notes:      req.Notes,
		CreatedBy:  req.CreatedBy,
	}

	if s.geofenceEnabled && req.Latitude != nil && req.Longitude != nil {
		point := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
		result, err := s.geofences.Validate(ctx, tenantID, req.EmployeeID, point)
		if err != nil {
			return timerecord.TimeRecordResponse{}, fmt.Errorf("failed to validate geofence: %w", err)
		}
		within := result.WithinGeofence
		record.WithinGeofence = &within
		record.GeofenceID = result.GeofenceID
		record.GeofenceName = result.GeofenceName
		if !within {
			record.Status = timerecord.StatusPendingApproval
		}
	}

	if req.File != nil && req.FileHeader != nil {
		photoKey, err := s.fileService.UploadPunchPhoto(ctx, tenantID, req.EmployeeID, date, req.File, req.FileHeader.Filename)
		if err != nil {
			return timerecord.TimeRecordResponse{}, err
		}
		record.PhotoURL = &photoKey
	}

	var created timerecord.TimeRecord
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(tenantID, req.EmployeeID, date)); err != nil {
			return err
		}

		closed, err := s.summaryRepo.IsClosed(ctx, tenantID, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("failed to check closed day: %w", err)
		}
		if closed {
			return timerecord.ErrDayClosed
		}

		exists, err := s.TimeRecordRepository.ExistsAt(ctx, tenantID, req.EmployeeID, date, at, record.Type)
		if err != nil {
			return fmt.Errorf("failed to check duplicate punch: %w", err)
		}
		if exists {
			return timerecord.ErrDuplicateRecord
		}

		day, err := s.TimeRecordRepository.ListByDate(ctx, tenantID, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("failed to load punches of the day: %w", err)
		}
		counting := timerecord.Counting(day)
		pos := timerecord.InsertPosition(counting, at.Minutes())
		if err := timerecord.CheckInsertion(timerecord.PunchTypes(counting), pos, record.Type); err != nil {
			return err
		}

		created, err = s.TimeRecordRepository.Create(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to create time record: %w", err)
		}

		if _, err := s.aggregator.Recompute(ctx, tenantID, req.EmployeeID, date); err != nil {
			return fmt.Errorf("failed to recompute daily summary: %w", err)
		}

		s.publishAfterCommit(ctx, eventbus.TimeRecordCreated, created)
		return nil
	})
	if err != nil {
		if record.PhotoURL != nil {
			if delErr := s.fileService.DeleteFile(ctx, *record.PhotoURL); delErr != nil {
				slog.Warn("failed to remove orphaned punch photo", "key", *record.PhotoURL, "error", delErr)
			}
		}
		return timerecord.TimeRecordResponse{}, err
	}

	slog.Info("punch recorded",
		"tenant_id", tenantID,
		"employee_id", created.EmployeeID,
		"type", created.Type,
		"status", created.Status,
	)
	return timerecord.NewTimeRecordResponse(created), nil
}

// isFuture allows one minute of clock skew.
func isFuture(date time.Time, at clock.TimeOfDay, now time.Time) bool {
	today := clock.DateOf(now)
	if date.After(today) {
		return true
	}
	return date.Equal(today) && at.Minutes() > clock.FromTime(now).Minutes()+1
}

// Approve implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) Approve(ctx context.Context, tenantID string, req timerecord.ApproveRecordRequest) (timerecord.TimeRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	return s.decide(ctx, tenantID, req.ID, "approve", func(r *timerecord.TimeRecord, at time.Time) {
		r.Status = timerecord.StatusApproved
		r.ApprovedBy = &req.ApproverID
		r.ApprovedAt = &at
		if req.Notes != nil {
			r.Notes = req.Notes
		}
	})
}

// Reject implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) Reject(ctx context.Context, tenantID string, req timerecord.RejectRecordRequest) (timerecord.TimeRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	return s.decide(ctx, tenantID, req.ID, "reject", func(r *timerecord.TimeRecord, at time.Time) {
		r.Status = timerecord.StatusRejected
		r.RejectionReason = &req.Reason
		r.ApprovedBy = &req.ApproverID
		r.ApprovedAt = &at
	})
}

// decide moves a PENDING_APPROVAL record through mutate and recomputes its day.
func (s *TimeRecordServiceImpl) decide(ctx context.Context, tenantID, id, action string, mutate func(*timerecord.TimeRecord, time.Time)) (timerecord.TimeRecordResponse, error) {
	current, err := s.TimeRecordRepository.GetByID(ctx, tenantID, id)
	if err != nil {
		return timerecord.TimeRecordResponse{}, err
	}

	var updated timerecord.TimeRecord
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(tenantID, current.EmployeeID, current.RecordDate)); err != nil {
			return err
		}

		record, err := s.TimeRecordRepository.GetByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if record.Status != timerecord.StatusPendingApproval {
			return &timerecord.StatusError{Action: action, Status: record.Status}
		}

		mutate(&record, s.clock.Now())
		updated, err = s.TimeRecordRepository.Update(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to update time record: %w", err)
		}

		if _, err := s.aggregator.Recompute(ctx, tenantID, record.EmployeeID, record.RecordDate); err != nil {
			return fmt.Errorf("failed to recompute daily summary: %w", err)
		}

		eventType := eventbus.TimeRecordApproved
		if updated.Status == timerecord.StatusRejected {
			eventType = eventbus.TimeRecordRejected
		}
		s.publishAfterCommit(ctx, eventType, updated)
		return nil
	})
	if err != nil {
		return timerecord.TimeRecordResponse{}, err
	}
	return timerecord.NewTimeRecordResponse(updated), nil
}

func (s *TimeRecordServiceImpl) publishAfterCommit(ctx context.Context, eventType string, r timerecord.TimeRecord) {
	event := eventbus.NewEvent(eventType, r.TenantID, r.EmployeeID, r.ID, map[string]interface{}{
		"date":   r.RecordDate.Format(time.DateOnly),
		"time":   r.RecordTime.String(),
		"type":   string(r.Type),
		"source": string(r.Source),
		"status": string(r.Status),
	})
	database.AfterCommit(ctx, func() {
		eventbus.PublishBestEffort(ctx, s.publisher, event)
	})
}

// ExpectedNext implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) ExpectedNext(ctx context.Context, tenantID string, employeeID string, date time.Time) (timerecord.NextTypeResponse, error) {
	day, err := s.TimeRecordRepository.ListByDate(ctx, tenantID, employeeID, date)
	if err != nil {
		return timerecord.NextTypeResponse{}, fmt.Errorf("failed to load punches of the day: %w", err)
	}

	resp := timerecord.NextTypeResponse{Date: date.Format(time.DateOnly)}
	last := lastType(day)
	if last != nil {
		t := string(*last)
		resp.LastType = &t
	}
	resp.Expected = typeStrings(timerecord.AllowedNext(last))
	return resp, nil
}

func lastType(day []timerecord.TimeRecord) *timerecord.PunchType {
	counting := timerecord.Counting(day)
	if len(counting) == 0 {
		return nil
	}
	t := counting[len(counting)-1].Type
	return &t
}

func typeStrings(types []timerecord.PunchType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

// LastRecord implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) LastRecord(ctx context.Context, tenantID string, employeeID string) (*timerecord.TimeRecordResponse, error) {
	last, err := s.TimeRecordRepository.GetLast(ctx, tenantID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last time record: %w", err)
	}
	if last == nil {
		return nil, nil
	}
	resp := timerecord.NewTimeRecordResponse(*last)
	return &resp, nil
}

// RecordsByDate implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) RecordsByDate(ctx context.Context, tenantID string, employeeID string, date time.Time) (timerecord.DayRecordsResponse, error) {
	day, err := s.TimeRecordRepository.ListByDate(ctx, tenantID, employeeID, date)
	if err != nil {
		return timerecord.DayRecordsResponse{}, fmt.Errorf("failed to load punches of the day: %w", err)
	}
	return dayResponse(date, day), nil
}

func dayResponse(date time.Time, day []timerecord.TimeRecord) timerecord.DayRecordsResponse {
	records := make([]timerecord.TimeRecordResponse, 0, len(day))
	for _, r := range day {
		records = append(records, timerecord.NewTimeRecordResponse(r))
	}
	return timerecord.DayRecordsResponse{
		Date:      date.Format(time.DateOnly),
		Records:   records,
		NextTypes: typeStrings(timerecord.AllowedNext(lastType(day))),
	}
}

// RecordsByPeriod implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) RecordsByPeriod(ctx context.Context, tenantID string, employeeID string, filter timerecord.PeriodFilter) ([]timerecord.DayRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	start, end := filter.Range()

	records, err := s.TimeRecordRepository.ListByPeriod(ctx, tenantID, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list time records: %w", err)
	}

	days := []timerecord.DayRecordsResponse{}
	for i := 0; i < len(records); {
		j := i
		for j < len(records) && records[j].RecordDate.Equal(records[i].RecordDate) {
			j++
		}
		days = append(days, dayResponse(records[i].RecordDate, records[i:j]))
		i = j
	}
	return days, nil
}

// PendingRecords implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) PendingRecords(ctx context.Context, tenantID string, filter timerecord.PendingFilter) (timerecord.ListTimeRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return timerecord.ListTimeRecordResponse{}, err
	}

	records, total, err := s.TimeRecordRepository.ListPending(ctx, tenantID, filter)
	if err != nil {
		return timerecord.ListTimeRecordResponse{}, fmt.Errorf("failed to list pending time records: %w", err)
	}

	resp := timerecord.ListTimeRecordResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Records:    make([]timerecord.TimeRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, timerecord.NewTimeRecordResponse(r))
	}
	return resp, nil
}

// CountPending implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) CountPending(ctx context.Context, tenantID string) (int64, error) {
	return s.TimeRecordRepository.CountPending(ctx, tenantID)
}

// Statistics implements timerecord.TimeRecordService.
func (s *TimeRecordServiceImpl) Statistics(ctx context.Context, tenantID string) (timerecord.StatisticsResponse, error) {
	pendingRecords, err := s.TimeRecordRepository.CountPending(ctx, tenantID)
	if err != nil {
		return timerecord.StatisticsResponse{}, fmt.Errorf("failed to count pending time records: %w", err)
	}

	pendingAdjustments, err := s.pendingAdjustments.CountPending(ctx, tenantID)
	if err != nil {
		return timerecord.StatisticsResponse{}, fmt.Errorf("failed to count pending adjustments: %w", err)
	}

	today, err := s.TimeRecordRepository.CountByDate(ctx, tenantID, clock.DateOf(s.clock.Now()))
	if err != nil {
		return timerecord.StatisticsResponse{}, fmt.Errorf("failed to count today's time records: %w", err)
	}

	return timerecord.StatisticsResponse{
		PendingRecords:     pendingRecords,
		PendingAdjustments: pendingAdjustments,
		TodayRecords:       today,
	}, nil
}

func NewTimeRecordService(
	tx database.Transactor,
	locker database.Locker,
	timeRecordRepo timerecord.TimeRecordRepository,
	summaryRepo summary.DailySummaryRepository,
	aggregator summary.Aggregator,
	geofences geofence.Validator,
	pendingAdjustments PendingCounter,
	fileService file.FileService,
	publisher eventbus.Publisher,
	clk clock.Clock,
	geofenceEnabled bool,
) timerecord.TimeRecordService {
	return &TimeRecordServiceImpl{
		tx:                   tx,
		locker:               locker,
		TimeRecordRepository: timeRecordRepo,
		summaryRepo:          summaryRepo,
		aggregator:           aggregator,
		geofences:            geofences,
		pendingAdjustments:   pendingAdjustments,
		fileService:          fileService,
		publisher:            publisher,
		clock:                clk,
		geofenceEnabled:      geofenceEnabled,
	}
}
