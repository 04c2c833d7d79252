package adjustment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/adjustment"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/summary"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/eventbus"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
)

type TimeAdjustmentServiceImpl struct {
	tx     database.Transactor
	locker database.Locker
	adjustment.TimeAdjustmentRepository
	timeRecords timerecord.TimeRecordRepository
	summaryRepo summary.DailySummaryRepository
	aggregator  summary.Aggregator
	directory   employee.Directory
	fileService file.FileService
	publisher   eventbus.Publisher
	clock       clock.Clock
}

// Create implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) Create(ctx context.Context, tenantID string, req adjustment.CreateAdjustmentRequest) (adjustment.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	a := adjustment.TimeAdjustment{
		TenantID:         tenantID,
		EmployeeID:       req.EmployeeID,
		RequestedBy:      req.RequestedBy,
		Type:             adjustment.Type(req.Type),
		OriginalRecordID: req.OriginalRecordID,
		RequestedTime:    req.RequestedTimeOfDay(),
		Justification:    req.Justification,
		Attachments:      append([]string{}, req.Attachments...),
		Status:           adjustment.StatusPending,
	}

	if a.Type == adjustment.TypeAdd {
		a.TargetDate, _ = clock.ParseDate(req.TargetDate)
		a.TargetType = timerecord.PunchType(req.TargetType)
	} else {
		original, err := s.timeRecords.GetByID(ctx, tenantID, *req.OriginalRecordID)
		if err != nil {
			return adjustment.AdjustmentResponse{}, err
		}
		if original.EmployeeID != req.EmployeeID {
			return adjustment.AdjustmentResponse{}, timerecord.ErrRecordNotFound
		}
		if !original.Status.Counts() {
			return adjustment.AdjustmentResponse{}, adjustment.ErrRecordNotAdjustable
		}

		pending, err := s.TimeAdjustmentRepository.ExistsPendingForRecord(ctx, tenantID, original.ID)
		if err != nil {
			return adjustment.AdjustmentResponse{}, fmt.Errorf("failed to check pending adjustments: %w", err)
		}
		if pending {
			return adjustment.AdjustmentResponse{}, adjustment.ErrDuplicatePending
		}

		originalTime := original.RecordTime
		a.TargetDate = original.RecordDate
		a.TargetType = original.Type
		a.OriginalTime = &originalTime
	}

	if a.TargetDate.After(clock.DateOf(s.clock.Now())) {
		return adjustment.AdjustmentResponse{}, timerecord.ErrFutureRecord
	}

	closed, err := s.summaryRepo.IsClosed(ctx, tenantID, req.EmployeeID, a.TargetDate)
	if err != nil {
		return adjustment.AdjustmentResponse{}, fmt.Errorf("failed to check closed day: %w", err)
	}
	if closed {
		return adjustment.AdjustmentResponse{}, timerecord.ErrDayClosed
	}

	uploaded, err := s.uploadAttachments(ctx, tenantID, req)
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}
	a.Attachments = append(a.Attachments, uploaded...)

	created, err := s.TimeAdjustmentRepository.Create(ctx, a)
	if err != nil {
		s.removeAttachments(ctx, uploaded)
		return adjustment.AdjustmentResponse{}, fmt.Errorf("failed to create time adjustment: %w", err)
	}

	s.publish(ctx, eventbus.AdjustmentRequested, created)

	slog.Info("time adjustment requested",
		"tenant_id", tenantID,
		"adjustment_id", created.ID,
		"employee_id", created.EmployeeID,
		"type", created.Type,
		"date", created.TargetDate.Format(time.DateOnly),
	)
	return adjustment.NewAdjustmentResponse(created), nil
}

func (s *TimeAdjustmentServiceImpl) uploadAttachments(ctx context.Context, tenantID string, req adjustment.CreateAdjustmentRequest) ([]string, error) {
	var keys []string
	for _, header := range req.Files {
		f, err := header.Open()
		if err != nil {
			s.removeAttachments(ctx, keys)
			return nil, fmt.Errorf("failed to open attachment %s: %w", header.Filename, err)
		}
		key, err := s.fileService.UploadAdjustmentAttachment(ctx, tenantID, req.EmployeeID, f, header.Filename)
		f.Close()
		if err != nil {
			s.removeAttachments(ctx, keys)
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *TimeAdjustmentServiceImpl) removeAttachments(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.fileService.DeleteFile(ctx, key); err != nil {
			slog.Warn("failed to remove orphaned attachment", "key", key, "error", err)
		}
	}
}

// checkApprover enforces four-eyes: neither the requester nor the affected
// employee may decide.
func (s *TimeAdjustmentServiceImpl) checkApprover(ctx context.Context, a adjustment.TimeAdjustment, approverID string) (employee.Contacts, error) {
	if approverID == a.RequestedBy {
		return employee.Contacts{}, adjustment.ErrSelfApproval
	}

	contacts, err := employee.ResolveContacts(ctx, s.directory, a.TenantID, a.EmployeeID)
	if err != nil {
		return employee.Contacts{}, fmt.Errorf("failed to resolve employee: %w", err)
	}
	if contacts.EmployeeUserID != nil && *contacts.EmployeeUserID == approverID {
		return employee.Contacts{}, adjustment.ErrSelfApproval
	}
	return contacts, nil
}

// Approve implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) Approve(ctx context.Context, tenantID string, req adjustment.DecisionRequest) (adjustment.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	current, err := s.TimeAdjustmentRepository.GetByID(ctx, tenantID, req.ID)
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}
	if current.Status != adjustment.StatusPending {
		return adjustment.AdjustmentResponse{}, &adjustment.StatusError{Action: "approve", Status: current.Status}
	}
	if _, err := s.checkApprover(ctx, current, req.ApproverID); err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	var approved adjustment.TimeAdjustment
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(tenantID, current.EmployeeID, current.TargetDate)); err != nil {
			return err
		}

		a, err := s.TimeAdjustmentRepository.GetByID(ctx, tenantID, req.ID)
		if err != nil {
			return err
		}
		if a.Status != adjustment.StatusPending {
			return &adjustment.StatusError{Action: "approve", Status: a.Status}
		}

		closed, err := s.summaryRepo.IsClosed(ctx, tenantID, a.EmployeeID, a.TargetDate)
		if err != nil {
			return fmt.Errorf("failed to check closed day: %w", err)
		}
		if closed {
			return timerecord.ErrDayClosed
		}

		now := s.clock.Now()
		resultID, err := s.execute(ctx, a, req.ApproverID, now)
		if err != nil {
			return err
		}

		a.Status = adjustment.StatusApproved
		a.ApprovedBy = &req.ApproverID
		a.ApprovedAt = &now
		a.ApprovalNotes = req.Notes
		a.ResultingRecordID = &resultID
		approved, err = s.TimeAdjustmentRepository.Update(ctx, a)
		if err := withAction(err, "approve"); err != nil {
			return err
		}

		if _, err := s.aggregator.Recompute(ctx, tenantID, a.EmployeeID, a.TargetDate); err != nil {
			return fmt.Errorf("failed to recompute daily summary: %w", err)
		}

		s.publish(ctx, eventbus.AdjustmentApproved, approved)
		return nil
	})
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	slog.Info("time adjustment approved",
		"tenant_id", tenantID,
		"adjustment_id", approved.ID,
		"type", approved.Type,
		"approved_by", req.ApproverID,
	)
	return adjustment.NewAdjustmentResponse(approved), nil
}

// execute applies an approved adjustment to the punch table and returns the
// id of the punch it created or changed. Corrections bypass the live-punch
// sequence check.
func (s *TimeAdjustmentServiceImpl) execute(ctx context.Context, a adjustment.TimeAdjustment, approverID string, now time.Time) (string, error) {
	adjustmentID := a.ID

	if a.Type == adjustment.TypeAdd {
		created, err := s.timeRecords.Create(ctx, timerecord.TimeRecord{
			TenantID:     a.TenantID,
			EmployeeID:   a.EmployeeID,
			RecordDate:   a.TargetDate,
			RecordTime:   *a.RequestedTime,
			RecordedAt:   now,
			Type:         a.TargetType,
			Source:       timerecord.SourceManual,
			Status:       timerecord.StatusAdjusted,
			AdjustmentID: &adjustmentID,
			ApprovedBy:   &approverID,
			ApprovedAt:   &now,
			Notes:        &a.Justification,
			CreatedBy:    &a.RequestedBy,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create adjusted time record: %w", err)
		}
		return created.ID, nil
	}

	record, err := s.timeRecords.GetByID(ctx, a.TenantID, *a.OriginalRecordID)
	if err != nil {
		return "", err
	}
	if !record.Status.Counts() {
		return "", adjustment.ErrRecordNotAdjustable
	}

	record.AdjustmentID = &adjustmentID
	record.ApprovedBy = &approverID
	record.ApprovedAt = &now
	switch a.Type {
	case adjustment.TypeModify:
		if record.OriginalTime == nil {
			originalTime := record.RecordTime
			record.OriginalTime = &originalTime
		}
		record.RecordTime = *a.RequestedTime
		record.Status = timerecord.StatusAdjusted
	case adjustment.TypeDelete:
		reason := fmt.Sprintf("voided by time adjustment %s", a.ID)
		record.Status = timerecord.StatusVoidedByAdjustment
		record.RejectionReason = &reason
	}

	updated, err := s.timeRecords.Update(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to update time record: %w", err)
	}
	return updated.ID, nil
}

// Reject implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) Reject(ctx context.Context, tenantID string, req adjustment.RejectAdjustmentRequest) (adjustment.AdjustmentResponse, error) {
	if err := req.Validate(); err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	current, err := s.TimeAdjustmentRepository.GetByID(ctx, tenantID, req.ID)
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}
	if current.Status != adjustment.StatusPending {
		return adjustment.AdjustmentResponse{}, &adjustment.StatusError{Action: "reject", Status: current.Status}
	}
	if _, err := s.checkApprover(ctx, current, req.ApproverID); err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	rejected, err := s.decide(ctx, current, "reject", func(a *adjustment.TimeAdjustment) {
		now := s.clock.Now()
		a.Status = adjustment.StatusRejected
		a.ApprovedBy = &req.ApproverID
		a.ApprovedAt = &now
		a.ApprovalNotes = &req.Reason
	})
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	s.publish(ctx, eventbus.AdjustmentRejected, rejected)
	return adjustment.NewAdjustmentResponse(rejected), nil
}

// Cancel implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) Cancel(ctx context.Context, tenantID string, id string, requesterID string) (adjustment.AdjustmentResponse, error) {
	current, err := s.TimeAdjustmentRepository.GetByID(ctx, tenantID, id)
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}
	if current.RequestedBy != requesterID {
		return adjustment.AdjustmentResponse{}, adjustment.ErrNotRequester
	}
	if current.Status != adjustment.StatusPending {
		return adjustment.AdjustmentResponse{}, &adjustment.StatusError{Action: "cancel", Status: current.Status}
	}

	cancelled, err := s.decide(ctx, current, "cancel", func(a *adjustment.TimeAdjustment) {
		a.Status = adjustment.StatusCancelled
	})
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}

	s.publish(ctx, eventbus.AdjustmentCancelled, cancelled)
	return adjustment.NewAdjustmentResponse(cancelled), nil
}

// decide moves a pending adjustment to a terminal state without touching the
// punch table. It holds the same employee-day lock as Approve and re-reads
// the status under it.
func (s *TimeAdjustmentServiceImpl) decide(ctx context.Context, current adjustment.TimeAdjustment, action string, apply func(a *adjustment.TimeAdjustment)) (adjustment.TimeAdjustment, error) {
	var decided adjustment.TimeAdjustment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.locker.Lock(ctx, database.EmployeeDayLockKey(current.TenantID, current.EmployeeID, current.TargetDate)); err != nil {
			return err
		}

		a, err := s.TimeAdjustmentRepository.GetByID(ctx, current.TenantID, current.ID)
		if err != nil {
			return err
		}
		if a.Status != adjustment.StatusPending {
			return &adjustment.StatusError{Action: action, Status: a.Status}
		}

		apply(&a)
		decided, err = s.TimeAdjustmentRepository.Update(ctx, a)
		return withAction(err, action)
	})
	if err != nil {
		return adjustment.TimeAdjustment{}, err
	}
	return decided, nil
}

// withAction names the attempted transition on a status error raised by the
// repository's pending guard.
func withAction(err error, action string) error {
	var statusErr *adjustment.StatusError
	if errors.As(err, &statusErr) {
		return &adjustment.StatusError{Action: action, Status: statusErr.Status}
	}
	if err != nil {
		return fmt.Errorf("failed to update time adjustment: %w", err)
	}
	return nil
}

// publish resolves the people to notify and publishes after commit. A
// directory failure only drops the contact ids from the payload.
func (s *TimeAdjustmentServiceImpl) publish(ctx context.Context, eventType string, a adjustment.TimeAdjustment) {
	payload := map[string]interface{}{
		"type":         string(a.Type),
		"status":       string(a.Status),
		"target_date":  a.TargetDate.Format(time.DateOnly),
		"target_type":  string(a.TargetType),
		"requested_by": a.RequestedBy,
	}
	if a.ApprovedBy != nil {
		payload["decided_by"] = *a.ApprovedBy
	}

	contacts, err := employee.ResolveContacts(ctx, s.directory, a.TenantID, a.EmployeeID)
	if err != nil {
		slog.Warn("failed to resolve adjustment contacts", "adjustment_id", a.ID, "error", err)
	}
	if contacts.EmployeeUserID != nil {
		payload["employee_user_id"] = *contacts.EmployeeUserID
	}
	if contacts.ManagerUserID != nil {
		payload["manager_user_id"] = *contacts.ManagerUserID
	}

	event := eventbus.NewEvent(eventType, a.TenantID, a.EmployeeID, a.ID, payload)
	database.AfterCommit(ctx, func() {
		eventbus.PublishBestEffort(ctx, s.publisher, event)
	})
}

// Get implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) Get(ctx context.Context, tenantID string, id string) (adjustment.AdjustmentResponse, error) {
	a, err := s.TimeAdjustmentRepository.GetByID(ctx, tenantID, id)
	if err != nil {
		return adjustment.AdjustmentResponse{}, err
	}
	return adjustment.NewAdjustmentResponse(a), nil
}

// ListPending implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) ListPending(ctx context.Context, tenantID string, filter adjustment.AdjustmentFilter) (adjustment.ListAdjustmentResponse, error) {
	pending := string(adjustment.StatusPending)
	filter.Status = &pending
	return s.list(ctx, tenantID, filter)
}

// ListByEmployee implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) ListByEmployee(ctx context.Context, tenantID string, employeeID string, filter adjustment.AdjustmentFilter) (adjustment.ListAdjustmentResponse, error) {
	filter.EmployeeID = &employeeID
	return s.list(ctx, tenantID, filter)
}

func (s *TimeAdjustmentServiceImpl) list(ctx context.Context, tenantID string, filter adjustment.AdjustmentFilter) (adjustment.ListAdjustmentResponse, error) {
	if err := filter.Validate(); err != nil {
		return adjustment.ListAdjustmentResponse{}, err
	}

	items, total, err := s.TimeAdjustmentRepository.List(ctx, tenantID, filter)
	if err != nil {
		return adjustment.ListAdjustmentResponse{}, fmt.Errorf("failed to list time adjustments: %w", err)
	}

	resp := adjustment.ListAdjustmentResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Adjustments: make([]adjustment.AdjustmentResponse, 0, len(items)),
	}
	for _, a := range items {
		resp.Adjustments = append(resp.Adjustments, adjustment.NewAdjustmentResponse(a))
	}
	return resp, nil
}

// CountPending implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) CountPending(ctx context.Context, tenantID string) (int64, error) {
	return s.TimeAdjustmentRepository.CountPending(ctx, tenantID)
}

// RemindPending implements adjustment.TimeAdjustmentService.
func (s *TimeAdjustmentServiceImpl) RemindPending(ctx context.Context) (int, error) {
	counts, err := s.TimeAdjustmentRepository.CountPendingByTenant(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending adjustments: %w", err)
	}

	tenants := make([]string, 0, len(counts))
	for tenantID, n := range counts {
		if n > 0 {
			tenants = append(tenants, tenantID)
		}
	}
	sort.Strings(tenants)

	for _, tenantID := range tenants {
		eventbus.PublishBestEffort(ctx, s.publisher, eventbus.NewEvent(eventbus.PendingApprovalsRemind, tenantID, "", "", map[string]interface{}{
			"pending_adjustments": counts[tenantID],
		}))
	}
	return len(tenants), nil
}

func NewTimeAdjustmentService(
	tx database.Transactor,
	locker database.Locker,
	adjustmentRepo adjustment.TimeAdjustmentRepository,
	timeRecordRepo timerecord.TimeRecordRepository,
	summaryRepo summary.DailySummaryRepository,
	aggregator summary.Aggregator,
	directory employee.Directory,
	fileService file.FileService,
	publisher eventbus.Publisher,
	clk clock.Clock,
) adjustment.TimeAdjustmentService {
	return &TimeAdjustmentServiceImpl{
		tx:                       tx,
		locker:                   locker,
		TimeAdjustmentRepository: adjustmentRepo,
		timeRecords:              timeRecordRepo,
		summaryRepo:              summaryRepo,
		aggregator:               aggregator,
		directory:                directory,
		fileService:              fileService,
		publisher:                publisher,
		clock:                    clk,
	}
}
