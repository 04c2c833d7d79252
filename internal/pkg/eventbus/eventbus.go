// Package eventbus publishes timesheet domain events. Delivery is best-effort
// and at-most-once: publishers report failures but callers only log them.
package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	TimeRecordCreated      = "TimeRecordCreated"
	TimeRecordApproved     = "TimeRecordApproved"
	TimeRecordRejected     = "TimeRecordRejected"
	AdjustmentRequested    = "AdjustmentRequested"
	AdjustmentApproved     = "AdjustmentApproved"
	AdjustmentRejected     = "AdjustmentRejected"
	AdjustmentCancelled    = "AdjustmentCancelled"
	DailySummaryUpdated    = "DailySummaryUpdated"
	OvertimeEntryAppended  = "OvertimeEntryAppended"
	ClockFileImported      = "ClockFileImported"
	PendingApprovalsRemind = "PendingApprovalsReminder"
)

// Event is the envelope shared by every domain event.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	TenantID   string                 `json:"tenant_id"`
	EmployeeID string                 `json:"employee_id,omitempty"`
	EntityID   string                 `json:"entity_id,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a fresh id and timestamp.
func NewEvent(eventType, tenantID, employeeID, entityID string, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		TenantID:   tenantID,
		EmployeeID: employeeID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublishBestEffort publishes event and logs instead of returning failures.
func PublishBestEffort(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish domain event",
			"type", event.Type,
			"tenant_id", event.TenantID,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}

type multiPublisher []Publisher

// Multi fans an event out to every publisher and joins their errors.
func Multi(publishers ...Publisher) Publisher {
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type logPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher writes every event to logger at debug level.
func NewLogPublisher(logger *slog.Logger) Publisher {
	return &logPublisher{logger: logger}
}

func (l *logPublisher) Publish(ctx context.Context, event Event) error {
	l.logger.DebugContext(ctx, "domain event",
		"id", event.ID,
		"type", event.Type,
		"tenant_id", event.TenantID,
		"employee_id", event.EmployeeID,
		"entity_id", event.EntityID,
	)
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, event)
	return nil
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
