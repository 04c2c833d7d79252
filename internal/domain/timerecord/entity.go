package timerecord

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

type TimeRecord struct {
	ID           string
	TenantID     string
	EmployeeID   string
	RecordDate   time.Time
	RecordTime   clock.TimeOfDay
	RecordedAt   time.Time
	Type         PunchType
	Source       Source
	Status       Status
	Latitude     *float64
	Longitude    *float64
	Accuracy     *float64
	GeofenceID   *string
	GeofenceName *string
	// WithinGeofence is nil when no location check ran.
	WithinGeofence *bool
	PhotoURL       *string
	DeviceInfo     *string
	IPAddress      *string
	AdjustmentID   *string
	// OriginalTime keeps the pre-adjustment time for audit.
	OriginalTime    *clock.TimeOfDay
	RejectionReason *string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	Notes           *string
	// ImportSourceID and NSR are set only for records read from a clock file.
	ImportSourceID *string
	NSR            *int64
	CreatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type PunchType string

const (
	PunchEntry      PunchType = "ENTRY"
	PunchExit       PunchType = "EXIT"
	PunchBreakStart PunchType = "BREAK_START"
	PunchBreakEnd   PunchType = "BREAK_END"
)

var PunchTypeValues = []string{
	string(PunchEntry),
	string(PunchExit),
	string(PunchBreakStart),
	string(PunchBreakEnd),
}

func (p PunchType) Label() string {
	switch p {
	case PunchEntry:
		return "Entry"
	case PunchExit:
		return "Exit"
	case PunchBreakStart:
		return "Break start"
	case PunchBreakEnd:
		return "Break end"
	default:
		return string(p)
	}
}

type Source string

const (
	SourceWeb       Source = "WEB"
	SourceMobile    Source = "MOBILE"
	SourceREP       Source = "REP"
	SourceBiometric Source = "BIOMETRIC"
	SourceFacial    Source = "FACIAL"
	SourceManual    Source = "MANUAL"
	SourceImport    Source = "IMPORT"
)

var SourceValues = []string{
	string(SourceWeb),
	string(SourceMobile),
	string(SourceREP),
	string(SourceBiometric),
	string(SourceFacial),
	string(SourceManual),
	string(SourceImport),
}

type Status string

const (
	StatusValid           Status = "VALID"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusAdjusted        Status = "ADJUSTED"
	// StatusVoidedByAdjustment marks a punch removed by an approved DELETE
	// adjustment. It is distinct from an approver's REJECTED.
	StatusVoidedByAdjustment Status = "VOIDED_BY_ADJUSTMENT"
)

var StatusValues = []string{
	string(StatusValid),
	string(StatusPendingApproval),
	string(StatusApproved),
	string(StatusRejected),
	string(StatusAdjusted),
	string(StatusVoidedByAdjustment),
}

// Counts reports whether the punch takes part in sequencing and aggregation.
func (s Status) Counts() bool {
	return s != StatusRejected && s != StatusVoidedByAdjustment
}

// EmployeeDay identifies one employee's calendar day.
type EmployeeDay struct {
	TenantID   string
	EmployeeID string
	Date       time.Time
}
