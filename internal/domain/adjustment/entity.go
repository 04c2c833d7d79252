package adjustment

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timerecord"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
)

// TimeAdjustment is a request to correct an employee's punches after the fact.
type TimeAdjustment struct {
	ID               string
	TenantID         string
	EmployeeID       string
	RequestedBy      string
	Type             Type
	OriginalRecordID *string
	TargetDate       time.Time
	TargetType       timerecord.PunchType
	// RequestedTime is empty for DELETE.
	RequestedTime *clock.TimeOfDay
	OriginalTime  *clock.TimeOfDay
	Justification string
	Attachments   []string
	Status        Status
	ApprovedBy    *string
	ApprovedAt    *time.Time
	ApprovalNotes *string
	// ResultingRecordID is the punch created or changed on approval.
	ResultingRecordID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Type string

const (
	TypeAdd    Type = "ADD"
	TypeModify Type = "MODIFY"
	TypeDelete Type = "DELETE"
)

var TypeValues = []string{string(TypeAdd), string(TypeModify), string(TypeDelete)}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

var StatusValues = []string{
	string(StatusPending),
	string(StatusApproved),
	string(StatusRejected),
	string(StatusCancelled),
}
