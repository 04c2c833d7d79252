package adjustment

import (
	"mime/multipart"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

type CreateAdjustmentRequest struct {
	EmployeeID  string `json:"-"`
	RequestedBy string `json:"-"`

	Type             string  `json:"type" validate:"required,oneof=ADD MODIFY DELETE"`
	OriginalRecordID *string `json:"original_record_id,omitempty"`
	// TargetDate and TargetType are taken from the original record for MODIFY and DELETE.
	TargetDate    string   `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TargetType    string   `json:"target_type,omitempty" validate:"omitempty,oneof=ENTRY EXIT BREAK_START BREAK_END"`
	RequestedTime string   `json:"requested_time,omitempty" validate:"omitempty,datetime=15:04"`
	Justification string   `json:"justification" validate:"required,min=10,max=1000"`
	Attachments   []string `json:"attachments,omitempty" validate:"max=5"`

	Files []*multipart.FileHeader `json:"-"`
}

func (r *CreateAdjustmentRequest) Validate() error {
	errs := validator.Struct(r)

	hasOriginal := r.OriginalRecordID != nil && !validator.IsEmpty(*r.OriginalRecordID)
	switch Type(r.Type) {
	case TypeAdd:
		if hasOriginal {
			errs = append(errs, validator.ValidationError{Field: "original_record_id", Message: "original_record_id is not allowed for ADD"})
		}
		if r.TargetDate == "" {
			errs = append(errs, validator.ValidationError{Field: "target_date", Message: "target_date is required for ADD"})
		}
		if r.TargetType == "" {
			errs = append(errs, validator.ValidationError{Field: "target_type", Message: "target_type is required for ADD"})
		}
		if r.RequestedTime == "" {
			errs = append(errs, validator.ValidationError{Field: "requested_time", Message: "requested_time is required for ADD"})
		}
	case TypeModify:
		if !hasOriginal {
			errs = append(errs, validator.ValidationError{Field: "original_record_id", Message: "original_record_id is required for MODIFY"})
		}
		if r.RequestedTime == "" {
			errs = append(errs, validator.ValidationError{Field: "requested_time", Message: "requested_time is required for MODIFY"})
		}
	case TypeDelete:
		if !hasOriginal {
			errs = append(errs, validator.ValidationError{Field: "original_record_id", Message: "original_record_id is required for DELETE"})
		}
	}

	if len(r.Files)+len(r.Attachments) > 5 {
		errs = append(errs, validator.ValidationError{Field: "attachments", Message: "at most 5 attachments are allowed"})
	}
	for _, f := range r.Files {
		if f.Size > 5<<20 { // 5MB
			errs = append(errs, validator.ValidationError{Field: "attachments", Message: "each attachment must not exceed 5MB"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RequestedTimeOfDay assumes Validate passed.
func (r *CreateAdjustmentRequest) RequestedTimeOfDay() *clock.TimeOfDay {
	if r.RequestedTime == "" {
		return nil
	}
	t, _ := clock.ParseTimeOfDay(r.RequestedTime)
	return &t
}

type DecisionRequest struct {
	ID         string  `json:"-"`
	ApproverID string  `json:"-"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *DecisionRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectAdjustmentRequest struct {
	ID         string `json:"-"`
	ApproverID string `json:"-"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

func (r *RejectAdjustmentRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AdjustmentFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 || f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: PENDING, APPROVED, REJECTED, CANCELLED",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentResponse struct {
	ID                string   `json:"id"`
	EmployeeID        string   `json:"employee_id"`
	RequestedBy       string   `json:"requested_by"`
	Type              string   `json:"type"`
	OriginalRecordID  *string  `json:"original_record_id,omitempty"`
	TargetDate        string   `json:"target_date"`
	TargetType        string   `json:"target_type"`
	TargetTypeLabel   string   `json:"target_type_label"`
	RequestedTime     *string  `json:"requested_time,omitempty"`
	OriginalTime      *string  `json:"original_time,omitempty"`
	Justification     string   `json:"justification"`
	Attachments       []string `json:"attachments"`
	Status            string   `json:"status"`
	ApprovedBy        *string  `json:"approved_by,omitempty"`
	ApprovedAt        *string  `json:"approved_at,omitempty"`
	ApprovalNotes     *string  `json:"approval_notes,omitempty"`
	ResultingRecordID *string  `json:"resulting_record_id,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

func NewAdjustmentResponse(a TimeAdjustment) AdjustmentResponse {
	resp := AdjustmentResponse{
		ID:                a.ID,
		EmployeeID:        a.EmployeeID,
		RequestedBy:       a.RequestedBy,
		Type:              string(a.Type),
		OriginalRecordID:  a.OriginalRecordID,
		TargetDate:        a.TargetDate.Format(time.DateOnly),
		TargetType:        string(a.TargetType),
		TargetTypeLabel:   a.TargetType.Label(),
		Justification:     a.Justification,
		Attachments:       a.Attachments,
		Status:            string(a.Status),
		ApprovedBy:        a.ApprovedBy,
		ApprovalNotes:     a.ApprovalNotes,
		ResultingRecordID: a.ResultingRecordID,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
	if resp.Attachments == nil {
		resp.Attachments = []string{}
	}
	if a.RequestedTime != nil {
		s := a.RequestedTime.String()
		resp.RequestedTime = &s
	}
	if a.OriginalTime != nil {
		s := a.OriginalTime.String()
		resp.OriginalTime = &s
	}
	if a.ApprovedAt != nil {
		s := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}

type ListAdjustmentResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Adjustments []AdjustmentResponse `json:"adjustments"`
}
