package timerecord

import (
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type SubmitPunchRequest struct {
	EmployeeID string  `json:"-"`
	CreatedBy  *string `json:"-"`
	IPAddress  *string `json:"-"`

	// Date and Time default to the current clock when empty.
	Date       string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time       string   `json:"time" validate:"omitempty,datetime=15:04"`
	Type       string   `json:"type" validate:"required,oneof=ENTRY EXIT BREAK_START BREAK_END"`
	Source     string   `json:"source" validate:"omitempty,oneof=WEB MOBILE REP BIOMETRIC FACIAL MANUAL IMPORT"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
	Accuracy   *float64 `json:"accuracy" validate:"omitempty,gte=0"`
	DeviceInfo *string  `json:"device_info" validate:"omitempty,max=255"`
	Notes      *string  `json:"notes" validate:"omitempty,max=500"`

	File       multipart.File        `json:"-"`
	FileHeader *multipart.FileHeader `json:"-"`
}

func (r *SubmitPunchRequest) Validate() error {
	errs := validator.Struct(r)

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude and longitude must be sent together",
		})
	}

	if r.FileHeader != nil {
		ext := strings.ToLower(filepath.Ext(r.FileHeader.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "invalid file type: only jpg, jpeg, png allowed",
			})
		} else if r.FileHeader.Size > 10<<20 { // 10MB
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "photo size must not exceed 10MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Resolve fills in date and time from now when they were omitted.
// It assumes Validate passed.
func (r *SubmitPunchRequest) Resolve(now time.Time) (time.Time, clock.TimeOfDay) {
	date := clock.DateOf(now)
	if r.Date != "" {
		date, _ = clock.ParseDate(r.Date)
	}
	at := clock.FromTime(now)
	if r.Time != "" {
		at, _ = clock.ParseTimeOfDay(r.Time)
	}
	return date, at
}

type ApproveRecordRequest struct {
	ID         string  `json:"-"`
	ApproverID string  `json:"-"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

func (r *ApproveRecordRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectRecordRequest struct {
	ID         string `json:"-"`
	ApproverID string `json:"-"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

func (r *RejectRecordRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type PeriodFilter struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// MaxPeriodDays bounds period queries.
const MaxPeriodDays = 93

func (f *PeriodFilter) Validate() error {
	errs := validator.Struct(f)
	if len(errs) == 0 {
		start, end := f.Range()
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		} else if end.Sub(start) > MaxPeriodDays*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "period must not exceed 93 days",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Range returns the parsed bounds. It assumes Validate passed.
func (f *PeriodFilter) Range() (time.Time, time.Time) {
	start, _ := clock.ParseDate(f.StartDate)
	end, _ := clock.ParseDate(f.EndDate)
	return start, end
}

type PendingFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *PendingFilter) Validate() error {
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

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TimeRecordResponse struct {
	ID              string   `json:"id"`
	EmployeeID      string   `json:"employee_id"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Type            string   `json:"type"`
	TypeLabel       string   `json:"type_label"`
	Source          string   `json:"source"`
	Status          string   `json:"status"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	Accuracy        *float64 `json:"accuracy,omitempty"`
	GeofenceID      *string  `json:"geofence_id,omitempty"`
	GeofenceName    *string  `json:"geofence_name,omitempty"`
	WithinGeofence  *bool    `json:"within_geofence,omitempty"`
	PhotoURL        *string  `json:"photo_url,omitempty"`
	DeviceInfo      *string  `json:"device_info,omitempty"`
	AdjustmentID    *string  `json:"adjustment_id,omitempty"`
	OriginalTime    *string  `json:"original_time,omitempty"`
	RejectionReason *string  `json:"rejection_reason,omitempty"`
	ApprovedBy      *string  `json:"approved_by,omitempty"`
	ApprovedAt      *string  `json:"approved_at,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	NSR             *int64   `json:"nsr,omitempty"`
	RecordedAt      string   `json:"recorded_at"`
}

func NewTimeRecordResponse(r TimeRecord) TimeRecordResponse {
	resp := TimeRecordResponse{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Date:            r.RecordDate.Format(time.DateOnly),
		Time:            r.RecordTime.String(),
		Type:            string(r.Type),
		TypeLabel:       r.Type.Label(),
		Source:          string(r.Source),
		Status:          string(r.Status),
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Accuracy:        r.Accuracy,
		GeofenceID:      r.GeofenceID,
		GeofenceName:    r.GeofenceName,
		WithinGeofence:  r.WithinGeofence,
		PhotoURL:        r.PhotoURL,
		DeviceInfo:      r.DeviceInfo,
		AdjustmentID:    r.AdjustmentID,
		RejectionReason: r.RejectionReason,
		ApprovedBy:      r.ApprovedBy,
		Notes:           r.Notes,
		NSR:             r.NSR,
		RecordedAt:      r.RecordedAt.Format(time.RFC3339),
	}
	if r.OriginalTime != nil {
		s := r.OriginalTime.String()
		resp.OriginalTime = &s
	}
	if r.ApprovedAt != nil {
		s := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	return resp
}

type DayRecordsResponse struct {
	Date      string               `json:"date"`
	Records   []TimeRecordResponse `json:"records"`
	NextTypes []string             `json:"next_types"`
}

type NextTypeResponse struct {
	Date     string   `json:"date"`
	LastType *string  `json:"last_type,omitempty"`
	Expected []string `json:"expected"`
}

type ListTimeRecordResponse struct {
	TotalCount int64                `json:"total_count"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
	Records    []TimeRecordResponse `json:"records"`
}

type StatisticsResponse struct {
	PendingRecords     int64 `json:"pending_records"`
	PendingAdjustments int64 `json:"pending_adjustments"`
	TodayRecords       int64 `json:"today_records"`
}
