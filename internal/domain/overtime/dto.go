package overtime

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

// ManualEntryRequest backs the credit, debit, adjustment and payout operations.
// Minutes is a magnitude except for adjustments, where its sign is kept.
type ManualEntryRequest struct {
	EmployeeID    string   `json:"-"`
	ApproverID    string   `json:"-"`
	Minutes       int      `json:"minutes" validate:"required"`
	ReferenceDate string   `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
	Multiplier    *float64 `json:"multiplier,omitempty" validate:"omitempty,gt=0,lte=3"`
	Description   string   `json:"description" validate:"required,max=255"`
	TimeRecordID  *string  `json:"time_record_id,omitempty"`
}

// Validate checks the request for entry type t.
func (r *ManualEntryRequest) Validate(t EntryType) error {
	errs := validator.Struct(r)

	if t != EntryAdjustment && r.Minutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "minutes",
			Message: "minutes must be greater than 0",
		})
	}
	if t != EntryCredit && r.Multiplier != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "multiplier",
			Message: "multiplier is only allowed on credits",
		})
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Date returns the reference date, defaulting to today. It assumes Validate passed.
func (r *ManualEntryRequest) Date(now time.Time) time.Time {
	if r.ReferenceDate == "" {
		return clock.DateOf(now)
	}
	d, _ := clock.ParseDate(r.ReferenceDate)
	return d
}

type MovementFilter struct {
	Type *string `json:"type,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *MovementFilter) Validate() error {
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

	if f.Type != nil && !validator.IsInSlice(*f.Type, EntryTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: CREDIT, DEBIT, ADJUSTMENT, EXPIRATION, PAYOUT",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EntryResponse struct {
	ID                  string   `json:"id"`
	EmployeeID          string   `json:"employee_id"`
	Type                string   `json:"type"`
	Source              string   `json:"source"`
	ReferenceDate       string   `json:"reference_date"`
	Minutes             int      `json:"minutes"`
	MinutesFormatted    string   `json:"minutes_formatted"`
	BalanceAfter        int      `json:"balance_after"`
	BalanceFormatted    string   `json:"balance_formatted"`
	ExpirationDate      *string  `json:"expiration_date,omitempty"`
	DaysUntilExpiration *int     `json:"days_until_expiration,omitempty"`
	Multiplier          *float64 `json:"multiplier,omitempty"`
	OriginalMinutes     *int     `json:"original_minutes,omitempty"`
	Description         string   `json:"description"`
	TimeRecordID        *string  `json:"time_record_id,omitempty"`
	ExpiresEntryID      *string  `json:"expires_entry_id,omitempty"`
	ApprovedBy          *string  `json:"approved_by,omitempty"`
	CreatedAt           string   `json:"created_at"`
}

// NewEntryResponse renders e; today drives days-until-expiration.
func NewEntryResponse(e Entry, today time.Time) EntryResponse {
	resp := EntryResponse{
		ID:               e.ID,
		EmployeeID:       e.EmployeeID,
		Type:             string(e.Type),
		Source:           string(e.Source),
		ReferenceDate:    e.ReferenceDate.Format(time.DateOnly),
		Minutes:          e.Minutes,
		MinutesFormatted: clock.FormatMinutes(e.Minutes),
		BalanceAfter:     e.BalanceAfter,
		BalanceFormatted: clock.FormatMinutes(e.BalanceAfter),
		Multiplier:       e.Multiplier,
		OriginalMinutes:  e.OriginalMinutes,
		Description:      e.Description,
		TimeRecordID:     e.TimeRecordID,
		ExpiresEntryID:   e.ExpiresEntryID,
		ApprovedBy:       e.ApprovedBy,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
	if e.ExpirationDate != nil {
		s := e.ExpirationDate.Format(time.DateOnly)
		resp.ExpirationDate = &s
		days := DaysBetween(today, *e.ExpirationDate)
		resp.DaysUntilExpiration = &days
	}
	return resp
}

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(clock.DateOf(b).Sub(clock.DateOf(a)).Hours() / 24)
}

type BalanceResponse struct {
	EmployeeID       string `json:"employee_id"`
	BalanceMinutes   int    `json:"balance_minutes"`
	BalanceFormatted string `json:"balance_formatted"`
	IsPositive       bool   `json:"is_positive"`
}

func NewBalanceResponse(employeeID string, balance int) BalanceResponse {
	return BalanceResponse{
		EmployeeID:       employeeID,
		BalanceMinutes:   balance,
		BalanceFormatted: clock.FormatMinutes(balance),
		IsPositive:       balance >= 0,
	}
}

type SummaryResponse struct {
	BalanceResponse

	TotalCredits            int             `json:"total_credits"`
	TotalDebits             int             `json:"total_debits"`
	TotalAdjustments        int             `json:"total_adjustments"`
	TotalExpired            int             `json:"total_expired"`
	TotalExpiredFormatted   string          `json:"total_expired_formatted"`
	TotalPayouts            int             `json:"total_payouts"`
	ExpiringMinutes         int             `json:"expiring_minutes"`
	ExpiringFormatted       string          `json:"expiring_formatted"`
	DaysUntilNextExpiration *int            `json:"days_until_next_expiration,omitempty"`
	RecentMovements         []EntryResponse `json:"recent_movements"`
}

type ListMovementResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Movements  []EntryResponse `json:"movements"`
}
