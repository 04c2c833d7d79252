package schedule

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

type CreateHolidayRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,max=100"`
	Type string `json:"type" validate:"omitempty,oneof=NATIONAL REGIONAL COMPANY"`
}

func (r *CreateHolidayRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

// ToHoliday assumes Validate passed.
func (r *CreateHolidayRequest) ToHoliday(tenantID string) Holiday {
	date, _ := time.Parse(time.DateOnly, r.Date)
	holidayType := HolidayType(r.Type)
	if holidayType == "" {
		holidayType = HolidayCompany
	}
	return Holiday{
		TenantID: tenantID,
		Date:     date,
		Name:     r.Name,
		Type:     holidayType,
	}
}

type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func NewHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:   h.ID,
		Date: h.Date.Format(time.DateOnly),
		Name: h.Name,
		Type: string(h.Type),
	}
}
