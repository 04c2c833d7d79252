package schedule

import "context"

type HolidayService interface {
	Create(ctx context.Context, tenantID string, req CreateHolidayRequest) (HolidayResponse, error)
	ListByYear(ctx context.Context, tenantID string, year int) ([]HolidayResponse, error)
}
