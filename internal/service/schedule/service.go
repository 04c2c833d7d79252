package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
)

type HolidayServiceImpl struct {
	schedule.HolidayRepository
}

// Create implements schedule.HolidayService.
func (s *HolidayServiceImpl) Create(ctx context.Context, tenantID string, req schedule.CreateHolidayRequest) (schedule.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.HolidayResponse{}, err
	}

	holiday := req.ToHoliday(tenantID)
	existing, err := s.HolidayRepository.GetByDate(ctx, tenantID, holiday.Date)
	if err != nil {
		return schedule.HolidayResponse{}, fmt.Errorf("failed to check holiday date: %w", err)
	}
	if existing != nil {
		return schedule.HolidayResponse{}, schedule.ErrHolidayExists
	}

	created, err := s.HolidayRepository.Create(ctx, holiday)
	if err != nil {
		return schedule.HolidayResponse{}, fmt.Errorf("failed to create holiday: %w", err)
	}

	slog.Info("holiday created", "tenant_id", tenantID, "holiday_id", created.ID, "date", created.Date.Format("2006-01-02"))
	return schedule.NewHolidayResponse(created), nil
}

// ListByYear implements schedule.HolidayService.
func (s *HolidayServiceImpl) ListByYear(ctx context.Context, tenantID string, year int) ([]schedule.HolidayResponse, error) {
	if year < 1900 || year > 9999 {
		return nil, schedule.ErrInvalidYear
	}

	holidays, err := s.HolidayRepository.ListByYear(ctx, tenantID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	responses := make([]schedule.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		responses = append(responses, schedule.NewHolidayResponse(h))
	}
	return responses, nil
}

func NewHolidayService(holidayRepo schedule.HolidayRepository) schedule.HolidayService {
	return &HolidayServiceImpl{HolidayRepository: holidayRepo}
}
