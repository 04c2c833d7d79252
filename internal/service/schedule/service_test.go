package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryHolidays struct {
	rows []schedule.Holiday
}

func (m *memoryHolidays) GetByDate(_ context.Context, tenantID string, date time.Time) (*schedule.Holiday, error) {
	for _, h := range m.rows {
		if h.TenantID == tenantID && h.Date.Equal(date) {
			return &h, nil
		}
	}
	return nil, nil
}

func (m *memoryHolidays) ListByYear(_ context.Context, tenantID string, year int) ([]schedule.Holiday, error) {
	var out []schedule.Holiday
	for _, h := range m.rows {
		if h.TenantID == tenantID && h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memoryHolidays) Create(_ context.Context, h schedule.Holiday) (schedule.Holiday, error) {
	h.ID = "hol-" + h.Date.Format("20060102")
	m.rows = append(m.rows, h)
	return h, nil
}

func TestCreateHoliday(t *testing.T) {
	repo := &memoryHolidays{}
	svc := NewHolidayService(repo)

	resp, err := svc.Create(context.Background(), "tenant-1", schedule.CreateHolidayRequest{Date: "2024-12-25", Name: "Christmas"})
	require.NoError(t, err)
	assert.Equal(t, "2024-12-25", resp.Date)
	assert.Equal(t, string(schedule.HolidayCompany), resp.Type)

	_, err = svc.Create(context.Background(), "tenant-1", schedule.CreateHolidayRequest{Date: "2024-12-25", Name: "Again"})
	assert.ErrorIs(t, err, schedule.ErrHolidayExists)

	_, err = svc.Create(context.Background(), "tenant-2", schedule.CreateHolidayRequest{Date: "2024-12-25", Name: "Christmas", Type: "NATIONAL"})
	assert.NoError(t, err)
}

func TestCreateHolidayValidates(t *testing.T) {
	svc := NewHolidayService(&memoryHolidays{})

	_, err := svc.Create(context.Background(), "tenant-1", schedule.CreateHolidayRequest{Date: "25/12/2024", Name: "Christmas", Type: "PARTY"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestListHolidaysByYear(t *testing.T) {
	repo := &memoryHolidays{}
	svc := NewHolidayService(repo)
	for _, d := range []string{"2023-12-25", "2024-01-01", "2024-12-25"} {
		_, err := svc.Create(context.Background(), "tenant-1", schedule.CreateHolidayRequest{Date: d, Name: "Holiday"})
		require.NoError(t, err)
	}

	holidays, err := svc.ListByYear(context.Background(), "tenant-1", 2024)
	require.NoError(t, err)
	assert.Len(t, holidays, 2)

	_, err = svc.ListByYear(context.Background(), "tenant-1", 12)
	assert.ErrorIs(t, err, schedule.ErrInvalidYear)
}
