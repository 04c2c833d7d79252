package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/clock"
	"gopkg.in/yaml.v3"
)

// TimekeepingPolicy holds the tunable rules of the timesheet core.
type TimekeepingPolicy struct {
	NightShiftStart           clock.TimeOfDay `yaml:"night_shift_start"`
	NightShiftEnd             clock.TimeOfDay `yaml:"night_shift_end"`
	DefaultExpectedMinutes    int             `yaml:"default_expected_minutes"`
	DefaultToleranceMinutes   int             `yaml:"default_tolerance_minutes"`
	OvertimeExpirationMonths  int             `yaml:"overtime_expiration_months"`
	ExpiringSoonHorizonDays   int             `yaml:"expiring_soon_horizon_days"`
	GeofenceEnabled           bool            `yaml:"geofence_enabled"`
	HeadquartersDefaultRadius int             `yaml:"headquarters_default_radius_meters"`
	SweepHour                 int             `yaml:"sweep_hour"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() TimekeepingPolicy {
	return TimekeepingPolicy{
		NightShiftStart:           clock.NewTimeOfDay(22, 0),
		NightShiftEnd:             clock.NewTimeOfDay(5, 0),
		DefaultExpectedMinutes:    480,
		DefaultToleranceMinutes:   5,
		OvertimeExpirationMonths:  6,
		ExpiringSoonHorizonDays:   30,
		GeofenceEnabled:           true,
		HeadquartersDefaultRadius: 100,
		SweepHour:                 1,
	}
}

// policyFile mirrors TimekeepingPolicy with pointers so absent keys keep defaults.
type policyFile struct {
	NightShiftStart           *clock.TimeOfDay `yaml:"night_shift_start"`
	NightShiftEnd             *clock.TimeOfDay `yaml:"night_shift_end"`
	DefaultExpectedMinutes    *int             `yaml:"default_expected_minutes"`
	DefaultToleranceMinutes   *int             `yaml:"default_tolerance_minutes"`
	OvertimeExpirationMonths  *int             `yaml:"overtime_expiration_months"`
	ExpiringSoonHorizonDays   *int             `yaml:"expiring_soon_horizon_days"`
	GeofenceEnabled           *bool            `yaml:"geofence_enabled"`
	HeadquartersDefaultRadius *int             `yaml:"headquarters_default_radius_meters"`
	SweepHour                 *int             `yaml:"sweep_hour"`
}

// LoadPolicy reads a YAML policy file on top of DefaultPolicy. An empty path
// returns the defaults.
func LoadPolicy(path string) (TimekeepingPolicy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return TimekeepingPolicy{}, fmt.Errorf("read timekeeping policy %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML policy bytes on top of DefaultPolicy.
func ParsePolicy(data []byte) (TimekeepingPolicy, error) {
	policy := DefaultPolicy()

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return TimekeepingPolicy{}, fmt.Errorf("decode timekeeping policy: %w", err)
	}

	if file.NightShiftStart != nil {
		policy.NightShiftStart = *file.NightShiftStart
	}
	if file.NightShiftEnd != nil {
		policy.NightShiftEnd = *file.NightShiftEnd
	}
	if file.DefaultExpectedMinutes != nil {
		policy.DefaultExpectedMinutes = *file.DefaultExpectedMinutes
	}
	if file.DefaultToleranceMinutes != nil {
		policy.DefaultToleranceMinutes = *file.DefaultToleranceMinutes
	}
	if file.OvertimeExpirationMonths != nil {
		policy.OvertimeExpirationMonths = *file.OvertimeExpirationMonths
	}
	if file.ExpiringSoonHorizonDays != nil {
		policy.ExpiringSoonHorizonDays = *file.ExpiringSoonHorizonDays
	}
	if file.GeofenceEnabled != nil {
		policy.GeofenceEnabled = *file.GeofenceEnabled
	}
	if file.HeadquartersDefaultRadius != nil {
		policy.HeadquartersDefaultRadius = *file.HeadquartersDefaultRadius
	}
	if file.SweepHour != nil {
		policy.SweepHour = *file.SweepHour
	}

	if err := policy.Validate(); err != nil {
		return TimekeepingPolicy{}, err
	}
	return policy, nil
}

func (p TimekeepingPolicy) Validate() error {
	var errs []error
	if !p.NightShiftStart.Valid() || !p.NightShiftEnd.Valid() {
		errs = append(errs, errors.New("night shift bounds must be within 00:00-23:59"))
	}
	if p.NightShiftStart == p.NightShiftEnd {
		errs = append(errs, errors.New("night shift start and end must differ"))
	}
	if p.DefaultExpectedMinutes < 0 || p.DefaultExpectedMinutes > clock.MinutesPerDay {
		errs = append(errs, errors.New("default_expected_minutes must be between 0 and 1440"))
	}
	if p.DefaultToleranceMinutes < 0 {
		errs = append(errs, errors.New("default_tolerance_minutes must not be negative"))
	}
	if p.OvertimeExpirationMonths <= 0 {
		errs = append(errs, errors.New("overtime_expiration_months must be positive"))
	}
	if p.ExpiringSoonHorizonDays <= 0 {
		errs = append(errs, errors.New("expiring_soon_horizon_days must be positive"))
	}
	if p.HeadquartersDefaultRadius <= 0 {
		errs = append(errs, errors.New("headquarters_default_radius_meters must be positive"))
	}
	if p.SweepHour < 0 || p.SweepHour > 23 {
		errs = append(errs, errors.New("sweep_hour must be between 0 and 23"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid timekeeping policy: %w", errors.Join(errs...))
	}
	return nil
}
