package geofence

import (
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/geo"
)

type Geofence struct {
	ID           string
	TenantID     string
	Name         string
	Description  *string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Address      *string
	City         *string
	State        *string
	ZipCode      *string
	LocationType LocationType
	// Empty allow-lists admit everyone.
	DepartmentIDs []string
	EmployeeIDs   []string
	// The Wi-Fi requirement is recorded for clients; punches do not enforce it.
	RequireWifi bool
	WifiSSID    *string
	WifiBSSID   *string
	Active      bool
	CreatedBy   *string
	UpdatedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type LocationType string

const (
	LocationHeadquarters LocationType = "HEADQUARTERS"
	LocationBranch       LocationType = "BRANCH"
	LocationClient       LocationType = "CLIENT"
	LocationHomeOffice   LocationType = "HOME_OFFICE"
	LocationOther        LocationType = "OTHER"
)

var LocationTypeValues = []string{
	string(LocationHeadquarters),
	string(LocationBranch),
	string(LocationClient),
	string(LocationHomeOffice),
	string(LocationOther),
}

func (t LocationType) Label() string {
	switch t {
	case LocationHeadquarters:
		return "Headquarters"
	case LocationBranch:
		return "Branch"
	case LocationClient:
		return "Client site"
	case LocationHomeOffice:
		return "Home office"
	default:
		return "Other"
	}
}

func (g Geofence) Center() geo.Point {
	return geo.Point{Latitude: g.Latitude, Longitude: g.Longitude}
}

func (g Geofence) Contains(p geo.Point) bool {
	return geo.WithinRadius(g.Center(), float64(g.RadiusMeters), p)
}

// Allows reports whether the employee may punch inside g.
func (g Geofence) Allows(employeeID string, departmentID *string) bool {
	if len(g.DepartmentIDs) == 0 && len(g.EmployeeIDs) == 0 {
		return true
	}
	if slices.Contains(g.EmployeeIDs, employeeID) {
		return true
	}
	return departmentID != nil && slices.Contains(g.DepartmentIDs, *departmentID)
}

// FullAddress joins the address parts that are set.
func (g Geofence) FullAddress() string {
	var parts []string
	for _, p := range []*string{g.Address, g.City, g.State, g.ZipCode} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}

// Headquarters is the implicit geofence of a tenant, kept on its company profile.
type Headquarters struct {
	TenantID     string
	CompanyName  string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters int
	Enabled      bool
}

// HeadquartersName labels punches matched by the headquarters fallback.
const HeadquartersName = "Headquarters"

// Geofence returns hq as a synthetic geofence. ok is false when hq is disabled
// or has no coordinates. A non-positive radius takes defaultRadius.
func (hq Headquarters) Geofence(defaultRadius int) (Geofence, bool) {
	if !hq.Enabled || hq.Latitude == nil || hq.Longitude == nil {
		return Geofence{}, false
	}
	radius := hq.RadiusMeters
	if radius <= 0 {
		radius = defaultRadius
	}
	return Geofence{
		TenantID:     hq.TenantID,
		Name:         HeadquartersName,
		Latitude:     *hq.Latitude,
		Longitude:    *hq.Longitude,
		RadiusMeters: radius,
		LocationType: LocationHeadquarters,
		Active:       true,
	}, true
}

// ValidationResult is the answer to "may this employee punch here".
type ValidationResult struct {
	WithinGeofence bool
	GeofenceID     *string
	GeofenceName   *string
	Headquarters   bool
	// DistanceMeters is measured to the matched geofence, or to the nearest
	// candidate when none matched.
	DistanceMeters *float64
}
