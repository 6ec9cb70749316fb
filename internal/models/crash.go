package models

import "time"

// UnknownLabel is the bucket used for empty or missing category values
const UnknownLabel = "Unknown"

// CrashRecord represents one reported collision
type CrashRecord struct {
	CollisionID int64     `json:"collision_id" db:"collision_id"`
	Timestamp   time.Time `json:"crash_date" db:"crash_date"` // Zero when unknown

	Borough     string  `json:"borough" db:"borough"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	HasLocation bool    `json:"-"` // False when latitude/longitude were NULL

	PersonsInjured int `json:"persons_injured" db:"persons_injured"`
	PersonsKilled  int `json:"persons_killed" db:"persons_killed"`

	ContributingFactor string `json:"contributing_factor" db:"contributing_factor"`
	VehicleType        string `json:"vehicle_type" db:"vehicle_type"`

	// Derived fields
	Hour    int    `json:"hour" db:"hour"` // 0-23, -1 unknown
	Weekday int    `json:"day" db:"day"`   // 0=Monday ... 6=Sunday, -1 unknown
	Season  string `json:"season" db:"season"`
	Year    int    `json:"year"`  // 0 unknown
	Month   string `json:"month"` // YYYY-MM, empty when unknown
}

// PersonRecord represents one person involved in a collision
type PersonRecord struct {
	PersonID     string `json:"person_id" db:"person_id"`
	CollisionID  int64  `json:"collision_id" db:"collision_id"`
	PersonType   string `json:"person_type" db:"person_type"`     // Pedestrian, Cyclist, Occupant, Unknown
	InjuryStatus string `json:"person_injury" db:"person_injury"` // Killed, Injured, Unspecified
	SafetyUsed   int    `json:"safety_used" db:"safety_used"`     // 1 used, 0 not used, -1 unknown
}

// Dataset is an immutable in-memory snapshot of the record store.
// Crashes are sorted by CollisionID; PersonsByCrash indexes into Persons.
type Dataset struct {
	Crashes        []CrashRecord
	Persons        []PersonRecord
	PersonsByCrash map[int64][]int
}

// GeoCount returns the number of crashes carrying coordinates
func (d *Dataset) GeoCount() int {
	if d == nil {
		return 0
	}
	n := 0
	for i := range d.Crashes {
		if d.Crashes[i].HasLocation {
			n++
		}
	}
	return n
}

// Season constants
const (
	SeasonWinter = "Winter"
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonFall   = "Fall"
)

// SeasonForMonth maps a calendar month to its meteorological season
func SeasonForMonth(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonFall
	}
}

// WeekdayIndex converts a time.Weekday to the Monday-first index used by the matrix
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayNames lists matrix row labels, Monday first
var WeekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
