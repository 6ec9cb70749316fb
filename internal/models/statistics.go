package models

// Matrix modes
const (
	MatrixModeMeasured  = "measured"
	MatrixModeEstimated = "estimated"
)

// HourWeekdayMatrix is a 7x24 crash count matrix, rows Monday..Sunday, columns hour 0..23.
// Estimated is true when the cells were derived from the hour marginal instead of
// per-record weekday data.
type HourWeekdayMatrix struct {
	Days      [7]string  `json:"days"`
	Cells     [7][24]int `json:"cells"`
	Estimated bool       `json:"estimated"`
	Mode      string     `json:"mode"`
}

// NewHourWeekdayMatrix returns an all-zero measured matrix
func NewHourWeekdayMatrix() HourWeekdayMatrix {
	return HourWeekdayMatrix{Days: WeekdayNames, Mode: MatrixModeMeasured}
}

// Max returns the largest cell value
func (m HourWeekdayMatrix) Max() int {
	max := 0
	for d := range m.Cells {
		for h := range m.Cells[d] {
			if m.Cells[d][h] > max {
				max = m.Cells[d][h]
			}
		}
	}
	return max
}

// SafetyStats counts distinct persons by safety equipment usage
type SafetyStats struct {
	Used    int `json:"used"`
	NotUsed int `json:"not_used"`
}

// StatsResult is the chart-ready aggregate for one FilterSpec
type StatsResult struct {
	// Totals
	TotalCrashes  int `json:"total_crashes"`
	TotalPersons  int `json:"total_persons"`
	TotalInjuries int `json:"total_injuries"`
	TotalDeaths   int `json:"total_deaths"`

	// Crash-level category counts (sum to TotalCrashes, except ByFactor which is top-N)
	ByBorough map[string]int `json:"by_borough"`
	ByFactor  map[string]int `json:"by_factor"`
	ByVehicle map[string]int `json:"by_vehicle"`
	BySeason  map[string]int `json:"by_season"`
	ByMonth   map[string]int `json:"by_month"`
	ByHour    map[string]int `json:"by_hour"`

	// Person-level category counts (sum to TotalPersons)
	ByPersonType map[string]int `json:"by_person_type"`
	ByInjury     map[string]int `json:"by_injury"`

	ByDayHour   HourWeekdayMatrix `json:"by_day_hour"`
	SafetyStats SafetyStats       `json:"safety_stats"`
	GeoData     []GeoPoint        `json:"geo_data"`
}

// HealthStatus is returned by GET /api/health
type HealthStatus struct {
	Status              string  `json:"status"`
	DataLoaded          bool    `json:"data_loaded"`
	TotalRecords        int     `json:"total_records"` // Person rows
	TotalCrashes        int     `json:"total_crashes"`
	HasGeoData          bool    `json:"has_geo_data"`
	GeoDataCount        int     `json:"geo_data_count"`
	Version             uint64  `json:"version"`
	LoadedAt            string  `json:"loaded_at,omitempty"`
	DensityRadiusMeters float64 `json:"density_radius_meters"`
}

// FilterOptions is returned by GET /api/filters
type FilterOptions struct {
	Boroughs            []string `json:"boroughs"`
	Years               []string `json:"years"`
	VehicleTypes        []string `json:"vehicle_types"`
	ContributingFactors []string `json:"contributing_factors"`
	PersonTypes         []string `json:"person_types"`
	InjuryTypes         []string `json:"injury_types"`
}

// DataSample is returned by GET /api/data
type DataSample struct {
	Data  []SampleRow `json:"data"`
	Total int         `json:"total"`
}

// SampleRow is one joined crash/person row
type SampleRow struct {
	CollisionID        int64    `json:"COLLISION_ID"`
	CrashDate          string   `json:"CRASH_DATE"`
	Borough            string   `json:"BOROUGH"`
	Latitude           *float64 `json:"LATITUDE"`
	Longitude          *float64 `json:"LONGITUDE"`
	PersonsInjured     int      `json:"NUMBER OF PERSONS INJURED"`
	PersonsKilled      int      `json:"NUMBER OF PERSONS KILLED"`
	ContributingFactor string   `json:"CONTRIBUTING FACTOR VEHICLE 1"`
	VehicleType        string   `json:"VEHICLE TYPE CODE 1"`
	PersonID           string   `json:"PERSON_ID"`
	PersonType         string   `json:"PERSON_TYPE"`
	PersonInjury       string   `json:"PERSON_INJURY"`
}
