package models

// GeoPoint is a crash location annotated for the map layer
type GeoPoint struct {
	Lat         float64 `json:"LATITUDE"`
	Lng         float64 `json:"LONGITUDE"`
	Borough     string  `json:"BOROUGH"`
	VehicleType string  `json:"VEHICLE_TYPE"`
	InjuryType  string  `json:"INJURY_TYPE"`
	Hour        *int    `json:"HOUR"`
	CrashDate   string  `json:"CRASH_DATE,omitempty"`
	Density     float64 `json:"density"` // Normalized 0-1 neighbour density
}
