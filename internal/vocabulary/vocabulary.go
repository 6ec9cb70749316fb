// Package vocabulary holds the recognized category values for each filter dimension.
// A Vocabulary is immutable once built and is shared by the parser and predicate builder.
package vocabulary

import (
	"strconv"
	"strings"
)

// Dimension names
const (
	DimBorough            = "borough"
	DimYear               = "year"
	DimVehicleType        = "vehicle_type"
	DimContributingFactor = "contributing_factor"
	DimPersonType         = "person_type"
	DimInjuryType         = "injury_type"
)

// Dimensions lists every filter dimension in FilterSpec order
var Dimensions = []string{
	DimBorough, DimYear, DimVehicleType, DimContributingFactor, DimPersonType, DimInjuryType,
}

// Supported year range for free-text year matching
const (
	MinYear = 2012
	MaxYear = 2025
)

// Person types
const (
	PersonPedestrian = "Pedestrian"
	PersonCyclist    = "Cyclist"
	PersonOccupant   = "Occupant"
	PersonUnknown    = "Unknown"
)

// Injury statuses
const (
	InjuryKilled      = "Killed"
	InjuryInjured     = "Injured"
	InjuryUnspecified = "Unspecified"
)

var defaultBoroughs = []string{"Bronx", "Brooklyn", "Manhattan", "Queens", "Staten Island"}

var defaultVehicleTypes = []string{
	"Sedan",
	"Station Wagon/Sport Utility Vehicle",
	"Taxi",
	"Pick-up Truck",
	"Box Truck",
	"Bus",
	"Bike",
	"E-Bike",
	"Motorcycle",
	"Ambulance",
	"Tractor Truck Diesel",
	"Van",
}

var defaultFactors = []string{
	"Driver Inattention/Distraction",
	"Failure to Yield Right-of-Way",
	"Following Too Closely",
	"Unsafe Speed",
	"Backing Unsafely",
	"Passing or Lane Usage Improper",
	"Passing Too Closely",
	"Traffic Control Disregarded",
	"Alcohol Involvement",
	"Unsafe Lane Changing",
	"Turning Improperly",
	"Driver Inexperience",
	"Unspecified",
}

var defaultPersonTypes = []string{PersonPedestrian, PersonCyclist, PersonOccupant}

var defaultInjuryTypes = []string{InjuryKilled, InjuryInjured, InjuryUnspecified}

// defaultSynonyms maps free-text keywords to canonical values per dimension
var defaultSynonyms = map[string]map[string]string{
	DimBorough: {
		"the bronx": "Bronx",
		"staten":    "Staten Island",
	},
	DimVehicleType: {
		"suv":       "Station Wagon/Sport Utility Vehicle",
		"cab":       "Taxi",
		"pickup":    "Pick-up Truck",
		"motorbike": "Motorcycle",
		"ebike":     "E-Bike",
	},
	DimContributingFactor: {
		"speeding":    "Unsafe Speed",
		"distracted":  "Driver Inattention/Distraction",
		"distraction": "Driver Inattention/Distraction",
		"drunk":       "Alcohol Involvement",
		"tailgating":  "Following Too Closely",
	},
	DimPersonType: {
		"pedestrian": PersonPedestrian,
		"walker":     PersonPedestrian,
		"cyclist":    PersonCyclist,
		"bicyclist":  PersonCyclist,
		"bicycle":    PersonCyclist,
		"bike":       PersonCyclist,
		"driver":     PersonOccupant,
		"motorist":   PersonOccupant,
		"occupant":   PersonOccupant,
		"passenger":  PersonOccupant,
	},
	DimInjuryType: {
		"killed":     InjuryKilled,
		"fatal":      InjuryKilled,
		"fatality":   InjuryKilled,
		"fatalities": InjuryKilled,
		"death":      InjuryKilled,
		"died":       InjuryKilled,
		"injured":    InjuryInjured,
		"injury":     InjuryInjured,
		"injuries":   InjuryInjured,
		"hurt":       InjuryInjured,
	},
}

// Vocabulary is a read-only set of recognized values per dimension
type Vocabulary struct {
	values   map[string][]string          // dimension -> canonical values, in insertion order
	index    map[string]map[string]string // dimension -> lower(value) -> canonical
	synonyms map[string]map[string]string // dimension -> keyword -> canonical
}

// Default returns the static vocabulary tables
func Default() *Vocabulary {
	years := make([]string, 0, MaxYear-MinYear+1)
	for y := MinYear; y <= MaxYear; y++ {
		years = append(years, strconv.Itoa(y))
	}

	return build(map[string][]string{
		DimBorough:            defaultBoroughs,
		DimYear:               years,
		DimVehicleType:        defaultVehicleTypes,
		DimContributingFactor: defaultFactors,
		DimPersonType:         defaultPersonTypes,
		DimInjuryType:         defaultInjuryTypes,
	}, defaultSynonyms)
}

func build(values map[string][]string, synonyms map[string]map[string]string) *Vocabulary {
	v := &Vocabulary{
		values:   make(map[string][]string, len(Dimensions)),
		index:    make(map[string]map[string]string, len(Dimensions)),
		synonyms: make(map[string]map[string]string, len(synonyms)),
	}
	for _, dim := range Dimensions {
		v.index[dim] = make(map[string]string)
		for _, val := range values[dim] {
			v.add(dim, val)
		}
	}
	for dim, syn := range synonyms {
		m := make(map[string]string, len(syn))
		for k, canonical := range syn {
			m[strings.ToLower(k)] = canonical
		}
		v.synonyms[dim] = m
	}
	return v
}

func (v *Vocabulary) add(dim, val string) {
	val = strings.TrimSpace(val)
	if val == "" || strings.EqualFold(val, "All") {
		return
	}
	key := strings.ToLower(val)
	if _, exists := v.index[dim][key]; exists {
		return
	}
	v.index[dim][key] = val
	v.values[dim] = append(v.values[dim], val)
}

// Merge returns a new Vocabulary extended with observed values per dimension.
// Values already known (case-insensitively) keep their existing canonical spelling.
// The receiver is not modified.
func (v *Vocabulary) Merge(observed map[string][]string) *Vocabulary {
	merged := make(map[string][]string, len(Dimensions))
	for _, dim := range Dimensions {
		vals := make([]string, 0, len(v.values[dim])+len(observed[dim]))
		vals = append(vals, v.values[dim]...)
		vals = append(vals, observed[dim]...)
		merged[dim] = vals
	}

	syn := make(map[string]map[string]string, len(v.synonyms))
	for dim, m := range v.synonyms {
		syn[dim] = m
	}
	return build(merged, syn)
}

// Values returns a copy of the canonical values of a dimension
func (v *Vocabulary) Values(dim string) []string {
	out := make([]string, len(v.values[dim]))
	copy(out, v.values[dim])
	return out
}

// Canonical resolves a value case-insensitively to its canonical spelling.
// Synonyms are accepted too. ok is false for unrecognized values.
func (v *Vocabulary) Canonical(dim, val string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(val))
	if key == "" {
		return "", false
	}
	if c, ok := v.index[dim][key]; ok {
		return c, true
	}
	if c, ok := v.synonyms[dim][key]; ok {
		return c, true
	}
	return "", false
}

// Terms returns every matchable phrase of a dimension (values and synonyms),
// lower-cased and mapped to its canonical value. A phrase that is both a value
// and a synonym resolves to the value, as in Canonical.
func (v *Vocabulary) Terms(dim string) map[string]string {
	terms := make(map[string]string, len(v.index[dim])+len(v.synonyms[dim]))
	for k, c := range v.synonyms[dim] {
		terms[k] = c
	}
	for k, c := range v.index[dim] {
		terms[k] = c
	}
	return terms
}
