package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WildcardValue is the explicit "no filter" value sent by the frontend dropdowns
const WildcardValue = "All"

// FilterSpec holds one optional exact-match constraint per dimension.
// An empty value (or "All") is a wildcard.
type FilterSpec struct {
	Borough            string `json:"borough,omitempty" form:"borough"`
	Year               string `json:"year,omitempty" form:"year"`
	VehicleType        string `json:"vehicle_type,omitempty" form:"vehicle_type"`
	ContributingFactor string `json:"contributing_factor,omitempty" form:"contributing_factor"`
	PersonType         string `json:"person_type,omitempty" form:"person_type"`
	InjuryType         string `json:"injury_type,omitempty" form:"injury_type"`
}

// UnmarshalJSON accepts year as a string or a JSON number
func (f *FilterSpec) UnmarshalJSON(data []byte) error {
	type plain FilterSpec
	aux := struct {
		*plain
		Year json.RawMessage `json:"year,omitempty"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	year, err := yearValue(aux.Year)
	if err != nil {
		return err
	}
	f.Year = year
	return nil
}

func yearValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("year must be a string or number: %s", raw)
	}
	if n != math.Trunc(n) {
		return "", fmt.Errorf("year must be a whole number: %s", raw)
	}
	return strconv.FormatInt(int64(n), 10), nil
}

// IsWildcard reports whether a single constraint value means "no filter"
func IsWildcard(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, WildcardValue)
}

// IsEmpty reports whether every dimension is a wildcard
func (f FilterSpec) IsEmpty() bool {
	return IsWildcard(f.Borough) && IsWildcard(f.Year) && IsWildcard(f.VehicleType) &&
		IsWildcard(f.ContributingFactor) && IsWildcard(f.PersonType) && IsWildcard(f.InjuryType)
}

// Key returns a canonical string form, usable as a cache key
func (f FilterSpec) Key() string {
	parts := []string{f.Borough, f.Year, f.VehicleType, f.ContributingFactor, f.PersonType, f.InjuryType}
	for i, p := range parts {
		if IsWildcard(p) {
			parts[i] = "*"
		} else {
			parts[i] = strings.ToLower(strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, "|")
}

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse wraps the parsed filter
type SearchResponse struct {
	Filters FilterSpec `json:"filters"`
}
