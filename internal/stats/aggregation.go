package stats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jengzang/crash-records-backend-go/internal/models"
)

// DefaultTopFactors is the number of contributing factors kept in ByFactor
const DefaultTopFactors = 10

// Options tunes the aggregation pipeline
type Options struct {
	TopFactors int // <= 0 uses DefaultTopFactors
}

// Aggregate reduces the selected crashes and persons to a StatsResult.
// GeoData is left empty; the caller attaches density-scored points.
// Inputs are read, never modified.
func Aggregate(crashes []*models.CrashRecord, persons []*models.PersonRecord, opts Options) *models.StatsResult {
	topN := opts.TopFactors
	if topN <= 0 {
		topN = DefaultTopFactors
	}

	result := &models.StatsResult{
		ByBorough:    make(map[string]int),
		ByVehicle:    make(map[string]int),
		BySeason:     make(map[string]int),
		ByMonth:      make(map[string]int),
		ByHour:       make(map[string]int),
		ByPersonType: make(map[string]int),
		ByInjury:     make(map[string]int),
		GeoData:      []models.GeoPoint{},
	}

	factors := make(map[string]int)
	seen := make(map[int64]struct{}, len(crashes))

	for _, c := range crashes {
		if _, dup := seen[c.CollisionID]; dup {
			continue
		}
		seen[c.CollisionID] = struct{}{}

		result.TotalInjuries += c.PersonsInjured
		result.TotalDeaths += c.PersonsKilled

		result.ByBorough[label(c.Borough)]++
		result.ByVehicle[label(c.VehicleType)]++
		result.BySeason[label(c.Season)]++
		result.ByMonth[label(c.Month)]++
		result.ByHour[hourLabel(c.Hour)]++
		factors[label(c.ContributingFactor)]++
	}
	result.TotalCrashes = len(seen)
	result.ByFactor = TopN(factors, topN)

	result.TotalPersons = len(persons)
	for _, p := range persons {
		result.ByPersonType[label(p.PersonType)]++
		result.ByInjury[label(p.InjuryStatus)]++
	}
	result.SafetyStats = safetyStats(persons)

	result.ByDayHour = BuildHourWeekdayMatrix(crashes)

	return result
}

// safetyStats counts distinct person IDs by safety equipment usage.
// The first record of a repeated person ID decides its bucket.
func safetyStats(persons []*models.PersonRecord) models.SafetyStats {
	var s models.SafetyStats
	seen := make(map[string]struct{}, len(persons))
	for _, p := range persons {
		if _, dup := seen[p.PersonID]; dup {
			continue
		}
		seen[p.PersonID] = struct{}{}
		switch p.SafetyUsed {
		case 1:
			s.Used++
		case 0:
			s.NotUsed++
		}
	}
	return s
}

// TopN keeps the n largest buckets, ordered by count descending then label ascending.
// The input map is not modified.
func TopN(counts map[string]int, n int) map[string]int {
	keys := RankedKeys(counts)
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	out := make(map[string]int, len(keys))
	for _, k := range keys {
		out[k] = counts[k]
	}
	return out
}

// RankedKeys returns the map keys by count descending, ties by label ascending
func RankedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return models.UnknownLabel
	}
	return v
}

func hourLabel(h int) string {
	if h < 0 || h > 23 {
		return models.UnknownLabel
	}
	return strconv.Itoa(h)
}
