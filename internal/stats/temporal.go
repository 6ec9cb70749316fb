package stats

import (
	"math"

	"github.com/jengzang/crash-records-backend-go/internal/models"
)

// Fallback weights applied to the hour marginal when no weekday data exists
const (
	weekdayWeight = 1.1
	weekendWeight = 0.9
	estimatedPeak = 100.0
)

// BuildHourWeekdayMatrix cross-tabulates crashes by weekday and hour.
//
// When at least one crash carries a weekday the matrix is measured: each crash with
// both weekday and hour increments its cell. When crashes carry hours but no weekday
// at all, the matrix is estimated from the hour marginal (weekdays weighted 1.1,
// weekends 0.9) and rescaled so the busiest cell is 100. An empty input yields an
// all-zero measured matrix.
func BuildHourWeekdayMatrix(crashes []*models.CrashRecord) models.HourWeekdayMatrix {
	m := models.NewHourWeekdayMatrix()

	var hourCounts [24]int
	hasHour, hasWeekday := false, false

	for _, c := range crashes {
		validHour := c.Hour >= 0 && c.Hour < 24
		validDay := c.Weekday >= 0 && c.Weekday < 7
		if validHour {
			hasHour = true
			hourCounts[c.Hour]++
		}
		if validDay {
			hasWeekday = true
		}
		if validHour && validDay {
			m.Cells[c.Weekday][c.Hour]++
		}
	}

	if hasWeekday || !hasHour {
		return m
	}

	return estimateFromHours(hourCounts)
}

func estimateFromHours(hourCounts [24]int) models.HourWeekdayMatrix {
	m := models.NewHourWeekdayMatrix()
	m.Estimated = true
	m.Mode = models.MatrixModeEstimated

	var raw [7][24]float64
	peak := 0.0
	for d := 0; d < 7; d++ {
		w := weekdayWeight
		if d >= 5 {
			w = weekendWeight
		}
		for h := 0; h < 24; h++ {
			raw[d][h] = float64(hourCounts[h]) * w
			if raw[d][h] > peak {
				peak = raw[d][h]
			}
		}
	}

	if peak == 0 {
		return m
	}

	for d := range raw {
		for h := range raw[d] {
			m.Cells[d][h] = int(math.Round(raw[d][h] / peak * estimatedPeak))
		}
	}
	return m
}
