package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/testutil"
)

func selectAll(ds *models.Dataset) ([]*models.CrashRecord, []*models.PersonRecord) {
	crashes := make([]*models.CrashRecord, len(ds.Crashes))
	for i := range ds.Crashes {
		crashes[i] = &ds.Crashes[i]
	}
	persons := make([]*models.PersonRecord, len(ds.Persons))
	for i := range ds.Persons {
		persons[i] = &ds.Persons[i]
	}
	return crashes, persons
}

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func TestAggregateSampleDataset(t *testing.T) {
	crashes, persons := selectAll(testutil.SampleDataset())

	r := Aggregate(crashes, persons, Options{})

	assert.Equal(t, 7, r.TotalCrashes)
	assert.Equal(t, 9, r.TotalPersons)
	assert.Equal(t, 5, r.TotalInjuries)
	assert.Equal(t, 1, r.TotalDeaths)

	t.Run("crash-level maps", func(t *testing.T) {
		wantBorough := map[string]int{
			"Brooklyn": 2, "Queens": 1, "Manhattan": 1, "Bronx": 1, "Staten Island": 1, "Unknown": 1,
		}
		if diff := cmp.Diff(wantBorough, r.ByBorough); diff != "" {
			t.Errorf("ByBorough mismatch (-want +got):\n%s", diff)
		}

		wantVehicle := map[string]int{"Sedan": 4, "Taxi": 1, "Bike": 1, "Unknown": 1}
		if diff := cmp.Diff(wantVehicle, r.ByVehicle); diff != "" {
			t.Errorf("ByVehicle mismatch (-want +got):\n%s", diff)
		}

		wantSeason := map[string]int{"Spring": 2, "Summer": 2, "Winter": 2, "Fall": 1}
		if diff := cmp.Diff(wantSeason, r.BySeason); diff != "" {
			t.Errorf("BySeason mismatch (-want +got):\n%s", diff)
		}

		assert.Equal(t, 2, r.ByHour["8"])
		assert.Equal(t, 2, r.ByFactor["Unsafe Speed"])
		assert.Equal(t, 1, r.ByMonth["2021-12"])

		for name, m := range map[string]map[string]int{
			"borough": r.ByBorough, "vehicle": r.ByVehicle, "season": r.BySeason,
			"month": r.ByMonth, "hour": r.ByHour, "factor": r.ByFactor,
		} {
			assert.Equal(t, r.TotalCrashes, sum(m), name)
		}
	})

	t.Run("person-level maps", func(t *testing.T) {
		wantPersonType := map[string]int{"Occupant": 5, "Pedestrian": 2, "Cyclist": 1, "Unknown": 1}
		if diff := cmp.Diff(wantPersonType, r.ByPersonType); diff != "" {
			t.Errorf("ByPersonType mismatch (-want +got):\n%s", diff)
		}
		wantInjury := map[string]int{"Injured": 4, "Unspecified": 3, "Killed": 1, "Unknown": 1}
		if diff := cmp.Diff(wantInjury, r.ByInjury); diff != "" {
			t.Errorf("ByInjury mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("safety stats", func(t *testing.T) {
		assert.Equal(t, models.SafetyStats{Used: 4, NotUsed: 2}, r.SafetyStats)
	})

	t.Run("matrix is measured", func(t *testing.T) {
		assert.False(t, r.ByDayHour.Estimated)
		assert.Equal(t, 2, r.ByDayHour.Cells[0][8])
		assert.Equal(t, 2, r.ByDayHour.Max())
	})
}

func TestAggregateEmpty(t *testing.T) {
	r := Aggregate(nil, nil, Options{})

	assert.Zero(t, r.TotalCrashes)
	assert.Zero(t, r.TotalPersons)
	assert.NotNil(t, r.ByBorough)
	assert.Empty(t, r.ByBorough)
	assert.NotNil(t, r.ByFactor)
	assert.NotNil(t, r.GeoData)
	assert.Empty(t, r.GeoData)
	assert.Equal(t, models.NewHourWeekdayMatrix(), r.ByDayHour)
}

func TestAggregateCountsDistinctCrashes(t *testing.T) {
	c := testutil.Crash(1, "Queens", testutil.SampleCrashes()[0].Timestamp, 0, 0, 1, 0, "", "Sedan")
	c.Derive()

	r := Aggregate([]*models.CrashRecord{&c, &c}, nil, Options{})
	assert.Equal(t, 1, r.TotalCrashes)
	assert.Equal(t, 1, r.TotalInjuries)
	assert.Equal(t, 1, r.ByBorough["Queens"])
}

func TestAggregateTopFactors(t *testing.T) {
	var crashes []*models.CrashRecord
	factors := []string{"A", "A", "A", "B", "B", "C", "D", "D"}
	for i, f := range factors {
		c := testutil.Crash(int64(i+1), "Queens", testutil.SampleCrashes()[0].Timestamp, 0, 0, 0, 0, f, "Sedan")
		crashes = append(crashes, &c)
	}

	r := Aggregate(crashes, nil, Options{TopFactors: 2})
	assert.Equal(t, map[string]int{"A": 3, "B": 2}, r.ByFactor)
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"b": 3, "a": 3, "c": 1, "d": 2}

	assert.Equal(t, map[string]int{"a": 3, "b": 3}, TopN(counts, 2))
	assert.Equal(t, counts, TopN(counts, 0))
	require.Len(t, counts, 4, "input must not be modified")

	assert.Equal(t, []string{"a", "b", "d", "c"}, RankedKeys(counts))
}
