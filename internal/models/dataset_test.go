package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFillsUnknownFields(t *testing.T) {
	c := CrashRecord{
		Timestamp: time.Date(2022, time.July, 16, 17, 10, 0, 0, time.UTC),
		Hour:      -1,
		Weekday:   -1,
	}
	c.Derive()

	assert.Equal(t, 17, c.Hour)
	assert.Equal(t, 5, c.Weekday) // Saturday
	assert.Equal(t, 2022, c.Year)
	assert.Equal(t, "2022-07", c.Month)
	assert.Equal(t, SeasonSummer, c.Season)
}

func TestDeriveKeepsExplicitColumns(t *testing.T) {
	c := CrashRecord{
		Timestamp: time.Date(2022, time.July, 16, 17, 10, 0, 0, time.UTC),
		Hour:      9,
		Weekday:   0,
		Season:    SeasonFall,
	}
	c.Derive()

	assert.Equal(t, 9, c.Hour)
	assert.Equal(t, 0, c.Weekday)
	assert.Equal(t, SeasonFall, c.Season)
}

func TestDeriveWithoutTimestamp(t *testing.T) {
	c := CrashRecord{Hour: 30, Weekday: -1}
	c.Derive()

	assert.Equal(t, -1, c.Hour)
	assert.Equal(t, -1, c.Weekday)
	assert.Zero(t, c.Year)
	assert.Empty(t, c.Month)
}

func TestNewDataset(t *testing.T) {
	crashes := []CrashRecord{
		{CollisionID: 3, Hour: -1, Weekday: -1, Borough: "Queens"},
		{CollisionID: 1, Hour: -1, Weekday: -1, Borough: "Brooklyn"},
		{CollisionID: 1, Hour: -1, Weekday: -1, Borough: "Duplicate"},
		{CollisionID: 2, Hour: -1, Weekday: -1}, // no persons
	}
	persons := []PersonRecord{
		{PersonID: "a", CollisionID: 1},
		{PersonID: "b", CollisionID: 3},
		{PersonID: "c", CollisionID: 3},
		{PersonID: "orphan", CollisionID: 99},
	}

	ds := NewDataset(crashes, persons)

	require.Len(t, ds.Crashes, 2)
	assert.Equal(t, int64(1), ds.Crashes[0].CollisionID)
	assert.Equal(t, "Brooklyn", ds.Crashes[0].Borough)
	assert.Equal(t, int64(3), ds.Crashes[1].CollisionID)
	assert.Len(t, ds.Persons, 3)
	assert.Len(t, ds.PersonsByCrash[3], 2)
	assert.NotContains(t, ds.PersonsByCrash, int64(2))
}

func TestSeasonForMonth(t *testing.T) {
	assert.Equal(t, SeasonWinter, SeasonForMonth(time.December))
	assert.Equal(t, SeasonWinter, SeasonForMonth(time.February))
	assert.Equal(t, SeasonSpring, SeasonForMonth(time.April))
	assert.Equal(t, SeasonSummer, SeasonForMonth(time.August))
	assert.Equal(t, SeasonFall, SeasonForMonth(time.November))
}

func TestFilterSpecKey(t *testing.T) {
	a := FilterSpec{Borough: "Brooklyn", Year: "All"}
	b := FilterSpec{Borough: " brooklyn "}
	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, FilterSpec{Borough: "all"}.IsEmpty())
	assert.False(t, a.IsEmpty())
}
