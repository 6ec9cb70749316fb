// Package testutil provides shared fixtures for engine, service and handler tests.
package testutil

import (
	"time"

	"github.com/jengzang/crash-records-backend-go/internal/models"
)

// Crash builds a crash with unknown derived fields, ready for models.NewDataset
func Crash(id int64, borough string, ts time.Time, lat, lon float64, injured, killed int, factor, vehicle string) models.CrashRecord {
	return models.CrashRecord{
		CollisionID:        id,
		Timestamp:          ts,
		Borough:            borough,
		Latitude:           lat,
		Longitude:          lon,
		HasLocation:        lat != 0 || lon != 0,
		PersonsInjured:     injured,
		PersonsKilled:      killed,
		ContributingFactor: factor,
		VehicleType:        vehicle,
		Hour:               -1,
		Weekday:            -1,
	}
}

// Person builds a person record
func Person(id string, collisionID int64, personType, injury string, safety int) models.PersonRecord {
	return models.PersonRecord{
		PersonID:     id,
		CollisionID:  collisionID,
		PersonType:   personType,
		InjuryStatus: injury,
		SafetyUsed:   safety,
	}
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// SampleCrashes returns the raw crash rows of the sample dataset.
//
//	1 Brooklyn  2022-03-14 08:30 Mon  dense cluster
//	2 Brooklyn  2022-07-16 17:10 Sat  dense cluster
//	3 Queens    2021-12-01 23:45 Wed  isolated
//	4 Manhattan 2022-10-05 12:00 Wed  isolated
//	5 (none)    2023-01-20 03:15 Fri  no coordinates
//	6 Bronx     2022-05-09 08:05 Mon  dense cluster
//	7 Staten Is 2020-08-01 14:00 Sat  outside the NYC box
//	8 Queens    2022-02-02 10:00 Wed  no persons, dropped on load
func SampleCrashes() []models.CrashRecord {
	return []models.CrashRecord{
		Crash(1, "Brooklyn", at(2022, time.March, 14, 8, 30), 40.650, -73.950, 1, 0, "Driver Inattention/Distraction", "Sedan"),
		Crash(2, "Brooklyn", at(2022, time.July, 16, 17, 10), 40.651, -73.951, 2, 0, "Unsafe Speed", "Taxi"),
		Crash(3, "Queens", at(2021, time.December, 1, 23, 45), 40.720, -73.800, 0, 1, "Unsafe Speed", "Sedan"),
		Crash(4, "Manhattan", at(2022, time.October, 5, 12, 0), 40.780, -73.970, 1, 0, "Unspecified", "Bike"),
		Crash(5, "", at(2023, time.January, 20, 3, 15), 0, 0, 0, 0, "", ""),
		Crash(6, "Bronx", at(2022, time.May, 9, 8, 5), 40.652, -73.949, 1, 0, "Following Too Closely", "Sedan"),
		Crash(7, "Staten Island", at(2020, time.August, 1, 14, 0), 41.500, -74.200, 0, 0, "Unspecified", "Sedan"),
		Crash(8, "Queens", at(2022, time.February, 2, 10, 0), 40.700, -73.900, 0, 0, "Unspecified", "Sedan"),
	}
}

// SamplePersons returns the person rows of the sample dataset
func SamplePersons() []models.PersonRecord {
	return []models.PersonRecord{
		Person("p1", 1, "Occupant", "Injured", 1),
		Person("p2", 1, "Pedestrian", "Unspecified", -1),
		Person("p3", 2, "Occupant", "Injured", 1),
		Person("p4", 2, "Occupant", "Injured", 0),
		Person("p5", 3, "Pedestrian", "Killed", -1),
		Person("p6", 4, "Cyclist", "Injured", 0),
		Person("p7", 5, "", "", -1),
		Person("p8", 6, "Occupant", "Unspecified", 1),
		Person("p9", 7, "Occupant", "Unspecified", 1),
	}
}

// SampleDataset returns the assembled sample snapshot: 7 crashes, 9 persons,
// 5 injuries and 1 death.
func SampleDataset() *models.Dataset {
	return models.NewDataset(SampleCrashes(), SamplePersons())
}
