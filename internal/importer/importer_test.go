package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/crash-records-backend-go/internal/database"
	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/repository"
)

const header = "COLLISION_ID,CRASH_DATE,PERSON_ID,PERSON_TYPE,PERSON_INJURY,BOROUGH,LATITUDE,LONGITUDE," +
	"NUMBER OF PERSONS INJURED,NUMBER OF PERSONS KILLED,CONTRIBUTING FACTOR VEHICLE 1,VEHICLE TYPE CODE 1," +
	"HOUR,DAY,season,SAFETY_USED\n"

const sampleCSV = header +
	"101,2022-03-14 08:30:00,p1,Pedestrian,Injured,BROOKLYN,40.65,-73.95,1.0,0.0,Driver Inattention/Distraction,Sedan,8,0,Spring,0\n" +
	"101,2022-03-14 08:30:00,p2,Occupant,Unspecified,BROOKLYN,40.65,-73.95,1.0,0.0,Driver Inattention/Distraction,Sedan,8,0,Spring,1\n" +
	"102,2021-12-01,p3,Cyclist,Killed,QUEENS,,,0,1,Unsafe Speed,Bike,,,,\n" +
	"103,not-a-date,,Occupant,Unspecified,,0,0,0,0,,,23,Sunday,,\n" +
	",2022-01-01,p9,Occupant,Unspecified,BRONX,40.8,-73.9,0,0,,Sedan,1,1,Winter,1\n"

type fakeWriter struct {
	crashes   []models.CrashRecord
	persons   []models.PersonRecord
	batches   int
	truncated bool
	failOn    int
}

func (w *fakeWriter) InsertBatch(ctx context.Context, crashes []models.CrashRecord, persons []models.PersonRecord) error {
	w.batches++
	if w.failOn > 0 && w.batches == w.failOn {
		return errors.New("write failed")
	}
	w.crashes = append(w.crashes, crashes...)
	w.persons = append(w.persons, persons...)
	return nil
}

func (w *fakeWriter) Truncate(ctx context.Context) error {
	w.truncated = true
	return nil
}

func TestImportParsesRows(t *testing.T) {
	w := &fakeWriter{}
	res, err := New(w, Options{}).Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Rows)
	assert.Equal(t, 1, res.Skipped, "row without a collision id")
	assert.Equal(t, 3, res.Crashes)
	assert.Equal(t, 4, res.Persons)
	assert.Equal(t, 1, res.Batches)
	assert.False(t, w.truncated)

	require.Len(t, w.crashes, 3)

	c := w.crashes[0]
	assert.Equal(t, int64(101), c.CollisionID)
	assert.Equal(t, time.Date(2022, 3, 14, 8, 30, 0, 0, time.UTC), c.Timestamp)
	assert.Equal(t, "BROOKLYN", c.Borough)
	assert.True(t, c.HasLocation)
	assert.InDelta(t, 40.65, c.Latitude, 1e-9)
	assert.Equal(t, 1, c.PersonsInjured)
	assert.Equal(t, 8, c.Hour)
	assert.Equal(t, 0, c.Weekday)
	assert.Equal(t, 2022, c.Year)
	assert.Equal(t, "2022-03", c.Month)

	// Missing hour and day are derived from the date
	c = w.crashes[1]
	assert.False(t, c.HasLocation)
	assert.Equal(t, 1, c.PersonsKilled)
	assert.Equal(t, 0, c.Hour)
	assert.Equal(t, 2, c.Weekday, "2021-12-01 was a Wednesday")
	assert.Equal(t, models.SeasonWinter, c.Season)

	// Bad date keeps the row; zero coordinates mean no location
	c = w.crashes[2]
	assert.True(t, c.Timestamp.IsZero())
	assert.False(t, c.HasLocation)
	assert.Equal(t, 23, c.Hour)
	assert.Equal(t, 6, c.Weekday)
	assert.Equal(t, 0, c.Year)

	require.Len(t, w.persons, 4)
	assert.Equal(t, 0, w.persons[0].SafetyUsed)
	assert.Equal(t, 1, w.persons[1].SafetyUsed)
	assert.Equal(t, -1, w.persons[2].SafetyUsed)
	assert.Equal(t, "row-4", w.persons[3].PersonID, "blank person ids are synthesized")
}

func TestImportBatchesAndSampleRows(t *testing.T) {
	w := &fakeWriter{}
	res, err := New(w, Options{BatchSize: 1, SampleRows: 3}).Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, 2, res.Crashes)

	// Crash 101 spans two batches and is sent with each of them
	assert.Len(t, w.crashes, 3)
	assert.Len(t, w.persons, 3)
}

func TestImportTruncate(t *testing.T) {
	w := &fakeWriter{}
	_, err := New(w, Options{Truncate: true}).Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.True(t, w.truncated)
}

func TestImportErrors(t *testing.T) {
	t.Run("missing collision id column", func(t *testing.T) {
		_, err := New(&fakeWriter{}, Options{}).Import(context.Background(), strings.NewReader("CRASH_DATE,BOROUGH\n2022-01-01,BRONX\n"))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := New(&fakeWriter{}, Options{}).Import(context.Background(), strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("failed batch stops the run", func(t *testing.T) {
		w := &fakeWriter{failOn: 2}
		res, err := New(w, Options{BatchSize: 1}).Import(context.Background(), strings.NewReader(sampleCSV))
		assert.Error(t, err)
		assert.Equal(t, 1, res.Batches)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(&fakeWriter{}, Options{}).Import(ctx, strings.NewReader(sampleCSV))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := New(&fakeWriter{}, Options{}).ImportFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})
}

func TestImportClampsPersonCounts(t *testing.T) {
	input := header +
		"201,2022-01-01,p1,Occupant,Unspecified,BRONX,,,-3,1e30,,,,,,\n" +
		"202,2022-01-01,p1,Occupant,Unspecified,BRONX,,,2.0,abc,,,,,,\n"

	w := &fakeWriter{}
	_, err := New(w, Options{}).Import(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, w.crashes, 2)

	assert.Equal(t, 0, w.crashes[0].PersonsInjured)
	assert.Equal(t, 0, w.crashes[0].PersonsKilled)
	assert.Equal(t, 2, w.crashes[1].PersonsInjured)
	assert.Equal(t, 0, w.crashes[1].PersonsKilled)
}

func TestIndexColumnsIsCaseInsensitive(t *testing.T) {
	cols := indexColumns([]string{"\ufeffcollision_id", " Season ", "hour"})
	assert.Equal(t, 0, cols[ColCollisionID])
	assert.Equal(t, 1, cols[ColSeason])
	assert.Equal(t, 2, cols[ColHour])
}

func TestImportFileIntoRepository(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "crashes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	db, err := database.Open(database.Config{Path: filepath.Join(dir, "records.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	repo := repository.NewCrashRepository(db)
	ctx := context.Background()

	_, err = New(repo, Options{BatchSize: 2}).ImportFile(ctx, csvPath)
	require.NoError(t, err)

	// Importing again is a no-op
	_, err = New(repo, Options{BatchSize: 2}).ImportFile(ctx, csvPath)
	require.NoError(t, err)

	nCrashes, nPersons, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, nCrashes)
	assert.Equal(t, 4, nPersons)

	ds, err := repo.LoadDataset(ctx)
	require.NoError(t, err)
	require.Len(t, ds.Crashes, 3)
	assert.Equal(t, 8, ds.Crashes[0].Hour)
	assert.Len(t, ds.PersonsByCrash[101], 2)
}
