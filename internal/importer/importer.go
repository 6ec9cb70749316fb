// Package importer loads the cleaned collision CSV (one row per person involved)
// into the record store, splitting each row into its crash and person parts.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/crash-records-backend-go/internal/metrics"
	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/repository"
)

// CSV columns
const (
	ColCollisionID   = "COLLISION_ID"
	ColCrashDate     = "CRASH_DATE"
	ColPersonID      = "PERSON_ID"
	ColPersonType    = "PERSON_TYPE"
	ColPersonInjury  = "PERSON_INJURY"
	ColBorough       = "BOROUGH"
	ColLatitude      = "LATITUDE"
	ColLongitude     = "LONGITUDE"
	ColInjured       = "NUMBER OF PERSONS INJURED"
	ColKilled        = "NUMBER OF PERSONS KILLED"
	ColFactor        = "CONTRIBUTING FACTOR VEHICLE 1"
	ColVehicleType   = "VEHICLE TYPE CODE 1"
	ColHour          = "HOUR"
	ColDay           = "DAY"
	ColSeason        = "SEASON"
	ColSafetyUsed    = "SAFETY_USED"
	DefaultBatchSize = 5000
)

// ErrMissingColumn is returned when the header lacks COLLISION_ID
var ErrMissingColumn = errors.New("missing required column")

// Writer persists parsed records
type Writer interface {
	InsertBatch(ctx context.Context, crashes []models.CrashRecord, persons []models.PersonRecord) error
	Truncate(ctx context.Context) error
}

// Options configures an import run
type Options struct {
	SampleRows int  // Stop after this many data rows, 0 = all
	BatchSize  int  // Person rows per transaction
	Truncate   bool // Delete existing records first
}

// Result summarizes an import run
type Result struct {
	Rows     int // Data rows read
	Skipped  int // Malformed rows or rows without a collision ID
	Crashes  int // Distinct crashes written
	Persons  int // Person rows written
	Batches  int
	Duration time.Duration
}

// Importer streams CSV rows into a Writer in fixed-size transactions
type Importer struct {
	w    Writer
	opts Options
}

// New creates an importer
func New(w Writer, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Importer{w: w, opts: opts}
}

// ImportFile imports the CSV file at path
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return im.Import(ctx, f)
}

// Import reads CSV from r. Rows that fail to parse are skipped and counted.
// Each batch is written in its own transaction; a failed batch stops the run.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	start := time.Now()
	var res Result

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols[ColCollisionID]; !ok {
		return res, fmt.Errorf("%w: %s", ErrMissingColumn, ColCollisionID)
	}

	if im.opts.Truncate {
		if err := im.w.Truncate(ctx); err != nil {
			return res, fmt.Errorf("failed to truncate: %w", err)
		}
		log.Printf("[Importer] existing records deleted")
	}

	b := newBatch()
	seen := make(map[int64]struct{})

	flush := func() error {
		if b.empty() {
			return nil
		}
		if err := im.w.InsertBatch(ctx, b.crashes, b.persons); err != nil {
			return fmt.Errorf("batch %d: %w", res.Batches+1, err)
		}
		res.Batches++
		res.Persons += len(b.persons)
		metrics.ImportedRows.WithLabelValues("imported").Add(float64(len(b.persons)))
		log.Printf("[Importer] batch %d: %d crashes, %d persons (total %d rows)",
			res.Batches, len(b.crashes), len(b.persons), res.Rows)
		b = newBatch()
		return nil
	}

	for {
		if im.opts.SampleRows > 0 && res.Rows >= im.opts.SampleRows {
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Rows++
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("failed to read CSV: %w", err)
		}
		res.Rows++

		row := rowView{cols: cols, record: record}
		crash, person, ok := parseRow(row, res.Rows)
		if !ok {
			res.Skipped++
			continue
		}

		seen[crash.CollisionID] = struct{}{}
		b.add(crash, person)

		if len(b.persons) >= im.opts.BatchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}

	if err := flush(); err != nil {
		return res, err
	}

	res.Crashes = len(seen)
	res.Duration = time.Since(start)
	metrics.ImportedRows.WithLabelValues("skipped").Add(float64(res.Skipped))

	return res, nil
}

// batch accumulates rows; a crash appears once per batch
type batch struct {
	crashes []models.CrashRecord
	persons []models.PersonRecord
	inBatch map[int64]struct{}
}

func newBatch() *batch {
	return &batch{inBatch: make(map[int64]struct{})}
}

func (b *batch) add(c models.CrashRecord, p models.PersonRecord) {
	if _, ok := b.inBatch[c.CollisionID]; !ok {
		b.inBatch[c.CollisionID] = struct{}{}
		b.crashes = append(b.crashes, c)
	}
	b.persons = append(b.persons, p)
}

func (b *batch) empty() bool {
	return len(b.crashes) == 0 && len(b.persons) == 0
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, exists := cols[key]; !exists {
			cols[key] = i
		}
	}
	return cols
}

// rowView reads a record by column name
type rowView struct {
	cols   map[string]int
	record []string
}

func (r rowView) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	v := strings.TrimSpace(r.record[i])
	switch strings.ToLower(v) {
	case "nan", "null", "none":
		return ""
	}
	return v
}

// int parses integer columns, accepting the "3.0" form pandas writes.
// ok is false for empty or invalid values.
func (r rowView) int(col string) (int, bool) {
	v := r.get(col)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// count parses a person count; negative or invalid values read as 0
func (r rowView) count(col string) int {
	n, ok := r.int(col)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func (r rowView) float(col string) (float64, bool) {
	v := r.get(col)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var weekdayByName = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3, "friday": 4, "saturday": 5, "sunday": 6,
	"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6,
}

// parseRow splits one CSV row. rowNum names persons whose PERSON_ID is blank.
func parseRow(r rowView, rowNum int) (models.CrashRecord, models.PersonRecord, bool) {
	id, ok := r.int(ColCollisionID)
	if !ok || id <= 0 {
		return models.CrashRecord{}, models.PersonRecord{}, false
	}
	collisionID := int64(id)

	c := models.CrashRecord{
		CollisionID:        collisionID,
		Borough:            r.get(ColBorough),
		ContributingFactor: r.get(ColFactor),
		VehicleType:        r.get(ColVehicleType),
		Season:             r.get(ColSeason),
		Hour:               -1,
		Weekday:            -1,
	}

	// Unparseable dates leave the crash undated rather than dropping the row
	c.Timestamp, _ = repository.ParseCrashDate(r.get(ColCrashDate))

	lat, latOK := r.float(ColLatitude)
	lon, lonOK := r.float(ColLongitude)
	if latOK && lonOK && (lat != 0 || lon != 0) {
		c.Latitude, c.Longitude, c.HasLocation = lat, lon, true
	}

	c.PersonsInjured = r.count(ColInjured)
	c.PersonsKilled = r.count(ColKilled)

	if h, ok := r.int(ColHour); ok && h >= 0 && h <= 23 {
		c.Hour = h
	}
	if d, ok := r.int(ColDay); ok && d >= 0 && d <= 6 {
		c.Weekday = d
	} else if d, ok := weekdayByName[strings.ToLower(r.get(ColDay))]; ok {
		c.Weekday = d
	}
	c.Derive()

	p := models.PersonRecord{
		PersonID:     r.get(ColPersonID),
		CollisionID:  collisionID,
		PersonType:   r.get(ColPersonType),
		InjuryStatus: r.get(ColPersonInjury),
		SafetyUsed:   -1,
	}
	if p.PersonID == "" {
		p.PersonID = fmt.Sprintf("row-%d", rowNum)
	}
	if s, ok := r.int(ColSafetyUsed); ok && (s == 0 || s == 1) {
		p.SafetyUsed = s
	}

	return c, p, true
}
