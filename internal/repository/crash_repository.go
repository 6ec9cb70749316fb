package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jengzang/crash-records-backend-go/internal/database"
	"github.com/jengzang/crash-records-backend-go/internal/models"
)

// StoredDateLayout is the format crash_date is written in
const StoredDateLayout = time.RFC3339

// dateLayouts are tried in order when reading crash_date
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseCrashDate parses the date formats found in the collision exports.
// Empty input yields the zero time.
func ParseCrashDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized crash date %q", s)
}

// CrashRepository handles database operations for crash and person records
type CrashRepository struct {
	db *database.DB
}

// NewCrashRepository creates a new crash repository
func NewCrashRepository(db *database.DB) *CrashRepository {
	return &CrashRepository{db: db}
}

// LoadCrashes reads every crash row. Unparseable dates load as unknown.
func (r *CrashRepository) LoadCrashes(ctx context.Context) ([]models.CrashRecord, error) {
	query := `SELECT collision_id, crash_date, borough, latitude, longitude,
		persons_injured, persons_killed, contributing_factor, vehicle_type, hour, day, season
		FROM crashes ORDER BY collision_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query crashes: %w", err)
	}
	defer rows.Close()

	var crashes []models.CrashRecord
	for rows.Next() {
		var c models.CrashRecord
		var crashDate string
		var lat, lon sql.NullFloat64
		var hour, day sql.NullInt64

		err := rows.Scan(
			&c.CollisionID, &crashDate, &c.Borough, &lat, &lon,
			&c.PersonsInjured, &c.PersonsKilled, &c.ContributingFactor, &c.VehicleType,
			&hour, &day, &c.Season,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crash: %w", err)
		}

		c.Timestamp, _ = ParseCrashDate(crashDate)
		if lat.Valid && lon.Valid {
			c.Latitude, c.Longitude, c.HasLocation = lat.Float64, lon.Float64, true
		}
		c.Hour, c.Weekday = -1, -1
		if hour.Valid {
			c.Hour = int(hour.Int64)
		}
		if day.Valid {
			c.Weekday = int(day.Int64)
		}

		crashes = append(crashes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crashes: %w", err)
	}

	return crashes, nil
}

// LoadPersons reads every person row in insertion order
func (r *CrashRepository) LoadPersons(ctx context.Context) ([]models.PersonRecord, error) {
	query := `SELECT person_id, collision_id, person_type, person_injury, safety_used
		FROM persons ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	var persons []models.PersonRecord
	for rows.Next() {
		var p models.PersonRecord
		var safety sql.NullInt64
		if err := rows.Scan(&p.PersonID, &p.CollisionID, &p.PersonType, &p.InjuryStatus, &safety); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		p.SafetyUsed = -1
		if safety.Valid {
			p.SafetyUsed = int(safety.Int64)
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}

	return persons, nil
}

// LoadDataset reads both tables and assembles a snapshot
func (r *CrashRepository) LoadDataset(ctx context.Context) (*models.Dataset, error) {
	crashes, err := r.LoadCrashes(ctx)
	if err != nil {
		return nil, err
	}
	persons, err := r.LoadPersons(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewDataset(crashes, persons), nil
}

// Counts returns the number of crash and person rows
func (r *CrashRepository) Counts(ctx context.Context) (crashes, persons int, err error) {
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crashes`).Scan(&crashes); err != nil {
		return 0, 0, fmt.Errorf("failed to count crashes: %w", err)
	}
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons`).Scan(&persons); err != nil {
		return 0, 0, fmt.Errorf("failed to count persons: %w", err)
	}
	return crashes, persons, nil
}

// GetSample returns the first limit joined crash/person rows and the total person row count
func (r *CrashRepository) GetSample(ctx context.Context, limit int) ([]models.SampleRow, int, error) {
	_, total, err := r.Counts(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := r.db.Rebind(`SELECT c.collision_id, c.crash_date, c.borough, c.latitude, c.longitude,
		c.persons_injured, c.persons_killed, c.contributing_factor, c.vehicle_type,
		p.person_id, p.person_type, p.person_injury
		FROM persons p JOIN crashes c ON c.collision_id = p.collision_id
		ORDER BY p.id LIMIT ?`)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sample: %w", err)
	}
	defer rows.Close()

	sample := []models.SampleRow{}
	for rows.Next() {
		var row models.SampleRow
		var crashDate string
		var lat, lon sql.NullFloat64

		err := rows.Scan(
			&row.CollisionID, &crashDate, &row.Borough, &lat, &lon,
			&row.PersonsInjured, &row.PersonsKilled, &row.ContributingFactor, &row.VehicleType,
			&row.PersonID, &row.PersonType, &row.PersonInjury,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sample row: %w", err)
		}

		row.CrashDate = crashDate
		if ts, err := ParseCrashDate(crashDate); err == nil && !ts.IsZero() {
			row.CrashDate = ts.Format("2006-01-02")
		}
		if lat.Valid {
			row.Latitude = &lat.Float64
		}
		if lon.Valid {
			row.Longitude = &lon.Float64
		}
		sample = append(sample, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating sample: %w", err)
	}

	return sample, total, nil
}

// InsertBatch writes crashes and persons in one transaction.
// Rows whose key already exists are skipped, so re-importing a file is harmless.
func (r *CrashRepository) InsertBatch(ctx context.Context, crashes []models.CrashRecord, persons []models.PersonRecord) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		crashStmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO crashes
			(collision_id, crash_date, borough, latitude, longitude, persons_injured, persons_killed,
			 contributing_factor, vehicle_type, hour, day, season)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (collision_id) DO NOTHING`))
		if err != nil {
			return fmt.Errorf("failed to prepare crash insert: %w", err)
		}
		defer crashStmt.Close()

		for i := range crashes {
			c := &crashes[i]
			_, err := crashStmt.ExecContext(ctx,
				c.CollisionID, formatDate(c.Timestamp), c.Borough,
				nullableCoord(c.HasLocation, c.Latitude), nullableCoord(c.HasLocation, c.Longitude),
				c.PersonsInjured, c.PersonsKilled, c.ContributingFactor, c.VehicleType,
				nullableInt(c.Hour), nullableInt(c.Weekday), c.Season,
			)
			if err != nil {
				return fmt.Errorf("failed to insert crash %d: %w", c.CollisionID, err)
			}
		}

		personStmt, err := tx.PrepareContext(ctx, r.db.Rebind(`INSERT INTO persons
			(person_id, collision_id, person_type, person_injury, safety_used)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (collision_id, person_id) DO NOTHING`))
		if err != nil {
			return fmt.Errorf("failed to prepare person insert: %w", err)
		}
		defer personStmt.Close()

		for i := range persons {
			p := &persons[i]
			_, err := personStmt.ExecContext(ctx,
				p.PersonID, p.CollisionID, p.PersonType, p.InjuryStatus, nullableInt(p.SafetyUsed))
			if err != nil {
				return fmt.Errorf("failed to insert person %s: %w", p.PersonID, err)
			}
		}

		return nil
	})
}

// Truncate deletes every record
func (r *CrashRepository) Truncate(ctx context.Context) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM persons`); err != nil {
			return fmt.Errorf("failed to clear persons: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM crashes`); err != nil {
			return fmt.Errorf("failed to clear crashes: %w", err)
		}
		return nil
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(StoredDateLayout)
}

func nullableCoord(ok bool, v float64) interface{} {
	if !ok {
		return nil
	}
	return v
}

func nullableInt(v int) interface{} {
	if v < 0 {
		return nil
	}
	return v
}
