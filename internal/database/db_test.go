package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "records.db")})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.Error(t, err)

	_, err = Open(Config{Driver: DriverSQLite})
	assert.Error(t, err, "empty sqlite path")

	_, err = Open(Config{Driver: DriverPostgres})
	assert.Error(t, err, "empty postgres url")
}

func TestMigrate(t *testing.T) {
	d := openTemp(t)

	require.NoError(t, d.Migrate())
	require.NoError(t, d.Migrate(), "second run is a no-op")

	version, dirty, err := d.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	for _, table := range []string{"crashes", "persons"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM persons WHERE collision_id = ? AND person_id = ?"

	assert.Equal(t, q, (&DB{Driver: DriverSQLite}).Rebind(q))
	assert.Equal(t,
		"SELECT * FROM persons WHERE collision_id = $1 AND person_id = $2",
		(&DB{Driver: DriverPostgres}).Rebind(q))
}

func TestTransaction(t *testing.T) {
	d := openTemp(t)
	require.NoError(t, d.Migrate())
	ctx := context.Background()

	count := func() int {
		var n int
		require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM crashes`).Scan(&n))
		return n
	}

	boom := errors.New("boom")
	err := d.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO crashes (collision_id) VALUES (1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(), "rolled back")

	err = d.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO crashes (collision_id) VALUES (1)`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())
}
