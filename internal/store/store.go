// Package store owns the in-memory dataset snapshot served to requests.
// Reloads build a complete new snapshot and swap it in atomically; requests
// already holding the previous snapshot finish against it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/crash-records-backend-go/internal/engine"
	"github.com/jengzang/crash-records-backend-go/internal/metrics"
	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/stats"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

// ErrNotLoaded is returned when no snapshot has been loaded yet
var ErrNotLoaded = errors.New("dataset not loaded")

// Loader reads the full dataset from the record store
type Loader interface {
	LoadDataset(ctx context.Context) (*models.Dataset, error)
}

// Snapshot is one immutable generation of the dataset
type Snapshot struct {
	Version  uint64
	Engine   *engine.Engine
	LoadedAt time.Time

	// ValueCounts holds crash or person counts per value, per dimension
	ValueCounts map[string]map[string]int
}

// Dataset is a shortcut for s.Engine.Dataset()
func (s *Snapshot) Dataset() *models.Dataset {
	return s.Engine.Dataset()
}

// Options configures a Store
type Options struct {
	Engine engine.Options

	WatchPath       string        // File whose changes trigger a reload (SQLite)
	RefreshInterval time.Duration // Periodic reload when > 0 (Postgres)
	Debounce        time.Duration // Quiet period after the last file event
}

// Store serves the current snapshot
type Store struct {
	loader Loader
	opts   Options

	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	reloadMu sync.Mutex // Serializes reloads

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a store. Call Reload before serving.
func New(loader Loader, opts Options) *Store {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Store{
		loader:   loader,
		opts:     opts,
		stopChan: make(chan struct{}),
	}
}

// Current returns the snapshot being served, or nil before the first load
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Snapshot returns the current snapshot or ErrNotLoaded
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Reload reads the record store and swaps in a new snapshot.
// On failure the previous snapshot keeps being served.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()

	ds, err := s.loader.LoadDataset(ctx)
	if err != nil {
		metrics.SnapshotReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	snap := s.build(ds)
	s.current.Store(snap)

	metrics.SnapshotReloads.WithLabelValues("ok").Inc()
	metrics.SnapshotVersion.Set(float64(snap.Version))
	metrics.DatasetRecords.WithLabelValues("crashes").Set(float64(len(ds.Crashes)))
	metrics.DatasetRecords.WithLabelValues("persons").Set(float64(len(ds.Persons)))
	metrics.DatasetRecords.WithLabelValues("located").Set(float64(ds.GeoCount()))

	log.Printf("[Store] snapshot v%d loaded: %d crashes, %d persons, %d located (%v)",
		snap.Version, len(ds.Crashes), len(ds.Persons), ds.GeoCount(), time.Since(start).Round(time.Millisecond))

	return snap, nil
}

// build canonicalizes the freshly loaded dataset and wraps it in an engine
func (s *Store) build(ds *models.Dataset) *Snapshot {
	base := vocabulary.Default()
	CanonicalizeBoroughs(ds, base)
	CanonicalizePersons(ds, base)

	counts := ValueCounts(ds)
	observed := make(map[string][]string, len(counts))
	for dim, c := range counts {
		observed[dim] = stats.RankedKeys(c)
	}
	vocab := base.Merge(observed)

	return &Snapshot{
		Version:     s.version.Add(1),
		Engine:      engine.New(ds, vocab, s.opts.Engine),
		LoadedAt:    time.Now(),
		ValueCounts: counts,
	}
}

// CanonicalizeBoroughs rewrites recognized borough names to their vocabulary
// spelling ("BROOKLYN" becomes "Brooklyn"). Must run before the dataset is shared.
func CanonicalizeBoroughs(ds *models.Dataset, vocab *vocabulary.Vocabulary) {
	for i := range ds.Crashes {
		b := strings.TrimSpace(ds.Crashes[i].Borough)
		if c, ok := vocab.Canonical(vocabulary.DimBorough, b); ok {
			b = c
		}
		ds.Crashes[i].Borough = b
	}
}

// CanonicalizePersons maps person types and injury statuses, including their
// synonyms ("Bicyclist", "KILLED"), onto the fixed enums. Unrecognized person
// types become Unknown and unrecognized injuries Unspecified; blanks stay blank.
func CanonicalizePersons(ds *models.Dataset, vocab *vocabulary.Vocabulary) {
	for i := range ds.Persons {
		p := &ds.Persons[i]
		p.PersonType = canonicalOr(vocab, vocabulary.DimPersonType, p.PersonType, vocabulary.PersonUnknown)
		p.InjuryStatus = canonicalOr(vocab, vocabulary.DimInjuryType, p.InjuryStatus, vocabulary.InjuryUnspecified)
	}
}

func canonicalOr(vocab *vocabulary.Vocabulary, dim, val, fallback string) string {
	val = strings.TrimSpace(val)
	if val == "" {
		return ""
	}
	if c, ok := vocab.Canonical(dim, val); ok {
		return c
	}
	return fallback
}

// ValueCounts tallies how often each non-empty value occurs per dimension.
// Crash dimensions count crashes, person dimensions count persons.
func ValueCounts(ds *models.Dataset) map[string]map[string]int {
	counts := make(map[string]map[string]int, len(vocabulary.Dimensions))
	for _, dim := range vocabulary.Dimensions {
		counts[dim] = make(map[string]int)
	}

	inc := func(dim, val string) {
		val = strings.TrimSpace(val)
		if val == "" {
			return
		}
		counts[dim][val]++
	}

	for i := range ds.Crashes {
		c := &ds.Crashes[i]
		inc(vocabulary.DimBorough, c.Borough)
		if c.Year > 0 {
			inc(vocabulary.DimYear, strconv.Itoa(c.Year))
		}
		inc(vocabulary.DimVehicleType, c.VehicleType)
		inc(vocabulary.DimContributingFactor, c.ContributingFactor)
	}
	for i := range ds.Persons {
		p := &ds.Persons[i]
		inc(vocabulary.DimPersonType, p.PersonType)
		inc(vocabulary.DimInjuryType, p.InjuryStatus)
	}

	return counts
}

// Close stops any watcher started by Watch and waits for it to exit
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
