package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jengzang/crash-records-backend-go/internal/metrics"
	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/spatial"
	"github.com/jengzang/crash-records-backend-go/internal/stats"
	"github.com/jengzang/crash-records-backend-go/internal/store"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

// Defaults for the sample and filter endpoints
const (
	DefaultSampleLimit = 100
	MaxSampleLimit     = 1000
	FilterTopN         = 15
	DefaultCacheSize   = 256
)

// Snapshotter provides the dataset snapshot currently served
type Snapshotter interface {
	Snapshot() (*store.Snapshot, error)
}

// SampleSource reads joined raw rows from the record store
type SampleSource interface {
	GetSample(ctx context.Context, limit int) ([]models.SampleRow, int, error)
}

// StatsOptions configures the stats service
type StatsOptions struct {
	CacheSize   int
	SampleLimit int // Upper bound for GetSample
}

// StatsService handles business logic for collision statistics
type StatsService struct {
	snapshots   Snapshotter
	samples     SampleSource
	sampleLimit int

	// Results are keyed on snapshot version so a reload never serves stale stats
	cache *lru.Cache[string, *models.StatsResult]
	group singleflight.Group
}

// NewStatsService creates a new stats service
func NewStatsService(snapshots Snapshotter, samples SampleSource, opts StatsOptions) (*StatsService, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = MaxSampleLimit
	}

	cache, err := lru.New[string, *models.StatsResult](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats cache: %w", err)
	}

	return &StatsService{
		snapshots:   snapshots,
		samples:     samples,
		sampleLimit: opts.SampleLimit,
		cache:       cache,
	}, nil
}

// GetStats computes the aggregate for spec. The returned result is shared
// with other callers and must not be modified.
func (s *StatsService) GetStats(ctx context.Context, spec models.FilterSpec) (*models.StatsResult, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, err
	}

	key := strconv.FormatUint(snap.Version, 10) + "|" + snap.Engine.Normalize(spec).Key()
	if result, ok := s.cache.Get(key); ok {
		metrics.StatsCacheHits.Inc()
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Use singleflight so concurrent identical requests compute once
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		if result, ok := s.cache.Get(key); ok {
			return result, nil
		}
		metrics.StatsCacheMisses.Inc()

		start := time.Now()
		result := snap.Engine.ComputeStats(spec)
		elapsed := time.Since(start)
		metrics.StatsComputeDuration.Observe(elapsed.Seconds())

		s.cache.Add(key, result)
		if elapsed > time.Second {
			log.Printf("[StatsService] slow stats for %s: %v (%d crashes)", key, elapsed, result.TotalCrashes)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		metrics.StatsCacheHits.Inc()
	}

	return v.(*models.StatsResult), nil
}

// Search converts a free-text query into a FilterSpec
func (s *StatsService) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, err
	}
	filters := snap.Engine.Parse(query)
	if filters.IsEmpty() && strings.TrimSpace(query) != "" {
		log.Printf("[StatsService] search %q matched no filter terms", query)
	}
	return &models.SearchResponse{Filters: filters}, nil
}

// GetFilters returns the dropdown options, each list prefixed with "All"
func (s *StatsService) GetFilters(ctx context.Context) (*models.FilterOptions, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return nil, err
	}
	counts := snap.ValueCounts

	years := sortedKeys(counts[vocabulary.DimYear])
	sort.SliceStable(years, func(i, j int) bool {
		a, _ := strconv.Atoi(years[i])
		b, _ := strconv.Atoi(years[j])
		return a < b
	})

	return &models.FilterOptions{
		Boroughs:            withAll(sortedKeys(counts[vocabulary.DimBorough])),
		Years:               withAll(years),
		VehicleTypes:        withAll(topKeys(counts[vocabulary.DimVehicleType], FilterTopN)),
		ContributingFactors: withAll(topKeys(counts[vocabulary.DimContributingFactor], FilterTopN)),
		PersonTypes:         withAll(sortedKeys(counts[vocabulary.DimPersonType])),
		InjuryTypes:         withAll(sortedKeys(counts[vocabulary.DimInjuryType])),
	}, nil
}

// GetSample returns the first limit joined rows and the total row count.
// limit <= 0 means the default; larger values are capped.
func (s *StatsService) GetSample(ctx context.Context, limit int) (*models.DataSample, error) {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}
	if limit > s.sampleLimit {
		limit = s.sampleLimit
	}

	rows, total, err := s.samples.GetSample(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}
	if rows == nil {
		rows = []models.SampleRow{}
	}

	return &models.DataSample{Data: rows, Total: total}, nil
}

// Health reports whether a dataset is loaded and what it holds
func (s *StatsService) Health(ctx context.Context) *models.HealthStatus {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return &models.HealthStatus{Status: "unhealthy"}
	}

	ds := snap.Dataset()
	geo := ds.GeoCount()

	return &models.HealthStatus{
		Status:              "healthy",
		DataLoaded:          true,
		TotalRecords:        len(ds.Persons),
		TotalCrashes:        len(ds.Crashes),
		HasGeoData:          geo > 0,
		GeoDataCount:        geo,
		Version:             snap.Version,
		LoadedAt:            snap.LoadedAt.Format(time.RFC3339),
		DensityRadiusMeters: spatial.RadiusMeters(spatial.NYCBounds.Center(), snap.Engine.DensityRadius()),
	}
}

func withAll(values []string) []string {
	return append([]string{models.WildcardValue}, values...)
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		if k == models.UnknownLabel {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, n)
	for _, k := range stats.RankedKeys(counts) {
		if k == models.UnknownLabel {
			continue
		}
		keys = append(keys, k)
		if len(keys) == n {
			break
		}
	}
	return keys
}
