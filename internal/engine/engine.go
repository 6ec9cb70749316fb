// Package engine ties the parser, predicate builder, aggregation pipeline,
// temporal cross-tabulator and density clusterer together over one dataset snapshot.
package engine

import (
	"strings"

	"github.com/jengzang/crash-records-backend-go/internal/models"
	"github.com/jengzang/crash-records-backend-go/internal/query"
	"github.com/jengzang/crash-records-backend-go/internal/spatial"
	"github.com/jengzang/crash-records-backend-go/internal/stats"
	"github.com/jengzang/crash-records-backend-go/internal/vocabulary"
)

// Options configures an Engine
type Options struct {
	TopFactors    int                      // ByFactor size, <= 0 uses stats.DefaultTopFactors
	GeoPointLimit int                      // Max geo points, <= 0 uses spatial.DefaultPointLimit
	DensityRadius float64                  // Degrees, <= 0 uses spatial.DefaultDensityRadius
	Counter       spatial.NeighbourCounter // nil uses the k-d tree counter
}

// Engine answers Parse and ComputeStats over an immutable dataset.
// All methods are safe for concurrent use and never modify the dataset.
type Engine struct {
	ds     *models.Dataset
	vocab  *vocabulary.Vocabulary
	parser *query.Parser
	opts   Options
}

// New creates an engine. A nil vocabulary uses vocabulary.Default().
func New(ds *models.Dataset, vocab *vocabulary.Vocabulary, opts Options) *Engine {
	if ds == nil {
		ds = models.NewDataset(nil, nil)
	}
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	if opts.GeoPointLimit <= 0 {
		opts.GeoPointLimit = spatial.DefaultPointLimit
	}
	if opts.DensityRadius <= 0 {
		opts.DensityRadius = spatial.DefaultDensityRadius
	}
	if opts.Counter == nil {
		opts.Counter = spatial.KDTreeCounter{}
	}

	return &Engine{
		ds:     ds,
		vocab:  vocab,
		parser: query.NewParser(vocab),
		opts:   opts,
	}
}

// Dataset returns the snapshot the engine reads
func (e *Engine) Dataset() *models.Dataset {
	return e.ds
}

// Vocabulary returns the vocabulary used for parsing and canonicalization
func (e *Engine) Vocabulary() *vocabulary.Vocabulary {
	return e.vocab
}

// DensityRadius returns the effective density radius in degrees
func (e *Engine) DensityRadius() float64 {
	return e.opts.DensityRadius
}

// Parse maps a free-text query to a FilterSpec
func (e *Engine) Parse(q string) models.FilterSpec {
	return e.parser.Parse(q)
}

// Normalize returns the canonical form of spec: recognized values in their
// vocabulary spelling, unrecognized values and "All" cleared.
func (e *Engine) Normalize(spec models.FilterSpec) models.FilterSpec {
	return query.BuildPredicate(spec, e.vocab).Spec()
}

// ComputeStats filters the dataset with spec and aggregates the result.
// An empty selection yields zero totals, empty maps, a zero matrix and no geo points.
func (e *Engine) ComputeStats(spec models.FilterSpec) *models.StatsResult {
	crashes, persons := query.BuildPredicate(spec, e.vocab).Select(e.ds)

	result := stats.Aggregate(crashes, persons, stats.Options{TopFactors: e.opts.TopFactors})
	result.GeoData = e.geoPoints(crashes, persons)

	return result
}

// geoPoints scores the located crashes of the selection by neighbour density.
// Points keep collision ID order; the bounds filter runs before the point limit.
func (e *Engine) geoPoints(crashes []*models.CrashRecord, persons []*models.PersonRecord) []models.GeoPoint {
	located := make([]*models.CrashRecord, 0, len(crashes))
	points := make([]spatial.Point, 0, len(crashes))
	for _, c := range crashes {
		if !c.HasLocation {
			continue
		}
		located = append(located, c)
		points = append(points, spatial.Point{Lat: c.Latitude, Lon: c.Longitude})
	}

	scored := spatial.ClusterDensity(points, spatial.DensityOptions{
		Radius:  e.opts.DensityRadius,
		Limit:   e.opts.GeoPointLimit,
		Bounds:  &spatial.NYCBounds,
		Counter: e.opts.Counter,
	})

	injuries := worstInjuryByCrash(persons)

	out := make([]models.GeoPoint, 0, len(scored))
	for _, dp := range scored {
		c := located[dp.Index]
		gp := models.GeoPoint{
			Lat:         dp.Lat,
			Lng:         dp.Lon,
			Borough:     labelOrUnknown(c.Borough),
			VehicleType: labelOrUnknown(c.VehicleType),
			InjuryType:  labelOrUnknown(injuries[c.CollisionID]),
			Density:     dp.Density,
		}
		if c.Hour >= 0 {
			h := c.Hour
			gp.Hour = &h
		}
		if !c.Timestamp.IsZero() {
			gp.CrashDate = c.Timestamp.Format("2006-01-02")
		}
		out = append(out, gp)
	}
	return out
}

// injurySeverity orders injury statuses for picking a crash's representative injury
var injurySeverity = map[string]int{
	vocabulary.InjuryKilled:      3,
	vocabulary.InjuryInjured:     2,
	vocabulary.InjuryUnspecified: 1,
}

func worstInjuryByCrash(persons []*models.PersonRecord) map[int64]string {
	worst := make(map[int64]string)
	for _, p := range persons {
		cur, ok := worst[p.CollisionID]
		if !ok || injurySeverity[canonicalInjury(p.InjuryStatus)] > injurySeverity[canonicalInjury(cur)] {
			worst[p.CollisionID] = p.InjuryStatus
		}
	}
	return worst
}

func canonicalInjury(s string) string {
	for k := range injurySeverity {
		if strings.EqualFold(k, s) {
			return k
		}
	}
	return s
}

func labelOrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return models.UnknownLabel
	}
	return v
}
