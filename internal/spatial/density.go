package spatial

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Density defaults
const (
	DefaultDensityRadius = 0.01 // Degrees
	DefaultPointLimit    = 500
)

// NeighbourCounter counts, for every point, the other points within radius
// (inclusive, squared Euclidean distance in degree space). Implementations must
// agree exactly; they differ only in cost.
type NeighbourCounter interface {
	Name() string
	Count(points []Point, radius float64) []int
}

// Counter names accepted by NewCounter
const (
	CounterBrute  = "brute"
	CounterGrid   = "grid"
	CounterKDTree = "kdtree"
)

// NewCounter returns the neighbour counter registered under name
func NewCounter(name string) (NeighbourCounter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CounterKDTree:
		return KDTreeCounter{}, nil
	case CounterGrid:
		return GridCounter{}, nil
	case CounterBrute:
		return BruteForceCounter{}, nil
	default:
		return nil, fmt.Errorf("unknown density index %q", name)
	}
}

// DensityOptions configures ClusterDensity
type DensityOptions struct {
	Radius  float64          // <= 0 uses DefaultDensityRadius
	Limit   int              // Max points scored, 0 = unlimited
	Bounds  *BoundingBox     // nil disables the bounds filter
	Counter NeighbourCounter // nil uses KDTreeCounter
}

// DensityPoint is an input point annotated with its normalized density
type DensityPoint struct {
	Point
	Index   int     // Position in the input slice
	Count   int     // Neighbours within radius, self excluded
	Density float64 // Count / max(maxCount, 1)
}

// ClusterDensity scores each point by how many other points lie within the radius,
// normalized so the densest point scores 1 and isolated points score 0.
// Points outside Bounds are dropped, then the first Limit survivors are scored.
// The input slice is not modified.
func ClusterDensity(points []Point, opts DensityOptions) []DensityPoint {
	radius := opts.Radius
	if radius <= 0 || math.IsNaN(radius) {
		radius = DefaultDensityRadius
	}
	counter := opts.Counter
	if counter == nil {
		counter = KDTreeCounter{}
	}

	kept := make([]Point, 0, len(points))
	index := make([]int, 0, len(points))
	for i, p := range points {
		if opts.Bounds != nil && !opts.Bounds.Contains(p) {
			continue
		}
		if opts.Limit > 0 && len(kept) >= opts.Limit {
			break
		}
		kept = append(kept, p)
		index = append(index, i)
	}

	if len(kept) == 0 {
		return []DensityPoint{}
	}

	counts := counter.Count(kept, radius)

	maxCount := 1
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	out := make([]DensityPoint, len(kept))
	for i, p := range kept {
		out[i] = DensityPoint{
			Point:   p,
			Index:   index[i],
			Count:   counts[i],
			Density: float64(counts[i]) / float64(maxCount),
		}
	}
	return out
}

// BruteForceCounter compares every pair. It is the reference implementation.
type BruteForceCounter struct{}

// Name implements NeighbourCounter
func (BruteForceCounter) Name() string { return CounterBrute }

// Count implements NeighbourCounter
func (BruteForceCounter) Count(points []Point, radius float64) []int {
	r2 := radius * radius
	counts := make([]int, len(points))
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if SquaredDistance(points[i], points[j]) <= r2 {
				counts[i]++
				counts[j]++
			}
		}
	}
	return counts
}

// GridCounter buckets points into radius-sized cells and only compares points
// in the 3x3 block of cells around each point.
type GridCounter struct{}

// Name implements NeighbourCounter
func (GridCounter) Name() string { return CounterGrid }

type cellKey struct{ lat, lon int64 }

// Count implements NeighbourCounter
func (GridCounter) Count(points []Point, radius float64) []int {
	if radius <= 0 {
		return BruteForceCounter{}.Count(points, radius)
	}

	cellOf := func(p Point) cellKey {
		return cellKey{
			lat: int64(math.Floor(p.Lat / radius)),
			lon: int64(math.Floor(p.Lon / radius)),
		}
	}

	cells := make(map[cellKey][]int)
	for i, p := range points {
		k := cellOf(p)
		cells[k] = append(cells[k], i)
	}

	r2 := radius * radius
	counts := make([]int, len(points))
	for i, p := range points {
		k := cellOf(p)
		for dLat := int64(-1); dLat <= 1; dLat++ {
			for dLon := int64(-1); dLon <= 1; dLon++ {
				for _, j := range cells[cellKey{lat: k.lat + dLat, lon: k.lon + dLon}] {
					if j != i && SquaredDistance(p, points[j]) <= r2 {
						counts[i]++
					}
				}
			}
		}
	}
	return counts
}

// KDTreeCounter answers one fixed-radius query per point against a k-d tree
type KDTreeCounter struct{}

// Name implements NeighbourCounter
func (KDTreeCounter) Name() string { return CounterKDTree }

// Count implements NeighbourCounter
func (KDTreeCounter) Count(points []Point, radius float64) []int {
	counts := make([]int, len(points))
	if len(points) == 0 {
		return counts
	}

	// kdtree.New reorders its input, so the tree gets its own slice.
	pts := make(kdtree.Points, len(points))
	for i, p := range points {
		pts[i] = kdtree.Point{p.Lat, p.Lon}
	}
	tree := kdtree.New(pts, false)

	r2 := radius * radius
	for i, p := range points {
		keeper := kdtree.NewDistKeeper(r2)
		tree.NearestSet(keeper, kdtree.Point{p.Lat, p.Lon})

		n := 0
		for _, c := range keeper.Heap {
			// The keeper seeds its heap with a sentinel that carries no Comparable
			if c.Comparable != nil {
				n++
			}
		}
		// The query point finds itself at distance zero
		if n > 0 {
			n--
		}
		counts[i] = n
	}
	return counts
}
