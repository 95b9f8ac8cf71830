// Package coordinates defines the immutable spatial and temporal value
// types shared by every index and the node store, plus their distance
// arithmetic.
package coordinates

import (
	"fmt"
	"math"
)

// Metric selects the distance function used by the spatial index.
type Metric int

const (
	Euclidean Metric = iota
	Manhattan
	Chebyshev
)

func (m Metric) String() string {
	switch m {
	case Euclidean:
		return "euclidean"
	case Manhattan:
		return "manhattan"
	case Chebyshev:
		return "chebyshev"
	default:
		return "unknown"
	}
}

// SpatialPoint is an ordered tuple of real-valued dimensions. Two points of
// different length are always comparable: align reconciles lengths by
// zero-padding the shorter and truncating the longer, never by erroring.
type SpatialPoint []float64

// align returns a and b resized to the same length D, zero-padding the
// shorter and truncating the longer. It never panics.
func align(a, b SpatialPoint, d int) (SpatialPoint, SpatialPoint) {
	return resize(a, d), resize(b, d)
}

func resize(p SpatialPoint, d int) SpatialPoint {
	if len(p) == d {
		return p
	}
	out := make(SpatialPoint, d)
	copy(out, p)
	return out
}

// Distance computes the distance between a and b under the given metric,
// aligning dimensionality to max(len(a), len(b)) by zero-padding the
// shorter operand.
func Distance(a, b SpatialPoint, m Metric) float64 {
	d := len(a)
	if len(b) > d {
		d = len(b)
	}
	a, b = align(a, b, d)

	switch m {
	case Manhattan:
		var sum float64
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	case Chebyshev:
		var max float64
		for i := range a {
			if diff := math.Abs(a[i] - b[i]); diff > max {
				max = diff
			}
		}
		return max
	default: // Euclidean
		var sum float64
		for i := range a {
			diff := a[i] - b[i]
			sum += diff * diff
		}
		return math.Sqrt(sum)
	}
}

// Precision is the granularity at which two TemporalInstants are compared
// for equality.
type Precision int

const (
	Year Precision = iota
	Month
	Day
	Hour
	Minute
	Second
	Microsecond
)

// TemporalInstant is a point in time, in Unix seconds (fractional for
// sub-second precision), tagged with the precision it was recorded at.
type TemporalInstant struct {
	UnixSeconds float64
	Precision   Precision
}

// Distance returns the absolute distance in seconds between two instants.
func (t TemporalInstant) Distance(other TemporalInstant) float64 {
	return math.Abs(t.UnixSeconds - other.UnixSeconds)
}

// precisionSeconds is the bucket width, in seconds, below which differences
// are ignored when comparing at a given precision.
func precisionSeconds(p Precision) float64 {
	switch p {
	case Year:
		return 365 * 24 * 3600
	case Month:
		return 30 * 24 * 3600
	case Day:
		return 24 * 3600
	case Hour:
		return 3600
	case Minute:
		return 60
	case Second:
		return 1
	default: // Microsecond
		return 1e-6
	}
}

// EqualAt reports whether t and other fall in the same precision-p unit
// (Unix seconds floored to p's width); the instants' own Precision fields
// are not consulted.
func (t TemporalInstant) EqualAt(other TemporalInstant, p Precision) bool {
	return math.Floor(t.UnixSeconds/precisionSeconds(p)) == math.Floor(other.UnixSeconds/precisionSeconds(p))
}

// Coordinates pairs an optional spatial point with an optional temporal
// instant. At least one must be present; the zero value is invalid.
type Coordinates struct {
	Spatial     SpatialPoint
	HasSpatial  bool
	Temporal    TemporalInstant
	HasTemporal bool
}

// NewSpatial builds spatial-only coordinates.
func NewSpatial(p SpatialPoint) Coordinates {
	return Coordinates{Spatial: p, HasSpatial: true}
}

// NewTemporal builds temporal-only coordinates.
func NewTemporal(t TemporalInstant) Coordinates {
	return Coordinates{Temporal: t, HasTemporal: true}
}

// New builds full coordinates.
func New(p SpatialPoint, t TemporalInstant) Coordinates {
	return Coordinates{Spatial: p, HasSpatial: true, Temporal: t, HasTemporal: true}
}

// Validate returns an error if neither component is present.
func (c Coordinates) Validate() error {
	if !c.HasSpatial && !c.HasTemporal {
		return fmt.Errorf("coordinates: at least one of spatial or temporal must be present")
	}
	return nil
}

// Distance combines the spatial distance under metric m and day-normalized temporal
// distance into a single scalar. If only one side is present on both
// operands it falls back to that single dimension; mismatched presence
// uses whichever side both share.
func (c Coordinates) Distance(other Coordinates, m Metric) float64 {
	haveSpatial := c.HasSpatial && other.HasSpatial
	haveTemporal := c.HasTemporal && other.HasTemporal

	switch {
	case haveSpatial && haveTemporal:
		sd := Distance(c.Spatial, other.Spatial, m)
		td := c.Temporal.Distance(other.Temporal) / 86400.0
		return math.Sqrt(sd*sd + td*td)
	case haveSpatial:
		return Distance(c.Spatial, other.Spatial, m)
	case haveTemporal:
		return c.Temporal.Distance(other.Temporal) / 86400.0
	default:
		return math.Inf(1)
	}
}
