package query

import (
	"context"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/combinedindex"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/filter"
)

// Builder is fluent sugar over constructing a Query directly, grounded on
// the teacher's QueryBuilder/FilterChain (libravdb/query.go). Every path
// through Builder ends up producing the same Query value Execute
// consumes directly, so Builder adds no behavior of its own.
type Builder struct {
	engine *Engine
	q      Query
}

// NewBuilder starts a query against engine with use_cache defaulting to
// true, matching spec §4.5.
func NewBuilder(engine *Engine) *Builder {
	return &Builder{engine: engine, q: Query{Options: Options{UseCache: true}}}
}

// Basic selects a full node-store scan.
func (b *Builder) Basic() *Builder {
	b.q.Type = Basic
	return b
}

// Nearest selects a SPATIAL query for the k (via Limit) nodes nearest
// point, bounded by maxDistance: nodes farther than maxDistance are never
// returned, so 0 keeps only nodes at point itself.
func (b *Builder) Nearest(point coordinates.SpatialPoint, maxDistance float64) *Builder {
	b.q.Type = Spatial
	b.q.Criteria.Spatial = &combinedindex.SpatialCriteria{HasPoint: true, Point: point, Distance: maxDistance}
	return b
}

// Region selects a SPATIAL query over the axis-aligned box [lower, upper].
func (b *Builder) Region(lower, upper coordinates.SpatialPoint) *Builder {
	b.q.Type = Spatial
	b.q.Criteria.Spatial = &combinedindex.SpatialCriteria{HasRegion: true, Lower: lower, Upper: upper}
	return b
}

// TimeRange selects a TEMPORAL query over [start, end].
func (b *Builder) TimeRange(start, end float64) *Builder {
	b.q.Type = Temporal
	b.q.Criteria.Temporal = &combinedindex.TemporalCriteria{HasRange: true, Start: start, End: end}
	return b
}

// AndTimeRange adds a temporal bound to an existing spatial criteria,
// promoting the query to COMBINED.
func (b *Builder) AndTimeRange(start, end float64) *Builder {
	b.q.Type = Combined
	b.q.Criteria.Temporal = &combinedindex.TemporalCriteria{HasRange: true, Start: start, End: end}
	return b
}

// Filter appends an attribute post-filter.
func (b *Builder) Filter(f filter.Filter) *Builder {
	b.q.Options.AttributeFilters = append(b.q.Options.AttributeFilters, f)
	return b
}

// Eq is filter.NewEqualityFilter sugar.
func (b *Builder) Eq(field string, value interface{}) *Builder {
	return b.Filter(filter.NewEqualityFilter(field, value))
}

// Limit sets the page size.
func (b *Builder) Limit(n int) *Builder {
	b.q.Options.Limit = n
	return b
}

// Offset sets the pagination offset.
func (b *Builder) Offset(n int) *Builder {
	b.q.Options.Offset = n
	return b
}

// SortBy sets the sort key ("distance", "temporal", or a metadata field).
func (b *Builder) SortBy(field string, order SortOrder) *Builder {
	b.q.Options.SortBy = field
	b.q.Options.SortOrder = order
	return b
}

// WithoutCache disables result caching for this query.
func (b *Builder) WithoutCache() *Builder {
	b.q.Options.UseCache = false
	return b
}

// Build returns the constructed Query without executing it.
func (b *Builder) Build() Query { return b.q }

// Execute runs the built query against the engine it was created from.
func (b *Builder) Execute(ctx context.Context) (*Result, error) {
	return b.engine.Execute(ctx, b.q)
}
