// Package query implements the Query Engine (C8): a thin planner and
// executor translating tagged Query objects into Combined Index / Node
// Store calls, post-processing results (attribute filters, sort,
// pagination), and caching materialized results. Grounded on
// original_source's src/query (query planner + result cache) and, for
// the fluent sugar layer, the teacher's libravdb/query.go QueryBuilder.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/combinedindex"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/errs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/filter"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/obs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/store"
)

// Type tags which shape of Criteria a Query carries, per spec §4.5.
type Type string

const (
	Basic    Type = "BASIC"
	Spatial  Type = "SPATIAL"
	Temporal Type = "TEMPORAL"
	Combined Type = "COMBINED"
)

// SortOrder controls ascending/descending result ordering.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Criteria mirrors combinedindex's tagged spatial/temporal shapes so a
// Query carries exactly the fields its Type calls for.
type Criteria struct {
	Spatial  *combinedindex.SpatialCriteria
	Temporal *combinedindex.TemporalCriteria
}

// Options are the optional execution knobs from spec §4.5.
type Options struct {
	UseCache         bool
	Limit            int
	Offset           int
	SortBy           string // "temporal" | "distance" | a metadata key
	SortOrder        SortOrder
	AttributeFilters []filter.Filter
}

// Query is the tagged request object §4.5 describes.
type Query struct {
	Type     Type
	Criteria Criteria
	Options  Options
}

// Result is what Execute returns: the page of items, the total
// candidate count before pagination, and how long execution took.
type Result struct {
	Items                 []*node.Node
	TotalBeforePagination int
	ExecutionTime         time.Duration
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	items := make([]*node.Node, len(r.Items))
	copy(items, r.Items)
	return &Result{Items: items, TotalBeforePagination: r.TotalBeforePagination, ExecutionTime: r.ExecutionTime}
}

// Engine is the stateless planner/executor plus its dedicated result
// cache, per spec §5's "Query Engine cache: dedicated lock" policy.
type Engine struct {
	store   store.Store
	index   *combinedindex.Index
	cache   *lru.Cache[string, *Result]
	metrics *obs.Metrics
}

// New constructs an Engine over store and index with an LRU result cache
// of the given size (floor 100, matching the spatial index's NN cache
// convention).
func New(st store.Store, idx *combinedindex.Index, cacheSize int, metrics *obs.Metrics) (*Engine, error) {
	if cacheSize < 100 {
		cacheSize = 100
	}
	c, err := lru.New[string, *Result](cacheSize)
	if err != nil {
		return nil, errs.QueryError(errs.InvalidInput, "construct query cache", err)
	}
	return &Engine{store: st, index: idx, cache: c, metrics: metrics}, nil
}

// InvalidateCache flushes the result cache. Called by every write path in
// the owning facade, per spec §5 ("any write path anywhere in the core
// triggers a global cache flush").
func (e *Engine) InvalidateCache() {
	e.cache.Purge()
}

// Execute runs q end to end: candidate gathering, attribute filtering,
// sort, pagination, and cache population.
func (e *Engine) Execute(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()

	useCache := q.Options.UseCache
	var key string
	if useCache {
		var err error
		key, err = cacheKey(q)
		if err == nil {
			if cached, ok := e.cache.Get(key); ok {
				if e.metrics != nil {
					e.metrics.CacheHits.Inc()
				}
				return cached.clone(), nil
			}
			if e.metrics != nil {
				e.metrics.CacheMisses.Inc()
			}
		}
	}

	items, err := e.gather(q)
	if err != nil {
		if e.metrics != nil {
			e.metrics.QueryErrors.Inc()
		}
		return nil, err
	}

	for _, f := range q.Options.AttributeFilters {
		items, err = f.Apply(ctx, items)
		if err != nil {
			return nil, errs.QueryError(errs.InvalidInput, "apply attribute filter", err)
		}
	}

	sortItems(items, q)

	total := len(items)
	items = paginate(items, q.Options.Offset, q.Options.Limit)

	result := &Result{Items: items, TotalBeforePagination: total, ExecutionTime: time.Since(start)}

	if e.metrics != nil {
		e.metrics.QueryLatency.Observe(result.ExecutionTime.Seconds())
		switch q.Type {
		case Spatial:
			e.metrics.SpatialQueries.Inc()
		case Temporal:
			e.metrics.TemporalQueries.Inc()
		case Combined:
			e.metrics.CombinedQueries.Inc()
		}
	}

	if useCache && key != "" {
		e.cache.Add(key, result.clone())
	}
	return result, nil
}

// gather chooses the index per spec §4.5 step 1 and materializes nodes.
func (e *Engine) gather(q Query) ([]*node.Node, error) {
	switch q.Type {
	case Basic:
		return e.store.All(), nil
	case Spatial:
		if q.Criteria.Spatial == nil {
			return nil, errs.QueryError(errs.InvalidInput, "spatial query requires spatial criteria", nil)
		}
		return e.index.Query(q.Criteria.Spatial, nil, 0), nil
	case Temporal:
		if q.Criteria.Temporal == nil {
			return nil, errs.QueryError(errs.InvalidInput, "temporal query requires temporal criteria", nil)
		}
		return e.index.Query(nil, q.Criteria.Temporal, 0), nil
	case Combined:
		if q.Criteria.Spatial == nil && q.Criteria.Temporal == nil {
			return nil, errs.QueryError(errs.InvalidInput, "combined query requires spatial and/or temporal criteria", nil)
		}
		return e.index.Query(q.Criteria.Spatial, q.Criteria.Temporal, 0), nil
	default:
		return nil, errs.QueryError(errs.InvalidInput, fmt.Sprintf("unknown query type %q", q.Type), nil)
	}
}

// sortItems applies sort_by/sort_order per spec §4.5 step 3: "distance"
// needs a spatial reference point (taken from Criteria.Spatial.Point when
// present), "temporal" uses the node's timestamp, anything else is a
// metadata lookup defaulting to 0.
func sortItems(items []*node.Node, q Query) {
	if q.Options.SortBy == "" {
		return
	}
	desc := q.Options.SortOrder == Desc

	var less func(i, j int) bool
	switch q.Options.SortBy {
	case "distance":
		var ref coordinates.SpatialPoint
		if q.Criteria.Spatial != nil && q.Criteria.Spatial.HasPoint {
			ref = q.Criteria.Spatial.Point
		}
		metric := coordinates.Euclidean
		dist := func(n *node.Node) float64 {
			if !n.Coordinates.HasSpatial {
				return 0
			}
			return coordinates.Distance(ref, n.Coordinates.Spatial, metric)
		}
		less = func(i, j int) bool { return dist(items[i]) < dist(items[j]) }
	case "temporal":
		ts := func(n *node.Node) float64 {
			if !n.Coordinates.HasTemporal {
				return 0
			}
			return n.Coordinates.Temporal.UnixSeconds
		}
		less = func(i, j int) bool { return ts(items[i]) < ts(items[j]) }
	default:
		key := q.Options.SortBy
		val := func(n *node.Node) float64 {
			v, ok := n.Metadata[key]
			if !ok {
				return 0
			}
			f, ok := asNumber(v)
			if !ok {
				return 0
			}
			return f
		}
		less = func(i, j int) bool { return val(items[i]) < val(items[j]) }
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func asNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func paginate(items []*node.Node, offset, limit int) []*node.Node {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// cacheKey derives a deterministic key from (type, criteria, options that
// affect results) per spec §4.5 — use_cache itself is excluded since it
// never affects the candidate set.
func cacheKey(q Query) (string, error) {
	type keyShape struct {
		Type             Type
		Criteria         Criteria
		Limit            int
		Offset           int
		SortBy           string
		SortOrder        SortOrder
		AttributeFilters []string
	}
	ks := keyShape{
		Type:      q.Type,
		Criteria:  q.Criteria,
		Limit:     q.Options.Limit,
		Offset:    q.Options.Offset,
		SortBy:    q.Options.SortBy,
		SortOrder: q.Options.SortOrder,
	}
	for _, f := range q.Options.AttributeFilters {
		ks.AttributeFilters = append(ks.AttributeFilters, f.String())
	}
	data, err := json.Marshal(ks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
