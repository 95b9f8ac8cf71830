// Package spatialindex implements the Spatial Index (C4): a point index
// over node coordinates answering nearest-neighbor, range, path, and
// shape queries. Grounded structurally on the teacher's
// internal/index/flat (points slice + id→index map, brute-force scan,
// swap-compact delete) and semantically on original_source's
// src/indexing/rtree.py — which, despite its name, is also a linear
// scan; spec §9 explicitly permits this.
package spatialindex

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/errs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/obs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/util"
)

// Config configures a new Index.
type Config struct {
	Dimension int
	Metric    coordinates.Metric
	// CacheSize bounds the NN-result LRU cache; spec requires >= 100.
	CacheSize int
	Metrics   *obs.Metrics
}

// Result is a scored hit: a node id, its distance from the query point,
// and the materialized node.
type Result struct {
	ID       string
	Distance float64
	Node     *node.Node
}

// Stats mirrors get_statistics(): operation counters.
type Stats struct {
	Inserts     uint64
	Deletes     uint64
	Updates     uint64
	Queries     uint64
	CacheHits   uint64
	CacheMisses uint64
}

type entry struct {
	id    string
	point coordinates.SpatialPoint
	node  *node.Node
}

// Index is the spatial index proper: single-writer, multi-reader, with a
// bounded NN-result LRU cache invalidated on every write.
type Index struct {
	mu        sync.RWMutex
	dimension int
	metric    coordinates.Metric
	entries   []*entry
	idToIdx   map[string]int
	cache     *lru.Cache[string, []Result]
	metrics   *obs.Metrics

	inserts, deletes, updates, queries, cacheHits, cacheMisses atomic.Uint64
}

// New constructs an empty spatial index.
func New(cfg Config) *Index {
	size := cfg.CacheSize
	if size < 100 {
		size = 100
	}
	cache, _ := lru.New[string, []Result](size)
	return &Index{
		dimension: cfg.Dimension,
		metric:    cfg.Metric,
		idToIdx:   make(map[string]int),
		cache:     cache,
		metrics:   cfg.Metrics,
	}
}

// Insert adds or replaces n's point, keyed by id. Fails with
// MissingCoordinate if n has no spatial component. Idempotent per id.
func (idx *Index) Insert(n *node.Node) error {
	if !n.Coordinates.HasSpatial {
		return errs.SpatialIndexError(errs.MissingCoordinate, "node has no spatial component: "+n.ID, nil)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insertLocked(n)
	idx.invalidateCacheLocked()
	idx.inserts.Add(1)
	if idx.metrics != nil {
		idx.metrics.NodeInserts.Inc()
	}
	return nil
}

func (idx *Index) insertLocked(n *node.Node) {
	point := resize(n.Coordinates.Spatial, idx.dimension)
	if i, ok := idx.idToIdx[n.ID]; ok {
		idx.entries[i] = &entry{id: n.ID, point: point, node: n}
		return
	}
	idx.entries = append(idx.entries, &entry{id: n.ID, point: point, node: n})
	idx.idToIdx[n.ID] = len(idx.entries) - 1
}

func resize(p coordinates.SpatialPoint, d int) coordinates.SpatialPoint {
	if d <= 0 || len(p) == d {
		return p
	}
	out := make(coordinates.SpatialPoint, d)
	copy(out, p)
	return out
}

// BulkLoad is semantically equal to iterated insert, but amortizes the
// cache invalidation and lock acquisition to once for the whole batch.
// Nodes lacking spatial coordinates are skipped, not fatal.
func (idx *Index) BulkLoad(nodes []*node.Node) (inserted, skipped int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, n := range nodes {
		if !n.Coordinates.HasSpatial {
			skipped++
			continue
		}
		idx.insertLocked(n)
		inserted++
	}
	idx.inserts.Add(uint64(inserted))
	idx.invalidateCacheLocked()
	return inserted, skipped
}

// Remove deletes id's entry, swap-compacting the backing slice. Returns
// whether an entry existed.
func (idx *Index) Remove(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	existed := idx.removeLocked(id)
	if existed {
		idx.invalidateCacheLocked()
		idx.deletes.Add(1)
		if idx.metrics != nil {
			idx.metrics.NodeRemovals.Inc()
		}
	}
	return existed
}

func (idx *Index) removeLocked(id string) bool {
	i, ok := idx.idToIdx[id]
	if !ok {
		return false
	}
	last := len(idx.entries) - 1
	idx.entries[i] = idx.entries[last]
	idx.idToIdx[idx.entries[i].id] = i
	idx.entries = idx.entries[:last]
	delete(idx.idToIdx, id)
	return true
}

// Update is equivalent to remove-then-insert, preserving id.
func (idx *Index) Update(n *node.Node) error {
	if !n.Coordinates.HasSpatial {
		return errs.SpatialIndexError(errs.MissingCoordinate, "node has no spatial component: "+n.ID, nil)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(n.ID)
	idx.insertLocked(n)
	idx.invalidateCacheLocked()
	idx.updates.Add(1)
	return nil
}

func (idx *Index) invalidateCacheLocked() {
	idx.cache.Purge()
}

func cacheKey(point coordinates.SpatialPoint, k int) string {
	return fmt.Sprintf("%v|%d", []float64(point), k)
}

// Nearest returns up to k nodes sorted ascending by distance, ties broken
// by id. When k<=10 and maxDistance is nil, results may be served from
// the LRU cache; any write invalidates it entirely.
func (idx *Index) Nearest(point coordinates.SpatialPoint, k int, maxDistance *float64) []Result {
	idx.queries.Add(1)
	if idx.metrics != nil {
		idx.metrics.SpatialQueries.Inc()
	}

	cacheable := k <= 10 && maxDistance == nil
	var key string
	if cacheable {
		key = cacheKey(point, k)
		idx.mu.RLock()
		if cached, ok := idx.cache.Get(key); ok {
			idx.mu.RUnlock()
			idx.cacheHits.Add(1)
			if idx.metrics != nil {
				idx.metrics.CacheHits.Inc()
			}
			return cloneResults(cached)
		}
		idx.mu.RUnlock()
		idx.cacheMisses.Add(1)
		if idx.metrics != nil {
			idx.metrics.CacheMisses.Inc()
		}
	}

	idx.mu.RLock()
	point = resize(point, idx.dimension)
	bounded := util.NewBoundedCandidates(k)
	for _, e := range idx.entries {
		d := coordinates.Distance(point, e.point, idx.metric)
		if maxDistance != nil && d > *maxDistance {
			continue
		}
		bounded.Offer(util.Candidate{ID: e.id, Distance: d})
	}
	byID := make(map[string]*entry, len(idx.entries))
	for _, e := range idx.entries {
		byID[e.id] = e
	}
	idx.mu.RUnlock()

	candidates := bounded.Sorted()
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, Result{ID: c.ID, Distance: c.Distance, Node: byID[c.ID].node})
	}

	if cacheable {
		idx.mu.Lock()
		idx.cache.Add(key, cloneResults(results))
		idx.mu.Unlock()
	}
	return results
}

func cloneResults(in []Result) []Result {
	out := make([]Result, len(in))
	copy(out, in)
	return out
}

// IncrementalNearest returns a lazy iterator yielding (distance, node) in
// non-decreasing distance order, terminating at maxResults/maxDistance or
// when candidates are exhausted. The full candidate list is computed
// under lock up front, so no lock is held across yields.
func (idx *Index) IncrementalNearest(point coordinates.SpatialPoint, maxResults *int, maxDistance *float64) func() (Result, bool) {
	idx.mu.RLock()
	point = resize(point, idx.dimension)
	type scored struct {
		id   string
		d    float64
		node *node.Node
	}
	all := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		d := coordinates.Distance(point, e.point, idx.metric)
		if maxDistance != nil && d > *maxDistance {
			continue
		}
		all = append(all, scored{id: e.id, d: d, node: e.node})
	}
	idx.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].d != all[j].d {
			return all[i].d < all[j].d
		}
		return all[i].id < all[j].id
	})

	i := 0
	yielded := 0
	return func() (Result, bool) {
		if i >= len(all) || (maxResults != nil && yielded >= *maxResults) {
			return Result{}, false
		}
		s := all[i]
		i++
		yielded++
		return Result{ID: s.id, Distance: s.d, Node: s.node}, true
	}
}

// RangeQuery returns all nodes whose spatial coordinates satisfy
// lower[i] <= dim[i] <= upper[i] for every dimension i.
func (idx *Index) RangeQuery(lower, upper coordinates.SpatialPoint) []*node.Node {
	idx.queries.Add(1)
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lower = resize(lower, idx.dimension)
	upper = resize(upper, idx.dimension)

	var out []*node.Node
	for _, e := range idx.entries {
		if inRange(e.point, lower, upper) {
			out = append(out, e.node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func inRange(p, lower, upper coordinates.SpatialPoint) bool {
	for i := range lower {
		v := 0.0
		if i < len(p) {
			v = p[i]
		}
		if v < lower[i] || v > upper[i] {
			return false
		}
	}
	return true
}

// PathQuery returns nodes whose first two dimensions lie within radius of
// any segment of the polyline path. An empty path yields an empty result.
func (idx *Index) PathQuery(path []coordinates.SpatialPoint, radius float64) []*node.Node {
	idx.queries.Add(1)
	if len(path) == 0 {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*node.Node
	for _, e := range idx.entries {
		px, py := dim(e.point, 0), dim(e.point, 1)
		for i := 0; i+1 < len(path); i++ {
			ax, ay := dim(path[i], 0), dim(path[i], 1)
			bx, by := dim(path[i+1], 0), dim(path[i+1], 1)
			if pointToSegmentDistance(px, py, ax, ay, bx, by) <= radius {
				out = append(out, e.node)
				break
			}
		}
		if len(path) == 1 {
			ax, ay := dim(path[0], 0), dim(path[0], 1)
			if pointToSegmentDistance(px, py, ax, ay, ax, ay) <= radius {
				out = append(out, e.node)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func dim(p coordinates.SpatialPoint, i int) float64 {
	if i < len(p) {
		return p[i]
	}
	return 0
}

func pointToSegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	projX, projY := ax+t*dx, ay+t*dy
	return hypot(px-projX, py-projY)
}

func hypot(a, b float64) float64 {
	return coordinates.Distance(coordinates.SpatialPoint{0, 0}, coordinates.SpatialPoint{a, b}, coordinates.Euclidean)
}

// ShapeType distinguishes the three shapes shape_query accepts.
type ShapeType int

const (
	RectangleShape ShapeType = iota
	CircleShape
	PolygonShape
)

// Shape is a tagged query region. Only the fields relevant to Type are used.
type Shape struct {
	Type     ShapeType
	Lower    coordinates.SpatialPoint
	Upper    coordinates.SpatialPoint
	Center   coordinates.SpatialPoint
	Radius   float64
	Vertices []coordinates.SpatialPoint
}

// ShapeQuery answers a rectangle (delegates to RangeQuery), circle, or
// polygon (>= 3 vertices, ray-casting inclusion over the first two
// dimensions) query. An unsupported type or under-specified polygon fails.
func (idx *Index) ShapeQuery(s Shape) ([]*node.Node, error) {
	switch s.Type {
	case RectangleShape:
		return idx.RangeQuery(s.Lower, s.Upper), nil
	case CircleShape:
		idx.queries.Add(1)
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		center := resize(s.Center, idx.dimension)
		var out []*node.Node
		for _, e := range idx.entries {
			if coordinates.Distance(center, e.point, idx.metric) <= s.Radius {
				out = append(out, e.node)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	case PolygonShape:
		if len(s.Vertices) < 3 {
			return nil, errs.SpatialIndexError(errs.InvalidInput, "polygon requires at least 3 vertices", nil)
		}
		idx.queries.Add(1)
		idx.mu.RLock()
		defer idx.mu.RUnlock()
		var out []*node.Node
		for _, e := range idx.entries {
			if pointInPolygon(dim(e.point, 0), dim(e.point, 1), s.Vertices) {
				out = append(out, e.node)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return out, nil
	default:
		return nil, errs.SpatialIndexError(errs.InvalidInput, "unsupported shape type", nil)
	}
}

// pointInPolygon is the standard ray-casting test over the first two
// dimensions; identical result for clockwise or counter-clockwise vertex
// order.
func pointInPolygon(px, py float64, vertices []coordinates.SpatialPoint) bool {
	inside := false
	n := len(vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := dim(vertices[i], 0), dim(vertices[i], 1)
		xj, yj := dim(vertices[j], 0), dim(vertices[j], 1)
		intersect := ((yi > py) != (yj > py)) &&
			(px < (xj-xi)*(py-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.idToIdx = make(map[string]int)
	idx.invalidateCacheLocked()
}

// Count returns the number of indexed entries.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// GetAll returns every indexed node, ordered by id.
func (idx *Index) GetAll() []*node.Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*node.Node, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.node
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetStatistics returns a snapshot of the operation counters.
func (idx *Index) GetStatistics() Stats {
	return Stats{
		Inserts:     idx.inserts.Load(),
		Deletes:     idx.deletes.Load(),
		Updates:     idx.updates.Load(),
		Queries:     idx.queries.Load(),
		CacheHits:   idx.cacheHits.Load(),
		CacheMisses: idx.cacheMisses.Load(),
	}
}
