// Package combinedindex implements the Combined Index (C6): a façade
// over the Spatial and Temporal indexes that materializes Node objects
// from ids, intersects result sets, and owns bucket-size auto-tuning and
// atomic-swap rebuilds. Grounded on original_source's
// src/indexing/combined_index.py TemporalSpatialIndex.
package combinedindex

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/errs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/obs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/spatialindex"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/temporalindex"
)

// Config configures a new Index.
type Config struct {
	SpatialDimension      int
	Metric                coordinates.Metric
	TemporalBucketSeconds float64
	CacheSize             int
	// AutoTune enables the bucket-size auto-tuner (spec §4.3).
	AutoTune bool
	Metrics  *obs.Metrics
}

// SpatialCriteria is the tagged variant §4.3 recognizes: either a
// nearest-within-radius query (Point set) or an axis-aligned region
// (Region set). Exactly one of the two should be set by the caller.
type SpatialCriteria struct {
	HasPoint bool
	Point    coordinates.SpatialPoint
	Distance float64

	HasRegion bool
	Lower     coordinates.SpatialPoint
	Upper     coordinates.SpatialPoint
}

// TemporalCriteria recognizes a start/end range.
type TemporalCriteria struct {
	HasRange bool
	Start    float64
	End      float64
}

// Stats mirrors get_statistics() for the combined index level.
type Stats struct {
	Queries      uint64
	AutoTunes    uint64
	SpatialStats spatialindex.Stats
	TemporalStats temporalindex.Stats
}

const (
	nnSpatialCap          = 1000
	autoTuneImbalanceMult = 5
	autoTuneAvgCeiling    = 500
	autoTuneQueryInterval = 200
	minBucketSeconds      = 60
)

// Index is the Combined Index. A single readers-writer lock guards both
// the node table and the spatial/temporal pointers, so rebuild() can swap
// them atomically: concurrent readers observe either the old or the new
// pair, never a partial state.
type Index struct {
	mu       sync.RWMutex
	cfg      Config
	spatial  *spatialindex.Index
	temporal *temporalindex.Index
	nodes    map[string]*node.Node

	queries      atomic.Uint64
	autoTunes    atomic.Uint64
	queriesSinceTune atomic.Uint64
}

// New constructs an empty combined index.
func New(cfg Config) *Index {
	return &Index{
		cfg: cfg,
		spatial: spatialindex.New(spatialindex.Config{
			Dimension: cfg.SpatialDimension,
			Metric:    cfg.Metric,
			CacheSize: cfg.CacheSize,
			Metrics:   cfg.Metrics,
		}),
		temporal: temporalindex.New(temporalindex.Config{BucketSeconds: cfg.TemporalBucketSeconds}),
		nodes:    make(map[string]*node.Node),
	}
}

// Insert routes n to the spatial and/or temporal index conditionally on
// which coordinate components it carries, and records it in the node
// table unconditionally.
func (ci *Index) Insert(n *node.Node) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.insertLocked(n)
}

func (ci *Index) insertLocked(n *node.Node) error {
	ci.nodes[n.ID] = n
	if n.Coordinates.HasSpatial {
		if err := ci.spatial.Insert(n); err != nil {
			return errs.CombinedIndexError(errs.IndexInconsistent, "spatial insert failed", err)
		}
	}
	if n.Coordinates.HasTemporal {
		ci.temporal.Insert(n.ID, n.Coordinates.Temporal.UnixSeconds)
	}
	return nil
}

// BulkLoad inserts every node, conditionally routing each to its
// applicable child indexes. Semantically equal to iterated Insert.
func (ci *Index) BulkLoad(nodes []*node.Node) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	spatialNodes := make([]*node.Node, 0, len(nodes))
	for _, n := range nodes {
		ci.nodes[n.ID] = n
		if n.Coordinates.HasSpatial {
			spatialNodes = append(spatialNodes, n)
		}
		if n.Coordinates.HasTemporal {
			ci.temporal.Insert(n.ID, n.Coordinates.Temporal.UnixSeconds)
		}
	}
	ci.spatial.BulkLoad(spatialNodes)
	return nil
}

// Remove deletes id from both children and the node table.
func (ci *Index) Remove(id string) bool {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	_, existed := ci.nodes[id]
	if !existed {
		return false
	}
	ci.spatial.Remove(id)
	ci.temporal.Remove(id)
	delete(ci.nodes, id)
	return true
}

// Update replaces n in whichever children its new coordinates apply to,
// removing it from a child it no longer qualifies for.
func (ci *Index) Update(n *node.Node) error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if n.Coordinates.HasSpatial {
		if err := ci.spatial.Update(n); err != nil {
			return err
		}
	} else {
		ci.spatial.Remove(n.ID)
	}
	if n.Coordinates.HasTemporal {
		ci.temporal.Insert(n.ID, n.Coordinates.Temporal.UnixSeconds)
	} else {
		ci.temporal.Remove(n.ID)
	}
	ci.nodes[n.ID] = n
	return nil
}

// Get looks up a node by id from the combined node table.
func (ci *Index) Get(id string) (*node.Node, bool) {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	n, ok := ci.nodes[id]
	return n, ok
}

// Query answers spatial_criteria/temporal_criteria/limit, intersecting by
// id when both are present; see spec §4.3 for ordering rules.
func (ci *Index) Query(spatialC *SpatialCriteria, temporalC *TemporalCriteria, limit int) []*node.Node {
	ci.mu.RLock()
	spatial := ci.spatial
	temporal := ci.temporal
	ci.mu.RUnlock()

	ci.queries.Add(1)
	ci.maybeAutoTune()

	var spatialResults []spatialindex.Result
	haveSpatial := spatialC != nil && (spatialC.HasPoint || spatialC.HasRegion)
	if spatialC != nil && spatialC.HasPoint {
		k := limit
		if k <= 0 || k > nnSpatialCap {
			k = nnSpatialCap
		}
		spatialResults = spatial.Nearest(spatialC.Point, k, &spatialC.Distance)
	} else if spatialC != nil && spatialC.HasRegion {
		for _, n := range spatial.RangeQuery(spatialC.Lower, spatialC.Upper) {
			spatialResults = append(spatialResults, spatialindex.Result{ID: n.ID, Node: n})
		}
	}

	var temporalIDs []string
	haveTemporal := temporalC != nil && temporalC.HasRange
	if haveTemporal {
		temporalIDs = temporal.QueryRange(temporalC.Start, temporalC.End)
	}

	var out []*node.Node
	switch {
	case haveSpatial && haveTemporal:
		temporalSet := make(map[string]struct{}, len(temporalIDs))
		for _, id := range temporalIDs {
			temporalSet[id] = struct{}{}
		}
		for _, r := range spatialResults {
			if _, ok := temporalSet[r.ID]; ok {
				out = append(out, r.Node)
			}
		}
	case haveSpatial:
		for _, r := range spatialResults {
			out = append(out, r.Node)
		}
	case haveTemporal:
		ci.mu.RLock()
		for _, id := range temporalIDs {
			if n, ok := ci.nodes[id]; ok {
				out = append(out, n)
			}
		}
		ci.mu.RUnlock()
		sort.Slice(out, func(i, j int) bool {
			return out[i].Coordinates.Temporal.UnixSeconds < out[j].Coordinates.Temporal.UnixSeconds
		})
	default:
		ci.mu.RLock()
		for _, n := range ci.nodes {
			out = append(out, n)
		}
		ci.mu.RUnlock()
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// QueryTimeSeries delegates to the temporal index, then filters each
// interval's ids by the spatial query when provided.
func (ci *Index) QueryTimeSeries(start, end, interval float64, spatialC *SpatialCriteria) map[int64][]*node.Node {
	ci.mu.RLock()
	temporal := ci.temporal
	ci.mu.RUnlock()

	buckets := temporal.QueryTimeSeries(start, end, interval)

	var allowed map[string]struct{}
	if spatialC != nil && (spatialC.HasPoint || spatialC.HasRegion) {
		allowed = make(map[string]struct{})
		for _, n := range ci.Query(spatialC, nil, 0) {
			allowed[n.ID] = struct{}{}
		}
	}

	ci.mu.RLock()
	defer ci.mu.RUnlock()
	out := make(map[int64][]*node.Node, len(buckets))
	for interval, ids := range buckets {
		var nodes []*node.Node
		for id := range ids {
			if allowed != nil {
				if _, ok := allowed[id]; !ok {
					continue
				}
			}
			if n, ok := ci.nodes[id]; ok {
				nodes = append(nodes, n)
			}
		}
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
		out[interval] = nodes
	}
	return out
}

// maybeAutoTune inspects the temporal bucket distribution every
// autoTuneQueryInterval queries and halves the bucket size (floor 1
// minute) and rebuilds the temporal index when imbalanced, per spec §4.3.
func (ci *Index) maybeAutoTune() {
	if !ci.cfg.AutoTune {
		return
	}
	if ci.queriesSinceTune.Add(1) < autoTuneQueryInterval {
		return
	}
	ci.queriesSinceTune.Store(0)

	ci.mu.Lock()
	defer ci.mu.Unlock()

	dist := ci.temporal.GetBucketDistribution()
	if len(dist) == 0 {
		return
	}
	var maxBucket, total int
	for _, count := range dist {
		if count > maxBucket {
			maxBucket = count
		}
		total += count
	}
	avg := float64(total) / float64(len(dist))
	if avg == 0 {
		return
	}
	if float64(maxBucket) > autoTuneImbalanceMult*avg || avg > autoTuneAvgCeiling {
		newSize := ci.temporal.BucketSeconds() / 2
		if newSize < minBucketSeconds {
			newSize = minBucketSeconds
		}
		rebuilt := temporalindex.New(temporalindex.Config{BucketSeconds: newSize})
		for id, ts := range ci.temporal.AllTimestamps() {
			rebuilt.Insert(id, ts)
		}
		ci.temporal = rebuilt
		ci.autoTunes.Add(1)
	}
}

// Rebuild reconstructs both children from the in-memory node table,
// building off to the side and swapping pointers atomically so
// concurrent readers never observe a partial state.
func (ci *Index) Rebuild() error {
	ci.mu.RLock()
	snapshot := make([]*node.Node, 0, len(ci.nodes))
	for _, n := range ci.nodes {
		snapshot = append(snapshot, n)
	}
	cfg := ci.cfg
	bucketSeconds := ci.temporal.BucketSeconds()
	ci.mu.RUnlock()

	newSpatial := spatialindex.New(spatialindex.Config{
		Dimension: cfg.SpatialDimension,
		Metric:    cfg.Metric,
		CacheSize: cfg.CacheSize,
		Metrics:   cfg.Metrics,
	})
	newTemporal := temporalindex.New(temporalindex.Config{BucketSeconds: bucketSeconds})

	var spatialBatch []*node.Node
	for _, n := range snapshot {
		if n.Coordinates.HasSpatial {
			spatialBatch = append(spatialBatch, n)
		}
		if n.Coordinates.HasTemporal {
			newTemporal.Insert(n.ID, n.Coordinates.Temporal.UnixSeconds)
		}
	}
	newSpatial.BulkLoad(spatialBatch)

	ci.mu.Lock()
	ci.spatial = newSpatial
	ci.temporal = newTemporal
	ci.mu.Unlock()
	return nil
}

// GetStatistics returns a snapshot combining this level's counters with
// both children's.
func (ci *Index) GetStatistics() Stats {
	ci.mu.RLock()
	spatial := ci.spatial
	temporal := ci.temporal
	ci.mu.RUnlock()
	return Stats{
		Queries:       ci.queries.Load(),
		AutoTunes:     ci.autoTunes.Load(),
		SpatialStats:  spatial.GetStatistics(),
		TemporalStats: temporal.GetStatistics(),
	}
}

// Count returns the number of nodes in the combined node table.
func (ci *Index) Count() int {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	return len(ci.nodes)
}
