// Package tsm is the public facade over the temporal-spatial storage and
// indexing core: a Node Store, a Combined spatial/temporal Index, a
// Delta Store, and a Query Engine wired together behind a single Engine
// type. Grounded on the teacher's libravdb.Database (libravdb/database.go)
// for the functional-options construction and the coarse method surface.
package tsm

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/combinedindex"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/delta"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/errs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/obs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/query"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/store"
)

// Statistics aggregates every component's get_statistics() snapshot,
// per spec.md's per-component "Statistics" sections.
type Statistics struct {
	NodeCount int
	Index     combinedindex.Stats
	Deltas    delta.Stats
}

// Engine is the core instance: the only shared mutable state is the set
// of indexes, the node store, and the delta store, all owned here, per
// spec §5 ("Shared resources").
type Engine struct {
	mu      sync.RWMutex
	cfg     Config
	store   store.Store
	index   *combinedindex.Index
	deltas  *delta.Store
	queries *query.Engine
	metrics *obs.Metrics
	health  *obs.Checker
	closed  bool
}

// New constructs an Engine with the given options applied over sane
// defaults (disk-backed node store and delta files rooted at "./data",
// 2-dimensional Euclidean spatial index, 1-hour temporal buckets,
// auto-tune on, metrics on).
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	var metrics *obs.Metrics
	if cfg.MetricsEnabled {
		metrics = obs.NewMetrics()
	}

	nodeStore, err := openStore(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open node store: %w", err)
	}

	deltaStore, err := delta.Open(filepath.Join(cfg.StoragePath, "deltas"), metrics)
	if err != nil {
		return nil, fmt.Errorf("open delta store: %w", err)
	}

	idx := combinedindex.New(combinedindex.Config{
		SpatialDimension:      cfg.SpatialDimension,
		Metric:                cfg.Metric,
		TemporalBucketSeconds: cfg.TemporalBucketSeconds,
		CacheSize:             cfg.CacheSize,
		AutoTune:              cfg.AutoTune,
		Metrics:               metrics,
	})

	for _, n := range nodeStore.All() {
		if err := idx.Insert(n); err != nil {
			cfg.Logger.Printf("tsm: skipping node %s during index rebuild: %v", n.ID, err)
			continue
		}
		deltaStore.SetBase(n)
	}

	qe, err := query.New(nodeStore, idx, cfg.CacheSize, metrics)
	if err != nil {
		return nil, fmt.Errorf("construct query engine: %w", err)
	}

	e := &Engine{
		cfg:     *cfg,
		store:   nodeStore,
		index:   idx,
		deltas:  deltaStore,
		queries: qe,
		metrics: metrics,
	}
	e.health = obs.NewChecker(func() int { return idx.Count() })
	return e, nil
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemory(), nil
	}
	return store.Open(path)
}

// Put inserts a new node or updates an existing one, computing and
// storing a delta against its prior version on update, per spec §4.4.
func (e *Engine) Put(n *node.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errs.StoreError(errs.InvalidInput, "engine is closed", nil)
	}

	old, existed := e.store.Get(n.ID)
	if err := e.store.Put(n); err != nil {
		return fmt.Errorf("put node: %w", err)
	}
	if !existed {
		if err := e.index.Insert(n); err != nil {
			return err
		}
		e.deltas.SetBase(n)
		if e.metrics != nil {
			e.metrics.NodeInserts.Inc()
		}
	} else {
		if err := e.index.Update(n); err != nil {
			return err
		}
		d := delta.ComputeDelta(old, n)
		if err := e.deltas.StoreDelta(d); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.NodeUpdates.Inc()
		}
	}
	e.queries.InvalidateCache()
	return nil
}

// Get looks up a node by id from the node store.
func (e *Engine) Get(id string) (*node.Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.store.Get(id)
	if !ok {
		return nil, store.NotFound(id)
	}
	return n, nil
}

// Delete removes a node from the store and every index.
func (e *Engine) Delete(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	existed, err := e.store.Delete(id)
	if err != nil {
		return false, fmt.Errorf("delete node: %w", err)
	}
	if existed {
		e.index.Remove(id)
		if e.metrics != nil {
			e.metrics.NodeRemovals.Inc()
		}
		e.queries.InvalidateCache()
	}
	return existed, nil
}

// BulkLoad inserts every node, skipping (and logging) ones missing a
// required coordinate component rather than aborting the batch, per
// spec §7's aggregation-API policy.
func (e *Engine) BulkLoad(nodes []*node.Node) (inserted, skipped int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var toIndex []*node.Node
	for _, n := range nodes {
		if !n.Coordinates.HasSpatial && !n.Coordinates.HasTemporal {
			e.cfg.Logger.Printf("tsm: skipping node %s: no spatial or temporal component", n.ID)
			skipped++
			continue
		}
		if err := e.store.Put(n); err != nil {
			return inserted, skipped, fmt.Errorf("put node %s: %w", n.ID, err)
		}
		e.deltas.SetBase(n)
		toIndex = append(toIndex, n)
	}
	if err := e.index.BulkLoad(toIndex); err != nil {
		return inserted, skipped, err
	}
	inserted = len(toIndex)
	if e.metrics != nil {
		for i := 0; i < inserted; i++ {
			e.metrics.NodeInserts.Inc()
		}
	}
	e.queries.InvalidateCache()
	return inserted, skipped, nil
}

// Query executes q against the engine's query engine.
func (e *Engine) Query(ctx context.Context, q query.Query) (*query.Result, error) {
	return e.queries.Execute(ctx, q)
}

// NewQueryBuilder starts a fluent query against this engine.
func (e *Engine) NewQueryBuilder() *query.Builder {
	return query.NewBuilder(e.queries)
}

// Reconstruct rebuilds nodeID at targetVersion from its registered base
// node and delta chain.
func (e *Engine) Reconstruct(nodeID string, targetVersion int) (*node.Node, error) {
	base, ok := e.deltas.BaseNode(nodeID)
	if !ok {
		return nil, errs.DeltaError(errs.NotFound, "no base node registered for "+nodeID, nil)
	}
	return e.deltas.Reconstruct(nodeID, base, targetVersion)
}

// Merge collapses the deltas in [start, end] for nodeID into one,
// reconstructing the endpoints and diffing them directly (not the
// source's buggy accumulate-in-place approach).
func (e *Engine) Merge(nodeID string, start, end int) error {
	return e.deltas.Merge(nodeID, start, end)
}

// Prune discards nodeID's oldest deltas beyond keepVersions.
func (e *Engine) Prune(nodeID string, keepVersions int) (int, error) {
	return e.deltas.Prune(nodeID, keepVersions)
}

// Rebuild atomically reconstructs the combined index's children from the
// current node table.
func (e *Engine) Rebuild() error {
	return e.index.Rebuild()
}

// GetStatistics aggregates every component's statistics snapshot.
func (e *Engine) GetStatistics() Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Statistics{
		NodeCount: e.index.Count(),
		Index:     e.index.GetStatistics(),
		Deltas:    e.deltas.GetStatistics(),
	}
}

// Health reports the engine's health status.
func (e *Engine) Health(ctx context.Context) (*obs.HealthStatus, error) {
	return e.health.Check(ctx)
}

// Close releases any held resources (WAL file handles, etc).
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.store.Close()
}

// NewNode constructs a fresh version-1 node, stamping CreatedAt/UpdatedAt
// with the current time.
func NewNode(id string, coords coordinates.Coordinates, content, metadata map[string]interface{}) *node.Node {
	return node.New(id, coords, content, metadata, time.Now().UTC())
}
