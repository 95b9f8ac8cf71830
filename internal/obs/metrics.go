// Package obs carries the ambient observability surface: Prometheus
// metrics (adapted from the teacher's internal/obs/metrics.go, renamed to
// this domain's counters) and a self-contained health-check type.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms exposed alongside each
// component's plain get_statistics() snapshot.
type Metrics struct {
	Registry *prometheus.Registry

	NodeInserts     prometheus.Counter
	NodeUpdates     prometheus.Counter
	NodeRemovals    prometheus.Counter
	SpatialQueries  prometheus.Counter
	TemporalQueries prometheus.Counter
	CombinedQueries prometheus.Counter
	QueryErrors     prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	QueryLatency    prometheus.Histogram
	DeltasStored    prometheus.Counter
	DeltasMerged    prometheus.Counter
	DeltasPruned    prometheus.Counter
}

// NewMetrics constructs a Metrics bound to its own registry, so multiple
// Engine instances (e.g. across tests) never collide on global
// registration the way a package-level promauto.NewCounter would.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		NodeInserts: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_node_inserts_total",
			Help: "Total nodes inserted across all indexes.",
		}),
		NodeUpdates: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_node_updates_total",
			Help: "Total node updates.",
		}),
		NodeRemovals: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_node_removals_total",
			Help: "Total node removals.",
		}),
		SpatialQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_spatial_queries_total",
			Help: "Total spatial index queries (nearest/range/path/shape).",
		}),
		TemporalQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_temporal_queries_total",
			Help: "Total temporal index queries.",
		}),
		CombinedQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_combined_queries_total",
			Help: "Total combined index queries.",
		}),
		QueryErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_query_errors_total",
			Help: "Total query engine errors.",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_cache_hits_total",
			Help: "Total result-cache hits (NN cache + query cache).",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_cache_misses_total",
			Help: "Total result-cache misses.",
		}),
		QueryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name: "tsm_query_latency_seconds",
			Help: "Query engine execution latency.",
		}),
		DeltasStored: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_deltas_stored_total",
			Help: "Total deltas written to the delta store.",
		}),
		DeltasMerged: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_deltas_merged_total",
			Help: "Total delta merge operations.",
		}),
		DeltasPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "tsm_deltas_pruned_total",
			Help: "Total deltas removed by prune.",
		}),
	}
}
