// Package temporalindex implements the Temporal Index (C5): a bucketed
// time index answering range and time-series queries. Grounded on
// original_source's src/indexing/combined_index.py inline TemporalIndex
// class (bucketed defaultdict(set) + reverse timestamp map) — NOT on the
// separate, legacy src/indexing/temporal_index.py (a SortedDict design
// that doesn't match this bucketed contract).
package temporalindex

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Config configures a new Index.
type Config struct {
	// BucketSeconds is the temporal granularity; default 3600 (60 minutes).
	BucketSeconds float64
}

// Stats mirrors get_statistics().
type Stats struct {
	Inserts uint64
	Deletes uint64
	Queries uint64
}

// Index is a bucketed map bucket_key -> set<id>, plus a reverse id ->
// timestamp map, guarded by a single readers-writer lock (single-writer,
// multi-reader per spec §5).
type Index struct {
	mu            sync.RWMutex
	bucketSeconds float64
	buckets       map[int64]map[string]struct{}
	timestamps    map[string]float64

	inserts, deletes, queries atomic.Uint64
}

// New constructs an empty temporal index with the given bucket width in
// seconds; a non-positive width falls back to 3600. No minimum is applied
// here (the 60-second floor belongs to the combined index's auto-tune).
func New(cfg Config) *Index {
	b := cfg.BucketSeconds
	if b <= 0 {
		b = 3600
	}
	return &Index{
		bucketSeconds: b,
		buckets:       make(map[int64]map[string]struct{}),
		timestamps:    make(map[string]float64),
	}
}

func (idx *Index) bucketKey(ts float64) int64 {
	return int64(math.Floor(ts / idx.bucketSeconds))
}

// BucketSeconds returns the configured bucket width.
func (idx *Index) BucketSeconds() float64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.bucketSeconds
}

// Insert records id at timestamp ts, removing any prior bucket membership
// for id first (O(1) amortized).
func (idx *Index) Insert(id string, ts float64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
	key := idx.bucketKey(ts)
	if idx.buckets[key] == nil {
		idx.buckets[key] = make(map[string]struct{})
	}
	idx.buckets[key][id] = struct{}{}
	idx.timestamps[id] = ts
	idx.inserts.Add(1)
}

// Remove deletes id from the index. Returns whether it was present.
func (idx *Index) Remove(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	existed := idx.removeLocked(id)
	if existed {
		idx.deletes.Add(1)
	}
	return existed
}

func (idx *Index) removeLocked(id string) bool {
	ts, ok := idx.timestamps[id]
	if !ok {
		return false
	}
	key := idx.bucketKey(ts)
	if b := idx.buckets[key]; b != nil {
		delete(b, id)
		if len(b) == 0 {
			delete(idx.buckets, key)
		}
	}
	delete(idx.timestamps, id)
	return true
}

// QueryRange iterates buckets [floor(start/B) .. floor(end/B)] and filters
// members by precise timestamp, inclusive at both ends.
func (idx *Index) QueryRange(start, end float64) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	idx.queries.Add(1)

	startKey := idx.bucketKey(start)
	endKey := idx.bucketKey(end)

	var out []string
	for key := startKey; key <= endKey; key++ {
		for id := range idx.buckets[key] {
			ts := idx.timestamps[id]
			if ts >= start && ts <= end {
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// QueryTimeSeries returns a map interval_index -> set<id> where
// interval_index = floor((ts-start)/interval), for every id with
// timestamp in [start, end]. interval is independent of bucket size.
func (idx *Index) QueryTimeSeries(start, end, interval float64) map[int64]map[string]struct{} {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	idx.queries.Add(1)

	out := make(map[int64]map[string]struct{})
	for id, ts := range idx.timestamps {
		if ts < start || ts > end {
			continue
		}
		intervalIdx := int64(math.Floor((ts - start) / interval))
		if out[intervalIdx] == nil {
			out[intervalIdx] = make(map[string]struct{})
		}
		out[intervalIdx][id] = struct{}{}
	}
	return out
}

// GetBucketDistribution returns bucket -> member count, informing the
// Combined Index's auto-tuner.
func (idx *Index) GetBucketDistribution() map[int64]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[int64]int, len(idx.buckets))
	for k, v := range idx.buckets {
		out[k] = len(v)
	}
	return out
}

// GetNodeCount returns the number of distinct ids indexed.
func (idx *Index) GetNodeCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.timestamps)
}

// AllTimestamps returns every (id, timestamp) pair, used to rebuild the
// index after an auto-tune bucket-size change.
func (idx *Index) AllTimestamps() map[string]float64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]float64, len(idx.timestamps))
	for k, v := range idx.timestamps {
		out[k] = v
	}
	return out
}

// GetStatistics returns a snapshot of the operation counters.
func (idx *Index) GetStatistics() Stats {
	return Stats{
		Inserts: idx.inserts.Load(),
		Deletes: idx.deletes.Load(),
		Queries: idx.queries.Load(),
	}
}
