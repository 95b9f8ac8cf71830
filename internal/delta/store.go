package delta

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/errs"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/obs"
)

// indexEntry is one row of a node's delta chain in index.json:
// (version, timestamp, filename), kept sorted by version.
type indexEntry struct {
	Version   int    `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Filename  string `json:"filename"`
}

// Stats tracks total deltas, pruned, merged, and compression ratio, per
// spec §4.4.
type Stats struct {
	TotalDeltas      int
	Pruned           int
	Merged           int
	CompressionRatio float64
}

// Store persists delta chains to a directory, per the delta file layout
// in spec §6: index.json plus one {node_id}_{version}_{timestamp}.delta
// file per stored delta. Grounded on original_source's DeltaStore.
type Store struct {
	mu      sync.Mutex
	dir     string
	index   map[string][]indexEntry
	deltas  map[string]map[int]*Delta // nodeID -> version -> delta, populated lazily on load
	bases   map[string]*node.Node     // nodeID -> registered base node (see SetBase), needed to reconstruct/merge
	metrics *obs.Metrics

	pruned, merged int
}

// Open opens (or creates) a delta store rooted at dir, loading any
// existing index.json.
func Open(dir string, metrics *obs.Metrics) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.DeltaError(errs.IOFailure, "create delta directory", err)
	}
	s := &Store{
		dir:     dir,
		index:   make(map[string][]indexEntry),
		deltas:  make(map[string]map[int]*Delta),
		bases:   make(map[string]*node.Node),
		metrics: metrics,
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) indexPath() string { return filepath.Join(s.dir, "index.json") }

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.DeltaError(errs.IOFailure, "read delta index", err)
	}
	var raw map[string][]indexEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.DeltaError(errs.IOFailure, "parse delta index", err)
	}
	s.index = raw
	return nil
}

func (s *Store) saveIndexLocked() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return errs.DeltaError(errs.IOFailure, "marshal delta index", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0644); err != nil {
		return errs.DeltaError(errs.IOFailure, "write delta index", err)
	}
	return nil
}

// SetBase registers the node reconstruction folds nodeID's deltas onto,
// replacing any earlier registration. The base is held in memory only:
// tsm.Engine registers version 1 when it creates a node, and the current
// stored version when it reopens a store or bulk-loads a node, so versions
// older than that base cannot be reconstructed afterwards.
func (s *Store) SetBase(n *node.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bases[n.ID] = n
}

// BaseNode returns the registered base node for nodeID, if any.
func (s *Store) BaseNode(nodeID string) (*node.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.bases[nodeID]
	return n, ok
}

// canonicalize renders v as sorted-key JSON (Go's encoding/json already
// sorts map keys, matching Python's json.dumps(sort_keys=True)).
func canonicalize(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// StoreDelta serializes d to canonical JSON, deflate-compresses it (level
// 9), and writes it under the node's chain, updating index.json.
func (s *Store) StoreDelta(d *Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	canonical, err := canonicalize(d)
	if err != nil {
		return errs.DeltaError(errs.IOFailure, "canonicalize delta", err)
	}
	compressed, err := compress(canonical)
	if err != nil {
		return errs.DeltaError(errs.IOFailure, "compress delta", err)
	}

	filename := fmt.Sprintf("%s_%d_%d.delta", d.NodeID, d.Version, d.Timestamp)
	if err := os.WriteFile(filepath.Join(s.dir, filename), compressed, 0644); err != nil {
		return errs.DeltaError(errs.IOFailure, "write delta file", err)
	}

	s.index[d.NodeID] = append(s.index[d.NodeID], indexEntry{Version: d.Version, Timestamp: d.Timestamp, Filename: filename})
	sort.Slice(s.index[d.NodeID], func(i, j int) bool { return s.index[d.NodeID][i].Version < s.index[d.NodeID][j].Version })

	if s.deltas[d.NodeID] == nil {
		s.deltas[d.NodeID] = make(map[int]*Delta)
	}
	s.deltas[d.NodeID][d.Version] = d

	if s.metrics != nil {
		s.metrics.DeltasStored.Inc()
	}
	return s.saveIndexLocked()
}

// GetDelta fetches a single version's delta, reading from disk if it
// isn't already cached in memory.
func (s *Store) GetDelta(nodeID string, version int) (*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDeltaLocked(nodeID, version)
}

func (s *Store) getDeltaLocked(nodeID string, version int) (*Delta, error) {
	if m := s.deltas[nodeID]; m != nil {
		if d, ok := m[version]; ok {
			return d, nil
		}
	}
	var filename string
	for _, e := range s.index[nodeID] {
		if e.Version == version {
			filename = e.Filename
			break
		}
	}
	if filename == "" {
		return nil, errs.DeltaError(errs.NotFound, fmt.Sprintf("no delta for %s v%d", nodeID, version), nil)
	}
	compressed, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, errs.DeltaError(errs.IOFailure, "read delta file", err)
	}
	raw, err := decompress(compressed)
	if err != nil {
		return nil, errs.DeltaError(errs.IOFailure, "decompress delta file", err)
	}
	var d Delta
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errs.DeltaError(errs.IOFailure, "unmarshal delta", err)
	}
	if s.deltas[nodeID] == nil {
		s.deltas[nodeID] = make(map[int]*Delta)
	}
	s.deltas[nodeID][version] = &d
	return &d, nil
}

// GetDeltaChain fetches the chain of deltas leading from version from to
// version to, in order. Each delta must start at the version the previous
// one ended (its PrevVersion), so a merged delta stands in for the
// versions it replaced; any gap fails with BrokenDeltaChain.
func (s *Store) GetDeltaChain(nodeID string, from, to int) ([]*Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var chain []*Delta
	var lastErr error
	prev := from
	for v := from + 1; v <= to; v++ {
		d, err := s.getDeltaLocked(nodeID, v)
		if err != nil {
			lastErr = err
			continue
		}
		if d.PrevVersion != prev {
			return nil, errs.DeltaError(errs.BrokenDeltaChain, fmt.Sprintf("delta %s v%d follows v%d, not v%d", nodeID, v, d.PrevVersion, prev), nil)
		}
		chain = append(chain, d)
		prev = v
	}
	if prev != to {
		return nil, errs.DeltaError(errs.BrokenDeltaChain, fmt.Sprintf("missing delta for %s v%d", nodeID, prev+1), lastErr)
	}
	return chain, nil
}

// Reconstruct rebuilds nodeID at targetVersion by folding the delta chain
// left onto baseNode. Fails with BaseNewerThanTarget if
// baseNode.Version > targetVersion; returns baseNode unchanged if equal.
func (s *Store) Reconstruct(nodeID string, baseNode *node.Node, targetVersion int) (*node.Node, error) {
	if baseNode.Version > targetVersion {
		return nil, errs.DeltaError(errs.BaseNewerThanTarget, fmt.Sprintf("base version %d > target %d", baseNode.Version, targetVersion), nil)
	}
	if baseNode.Version == targetVersion {
		return baseNode, nil
	}
	chain, err := s.GetDeltaChain(nodeID, baseNode.Version, targetVersion)
	if err != nil {
		return nil, err
	}
	current := baseNode
	for _, d := range chain {
		current = ApplyDelta(current, d)
	}
	return current, nil
}

// Prune removes the oldest deltas for nodeID until at most keepVersions
// most-recent remain. Returns the count removed.
func (s *Store) Prune(nodeID string, keepVersions int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.index[nodeID]
	if len(entries) <= keepVersions {
		return 0, nil
	}
	toRemove := entries[:len(entries)-keepVersions]
	kept := entries[len(entries)-keepVersions:]

	for _, e := range toRemove {
		if err := os.Remove(filepath.Join(s.dir, e.Filename)); err != nil && !os.IsNotExist(err) {
			return 0, errs.DeltaError(errs.IOFailure, "remove pruned delta file", err)
		}
		if m := s.deltas[nodeID]; m != nil {
			delete(m, e.Version)
		}
	}
	s.index[nodeID] = kept
	s.pruned += len(toRemove)
	if s.metrics != nil {
		s.metrics.DeltasPruned.Add(float64(len(toRemove)))
	}
	return len(toRemove), s.saveIndexLocked()
}

// Merge reconstructs the initial state at start-1 and the final state at
// end, computes a single direct delta between them, stores it, and
// deletes the replaced deltas. This is the corrected reconstruct-and-diff
// semantics spec §9 requires in place of the source's
// base_delta["node"] bug (original_source's merge_deltas) — not
// reproduced here. Refuses if fewer than two deltas lie in [start, end]
// or the base cannot be reconstructed.
func (s *Store) Merge(nodeID string, start, end int) error {
	s.mu.Lock()
	base, ok := s.bases[nodeID]
	s.mu.Unlock()
	if !ok {
		return errs.DeltaError(errs.NotFound, "no base node registered for "+nodeID, nil)
	}

	s.mu.Lock()
	entries := s.index[nodeID]
	inRange := 0
	for _, e := range entries {
		if e.Version >= start && e.Version <= end {
			inRange++
		}
	}
	s.mu.Unlock()
	if inRange < 2 {
		return errs.DeltaError(errs.InvalidInput, "merge requires at least two deltas in range", nil)
	}

	initial, err := s.Reconstruct(nodeID, base, start-1)
	if err != nil {
		return errs.DeltaError(errs.IOFailure, "reconstruct merge base state", err)
	}
	final, err := s.Reconstruct(nodeID, base, end)
	if err != nil {
		return errs.DeltaError(errs.IOFailure, "reconstruct merge final state", err)
	}

	merged := ComputeDelta(initial, final)
	merged.Version = end
	merged.PrevVersion = start - 1

	s.mu.Lock()
	var kept []indexEntry
	var removed []indexEntry
	for _, e := range s.index[nodeID] {
		if e.Version >= start && e.Version <= end {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	s.index[nodeID] = kept
	for _, e := range removed {
		os.Remove(filepath.Join(s.dir, e.Filename))
		if m := s.deltas[nodeID]; m != nil {
			delete(m, e.Version)
		}
	}
	s.mu.Unlock()

	if err := s.StoreDelta(merged); err != nil {
		return err
	}
	s.mu.Lock()
	s.merged++
	if s.metrics != nil {
		s.metrics.DeltasMerged.Inc()
	}
	s.mu.Unlock()
	return nil
}

// GetStatistics returns total deltas, pruned, merged, and the
// compression ratio across every stored delta file.
func (s *Store) GetStatistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	var uncompressed, compressed int64
	for nodeID, entries := range s.index {
		total += len(entries)
		for _, e := range entries {
			info, err := os.Stat(filepath.Join(s.dir, e.Filename))
			if err != nil {
				continue
			}
			compressed += info.Size()
			if d, err := s.getDeltaLocked(nodeID, e.Version); err == nil {
				if raw, err := canonicalize(d); err == nil {
					uncompressed += int64(len(raw))
				}
			}
		}
	}
	ratio := 0.0
	if compressed > 0 {
		ratio = float64(uncompressed) / float64(compressed)
	}
	return Stats{
		TotalDeltas:      total,
		Pruned:           s.pruned,
		Merged:           s.merged,
		CompressionRatio: ratio,
	}
}
