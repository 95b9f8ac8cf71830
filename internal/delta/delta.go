// Package delta implements the Delta Encoder and Store (C7): field-level
// diffs between node versions, compressed persistence, and chain
// reconstruction. Grounded on original_source's
// src/delta/delta_optimizer.py (DeltaCompressor/DeltaEncoder/DeltaStore/
// DeltaOptimizer).
package delta

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

// ValueChange records an old/new pair for a field that changed wholesale.
type ValueChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// MetadataChange records a field-level metadata diff, excluding the
// standard housekeeping fields (created_at, updated_at, created_by,
// updated_by, version).
type MetadataChange struct {
	Added   map[string]interface{} `json:"added,omitempty"`
	Changed map[string]ValueChange `json:"changed,omitempty"`
	Removed []string                `json:"removed,omitempty"`
}

func (m *MetadataChange) empty() bool {
	return m == nil || (len(m.Added) == 0 && len(m.Changed) == 0 && len(m.Removed) == 0)
}

// Delta is the field-level diff between version-1 and version of a node.
type Delta struct {
	NodeID      string          `json:"node_id"`
	Version     int             `json:"version"`
	PrevVersion int             `json:"prev_version"`
	Timestamp   int64           `json:"timestamp"`
	Content     *ValueChange    `json:"content,omitempty"`
	Spatial     *ValueChange    `json:"spatial,omitempty"`
	Temporal    *ValueChange    `json:"temporal,omitempty"`
	Metadata    *MetadataChange `json:"metadata,omitempty"`
	UpdatedBy   string          `json:"updated_by,omitempty"`
}

// ComputeDelta compares oldN against newN and records the minimal set of
// field changes, per spec §4.4. newN.Version becomes the delta's Version.
func ComputeDelta(oldN, newN *node.Node) *Delta {
	d := &Delta{
		NodeID:      newN.ID,
		Version:     newN.Version,
		PrevVersion: oldN.Version,
		Timestamp:   newN.UpdatedAt.UnixNano(),
		UpdatedBy:   newN.UpdatedBy,
	}

	if !reflect.DeepEqual(oldN.Content, newN.Content) {
		d.Content = &ValueChange{Old: oldN.Content, New: newN.Content}
	}
	if !spatialEqual(oldN, newN) {
		d.Spatial = &ValueChange{Old: spatialValue(oldN), New: spatialValue(newN)}
	}
	if !temporalEqual(oldN, newN) {
		d.Temporal = &ValueChange{Old: temporalValue(oldN), New: temporalValue(newN)}
	}

	meta := diffMetadata(oldN.Metadata, newN.Metadata)
	if !meta.empty() {
		d.Metadata = meta
	}
	return d
}

func spatialEqual(a, b *node.Node) bool {
	if a.Coordinates.HasSpatial != b.Coordinates.HasSpatial {
		return false
	}
	if !a.Coordinates.HasSpatial {
		return true
	}
	return reflect.DeepEqual(a.Coordinates.Spatial, b.Coordinates.Spatial)
}

func spatialValue(n *node.Node) interface{} {
	if !n.Coordinates.HasSpatial {
		return nil
	}
	return []float64(n.Coordinates.Spatial)
}

func temporalEqual(a, b *node.Node) bool {
	if a.Coordinates.HasTemporal != b.Coordinates.HasTemporal {
		return false
	}
	if !a.Coordinates.HasTemporal {
		return true
	}
	return a.Coordinates.Temporal == b.Coordinates.Temporal
}

func temporalValue(n *node.Node) interface{} {
	if !n.Coordinates.HasTemporal {
		return nil
	}
	return n.Coordinates.Temporal.UnixSeconds
}

func diffMetadata(oldM, newM map[string]interface{}) *MetadataChange {
	out := &MetadataChange{Changed: map[string]ValueChange{}, Added: map[string]interface{}{}}
	for k, nv := range newM {
		if _, standard := node.StandardMetadataFields[k]; standard {
			continue
		}
		ov, existed := oldM[k]
		if !existed {
			out.Added[k] = nv
			continue
		}
		if !reflect.DeepEqual(ov, nv) {
			out.Changed[k] = ValueChange{Old: ov, New: nv}
		}
	}
	for k := range oldM {
		if _, standard := node.StandardMetadataFields[k]; standard {
			continue
		}
		if _, stillPresent := newM[k]; !stillPresent {
			out.Removed = append(out.Removed, k)
		}
	}
	if len(out.Added) == 0 {
		out.Added = nil
	}
	if len(out.Changed) == 0 {
		out.Changed = nil
	}
	return out
}

// ApplyDelta walks a recorded delta and produces a new Node whose
// version, updated_at, and fields are patched accordingly. Missing
// metadata entries are removed; added/changed ones overwrite; unrelated
// fields are preserved. Idempotent: applying the same delta twice to its
// own input yields the same result (every change is an overwrite, never
// an accumulation).
func ApplyDelta(base *node.Node, d *Delta) *node.Node {
	out := *base
	out.Content = cloneInterfaceMap(base.Content)
	out.Metadata = cloneInterfaceMap(base.Metadata)
	out.References = cloneStringSet(base.References)
	out.Version = d.Version
	out.UpdatedAt = time.Unix(0, d.Timestamp).UTC()
	out.UpdatedBy = d.UpdatedBy

	if d.Content != nil {
		if m, ok := d.Content.New.(map[string]interface{}); ok {
			out.Content = cloneInterfaceMap(m)
		} else if d.Content.New == nil {
			out.Content = map[string]interface{}{}
		}
	}
	if d.Spatial != nil {
		if pts, ok := asFloatSlice(d.Spatial.New); ok {
			out.Coordinates.HasSpatial = true
			out.Coordinates.Spatial = pts
		} else if d.Spatial.New == nil {
			out.Coordinates.HasSpatial = false
			out.Coordinates.Spatial = nil
		}
	}
	if d.Temporal != nil {
		if secs, ok := asFloat(d.Temporal.New); ok {
			out.Coordinates.HasTemporal = true
			out.Coordinates.Temporal.UnixSeconds = secs
		} else if d.Temporal.New == nil {
			out.Coordinates.HasTemporal = false
		}
	}
	if d.Metadata != nil {
		for k, v := range d.Metadata.Added {
			out.Metadata[k] = v
		}
		for k, vc := range d.Metadata.Changed {
			out.Metadata[k] = vc.New
		}
		for _, k := range d.Metadata.Removed {
			delete(out.Metadata, k)
		}
	}
	return &out
}

// asFloatSlice accepts both the in-memory []float64 form and the
// []interface{} form a delta takes on after a JSON decompress/unmarshal
// round-trip.
func asFloatSlice(v interface{}) ([]float64, bool) {
	switch t := v.(type) {
	case []float64:
		return append([]float64(nil), t...), true
	case []interface{}:
		out := make([]float64, len(t))
		for i, e := range t {
			f, ok := asFloat(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func cloneInterfaceMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringSet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
