package delta

import (
	"testing"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

func baseNode() *node.Node {
	coords := coordinates.New(coordinates.SpatialPoint{1, 2}, coordinates.TemporalInstant{UnixSeconds: 1000})
	return node.New("n1", coords, map[string]interface{}{"a": 1.0}, map[string]interface{}{"tag": "x"}, time.Unix(0, 0).UTC())
}

func TestComputeDeltaOnlyRecordsChangedFields(t *testing.T) {
	old := baseNode()
	updated := old.WithContent(map[string]interface{}{"a": 2.0}, time.Unix(10, 0).UTC(), "tester")

	d := ComputeDelta(old, updated)
	if d.Content == nil {
		t.Fatal("expected content change to be recorded")
	}
	if d.Spatial != nil || d.Temporal != nil {
		t.Errorf("expected no spatial/temporal change, got %+v / %+v", d.Spatial, d.Temporal)
	}
	if d.Version != updated.Version || d.PrevVersion != old.Version {
		t.Errorf("version bookkeeping wrong: %+v", d)
	}
}

func TestApplyDeltaRoundTrip(t *testing.T) {
	old := baseNode()
	updated := old.WithContent(map[string]interface{}{"a": 2.0}, time.Unix(10, 0).UTC(), "tester")

	d := ComputeDelta(old, updated)
	applied := ApplyDelta(old, d)

	if applied.Content["a"] != 2.0 {
		t.Errorf("applied content = %v, want 2.0", applied.Content["a"])
	}
	if applied.Version != updated.Version {
		t.Errorf("applied version = %d, want %d", applied.Version, updated.Version)
	}
}

func TestApplyDeltaIsIdempotent(t *testing.T) {
	old := baseNode()
	updated := old.WithContent(map[string]interface{}{"a": 2.0}, time.Unix(10, 0).UTC(), "tester")
	d := ComputeDelta(old, updated)

	first := ApplyDelta(old, d)
	second := ApplyDelta(first, d)

	if first.Content["a"] != second.Content["a"] || first.Version != second.Version {
		t.Errorf("ApplyDelta not idempotent: %+v vs %+v", first, second)
	}
}

func TestApplyDeltaAcceptsPostJSONRoundTripSpatial(t *testing.T) {
	old := baseNode()
	moved := old.WithCoordinates(coordinates.NewSpatial(coordinates.SpatialPoint{9, 9}), time.Unix(10, 0).UTC(), "")
	d := ComputeDelta(old, moved)

	// Simulate decompress/unmarshal round trip: []float64 -> []interface{}.
	d.Spatial.New = []interface{}{9.0, 9.0}

	applied := ApplyDelta(old, d)
	if len(applied.Coordinates.Spatial) != 2 || applied.Coordinates.Spatial[0] != 9 {
		t.Errorf("applied spatial = %v, want [9 9]", applied.Coordinates.Spatial)
	}
}

func TestDiffMetadataExcludesStandardFields(t *testing.T) {
	old := baseNode()
	updated := old.WithMetadata(map[string]interface{}{"tag": "y", "extra": "z"}, time.Unix(10, 0).UTC(), "tester")

	d := ComputeDelta(old, updated)
	if d.Metadata == nil {
		t.Fatal("expected metadata change")
	}
	if _, ok := d.Metadata.Changed["version"]; ok {
		t.Error("standard metadata field 'version' should be excluded from diff")
	}
	if d.Metadata.Changed["tag"].New != "y" {
		t.Errorf("expected tag change to 'y', got %+v", d.Metadata.Changed["tag"])
	}
	if d.Metadata.Added["extra"] != "z" {
		t.Errorf("expected 'extra' to be added, got %+v", d.Metadata.Added)
	}
}
