package node

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
)

func sampleNode() *Node {
	coords := coordinates.New(coordinates.SpatialPoint{1, 2}, coordinates.TemporalInstant{UnixSeconds: 1000})
	n := New("n1", coords, map[string]interface{}{"a": 1.0}, map[string]interface{}{"tag": "x"}, time.Unix(0, 0).UTC())
	n.References["n2"] = struct{}{}
	return n
}

func TestWithContentBumpsVersionAndPreservesOthers(t *testing.T) {
	n := sampleNode()
	updated := n.WithContent(map[string]interface{}{"a": 2.0}, time.Unix(100, 0).UTC(), "tester")

	if updated.Version != n.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, n.Version+1)
	}
	if n.Content["a"] != 1.0 {
		t.Error("original node content was mutated")
	}
	if updated.Content["a"] != 2.0 {
		t.Errorf("updated content = %v, want 2.0", updated.Content["a"])
	}
	if updated.Coordinates.Spatial[0] != n.Coordinates.Spatial[0] {
		t.Error("unrelated coordinates should be preserved")
	}
}

func TestAddRemoveReference(t *testing.T) {
	n := sampleNode()
	added := n.AddReference("n3")
	if _, ok := added.References["n3"]; !ok {
		t.Fatal("expected n3 to be added")
	}
	if _, ok := n.References["n3"]; ok {
		t.Error("original node references were mutated")
	}

	removed := added.RemoveReference("n2")
	if _, ok := removed.References["n2"]; ok {
		t.Error("expected n2 to be removed")
	}
	if _, ok := removed.References["n3"]; !ok {
		t.Error("expected n3 to survive removal of n2")
	}
}

func TestDTORoundTrip(t *testing.T) {
	n := sampleNode()
	dto := n.ToDTO()

	data, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded DTO
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := FromDTO(decoded)
	if restored.ID != n.ID || restored.Version != n.Version {
		t.Fatalf("restored node mismatch: %+v", restored)
	}
	if !restored.Coordinates.HasSpatial || restored.Coordinates.Spatial[1] != 2 {
		t.Errorf("spatial coordinates did not round-trip: %+v", restored.Coordinates)
	}
	if !restored.Coordinates.HasTemporal || restored.Coordinates.Temporal.UnixSeconds != 1000 {
		t.Errorf("temporal coordinates did not round-trip: %+v", restored.Coordinates)
	}
	if _, ok := restored.References["n2"]; !ok {
		t.Error("references did not round-trip")
	}
	if restored.Metadata["tag"] != "x" {
		t.Error("metadata did not round-trip")
	}
}
