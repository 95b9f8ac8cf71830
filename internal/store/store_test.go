package store

import (
	"os"
	"testing"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

func newTestNode(id string) *node.Node {
	return node.New(id, coordinates.NewSpatial(coordinates.SpatialPoint{1, 2}), nil, nil, time.Unix(0, 0).UTC())
}

func TestMemoryGetPutDelete(t *testing.T) {
	m := NewMemory()
	n := newTestNode("a")

	if _, ok := m.Get("a"); ok {
		t.Fatal("expected miss before insert")
	}
	if err := m.Put(n); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := m.Get("a")
	if !ok || got.ID != "a" {
		t.Fatalf("Get returned %+v, %v", got, ok)
	}

	existed, err := m.Delete("a")
	if err != nil || !existed {
		t.Fatalf("Delete() = %v, %v", existed, err)
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryAllIsSortedSnapshot(t *testing.T) {
	m := NewMemory()
	m.Put(newTestNode("b"))
	m.Put(newTestNode("a"))
	m.Put(newTestNode("c"))

	all := m.All()
	if len(all) != 3 {
		t.Fatalf("All() returned %d nodes, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID > all[i].ID {
			t.Fatalf("All() not sorted: %v", all)
		}
	}
}

func TestDiskRecoversFromWAL(t *testing.T) {
	dir, err := os.MkdirTemp("", "tsm-store-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := d.Put(newTestNode("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := d.Put(newTestNode("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := d.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, ok := reopened.Get("a"); ok {
		t.Error("expected deleted node to stay deleted after recovery")
	}
	if _, ok := reopened.Get("b"); !ok {
		t.Error("expected surviving node to be recovered from WAL")
	}
}

func TestDiskConfigRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "tsm-store-config-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(dir)

	d, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	cfg := Config{SpatialDimension: 3, DistanceMetric: 1, TemporalBucketSecs: 3600}
	if err := d.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := d.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.SpatialDimension != 3 || loaded.DistanceMetric != 1 {
		t.Errorf("loaded config = %+v", loaded)
	}
}
