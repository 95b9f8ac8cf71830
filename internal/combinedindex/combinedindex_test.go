package combinedindex

import (
	"testing"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/coordinates"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

func combinedNode(id string, spatial []float64, temporal *float64) *node.Node {
	var coords coordinates.Coordinates
	switch {
	case spatial != nil && temporal != nil:
		coords = coordinates.New(coordinates.SpatialPoint(spatial), coordinates.TemporalInstant{UnixSeconds: *temporal})
	case spatial != nil:
		coords = coordinates.NewSpatial(coordinates.SpatialPoint(spatial))
	case temporal != nil:
		coords = coordinates.NewTemporal(coordinates.TemporalInstant{UnixSeconds: *temporal})
	}
	return node.New(id, coords, nil, nil, time.Unix(0, 0).UTC())
}

func f(v float64) *float64 { return &v }

func TestInsertRoutesToApplicableChildren(t *testing.T) {
	ci := New(Config{SpatialDimension: 2})
	ci.Insert(combinedNode("both", []float64{1, 1}, f(100)))
	ci.Insert(combinedNode("spatialOnly", []float64{2, 2}, nil))
	ci.Insert(combinedNode("temporalOnly", nil, f(200)))

	if ci.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", ci.Count())
	}

	spatialResults := ci.Query(&SpatialCriteria{HasRegion: true, Lower: coordinates.SpatialPoint{0, 0}, Upper: coordinates.SpatialPoint{5, 5}}, nil, 0)
	ids := map[string]bool{}
	for _, n := range spatialResults {
		ids[n.ID] = true
	}
	if !ids["both"] || !ids["spatialOnly"] || ids["temporalOnly"] {
		t.Errorf("spatial query returned %v", ids)
	}
}

func TestQueryIntersectionOfSpatialAndTemporal(t *testing.T) {
	ci := New(Config{SpatialDimension: 2})
	ci.Insert(combinedNode("match", []float64{1, 1}, f(50)))
	ci.Insert(combinedNode("spatialOnlyMatch", []float64{1, 1}, f(9999)))
	ci.Insert(combinedNode("temporalOnlyMatch", []float64{50, 50}, f(50)))

	spatialC := &SpatialCriteria{HasRegion: true, Lower: coordinates.SpatialPoint{0, 0}, Upper: coordinates.SpatialPoint{5, 5}}
	temporalC := &TemporalCriteria{HasRange: true, Start: 0, End: 100}

	got := ci.Query(spatialC, temporalC, 0)
	if len(got) != 1 || got[0].ID != "match" {
		t.Errorf("intersection query = %+v, want only 'match'", got)
	}
}

func TestUpdateMovesBetweenChildren(t *testing.T) {
	ci := New(Config{SpatialDimension: 2})
	n := combinedNode("a", []float64{1, 1}, nil)
	ci.Insert(n)

	updated := n.WithCoordinates(coordinates.NewTemporal(coordinates.TemporalInstant{UnixSeconds: 500}), time.Unix(1, 0).UTC(), "")
	if err := ci.Update(updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	spatialResults := ci.Query(&SpatialCriteria{HasRegion: true, Lower: coordinates.SpatialPoint{0, 0}, Upper: coordinates.SpatialPoint{5, 5}}, nil, 0)
	if len(spatialResults) != 0 {
		t.Errorf("expected node removed from spatial index after update, got %+v", spatialResults)
	}

	temporalResults := ci.Query(nil, &TemporalCriteria{HasRange: true, Start: 0, End: 1000}, 0)
	if len(temporalResults) != 1 || temporalResults[0].ID != "a" {
		t.Errorf("expected node present in temporal index after update, got %+v", temporalResults)
	}
}

func TestRebuildPreservesData(t *testing.T) {
	ci := New(Config{SpatialDimension: 2})
	ci.Insert(combinedNode("a", []float64{1, 1}, f(10)))
	ci.Insert(combinedNode("b", []float64{2, 2}, f(20)))

	if err := ci.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if ci.Count() != 2 {
		t.Errorf("Count() after rebuild = %d, want 2", ci.Count())
	}
	got := ci.Query(&SpatialCriteria{HasRegion: true, Lower: coordinates.SpatialPoint{0, 0}, Upper: coordinates.SpatialPoint{5, 5}}, nil, 0)
	if len(got) != 2 {
		t.Errorf("query after rebuild = %+v, want 2 nodes", got)
	}
}

func TestDefaultQueryReturnsAllSortedByID(t *testing.T) {
	ci := New(Config{SpatialDimension: 2})
	ci.Insert(combinedNode("b", []float64{1, 1}, nil))
	ci.Insert(combinedNode("a", []float64{2, 2}, nil))

	got := ci.Query(nil, nil, 0)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("default query = %+v, want id-sorted full scan", got)
	}
}
