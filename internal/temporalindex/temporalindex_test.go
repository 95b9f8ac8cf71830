package temporalindex

import "testing"

func TestQueryRangeInclusiveBothEnds(t *testing.T) {
	idx := New(Config{BucketSeconds: 100})
	idx.Insert("a", 0)
	idx.Insert("b", 50)
	idx.Insert("c", 100)
	idx.Insert("d", 150)

	got := idx.QueryRange(0, 100)
	want := map[string]bool{"a": true, "b": true, "c": true}
	if len(got) != len(want) {
		t.Fatalf("QueryRange() = %v, want keys %v", got, want)
	}
	for _, id := range got {
		if !want[id] {
			t.Errorf("unexpected id %s in range result", id)
		}
	}
}

func TestInsertReplacesPriorBucketMembership(t *testing.T) {
	idx := New(Config{BucketSeconds: 10})
	idx.Insert("a", 5)
	idx.Insert("a", 25)

	if got := idx.QueryRange(0, 9); len(got) != 0 {
		t.Errorf("expected a to have moved out of its original bucket, got %v", got)
	}
	if got := idx.QueryRange(20, 29); len(got) != 1 || got[0] != "a" {
		t.Errorf("expected a in its new bucket, got %v", got)
	}
}

func TestRemoveCleansEmptyBuckets(t *testing.T) {
	idx := New(Config{BucketSeconds: 10})
	idx.Insert("a", 5)
	if !idx.Remove("a") {
		t.Fatal("expected Remove to report existed")
	}
	if idx.Remove("a") {
		t.Error("expected second Remove to report not-existed")
	}
	dist := idx.GetBucketDistribution()
	if len(dist) != 0 {
		t.Errorf("expected empty bucket to be cleaned up, got %v", dist)
	}
}

func TestQueryTimeSeriesBucketsByInterval(t *testing.T) {
	idx := New(Config{BucketSeconds: 3600})
	idx.Insert("a", 0)
	idx.Insert("b", 5)
	idx.Insert("c", 15)

	series := idx.QueryTimeSeries(0, 20, 10)
	if len(series[0]) != 2 {
		t.Errorf("interval 0 = %v, want 2 members", series[0])
	}
	if len(series[1]) != 1 {
		t.Errorf("interval 1 = %v, want 1 member", series[1])
	}
}

func TestAllTimestampsRoundTripsIntoNewIndex(t *testing.T) {
	idx := New(Config{BucketSeconds: 100})
	idx.Insert("a", 5)
	idx.Insert("b", 205)

	rebuilt := New(Config{BucketSeconds: 50})
	for id, ts := range idx.AllTimestamps() {
		rebuilt.Insert(id, ts)
	}
	if rebuilt.GetNodeCount() != 2 {
		t.Errorf("GetNodeCount() = %d, want 2", rebuilt.GetNodeCount())
	}
}
