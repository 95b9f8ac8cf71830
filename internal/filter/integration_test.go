package filter

import (
	"context"
	"testing"
	"time"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

// TestFilterIntegration tests the complete filtering system with complex scenarios
func TestFilterIntegration(t *testing.T) {
	ctx := context.Background()

	// Create test data with various field types
	baseTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	nodes := []*node.Node{
		newTestNode("1", map[string]interface{}{
			"region":      "west",
			"priority":    299.99,
			"owner":       "apple",
			"tags":        []string{"smartphone", "premium", "5g"},
			"confidence":  4.5,
			"active":      true,
			"observed_at": baseTime,
			"colors":      []string{"black", "white"},
		}),
		newTestNode("2", map[string]interface{}{
			"region":      "west",
			"priority":    199.99,
			"owner":       "samsung",
			"tags":        []string{"smartphone", "budget", "4g"},
			"confidence":  4.2,
			"active":      true,
			"observed_at": baseTime.Add(24 * time.Hour),
			"colors":      []string{"blue", "red"},
		}),
		newTestNode("3", map[string]interface{}{
			"region":      "east",
			"priority":    29.99,
			"owner":       "penguin",
			"tags":        []string{"archive", "verified"},
			"confidence":  4.8,
			"active":      false,
			"observed_at": baseTime.Add(48 * time.Hour),
			"colors":      []string{"multicolor"},
		}),
		newTestNode("4", map[string]interface{}{
			"region":      "west",
			"priority":    599.99,
			"owner":       "apple",
			"tags":        []string{"sensor", "premium", "beacon"},
			"confidence":  4.9,
			"active":      true,
			"observed_at": baseTime.Add(72 * time.Hour),
			"colors":      []string{"silver", "space_gray"},
		}),
		newTestNode("5", map[string]interface{}{
			"region":      "south",
			"priority":    79.99,
			"owner":       "nike",
			"tags":        []string{"mobile", "running", "low_power"},
			"confidence":  4.3,
			"active":      true,
			"observed_at": baseTime.Add(96 * time.Hour),
			"colors":      []string{"black", "white", "red"},
		}),
	}

	t.Run("complex AND filter", func(t *testing.T) {
		// Find west-region nodes that are premium and active
		filter := NewAndFilter(
			NewEqualityFilter("region", "west"),
			NewContainsAnyFilter("tags", []interface{}{"premium"}),
			NewEqualityFilter("active", true),
		)

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		expected := []string{"1", "4"} // apple-owned nodes
		if len(result) != len(expected) {
			t.Errorf("Apply() returned %d results, expected %d", len(result), len(expected))
		}

		resultIDs := make(map[string]bool)
		for _, n := range result {
			resultIDs[n.ID] = true
		}

		for _, expectedID := range expected {
			if !resultIDs[expectedID] {
				t.Errorf("Apply() missing expected ID %s", expectedID)
			}
		}
	})

	t.Run("complex OR with nested AND", func(t *testing.T) {
		// Find (high-priority west nodes) OR (highly confident east nodes)
		expensiveWest := NewAndFilter(
			NewEqualityFilter("region", "west"),
			NewGreaterThanFilter("priority", 500),
		)

		confidentEast := NewAndFilter(
			NewEqualityFilter("region", "east"),
			NewGreaterThanFilter("confidence", 4.5),
		)

		filter := NewOrFilter(expensiveWest, confidentEast)

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		expected := []string{"3", "4"}
		if len(result) != len(expected) {
			t.Errorf("Apply() returned %d results, expected %d", len(result), len(expected))
		}
	})

	t.Run("range filter with time", func(t *testing.T) {
		// Find nodes observed in the first 3 days
		filter := NewBetweenFilter("observed_at", baseTime, baseTime.Add(72*time.Hour))

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		expected := []string{"1", "2", "3", "4"}
		if len(result) != len(expected) {
			t.Errorf("Apply() returned %d results, expected %d", len(result), len(expected))
		}
	})

	t.Run("containment filter with arrays", func(t *testing.T) {
		// Find nodes that have both black and white colors
		filter := NewContainsAllFilter("colors", []interface{}{"black", "white"})

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		expected := []string{"1", "5"}
		if len(result) != len(expected) {
			t.Errorf("Apply() returned %d results, expected %d", len(result), len(expected))
		}
	})

	t.Run("NOT filter", func(t *testing.T) {
		// Find nodes that are NOT in the west region
		filter := NewNotFilter(NewEqualityFilter("region", "west"))

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		expected := []string{"3", "5"}
		if len(result) != len(expected) {
			t.Errorf("Apply() returned %d results, expected %d", len(result), len(expected))
		}
	})

	t.Run("highly complex nested filter", func(t *testing.T) {
		// Find: (apple OR samsung owned) AND (active) AND (priority < 400) AND NOT (east)
		appleOrSamsung := NewOrFilter(
			NewEqualityFilter("owner", "apple"),
			NewEqualityFilter("owner", "samsung"),
		)

		activeAndAffordable := NewAndFilter(
			NewEqualityFilter("active", true),
			NewLessThanFilter("priority", 400),
		)

		notEast := NewNotFilter(NewEqualityFilter("region", "east"))

		complexFilter := NewAndFilter(appleOrSamsung, activeAndAffordable, notEast)

		result, err := complexFilter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		expected := []string{"1", "2"}
		if len(result) != len(expected) {
			t.Errorf("Apply() returned %d results, expected %d", len(result), len(expected))
		}
	})
}

// TestFilterWithParser tests the integration of filters with the parser
func TestFilterWithParser(t *testing.T) {
	ctx := context.Background()

	schema := map[string]FieldType{
		"region":      StringField,
		"priority":    FloatField,
		"owner":       StringField,
		"tags":        StringArrayField,
		"confidence":  FloatField,
		"active":      BoolField,
		"observed_at": TimeField,
	}

	parser := NewFilterParser(schema)

	nodes := []*node.Node{
		newTestNode("1", map[string]interface{}{"region": "west", "priority": 299.99, "owner": "apple"}),
		newTestNode("2", map[string]interface{}{"region": "east", "priority": 29.99, "owner": "penguin"}),
	}

	t.Run("create and apply equality filter", func(t *testing.T) {
		filter, err := parser.CreateEqualityFilter("region", "west")
		if err != nil {
			t.Fatalf("CreateEqualityFilter() error = %v", err)
		}

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		if len(result) != 1 || result[0].ID != "1" {
			t.Errorf("Apply() returned unexpected results")
		}
	})

	t.Run("create and apply range filter", func(t *testing.T) {
		filter, err := parser.CreateRangeFilter("priority", "25.00", "100.00")
		if err != nil {
			t.Fatalf("CreateRangeFilter() error = %v", err)
		}

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		if len(result) != 1 || result[0].ID != "2" {
			t.Errorf("Apply() returned unexpected results")
		}
	})
}

// TestFilterEdgeCases tests various edge cases and error conditions
func TestFilterEdgeCases(t *testing.T) {
	ctx := context.Background()

	nodes := []*node.Node{
		newTestNode("1", map[string]interface{}{"field": nil}),
		newTestNode("2", map[string]interface{}{"field": ""}),
		newTestNode("3", map[string]interface{}{"field": 0}),
		newTestNode("4", map[string]interface{}{"field": false}),
		newTestNode("5", map[string]interface{}{}), // Empty metadata
		newTestNode("6", nil),                       // Nil metadata
	}

	t.Run("equality filter with nil values", func(t *testing.T) {
		filter := NewEqualityFilter("field", nil)

		// Should fail validation
		err := filter.Validate()
		if err == nil {
			t.Error("Validate() should fail for nil value")
		}
	})

	t.Run("equality filter with empty string", func(t *testing.T) {
		filter := NewEqualityFilter("field", "")

		result, err := filter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		if len(result) != 1 || result[0].ID != "2" {
			t.Errorf("Apply() should match empty string")
		}
	})

	t.Run("range filter with zero values", func(t *testing.T) {
		// Create nodes with only numeric values for this test
		numericNodes := []*node.Node{
			newTestNode("1", map[string]interface{}{"value": -5}),
			newTestNode("2", map[string]interface{}{"value": 0}),
			newTestNode("3", map[string]interface{}{"value": 5}),
			newTestNode("4", map[string]interface{}{"value": 10}),
		}

		filter := NewBetweenFilter("value", -1, 1)

		result, err := filter.Apply(ctx, numericNodes)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		if len(result) != 1 || result[0].ID != "2" {
			t.Errorf("Apply() should match zero value, got %d results", len(result))
			for _, r := range result {
				t.Logf("Result ID: %s, value: %v", r.ID, r.Metadata["value"])
			}
		}
	})

	t.Run("containment filter with empty arrays", func(t *testing.T) {
		nodesWithArrays := []*node.Node{
			newTestNode("1", map[string]interface{}{"tags": []string{}}),
			newTestNode("2", map[string]interface{}{"tags": []string{"tag1"}}),
		}

		filter := NewContainsAnyFilter("tags", []interface{}{"tag1"})

		result, err := filter.Apply(ctx, nodesWithArrays)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}

		if len(result) != 1 || result[0].ID != "2" {
			t.Errorf("Apply() should not match empty array")
		}
	})

	t.Run("logical filter with empty results", func(t *testing.T) {
		// Create filters that match nothing
		filter1 := NewEqualityFilter("nonexistent", "value")
		filter2 := NewEqualityFilter("another_nonexistent", "value")

		andFilter := NewAndFilter(filter1, filter2)
		orFilter := NewOrFilter(filter1, filter2)

		andResult, err := andFilter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("AND Apply() error = %v", err)
		}

		orResult, err := orFilter.Apply(ctx, nodes)
		if err != nil {
			t.Fatalf("OR Apply() error = %v", err)
		}

		if len(andResult) != 0 {
			t.Errorf("AND filter should return empty results")
		}

		if len(orResult) != 0 {
			t.Errorf("OR filter should return empty results")
		}
	})
}
