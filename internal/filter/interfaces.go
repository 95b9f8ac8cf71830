package filter

import (
	"context"
	"fmt"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
)

// Filter represents a metadata predicate that the Query Engine's optional
// attribute_filters post-filter stage runs over node results (SPEC_FULL.md
// §4.5).
type Filter interface {
	// Apply filters the given nodes and returns the ones whose metadata
	// matches, preserving input order.
	Apply(ctx context.Context, nodes []*node.Node) ([]*node.Node, error)

	// Validate checks if the filter is valid
	Validate() error

	// EstimateSelectivity returns an estimate of how selective this filter is (0.0 to 1.0)
	EstimateSelectivity() float64

	// String returns a string representation of the filter
	String() string
}

// FilterType represents the type of filter
type FilterType int

const (
	EqualityFilterType FilterType = iota
	RangeFilterType
	ContainmentFilterType
	LogicalFilterType
)

// LogicalOperator represents logical operations for combining filters
type LogicalOperator int

const (
	AndOperator LogicalOperator = iota
	OrOperator
	NotOperator
)

// FieldType represents the type of a metadata field
type FieldType int

const (
	StringField FieldType = iota
	IntField
	FloatField
	BoolField
	TimeField
	StringArrayField
	IntArrayField
	FloatArrayField
)

// FilterError represents errors that occur during filter operations
type FilterError struct {
	Type    string
	Field   string
	Message string
}

func (e *FilterError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("filter error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("filter error: %s", e.Message)
}

// NewFilterError creates a new filter error
func NewFilterError(filterType, field, message string) *FilterError {
	return &FilterError{
		Type:    filterType,
		Field:   field,
		Message: message,
	}
}
