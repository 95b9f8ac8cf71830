// Package errs implements the error taxonomy shared by every component:
// a single hierarchy rooted at CoreError, with a Kind distinguishing the
// seven recognized failure categories. Scaled down from the teacher's
// severity/circuit-breaker machinery (libravdb/errors.go) to the kinds
// this spec actually names — see DESIGN.md for why the rest isn't ported.
package errs

import "fmt"

// Kind enumerates the error categories every component wraps failures into.
type Kind int

const (
	InvalidInput Kind = iota
	MissingCoordinate
	NotFound
	BrokenDeltaChain
	BaseNewerThanTarget
	IOFailure
	IndexInconsistent
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case MissingCoordinate:
		return "MissingCoordinate"
	case NotFound:
		return "NotFound"
	case BrokenDeltaChain:
		return "BrokenDeltaChain"
	case BaseNewerThanTarget:
		return "BaseNewerThanTarget"
	case IOFailure:
		return "IOFailure"
	case IndexInconsistent:
		return "IndexInconsistent"
	default:
		return "Unknown"
	}
}

// CoreError is the root of the error hierarchy surfaced to callers. Every
// component-specific error (SpatialIndexError, TemporalIndexError,
// DeltaError, QueryError, StoreError, CombinedIndexError) is a CoreError
// with its Component field set.
type CoreError struct {
	Component string
	Kind      Kind
	Message   string
	Cause     error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Component, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Component, e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *CoreError) Unwrap() error { return e.Cause }

// Is reports whether target is a CoreError of the same Kind, so callers
// can write errors.Is(err, errs.New("", errs.NotFound, "")).
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a CoreError with no wrapped cause.
func New(component string, kind Kind, message string) *CoreError {
	return &CoreError{Component: component, Kind: kind, Message: message}
}

// Wrap constructs a CoreError wrapping a lower-level cause.
func Wrap(component string, kind Kind, message string, cause error) *CoreError {
	return &CoreError{Component: component, Kind: kind, Message: message, Cause: cause}
}

func SpatialIndexError(kind Kind, message string, cause error) *CoreError {
	return Wrap("SpatialIndexError", kind, message, cause)
}

func TemporalIndexError(kind Kind, message string, cause error) *CoreError {
	return Wrap("TemporalIndexError", kind, message, cause)
}

func CombinedIndexError(kind Kind, message string, cause error) *CoreError {
	return Wrap("CombinedIndexError", kind, message, cause)
}

func DeltaError(kind Kind, message string, cause error) *CoreError {
	return Wrap("DeltaError", kind, message, cause)
}

func QueryError(kind Kind, message string, cause error) *CoreError {
	return Wrap("QueryError", kind, message, cause)
}

func StoreError(kind Kind, message string, cause error) *CoreError {
	return Wrap("StoreError", kind, message, cause)
}
