package tsm

import "github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/errs"

// ErrorKind mirrors errs.Kind at the public surface, per spec §7.
type ErrorKind = errs.Kind

const (
	InvalidInput        = errs.InvalidInput
	MissingCoordinate    = errs.MissingCoordinate
	NotFound             = errs.NotFound
	BrokenDeltaChain     = errs.BrokenDeltaChain
	BaseNewerThanTarget  = errs.BaseNewerThanTarget
	IOFailure            = errs.IOFailure
	IndexInconsistent    = errs.IndexInconsistent
)

// CoreError is the root error type of the core's indexes, delta store and
// query engine. Not every failure from this package is one: option
// validation, opening the stores and node-store writes return
// fmt.Errorf-wrapped errors, which unwrap to a CoreError only when their
// cause is one.
type CoreError = errs.CoreError
