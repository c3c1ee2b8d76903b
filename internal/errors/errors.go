// Package errors provides error handling for nerve-tracer.
//
// It re-exports github.com/cockroachdb/errors and defines the sentinel
// errors every analysis failure is classified under:
//
//	ErrInputContract    raster shape or value domain rejected before graph construction
//	ErrTopology         an edge segment without exactly two node attachments
//	ErrIterationBudget  a bounded loop exceeded its iteration cap
//
// Usage:
//
//	if err := graph.Build(...); errors.Is(err, errors.ErrTopology) {
//	    // upstream skeletonization produced a malformed skeleton
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// Details and hints
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllDetails  = crdb.GetAllDetails
	FlattenDetails = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinels for the analysis error taxonomy.
var (
	ErrInputContract   = crdb.New("input contract violation")
	ErrTopology        = crdb.New("skeleton topology error")
	ErrIterationBudget = crdb.New("iteration budget exceeded")
)

// InputContractf returns an error marked as ErrInputContract.
func InputContractf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.Newf(format, args...), ErrInputContract)
}

// Topologyf returns an error marked as ErrTopology.
func Topologyf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.Newf(format, args...), ErrTopology)
}

// IterationBudgetf returns an error marked as ErrIterationBudget.
func IterationBudgetf(format string, args ...interface{}) error {
	return crdb.Mark(crdb.Newf(format, args...), ErrIterationBudget)
}
