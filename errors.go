package findiff

import (
	"errors"

	"github.com/alexshd/findiff/internal/exact"
)

// Sentinel errors. Match with errors.Is; returned errors wrap these with context.
var (
	// ErrInvalidStencil indicates an unsupported stencil, or a stencil whose
	// derivative order does not fit the requested operation.
	ErrInvalidStencil = errors.New("findiff: invalid stencil")

	// ErrInvalidBandwidth indicates a width strategy that cannot produce a width.
	ErrInvalidBandwidth = errors.New("findiff: invalid bandwidth")

	// ErrDimension indicates inputs of mismatched length.
	ErrDimension = exact.ErrDimension

	// ErrDivisionByZero indicates an exact rational with a zero denominator.
	ErrDivisionByZero = exact.ErrDivisionByZero

	// ErrSingularMatrix indicates the coefficient system had no nonzero pivot.
	// Stencils built by NewStencil never produce it.
	ErrSingularMatrix = exact.ErrSingularMatrix
)
