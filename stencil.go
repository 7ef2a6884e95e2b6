package findiff

import (
	"fmt"
	"strings"
)

// Kind selects which side of the evaluation point a stencil samples.
type Kind int

const (
	Forward Kind = iota
	Backward
	Central
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Central:
		return "central"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps "forward", "backward" or "central" (case-insensitive) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	case "central":
		return Central, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidStencil, s)
	}
}

// Stencil describes a finite-difference scheme: which side it samples,
// which derivative it approximates, and the order of its truncation error.
//
// Stencil is an immutable value. Two stencils with the same kind,
// derivative order and error order compare equal with ==, so a Stencil
// can be used directly as a map key.
type Stencil struct {
	kind            Kind
	derivativeOrder int
	errorOrder      int

	// Derived from the three fields above.
	left   int
	right  int
	length int
}

// Canonical stencils.
var (
	// ValueStencil samples f(x) itself.
	ValueStencil = MustStencil(Central, 0, 1)

	// TwoPointForward is (f(x+h) - f(x)) / h.
	TwoPointForward = MustStencil(Forward, 1, 1)

	// ThreePointCentral is (f(x+h) - f(x-h)) / 2h.
	ThreePointCentral = MustStencil(Central, 1, 2)

	// FivePointCentral is the fourth-order central first derivative.
	FivePointCentral = MustStencil(Central, 1, 4)
)

// MaxOrder bounds the sum of derivative order and error order. The exact
// solve grows faster than cubically with the stencil length.
const MaxOrder = 64

// NewStencil returns the stencil for the d-th derivative with truncation
// error O(h^n). d+n may not exceed MaxOrder.
//
// Geometry:
//
//	Forward:  offsets 0 .. n+d-1
//	Backward: offsets -(n+d-1) .. 0
//	Central:  offsets -r .. r, r = floor((d+1)/2) + ceil(n/2) - 1
//
// A central stencil gains one order of accuracy from symmetry, so r is the
// minimal radius that reaches error order n for derivative d. When d and n
// are both even this is one less than floor((n+d)/2); the five-point second
// derivative (d=2, n=4) is the familiar example.
func NewStencil(kind Kind, d, n int) (Stencil, error) {
	if d < 0 {
		return Stencil{}, fmt.Errorf("%w: derivative order %d < 0", ErrInvalidStencil, d)
	}
	if n < 1 {
		return Stencil{}, fmt.Errorf("%w: error order %d < 1", ErrInvalidStencil, n)
	}
	if d > MaxOrder || n > MaxOrder || d+n > MaxOrder {
		return Stencil{}, fmt.Errorf("%w: orders d=%d n=%d exceed %d", ErrInvalidStencil, d, n, MaxOrder)
	}

	s := Stencil{kind: kind, derivativeOrder: d, errorOrder: n}
	switch kind {
	case Forward:
		s.left, s.right = 0, n+d-1
	case Backward:
		s.left, s.right = -(n + d - 1), 0
	case Central:
		r := (d+1)/2 + (n+1)/2 - 1
		s.left, s.right = -r, r
	default:
		return Stencil{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidStencil, int(kind))
	}
	s.length = s.right - s.left + 1
	return s, nil
}

// MustStencil is like NewStencil but panics on error.
func MustStencil(kind Kind, d, n int) Stencil {
	s, err := NewStencil(kind, d, n)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Stencil) Kind() Kind           { return s.kind }
func (s Stencil) DerivativeOrder() int { return s.derivativeOrder }
func (s Stencil) ErrorOrder() int      { return s.errorOrder }

// Left is the offset multiplier of the leftmost grid point.
func (s Stencil) Left() int { return s.left }

// Right is the offset multiplier of the rightmost grid point.
func (s Stencil) Right() int { return s.right }

// Len is the number of grid points.
func (s Stencil) Len() int { return s.length }

// Offsets returns left, left+1, ..., right.
func (s Stencil) Offsets() []int {
	out := make([]int, 0, s.length)
	for m := s.left; m <= s.right; m++ {
		out = append(out, m)
	}
	return out
}

// Equal reports whether s and o describe the same scheme.
func (s Stencil) Equal(o Stencil) bool {
	return s.kind == o.kind &&
		s.derivativeOrder == o.derivativeOrder &&
		s.errorOrder == o.errorOrder
}

// IsZero reports whether s is the zero Stencil rather than one built by NewStencil.
func (s Stencil) IsZero() bool { return s.length == 0 }

func (s Stencil) String() string {
	return fmt.Sprintf("%s(d=%d, n=%d)", s.kind, s.derivativeOrder, s.errorOrder)
}

// validate rejects the zero Stencil, which has no grid.
func (s Stencil) validate() error {
	if s.IsZero() {
		return fmt.Errorf("%w: uninitialized stencil", ErrInvalidStencil)
	}
	return nil
}
