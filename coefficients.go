package findiff

import (
	"fmt"

	"github.com/alexshd/findiff/internal/exact"
)

// Coefficients returns the weights of s, one per offset in ascending order.
//
// The weights solve the Taylor-matching system exactly over the rationals
// and are rounded to float64 only at the end, so equal stencils always
// produce bit-identical results. Results are cached per stencil; the
// returned slice is a copy the caller may modify.
func Coefficients(s Stencil) ([]float64, error) {
	c, err := coefficients(s)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), c...), nil
}

// coefficients returns the shared cached vector. Callers must not modify it.
func coefficients(s Stencil) ([]float64, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return defaultCache.coefficients(s)
}

// generateCoefficients builds and solves the system
//
//	A[r][c] = offset(c)^r,  b[d] = 1
//
// then scales the solution by d!.
func generateCoefficients(s Stencil) ([]float64, error) {
	n := s.Len()
	offsets := s.Offsets()

	a := make([][]exact.Rat, n)
	a[0] = make([]exact.Rat, n)
	for c := range a[0] {
		a[0][c] = exact.One
	}
	for r := 1; r < n; r++ {
		a[r] = make([]exact.Rat, n)
		for c, m := range offsets {
			a[r][c] = a[r-1][c].Mul(exact.Int(int64(m)))
		}
	}

	b := make([]exact.Rat, n)
	for i := range b {
		b[i] = exact.Zero
	}
	b[s.DerivativeOrder()] = exact.One

	x, err := exact.Solve(a, b)
	if err != nil {
		return nil, fmt.Errorf("coefficients for %s: %w", s, err)
	}

	scale := exact.Factorial(s.DerivativeOrder())
	out := make([]float64, n)
	for i, v := range x {
		out[i] = v.Mul(scale).Float64()
	}
	return out, nil
}

// AbsSum returns the sum of absolute coefficient values of s.
func AbsSum(s Stencil) (float64, error) {
	c, err := coefficients(s)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, v := range c {
		if v < 0 {
			sum -= v
		} else {
			sum += v
		}
	}
	return sum, nil
}
