package findiff

import (
	"fmt"
	"math"
)

// Func is a scalar function of one variable.
type Func func(x float64) float64

// MultiFunc is a scalar function of several variables.
type MultiFunc func(x []float64) float64

// Partial fixes every coordinate of x except axis and returns the
// resulting function of one variable. x is copied, and each call works on
// a fresh copy, so f may retain or modify its argument.
func Partial(f MultiFunc, x []float64, axis int) Func {
	base := append([]float64(nil), x...)
	return func(v float64) float64 {
		in := append([]float64(nil), base...)
		in[axis] = v
		return f(in)
	}
}

// Derivative approximates the derivative of f at x described by s, using
// grid width h.
//
// Each grid point is computed as x + m*h from x directly. Non-finite samples
// propagate into the result unchanged.
func Derivative(f Func, x, h float64, s Stencil) (float64, error) {
	c, err := coefficients(s)
	if err != nil {
		return 0, err
	}
	return evaluate(f, x, h, s, c), nil
}

func evaluate(f Func, x, h float64, s Stencil, c []float64) float64 {
	var sum float64
	for i, m := 0, s.Left(); m <= s.Right(); i, m = i+1, m+1 {
		sum += c[i] * f(x+float64(m)*h)
	}
	return sum / math.Pow(h, float64(s.DerivativeOrder()))
}

// MultivariateDerivative approximates the mixed partial derivative of f at
// x described by t, using width h[j] along axis j.
func MultivariateDerivative(f MultiFunc, x, h []float64, t *Tensor) (float64, error) {
	if t == nil {
		return 0, fmt.Errorf("%w: nil tensor", ErrInvalidStencil)
	}
	if len(x) != t.Rank() || len(h) != t.Rank() {
		return 0, fmt.Errorf("%w: point has %d coordinates, widths %d, tensor rank %d",
			ErrDimension, len(x), len(h), t.Rank())
	}
	return evaluateTensor(f, x, h, t)
}

func evaluateTensor(f MultiFunc, x, h []float64, t *Tensor) (float64, error) {
	odo, err := NewOdometer(t.radices())
	if err != nil {
		return 0, err
	}

	base := make([]float64, len(x))
	for j, s := range t.stencils {
		base[j] = x[j] + h[j]*float64(s.Left())
	}

	var sum float64
	for _, c := range t.coeffs {
		point := make([]float64, len(x))
		for j, i := range odo.Index() {
			point[j] = base[j] + float64(i)*h[j]
		}
		sum += c * f(point)
		odo.Next()
	}

	for j, s := range t.stencils {
		sum /= math.Pow(h[j], float64(s.DerivativeOrder()))
	}
	return sum, nil
}
