package findiff

import (
	"fmt"
	"math"
)

// DerivativeFunc is the derivative of a Func, evaluated with a stencil and
// a bandwidth chosen at every point.
type DerivativeFunc struct {
	f       Func
	stencil Stencil
	bw      Bandwidth
	coeffs  []float64
}

// NewDerivativeFunc returns the derivative of f. Stencil and bandwidth
// problems are reported here rather than at evaluation time.
func NewDerivativeFunc(f Func, s Stencil, bw Bandwidth) (*DerivativeFunc, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidStencil)
	}
	c, err := coefficients(s)
	if err != nil {
		return nil, err
	}
	if err := bw.Validate(); err != nil {
		return nil, err
	}
	if bw.Strategy == Fixed && bw.Width == 0 && s.DerivativeOrder() > 0 {
		return nil, fmt.Errorf("%w: zero width for %s", ErrInvalidBandwidth, s)
	}
	return &DerivativeFunc{f: f, stencil: s, bw: bw, coeffs: c}, nil
}

// Stencil returns the stencil in use.
func (d *DerivativeFunc) Stencil() Stencil { return d.stencil }

// At returns the derivative estimate at x.
func (d *DerivativeFunc) At(x float64) (float64, error) {
	v, _, err := d.AtWithWidth(x)
	return v, err
}

// AtWithWidth returns the derivative estimate at x and the width used.
func (d *DerivativeFunc) AtWithWidth(x float64) (value, width float64, err error) {
	h, err := d.bw.WidthAt(d.f, x, d.stencil)
	if err != nil {
		return 0, 0, err
	}
	return evaluate(d.f, x, h, d.stencil, d.coeffs), h, nil
}

// Func adapts d to a Func. Evaluation errors become NaN.
func (d *DerivativeFunc) Func() Func {
	return func(x float64) float64 {
		v, err := d.At(x)
		if err != nil {
			return math.NaN()
		}
		return v
	}
}

// PartialDerivativeFunc is the derivative of a MultiFunc along one axis.
type PartialDerivativeFunc struct {
	f       MultiFunc
	axis    int
	stencil Stencil
	bw      Bandwidth
}

// NewPartialDerivativeFunc returns ∂f/∂x_axis (or a higher derivative,
// depending on s).
func NewPartialDerivativeFunc(f MultiFunc, axis int, s Stencil, bw Bandwidth) (*PartialDerivativeFunc, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidStencil)
	}
	if axis < 0 {
		return nil, fmt.Errorf("%w: axis %d", ErrDimension, axis)
	}
	if _, err := coefficients(s); err != nil {
		return nil, err
	}
	if err := bw.Validate(); err != nil {
		return nil, err
	}
	return &PartialDerivativeFunc{f: f, axis: axis, stencil: s, bw: bw}, nil
}

// At returns the partial derivative estimate at x.
func (p *PartialDerivativeFunc) At(x []float64) (float64, error) {
	if p.axis >= len(x) {
		return 0, fmt.Errorf("%w: axis %d of %d-dimensional point", ErrDimension, p.axis, len(x))
	}
	g := Partial(p.f, x, p.axis)
	h, err := p.bw.WidthAt(g, x[p.axis], p.stencil)
	if err != nil {
		return 0, err
	}
	return Derivative(g, x[p.axis], h, p.stencil)
}

// MultivariateDerivativeFunc is a mixed partial derivative of a MultiFunc.
// Per-axis widths come from univariate bandwidths applied to the partial
// function through x along that axis.
type MultivariateDerivativeFunc struct {
	f      MultiFunc
	tensor *Tensor
	bws    []Bandwidth
}

// NewMultivariateDerivativeFunc returns the mixed partial derivative of f
// described by one stencil per axis. bws holds one bandwidth per axis, or a
// single bandwidth shared by all axes.
func NewMultivariateDerivativeFunc(f MultiFunc, bws []Bandwidth, stencils ...Stencil) (*MultivariateDerivativeFunc, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidStencil)
	}
	t, err := NewTensor(stencils...)
	if err != nil {
		return nil, err
	}
	bws, err = broadcastBandwidths(bws, len(stencils))
	if err != nil {
		return nil, err
	}
	return &MultivariateDerivativeFunc{f: f, tensor: t, bws: bws}, nil
}

// Tensor returns the coefficient tensor in use.
func (m *MultivariateDerivativeFunc) Tensor() *Tensor { return m.tensor }

// At returns the mixed partial derivative estimate at x.
func (m *MultivariateDerivativeFunc) At(x []float64) (float64, error) {
	if len(x) != m.tensor.Rank() {
		return 0, fmt.Errorf("%w: point has %d coordinates, tensor rank %d",
			ErrDimension, len(x), m.tensor.Rank())
	}
	h, err := m.Widths(x)
	if err != nil {
		return 0, err
	}
	return evaluateTensor(m.f, x, h, m.tensor)
}

// Widths returns the per-axis widths that At would use at x.
func (m *MultivariateDerivativeFunc) Widths(x []float64) ([]float64, error) {
	h := make([]float64, len(x))
	for j, s := range m.tensor.stencils {
		w, err := m.bws[j].WidthAt(Partial(m.f, x, j), x[j], s)
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", j, err)
		}
		h[j] = w
	}
	return h, nil
}

func broadcastBandwidths(bws []Bandwidth, n int) ([]Bandwidth, error) {
	switch len(bws) {
	case n:
	case 1:
		one := bws[0]
		bws = make([]Bandwidth, n)
		for i := range bws {
			bws[i] = one
		}
	default:
		return nil, fmt.Errorf("%w: %d bandwidths for %d axes", ErrDimension, len(bws), n)
	}
	for i, b := range bws {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
	}
	return append([]Bandwidth(nil), bws...), nil
}
