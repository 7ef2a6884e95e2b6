package findiff

import "fmt"

// GradientFunc computes the gradient of a MultiFunc one coordinate at a time.
type GradientFunc struct {
	f        MultiFunc
	stencils []Stencil
	bws      []Bandwidth
}

// NewGradientFunc returns the gradient of f over n variables. stencils and
// bws each hold one entry per variable, or a single entry shared by all.
// Every stencil must be a first-derivative stencil.
func NewGradientFunc(f MultiFunc, n int, stencils []Stencil, bws []Bandwidth) (*GradientFunc, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidStencil)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: gradient of %d variables", ErrDimension, n)
	}

	switch len(stencils) {
	case n:
		stencils = append([]Stencil(nil), stencils...)
	case 1:
		one := stencils[0]
		stencils = make([]Stencil, n)
		for i := range stencils {
			stencils[i] = one
		}
	default:
		return nil, fmt.Errorf("%w: %d stencils for %d variables", ErrDimension, len(stencils), n)
	}
	for i, s := range stencils {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if s.DerivativeOrder() != 1 {
			return nil, fmt.Errorf("%w: gradient axis %d uses %s", ErrInvalidStencil, i, s)
		}
		if _, err := coefficients(s); err != nil {
			return nil, err
		}
	}

	bws, err := broadcastBandwidths(bws, n)
	if err != nil {
		return nil, err
	}
	return &GradientFunc{f: f, stencils: stencils, bws: bws}, nil
}

// At returns the gradient at x.
func (g *GradientFunc) At(x []float64) ([]float64, error) {
	if len(x) != len(g.stencils) {
		return nil, fmt.Errorf("%w: point has %d coordinates, want %d",
			ErrDimension, len(x), len(g.stencils))
	}

	grad := make([]float64, len(x))
	for i, s := range g.stencils {
		partial := Partial(g.f, x, i)
		h, err := g.bws[i].WidthAt(partial, x[i], s)
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
		v, err := Derivative(partial, x[i], h, s)
		if err != nil {
			return nil, err
		}
		grad[i] = v
	}
	return grad, nil
}

// Gradient returns the gradient of f at x. See NewGradientFunc for the
// shape of stencils and bws.
func Gradient(f MultiFunc, x []float64, stencils []Stencil, bws []Bandwidth) ([]float64, error) {
	g, err := NewGradientFunc(f, len(x), stencils, bws)
	if err != nil {
		return nil, err
	}
	return g.At(x)
}
