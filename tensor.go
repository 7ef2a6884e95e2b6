package findiff

import "fmt"

// Odometer is a mixed-radix counter over a multi-index (i_1, ..., i_k)
// with 0 <= i_j < radix_j. The first axis advances fastest.
//
// Both the coefficient tensor and the multivariate sampler walk grids
// with an Odometer, so flattened position t always names the same
// multi-index in both.
type Odometer struct {
	radices []int
	index   []int
	size    int
}

// NewOdometer returns a counter positioned at the all-zero index.
// Every radix must be positive.
func NewOdometer(radices []int) (*Odometer, error) {
	size := 1
	for i, r := range radices {
		if r <= 0 {
			return nil, fmt.Errorf("%w: radix %d on axis %d", ErrDimension, r, i)
		}
		size *= r
	}
	return &Odometer{
		radices: append([]int(nil), radices...),
		index:   make([]int, len(radices)),
		size:    size,
	}, nil
}

// Index returns the current multi-index. The slice is owned by the
// Odometer and changes on Next.
func (o *Odometer) Index() []int { return o.index }

// Size is the number of distinct positions, the product of the radices.
func (o *Odometer) Size() int { return o.size }

// Next advances by one position, carrying into higher axes. It returns
// false once the counter wraps back to the all-zero index.
func (o *Odometer) Next() bool {
	for axis := range o.index {
		o.index[axis]++
		if o.index[axis] < o.radices[axis] {
			return true
		}
		o.index[axis] = 0
	}
	return false
}

// Reset returns the counter to the all-zero index.
func (o *Odometer) Reset() {
	for i := range o.index {
		o.index[i] = 0
	}
}

// TensorProduct returns the flattened outer product of vectors. The entry
// at multi-index (i_1, ..., i_k) is vectors[0][i_1] * ... * vectors[k-1][i_k],
// stored with the first axis varying fastest.
func TensorProduct(vectors ...[]float64) []float64 {
	radices := make([]int, len(vectors))
	for i, v := range vectors {
		radices[i] = len(v)
	}
	odo, err := NewOdometer(radices)
	if err != nil {
		return nil
	}

	out := make([]float64, odo.Size())
	for pos := range out {
		p := 1.0
		for axis, i := range odo.Index() {
			p *= vectors[axis][i]
		}
		out[pos] = p
		odo.Next()
	}
	return out
}

// Tensor is the coefficient tensor of a mixed partial derivative: one
// stencil per independent variable and the outer product of their weights.
// A Tensor is immutable and safe for concurrent use.
type Tensor struct {
	stencils []Stencil
	coeffs   []float64
}

// NewTensor returns the tensor for the given per-axis stencils.
// Tensors are cached by stencil tuple.
func NewTensor(stencils ...Stencil) (*Tensor, error) {
	if len(stencils) == 0 {
		return nil, fmt.Errorf("%w: tensor needs at least one axis", ErrInvalidStencil)
	}
	for _, s := range stencils {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	return defaultCache.tensor(stencils)
}

func buildTensor(stencils []Stencil) (*Tensor, error) {
	vectors := make([][]float64, len(stencils))
	for i, s := range stencils {
		c, err := coefficients(s)
		if err != nil {
			return nil, err
		}
		vectors[i] = c
	}
	return &Tensor{
		stencils: append([]Stencil(nil), stencils...),
		coeffs:   TensorProduct(vectors...),
	}, nil
}

// Stencils returns a copy of the per-axis stencils.
func (t *Tensor) Stencils() []Stencil { return append([]Stencil(nil), t.stencils...) }

// Coefficients returns a copy of the flattened weights.
func (t *Tensor) Coefficients() []float64 { return append([]float64(nil), t.coeffs...) }

// Len is the number of grid points, the product of the stencil lengths.
func (t *Tensor) Len() int { return len(t.coeffs) }

// Rank is the number of independent variables.
func (t *Tensor) Rank() int { return len(t.stencils) }

func (t *Tensor) radices() []int {
	r := make([]int, len(t.stencils))
	for i, s := range t.stencils {
		r[i] = s.Len()
	}
	return r
}
