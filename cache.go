package findiff

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// cache holds coefficient vectors and tensors keyed by stencil shape.
//
// Entries are computed once and never mutated. Concurrent misses for the
// same key share one computation through singleflight, and LoadOrStore
// keeps whichever result was published first.
type cache struct {
	vectors sync.Map // Stencil -> []float64
	tensors sync.Map // string -> *Tensor
	group   singleflight.Group
}

var defaultCache = &cache{}

func (c *cache) coefficients(s Stencil) ([]float64, error) {
	if v, ok := c.vectors.Load(s); ok {
		return v.([]float64), nil
	}

	v, err, _ := c.group.Do("c:"+s.String(), func() (interface{}, error) {
		coeffs, err := generateCoefficients(s)
		if err != nil {
			return nil, err
		}
		actual, _ := c.vectors.LoadOrStore(s, coeffs)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

func (c *cache) tensor(stencils []Stencil) (*Tensor, error) {
	key := tensorKey(stencils)
	if v, ok := c.tensors.Load(key); ok {
		return v.(*Tensor), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		t, err := buildTensor(stencils)
		if err != nil {
			return nil, err
		}
		actual, _ := c.tensors.LoadOrStore(key, t)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tensor), nil
}

func tensorKey(stencils []Stencil) string {
	var b strings.Builder
	b.WriteString("t:")
	for i, s := range stencils {
		if i > 0 {
			b.WriteByte('x')
		}
		b.WriteString(s.String())
	}
	return b.String()
}
