package findiff

import (
	"math"
	"sync"
	"testing"
)

// delta is the tolerance for comparing generated weights with closed forms.
const delta = 2 * MachineEpsilon

// TestCoefficients_ClosedForms verifies weights against textbook stencils.
func TestCoefficients_ClosedForms(t *testing.T) {
	tests := []struct {
		name string
		s    Stencil
		want []float64
	}{
		{"value", ValueStencil, []float64{1}},
		{"two point forward", TwoPointForward, []float64{-1, 1}},
		{"two point backward", MustStencil(Backward, 1, 1), []float64{-1, 1}},
		{"three point central", ThreePointCentral, []float64{-0.5, 0, 0.5}},
		{"five point central", FivePointCentral, []float64{1.0 / 12, -2.0 / 3, 0, 2.0 / 3, -1.0 / 12}},
		{"second derivative order 2", MustStencil(Central, 2, 2), []float64{1, -2, 1}},
		{"second derivative order 4", MustStencil(Central, 2, 4), []float64{-1.0 / 12, 4.0 / 3, -5.0 / 2, 4.0 / 3, -1.0 / 12}},
		{"forward second order", MustStencil(Forward, 1, 2), []float64{-1.5, 2, -0.5}},
		{"backward second order", MustStencil(Backward, 1, 2), []float64{0.5, -2, 1.5}},
		{"third derivative", MustStencil(Central, 3, 2), []float64{-0.5, 1, 0, -1, 0.5}},
		{"fourth derivative", MustStencil(Central, 4, 2), []float64{1, -4, 6, -4, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coefficients(tt.s)
			if err != nil {
				t.Fatalf("Coefficients failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d weights, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > delta {
					t.Errorf("weight %d: expected %.17g, got %.17g", i, tt.want[i], got[i])
				}
			}
		})
	}
}

// TestCoefficients_Sums verifies weights of a derivative stencil sum to zero
// and weights of the value stencil sum to one.
func TestCoefficients_Sums(t *testing.T) {
	for _, kind := range []Kind{Forward, Backward, Central} {
		for d := 0; d <= 4; d++ {
			for n := 1; n <= 6; n++ {
				s := MustStencil(kind, d, n)
				c, err := Coefficients(s)
				if err != nil {
					t.Fatalf("%s: %v", s, err)
				}
				if len(c) != s.Len() {
					t.Errorf("%s: expected %d weights, got %d", s, s.Len(), len(c))
				}

				var sum, abs float64
				for _, v := range c {
					sum += v
					abs += math.Abs(v)
				}
				want := 0.0
				if d == 0 {
					want = 1.0
				}
				if math.Abs(sum-want) > 64*MachineEpsilon*abs {
					t.Errorf("%s: weights sum to %.17g, expected %g", s, sum, want)
				}
			}
		}
	}
}

// TestCoefficients_Deterministic verifies regenerated weights are bit-identical.
func TestCoefficients_Deterministic(t *testing.T) {
	s := MustStencil(Central, 3, 6)

	first, err := Coefficients(s)
	if err != nil {
		t.Fatalf("Coefficients failed: %v", err)
	}
	fresh, err := generateCoefficients(s)
	if err != nil {
		t.Fatalf("generateCoefficients failed: %v", err)
	}
	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(fresh[i]) {
			t.Errorf("weight %d differs: cached %.17g, regenerated %.17g", i, first[i], fresh[i])
		}
	}
}

// TestCoefficients_ReturnsCopy verifies callers cannot corrupt the cache.
func TestCoefficients_ReturnsCopy(t *testing.T) {
	c, err := Coefficients(ThreePointCentral)
	if err != nil {
		t.Fatalf("Coefficients failed: %v", err)
	}
	c[0] = 42

	again, _ := Coefficients(ThreePointCentral)
	if again[0] != -0.5 {
		t.Errorf("cache was modified through a returned slice: %v", again)
	}
}

// TestCoefficients_Concurrent verifies concurrent first use publishes one vector.
func TestCoefficients_Concurrent(t *testing.T) {
	s := MustStencil(Forward, 5, 7)

	const workers = 16
	results := make([][]float64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := coefficients(s)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = c
		}()
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if &results[i][0] != &results[0][0] {
			t.Errorf("worker %d received a different vector than worker 0", i)
		}
	}
}

// TestAbsSum verifies the sum of absolute weights.
func TestAbsSum(t *testing.T) {
	got, err := AbsSum(FivePointCentral)
	if err != nil {
		t.Fatalf("AbsSum failed: %v", err)
	}
	if math.Abs(got-1.5) > delta {
		t.Errorf("expected 1.5, got %.17g", got)
	}
}
