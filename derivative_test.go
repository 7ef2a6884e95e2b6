package findiff

import (
	"context"
	"errors"
	"math"
	"testing"
)

// TestDerivative_SinFivePoint verifies d/dx sin = cos within 1e-10 over [0, 4π].
//
// sin is bounded and periodic, so absolute error is the right measure.
func TestDerivative_SinFivePoint(t *testing.T) {
	cfg := DefaultSweepConfig()
	cfg.Start, cfg.End, cfg.Steps = 0, 4*math.Pi, 10000
	cfg.Stencil = FivePointCentral
	cfg.Bandwidth = FixedBandwidth(0x1p-10)

	result, err := Sweep(context.Background(), math.Sin, math.Cos, cfg)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	acc := AccuracyConfig{MaxAbsoluteError: 1e-10, MaxReported: 10}
	AssertAbsoluteAccuracy(t, result, acc)
	PrintSweep(t, result)
}

// TestDerivative_SinSecondOrder verifies d²/dx² sin = -sin within 1e-3.
func TestDerivative_SinSecondOrder(t *testing.T) {
	cfg := DefaultSweepConfig()
	cfg.Start, cfg.End, cfg.Steps = 0, 4*math.Pi, 10000
	cfg.Stencil = MustStencil(Central, 2, 4)
	cfg.Bandwidth = RuleOfThumbBandwidth(true)

	negSin := func(x float64) float64 { return -math.Sin(x) }
	result, err := Sweep(context.Background(), math.Sin, negSin, cfg)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	acc := AccuracyConfig{MaxAbsoluteError: 1e-3, MaxReported: 10}
	AssertAbsoluteAccuracy(t, result, acc)
}

// TestDerivative_Exp verifies exp is its own derivative to 1e-7 relative
// error over [0, 100000].
//
// exp overflows past x ≈ 709.8; those points have infinite reference values
// and are reported as non-finite rather than failed.
func TestDerivative_Exp(t *testing.T) {
	tests := []struct {
		name    string
		stencil Stencil
	}{
		{"first order", FivePointCentral},
		{"second order", MustStencil(Central, 2, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSweepConfig()
			cfg.Start, cfg.End, cfg.Steps = 0, 100000, 1000
			cfg.Stencil = tt.stencil
			cfg.Bandwidth = OptimalBandwidth(DefaultStepOptions())

			result, err := Sweep(context.Background(), math.Exp, math.Exp, cfg)
			if err != nil {
				t.Fatalf("Sweep failed: %v", err)
			}

			AssertRelativeAccuracy(t, result, DefaultAccuracyConfig())

			stats := CalculateErrorStatistics(result.Points)
			if stats.Count < 7 {
				t.Errorf("expected at least the points below overflow to be finite, got %d", stats.Count)
			}
		})
	}
}

// TestDerivative_SamplesFromX verifies grid points are x + m·h, not accumulated.
func TestDerivative_SamplesFromX(t *testing.T) {
	var seen []float64
	f := func(x float64) float64 {
		seen = append(seen, x)
		return x
	}

	x, h := 0.1, 0.1
	if _, err := Derivative(f, x, h, FivePointCentral); err != nil {
		t.Fatalf("Derivative failed: %v", err)
	}

	for i, m := 0, -2; m <= 2; i, m = i+1, m+1 {
		if want := x + float64(m)*h; seen[i] != want {
			t.Errorf("sample %d: expected %.17g, got %.17g", i, want, seen[i])
		}
	}
}

// TestDerivative_PropagatesNaN verifies non-finite samples are not sanitized.
func TestDerivative_PropagatesNaN(t *testing.T) {
	f := func(x float64) float64 {
		if x > 1 {
			return math.NaN()
		}
		return x
	}
	got, err := Derivative(f, 1, 0.5, ThreePointCentral)
	if err != nil {
		t.Fatalf("Derivative failed: %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("expected NaN, got %g", got)
	}
}

// TestDerivative_ValueStencil verifies the zeroth derivative is f(x) for any width.
func TestDerivative_ValueStencil(t *testing.T) {
	for _, h := range []float64{0, 1e-3, 7} {
		got, err := Derivative(math.Exp, 0.25, h, ValueStencil)
		if err != nil {
			t.Fatalf("Derivative failed: %v", err)
		}
		if got != math.Exp(0.25) {
			t.Errorf("h=%g: expected %.17g, got %.17g", h, math.Exp(0.25), got)
		}
	}
}

// TestMultivariateDerivative_MatchesNested verifies the tensor evaluator
// agrees with applying the univariate evaluator along each axis in turn.
func TestMultivariateDerivative_MatchesNested(t *testing.T) {
	f := func(v []float64) float64 {
		return math.Sin(v[0])*math.Exp(2*v[1]) + v[0]*v[1]*v[1]
	}
	sx := TwoPointForward
	sy := MustStencil(Central, 2, 2)
	hx, hy := 0x1p-6, 0x1p-6
	x, y := 0.3, -0.2

	tensor, err := NewTensor(sx, sy)
	if err != nil {
		t.Fatalf("NewTensor failed: %v", err)
	}
	got, err := MultivariateDerivative(f, []float64{x, y}, []float64{hx, hy}, tensor)
	if err != nil {
		t.Fatalf("MultivariateDerivative failed: %v", err)
	}

	inner := func(a float64) float64 {
		v, err := Derivative(func(b float64) float64 { return f([]float64{a, b}) }, y, hy, sy)
		if err != nil {
			t.Fatalf("inner Derivative failed: %v", err)
		}
		return v
	}
	want, err := Derivative(inner, x, hx, sx)
	if err != nil {
		t.Fatalf("outer Derivative failed: %v", err)
	}

	if math.Abs(got-want) > 1e-7 {
		t.Errorf("tensor %.12g, nested %.12g", got, want)
	}
	t.Logf("∂³f/∂x∂y² ≈ %.10f", got)
}

// TestMultivariateDerivative_MixedPartial verifies ∂²/∂x∂y of sin(x)·exp(y).
func TestMultivariateDerivative_MixedPartial(t *testing.T) {
	f := func(v []float64) float64 { return math.Sin(v[0]) * math.Exp(v[1]) }
	x := []float64{0.7, 0.4}
	want := math.Cos(x[0]) * math.Exp(x[1])

	tensor, err := NewTensor(FivePointCentral, FivePointCentral)
	if err != nil {
		t.Fatalf("NewTensor failed: %v", err)
	}
	got, err := MultivariateDerivative(f, x, []float64{0x1p-8, 0x1p-8}, tensor)
	if err != nil {
		t.Fatalf("MultivariateDerivative failed: %v", err)
	}
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("expected %.12g, got %.12g", want, got)
	}
}

// TestMultivariateDerivative_Dimension verifies mismatched inputs are rejected.
func TestMultivariateDerivative_Dimension(t *testing.T) {
	tensor, err := NewTensor(ThreePointCentral, ThreePointCentral)
	if err != nil {
		t.Fatalf("NewTensor failed: %v", err)
	}
	f := func(v []float64) float64 { return v[0] }

	_, err = MultivariateDerivative(f, []float64{1}, []float64{0.1, 0.1}, tensor)
	if !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
	_, err = MultivariateDerivative(f, []float64{1, 2}, []float64{0.1}, tensor)
	if !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension, got %v", err)
	}
}

// TestPartial verifies partial evaluation fixes the other coordinates.
func TestPartial(t *testing.T) {
	x := []float64{1, 2, 3}
	g := Partial(func(v []float64) float64 {
		v[0] = 99 // must not leak into x
		return v[1] * 10
	}, x, 1)

	if got := g(5); got != 50 {
		t.Errorf("expected 50, got %g", got)
	}
	x[1] = -1
	if got := g(4); got != 40 {
		t.Errorf("expected 40, got %g", got)
	}
	if x[0] != 1 {
		t.Errorf("caller's point was modified: %v", x)
	}
}
