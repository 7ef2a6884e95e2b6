// Package findiff computes numerical derivatives with finite-difference
// stencils of arbitrary derivative order and accuracy.
//
// # Overview
//
// A stencil approximates the d-th derivative of f at x from samples of f
// on an evenly spaced grid around x:
//
//	f^(d)(x) ≈ Σ c_i · f(x + m_i·h) / h^d
//
// The weights c_i are derived exactly in rational arithmetic from the
// Taylor expansion of f, then rounded once to float64. They are cached per
// stencil, so the exact solve runs once per process.
//
// # Architecture
//
// The package components:
//
//   - stencil       - Stencil geometry (kind, derivative order, error order)
//   - coefficients  - Exact weight generation and the shared cache
//   - tensor        - Products of stencils for mixed partial derivatives
//   - derivative    - Evaluation on a grid of width h
//   - stepsize      - Rule-of-thumb and adaptive optimal widths
//   - bandwidth     - Width strategies applied at every point
//   - function      - Derivatives as reusable functions
//   - gradient      - Gradients of multivariate functions
//   - sweep         - Accuracy sweeps against a known derivative
//   - assertions    - Test helpers for accuracy properties
//
// # Quick Start
//
// Differentiate once at a point with a fixed width:
//
//	v, err := findiff.Derivative(math.Sin, 1.0, 0x1p-10, findiff.FivePointCentral)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("sin'(1) ≈ %.12f\n", v)
//
// Or build a derivative function that picks its own width at every point:
//
//	s := findiff.MustStencil(findiff.Central, 2, 4) // second derivative, O(h⁴)
//	d2, err := findiff.NewDerivativeFunc(math.Exp, s,
//	    findiff.OptimalBandwidth(findiff.DefaultStepOptions()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := d2.At(3.0)
//
// # Stencils
//
// A stencil has a kind, a derivative order d and an error order n, so the
// truncation error is O(h^n):
//
//   - Forward:  offsets 0 .. n+d-1
//   - Backward: offsets -(n+d-1) .. 0
//   - Central:  offsets -r .. r with r = ⌊(d+1)/2⌋ + ⌈n/2⌉ - 1
//
// Stencils are comparable values. Two stencils are equal when kind, d and
// n are all equal, and a Stencil can be used as a map key.
//
// # Choosing a Width
//
// Too large a width leaves truncation error; too small a width amplifies
// rounding error in f. A Bandwidth picks h at every point:
//
//   - Fixed:           the same h everywhere
//   - RuleOfThumb:     (3·d·ε·Σ|c| / 2n)^(1/(n+d)) · max(1, |x|)
//   - AdaptiveOptimal: Mathur's estimate, which measures the truncation
//     coefficient of f at x from two trial widths
//
// Widths that are powers of two are exactly representable offsets, so
// x + h - x == h holds for them whenever h is not below the spacing of x.
//
// # Multivariate Derivatives
//
// Mixed partials use the tensor product of one stencil per axis:
//
//	t, _ := findiff.NewTensor(findiff.ThreePointCentral, findiff.ThreePointCentral)
//	v, err := findiff.MultivariateDerivative(f, []float64{x, y}, []float64{hx, hy}, t)
//
// Gradients apply a first-derivative stencil along each axis:
//
//	g, err := findiff.Gradient(f, x, []findiff.Stencil{findiff.FivePointCentral},
//	    []findiff.Bandwidth{findiff.RuleOfThumbBandwidth(true)})
//
// # Testing
//
// Use sweeps and assertions to validate accuracy over an interval:
//
//	func TestMyDerivative(t *testing.T) {
//	    cfg := findiff.DefaultSweepConfig()
//	    cfg.Start, cfg.End = 0, 4*math.Pi
//
//	    result, err := findiff.Sweep(context.Background(), math.Sin, math.Cos, cfg)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//
//	    findiff.AssertAbsoluteAccuracy(t, result, findiff.AccuracyConfig{MaxAbsoluteError: 1e-10})
//	    findiff.PrintSweep(t, result)
//	}
//
// # See Also
//
//   - cmd/findiff - Command-line tool and HTTP server
//   - examples/   - Working code samples
package findiff
