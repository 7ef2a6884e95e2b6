package findiff

import (
	"log/slog"
	"math"
)

// MachineEpsilon is the spacing between 1.0 and the next float64, 2^-52.
const MachineEpsilon = 0x1p-52

// exponentMask keeps the sign and exponent bits of a float64.
const exponentMask = uint64(0xFFF) << 52

const signBit = uint64(1) << 63

// NextLargestPowerOfTwo returns v when v is an exact power of two, and
// otherwise the smallest power of two whose magnitude exceeds |v|, with
// the sign of v (so -3 maps to -4). Zero, infinities and NaN are returned
// unchanged. Subnormal inputs round up to a power of two as well.
//
// A width that is a power of two can be added to any x without changing
// its own representation, so x+h and x differ by exactly h whenever h is
// not below the spacing of x.
func NextLargestPowerOfTwo(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	bits := math.Float64bits(v)
	if bits&^exponentMask == 0 {
		return v
	}
	if bits&exponentMask&^signBit == 0 {
		// Subnormal: the exponent field is zero, so masking would lose v.
		frac, exp := math.Frexp(v)
		if math.Abs(frac) == 0.5 {
			return v
		}
		return math.Copysign(math.Ldexp(1, exp), v)
	}
	return math.Float64frombits(bits&exponentMask) * 2
}

// RuleOfThumbWidth returns the heuristic width
//
//	h = (3 d eps sum|c| / 2n)^(1/(n+d)) * max(1, |x|)
//
// adjusted so that (x+h) - x == h exactly.
func RuleOfThumbWidth(x float64, s Stencil) (float64, error) {
	sum, err := AbsSum(s)
	if err != nil {
		return 0, err
	}
	d := float64(s.DerivativeOrder())
	n := float64(s.ErrorOrder())

	arg := (3 * d * MachineEpsilon * sum) / (2 * n)
	h := math.Pow(arg, 1/(n+d)) * math.Max(1, math.Abs(x))
	return representable(x, h), nil
}

// PowerOfTwoRuleOfThumbWidth is RuleOfThumbWidth rounded up with
// NextLargestPowerOfTwo.
func PowerOfTwoRuleOfThumbWidth(x float64, s Stencil) (float64, error) {
	h, err := RuleOfThumbWidth(x, s)
	if err != nil {
		return 0, err
	}
	return NextLargestPowerOfTwo(h), nil
}

// representable returns the width actually realized between x and x+h.
func representable(x, h float64) float64 {
	t := x + h
	return t - x
}

// StepOptions configures OptimalStepWidth.
type StepOptions struct {
	// TrialWidth is the smaller of the two widths used to estimate the
	// truncation coefficient. Zero selects the power-of-two rule of thumb.
	TrialWidth float64

	// ConditionError is the relative error of f itself (ε). Zero selects
	// MachineEpsilon.
	ConditionError float64

	// RoundoffError is the relative rounding error of evaluating f (δ).
	// Zero selects MachineEpsilon.
	RoundoffError float64

	// UsePowerOfTwo rounds the final width up to a power of two.
	UsePowerOfTwo bool

	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
}

// DefaultStepOptions returns machine-epsilon error terms, a rule-of-thumb
// trial width, and power-of-two rounding.
func DefaultStepOptions() StepOptions {
	return StepOptions{
		ConditionError: MachineEpsilon,
		RoundoffError:  MachineEpsilon,
		UsePowerOfTwo:  true,
	}
}

// OptimalStepWidth estimates the width that balances truncation error
// against condition and round-off error at x.
//
// With F_ε = max(eps, |f(x)|) * sum|c| and F_δ = F_ε/2, the truncation
// coefficient C_n is measured from derivatives at h and 2h, and
//
//	h_opt = ((d/n) (1/C_n) (ε F_ε + δ F_δ))^(1/(n+d))
//
// When C_n is exactly zero the estimate does not depend on the width at
// all (a linear f under a first-derivative stencil, say), and the
// power-of-two rule of thumb is returned instead. When C_n is infinite,
// because a trial sample overflowed, the width is NaN so the failure
// propagates into the estimate.
func OptimalStepWidth(f Func, x float64, s Stencil, opts StepOptions) (float64, error) {
	c, err := coefficients(s)
	if err != nil {
		return 0, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}

	var sum float64
	for _, v := range c {
		sum += math.Abs(v)
	}
	value := math.Max(MachineEpsilon, math.Abs(f(x)))
	fe := value * sum
	fd := fe / 2

	h2 := opts.TrialWidth
	if h2 == 0 {
		if h2, err = PowerOfTwoRuleOfThumbWidth(x, s); err != nil {
			return 0, err
		}
	}
	h1 := 2 * h2

	n := float64(s.ErrorOrder())
	d := float64(s.DerivativeOrder())
	var cn float64
	if d > 0 {
		cn = math.Abs((evaluate(f, x, h2, s, c) - evaluate(f, x, h1, s, c)) /
			(math.Pow(h1, n) - math.Pow(h2, n)))
	}

	// A zeroth derivative never depends on the width either.
	if cn == 0 {
		h, err := PowerOfTwoRuleOfThumbWidth(x, s)
		if err != nil {
			return 0, err
		}
		logger.Debug("truncation estimate is zero, using rule of thumb",
			"x", x, "stencil", s.String(), "width", h)
		return h, nil
	}

	if math.IsInf(cn, 0) {
		logger.Debug("truncation estimate overflowed",
			"x", x, "stencil", s.String(), "trial", h2)
		return math.NaN(), nil
	}

	eps, delta := opts.ConditionError, opts.RoundoffError
	if eps == 0 {
		eps = MachineEpsilon
	}
	if delta == 0 {
		delta = MachineEpsilon
	}
	arg := (d / n) * (1 / cn) * (eps*fe + delta*fd)
	h := math.Pow(arg, 1/(n+d))
	if opts.UsePowerOfTwo {
		h = NextLargestPowerOfTwo(h)
	}

	logger.Debug("optimal width",
		"x", x, "stencil", s.String(), "trial", h2, "cn", cn, "width", h)
	return h, nil
}

var discardLogger = slog.New(slog.DiscardHandler)
