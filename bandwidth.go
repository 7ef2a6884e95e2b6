package findiff

import (
	"fmt"
	"math"
	"strings"
)

// Strategy selects how a Bandwidth chooses its grid width.
type Strategy int

const (
	// Fixed always returns the configured width.
	Fixed Strategy = iota

	// RuleOfThumb scales a stencil-dependent constant by max(1, |x|).
	RuleOfThumb

	// AdaptiveOptimal runs OptimalStepWidth at every point.
	AdaptiveOptimal
)

func (s Strategy) String() string {
	switch s {
	case Fixed:
		return "fixed"
	case RuleOfThumb:
		return "rule-of-thumb"
	case AdaptiveOptimal:
		return "optimal"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "fixed", "rule-of-thumb" or "optimal" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return Fixed, nil
	case "rule-of-thumb", "rule_of_thumb", "ruleofthumb":
		return RuleOfThumb, nil
	case "optimal", "adaptive", "mathur":
		return AdaptiveOptimal, nil
	default:
		return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidBandwidth, s)
	}
}

// Bandwidth picks the grid width for one evaluation point. Its zero value
// is a Fixed bandwidth of width zero, which is only valid for ValueStencil.
type Bandwidth struct {
	Strategy Strategy

	// Width is the Fixed width.
	Width float64

	// PowerOfTwo rounds RuleOfThumb widths up to a power of two.
	PowerOfTwo bool

	// Options configures AdaptiveOptimal.
	Options StepOptions
}

// FixedBandwidth returns a bandwidth that always uses h.
func FixedBandwidth(h float64) Bandwidth {
	return Bandwidth{Strategy: Fixed, Width: h}
}

// RuleOfThumbBandwidth returns a rule-of-thumb bandwidth.
func RuleOfThumbBandwidth(powerOfTwo bool) Bandwidth {
	return Bandwidth{Strategy: RuleOfThumb, PowerOfTwo: powerOfTwo}
}

// OptimalBandwidth returns an adaptive bandwidth using opts.
func OptimalBandwidth(opts StepOptions) Bandwidth {
	return Bandwidth{Strategy: AdaptiveOptimal, Options: opts}
}

// Validate reports configuration errors that do not depend on the point.
func (b Bandwidth) Validate() error {
	switch b.Strategy {
	case Fixed:
		if b.Width < 0 || math.IsNaN(b.Width) || math.IsInf(b.Width, 0) {
			return fmt.Errorf("%w: fixed width %v", ErrInvalidBandwidth, b.Width)
		}
	case RuleOfThumb:
	case AdaptiveOptimal:
		o := b.Options
		if o.TrialWidth < 0 || math.IsNaN(o.TrialWidth) || math.IsInf(o.TrialWidth, 0) {
			return fmt.Errorf("%w: trial width %v", ErrInvalidBandwidth, o.TrialWidth)
		}
		if o.ConditionError < 0 || o.RoundoffError < 0 {
			return fmt.Errorf("%w: negative error term", ErrInvalidBandwidth)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %d", ErrInvalidBandwidth, int(b.Strategy))
	}
	return nil
}

// WidthAt returns the grid width to use for differentiating f at x with s.
// A zero width is an error unless s is a zeroth-derivative stencil. A NaN
// width from overflowing samples is returned as is.
func (b Bandwidth) WidthAt(f Func, x float64, s Stencil) (float64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}

	var h float64
	var err error
	switch b.Strategy {
	case Fixed:
		h = b.Width
	case RuleOfThumb:
		if b.PowerOfTwo {
			h, err = PowerOfTwoRuleOfThumbWidth(x, s)
		} else {
			h, err = RuleOfThumbWidth(x, s)
		}
	default:
		h, err = OptimalStepWidth(f, x, s, b.Options)
	}
	if err != nil {
		return 0, err
	}
	if h == 0 && s.DerivativeOrder() > 0 {
		return 0, fmt.Errorf("%w: zero %s width for %s at x=%g", ErrInvalidBandwidth, b, s, x)
	}
	return h, nil
}

func (b Bandwidth) String() string {
	switch b.Strategy {
	case Fixed:
		return fmt.Sprintf("fixed(%g)", b.Width)
	case RuleOfThumb:
		if b.PowerOfTwo {
			return "rule-of-thumb(pow2)"
		}
		return "rule-of-thumb"
	default:
		return b.Strategy.String()
	}
}
