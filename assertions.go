package findiff

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// AccuracyConfig contains error thresholds for a sweep.
type AccuracyConfig struct {
	// Relative error threshold (0 disables the check)
	MaxRelativeError float64

	// Absolute error threshold (0 disables the check)
	MaxAbsoluteError float64

	// Fail when a point's error is NaN instead of counting it as non-finite
	FailOnNonFinite bool

	// Maximum failing points listed in the report
	MaxReported int
}

// DefaultAccuracyConfig returns a relative threshold of 1e-7.
func DefaultAccuracyConfig() AccuracyConfig {
	return AccuracyConfig{
		MaxRelativeError: 1e-7,
		MaxAbsoluteError: 0,
		FailOnNonFinite:  false,
		MaxReported:      10,
	}
}

// AssertRelativeAccuracy verifies every point's relative error is within
// cfg.MaxRelativeError.
//
// Relative error suits functions whose magnitude varies widely, such as
// exp, where a fixed absolute bound would be meaningless.
func AssertRelativeAccuracy(t *testing.T, result SweepResult, cfg AccuracyConfig) {
	t.Helper()

	if cfg.MaxRelativeError <= 0 {
		t.Logf("relative accuracy check disabled")
		return
	}
	assertWithin(t, result, cfg, "Relative", cfg.MaxRelativeError,
		func(p SweepPoint) float64 { return p.RelativeError })
}

// AssertAbsoluteAccuracy verifies every point's absolute error is within
// cfg.MaxAbsoluteError.
//
// Absolute error suits bounded periodic functions such as sin, whose
// derivative crosses zero where relative error is undefined.
func AssertAbsoluteAccuracy(t *testing.T, result SweepResult, cfg AccuracyConfig) {
	t.Helper()

	if cfg.MaxAbsoluteError <= 0 {
		t.Logf("absolute accuracy check disabled")
		return
	}
	assertWithin(t, result, cfg, "Absolute", cfg.MaxAbsoluteError,
		func(p SweepPoint) float64 { return p.AbsoluteError })
}

func assertWithin(t *testing.T, result SweepResult, cfg AccuracyConfig, kind string, limit float64, errOf func(SweepPoint) float64) {
	t.Helper()

	var failures []string
	failed, nonFinite := 0, 0
	for _, p := range result.Points {
		e := errOf(p)
		if math.IsNaN(e) {
			nonFinite++
			continue
		}
		if e > limit {
			failed++
			if len(failures) < cfg.MaxReported {
				failures = append(failures, fmt.Sprintf(
					"  x=%-14g estimate=%-24.17g reference=%-24.17g h=%g error=%.3g",
					p.X, p.Estimate, p.Reference, p.Width, e))
			}
		}
	}

	if failed > 0 {
		t.Errorf("%s error exceeded %g at %d of %d points (%s, %s):\n%s",
			kind, limit, failed, len(result.Points), result.Stencil, result.Bandwidth,
			strings.Join(failures, "\n"))
	}
	if nonFinite > 0 && cfg.FailOnNonFinite {
		t.Errorf("%d points produced non-finite errors", nonFinite)
	}

	stats := CalculateErrorStatistics(result.Points)
	t.Logf("✓ %s error within %g over %d points (%s, %s)",
		kind, limit, stats.Count, result.Stencil, result.Bandwidth)
	if nonFinite > 0 {
		t.Logf("  %d non-finite points skipped", nonFinite)
	}
}

// AssertAccuracy runs the enabled accuracy assertions as subtests.
func AssertAccuracy(t *testing.T, result SweepResult, cfg AccuracyConfig) {
	t.Helper()

	t.Run("Relative", func(t *testing.T) {
		AssertRelativeAccuracy(t, result, cfg)
	})

	t.Run("Absolute", func(t *testing.T) {
		AssertAbsoluteAccuracy(t, result, cfg)
	})
}

// PrintSweep outputs error statistics for a sweep to the test log.
func PrintSweep(t *testing.T, result SweepResult) {
	t.Helper()

	stats := CalculateErrorStatistics(result.Points)

	t.Logf("\n=== Sweep: %s, %s ===", result.Stencil, result.Bandwidth)
	t.Logf("  points      = %d (%d non-finite)", stats.Count, stats.NonFinite)
	t.Logf("  max abs     = %.3e", stats.MaxAbsolute)
	t.Logf("  max rel     = %.3e (at x=%g)", stats.MaxRelative, stats.WorstX)
	t.Logf("  mean abs    = %.3e ± %.3e", stats.Mean, stats.Stddev)
	t.Logf("  p50/p95/p99 = %.3e / %.3e / %.3e", stats.P50, stats.P95, stats.P99)
	t.Logf("  elapsed     = %v", result.Duration)
}
