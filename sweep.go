package findiff

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// SweepPoint is the derivative estimate at one point of a sweep.
type SweepPoint struct {
	X             float64 // Evaluation point
	Estimate      float64 // Finite-difference derivative
	Reference     float64 // Analytical derivative
	Width         float64 // Grid width chosen by the bandwidth
	AbsoluteError float64 // |Estimate - Reference|
	RelativeError float64 // |Estimate - Reference| / max(|Estimate|, |Reference|)
}

// SweepResult contains every point of a sweep.
type SweepResult struct {
	Stencil   Stencil
	Bandwidth Bandwidth
	Points    []SweepPoint
	Duration  time.Duration
}

// ErrorStatistics summarizes the errors of a sweep. Points whose error is
// NaN (typically an overflowing estimate or reference) are counted in
// NonFinite and left out of every other field.
type ErrorStatistics struct {
	Count       int
	NonFinite   int
	MaxAbsolute float64
	MaxRelative float64
	Mean        float64 // Mean absolute error
	Stddev      float64 // Standard deviation of absolute error
	P50         float64
	P95         float64
	P99         float64
	WorstX      float64 // Point with the largest relative error
}

// SweepConfig controls a sweep.
type SweepConfig struct {
	Start     float64      // First evaluation point
	End       float64      // Last evaluation point
	Steps     int          // Number of intervals; Steps+1 points are evaluated
	Workers   int          // Concurrent evaluators (0 = GOMAXPROCS)
	Stencil   Stencil      // Stencil to evaluate
	Bandwidth Bandwidth    // Width strategy
	Logger    *slog.Logger // Debug records (nil = discard)
}

// DefaultSweepConfig returns a five-point central sweep over [0, 1] with
// adaptive widths.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		Start:     0,
		End:       1,
		Steps:     1000,
		Workers:   0,
		Stencil:   FivePointCentral,
		Bandwidth: OptimalBandwidth(DefaultStepOptions()),
	}
}

// Sweep evaluates the derivative of f at Steps+1 evenly spaced points
// and compares each estimate with reference. f and reference must be safe
// for concurrent use when Workers > 1.
func Sweep(ctx context.Context, f, reference Func, cfg SweepConfig) (SweepResult, error) {
	if cfg.Steps < 1 {
		return SweepResult{}, fmt.Errorf("sweep needs at least 1 step, got %d", cfg.Steps)
	}
	if reference == nil {
		return SweepResult{}, fmt.Errorf("sweep needs a reference derivative")
	}
	d, err := NewDerivativeFunc(f, cfg.Stencil, cfg.Bandwidth)
	if err != nil {
		return SweepResult{}, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	points := make([]SweepPoint, cfg.Steps+1)
	step := (cfg.End - cfg.Start) / float64(cfg.Steps)
	for i := range points {
		points[i].X = cfg.Start + float64(i)*step
	}
	points[cfg.Steps].X = cfg.End

	// Each worker owns one contiguous segment of points.
	chunk := (len(points) + workers - 1) / workers
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(points); lo += chunk {
		segment := points[lo:min(lo+chunk, len(points))]
		g.Go(func() error {
			for i := range segment {
				if err := gctx.Err(); err != nil {
					return err
				}
				p := &segment[i]
				est, h, err := d.AtWithWidth(p.X)
				if err != nil {
					return fmt.Errorf("x=%g: %w", p.X, err)
				}
				p.Estimate = est
				p.Width = h
				p.Reference = reference(p.X)
				p.AbsoluteError = absoluteError(est, p.Reference)
				p.RelativeError = relativeError(est, p.Reference)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	elapsed := time.Since(start)
	logger.Debug("sweep complete",
		"stencil", cfg.Stencil.String(),
		"bandwidth", cfg.Bandwidth.String(),
		"points", len(points),
		"workers", workers,
		"elapsed", elapsed)

	return SweepResult{
		Stencil:   cfg.Stencil,
		Bandwidth: cfg.Bandwidth,
		Points:    points,
		Duration:  elapsed,
	}, nil
}

func absoluteError(x, y float64) float64 {
	if x == y {
		return 0
	}
	return math.Abs(x - y)
}

// relativeError is zero for identical values, including matching
// infinities, and NaN when either side is NaN or only one is infinite.
func relativeError(x, y float64) float64 {
	if x == y {
		return 0
	}
	return math.Abs(x-y) / math.Max(math.Abs(x), math.Abs(y))
}

// CalculateErrorStatistics computes summary statistics over points.
func CalculateErrorStatistics(points []SweepPoint) ErrorStatistics {
	var stats ErrorStatistics
	abs := make([]float64, 0, len(points))

	for _, p := range points {
		if math.IsNaN(p.AbsoluteError) || math.IsNaN(p.RelativeError) {
			stats.NonFinite++
			continue
		}
		abs = append(abs, p.AbsoluteError)
		if p.AbsoluteError > stats.MaxAbsolute {
			stats.MaxAbsolute = p.AbsoluteError
		}
		if p.RelativeError > stats.MaxRelative || stats.Count == 0 {
			stats.MaxRelative = p.RelativeError
			stats.WorstX = p.X
		}
		stats.Count++
	}
	if len(abs) == 0 {
		return stats
	}

	sort.Float64s(abs)

	var sum float64
	for _, v := range abs {
		sum += v
	}
	stats.Mean = sum / float64(len(abs))

	var variance float64
	for _, v := range abs {
		diff := v - stats.Mean
		variance += diff * diff
	}
	stats.Stddev = math.Sqrt(variance / float64(len(abs)))

	stats.P50 = abs[len(abs)*50/100]
	stats.P95 = abs[len(abs)*95/100]
	stats.P99 = abs[len(abs)*99/100]
	return stats
}
