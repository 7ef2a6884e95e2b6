package commands

import (
	"fmt"

	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/config"
	"github.com/alexshd/findiff/internal/expr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type sweepOutput struct {
	Stencil     string  `json:"stencil"`
	Bandwidth   string  `json:"bandwidth"`
	Points      int     `json:"points"`
	NonFinite   int     `json:"non_finite"`
	MaxAbsolute float64 `json:"max_absolute"`
	MaxRelative float64 `json:"max_relative"`
	WorstX      float64 `json:"worst_x"`
	Mean        float64 `json:"mean"`
	Stddev      float64 `json:"stddev"`
	P50         float64 `json:"p50"`
	P95         float64 `json:"p95"`
	P99         float64 `json:"p99"`
	Elapsed     string  `json:"elapsed"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep <expr> <reference>",
		Short: "Measure derivative accuracy over an interval",
		Long: `Differentiate an expression in x at evenly spaced points and compare
each estimate with a reference expression for the exact derivative.
Prints error statistics over the interval.`,
		Example: `  findiff sweep 'math.sin(x)' 'math.cos(x)' --start 0 --end 12.566 --steps 10000
  findiff sweep 'math.exp(x)' 'math.exp(x)' --bandwidth rule-of-thumb --power-of-two`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			sc, err := cfg.SweepValue()
			if err != nil {
				return err
			}
			logger := config.GetLogger(cmd.Context())
			sc.Logger = logger
			sc.Bandwidth.Options.Logger = logger

			f, err := expr.CompileUnivariate(args[0])
			if err != nil {
				return err
			}
			ref, err := expr.CompileUnivariate(args[1])
			if err != nil {
				return err
			}

			result, err := findiff.Sweep(cmd.Context(), f.Func(), ref.Func(), sc)
			if err != nil {
				return err
			}
			if err := f.Err(); err != nil {
				return err
			}
			if err := ref.Err(); err != nil {
				return fmt.Errorf("reference: %w", err)
			}

			stats := findiff.CalculateErrorStatistics(result.Points)
			out := sweepOutput{
				Stencil:     result.Stencil.String(),
				Bandwidth:   result.Bandwidth.String(),
				Points:      stats.Count,
				NonFinite:   stats.NonFinite,
				MaxAbsolute: stats.MaxAbsolute,
				MaxRelative: stats.MaxRelative,
				WorstX:      stats.WorstX,
				Mean:        stats.Mean,
				Stddev:      stats.Stddev,
				P50:         stats.P50,
				P95:         stats.P95,
				P99:         stats.P99,
				Elapsed:     result.Duration.String(),
			}
			if cfg.Output == config.OutputJSON {
				return renderJSON(cmd.OutOrStdout(), out)
			}

			title := fmt.Sprintf("%s on [%g, %g]", args[0], sc.Start, sc.End)
			t := newTable(cmd.OutOrStdout(), title, table.Row{"Metric", "Value"})
			t.AppendRows([]table.Row{
				{"stencil", out.Stencil},
				{"bandwidth", out.Bandwidth},
				{"points", out.Points},
				{"non-finite", out.NonFinite},
				{"max absolute", fmt.Sprintf("%.3e", out.MaxAbsolute)},
				{"max relative", fmt.Sprintf("%.3e (x=%g)", out.MaxRelative, out.WorstX)},
				{"mean absolute", fmt.Sprintf("%.3e ± %.3e", out.Mean, out.Stddev)},
				{"p50 / p95 / p99", fmt.Sprintf("%.3e / %.3e / %.3e", out.P50, out.P95, out.P99)},
				{"elapsed", out.Elapsed},
			})
			t.Render()
			return nil
		},
	}

	cmd.Flags().Float64("start", 0, "First evaluation point")
	cmd.Flags().Float64("end", 1, "Last evaluation point")
	cmd.Flags().Int("steps", 1000, "Number of intervals (steps+1 points)")
	cmd.Flags().Int("workers", 0, "Concurrent evaluators (0 = GOMAXPROCS)")
	return cmd
}
