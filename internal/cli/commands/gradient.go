package commands

import (
	"fmt"

	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/config"
	"github.com/alexshd/findiff/internal/expr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type gradientOutput struct {
	Expr     string    `json:"expr"`
	X        []float64 `json:"x"`
	Gradient []float64 `json:"gradient"`
}

// NewGradientCommand creates the gradient command.
func NewGradientCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gradient <expr> <x1,x2,...>",
		Short: "Compute the gradient of a multivariate expression",
		Long: `Compute the gradient of a Starlark expression in the tuple x at a
point given as comma-separated coordinates. The configured stencil must be
a first-derivative stencil; it and the bandwidth are used on every axis.`,
		Example: `  findiff gradient 'x[0]*x[0] + 3*x[1]*x[2] + math.sin(x[2])' 1.5,-0.5,0.8`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			x, err := parsePoint(args[1])
			if err != nil {
				return err
			}
			s, err := cfg.StencilValue()
			if err != nil {
				return err
			}
			bw, err := cfg.BandwidthValue()
			if err != nil {
				return err
			}
			bw.Options.Logger = config.GetLogger(cmd.Context())

			m, err := expr.CompileMultivariate(args[0])
			if err != nil {
				return err
			}
			grad, err := findiff.Gradient(m.MultiFunc(), x, []findiff.Stencil{s}, []findiff.Bandwidth{bw})
			if err != nil {
				return err
			}
			if err := m.Err(); err != nil {
				return err
			}

			if cfg.Output == config.OutputJSON {
				for i, v := range grad {
					if err := checkFinite(fmt.Sprintf("component %d", i), v); err != nil {
						return err
					}
				}
				return renderJSON(cmd.OutOrStdout(), gradientOutput{Expr: args[0], X: x, Gradient: grad})
			}

			t := newTable(cmd.OutOrStdout(), args[0], table.Row{"Axis", "x", "Partial"})
			for i, v := range grad {
				t.AppendRow(table.Row{i, formatFloat(x[i]), formatFloat(v)})
			}
			t.Render()
			return nil
		},
	}
}
