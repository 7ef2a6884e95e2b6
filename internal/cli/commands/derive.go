package commands

import (
	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/config"
	"github.com/alexshd/findiff/internal/expr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type deriveOutput struct {
	Expr      string  `json:"expr"`
	X         float64 `json:"x"`
	Value     float64 `json:"value"`
	Width     float64 `json:"width"`
	Stencil   string  `json:"stencil"`
	Bandwidth string  `json:"bandwidth"`
}

// NewDeriveCommand creates the derive command.
func NewDeriveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "derive <expr> <x>",
		Short: "Differentiate an expression at a point",
		Long: `Estimate the derivative of a Starlark expression in x at a point,
using the configured stencil and bandwidth. The math module is available.`,
		Example: `  findiff derive 'math.sin(x)' 1.0
  findiff derive 'x*x*x' 2 --derivative-order 2 --error-order 2 --bandwidth fixed --width 0.001`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			x, err := parseFloat("point", args[1])
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

			u, err := expr.CompileUnivariate(args[0])
			if err != nil {
				return err
			}
			d, err := findiff.NewDerivativeFunc(u.Func(), s, bw)
			if err != nil {
				return err
			}
			value, width, err := d.AtWithWidth(x)
			if err != nil {
				return err
			}
			if err := u.Err(); err != nil {
				return err
			}

			if cfg.Output == config.OutputJSON {
				if err := checkFinite("derivative", value); err != nil {
					return err
				}
				return renderJSON(cmd.OutOrStdout(), deriveOutput{
					Expr:      args[0],
					X:         x,
					Value:     value,
					Width:     width,
					Stencil:   s.String(),
					Bandwidth: bw.String(),
				})
			}

			t := newTable(cmd.OutOrStdout(), args[0], table.Row{"x", "Derivative", "Width", "Stencil", "Bandwidth"})
			t.AppendRow(table.Row{formatFloat(x), formatFloat(value), formatFloat(width), s.String(), bw.String()})
			t.Render()
			return nil
		},
	}
}
