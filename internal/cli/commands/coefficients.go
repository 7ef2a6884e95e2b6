package commands

import (
	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type coefficientsOutput struct {
	Stencil      string    `json:"stencil"`
	Offsets      []int     `json:"offsets"`
	Coefficients []float64 `json:"coefficients"`
}

// NewCoefficientsCommand creates the coefficients command.
func NewCoefficientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "coefficients",
		Aliases: []string{"coeffs"},
		Short:   "Print the weights of a stencil",
		Long: `Print the grid offsets and weights of the stencil selected with
--kind, --derivative-order and --error-order.`,
		Example: `  findiff coefficients --kind central --derivative-order 2 --error-order 4
  findiff coefficients --kind forward -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			s, err := cfg.StencilValue()
			if err != nil {
				return err
			}
			c, err := findiff.Coefficients(s)
			if err != nil {
				return err
			}
			offsets := s.Offsets()

			if cfg.Output == config.OutputJSON {
				return renderJSON(cmd.OutOrStdout(), coefficientsOutput{
					Stencil:      s.String(),
					Offsets:      offsets,
					Coefficients: c,
				})
			}

			t := newTable(cmd.OutOrStdout(), s.String(), table.Row{"Offset", "Weight"})
			for i := range c {
				t.AppendRow(table.Row{offsets[i], formatFloat(c[i])})
			}
			t.Render()
			return nil
		},
	}
}
