package commands

import (
	"github.com/alexshd/findiff"
	"github.com/alexshd/findiff/internal/config"
	"github.com/alexshd/findiff/internal/expr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type stepOutput struct {
	Stencil           string  `json:"stencil"`
	X                 float64 `json:"x"`
	RuleOfThumb       float64 `json:"rule_of_thumb"`
	RuleOfThumbPower2 float64 `json:"rule_of_thumb_pow2"`
	Optimal           float64 `json:"optimal"`
}

// NewStepCommand creates the step command.
func NewStepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "step <expr> <x>",
		Short: "Compare grid widths for an expression at a point",
		Long: `Print the rule-of-thumb width, its power-of-two rounding, and the
adaptive optimal width for differentiating an expression in x at a point.
The optimal width honors --trial-width and --power-of-two.`,
		Example: `  findiff step 'math.exp(x)' 1
  findiff step 'math.exp(x)' 1 --kind central --error-order 2 --trial-width 0.01`,
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
			u, err := expr.CompileUnivariate(args[0])
			if err != nil {
				return err
			}

			out := stepOutput{Stencil: s.String(), X: x}
			if out.RuleOfThumb, err = findiff.RuleOfThumbWidth(x, s); err != nil {
				return err
			}
			if out.RuleOfThumbPower2, err = findiff.PowerOfTwoRuleOfThumbWidth(x, s); err != nil {
				return err
			}
			opts := findiff.StepOptions{
				TrialWidth:     cfg.Bandwidth.TrialWidth,
				ConditionError: cfg.Bandwidth.ConditionError,
				RoundoffError:  cfg.Bandwidth.RoundoffError,
				UsePowerOfTwo:  cfg.Bandwidth.PowerOfTwo,
				Logger:         config.GetLogger(cmd.Context()),
			}
			if err := findiff.OptimalBandwidth(opts).Validate(); err != nil {
				return err
			}
			if out.Optimal, err = findiff.OptimalStepWidth(u.Func(), x, s, opts); err != nil {
				return err
			}
			if err := u.Err(); err != nil {
				return err
			}

			if cfg.Output == config.OutputJSON {
				if err := checkFinite("optimal width", out.Optimal); err != nil {
					return err
				}
				return renderJSON(cmd.OutOrStdout(), out)
			}

			t := newTable(cmd.OutOrStdout(), s.String(), table.Row{"Strategy", "Width"})
			t.AppendRows([]table.Row{
				{"rule-of-thumb", formatFloat(out.RuleOfThumb)},
				{"rule-of-thumb(pow2)", formatFloat(out.RuleOfThumbPower2)},
				{"optimal", formatFloat(out.Optimal)},
			})
			t.Render()
			return nil
		},
	}
}
