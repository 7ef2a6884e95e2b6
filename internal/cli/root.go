// Package cli provides the command-line interface for findiff.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexshd/findiff/internal/cli/commands"
	"github.com/alexshd/findiff/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "findiff",
		Short: "findiff - finite-difference derivatives",
		Long: `findiff computes numerical derivatives with exact finite-difference
stencils of any order, and chooses grid widths adaptively.

Settings come from defaults, ./findiff.yaml (or --config), FINDIFF_*
environment variables and flags, in increasing precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			logger := slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}))
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			cmd.SetContext(config.NewContext(cmd.Context(), cfg, logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./findiff.yaml)")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.StringP("output", "o", config.OutputTable, "Output format (table|json)")
	flags.StringP("kind", "k", "central", "Stencil kind (forward|backward|central)")
	flags.IntP("derivative-order", "d", 1, "Derivative order")
	flags.IntP("error-order", "n", 4, "Order of the truncation error")
	flags.StringP("bandwidth", "b", "optimal", "Width strategy (fixed|rule-of-thumb|optimal)")
	flags.Float64("width", 0, "Grid width for the fixed strategy")
	flags.Float64("trial-width", 0, "Trial width for the optimal strategy (0 = rule of thumb)")
	flags.Bool("power-of-two", true, "Round widths up to a power of two")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputTable, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"forward", "backward", "central"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("bandwidth", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"fixed", "rule-of-thumb", "optimal"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewCoefficientsCommand())
	rootCmd.AddCommand(commands.NewDeriveCommand())
	rootCmd.AddCommand(commands.NewStepCommand())
	rootCmd.AddCommand(commands.NewGradientCommand())
	rootCmd.AddCommand(commands.NewSweepCommand())
	rootCmd.AddCommand(commands.NewServeCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
