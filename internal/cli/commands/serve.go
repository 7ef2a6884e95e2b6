package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alexshd/findiff/internal/config"
	"github.com/alexshd/findiff/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve coefficients, derivatives and gradients over HTTP until
interrupted. The configured stencil and bandwidth are the defaults for
requests that do not name their own.`,
		Example: `  findiff serve --addr :8080
  curl -s localhost:8080/v1/derivative -d '{"expr": "math.sin(x)", "x": 1}'`,
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
			bw, err := cfg.BandwidthValue()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Addr:      cfg.Server.Addr,
				Stencil:   s,
				Bandwidth: bw,
				Logger:    config.GetLogger(ctx),
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}
