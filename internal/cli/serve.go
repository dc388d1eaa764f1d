package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API over HTTP",
		Long: `Serve the validation API over HTTP.

Endpoints:
  GET  /healthz       liveness probe
  POST /v1/validate   Pipfile body, ?strict=true; returns the issue report
  POST /v1/normalize  Pipfile body; returns the canonical Pipfile
  POST /v1/check      {"constraint": "...", "versions": [...]}; per-version verdicts

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Serve.Addr
			}
			srv := server.New(server.Options{
				MaxBodyBytes: cfg.Serve.MaxBodyBytes,
				Strict:       cfg.Strict,
				Logger:       loggerFromContext(cmd.Context()),
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings)")

	return cmd
}
