package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/internal/config"
	"github.com/matzehuels/pipspec/pkg/cache"
	"github.com/matzehuels/pipspec/pkg/integrations"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the index response cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached index responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if cfg.Cache.Backend == config.BackendNone {
				printInfo(w, "Cache is disabled")
				return nil
			}

			backend, err := newCache(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := cache.Clear(cmd.Context(), backend); err != nil {
				return err
			}
			printSuccess(w, "Cleared cached responses")
			printDetail(w, "Location: %s", cacheLocation(cfg))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where responses are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(cacheLocation(cfg) + "\n"))
			return err
		},
	}
}

// cacheLocation describes the configured backend with credentials redacted.
func cacheLocation(cfg *config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return integrations.RedactURL(cfg.Cache.RedisURL)
	case config.BackendNone:
		return "none"
	default:
		return cfg.Cache.Dir
	}
}
