// Package cli implements the pipspec command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipspec/internal/config"
	"github.com/matzehuels/pipspec/pkg/buildinfo"
	"github.com/matzehuels/pipspec/pkg/cache"
	"github.com/matzehuels/pipspec/pkg/errors"
	"github.com/matzehuels/pipspec/pkg/integrations/simple"
	"github.com/matzehuels/pipspec/pkg/observability"
	"github.com/matzehuels/pipspec/pkg/outdated"
	"github.com/matzehuels/pipspec/pkg/pipfile"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pipspec"

	// defaultManifest is read when no path argument is given.
	defaultManifest = "Pipfile"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config

	// fetchers overrides index access; tests point it at fake indexes.
	fetchers func(backend cache.Cache, cfg *config.Config) outdated.FetcherFunc
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "pipspec validates, formats and checks Pipfile manifests",
		Long:         `pipspec reads Pipfile manifests, validates them against PEP 440 and PEP 503, rewrites them canonically and compares their constraints with the releases on their package indexes.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			observability.NewLogHooks(c.Logger).Register()
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "settings file (default "+config.DefaultPath()+")")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the settings once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load settings")
	}
	c.Logger.Debug("settings loaded", "backend", cfg.Cache.Backend, "index", cfg.IndexURL)
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Cache & Index Factories
// =============================================================================

// newCache opens the backend selected in the settings. noCache forces the
// null backend.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	case config.BackendNone:
		return cache.NewNullCache(), nil
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}

// simpleFetchers builds one simple-API client per index. A manifest without
// sources falls back to the configured index instead of PyPI.
func simpleFetchers(backend cache.Cache, cfg *config.Config) outdated.FetcherFunc {
	return func(src pipfile.Source) outdated.Fetcher {
		url := src.URL
		if src.Name == pipfile.DefaultSourceName && url == pipfile.DefaultIndexURL {
			url = cfg.IndexURL
		}
		return simple.NewClient(backend, url, src.VerifySSL, cfg.Cache.TTL)
	}
}

// =============================================================================
// Manifest Helpers
// =============================================================================

// manifestArg returns the manifest path given on the command line or the
// default Pipfile.
func manifestArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return defaultManifest
}

// readManifest parses path, or stdin when path is "-".
func readManifest(cmd *cobra.Command, path string) (*pipfile.Manifest, error) {
	if path == "-" {
		return pipfile.Parse(cmd.InOrStdin())
	}
	return pipfile.ParseFile(path)
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %v)", format, allowed)
}

// errSilent signals a non-zero exit whose reason has already been printed.
type errSilent struct{ msg string }

func (e errSilent) Error() string { return e.msg }

// IsSilent reports whether err was already reported to the user.
func IsSilent(err error) bool {
	_, ok := err.(errSilent)
	return ok
}

func fail(format string, args ...any) error {
	return errSilent{msg: fmt.Sprintf(format, args...)}
}

