package cli

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipspec/internal/config"
	"github.com/matzehuels/pipspec/pkg/observability"
)

var timestampRE = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)

func TestNewLogger_Timestamps(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("settings loaded")
	assert.Regexp(t, timestampRE, buf.String())
	assert.Contains(t, buf.String(), "settings loaded")
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	assert.Empty(t, buf.String())

	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.done("Checked 3 requirements")
	assert.Regexp(t, `Checked 3 requirements \([0-9.]+[mµn]?s\)`, buf.String())
}

func TestLoggerFromContext_Default(t *testing.T) {
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	l := newLogger(io.Discard, log.InfoLevel)
	assert.Same(t, l, loggerFromContext(withLogger(context.Background(), l)))
}

func TestRootCommand_ContextCarriesLogger(t *testing.T) {
	t.Cleanup(observability.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var got *log.Logger
	root.AddCommand(&cobra.Command{
		Use: "whoami",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = loggerFromContext(cmd.Context())
			return nil
		},
	})
	root.SetArgs([]string{"whoami"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Same(t, c.Logger, got)
}

func TestOutdatedCommand_LogsProgress(t *testing.T) {
	t.Cleanup(observability.Reset)
	srv := fakeSimpleIndex(t, map[string][]string{"numpy": {"1.16.0", "1.26.4"}})
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PIPSPEC_INDEX_URL", srv.URL+"/simple")
	t.Setenv("PIPSPEC_CACHE_BACKEND", string(config.BackendNone))
	path := writeFile(t, "Pipfile", "[packages]\nnumpy = \"~=1.16\"\nlocal = {path = \".\"}\n")

	var logs bytes.Buffer
	c := New(&logs, LogDebug)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"outdated", "--format", "json", path})
	require.NoError(t, root.ExecuteContext(context.Background()))

	out := logs.String()
	assert.Regexp(t, `Checked 2 requirements \(`, out)
	assert.Contains(t, out, "check started")
	assert.Contains(t, out, "check complete")
}
