package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/toolcat/internal/ui"
)

// resetRootCmd resets the root command state for test isolation.
// This must be called at the beginning of each test to ensure
// cobra command state doesn't leak between tests.
func resetRootCmd(t *testing.T) {
	t.Helper()
	// Reset args to empty slice (not nil, which would use os.Args)
	rootCmd.SetArgs([]string{})
	rootCmd.SetIn(nil)
	resetFlags(rootCmd)
	cfg = nil
}

// resetFlags restores every flag of c and its subcommands to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	c.SetContext(context.TODO())
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate runs the test from an empty directory with no TOOLCAT_* overrides,
// so no stray config file or environment leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalWd) })

	for _, name := range []string{
		"REMOTE_URL", "REMOTE_TIMEOUT", "REMOTE_BREAKER_THRESHOLD", "REMOTE_BREAKER_DELAY",
		"SERVER_ADDR", "SERVER_MAX_BODY_BYTES", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv("TOOLCAT_"+name, "")
		require.NoError(t, os.Unsetenv("TOOLCAT_"+name))
	}
	return dir
}

// writeFile creates name under dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// executeCmd executes the root command with the given args and stdin and
// returns stdout and the status lines written through ui.
func executeCmd(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	resetRootCmd(t)

	var out, status bytes.Buffer
	oldWriter, oldNoColor := ui.Writer, color.NoColor
	ui.Writer, color.NoColor = &status, true
	t.Cleanup(func() { ui.Writer, color.NoColor = oldWriter, oldNoColor })

	// Important: Set args BEFORE setting output buffers
	rootCmd.SetArgs(args)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&status)
	err := rootCmd.Execute()
	return out.String(), status.String(), err
}
