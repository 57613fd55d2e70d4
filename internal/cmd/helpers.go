package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cameronsjo/toolcat/internal/config"
	"github.com/cameronsjo/toolcat/internal/dispatch"
	"github.com/cameronsjo/toolcat/internal/remote"
)

// newDispatcher builds a dispatcher from the loaded configuration. local
// skips the conversion service; a non-empty url overrides remote.url.
func newDispatcher(local bool, url string) *dispatch.Dispatcher {
	c := cfg
	if c == nil {
		c = config.Default()
	}

	if url == "" {
		url = c.Remote.URL
	}
	if local || url == "" {
		return dispatch.New(nil, dispatch.WithLogger(logger))
	}

	client := remote.NewClient(url, remote.Options{
		Timeout:          c.Remote.Timeout,
		BreakerThreshold: c.Remote.BreakerThreshold,
		BreakerDelay:     c.Remote.BreakerDelay,
		Logger:           logger,
	})
	return dispatch.New(client, dispatch.WithLogger(logger))
}

// stdinIsTerminal reports whether the command reads from an interactive TTY.
func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// stdoutIsTerminal reports whether the command writes to an interactive TTY.
func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
