package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/toolcat/internal/preflight"
	"github.com/cameronsjo/toolcat/internal/remote"
	"github.com/cameronsjo/toolcat/internal/ui"
	"github.com/cameronsjo/toolcat/internal/value"
	"github.com/cameronsjo/toolcat/internal/yamlcodec"
)

var doctorRemote string

// errNotConfigured marks the service checks when remote.url is empty.
var errNotConfigured = errors.New("no conversion service configured")

// doctorCmd runs diagnostic checks.
var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"checkup"},
	Short:   "Check configuration, local converter and conversion service",
	Args:    cobra.NoArgs,
	RunE:    runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorRemote, "remote", "", "Conversion service URL")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	ui.Header("Running checks...")

	report := preflight.Run(ctx, doctorChecks(doctorRemote), func(r preflight.Result) {
		switch r.Status {
		case preflight.Passed:
			ui.Success("%s: %s", r.Check.Name, r.Detail)
		case preflight.Warned:
			ui.Warning("%s: %v", r.Check.Name, r.Err)
		default:
			ui.Error("%s: %v", r.Check.Name, r.Err)
		}
		if r.Err != nil && r.Check.Hint != "" {
			ui.Detail("%s", r.Check.Hint)
		}
	})

	ui.Info("%d passed, %d warnings, %d failed", report.Passed, report.Warned, report.Failed)
	if !report.OK() {
		return fmt.Errorf("%d check(s) failed", report.Failed)
	}
	return nil
}

// doctorChecks lists the checks for the loaded configuration. url overrides
// remote.url when set.
func doctorChecks(url string) []preflight.Check {
	if url == "" && cfg != nil {
		url = cfg.Remote.URL
	}

	var client *remote.Client
	if url != "" {
		client = remote.NewClient(url, remote.Options{Timeout: cfg.Remote.Timeout, Logger: logger})
	}
	withClient := func(fn func(context.Context, *remote.Client) (string, error)) func(context.Context) (string, error) {
		return func(ctx context.Context) (string, error) {
			if client == nil {
				return "", errNotConfigured
			}
			return fn(ctx, client)
		}
	}

	return []preflight.Check{
		{
			Name:     "Configuration",
			Required: true,
			Run: func(context.Context) (string, error) {
				if cfg.Path == "" {
					return "built-in defaults", cfg.Validate()
				}
				return cfg.Path, cfg.Validate()
			},
		},
		{
			Name:     "Local converter",
			Required: true,
			Run: func(context.Context) (string, error) {
				sample := doctorSample()
				if got := yamlcodec.Parse(yamlcodec.Emit(sample)); !sample.Equal(got) {
					return "", fmt.Errorf("round trip mismatch: got %s", got)
				}
				return "JSON/YAML round trip ok", nil
			},
		},
		{
			Name: "Conversion service",
			Hint: "Start it with 'toolcat serve' or set remote.url; JSON/YAML conversions fall back to the local converter",
			Run: withClient(func(ctx context.Context, c *remote.Client) (string, error) {
				info, err := c.Info(ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%s %s at %s", info.Plugin, info.Version, c.BaseURL()), nil
			}),
		},
		{
			Name: "Service conversion",
			Hint: "Protobuf conversions need a working conversion service",
			Run: withClient(func(ctx context.Context, c *remote.Client) (string, error) {
				sample := doctorSample()
				payload, err := sample.MarshalJSON()
				if err != nil {
					return "", err
				}
				out, err := c.Convert(ctx, remote.JSONToYAML, payload)
				if err != nil {
					return "", err
				}
				if got := yamlcodec.Parse(string(out)); !sample.Equal(got) {
					return "", fmt.Errorf("service output does not match the local converter: %q", out)
				}
				return "json-to-yaml matches the local converter", nil
			}),
		},
	}
}

func doctorSample() *value.Value {
	return value.Mapping(
		value.Pair{Key: "title", Value: value.String("toolcat check")},
		value.Pair{Key: "tags", Value: value.Sequence(value.String("a"), value.String("true"))},
		value.Pair{Key: "meta", Value: value.Mapping(
			value.Pair{Key: "count", Value: value.Number(2)},
			value.Pair{Key: "done", Value: value.Bool(false)},
			value.Pair{Key: "note", Value: value.String("key: value")},
		)},
	)
}
