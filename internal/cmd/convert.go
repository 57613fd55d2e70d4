package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"

	"github.com/cameronsjo/toolcat/internal/dispatch"
	"github.com/cameronsjo/toolcat/internal/fileutil"
	"github.com/cameronsjo/toolcat/internal/remote"
	"github.com/cameronsjo/toolcat/internal/ui"
	"github.com/cameronsjo/toolcat/internal/value"
)

var (
	convertOutput  string
	convertLocal   bool
	convertRemote  string
	convertVerbose bool
)

// ErrUnavailable is returned when a service-only conversion could not reach
// the conversion service.
var ErrUnavailable = errors.New("conversion unavailable")

// convertCmd groups the conversion subcommands.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a document between formats",
	Long: `Convert a document between JSON, YAML and Protobuf.

Input is read from the given file, or from stdin when the file is omitted
or "-". JSON inputs may contain comments and trailing commas.

JSON and YAML conversions use the conversion service when it is reachable
and fall back to the built-in converter otherwise. Protobuf conversions
need the service.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	convertCmd.PersistentFlags().StringVarP(&convertOutput, "output", "o", "", "Write the result to a file")
	convertCmd.PersistentFlags().BoolVar(&convertLocal, "local", false, "Skip the conversion service")
	convertCmd.PersistentFlags().StringVar(&convertRemote, "remote", "", "Conversion service URL")
	convertCmd.PersistentFlags().BoolVarP(&convertVerbose, "verbose", "v", false, "Report which side produced the result")
	convertCmd.MarkFlagsMutuallyExclusive("local", "remote")

	for _, dir := range remote.Directions() {
		convertCmd.AddCommand(newDirectionCmd(dir))
	}

	rootCmd.AddCommand(convertCmd)
}

func newDirectionCmd(dir remote.Direction) *cobra.Command {
	short := map[remote.Direction]string{
		remote.JSONToYAML:     "Convert JSON to YAML",
		remote.YAMLToJSON:     "Convert YAML to JSON",
		remote.JSONToProtobuf: "Convert JSON to Protobuf (requires the service)",
		remote.ProtobufToJSON: "Convert Protobuf to JSON (requires the service)",
	}[dir]

	exts := map[remote.Direction][]string{
		remote.JSONToYAML:     {"json", "jsonc"},
		remote.YAMLToJSON:     {"yaml", "yml"},
		remote.JSONToProtobuf: {"json", "jsonc"},
		remote.ProtobufToJSON: {"pb", "bin"},
	}[dir]

	return &cobra.Command{
		Use:               dir.String() + " [file]",
		Short:             short,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeInputFile(exts...),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, dir, args)
		},
	}
}

func runConvert(cmd *cobra.Command, dir remote.Direction, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	if (path == "" || path == "-") && stdinIsTerminal(cmd) {
		return fmt.Errorf("no input: pass a file or pipe a document on stdin")
	}
	if dir == remote.JSONToProtobuf && convertOutput == "" && stdoutIsTerminal(cmd) {
		return fmt.Errorf("refusing to write binary output to a terminal; use --output")
	}

	input, err := fileutil.ReadInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	d := newDispatcher(convertLocal, convertRemote)
	out, source, err := convert(cmd.Context(), d, dir, input)
	if err != nil {
		return err
	}

	if convertVerbose {
		ui.Source(dir.String(), source.String())
	}

	if convertOutput != "" {
		if err := fileutil.WriteFileAtomic(convertOutput, out, 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if convertVerbose {
			ui.Success("Wrote %s", convertOutput)
		}
		return nil
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// convert runs one conversion and renders the result as bytes.
func convert(ctx context.Context, d *dispatch.Dispatcher, dir remote.Direction, input []byte) ([]byte, dispatch.Source, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	switch dir {
	case remote.JSONToYAML:
		v, err := parseJSONInput(input)
		if err != nil {
			return nil, 0, err
		}
		res := d.JSONToYAML(ctx, v)
		report(dir, res.Source, res.Err)
		return []byte(res.Value), res.Source, nil

	case remote.YAMLToJSON:
		res := d.YAMLToJSON(ctx, string(input))
		report(dir, res.Source, res.Err)
		out, err := renderJSON(res.Value)
		return out, res.Source, err

	case remote.JSONToProtobuf:
		v, err := parseJSONInput(input)
		if err != nil {
			return nil, 0, err
		}
		res := d.JSONToProtobuf(ctx, v)
		if !res.Available() {
			return nil, res.Source, fmt.Errorf("%w: %s: %w", ErrUnavailable, dir, res.Err)
		}
		return res.Value, res.Source, nil

	case remote.ProtobufToJSON:
		res := d.ProtobufToJSON(ctx, input)
		if !res.Available() {
			return nil, res.Source, fmt.Errorf("%w: %s: %w", ErrUnavailable, dir, res.Err)
		}
		out, err := renderJSON(res.Value)
		return out, res.Source, err
	}

	return nil, 0, fmt.Errorf("unknown direction %s", dir)
}

// report warns when the built-in converter stood in for the service.
func report(dir remote.Direction, source dispatch.Source, err error) {
	if source == dispatch.SourceLocal && err != nil {
		ui.Warning("Conversion service unavailable, %s converted locally", dir)
		ui.Detail("%v", err)
	}
}

// parseJSONInput accepts JSON with comments and trailing commas.
func parseJSONInput(input []byte) (*value.Value, error) {
	v, err := value.ParseJSON(jsonc.ToJSON(input))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON input: %w", err)
	}
	return v, nil
}

func renderJSON(v *value.Value) ([]byte, error) {
	compact, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode JSON: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, fmt.Errorf("indent JSON: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
