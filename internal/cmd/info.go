package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cameronsjo/toolcat/internal/dispatch"
	"github.com/cameronsjo/toolcat/internal/remote"
	"github.com/cameronsjo/toolcat/internal/ui"
)

var (
	infoJSON   bool
	infoRemote string
)

// infoCmd reports the converter plugin info.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show converter plugin info",
	Long: `Show the format converter plugin info reported by the conversion
service, or the built-in converter's info when the service is unreachable.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output as JSON")
	infoCmd.Flags().StringVar(&infoRemote, "remote", "", "Conversion service URL")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res := newDispatcher(false, infoRemote).Info(ctx)

	if infoJSON {
		return printInfoJSON(cmd.OutOrStdout(), res)
	}
	printInfoHuman(cmd.OutOrStdout(), res)
	return nil
}

type infoOutput struct {
	remote.Info
	Source string `json:"source"`
}

func printInfoJSON(w io.Writer, res dispatch.Result[remote.Info]) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(infoOutput{Info: res.Value, Source: res.Source.String()})
}

func printInfoHuman(w io.Writer, res dispatch.Result[remote.Info]) {
	fmt.Fprintf(w, "Plugin:      %s\n", res.Value.Plugin)
	fmt.Fprintf(w, "Version:     %s\n", res.Value.Version)
	fmt.Fprintf(w, "Description: %s\n", res.Value.Description)
	fmt.Fprintf(w, "Source:      %s\n", res.Source)
	if len(res.Value.Endpoints) > 0 {
		fmt.Fprintln(w, "Endpoints:")
		for _, e := range res.Value.Endpoints {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if res.Err != nil {
		ui.Warning("Conversion service unavailable")
		ui.Detail("%v", res.Err)
	}
}
