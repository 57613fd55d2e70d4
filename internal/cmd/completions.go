package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// completeValues returns a completion function offering the given values.
func completeValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeInputFile completes a single file argument, filtered by extension.
func completeInputFile(exts ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		// Don't complete if we already have an argument
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if len(exts) == 0 {
			return nil, cobra.ShellCompDirectiveDefault
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// registerFlagCompletions wires completion for the root persistent flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", completeValues("debug", "info", "warn", "error"))
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", completeValues("logfmt", "json"))
	_ = rootCmd.RegisterFlagCompletionFunc("config", completeInputFile("yaml", "yml"))
}
