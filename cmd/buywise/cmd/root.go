package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func newRootCmd(factory servicesFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "buywise",
		Short:         "Compare product prices across stores and watch for drops",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(
		newSearchCmd(factory),
		newStoresCmd(factory),
		newWatchCmd(factory),
	)
	return rootCmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
