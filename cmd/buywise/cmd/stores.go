package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStoresCmd(factory servicesFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "stores",
		Short: "List the stores buywise can search",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, stop, err := factory(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stop()

			for _, s := range svc.Registry.Scrapers() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", s.ID(), s.StoreName())
			}
			return nil
		},
	}
}
