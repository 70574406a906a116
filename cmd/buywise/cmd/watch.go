package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"buywise/internal/monitor"
)

type watchOutput struct {
	ID               string          `json:"id"`
	Message          string          `json:"message"`
	CurrentBestPrice float64         `json:"current_best_price"`
	Outcome          monitor.Outcome `json:"outcome"`
	CheckedPrice     float64         `json:"checked_price"`
}

func newWatchCmd(factory servicesFactory) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Try out price monitoring for a query",
	}
	watchCmd.AddCommand(newWatchAddCmd(factory))
	return watchCmd
}

func newWatchAddCmd(factory servicesFactory) *cobra.Command {
	var (
		user   string
		query  string
		target float64
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a query with a target price and run one check against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(query) == "" || target <= 0 {
				_ = cmd.Help()
				return errUsage
			}

			// Alerts go to stdout ahead of the JSON summary.
			svc, stop, err := factory(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer stop()

			res, err := svc.Monitor.Add(cmd.Context(), user, query, target)
			if err != nil {
				return err
			}
			outcome, entry, err := svc.Monitor.CheckByID(cmd.Context(), res.ID)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), watchOutput{
				ID:               res.ID,
				Message:          res.Message,
				CurrentBestPrice: res.CurrentBestPrice,
				Outcome:          outcome,
				CheckedPrice:     entry.CurrentBestPrice,
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", monitor.DefaultUserID, "User the entry belongs to")
	cmd.Flags().StringVar(&query, "q", "", "Product query")
	cmd.Flags().Float64Var(&target, "target", 0, "Alert when the best price is at or below this")

	return cmd
}
