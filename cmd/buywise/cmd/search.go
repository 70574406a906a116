package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"buywise/internal/envutil"
	"buywise/internal/product"
	"buywise/internal/source"
)

type searchOutput struct {
	Query        string            `json:"query"`
	TotalResults int               `json:"total_results"`
	Stores       []source.Source   `json:"stores,omitempty"`
	SortBy       string            `json:"sort_by"`
	MinRating    float64           `json:"min_rating"`
	Results      product.ResultSet `json:"results"`
}

func newSearchCmd(factory servicesFactory) *cobra.Command {
	var (
		query     string
		stores    string
		sortBy    string
		minRating float64
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search every store (or --stores) once and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(query) == "" && len(args) > 0 {
				query = strings.Join(args, " ")
			}
			if strings.TrimSpace(query) == "" {
				_ = cmd.Help()
				return errUsage
			}
			if limit < 0 {
				return fmt.Errorf("invalid --limit %d", limit)
			}

			svc, stop, err := factory(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stop()

			ids := source.ParseList(stores)
			results, err := svc.Orchestrator.Search(cmd.Context(), query, ids)
			if err != nil {
				return err
			}
			filtered := product.Limit(product.Sort(product.Filter(results, minRating), product.SortKey(sortBy)), limit)

			return writeJSON(cmd.OutOrStdout(), searchOutput{
				Query:        strings.TrimSpace(query),
				TotalResults: len(filtered),
				Stores:       ids,
				SortBy:       sortBy,
				MinRating:    minRating,
				Results:      filtered,
			})
		},
	}

	cmd.Flags().StringVar(&query, "q", "", "Product query (or pass it as arguments)")
	cmd.Flags().StringVar(&stores, "stores", "", "Comma separated store ids, e.g. amazon,flipkart")
	cmd.Flags().StringVar(&sortBy, "sort", envutil.String(os.Getenv, "BUYWISE_SORT", string(product.SortByPrice)), "Sort by price, rating or name")
	cmd.Flags().Float64Var(&minRating, "min-rating", envutil.Float(os.Getenv, "MIN_RATING", 3.0), "Drop results rated below this")
	cmd.Flags().IntVar(&limit, "limit", envutil.Int(os.Getenv, "RESULTS_LIMIT", 20), "Maximum results to print")

	return cmd
}
