package cli

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
	"github.com/kirillkom/hybrid-search/internal/core/usecase"
)

type searchFlags struct {
	topK     int
	dateFrom string
	dateTo   string
	symbol   string
	json     bool
}

func (f searchFlags) request(query string) (domain.SearchRequest, error) {
	filter, err := usecase.ParseFilter(f.dateFrom, f.dateTo, f.symbol)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	return domain.SearchRequest{Query: query, TopK: f.topK, Filter: filter}, nil
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "number of results (default from DEFAULT_TOP_K)")
	cmd.Flags().StringVar(&f.dateFrom, "date-from", "", "only documents on or after YYYY-MM-DD")
	cmd.Flags().StringVar(&f.dateTo, "date-to", "", "only documents on or before YYYY-MM-DD")
	cmd.Flags().StringVar(&f.symbol, "symbol", "", "only documents tagged with this symbol")
}

func newSearchCommand(load Loader) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run one search and print the ranked results",
		Long: `Runs a hybrid search. Short ticker-like queries (up to 6 letters or digits)
lean on keyword matching; longer queries lean on semantic similarity.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(strings.Join(args, " "))
			if err != nil {
				return err
			}

			rt, closeFn, err := loadRuntime(cmd.Context(), load)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := requireHealthy(rt); err != nil {
				return err
			}

			outcome, err := rt.Search.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			if flags.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(outcome)
			}
			newPrinter(cmd.OutOrStdout()).outcome(outcome)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the raw outcome as JSON")
	return cmd
}
