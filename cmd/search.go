package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/samscraper/filter"
	"github.com/s0up4200/samscraper/sam"
)

var (
	sortKey     string
	statusKey   string
	limit       string
	query       string
	filterExpr  string
	preset      string
	jsonOutput  bool
	showDetails bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search sam.gov contract opportunities",
	Long: `Search sam.gov contract opportunities and optionally narrow the results
with a filter expression evaluated locally.

Sort accepts relevance, atoz (or 1) and ztoa (or -1). Status accepts
active and inactive; anything else searches both. A missing or
non-numeric limit requests every result.`,
	Example: `  samscraper search --query roofing --sort atoz
  samscraper search --filter 'contains(Agency, "defense") and Active'
  samscraper search --preset recent --json`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&sortKey, "sort", "", "sort order (relevance, atoz, ztoa)")
	searchCmd.Flags().StringVar(&statusKey, "status", "", "opportunity status (active, inactive, all)")
	searchCmd.Flags().StringVar(&limit, "limit", "", "maximum number of results")
	searchCmd.Flags().StringVarP(&query, "query", "q", "", "full-text search query")
	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	searchCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	searchCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	searchCmd.Flags().BoolVar(&showDetails, "details", false, "show solicitation, agency and dates")
}

func runSearch(cmd *cobra.Command, args []string) error {
	params := sam.SearchParams{
		Sort:   flagOrDefault(cmd, "sort", sortKey, cfg.Search.Sort),
		Status: flagOrDefault(cmd, "status", statusKey, cfg.Search.Status),
		Limit:  flagOrDefault(cmd, "limit", limit, cfg.Search.Limit),
		Query:  flagOrDefault(cmd, "query", query, cfg.Search.Query),
	}

	// Resolve the filter before hitting the API so typos fail fast
	resultFilter, err := resolveFilter()
	if err != nil {
		return err
	}

	logger.Info().
		Str("query", params.Query).
		Str("sort", sam.NormalizeSort(params.Sort)).
		Str("status", sam.NormalizeStatus(params.Status)).
		Msg("Searching opportunities")

	results, err := samClient.Search(cmd.Context(), params)
	if err != nil {
		return err
	}

	if resultFilter != nil {
		total := len(results)
		results = filter.Apply(resultFilter, results)
		logger.Info().
			Str("filter", resultFilter.Expression()).
			Int("matched", len(results)).
			Int("total", total).
			Msg("Applied filter")
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	formatter := sam.NewConsoleFormatter()
	fmt.Fprint(out, formatter.FormatOpportunityList(results, sam.FormatOptions{ShowDetails: showDetails}))
	return nil
}

// flagOrDefault returns the flag value when it was given on the command line
func flagOrDefault(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}

// resolveFilter returns the filter to apply, or nil when none is configured
func resolveFilter() (filter.CompiledFilter, error) {
	if filterExpr == "" && preset != "" {
		compiled, ok := filters.GetFilter(preset)
		if !ok {
			return nil, fmt.Errorf("preset '%s' not found in config", preset)
		}
		return compiled, nil
	}

	expr := getFilterExpression()
	if expr == "" {
		return nil, nil
	}

	compiled, err := filters.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return compiled, nil
}

// getFilterExpression determines the ad-hoc filter expression to use
func getFilterExpression() string {
	// Priority: command line filter > default
	if filterExpr != "" {
		return filterExpr
	}
	return cfg.Filter.DefaultExpression
}
