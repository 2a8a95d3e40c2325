package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/accord/internal/core/domain"
)

var (
	searchLimit  int
	searchJSON   bool
	searchAnswer bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested agreements",
	Long: `Embeds the query and returns the most similar agreements from the vector
store. With --answer, a language model answers the query from the matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchAnswer, "answer", false, "generate an answer from the results")
	rootCmd.AddCommand(searchCmd)
}

// searchOutput is the --json payload.
type searchOutput struct {
	Query   string             `json:"query"`
	Answer  string             `json:"answer,omitempty"`
	Results []searchResultJSON `json:"results"`
}

type searchResultJSON struct {
	Key     string  `json:"key"`
	Score   float64 `json:"score"`
	Title   string  `json:"title"`
	Origin  string  `json:"origin,omitempty"`
	Preview string  `json:"preview,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	if searchLimit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", domain.ErrInvalidInput)
	}

	rt, err := runtimeOrErr()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	svc, err := rt.Search(ctx, searchAnswer)
	if err != nil {
		return err
	}

	opts := domain.SearchOptions{TopK: searchLimit}

	var (
		answer  string
		results []domain.SearchResult
		askErr  error
	)
	if searchAnswer {
		answer, results, askErr = svc.Ask(ctx, query, opts)
		if askErr != nil && results == nil {
			return fmt.Errorf("search failed: %w", askErr)
		}
	} else {
		results, err = svc.Search(ctx, query, opts)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}

	if searchJSON {
		if err := outputSearchJSON(cmd, query, answer, results); err != nil {
			return err
		}
	} else {
		outputSearchText(cmd, results)
		if answer != "" {
			out := cmd.OutOrStdout()
			p := newPainter(out)
			fmt.Fprintln(out, p.paint(headingStyle, "Answer:"))
			fmt.Fprintln(out, answer)
		}
	}

	if askErr != nil {
		if errors.Is(askErr, domain.ErrLLMUnavailable) {
			return fmt.Errorf("no answer generated: %w", askErr)
		}
		return askErr
	}
	return nil
}

func outputSearchJSON(cmd *cobra.Command, query, answer string, results []domain.SearchResult) error {
	out := searchOutput{
		Query:   query,
		Answer:  answer,
		Results: make([]searchResultJSON, len(results)),
	}
	for i := range results {
		out.Results[i] = searchResultJSON{
			Key:     results[i].Match.ID,
			Score:   results[i].Match.Score,
			Title:   results[i].Title,
			Origin:  string(results[i].Origin),
			Preview: results[i].Preview,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found")
		return
	}

	p := newPainter(out)
	fmt.Fprintf(out, "Found %d results!\n\n", len(results))
	for i := range results {
		fmt.Fprintln(out, p.paint(headingStyle, fmt.Sprintf("Result %d - Score: %.2f", i+1, results[i].Match.Score)))
		fmt.Fprintf(out, "Agreement: %s\n", orNA(results[i].Title))
		fmt.Fprintf(out, "Preview: %s\n\n", orNA(results[i].Preview))
	}
}
