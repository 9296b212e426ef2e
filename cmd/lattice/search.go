package lattice

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/latticesearch/lattice"
	"github.com/latticesearch/lattice/pkg/config"
	"github.com/latticesearch/lattice/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a graph file from the command line",
	Long: `Search a YAML graph file and print the ranked results.

Modes:
  hybrid   run all three scoring layers and fuse (default)
  boolean  evaluate the query as a boolean expression
  fuzzy    match by edit-distance similarity
  auto     let the planner pick strategies by estimated cost`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchGraph     string
	searchMode      string
	searchLimit     int
	searchThreshold float64
	searchJSON      bool
	searchTypes     []string
	searchTags      []string
	searchMinImp    float64
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchGraph, "graph", "", "YAML graph file to search (required)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "hybrid", "Search mode (hybrid, boolean, fuzzy, auto)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results (0 for all)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Fuzzy similarity threshold (0 for default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "Restrict to entity types")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "Require one of these tags")
	searchCmd.Flags().Float64Var(&searchMinImp, "min-importance", 0, "Minimum entity importance")
	searchCmd.MarkFlagRequired("graph")
}

func runSearch(cmd *cobra.Command, args []string) error {
	queryText := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	engine, cleanup, err := buildEngine(cfg, searchGraph, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	opts := &lattice.SearchOptions{
		Limit:          searchLimit,
		Filter:         searchFilter(),
		FuzzyThreshold: searchThreshold,
	}

	switch searchMode {
	case "hybrid":
		results, err := engine.Search(ctx, queryText, opts)
		if err != nil {
			return err
		}
		return printResults(results)

	case "auto":
		results, err := engine.SearchAuto(ctx, queryText, opts)
		if err != nil {
			return err
		}
		return printResults(results)

	case "boolean":
		entities, err := engine.SearchBoolean(ctx, queryText)
		if err != nil {
			return err
		}
		if searchJSON {
			return printJSON(entities)
		}
		for _, e := range entities {
			fmt.Printf("%s\t%s\n", e.Name, e.Type)
		}
		fmt.Printf("%d entities matched\n", len(entities))
		return nil

	case "fuzzy":
		matches, err := engine.SearchFuzzy(ctx, queryText, searchThreshold)
		if err != nil {
			return err
		}
		if searchJSON {
			return printJSON(matches)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMATCHED\tSIMILARITY")
		for _, m := range matches {
			fmt.Fprintf(w, "%s\t%s\t%.3f\n", m.Entity.Name, m.Matched, m.Similarity)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown mode: %s", searchMode)
	}
}

func searchFilter() *types.Filter {
	f := &types.Filter{Types: searchTypes, Tags: searchTags}
	if searchMinImp > 0 {
		f.MinImportance = &searchMinImp
	}
	if f.IsEmpty() {
		return nil
	}
	return f
}

func printResults(results *types.SearchResults) error {
	if searchJSON {
		return printJSON(results)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tNAME\tTYPE\tCOMBINED\tSEM\tLEX\tSYM")
	for i, r := range results.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%.3f\t%.3f\t%.3f\n",
			i+1, r.Entity.Name, r.Entity.Type, r.Combined,
			r.Scores.Semantic, r.Scores.Lexical, r.Scores.Symbolic)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if results.Adequacy != nil {
		stop := "exhausted all strategies"
		if results.Adequacy.StoppedEarly {
			stop = "stopped early"
		}
		names := make([]string, len(results.Adequacy.StrategiesRun))
		for i, s := range results.Adequacy.StrategiesRun {
			names[i] = s.String()
		}
		fmt.Printf("adequacy %.3f (%s); ran: %s\n",
			results.Adequacy.Score, stop, strings.Join(names, ", "))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
