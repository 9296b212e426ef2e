package lattice

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/latticesearch/lattice/pkg/config"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate <query>",
	Short: "Rank search strategies by estimated cost without executing any",
	Args:  cobra.ExactArgs(1),
	RunE:  runEstimate,
}

var (
	estimateGraph string
	estimateJSON  bool
)

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVar(&estimateGraph, "graph", "", "YAML graph file (required)")
	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "Print the report as JSON")
	estimateCmd.MarkFlagRequired("graph")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer flush()

	engine, cleanup, err := buildEngine(cfg, estimateGraph, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := engine.EstimateCost(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if estimateJSON {
		return printJSON(report)
	}

	fmt.Printf("query: %s\ngraph size: %d\nrecommended: %s\n\n",
		report.Query, report.GraphSize, report.Recommended)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tCOST\tREASON")
	for _, est := range report.Estimates {
		fmt.Fprintf(w, "%s\t%.1f\t%s\n", est.Strategy, est.Cost, est.Reason)
	}
	return w.Flush()
}
