package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
)

func newCategorizeCommand(g *globalOptions) *cobra.Command {
	var household string
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Re-run categorization over stored uncategorized expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && household == "" {
				return errors.New("either --household or --all is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Worker.SweepLimit
			}

			deps, err := api.InitDependencies(cfg, g.logger(cmd))
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if all {
				return deps.CategorizationService.Sweep(cmd.Context(), limit)
			}

			householdID, err := parseID("household", household)
			if err != nil {
				return err
			}
			report, err := deps.CategorizationService.Recategorize(cmd.Context(), householdID, limit)
			if err != nil {
				return fmt.Errorf("re-categorizing household %s: %w", householdID, err)
			}
			return printReport(cmd, report)
		},
	}

	cmd.Flags().StringVar(&household, "household", "", "household to re-categorize")
	cmd.Flags().BoolVar(&all, "all", false, "sweep every household with uncategorized expenses")
	cmd.MarkFlagsMutuallyExclusive("household", "all")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum expenses per household (default: RECATEGORIZE_SWEEP_LIMIT)")

	return cmd
}

func printReport(cmd *cobra.Command, r *categorization.Report) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "applied: %d, suggestions: %d, near misses: %d, remaining: %d\n",
		len(r.Applied), len(r.Suggestions), len(r.NearMisses), r.Remaining)
	for _, u := range r.Suggestions {
		fmt.Fprintf(w, "  suggest %-10s %.2f  %s\n", u.Resolution.Category, u.Resolution.Confidence, u.Description)
	}
	if r.AIError != "" {
		fmt.Fprintf(w, "ai warning: %s\n", r.AIError)
	}
	return nil
}
