package commands

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
)

func newImportCommand(g *globalOptions) *cobra.Command {
	var flags analyzeFlags
	var household string
	var account string
	var card string
	var defaultCategory string
	var skipDuplicates bool
	var noCategorize bool
	var archive bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse a statement and write its expenses to the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			householdID, err := parseID("household", household)
			if err != nil {
				return err
			}
			target, err := parseTarget(account, card)
			if err != nil {
				return err
			}
			// Importing into a card implies a card statement unless told otherwise.
			if target.CreditCardID != nil && !cmd.Flags().Changed("source") {
				flags.source = string(common.SourceCreditCard)
			}
			analyzeOpts, err := flags.options()
			if err != nil {
				return err
			}
			category, err := parseDefaultCategory(defaultCategory)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			deps, err := api.InitDependencies(cfg, g.logger(cmd))
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if archive {
				info, err := deps.FileStorage.Archive(cmd.Context(), householdID, filepath.Base(args[0]), string(analyzeOpts.Source), bytes.NewReader(data))
				if err != nil {
					return fmt.Errorf("archiving statement: %w", err)
				}
				deps.Logger.Info("statement archived", "file_id", info.ID, "sha256", info.SHA256)
			}

			res, err := deps.ImportService.ImportFile(cmd.Context(), householdID, data, importservice.FileImportOptions{
				ParseOptions: importservice.ParseOptions{
					AnalyzeOptions:  analyzeOpts,
					DefaultCategory: category,
				},
				ImportOptions: importservice.ImportOptions{
					Target:         target,
					SkipDuplicates: skipDuplicates,
				},
				SkipCategorization: noCategorize,
			})
			if err != nil {
				return userError(err)
			}

			if asJSON {
				return writeJSON(cmd, struct {
					Summary        parser.Summary              `json:"parse_summary"`
					Import         *importservice.ImportResult `json:"import"`
					Categorized    int                         `json:"categorized"`
					Suggestions    int                         `json:"suggestions"`
					Categorization string                      `json:"categorization_warning,omitempty"`
				}{res.Parse.Summary, res.Import, res.Categorized, res.Suggestions, res.CategorizationWarning})
			}
			return printImportResult(cmd.OutOrStdout(), res)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&household, "household", "", "household id (required)")
	_ = cmd.MarkFlagRequired("household")
	cmd.Flags().StringVar(&account, "account", "", "bank account id to import into")
	cmd.Flags().StringVar(&card, "card", "", "credit card id to import into")
	cmd.MarkFlagsMutuallyExclusive("account", "card")
	cmd.MarkFlagsOneRequired("account", "card")
	cmd.Flags().StringVar(&defaultCategory, "default-category", "", "category for rows without one")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip rows already stored for the household")
	cmd.Flags().BoolVar(&noCategorize, "no-categorize", false, "keep the categories found in the file")
	cmd.Flags().BoolVar(&archive, "archive", false, "keep a copy of the raw file in local storage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s id %q", common.ErrBadRequest, name, value)
	}
	return id, nil
}

func parseTarget(account, card string) (repository.Target, error) {
	if account != "" && card != "" {
		return repository.Target{}, fmt.Errorf("%w: --account and --card are mutually exclusive", common.ErrBadRequest)
	}
	if card != "" {
		id, err := parseID("card", card)
		if err != nil {
			return repository.Target{}, err
		}
		return repository.CardTarget(id), nil
	}
	id, err := parseID("account", account)
	if err != nil {
		return repository.Target{}, err
	}
	return repository.AccountTarget(id), nil
}

func printImportResult(w io.Writer, res *importservice.FileImportResult) error {
	s := res.Parse.Summary
	r := res.Import
	fmt.Fprintf(w, "parsed: %d ok, %d skipped, %d errors\n", s.OK, s.Skipped, s.Errors)
	if res.Categorized > 0 || res.Suggestions > 0 {
		fmt.Fprintf(w, "categorized: %d applied, %d suggestions\n", res.Categorized, res.Suggestions)
	}
	if res.CategorizationWarning != "" {
		fmt.Fprintf(w, "categorization warning: %s\n", res.CategorizationWarning)
	}
	fmt.Fprintf(w, "imported: %d, duplicates: %d, failed: %d (via %s)\n", r.Imported, r.Duplicates, r.Failed, r.WritePath)
	if r.IgnoredIncome > 0 {
		fmt.Fprintf(w, "ignored income rows: %d\n", r.IgnoredIncome)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
	return nil
}
