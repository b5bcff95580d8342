package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

// exportRow is one classified row in the CSV export.
type exportRow struct {
	Line        int    `csv:"line"`
	Status      string `csv:"status"`
	Reason      string `csv:"reason"`
	Message     string `csv:"message"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	DedupHash   string `csv:"dedup_hash"`
}

func toExportRows(rows []parser.ParsedRow) []exportRow {
	out := make([]exportRow, len(rows))
	for i, r := range rows {
		out[i] = exportRow{Line: r.RowIndex, Status: string(r.Status), Reason: string(r.Reason), Message: r.Message}
		if e := r.Expense; e != nil {
			out[i].Date = e.Date.String()
			out[i].Description = e.Description
			out[i].Amount = e.Amount.StringFixed(2)
			out[i].Category = e.Category.String()
			out[i].DedupHash = e.DedupHash
		}
	}
	return out
}

func newParseCommand(g *globalOptions) *cobra.Command {
	var flags analyzeFlags
	var defaultCategory string
	var template bool
	var csvPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Classify every row of a statement without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			deps := api.NewOfflineDependencies(cfg, g.logger(cmd))

			var rows []parser.ParsedRow
			if template {
				rows, err = deps.ImportService.ParseTemplate(data, parser.TemplateOptions{
					Today: normalizer.NewDate(time.Now()),
				})
				if err != nil {
					return userError(err)
				}
			} else {
				analyzeOpts, err := flags.options()
				if err != nil {
					return err
				}
				category, err := parseDefaultCategory(defaultCategory)
				if err != nil {
					return err
				}
				res, err := deps.ImportService.Parse(cmd.Context(), data, importservice.ParseOptions{
					AnalyzeOptions:  analyzeOpts,
					DefaultCategory: category,
				})
				if err != nil {
					return userError(err)
				}
				rows = res.Rows
			}

			if csvPath != "" {
				if err := exportCSV(csvPath, rows); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, struct {
					Summary parser.Summary     `json:"summary"`
					Rows    []parser.ParsedRow `json:"rows"`
				}{parser.Summarize(rows), rows})
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&defaultCategory, "default-category", "", "category for rows without one, e.g. food or custom:<id>")
	cmd.Flags().BoolVar(&template, "template", false, "read the fixed data;descricao;valor;categoria template (missing dates become today)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the classified rows to this CSV file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")

	return cmd
}

func exportCSV(path string, rows []parser.ParsedRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	export := toExportRows(rows)
	if err := gocsv.Marshal(&export, f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// printRows renders a table of rows followed by a summary line.
func printRows(w io.Writer, rows []parser.ParsedRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSTATUS\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")

	total := make([]decimal.Decimal, 0, len(rows))
	for _, r := range rows {
		if r.Expense == nil {
			fmt.Fprintf(tw, "%d\t%s\t\t\t\t%s: %s\n", r.RowIndex, r.Status, r.Reason, r.Message)
			continue
		}
		e := r.Expense
		total = append(total, e.Amount)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.RowIndex, r.Status, e.Date, money.NewFromDecimal(e.Amount, money.DefaultCurrency).Display(), e.Category, e.Description)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}

	s := parser.Summarize(rows)
	_, err := fmt.Fprintf(w, "\n%d ok, %d skipped, %d errors, total %s\n",
		s.OK, s.Skipped, s.Errors, money.Sum(total, money.DefaultCurrency).Display())
	return err
}
