package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

var knownFields = map[sniffer.Field]bool{
	sniffer.FieldDescription:     true,
	sniffer.FieldAmount:          true,
	sniffer.FieldCredit:          true,
	sniffer.FieldDebit:           true,
	sniffer.FieldDate:            true,
	sniffer.FieldCategory:        true,
	sniffer.FieldNotes:           true,
	sniffer.FieldTransactionType: true,
	sniffer.FieldIgnore:          true,
}

// analysisView is the printable form of a CSVAnalysis.
type analysisView struct {
	Separator  string                     `json:"separator"`
	HasHeader  bool                       `json:"has_header"`
	HeaderLine int                        `json:"header_line,omitempty"`
	Headers    []string                   `json:"headers"`
	Rows       int                        `json:"rows"`
	Mappings   []sniffer.ColumnMapping    `json:"mappings"`
	Samples    []map[sniffer.Field]string `json:"samples"`
}

// analyzeFlags are shared by the commands that run column inference.
type analyzeFlags struct {
	source    string
	separator string
	mappings  []string
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", string(common.SourceBankAccount), "statement source: bank_account or credit_card")
	cmd.Flags().StringVar(&f.separator, "separator", "", "column separator (default: auto-detect)")
	cmd.Flags().StringSliceVar(&f.mappings, "map", nil, "column override as index=field, e.g. 2=amount (repeatable)")
}

func (f *analyzeFlags) options() (importservice.AnalyzeOptions, error) {
	source, err := common.ParseSourceType(f.source)
	if err != nil {
		return importservice.AnalyzeOptions{}, err
	}
	sep, err := parseSeparator(f.separator)
	if err != nil {
		return importservice.AnalyzeOptions{}, err
	}
	overrides, err := parseOverrides(f.mappings)
	if err != nil {
		return importservice.AnalyzeOptions{}, err
	}
	return importservice.AnalyzeOptions{Source: source, Separator: sep, Overrides: overrides}, nil
}

// parseOverrides reads "index=field" pairs. Columns are zero-based.
func parseOverrides(values []string) ([]sniffer.ColumnMapping, error) {
	out := make([]sniffer.ColumnMapping, 0, len(values))
	for _, v := range values {
		idx, field, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("%w: mapping %q must be index=field", common.ErrBadRequest, v)
		}
		column, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || column < 0 {
			return nil, fmt.Errorf("%w: invalid column index in %q", common.ErrBadRequest, v)
		}
		f := sniffer.Field(strings.ToLower(strings.TrimSpace(field)))
		if !knownFields[f] {
			return nil, fmt.Errorf("%w: unknown field %q", common.ErrBadRequest, field)
		}
		out = append(out, sniffer.ColumnMapping{ColumnIndex: column, Field: f, Confidence: 1})
	}
	return out, nil
}

func newAnalyzeCommand(g *globalOptions) *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Detect separator, header and column mapping of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
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

			deps := api.NewOfflineDependencies(cfg, g.logger(cmd))
			analysis, err := deps.ImportService.Analyze(cmd.Context(), data, opts)
			if err != nil {
				return userError(err)
			}
			return writeJSON(cmd, newAnalysisView(analysis))
		},
	}

	flags.register(cmd)

	return cmd
}

func newAnalysisView(a *sniffer.CSVAnalysis) analysisView {
	return analysisView{
		Separator:  string(a.Separator),
		HasHeader:  a.HasHeader,
		HeaderLine: a.HeaderLine,
		Headers:    a.Headers,
		Rows:       len(a.Rows),
		Mappings:   a.Mappings(),
		Samples:    a.Samples,
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
