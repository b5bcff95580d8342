// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-ingest/pkg/observability"
)

const (
	DefaultMaxBytes  = 5 << 20
	DefaultBatchSize = 50
)

var (
	ErrFileTooLarge   = errors.New("file exceeds the maximum import size")
	ErrNoAmountColumn = errors.New("no amount column could be identified")
)

// UnanalyzableError rejects a whole file before any row is processed.
type UnanalyzableError struct {
	Err error
}

func (e *UnanalyzableError) Error() string {
	return "file cannot be imported: " + e.Err.Error()
}

func (e *UnanalyzableError) Unwrap() error { return e.Err }

func unanalyzable(err error) error {
	return &UnanalyzableError{Err: err}
}

// CategorizationService defines the interface for transaction categorization
type CategorizationService interface {
	CategorizeBatch(ctx context.Context, householdID uuid.UUID, items []CategorizationItem) (*CategorizationResult, error)
}

// CategorizationItem is one parsed expense submitted for categorization.
type CategorizationItem struct {
	ID          uuid.UUID
	Description string
	Category    common.Category
}

// CategorizationResult holds the categories that were confidently resolved.
type CategorizationResult struct {
	Categories  map[uuid.UUID]common.Category
	Suggestions int
	Remaining   int
	Warning     string
}

// AnalyzeOptions tune column inference.
type AnalyzeOptions struct {
	Source    common.SourceType
	Separator rune
	Overrides []sniffer.ColumnMapping
}

// ParseOptions extend AnalyzeOptions with classification settings.
type ParseOptions struct {
	AnalyzeOptions
	DefaultCategory *common.Category
	Keywords        *parser.KeywordMatcher
}

// ParseResult is the output of the analyze and classify stages.
type ParseResult struct {
	Analysis *sniffer.CSVAnalysis
	Polarity parser.Polarity
	Rows     []parser.ParsedRow
	Summary  parser.Summary
}

// ImportOptions control the executor.
type ImportOptions struct {
	Target         repository.Target
	SkipDuplicates bool
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	Imported      int      `json:"imported"`
	Duplicates    int      `json:"duplicates"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors"`
	IgnoredIncome int      `json:"ignored_income,omitempty"`
	WritePath     string   `json:"write_path,omitempty"`
}

// FileImportOptions configure the full pipeline.
type FileImportOptions struct {
	ParseOptions
	ImportOptions
	// SkipCategorization imports rows with the categories found in the file.
	SkipCategorization bool
}

// FileImportResult reports every stage of a file import.
type FileImportResult struct {
	Parse                 *ParseResult
	Import                *ImportResult
	Categorized           int
	Suggestions           int
	CategorizationWarning string
}

// ImportService orchestrates file analysis and import operations
type ImportService struct {
	repo         repository.ImportRepository
	catService   CategorizationService // Optional: nil if categorization not available
	logger       *slog.Logger
	batchSize    int
	maxBytes     int
	preferRemote bool
}

// NewImportService creates a new import service
func NewImportService(repo repository.ImportRepository, logger *slog.Logger) *ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportService{
		repo:         repo,
		logger:       logger,
		batchSize:    DefaultBatchSize,
		maxBytes:     DefaultMaxBytes,
		preferRemote: true,
	}
}

// WithCategorizationService adds categorization support to the import service
func (s *ImportService) WithCategorizationService(catService CategorizationService) *ImportService {
	s.catService = catService
	return s
}

// WithBatchSize sets how many rows are written per batch.
func (s *ImportService) WithBatchSize(n int) *ImportService {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithMaxBytes sets the largest accepted upload.
func (s *ImportService) WithMaxBytes(n int) *ImportService {
	if n > 0 {
		s.maxBytes = n
	}
	return s
}

// WithRemoteWrite toggles the import_expenses write path.
func (s *ImportService) WithRemoteWrite(enabled bool) *ImportService {
	s.preferRemote = enabled
	return s
}

// DecodeFile turns an upload into statement text. XLSX workbooks are
// rendered as tab-separated text.
func (s *ImportService) DecodeFile(data []byte) (string, error) {
	if len(data) > s.maxBytes {
		return "", unanalyzable(fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, len(data), s.maxBytes))
	}
	if parser.IsXLSX(data) {
		text, err := parser.XLSXToText(bytes.NewReader(data))
		if err != nil {
			return "", unanalyzable(err)
		}
		return text, nil
	}
	return normalizer.DecodeText(data), nil
}

// Analyze infers the structure of an uploaded file.
func (s *ImportService) Analyze(ctx context.Context, data []byte, opts AnalyzeOptions) (*sniffer.CSVAnalysis, error) {
	_, span := observability.StartSpan(ctx, "import.Analyze", attribute.Int("bytes", len(data)))
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()
	defer observability.ObserveStage("analyze", time.Now())

	text, err := s.DecodeFile(data)
	if err != nil {
		spanErr = err
		return nil, err
	}
	analysis, err := sniffer.Analyze(text, sniffer.Options{
		Source:    opts.Source,
		Separator: opts.Separator,
		Overrides: opts.Overrides,
	})
	if err != nil {
		spanErr = unanalyzable(err)
		return nil, spanErr
	}
	if !analysis.Mapping.HasAmount() {
		spanErr = unanalyzable(ErrNoAmountColumn)
		return nil, spanErr
	}

	s.logger.Debug("file analyzed",
		"separator", string(analysis.Separator),
		"has_header", analysis.HasHeader,
		slog.Int("rows", len(analysis.Rows)),
	)
	return analysis, nil
}

// Parse analyzes the file, resolves polarity once and classifies every row.
func (s *ImportService) Parse(ctx context.Context, data []byte, opts ParseOptions) (*ParseResult, error) {
	if opts.Source == "" {
		opts.Source = common.SourceBankAccount
	}
	analysis, err := s.Analyze(ctx, data, opts.AnalyzeOptions)
	if err != nil {
		return nil, err
	}

	_, span := observability.StartSpan(ctx, "import.Classify", attribute.String("source", string(opts.Source)))
	defer func() { observability.EndSpan(span, nil) }()
	defer observability.ObserveStage("classify", time.Now())

	polarity := parser.ResolvePolarity(analysis, opts.Source)
	classifier := parser.NewClassifier(parser.Config{
		Source:          opts.Source,
		DefaultCategory: opts.DefaultCategory,
		Keywords:        opts.Keywords,
	})
	rows := classifier.Classify(analysis, polarity)
	recordRows(opts.Source, rows)

	summary := parser.Summarize(rows)
	s.logger.Debug("rows classified",
		slog.Int("ok", summary.OK),
		slog.Int("skipped", summary.Skipped),
		slog.Int("errors", summary.Errors),
	)
	return &ParseResult{Analysis: analysis, Polarity: polarity, Rows: rows, Summary: summary}, nil
}

// ParseTemplate reads the fixed template format after the usual size check.
func (s *ImportService) ParseTemplate(data []byte, opts parser.TemplateOptions) ([]parser.ParsedRow, error) {
	text, err := s.DecodeFile(data)
	if err != nil {
		return nil, err
	}
	rows, err := parser.ParseTemplate(bytes.NewReader([]byte(text)), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return rows, nil
}

func recordRows(source common.SourceType, rows []parser.ParsedRow) {
	for _, r := range rows {
		observability.RowsClassified.WithLabelValues(string(source), string(r.Status), string(r.Reason)).Inc()
	}
}

// ImportFile runs the whole pipeline: analyze, classify, categorize and import.
func (s *ImportService) ImportFile(ctx context.Context, householdID uuid.UUID, data []byte, opts FileImportOptions) (*FileImportResult, error) {
	if err := opts.Target.Validate(); err != nil {
		return nil, err
	}
	parsed, err := s.Parse(ctx, data, opts.ParseOptions)
	if err != nil {
		return nil, err
	}

	out := &FileImportResult{Parse: parsed}
	if !opts.SkipCategorization {
		cat, err := s.Categorize(ctx, householdID, parsed.Rows)
		if err != nil {
			s.logger.Warn("categorization failed, importing with file categories", "household_id", householdID, "error", err)
			out.CategorizationWarning = err.Error()
		} else if cat != nil {
			out.Categorized = len(cat.Categories)
			out.Suggestions = cat.Suggestions
			out.CategorizationWarning = cat.Warning
		}
	}

	result, err := s.Import(ctx, householdID, parsed.Rows, opts.ImportOptions)
	if err != nil {
		return nil, err
	}
	out.Import = result
	return out, nil
}

// Categorize resolves categories for OK rows still in "other" and writes
// confident results back into the rows.
func (s *ImportService) Categorize(ctx context.Context, householdID uuid.UUID, rows []parser.ParsedRow) (*CategorizationResult, error) {
	if s.catService == nil {
		return nil, nil
	}

	byID := make(map[uuid.UUID]*parser.ParsedExpense)
	var items []CategorizationItem
	for i := range rows {
		e := rows[i].Expense
		if rows[i].Status != parser.StatusOK || e == nil || !e.Category.IsOther() {
			continue
		}
		id := uuid.New()
		byID[id] = e
		items = append(items, CategorizationItem{ID: id, Description: e.Description, Category: e.Category})
	}
	if len(items) == 0 {
		return &CategorizationResult{}, nil
	}

	result, err := s.catService.CategorizeBatch(ctx, householdID, items)
	if err != nil {
		return nil, fmt.Errorf("failed to categorize rows: %w", err)
	}
	for id, category := range result.Categories {
		if e, ok := byID[id]; ok {
			e.Category = category
		}
	}
	return result, nil
}
