package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-ingest/pkg/observability"
)

// Import persists the OK rows of a parsed file. Every record is linked to the
// single target. Batches that fail are counted and reported without stopping
// the remaining batches.
func (s *ImportService) Import(ctx context.Context, householdID uuid.UUID, rows []parser.ParsedRow, opts ImportOptions) (*ImportResult, error) {
	if err := opts.Target.Validate(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "import.Import",
		attribute.String("household_id", householdID.String()),
		attribute.Int("rows", len(rows)),
	)
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()
	defer observability.ObserveStage("import", time.Now())

	result := &ImportResult{Errors: []string{}}
	records := buildRecords(householdID, rows, opts.Target, result)

	if opts.SkipDuplicates && len(records) > 0 {
		stored, err := s.repo.StoredTransactions(ctx, householdID)
		if err != nil {
			spanErr = err
			return nil, fmt.Errorf("failed to load existing transactions: %w", err)
		}
		records = dropDuplicates(records, stored, result)
	}

	if len(records) == 0 {
		s.logImport(householdID, result)
		return result, nil
	}

	primary, fallback := repository.SelectStrategy(ctx, s.repo, s.preferRemote)
	w := &batchWriter{
		householdID: householdID,
		writer:      primary,
		fallback:    fallback,
		logger:      s.logger,
	}
	w.run(ctx, chunk(records, s.batchSize), result)
	result.WritePath = w.writer.Name()

	s.logImport(householdID, result)
	return result, nil
}

func (s *ImportService) logImport(householdID uuid.UUID, result *ImportResult) {
	s.logger.Info("import completed",
		"household_id", householdID,
		"write_path", result.WritePath,
		slog.Int("imported", result.Imported),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("failed", result.Failed),
		slog.Int("ignored_income", result.IgnoredIncome),
	)
}

// buildRecords keeps OK rows, forces the expense sign and links each record
// to the target.
func buildRecords(householdID uuid.UUID, rows []parser.ParsedRow, target repository.Target, result *ImportResult) []repository.ExpenseRecord {
	records := make([]repository.ExpenseRecord, 0, len(rows))
	for _, r := range rows {
		if r.Status != parser.StatusOK || r.Expense == nil {
			if isIncome(r.Reason) {
				result.IgnoredIncome++
			}
			continue
		}
		e := r.Expense
		amount := e.Amount.Abs().Neg()
		if amount.IsZero() {
			continue
		}
		hash := e.DedupHash
		if hash == "" || !amount.Equal(e.Amount) {
			hash = repository.StoredTransaction{Date: e.Date, Amount: amount, Description: e.Description}.DedupHash()
		}
		records = append(records, repository.ExpenseRecord{
			ID:              uuid.New(),
			HouseholdID:     householdID,
			AccountID:       target.AccountID,
			CreditCardID:    target.CreditCardID,
			Date:            e.Date,
			Description:     e.Description,
			Amount:          amount,
			Category:        e.Category,
			Notes:           e.Notes,
			TransactionType: e.TransactionType,
			DedupHash:       hash,
		})
	}
	return records
}

func isIncome(reason parser.Reason) bool {
	switch reason {
	case parser.ReasonIncomeCredit, parser.ReasonIncomePositiveValue:
		return true
	}
	return false
}

// dropDuplicates removes records whose hash matches a persisted transaction.
func dropDuplicates(records []repository.ExpenseRecord, stored []repository.StoredTransaction, result *ImportResult) []repository.ExpenseRecord {
	existing := make(map[string]struct{}, len(stored))
	for _, st := range stored {
		existing[st.DedupHash()] = struct{}{}
	}
	kept := records[:0]
	for _, rec := range records {
		if _, dup := existing[rec.DedupHash]; dup {
			result.Duplicates++
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func chunk(records []repository.ExpenseRecord, size int) [][]repository.ExpenseRecord {
	if size <= 0 {
		size = DefaultBatchSize
	}
	batches := make([][]repository.ExpenseRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

// batchWriter applies one write strategy to a sequence of batches and falls
// back once when the remote path becomes unavailable.
type batchWriter struct {
	householdID uuid.UUID
	writer      repository.WriteStrategy
	fallback    repository.WriteStrategy
	logger      *slog.Logger
}

func (w *batchWriter) run(ctx context.Context, batches [][]repository.ExpenseRecord, result *ImportResult) {
	offset := 0
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			remaining := 0
			for _, b := range batches[i:] {
				remaining += len(b)
			}
			result.Failed += remaining
			result.Errors = append(result.Errors, fmt.Sprintf("import interrupted before row %d: %v", offset+1, err))
			observability.ImportedRows.WithLabelValues(w.writer.Name(), "failed").Add(float64(remaining))
			return
		}

		n, err := w.write(ctx, batch)
		if err != nil {
			result.Failed += len(batch)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d (rows %d-%d): %v", i+1, offset+1, offset+len(batch), err))
			observability.ImportedRows.WithLabelValues(w.writer.Name(), "failed").Add(float64(len(batch)))
			w.logger.Warn("import batch failed",
				"household_id", w.householdID,
				"batch", i+1,
				"write_path", w.writer.Name(),
				"error", err,
			)
		} else {
			result.Imported += n
			observability.ImportedRows.WithLabelValues(w.writer.Name(), "imported").Add(float64(n))
		}
		offset += len(batch)
	}
}

func (w *batchWriter) write(ctx context.Context, batch []repository.ExpenseRecord) (int, error) {
	n, err := w.writer.InsertBatch(ctx, w.householdID, batch)
	if err == nil || w.fallback == nil || !errors.Is(err, repository.ErrRemoteUnavailable) {
		return n, err
	}

	w.logger.Warn("remote write unavailable, falling back",
		"household_id", w.householdID,
		"from", w.writer.Name(),
		"to", w.fallback.Name(),
		"error", err,
	)
	w.writer, w.fallback = w.fallback, nil
	return w.writer.InsertBatch(ctx, w.householdID, batch)
}
