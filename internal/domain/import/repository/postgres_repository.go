package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/pkg/db"
)

// undefinedFunction is the SQLSTATE returned when import_expenses is missing.
const undefinedFunction = "42883"

const (
	storedTransactionsQuery = `
		SELECT date, amount::text, description
		FROM transactions
		WHERE household_id = $1
	`

	remoteAvailableQuery = `SELECT to_regproc('public.import_expenses') IS NOT NULL`

	remoteInsertQuery = `SELECT import_expenses($1, $2::jsonb)`
)

var transactionColumns = []string{
	"id", "household_id", "account_id", "credit_card_id", "date", "description",
	"amount", "category", "notes", "transaction_type", "dedup_hash",
}

// PostgresImportRepository implements ImportRepository using PostgreSQL
type PostgresImportRepository struct {
	pool db.Pool
}

// NewPostgresImportRepository creates a new PostgreSQL import repository
func NewPostgresImportRepository(pool db.Pool) *PostgresImportRepository {
	return &PostgresImportRepository{pool: pool}
}

// StoredTransactions loads the dedup inputs of every household transaction.
func (r *PostgresImportRepository) StoredTransactions(ctx context.Context, householdID uuid.UUID) ([]StoredTransaction, error) {
	rows, err := r.pool.Query(ctx, storedTransactionsQuery, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored transactions: %w", err)
	}
	defer rows.Close()

	var out []StoredTransaction
	for rows.Next() {
		var (
			date        time.Time
			amount      string
			description string
		)
		if err := rows.Scan(&date, &amount, &description); err != nil {
			return nil, fmt.Errorf("failed to scan stored transaction: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
		}
		out = append(out, StoredTransaction{
			Date:        normalizer.NewDate(date),
			Amount:      d,
			Description: description,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stored transactions: %w", err)
	}
	return out, nil
}

// RemoteWriteAvailable probes for the import_expenses function.
func (r *PostgresImportRepository) RemoteWriteAvailable(ctx context.Context) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, remoteAvailableQuery).Scan(&ok); err != nil {
		return false, remoteError("failed to probe remote write", err)
	}
	return ok, nil
}

type remoteRow struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	AccountID       *uuid.UUID `json:"account_id,omitempty"`
	CreditCardID    *uuid.UUID `json:"credit_card_id,omitempty"`
	Date            string     `json:"date"`
	Description     string     `json:"description"`
	Amount          string     `json:"amount"`
	Category        string     `json:"category"`
	Notes           string     `json:"notes,omitempty"`
	TransactionType string     `json:"transaction_type,omitempty"`
	DedupHash       string     `json:"dedup_hash"`
}

// InsertRemote sends a batch to the import_expenses function as one jsonb
// document. Missing function and connection failures wrap ErrRemoteUnavailable.
func (r *PostgresImportRepository) InsertRemote(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	payload := make([]remoteRow, len(records))
	for i, rec := range records {
		payload[i] = remoteRow{
			ID:              optionalID(rec.ID),
			AccountID:       rec.AccountID,
			CreditCardID:    rec.CreditCardID,
			Date:            rec.Date.String(),
			Description:     rec.Description,
			Amount:          rec.Amount.StringFixed(2),
			Category:        rec.Category.String(),
			Notes:           rec.Notes,
			TransactionType: rec.TransactionType,
			DedupHash:       rec.DedupHash,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode import batch: %w", err)
	}

	var inserted int
	if err := r.pool.QueryRow(ctx, remoteInsertQuery, householdID, string(body)).Scan(&inserted); err != nil {
		return 0, remoteError("failed to import expenses remotely", err)
	}
	return inserted, nil
}

// InsertDirect copies a batch straight into the transactions table.
func (r *PostgresImportRepository) InsertDirect(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	copyCount, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		transactionColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			id := rec.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			return []any{
				id,
				householdID,
				rec.AccountID,
				rec.CreditCardID,
				rec.Date.Time(),
				rec.Description,
				numeric(rec.Amount),
				rec.Category.String(),
				nullable(rec.Notes),
				nullable(rec.TransactionType),
				rec.DedupHash,
			}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk insert transactions: %w", err)
	}
	return int(copyCount), nil
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	r := d.Round(2)
	return pgtype.Numeric{Int: r.Coefficient(), Exp: r.Exponent(), Valid: true}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func remoteError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedFunction {
		return fmt.Errorf("%s: %w: %v", msg, ErrRemoteUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%s: %w: %v", msg, ErrRemoteUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
