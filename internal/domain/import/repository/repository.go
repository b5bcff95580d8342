// Package repository provides data access for statement imports.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

// ErrRemoteUnavailable reports that the server-side import function could
// not be reached. Callers fall back to direct writes.
var ErrRemoteUnavailable = errors.New("remote write unavailable")

// Target is the single account or credit card an import is linked to.
type Target struct {
	AccountID    *uuid.UUID
	CreditCardID *uuid.UUID
}

// AccountTarget links an import to a bank account.
func AccountTarget(id uuid.UUID) Target {
	return Target{AccountID: &id}
}

// CardTarget links an import to a credit card.
func CardTarget(id uuid.UUID) Target {
	return Target{CreditCardID: &id}
}

// Validate requires exactly one of account and card.
func (t Target) Validate() error {
	switch {
	case t.AccountID == nil && t.CreditCardID == nil:
		return fmt.Errorf("%w: import needs an account or a credit card", common.ErrBadRequest)
	case t.AccountID != nil && t.CreditCardID != nil:
		return fmt.Errorf("%w: import cannot target both an account and a credit card", common.ErrBadRequest)
	}
	return nil
}

// ExpenseRecord is an expense ready to be persisted.
type ExpenseRecord struct {
	ID              uuid.UUID
	HouseholdID     uuid.UUID
	AccountID       *uuid.UUID
	CreditCardID    *uuid.UUID
	Date            normalizer.Date
	Description     string
	Amount          decimal.Decimal // Always negative
	Category        common.Category
	Notes           string
	TransactionType string
	DedupHash       string
}

// StoredTransaction holds the persisted fields that feed the dedup hash.
type StoredTransaction struct {
	Date        normalizer.Date
	Amount      decimal.Decimal
	Description string
}

// DedupHash recomputes the hash from the stored values.
func (s StoredTransaction) DedupHash() string {
	return normalizer.DedupHash(s.Date, s.Amount, s.Description)
}

// ImportRepository defines data access operations for imports
type ImportRepository interface {
	// StoredTransactions lists every persisted transaction of the household.
	StoredTransactions(ctx context.Context, householdID uuid.UUID) ([]StoredTransaction, error)

	// Remote path: the import_expenses database function.
	RemoteWriteAvailable(ctx context.Context) (bool, error)
	InsertRemote(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error)

	// Direct path: COPY into the transactions table.
	InsertDirect(ctx context.Context, householdID uuid.UUID, records []ExpenseRecord) (int, error)
}
