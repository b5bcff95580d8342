package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
)

func sampleRecords(household uuid.UUID, target Target, n int) []ExpenseRecord {
	out := make([]ExpenseRecord, n)
	for i := range out {
		date := normalizer.Date{Year: 2024, Month: time.March, Day: i + 1}
		amount := decimal.NewFromInt(int64(-10 - i))
		out[i] = ExpenseRecord{
			HouseholdID:  household,
			AccountID:    target.AccountID,
			CreditCardID: target.CreditCardID,
			Date:         date,
			Description:  "Padaria",
			Amount:       amount,
			Category:     common.Fixed(common.Food),
			DedupHash:    normalizer.DedupHash(date, amount, "Padaria"),
		}
	}
	return out
}

type retryableError struct{}

func (retryableError) Error() string     { return "connection reset before send" }
func (retryableError) SafeToRetry() bool { return true }

func TestTarget_Validate(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{name: "account", target: AccountTarget(id)},
		{name: "card", target: CardTarget(id)},
		{name: "neither", target: Target{}, wantErr: true},
		{name: "both", target: Target{AccountID: &id, CreditCardID: &id}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrBadRequest)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostgresImportRepository_StoredTransactions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(storedTransactionsQuery)).
		WithArgs(household).
		WillReturnRows(pgxmock.NewRows([]string{"date", "amount", "description"}).
			AddRow(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "-150.00", "Supermercado Extra"))

	repo := NewPostgresImportRepository(mock)
	stored, err := repo.StoredTransactions(context.Background(), household)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	want := normalizer.DedupHash(normalizer.Date{Year: 2024, Month: time.March, Day: 15}, decimal.NewFromInt(-150), "Supermercado Extra")
	assert.Equal(t, want, stored[0].DedupHash())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportRepository_StoredTransactions_BadAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(storedTransactionsQuery)).
		WithArgs(household).
		WillReturnRows(pgxmock.NewRows([]string{"date", "amount", "description"}).
			AddRow(time.Now(), "NaN?", "x"))

	_, err = NewPostgresImportRepository(mock).StoredTransactions(context.Background(), household)
	assert.Error(t, err)
}

func TestPostgresImportRepository_RemoteWriteAvailable(t *testing.T) {
	tests := []struct {
		name       string
		rows       *pgxmock.Rows
		err        error
		want       bool
		wantRemote bool
	}{
		{name: "function present", rows: pgxmock.NewRows([]string{"available"}).AddRow(true), want: true},
		{name: "function missing", rows: pgxmock.NewRows([]string{"available"}).AddRow(false)},
		{name: "connection dropped", err: retryableError{}, wantRemote: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exp := mock.ExpectQuery(regexp.QuoteMeta(remoteAvailableQuery))
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			ok, err := NewPostgresImportRepository(mock).RemoteWriteAvailable(context.Background())
			if tt.wantRemote {
				assert.ErrorIs(t, err, ErrRemoteUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestPostgresImportRepository_InsertRemote(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	records := sampleRecords(household, AccountTarget(uuid.New()), 3)
	mock.ExpectQuery(regexp.QuoteMeta(remoteInsertQuery)).
		WithArgs(household, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"import_expenses"}).AddRow(3))

	n, err := NewPostgresImportRepository(mock).InsertRemote(context.Background(), household, records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportRepository_InsertRemote_Errors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{name: "undefined function", err: &pgconn.PgError{Code: "42883", Message: "function import_expenses does not exist"}, unavailable: true},
		{name: "constraint violation", err: &pgconn.PgError{Code: "23514", Message: "transactions_single_owner"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			household := uuid.New()
			mock.ExpectQuery(regexp.QuoteMeta(remoteInsertQuery)).
				WithArgs(household, pgxmock.AnyArg()).
				WillReturnError(tt.err)

			_, err = NewPostgresImportRepository(mock).InsertRemote(context.Background(), household, sampleRecords(household, CardTarget(uuid.New()), 1))
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, ErrRemoteUnavailable))
		})
	}
}

func TestPostgresImportRepository_InsertDirect(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	mock.ExpectCopyFrom(pgx.Identifier{"transactions"}, transactionColumns).
		WillReturnResult(2)

	repo := NewPostgresImportRepository(mock)
	n, err := repo.InsertDirect(context.Background(), household, sampleRecords(household, CardTarget(uuid.New()), 2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())

	n, err = repo.InsertDirect(context.Background(), household, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNumeric(t *testing.T) {
	n := numeric(decimal.RequireFromString("-39.901"))
	assert.True(t, n.Valid)
	assert.Equal(t, int32(-2), n.Exp)
	assert.Equal(t, int64(-3990), n.Int.Int64())
}
