// Package e2etest provides end-to-end tests for statement import flows.
package e2etest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/pkg/db"
)

const testDataDir = "testdata"

// dsnEnv points the database tests at a disposable PostgreSQL instance.
const dsnEnv = "STATEMENTS_E2E_DSN"

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testDataDir, name))
	require.NoError(t, err, "failed to read fixture %s", name)
	require.NotEmpty(t, data)
	return data
}

func TestStatementFixtures(t *testing.T) {
	tests := []struct {
		file    string
		source  common.SourceType
		want    parser.Summary
		reasons []parser.Reason
	}{
		{
			file:    "extrato_conta.csv",
			source:  common.SourceBankAccount,
			want:    parser.Summary{OK: 2, Skipped: 2},
			reasons: []parser.Reason{parser.ReasonStatementMetadata, parser.ReasonIncomePositiveValue},
		},
		{
			file:    "fatura_cartao.csv",
			source:  common.SourceCreditCard,
			want:    parser.Summary{OK: 8, Skipped: 2},
			reasons: []parser.Reason{parser.ReasonCardNegativeValue},
		},
		{
			file:    "extrato_dual.csv",
			source:  common.SourceBankAccount,
			want:    parser.Summary{OK: 2, Skipped: 2},
			reasons: []parser.Reason{parser.ReasonIncomeCredit, parser.ReasonNoAmount},
		},
	}

	svc := service.NewImportService(nil, nil)
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			res, err := svc.Parse(context.Background(), readFixture(t, tt.file), service.ParseOptions{
				AnalyzeOptions: service.AnalyzeOptions{Source: tt.source},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Summary)

			seen := make(map[parser.Reason]bool)
			for _, r := range res.Rows {
				if r.Status == parser.StatusOK {
					assert.True(t, r.Expense.Amount.IsNegative(), "line %d", r.RowIndex)
					assert.NotEmpty(t, r.Expense.DedupHash)
				}
				seen[r.Reason] = true
			}
			for _, reason := range tt.reasons {
				assert.True(t, seen[reason], "expected a %s row", reason)
			}
		})
	}
}

func TestImportFile_Postgres(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set (point it at a disposable database to run this test)", dsnEnv)
	}

	database, err := db.New(db.Config{DSN: dsn, MaxConns: 4, MaxConnLifetime: time.Minute}, nil)
	require.NoError(t, err)
	t.Cleanup(database.Close)
	require.NoError(t, database.RunMigrations())

	repo := repository.NewPostgresImportRepository(database.Pool)
	svc := service.NewImportService(repo, nil).WithBatchSize(1)

	household := uuid.New()
	opts := service.FileImportOptions{
		ImportOptions: service.ImportOptions{
			Target:         repository.AccountTarget(uuid.New()),
			SkipDuplicates: true,
		},
		SkipCategorization: true,
	}
	data := readFixture(t, "extrato_conta.csv")

	first, err := svc.ImportFile(context.Background(), household, data, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Import.Imported)
	assert.Equal(t, repository.PathRemote, first.Import.WritePath)
	assert.Equal(t, 1, first.Import.IgnoredIncome)

	second, err := svc.ImportFile(context.Background(), household, data, opts)
	require.NoError(t, err)
	assert.Zero(t, second.Import.Imported)
	assert.Equal(t, 2, second.Import.Duplicates)

	stored, err := repo.StoredTransactions(context.Background(), household)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	direct := service.NewImportService(repo, nil).WithRemoteWrite(false)
	third, err := direct.ImportFile(context.Background(), uuid.New(), data, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Import.Imported)
	assert.Equal(t, repository.PathDirect, third.Import.WritePath)
}
