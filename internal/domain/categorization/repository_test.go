package categorization

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

func TestPostgresRepository_ListRules(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	ruleID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(listRulesQuery)).
		WithArgs(household).
		WillReturnRows(pgxmock.NewRows([]string{"id", "household_id", "pattern", "match_type", "category", "priority", "confidence"}).
			AddRow(ruleID, household, "NETFLIX", "contains", "leisure", 10, 0.9).
			AddRow(uuid.New(), household, "^posto", "regex", "custom:car", 5, 0.0))

	repo := NewPostgresRepository(mock)
	rules, err := repo.ListRules(context.Background(), household)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, ruleID, rules[0].ID)
	assert.Equal(t, MatchContains, rules[0].MatchType)
	assert.Equal(t, "leisure", rules[0].Category.String())
	assert.Equal(t, MatchRegex, rules[1].MatchType)
	assert.True(t, rules[1].Category.IsCustom())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListCacheEntries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(listCacheQuery)).
		WithArgs(household).
		WillReturnRows(pgxmock.NewRows([]string{"household_id", "fingerprint", "category", "confidence", "source", "last_used_at"}).
			AddRow(household, "uber trip", "transport", 0.95, "rule", now))

	repo := NewPostgresRepository(mock)
	entries, err := repo.ListCacheEntries(context.Background(), household)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SourceRule, entries[0].Source)
	assert.Equal(t, "transport", entries[0].Category.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpsertCacheEntries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(upsertCacheQuery)).
		WithArgs(household, pgxmock.AnyArg(),
			[]string{"uber trip", "netflix com"},
			[]string{"transport", "custom:tv"},
			[]float64{0.95, 0.9},
			[]string{"rule", "manual"},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	repo := NewPostgresRepository(mock)
	err = repo.UpsertCacheEntries(context.Background(), []CacheEntry{
		{HouseholdID: household, Fingerprint: "uber trip", Category: common.Fixed(common.Transport), Confidence: 0.95, Source: SourceRule},
		{HouseholdID: household, Fingerprint: "netflix com", Category: common.Custom("tv"), Confidence: 0.9, Source: SourceManual},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, repo.UpsertCacheEntries(context.Background(), nil))
}

func TestPostgresRepository_UpsertCacheEntries_SingleHousehold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	err = repo.UpsertCacheEntries(context.Background(), []CacheEntry{
		{HouseholdID: uuid.New(), Fingerprint: "a"},
		{HouseholdID: uuid.New(), Fingerprint: "b"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_UpdateCategories(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	txID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(updateCategoriesQuery)).
		WithArgs(household, []uuid.UUID{txID}, []string{"food"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresRepository(mock)
	n, err := repo.UpdateCategories(context.Background(), household, []Update{
		{TransactionID: txID, Resolution: Resolution{Category: common.Fixed(common.Food)}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListUncategorized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	household := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(listUncategorizedQuery)).
		WithArgs(household, 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "description", "category"}).
			AddRow(uuid.New(), "UBER TRIP", "other"))

	repo := NewPostgresRepository(mock)
	txs, err := repo.ListUncategorized(context.Background(), household, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Category.IsOther())
	assert.NoError(t, mock.ExpectationsWereMet())
}
