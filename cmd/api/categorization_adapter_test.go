package api

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
)

// emptyRepository is a categorization store with no rules and no cache.
type emptyRepository struct {
	upserted []categorization.CacheEntry
}

func (r *emptyRepository) ListRules(context.Context, uuid.UUID) ([]categorization.Rule, error) {
	return nil, nil
}

func (r *emptyRepository) ListCacheEntries(context.Context, uuid.UUID) ([]categorization.CacheEntry, error) {
	return nil, nil
}

func (r *emptyRepository) UpsertCacheEntries(_ context.Context, entries []categorization.CacheEntry) error {
	r.upserted = append(r.upserted, entries...)
	return nil
}

func (r *emptyRepository) TouchCacheEntries(context.Context, uuid.UUID, []string) error {
	return nil
}

func (r *emptyRepository) ListUncategorized(context.Context, uuid.UUID, int) ([]categorization.Transaction, error) {
	return nil, nil
}

func (r *emptyRepository) UpdateCategories(context.Context, uuid.UUID, []categorization.Update) (int64, error) {
	return 0, nil
}

func (r *emptyRepository) ListHouseholdsWithUncategorized(context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

func TestCategorizationAdapter_MapsAppliedCategories(t *testing.T) {
	repo := &emptyRepository{}
	adapter := newCategorizationAdapter(categorization.NewService(repo, nil))

	uber := uuid.New()
	unknown := uuid.New()
	other := common.Fixed(common.Other)

	res, err := adapter.CategorizeBatch(context.Background(), uuid.New(), []importservice.CategorizationItem{
		{ID: uber, Description: "UBER *TRIP 1234", Category: other},
		{ID: unknown, Description: "ZQX Comercio", Category: other},
	})
	require.NoError(t, err)

	assert.Equal(t, common.Fixed(common.Transport), res.Categories[uber])
	assert.NotContains(t, res.Categories, unknown)
	assert.Equal(t, 1, res.Remaining)
	assert.Empty(t, res.Warning)
	assert.NotEmpty(t, repo.upserted)
}
