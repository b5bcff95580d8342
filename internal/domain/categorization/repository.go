package categorization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/pkg/db"
)

// Repository is the persistence collaborator for categorization. Every call
// is scoped to a single household.
type Repository interface {
	ListRules(ctx context.Context, householdID uuid.UUID) ([]Rule, error)
	ListCacheEntries(ctx context.Context, householdID uuid.UUID) ([]CacheEntry, error)
	UpsertCacheEntries(ctx context.Context, entries []CacheEntry) error
	TouchCacheEntries(ctx context.Context, householdID uuid.UUID, fingerprints []string) error
	ListUncategorized(ctx context.Context, householdID uuid.UUID, limit int) ([]Transaction, error)
	UpdateCategories(ctx context.Context, householdID uuid.UUID, updates []Update) (int64, error)
	ListHouseholdsWithUncategorized(ctx context.Context) ([]uuid.UUID, error)
}

const (
	listRulesQuery = `
		SELECT id, household_id, pattern, match_type, category, priority, confidence
		FROM categorization_rules
		WHERE household_id = $1
		ORDER BY priority DESC, created_at ASC
	`

	listCacheQuery = `
		SELECT household_id, fingerprint, category, confidence, source, last_used_at
		FROM merchant_cache
		WHERE household_id = $1
	`

	upsertCacheQuery = `
		INSERT INTO merchant_cache (household_id, fingerprint, category, confidence, source, last_used_at)
		SELECT $1, u.fingerprint, u.category, u.confidence, u.source, $2
		FROM unnest($3::text[], $4::text[], $5::float8[], $6::text[]) AS u(fingerprint, category, confidence, source)
		ON CONFLICT (household_id, fingerprint) DO UPDATE SET
			category = EXCLUDED.category,
			confidence = EXCLUDED.confidence,
			source = EXCLUDED.source,
			last_used_at = EXCLUDED.last_used_at
	`

	touchCacheQuery = `
		UPDATE merchant_cache
		SET last_used_at = now()
		WHERE household_id = $1 AND fingerprint = ANY($2::text[])
	`

	listUncategorizedQuery = `
		SELECT id, description, category
		FROM transactions
		WHERE household_id = $1 AND category = 'other'
		ORDER BY date DESC, id
		LIMIT $2
	`

	updateCategoriesQuery = `
		UPDATE transactions AS t
		SET category = u.category, updated_at = now()
		FROM unnest($2::uuid[], $3::text[]) AS u(id, category)
		WHERE t.household_id = $1 AND t.id = u.id
	`

	listHouseholdsQuery = `
		SELECT DISTINCT household_id
		FROM transactions
		WHERE category = 'other'
	`
)

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	pool db.Pool
}

// NewPostgresRepository creates a categorization repository.
func NewPostgresRepository(pool db.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListRules fetches the household's rules, highest priority first.
func (r *PostgresRepository) ListRules(ctx context.Context, householdID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesQuery, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		var matchType, category string
		if err := rows.Scan(
			&rule.ID,
			&rule.HouseholdID,
			&rule.Pattern,
			&matchType,
			&category,
			&rule.Priority,
			&rule.Confidence,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.MatchType = MatchType(matchType)
		// rules with an empty or unknown category stay "other" and never match
		rule.Category = storedCategory(category)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListCacheEntries fetches the household's merchant cache.
func (r *PostgresRepository) ListCacheEntries(ctx context.Context, householdID uuid.UUID) ([]CacheEntry, error) {
	rows, err := r.pool.Query(ctx, listCacheQuery, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchant cache: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		var category, source string
		if err := rows.Scan(&e.HouseholdID, &e.Fingerprint, &category, &e.Confidence, &source, &e.LastUsedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		e.Category = storedCategory(category)
		e.Source = Source(source)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertCacheEntries writes entries keyed by (household, fingerprint),
// last writer wins. All entries must belong to the same household.
func (r *PostgresRepository) UpsertCacheEntries(ctx context.Context, entries []CacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	householdID := entries[0].HouseholdID

	fingerprints := make([]string, len(entries))
	categories := make([]string, len(entries))
	confidences := make([]float64, len(entries))
	sources := make([]string, len(entries))
	for i, e := range entries {
		if e.HouseholdID != householdID {
			return fmt.Errorf("cache entries span more than one household")
		}
		fingerprints[i] = e.Fingerprint
		categories[i] = e.Category.String()
		confidences[i] = e.Confidence
		sources[i] = string(e.Source)
	}

	if _, err := r.pool.Exec(ctx, upsertCacheQuery,
		householdID, time.Now().UTC(), fingerprints, categories, confidences, sources,
	); err != nil {
		return fmt.Errorf("failed to upsert merchant cache: %w", err)
	}
	return nil
}

// TouchCacheEntries refreshes last_used_at for cache hits.
func (r *PostgresRepository) TouchCacheEntries(ctx context.Context, householdID uuid.UUID, fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, touchCacheQuery, householdID, fingerprints); err != nil {
		return fmt.Errorf("failed to touch merchant cache: %w", err)
	}
	return nil
}

// ListUncategorized returns up to limit persisted transactions still in "other".
func (r *PostgresRepository) ListUncategorized(ctx context.Context, householdID uuid.UUID, limit int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, listUncategorizedQuery, householdID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var category string
		if err := rows.Scan(&tx.ID, &tx.Description, &category); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Category = storedCategory(category)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// UpdateCategories writes applied categories to persisted transactions.
func (r *PostgresRepository) UpdateCategories(ctx context.Context, householdID uuid.UUID, updates []Update) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, len(updates))
	categories := make([]string, len(updates))
	for i, u := range updates {
		ids[i] = u.TransactionID
		categories[i] = u.Resolution.Category.String()
	}

	tag, err := r.pool.Exec(ctx, updateCategoriesQuery, householdID, ids, categories)
	if err != nil {
		return 0, fmt.Errorf("failed to update categories: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListHouseholdsWithUncategorized returns households that still have "other" transactions.
func (r *PostgresRepository) ListHouseholdsWithUncategorized(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, listHouseholdsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list households: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan household id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// storedCategory reads a persisted category, falling back to "other".
func storedCategory(s string) common.Category {
	c, err := common.ParseCategory(s)
	if err != nil {
		return common.Category{}
	}
	return c
}
