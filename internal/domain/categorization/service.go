package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/pkg/observability"
)

// DefaultSweepLimit bounds how many transactions one re-categorization pass loads.
const DefaultSweepLimit = 500

// ruleCacheTTL bounds how long a household's rules are reused before reloading.
const ruleCacheTTL = time.Minute

type cachedRules struct {
	rules    []Rule
	loadedAt time.Time
}

// Service runs the categorization layers for a household.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	classifier Classifier
	limiter    *rate.Limiter
	batchSize  int
	heuristics *Heuristics

	// rules change rarely and are cached per household for ruleCacheTTL
	ruleCache map[uuid.UUID]cachedRules
	cacheMu   sync.RWMutex
	now       func() time.Time
}

// NewService creates a categorization service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		batchSize:  DefaultAIBatchSize,
		heuristics: NewHeuristics(),
		ruleCache:  make(map[uuid.UUID]cachedRules),
		now:        time.Now,
	}
}

// WithClassifier enables the AI fallback layer.
func (s *Service) WithClassifier(c Classifier) *Service {
	s.classifier = c
	return s
}

// WithAIBatchSize sets how many descriptions are sent per AI request.
func (s *Service) WithAIBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// WithRequestsPerMinute paces AI requests. Zero disables pacing.
func (s *Service) WithRequestsPerMinute(rpm int) *Service {
	if rpm > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	} else {
		s.limiter = nil
	}
	return s
}

// WithHeuristics replaces the built-in heuristic table.
func (s *Service) WithHeuristics(h *Heuristics) *Service {
	s.heuristics = h
	return s
}

// pending is an uncategorized transaction not resolved locally.
type pending struct {
	tx Transaction
	fp string
}

// CategorizeBatch resolves categories for txs. Transactions that already
// carry a category other than "other" are left untouched. Cache, rules and
// heuristics run for every row before any AI request is made.
func (s *Service) CategorizeBatch(ctx context.Context, householdID uuid.UUID, txs []Transaction) (*Report, error) {
	ctx, span := observability.StartSpan(ctx, "categorization.CategorizeBatch")
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()
	defer observability.ObserveStage("categorize", time.Now())

	report := &Report{}
	if len(txs) == 0 {
		return report, nil
	}

	engine, err := s.engineFor(ctx, householdID)
	if err != nil {
		spanErr = err
		return nil, err
	}

	var unresolved []pending
	var backfill []CacheEntry
	var touched []string
	seen := make(map[string]bool)

	for _, tx := range txs {
		if !tx.Category.IsOther() {
			report.Untouched++
			continue
		}
		res, ok := engine.Resolve(tx.Description)
		if !ok {
			unresolved = append(unresolved, pending{tx: tx, fp: normalizer.Fingerprint(tx.Description)})
			continue
		}
		s.record(report, tx, res)
		if !res.AutoApply() || res.Fingerprint == "" || seen[res.Fingerprint] {
			continue
		}
		seen[res.Fingerprint] = true
		if res.Source == SourceCache {
			touched = append(touched, res.Fingerprint)
		} else if !engine.Cached(res.Fingerprint) {
			backfill = append(backfill, CacheEntry{
				HouseholdID: householdID,
				Fingerprint: res.Fingerprint,
				Category:    res.Category,
				Confidence:  res.Confidence,
				Source:      SourceRule,
			})
		}
	}

	unresolved = s.runAI(ctx, report, unresolved, func(res Resolution) {
		if seen[res.Fingerprint] || res.Fingerprint == "" || engine.Cached(res.Fingerprint) {
			return
		}
		seen[res.Fingerprint] = true
		backfill = append(backfill, CacheEntry{
			HouseholdID: householdID,
			Fingerprint: res.Fingerprint,
			Category:    res.Category,
			Confidence:  res.Confidence,
			Source:      SourceAI,
		})
	})

	for _, p := range unresolved {
		if res, ok := engine.NearMiss(p.tx.Description); ok {
			report.NearMisses = append(report.NearMisses, Update{TransactionID: p.tx.ID, Description: p.tx.Description, Resolution: res})
		}
	}

	report.Remaining = len(txs) - report.Untouched - len(report.Applied)

	if err := s.repo.UpsertCacheEntries(ctx, backfill); err != nil {
		s.logger.Warn("failed to back-fill merchant cache", "household_id", householdID, "error", err)
	}
	if err := s.repo.TouchCacheEntries(ctx, householdID, touched); err != nil {
		s.logger.Warn("failed to refresh merchant cache", "household_id", householdID, "error", err)
	}

	s.logger.Info("categorization completed",
		"household_id", householdID,
		"submitted", len(txs),
		slog.Int("applied", len(report.Applied)),
		slog.Int("suggestions", len(report.Suggestions)),
		slog.Int("remaining", report.Remaining),
	)
	return report, nil
}

// record files a local resolution as applied or suggested.
func (s *Service) record(report *Report, tx Transaction, res Resolution) {
	u := Update{TransactionID: tx.ID, Description: tx.Description, Resolution: res}
	if res.AutoApply() {
		report.Applied = append(report.Applied, u)
		observability.CategorizationsTotal.WithLabelValues(string(res.Source), "applied").Inc()
		return
	}
	report.Suggestions = append(report.Suggestions, u)
	observability.CategorizationsTotal.WithLabelValues(string(res.Source), "suggested").Inc()
}

// runAI sends unresolved rows to the classifier in batches and returns the
// rows it could not resolve. Failures collapse into report.AIError.
func (s *Service) runAI(ctx context.Context, report *Report, rows []pending, onApplied func(Resolution)) []pending {
	if s.classifier == nil || len(rows) == 0 {
		return rows
	}

	allowed := allowedCategories()
	var left []pending
	failures := 0

	for start := 0; start < len(rows); start += s.batchSize {
		batch := rows[start:min(start+s.batchSize, len(rows))]

		results, err := s.classifyBatch(ctx, batch, allowed)
		if err != nil {
			failures++
			if report.AIError == "" {
				report.AIError = fmt.Sprintf("AI categorization unavailable: %v", err)
			}
			observability.AIRequestsTotal.WithLabelValues("error").Inc()
			left = append(left, batch...)
			continue
		}
		observability.AIRequestsTotal.WithLabelValues("ok").Inc()

		for i, p := range batch {
			r, ok := results[strconv.Itoa(i)]
			if !ok {
				left = append(left, p)
				continue
			}
			cat, valid := aiCategory(r.Category, allowed)
			if !valid || cat == common.Other {
				left = append(left, p)
				continue
			}
			res := Resolution{
				Category:    common.Fixed(cat),
				Confidence:  min(max(r.Confidence, 0), 1),
				Source:      SourceAI,
				Fingerprint: p.fp,
			}
			s.record(report, p.tx, res)
			if res.AutoApply() {
				onApplied(res)
			}
		}
	}

	if failures > 0 {
		s.logger.Warn("AI categorization degraded",
			"failed_batches", failures,
			"error", report.AIError,
		)
	}
	return left
}

func (s *Service) classifyBatch(ctx context.Context, batch []pending, allowed []string) (map[string]AIResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := AIRequest{AllowedCategories: allowed, Descriptions: make([]AIItem, len(batch))}
	for i, p := range batch {
		req.Descriptions[i] = AIItem{ID: strconv.Itoa(i), Description: p.tx.Description}
	}

	resp, err := s.classifier.Classify(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make(map[string]AIResult, len(resp.Categories))
	for _, r := range resp.Categories {
		out[r.ID] = r
	}
	return out, nil
}

// Recategorize runs the engine over a household's persisted "other"
// transactions and writes every auto-applied category back.
func (s *Service) Recategorize(ctx context.Context, householdID uuid.UUID, limit int) (*Report, error) {
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	s.InvalidateRules(householdID)
	txs, err := s.repo.ListUncategorized(ctx, householdID, limit)
	if err != nil {
		return nil, err
	}

	report, err := s.CategorizeBatch(ctx, householdID, txs)
	if err != nil {
		return nil, err
	}

	var updates []Update
	for _, u := range report.Applied {
		if !u.Resolution.Category.IsOther() {
			updates = append(updates, u)
		}
	}
	updated, err := s.repo.UpdateCategories(ctx, householdID, updates)
	if err != nil {
		return report, err
	}
	s.logger.Info("re-categorization applied", "household_id", householdID, "updated", updated)
	return report, nil
}

// Sweep re-categorizes every household that still has "other" transactions.
// A failing household is logged and skipped.
func (s *Service) Sweep(ctx context.Context, limit int) error {
	households, err := s.repo.ListHouseholdsWithUncategorized(ctx)
	if err != nil {
		return err
	}
	for _, id := range households {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Recategorize(ctx, id, limit); err != nil {
			s.logger.Error("re-categorization failed", "household_id", id, "error", err)
		}
	}
	return nil
}

// RecordManualCategory learns a user's manual assignment for the merchant
// behind description, overwriting any cached category.
func (s *Service) RecordManualCategory(ctx context.Context, householdID uuid.UUID, description string, category common.Category) error {
	fp := normalizer.Fingerprint(description)
	if fp == "" {
		return fmt.Errorf("%w: description has no merchant fingerprint", common.ErrBadRequest)
	}
	return s.repo.UpsertCacheEntries(ctx, []CacheEntry{{
		HouseholdID: householdID,
		Fingerprint: fp,
		Category:    category,
		Confidence:  1,
		Source:      SourceManual,
	}})
}

// InvalidateRules drops the cached rules for a household.
func (s *Service) InvalidateRules(householdID uuid.UUID) {
	s.cacheMu.Lock()
	delete(s.ruleCache, householdID)
	s.cacheMu.Unlock()
}

func (s *Service) engineFor(ctx context.Context, householdID uuid.UUID) (*Engine, error) {
	rules, err := s.getRules(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	cache, err := s.repo.ListCacheEntries(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant cache: %w", err)
	}

	engine := NewEngine(rules, cache).WithHeuristics(s.heuristics)
	if n := engine.InvalidRules(); n > 0 {
		s.logger.Warn("skipping invalid categorization rules", "household_id", householdID, "count", n)
	}
	return engine, nil
}

// getRules fetches rules with caching
func (s *Service) getRules(ctx context.Context, householdID uuid.UUID) ([]Rule, error) {
	s.cacheMu.RLock()
	cached, ok := s.ruleCache[householdID]
	s.cacheMu.RUnlock()
	if ok && s.now().Sub(cached.loadedAt) < ruleCacheTTL {
		return cached.rules, nil
	}

	rules, err := s.repo.ListRules(ctx, householdID)
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.ruleCache[householdID] = cachedRules{rules: rules, loadedAt: s.now()}
	s.cacheMu.Unlock()
	return rules, nil
}
