package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
)

// categorizationAdapter adapts categorization.Service to import's CategorizationService interface
type categorizationAdapter struct {
	svc *categorization.Service
}

// newCategorizationAdapter creates a new adapter
func newCategorizationAdapter(svc *categorization.Service) importservice.CategorizationService {
	return &categorizationAdapter{svc: svc}
}

// CategorizeBatch implements importservice.CategorizationService
func (a *categorizationAdapter) CategorizeBatch(ctx context.Context, householdID uuid.UUID, items []importservice.CategorizationItem) (*importservice.CategorizationResult, error) {
	txs := make([]categorization.Transaction, len(items))
	for i, it := range items {
		txs[i] = categorization.Transaction{ID: it.ID, Description: it.Description, Category: it.Category}
	}

	report, err := a.svc.CategorizeBatch(ctx, householdID, txs)
	if err != nil {
		return nil, err
	}

	// Only applied results change a row; suggestions are reported, not written
	categories := make(map[uuid.UUID]common.Category, len(report.Applied))
	for id, res := range report.AppliedByID() {
		if !res.Category.IsOther() {
			categories[id] = res.Category
		}
	}

	return &importservice.CategorizationResult{
		Categories:  categories,
		Suggestions: len(report.Suggestions) + len(report.NearMisses),
		Remaining:   report.Remaining,
		Warning:     report.AIError,
	}, nil
}
