package categorization

import (
	"context"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/common"
)

// DefaultAIBatchSize is the number of descriptions sent per AI request.
const DefaultAIBatchSize = 80

// AIItem is one description submitted to the AI classifier.
type AIItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// AIRequest asks the classifier to label descriptions with one of the allowed categories.
type AIRequest struct {
	Descriptions      []AIItem `json:"descriptions"`
	AllowedCategories []string `json:"allowedCategories"`
}

// AIResult is the classifier's answer for one item.
type AIResult struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// AIResponse is the classifier's answer for a batch.
type AIResponse struct {
	Categories []AIResult `json:"categories"`
}

// Classifier is the remote AI classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, req AIRequest) (*AIResponse, error)
}

// allowedCategories is the closed vocabulary offered to the AI classifier.
func allowedCategories() []string {
	out := make([]string, len(common.FixedCategories))
	for i, c := range common.FixedCategories {
		out[i] = string(c)
	}
	return out
}

// aiCategory validates a category returned by the AI against the allowed set.
// Custom categories are never accepted from the AI.
func aiCategory(raw string, allowed []string) (common.FixedCategory, bool) {
	c := common.FixedCategory(strings.ToLower(strings.TrimSpace(raw)))
	for _, a := range allowed {
		if string(c) == a {
			return c, c.Valid()
		}
	}
	return "", false
}
