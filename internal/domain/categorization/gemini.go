package categorization

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

const geminiPrompt = "You categorize bank and credit card transaction descriptions for a household budget.\n\n" +
	"Task:\n" +
	"- Assign each description exactly one category from \"allowedCategories\".\n" +
	"- Give a confidence between 0 and 1. Use values below 0.85 when unsure.\n" +
	"- Never invent categories. Use \"other\" when nothing fits.\n\n" +
	"Output STRICT JSON only, shaped as:\n" +
	"{\"categories\": [{\"id\": string, \"category\": string, \"confidence\": number}]}\n" +
	"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n\n" +
	"Input:\n"

// GeminiClassifier classifies descriptions with a Gemini model.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a Gemini client for the given API key.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

// Classify sends one batch to the model and decodes its JSON answer.
func (g *GeminiClassifier) Classify(ctx context.Context, req AIRequest) (*AIResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode AI request: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: geminiPrompt + string(payload)}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	return decodeAIResponse(raw)
}

func decodeAIResponse(raw string) (*AIResponse, error) {
	var out AIResponse
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("failed to decode AI response: %w", err)
	}
	return &out, nil
}

// cleanModelJSON strips Markdown fences and any text around the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start != -1 && end > start {
		s = s[start : end+1]
	}
	return s
}
