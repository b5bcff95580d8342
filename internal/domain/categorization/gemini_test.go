package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"categories":[]}`, `{"categories":[]}`},
		{"fenced", "```json\n{\"categories\":[]}\n```", `{"categories":[]}`},
		{"chatter", "Here you go: {\"categories\":[]} hope it helps", `{"categories":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.raw))
		})
	}
}

func TestDecodeAIResponse(t *testing.T) {
	resp, err := decodeAIResponse("```\n{\"categories\":[{\"id\":\"0\",\"category\":\"food\",\"confidence\":0.91}]}\n```")
	require.NoError(t, err)
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, AIResult{ID: "0", Category: "food", Confidence: 0.91}, resp.Categories[0])

	_, err = decodeAIResponse("not json")
	assert.Error(t, err)
}

func TestAICategory(t *testing.T) {
	allowed := allowedCategories()

	c, ok := aiCategory(" Transport ", allowed)
	assert.True(t, ok)
	assert.Equal(t, "transport", string(c))

	_, ok = aiCategory("custom:1", allowed)
	assert.False(t, ok)

	_, ok = aiCategory("food", []string{"bills"})
	assert.False(t, ok)
}
