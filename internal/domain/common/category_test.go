package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		custom  bool
		wantErr bool
	}{
		{"fixed", "food", "food", false, false},
		{"fixed uppercase", "Transport", "transport", false, false},
		{"custom", "custom:42", "custom:42", true, false},
		{"custom opaque", "custom:not-in-any-list", "custom:not-in-any-list", true, false},
		{"empty custom id", "custom:", "", false, true},
		{"unknown", "groceries", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.custom, got.IsCustom())
		})
	}
}

func TestCategoryZeroValueIsOther(t *testing.T) {
	var c Category
	assert.True(t, c.IsOther())
	assert.Equal(t, "other", c.String())

	f, ok := c.FixedValue()
	assert.True(t, ok)
	assert.Equal(t, Other, f)
}

func TestCategoryScan(t *testing.T) {
	var c Category
	require.NoError(t, c.Scan("custom:abc"))
	assert.Equal(t, "abc", c.CustomID())

	require.NoError(t, c.Scan([]byte("health")))
	assert.Equal(t, Fixed(Health), c)

	require.NoError(t, c.Scan(nil))
	assert.True(t, c.IsOther())

	assert.Error(t, c.Scan(12))
}
