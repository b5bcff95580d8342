package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AI_ENABLED", "")
	t.Setenv("IMPORT_BATCH_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 80, cfg.AI.BatchSize)
	assert.Equal(t, 50, cfg.Import.BatchSize)
	assert.Equal(t, 5<<20, cfg.Import.MaxBytes)
	assert.True(t, cfg.Import.RemoteWrite)
	assert.Equal(t, "0 3 * * *", cfg.Worker.RecategorizeSchedule)
}

func TestLoad_APIKeyEnablesAI(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("AI_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AI.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "ai without key", env: map[string]string{"AI_ENABLED": "true", "GEMINI_API_KEY": ""}},
		{name: "zero batch size", env: map[string]string{"IMPORT_BATCH_SIZE": "0", "GEMINI_API_KEY": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "statements", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=statements sslmode=disable", c.DSN())
}
