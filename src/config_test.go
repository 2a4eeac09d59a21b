package src

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, 3, config.RetryLimit)
	assert.Equal(t, 6, config.HistoryTurns)
	assert.Equal(t, 512, config.HistoryTokens)
	assert.Equal(t, "memory", config.Backend)
	assert.Equal(t, 60*time.Minute, config.SessionTTL)
	assert.Equal(t, time.Duration(0), config.Timeout)
}

func TestLoadConfigPrefixedAndBareNames(t *testing.T) {
	t.Setenv("ANALYST_RETRY_LIMIT", "5")
	t.Setenv("EXEC_TIMEOUT", "30s")
	t.Setenv("ANALYST_LLM_PROVIDER", "ollama")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, config.RetryLimit)
	assert.Equal(t, 30*time.Second, config.Timeout)
	assert.Equal(t, "ollama", config.Provider)
}

func TestLoadConfigRejectsNegativeRetryLimit(t *testing.T) {
	t.Setenv("ANALYST_RETRY_LIMIT", "-1")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "retry limit must not be negative")
}

func TestLoadConfigInvalidValue(t *testing.T) {
	t.Setenv("ANALYST_HISTORY_TURNS", "many")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "error processing environment configuration")
}
