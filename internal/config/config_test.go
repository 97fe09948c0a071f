package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":8081", cfg.QueryHTTPAddr)
	assert.Equal(t, []string{"localhost:19092"}, cfg.KafkaBrokers)
	assert.Equal(t, "waste.analyzed", cfg.KafkaTopicAnalyzed)
	assert.Equal(t, 30*time.Minute, cfg.AlertCooldown)
	assert.Equal(t, 7*24*time.Hour, cfg.HistoryWindow)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 500, cfg.OpenAI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 1e-6)
	assert.Equal(t, 10*time.Second, cfg.OpenAI.Timeout)
	assert.False(t, cfg.AllowTenantHeader)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("ALERT_COOLDOWN_MINUTES", "5")
	t.Setenv("HISTORY_WINDOW_DAYS", "2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NARRATIVE_TIMEOUT_SECONDS", "3")
	t.Setenv("ALLOW_TENANT_HEADER", "true")
	t.Setenv("RISK_TABLES_PATH", " /etc/cwi/tables.yaml ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Minute, cfg.AlertCooldown)
	assert.Equal(t, 48*time.Hour, cfg.HistoryWindow)
	assert.True(t, cfg.OpenAI.Enabled())
	assert.Equal(t, 3*time.Second, cfg.OpenAI.Timeout)
	assert.True(t, cfg.AllowTenantHeader)
	assert.Equal(t, "/etc/cwi/tables.yaml", cfg.RiskTablesPath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HISTORY_WINDOW_DAYS", "0")
	_, err := Load()
	assert.Error(t, err)
}
