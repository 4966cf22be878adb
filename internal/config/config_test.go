package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.ReferenceFile)
	assert.Equal(t, DefaultReportFeedURL, cfg.ReportFeedURL)
	assert.Equal(t, 5*time.Second, cfg.ReportFeedTimeout)
	assert.Equal(t, 10*time.Minute, cfg.ReportRefreshInterval)
	assert.Contains(t, cfg.ReportUserAgent, "cold-temp-correction")
	assert.Equal(t, 256, cfg.TableCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "ctc-airport-views", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REFERENCE_FILE", "/etc/ctc/airports.yaml")
	t.Setenv("REPORT_FEED_URL", "http://feed.local/metar.txt")
	t.Setenv("REPORT_FEED_TIMEOUT", "2s")
	t.Setenv("REPORT_REFRESH_INTERVAL", "30m")
	t.Setenv("REPORT_USER_AGENT", "test-agent/0.1")
	t.Setenv("TABLE_CACHE_SIZE", "64")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-views")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/etc/ctc/airports.yaml", cfg.ReferenceFile)
	assert.Equal(t, "http://feed.local/metar.txt", cfg.ReportFeedURL)
	assert.Equal(t, 2*time.Second, cfg.ReportFeedTimeout)
	assert.Equal(t, 30*time.Minute, cfg.ReportRefreshInterval)
	assert.Equal(t, "test-agent/0.1", cfg.ReportUserAgent)
	assert.Equal(t, 64, cfg.TableCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-views", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidReportFeedTimeout(t *testing.T) {
	t.Setenv("REPORT_FEED_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_FEED_TIMEOUT")
}

func TestLoad_NegativeReportFeedTimeout(t *testing.T) {
	t.Setenv("REPORT_FEED_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_FEED_TIMEOUT")
}

func TestLoad_RefreshIntervalTooShort(t *testing.T) {
	t.Setenv("REPORT_REFRESH_INTERVAL", "10s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_REFRESH_INTERVAL")
}

func TestLoad_InvalidTableCacheSize(t *testing.T) {
	for _, v := range []string{"0", "-3", "many"} {
		t.Setenv("TABLE_CACHE_SIZE", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "TABLE_CACHE_SIZE")
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092"}, cfg.KafkaBrokers)
}
