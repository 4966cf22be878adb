package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultReportFeedURL is the met.no METAR text endpoint.
const DefaultReportFeedURL = "https://api.met.no/weatherapi/tafmetar/1.0/metar.txt"

const minRefreshInterval = time.Minute

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Reference data file; empty selects the built-in airport list.
	ReferenceFile string

	// Report feed configuration.
	ReportFeedURL         string
	ReportFeedTimeout     time.Duration
	ReportRefreshInterval time.Duration
	ReportUserAgent       string

	TableCacheSize int

	// Kafka publishing of airport views.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parsePositiveDuration("REPORT_FEED_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REPORT_REFRESH_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	if refreshInterval < minRefreshInterval {
		return nil, fmt.Errorf("REPORT_REFRESH_INTERVAL must be at least %s", minRefreshInterval)
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ReferenceFile: os.Getenv("REFERENCE_FILE"),

		ReportFeedURL:         sharedcfg.EnvOrDefault("REPORT_FEED_URL", DefaultReportFeedURL),
		ReportFeedTimeout:     feedTimeout,
		ReportRefreshInterval: refreshInterval,
		ReportUserAgent:       sharedcfg.EnvOrDefault("REPORT_USER_AGENT", "cold-temp-correction/1.0 github.com/couchcryptid/cold-temp-correction"),

		TableCacheSize: cacheSize,

		KafkaEnabled: kafkaEnabled,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "ctc-airport-views"),
	}
	if brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.ReportFeedURL == "" {
		return nil, errors.New("REPORT_FEED_URL is required")
	}
	if cfg.ReportUserAgent == "" {
		return nil, errors.New("REPORT_USER_AGENT is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() (int, error) {
	s := os.Getenv("TABLE_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid TABLE_CACHE_SIZE")
	}
	return n, nil
}
