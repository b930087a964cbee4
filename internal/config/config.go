package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every environment-tunable knob for the event engine, per the
// enumerated option list. Numeric fields default to the values below when the
// corresponding env var is unset or unparsable.
type Config struct {
	DBDSN            string
	UpstreamFeedURL  string
	OrchestratorURL  string
	SlackWebhook     string
	HTTPAddr         string

	MaxSymbols            int
	WindowSizeSeconds     int
	WriterFlushIntervalS  int
	WriterMaxBuffer       int
	WriterMaxBatch        int
	RetentionDays         int
	CompressionAfterDays  int
	DefaultCooldownS      int
	DedupWindowS          int
	CacheIdleTTLS         int
	WorkerCount           int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		DBDSN:           os.Getenv("EVENTENGINE_DSN"),
		UpstreamFeedURL: os.Getenv("UPSTREAM_FEED_URL"),
		OrchestratorURL: os.Getenv("ORCHESTRATOR_URL"),
		SlackWebhook:    os.Getenv("SLACK_WEBHOOK_URL"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),

		MaxSymbols:           envInt("MAX_SYMBOLS", 10000),
		WindowSizeSeconds:    envInt("WINDOW_SIZE_SECONDS", 1801),
		WriterFlushIntervalS: envInt("WRITER_FLUSH_INTERVAL_S", 5),
		WriterMaxBuffer:      envInt("WRITER_MAX_BUFFER", 50000),
		WriterMaxBatch:       envInt("WRITER_MAX_BATCH", 10000),
		RetentionDays:        envInt("RETENTION_DAYS", 60),
		CompressionAfterDays: envInt("COMPRESSION_AFTER_DAYS", 2),
		DefaultCooldownS:     envInt("DEFAULT_COOLDOWN_S", 30),
		DedupWindowS:         envInt("DEDUP_WINDOW_S", 2),
		CacheIdleTTLS:        envInt("CACHE_IDLE_TTL_S", 300),
		WorkerCount:          envInt("WORKER_COUNT", 32),
	}

	if c.DBDSN == "" {
		c.DBDSN = "root:@tcp(localhost:4000)/eventengine?charset=utf8mb4&parseTime=True&loc=Local"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":3333"
	}

	if c.UpstreamFeedURL == "" {
		return nil, errors.New("UPSTREAM_FEED_URL is required")
	}

	return c, nil
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// IsSlackEnabled returns true if Slack webhook URL is configured.
func (c *Config) IsSlackEnabled() bool {
	return c.SlackWebhook != ""
}

// IsOrchestratorEnabled returns true if a workflow orchestrator endpoint is configured.
func (c *Config) IsOrchestratorEnabled() bool {
	return c.OrchestratorURL != ""
}
