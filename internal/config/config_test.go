package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("UPSTREAM_FEED_URL", "wss://upstream.test/snapshots")
	os.Setenv("MAX_SYMBOLS", "500")
	defer os.Unsetenv("UPSTREAM_FEED_URL")
	defer os.Unsetenv("MAX_SYMBOLS")

	cfg, err := Load()
	if err != nil {
		t.Fatal("expected no error, got:", err)
	}
	if cfg.UpstreamFeedURL != "wss://upstream.test/snapshots" {
		t.Fatal("expected UPSTREAM_FEED_URL to be set")
	}
	if cfg.MaxSymbols != 500 {
		t.Fatalf("expected MAX_SYMBOLS override, got %d", cfg.MaxSymbols)
	}
	if cfg.WindowSizeSeconds != 1801 {
		t.Fatalf("expected default window size 1801, got %d", cfg.WindowSizeSeconds)
	}
	if cfg.DBDSN == "" {
		t.Fatal("expected DBDSN to have default value")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	os.Unsetenv("UPSTREAM_FEED_URL")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing UPSTREAM_FEED_URL")
	}
}

func TestIsSlackEnabled(t *testing.T) {
	config := &Config{SlackWebhook: "https://hooks.slack.com/test"}
	if !config.IsSlackEnabled() {
		t.Fatal("expected Slack to be enabled when webhook URL is set")
	}

	config = &Config{SlackWebhook: ""}
	if config.IsSlackEnabled() {
		t.Fatal("expected Slack to be disabled when webhook URL is empty")
	}
}

func TestIsOrchestratorEnabled(t *testing.T) {
	config := &Config{OrchestratorURL: "https://orchestrator.internal/invoke"}
	if !config.IsOrchestratorEnabled() {
		t.Fatal("expected orchestrator to be enabled when URL is set")
	}
	config = &Config{}
	if config.IsOrchestratorEnabled() {
		t.Fatal("expected orchestrator to be disabled when URL is empty")
	}
}
