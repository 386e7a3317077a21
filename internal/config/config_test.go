package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.MetricsNamespace != "capper" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "capper")
	}
	if cfg.LLMMode != "auto" {
		t.Fatalf("LLMMode = %q, want %q", cfg.LLMMode, "auto")
	}
	if cfg.LLMHTTPURL != "" {
		t.Fatalf("LLMHTTPURL = %q, want empty default", cfg.LLMHTTPURL)
	}
	if cfg.LLMMaxRetries != 0 {
		t.Fatalf("LLMMaxRetries = %d, want 0", cfg.LLMMaxRetries)
	}
	if cfg.HistoryWindow != 10 {
		t.Fatalf("HistoryWindow = %d, want 10", cfg.HistoryWindow)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Fatalf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
}

func TestLoadUsesExplicitLLMHTTPURL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("LLM_HTTP_URL", "http://localhost:7777/complete")
	t.Setenv("LLM_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMHTTPURL != "http://localhost:7777/complete" {
		t.Fatalf("LLMHTTPURL = %q, want explicit value", cfg.LLMHTTPURL)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Fatalf("LLMTimeout = %v, want 5s", cfg.LLMTimeout)
	}
}

func TestLoadRejectsTinyHistoryWindow(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CHAT_HISTORY_WINDOW", "1")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject CHAT_HISTORY_WINDOW=1")
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("LLM_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject malformed LLM_TIMEOUT")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"DATABASE_URL",
		"LLM_MODE",
		"LLM_HTTP_URL",
		"LLM_API_KEY",
		"LLM_TIMEOUT",
		"LLM_MAX_RETRIES",
		"LLM_RETRY_BASE",
		"CHAT_HISTORY_WINDOW",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
