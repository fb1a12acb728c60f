package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.APIPort)
	}
	if cfg.TextChannelWeight != 0.6 || cfg.KeywordChannelWeight != 0.4 {
		t.Fatalf("unexpected channel weights: %f/%f", cfg.TextChannelWeight, cfg.KeywordChannelWeight)
	}
	if cfg.FAQDirectAnswerThreshold != 0.4 {
		t.Fatalf("unexpected direct threshold: %f", cfg.FAQDirectAnswerThreshold)
	}
	if cfg.NATSSubject != "faq.reindex" {
		t.Fatalf("unexpected subject: %s", cfg.NATSSubject)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api_port: \"9999\"\nfaq_direct_answer_threshold: 0.7\nsearch_backend: bleve\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Fatalf("yaml overlay not applied: %s", cfg.APIPort)
	}
	if cfg.FAQDirectAnswerThreshold != 0.7 {
		t.Fatalf("yaml overlay not applied: %f", cfg.FAQDirectAnswerThreshold)
	}
	if cfg.SearchBackend != "bleve" {
		t.Fatalf("yaml overlay not applied: %s", cfg.SearchBackend)
	}
	// Untouched keys keep their defaults.
	if cfg.ChannelResultLimit != 5 {
		t.Fatalf("default lost after overlay: %d", cfg.ChannelResultLimit)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_port: \"9999\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7777")
	t.Setenv("LLM_TEMPERATURE", "0.9")
	t.Setenv("LLM_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7777" {
		t.Fatalf("env override lost: %s", cfg.APIPort)
	}
	if cfg.LLMTemperature != 0.9 {
		t.Fatalf("float env override lost: %f", cfg.LLMTemperature)
	}
	if cfg.LLMEnabled {
		t.Fatalf("bool env override lost")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", "/nonexistent/config.yaml")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
