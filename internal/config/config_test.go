package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	sum := cfg.Heatmap.Weights.Plot + cfg.Heatmap.Weights.Pacing +
		cfg.Heatmap.Weights.Character + cfg.Heatmap.Weights.Setting +
		cfg.Heatmap.Weights.Style
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("default risk weights sum to %v, want 1", sum)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Heatmap.Weights.Plot = 0.9 // pushes the sum past 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected weight-sum validation to fail")
	}
}

func TestValidateFillsMissingSections(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should fall back to defaults: %v", err)
	}
	if cfg.Limits.DebounceDelay != 100*time.Millisecond {
		t.Errorf("debounce delay = %v, want default 100ms", cfg.Limits.DebounceDelay)
	}
	if cfg.HUD.TopEntities != 5 {
		t.Errorf("top entities = %d, want default 5", cfg.HUD.TopEntities)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("MANUSCRIPT_DEBOUNCE_DELAY", "250ms")
	t.Setenv("MANUSCRIPT_READING_WPM", "300")
	t.Setenv("MANUSCRIPT_EXTRA_FILTER_WORDS", "noticed,observed")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Limits.DebounceDelay != 250*time.Millisecond {
		t.Errorf("debounce delay = %v, want env override 250ms", cfg.Limits.DebounceDelay)
	}
	if cfg.Limits.ReadingWordsPerMinute != 300 {
		t.Errorf("reading wpm = %d, want 300", cfg.Limits.ReadingWordsPerMinute)
	}
	if len(cfg.Lexicon.ExtraFilterWords) != 2 || cfg.Lexicon.ExtraFilterWords[0] != "noticed" {
		t.Errorf("extra filter words = %v, want [noticed observed]", cfg.Lexicon.ExtraFilterWords)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("hud:\n  top_entities: 3\n  top_relationships: 3\n  top_promises: 3\n  max_issues: 4\n  max_recent_changes: 2\n  max_style_alerts: 2\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MANUSCRIPT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HUD.TopEntities != 3 {
		t.Errorf("top entities = %d, want 3 from file", cfg.HUD.TopEntities)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Limits.BackgroundCap != 5*time.Second {
		t.Errorf("background cap = %v, want default 5s", cfg.Limits.BackgroundCap)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	t.Setenv("MANUSCRIPT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}
