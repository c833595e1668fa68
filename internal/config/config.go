package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration. Everything has a working
// default; a YAML file and MANUSCRIPT_* environment variables both
// override it, env winning over file.
type Config struct {
	Limits  Limits        `yaml:"limits" validate:"required"`
	Lexicon LexiconConfig `yaml:"lexicon"`
	Heatmap HeatmapConfig `yaml:"heatmap" validate:"required"`
	HUD     HUDConfig     `yaml:"hud" validate:"required"`
}

// LexiconConfig extends the built-in word lists. Entries add to the
// compiled-in sets, they never replace them.
type LexiconConfig struct {
	ExtraFilterWords  []string `yaml:"extra_filter_words" env:"MANUSCRIPT_EXTRA_FILTER_WORDS" envSeparator:","`
	ExtraCliches      []string `yaml:"extra_cliches" env:"MANUSCRIPT_EXTRA_CLICHES" envSeparator:","`
	ExtraStopwords    []string `yaml:"extra_stopwords" env:"MANUSCRIPT_EXTRA_STOPWORDS" envSeparator:","`
	SceneBreakMarkers []string `yaml:"scene_break_markers"`
}

// RiskWeights blends the five per-section risk dimensions into the
// overall score. The weights must sum to 1.
type RiskWeights struct {
	Plot      float64 `yaml:"plot" validate:"min=0,max=1"`
	Pacing    float64 `yaml:"pacing" validate:"min=0,max=1"`
	Character float64 `yaml:"character" validate:"min=0,max=1"`
	Setting   float64 `yaml:"setting" validate:"min=0,max=1"`
	Style     float64 `yaml:"style" validate:"min=0,max=1"`
}

// HeatmapConfig tunes attention scoring.
type HeatmapConfig struct {
	Weights          RiskWeights `yaml:"weights" validate:"required,riskweights"`
	HotspotThreshold float64     `yaml:"hotspot_threshold" env:"MANUSCRIPT_HOTSPOT_THRESHOLD" validate:"min=0,max=1"`
	StaleAfterPasses int         `yaml:"stale_after_passes" validate:"required,min=2,max=100"`
}

// HUDConfig caps every list in the digest. Raising a cap raises HUD size
// linearly, so these stay small.
type HUDConfig struct {
	TopEntities      int `yaml:"top_entities" validate:"required,min=1,max=20"`
	TopRelationships int `yaml:"top_relationships" validate:"required,min=1,max=20"`
	TopPromises      int `yaml:"top_promises" validate:"required,min=1,max=20"`
	MaxIssues        int `yaml:"max_issues" validate:"required,min=1,max=50"`
	MaxRecentChanges int `yaml:"max_recent_changes" validate:"required,min=1,max=20"`
	MaxStyleAlerts   int `yaml:"max_style_alerts" validate:"required,min=1,max=20"`
}

// Default returns the configuration the engine runs with when nothing
// overrides it.
func Default() *Config {
	return &Config{
		Limits: DefaultLimits(),
		Heatmap: HeatmapConfig{
			Weights: RiskWeights{
				Plot:      0.30,
				Pacing:    0.20,
				Character: 0.25,
				Setting:   0.10,
				Style:     0.15,
			},
			HotspotThreshold: 0.70,
			StaleAfterPasses: 5,
		},
		HUD: HUDConfig{
			TopEntities:      5,
			TopRelationships: 5,
			TopPromises:      5,
			MaxIssues:        10,
			MaxRecentChanges: 5,
			MaxStyleAlerts:   3,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// named by MANUSCRIPT_CONFIG (if any), then environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("MANUSCRIPT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the weight-sum rule. A partial YAML file can
// zero out a section, so missing sub-configs fall back to defaults first.
func (c *Config) Validate() error {
	def := Default()
	if c.Limits.DebounceDelay == 0 {
		c.Limits = def.Limits
	}
	if c.Heatmap.StaleAfterPasses == 0 {
		c.Heatmap = def.Heatmap
	}
	if c.HUD.TopEntities == 0 {
		c.HUD = def.HUD
	}

	validate := validator.New()
	validate.RegisterValidation("riskweights", func(fl validator.FieldLevel) bool {
		w, ok := fl.Field().Interface().(RiskWeights)
		if !ok {
			return false
		}
		sum := w.Plot + w.Pacing + w.Character + w.Setting + w.Style
		return sum > 0.999 && sum < 1.001
	})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
