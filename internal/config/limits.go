package config

import "time"

// Limits bounds the engine's timing, concurrency and per-artifact list
// sizes. Every list the analyzers emit is capped here so snapshot size
// stays bounded no matter how long the chapter grows.
type Limits struct {
	DebounceDelay         time.Duration   `yaml:"debounce_delay" env:"MANUSCRIPT_DEBOUNCE_DELAY" validate:"required,min=10ms,max=5s"`
	BackgroundDelay       time.Duration   `yaml:"background_delay" env:"MANUSCRIPT_BACKGROUND_DELAY" validate:"required,min=100ms,max=30s"`
	BackgroundCap         time.Duration   `yaml:"background_cap" env:"MANUSCRIPT_BACKGROUND_CAP" validate:"required,min=1s,max=60s"`
	MaxConcurrentChapters int             `yaml:"max_concurrent_chapters" env:"MANUSCRIPT_MAX_CONCURRENT_CHAPTERS" validate:"required,min=1,max=64"`
	RateLimit             RateLimitConfig `yaml:"rate_limit" validate:"required"`

	MaxMentionsPerEntity int `yaml:"max_mentions_per_entity" validate:"required,min=10,max=10000"`
	MaxInstancesPerFlag  int `yaml:"max_instances_per_flag" validate:"required,min=5,max=1000"`
	MaxRepeatedPhrases   int `yaml:"max_repeated_phrases" validate:"required,min=1,max=200"`
	MaxTemporalMarkers   int `yaml:"max_temporal_markers" validate:"required,min=10,max=1000"`
	MaxCausalChains      int `yaml:"max_causal_chains" validate:"required,min=5,max=500"`
	MaxPromises          int `yaml:"max_promises" validate:"required,min=5,max=500"`

	ReadingWordsPerMinute int `yaml:"reading_words_per_minute" env:"MANUSCRIPT_READING_WPM" validate:"required,min=100,max=600"`
}

// RateLimitConfig throttles background-tier passes so a burst of edits
// cannot pile up full re-analyses.
type RateLimitConfig struct {
	PassesPerMinute int `yaml:"passes_per_minute" validate:"required,min=1,max=1000"`
	BurstSize       int `yaml:"burst_size" validate:"required,min=1,max=100"`
}

// DefaultLimits returns the tuning the engine ships with. The tier delays
// match the editor contract: instant work runs synchronously, debounced
// work waits out the typing pause, background work runs after a longer
// quiet period and is hard-capped regardless of chapter size.
func DefaultLimits() Limits {
	return Limits{
		DebounceDelay:         100 * time.Millisecond,
		BackgroundDelay:       2 * time.Second,
		BackgroundCap:         5 * time.Second,
		MaxConcurrentChapters: 8,
		RateLimit: RateLimitConfig{
			PassesPerMinute: 60,
			BurstSize:       10,
		},
		MaxMentionsPerEntity:  200,
		MaxInstancesPerFlag:   50,
		MaxRepeatedPhrases:    20,
		MaxTemporalMarkers:    200,
		MaxCausalChains:       100,
		MaxPromises:           100,
		ReadingWordsPerMinute: 225,
	}
}
