// Package intel exposes the manuscript analysis engine: a deterministic
// text-intelligence pipeline behind an editor-friendly scheduling API.
//
// An Engine tracks any number of chapters. Edit feeds it the current
// text on every keystroke and returns an instant digest; deeper analysis
// lands after the debounce and background delays and is observable
// through Subscribe. Analyze runs one full pass synchronously when the
// caller wants everything now. All returned artifacts are value copies:
// the caller can hold them forever without observing later passes.
package intel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/core"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Clock abstracts time for the scheduler's tier delays. Production code
// uses the system clock; tests inject their own.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Engine is the public entry point. Create one per open project and
// Close it when the project closes.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	clock     Clock
	lore      manuscript.Lore
	loreSet   bool
	fromEnv   bool
	events    *core.Events
	scheduler *core.Scheduler
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger injects a structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock injects a clock for the tier delays.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLore installs the project bible used as a risk-scoring
// cross-reference. The engine never mutates it.
func WithLore(lore manuscript.Lore) Option {
	return func(e *Engine) {
		e.lore = lore
		e.loreSet = true
	}
}

// WithEnvironment loads configuration from the MANUSCRIPT_CONFIG file,
// .env, and MANUSCRIPT_* environment variables instead of the built-in
// defaults.
func WithEnvironment() Option {
	return func(e *Engine) {
		e.fromEnv = true
	}
}

// New builds an engine. Without WithEnvironment it runs on built-in
// defaults and cannot fail.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	if e.fromEnv {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("engine configuration: %w", err)
		}
		e.cfg = cfg
	} else {
		e.cfg = config.Default()
	}

	e.events = core.NewEvents(e.logger)
	schedOpts := []core.SchedulerOption{
		core.WithLogger(e.logger),
		core.WithEvents(e.events),
	}
	if e.clock != nil {
		schedOpts = append(schedOpts, core.WithClock(e.clock))
	}
	e.scheduler = core.NewScheduler(
		core.NewPipeline(e.cfg, e.logger),
		core.NewSnapshotStore(),
		e.cfg.Limits,
		schedOpts...)
	if e.loreSet {
		e.scheduler.SetLore(e.lore)
	}

	e.logger.Debug("engine ready",
		"debounce", e.cfg.Limits.DebounceDelay,
		"background", e.cfg.Limits.BackgroundDelay)
	return e, nil
}

// Edit records a new version of a chapter's text. The instant analysis
// runs before Edit returns and its digest is the return value; the
// debounced and background tiers are scheduled, superseding any pass
// still in flight for the chapter.
func (e *Engine) Edit(ctx context.Context, chapterID, text string) (*manuscript.HUD, error) {
	return e.scheduler.Edit(ctx, chapterID, text)
}

// Analyze runs a complete background-tier pass synchronously and returns
// the accepted snapshot. Use it for initial project load or an explicit
// "analyze now"; during live editing prefer Edit and the event stream.
func (e *Engine) Analyze(ctx context.Context, chapterID, text string) (*manuscript.Intelligence, error) {
	return e.scheduler.Analyze(ctx, chapterID, text)
}

// Latest returns a copy of the chapter's most recent accepted snapshot.
func (e *Engine) Latest(chapterID string) (*manuscript.Intelligence, error) {
	return e.scheduler.Latest(chapterID)
}

// HUD builds the chapter digest for a cursor position. Pass a negative
// cursor when the position is unknown.
func (e *Engine) HUD(chapterID string, cursor int) (*manuscript.HUD, error) {
	return e.scheduler.HUD(chapterID, cursor)
}

// LatestHUD returns a copy of the digest built by the last accepted
// pass, without recomputing anything.
func (e *Engine) LatestHUD(chapterID string) (*manuscript.HUD, error) {
	return e.scheduler.LatestHUD(chapterID)
}

// MergedGraph folds every chapter's entity graph into one
// manuscript-wide graph.
func (e *Engine) MergedGraph(ctx context.Context) (*manuscript.EntityGraph, error) {
	return e.scheduler.MergedGraph(ctx)
}

// OpenPromises lists every unresolved plot promise across the
// manuscript, in chapter order.
func (e *Engine) OpenPromises() []manuscript.PlotPromise {
	return e.scheduler.OpenPromises()
}

// SetLore replaces the project bible at runtime. Passes already in
// flight keep the lore they started with.
func (e *Engine) SetLore(lore manuscript.Lore) {
	e.scheduler.SetLore(lore)
}

// SetContinuity installs per-section continuity scores from an external
// checker; the next full pass folds them into setting risk.
func (e *Engine) SetContinuity(chapterID string, scores map[string]float64) {
	e.scheduler.SetContinuity(chapterID, scores)
}

// Close cancels in-flight analysis and releases the engine. Every call
// after Close fails with ErrEngineClosed.
func (e *Engine) Close() {
	e.scheduler.Close()
}
