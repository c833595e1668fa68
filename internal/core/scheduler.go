// Package core runs the analysis pipeline under the engine's tiered
// scheduling contract: instant passes run synchronously on every edit,
// debounced and background passes wait out their delays and are
// cancelled by any newer edit. A pass result is accepted only if it is
// still the current pass for its tier when it finishes; superseded
// results are discarded, never merged.
package core

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/hud"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Clock abstracts time so tier delays are testable without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// SchedulerMetrics counts scheduler activity. Superseded passes are
// routine during active typing, not failures.
type SchedulerMetrics struct {
	InstantPasses    int64
	DebouncedPasses  int64
	BackgroundPasses int64
	SupersededPasses int64
	ShortCircuits    int64
	PromisesResolved int64

	LastInstantDuration    time.Duration
	LastDebouncedDuration  time.Duration
	LastBackgroundDuration time.Duration
}

// passHandle identifies one in-flight pass. The goroutine that owns it
// checks it is still the current handle for its tier before accepting.
type passHandle struct {
	id         string
	cancel     context.CancelFunc
	superseded bool // set under chapterState.mu before cancel
}

// chapterState is everything the scheduler tracks per chapter. All
// fields are guarded by mu.
type chapterState struct {
	mu  sync.Mutex
	seq int // registration order, treated as manuscript order

	text         string                   // current buffer
	baseline     *manuscript.Intelligence // last accepted full snapshot
	baselineText string                   // text that produced it
	passes       map[string]int           // section id -> full passes survived unchanged
	continuity   map[string]float64       // external anachronism scores per section
	hud          *manuscript.HUD          // digest of the last published snapshot

	lastHash string // identity of the last published snapshot
	lastTier manuscript.Tier

	debounced  *passHandle
	background *passHandle
}

// Scheduler drives the pipeline under the three-tier contract and owns
// the single-writer accept path into the snapshot store.
//
// Lock order: a chapterState.mu may be held while acquiring
// Scheduler.mu; the reverse never happens. Events are emitted with no
// locks held, so handlers may call back into the scheduler.
type Scheduler struct {
	pipeline *Pipeline
	store    *SnapshotStore
	events   *Events
	clock    Clock
	limiter  *rate.Limiter
	logger   *slog.Logger
	limits   config.Limits

	mu       sync.Mutex
	chapters map[string]*chapterState
	nextSeq  int
	lore     manuscript.Lore
	closed   bool

	foldMu sync.Mutex // one cross-chapter promise fold at a time

	wg sync.WaitGroup

	metricsMu sync.Mutex
	metrics   SchedulerMetrics
}

// SchedulerOption customizes a scheduler.
type SchedulerOption func(*Scheduler)

// WithClock injects a clock; tests use a fake one.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger injects a logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEvents injects a shared event sink.
func WithEvents(e *Events) SchedulerOption {
	return func(s *Scheduler) {
		if e != nil {
			s.events = e
		}
	}
}

// NewScheduler creates a scheduler over the given pipeline and store.
func NewScheduler(p *Pipeline, store *SnapshotStore, limits config.Limits, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		pipeline: p,
		store:    store,
		limits:   limits,
		clock:    systemClock{},
		logger:   slog.Default(),
		chapters: make(map[string]*chapterState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = NewEvents(s.logger)
	}
	s.limiter = rate.NewLimiter(
		rate.Limit(float64(limits.RateLimit.PassesPerMinute)/60.0),
		limits.RateLimit.BurstSize)
	return s
}

// Events returns the scheduler's event sink for subscriptions.
func (s *Scheduler) Events() *Events { return s.events }

// SetLore installs project lore used as a risk-scoring cross-reference.
func (s *Scheduler) SetLore(lore manuscript.Lore) {
	s.mu.Lock()
	s.lore = lore
	s.mu.Unlock()
}

// SetContinuity installs external continuity scores for a chapter's
// sections, folded into setting risk on the next full pass.
func (s *Scheduler) SetContinuity(chapterID string, scores map[string]float64) {
	st, err := s.chapter(chapterID, true)
	if err != nil {
		return
	}
	cp := make(map[string]float64, len(scores))
	for k, v := range scores {
		cp[k] = v
	}
	st.mu.Lock()
	st.continuity = cp
	st.mu.Unlock()
}

// Edit records a new version of the chapter text. The instant pass runs
// synchronously and its digest is returned; the debounced and background
// tiers are (re)armed, cancelling any in-flight pass they supersede.
func (s *Scheduler) Edit(ctx context.Context, chapterID, text string) (*manuscript.HUD, error) {
	st, err := s.chapter(chapterID, true)
	if err != nil {
		return nil, err
	}
	lore := s.loreSnapshot()
	passID := uuid.NewString()
	start := s.clock.Now()

	st.mu.Lock()
	st.text = text
	s.supersedeLocked(st)

	prior, _ := s.store.Latest(chapterID)
	d := s.pipeline.TrackDelta(chapterID, st.baselineText, text, st.baseline)

	snap, runErr := s.pipeline.Run(ctx, PassRequest{
		ChapterID: chapterID,
		Text:      text,
		Tier:      manuscript.TierInstant,
		Now:       s.clock.Now(),
		Prior:     prior,
		Delta:     d,
		Lore:      lore,
	})
	if runErr != nil {
		st.mu.Unlock()
		return nil, NewPassError(chapterID, manuscript.TierInstant, passID, runErr)
	}

	published := s.acceptLocked(st, snap, text, nil)
	digest := st.hud.Clone()

	st.debounced = s.spawn(st, chapterID, manuscript.TierDebounced, s.limits.DebounceDelay)
	st.background = s.spawn(st, chapterID, manuscript.TierBackground, s.limits.BackgroundDelay)
	st.mu.Unlock()

	s.recordPass(manuscript.TierInstant, s.clock.Now().Sub(start), snap == prior)
	s.emitAccepted(chapterID, passID, manuscript.TierInstant, s.clock.Now().Sub(start), published)
	return digest, nil
}

// Analyze runs a full background-tier pass synchronously and returns the
// accepted snapshot. A newer edit arriving mid-pass supersedes it. The
// direct call is not rate limited; the limiter paces only the passes the
// scheduler starts on its own.
func (s *Scheduler) Analyze(ctx context.Context, chapterID, text string) (*manuscript.Intelligence, error) {
	st, err := s.chapter(chapterID, true)
	if err != nil {
		return nil, err
	}
	lore := s.loreSnapshot()

	runCtx, cancel := context.WithTimeout(ctx, s.limits.BackgroundCap)
	defer cancel()
	h := &passHandle{id: uuid.NewString(), cancel: cancel}
	start := s.clock.Now()

	st.mu.Lock()
	st.text = text
	s.supersedeLocked(st)
	st.background = h

	prior, _ := s.store.Latest(chapterID)
	d := s.pipeline.TrackDelta(chapterID, st.baselineText, text, st.baseline)
	passes := advancePasses(st.passes, d)
	continuity := st.continuity
	st.mu.Unlock()

	s.events.Emit(Event{
		Type:      EventPassStarted,
		ChapterID: chapterID,
		PassID:    h.id,
		Tier:      manuscript.TierBackground,
		Timestamp: s.clock.Now(),
	})

	snap, runErr := s.pipeline.Run(runCtx, PassRequest{
		ChapterID:  chapterID,
		Text:       text,
		Tier:       manuscript.TierBackground,
		Now:        s.clock.Now(),
		Prior:      prior,
		Delta:      d,
		Lore:       lore,
		Continuity: continuity,
		Passes:     passes,
	})
	if runErr != nil {
		s.clearHandle(st, manuscript.TierBackground, h)
		return nil, NewPassError(chapterID, manuscript.TierBackground, h.id, s.discardReason(st, h, runErr))
	}

	st.mu.Lock()
	if st.background != h {
		st.mu.Unlock()
		s.recordSuperseded()
		s.emitSuperseded(chapterID, h.id, manuscript.TierBackground)
		return nil, NewPassError(chapterID, manuscript.TierBackground, h.id, ErrPassSuperseded)
	}
	if snap == prior {
		passes = nil // reused snapshot, counters stand
	}
	published := s.acceptLocked(st, snap, text, passes)
	st.background = nil
	st.mu.Unlock()

	duration := s.clock.Now().Sub(start)
	s.recordPass(manuscript.TierBackground, duration, snap == prior)
	s.emitAccepted(chapterID, h.id, manuscript.TierBackground, duration, published)
	s.foldPromises()
	return snap.Clone(), nil
}

// Latest returns a copy of the chapter's latest accepted snapshot.
func (s *Scheduler) Latest(chapterID string) (*manuscript.Intelligence, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	snap, ok := s.store.Latest(chapterID)
	if !ok {
		return nil, ErrUnknownChapter
	}
	return snap, nil
}

// LatestHUD returns a copy of the digest the last published pass built.
func (s *Scheduler) LatestHUD(chapterID string) (*manuscript.HUD, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	st, err := s.chapter(chapterID, false)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.hud == nil {
		return nil, ErrUnknownChapter
	}
	return st.hud.Clone(), nil
}

// HUD rebuilds the digest from the latest snapshot at a cursor position.
// A negative cursor means position is unknown.
func (s *Scheduler) HUD(chapterID string, cursor int) (*manuscript.HUD, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	snap, ok := s.store.Latest(chapterID)
	if !ok {
		return nil, ErrUnknownChapter
	}
	sit := hud.Situation{Cursor: cursor, Valid: cursor >= 0}
	return s.pipeline.BuildHUD(snap, sit, snap.Tier, s.clock.Now()), nil
}

// MergedGraph folds every chapter's latest entity graph into one
// manuscript-wide graph. Each chapter is snapshotted before the fold, so
// a concurrent pass can never be observed mid-mutation.
func (s *Scheduler) MergedGraph(ctx context.Context) (*manuscript.EntityGraph, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ids := s.store.Chapters()
	snapshots := make([]*manuscript.EntityGraph, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.MaxConcurrentChapters)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if snap, ok := s.store.Latest(id); ok {
				snapshots[i] = snap.Graph
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graphs := snapshots[:0]
	for _, gr := range snapshots {
		if gr != nil {
			graphs = append(graphs, gr)
		}
	}
	return s.pipeline.MergeGraphs(graphs...), nil
}

// OpenPromises returns every unresolved promise across all chapters, in
// manuscript order.
func (s *Scheduler) OpenPromises() []manuscript.PlotPromise {
	var out []manuscript.PlotPromise
	for _, id := range s.chapterOrder() {
		snap, ok := s.store.Latest(id)
		if !ok || snap.Timeline == nil {
			continue
		}
		out = append(out, snap.Timeline.OpenPromises()...)
	}
	return out
}

// Metrics returns a copy of the scheduler counters.
func (s *Scheduler) Metrics() SchedulerMetrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}

// Close cancels every in-flight pass and waits for them to drain. All
// operations after Close return ErrEngineClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	states := make([]*chapterState, 0, len(s.chapters))
	for _, st := range s.chapters {
		states = append(states, st)
	}
	s.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		if st.debounced != nil {
			st.debounced.cancel()
		}
		if st.background != nil {
			st.background.cancel()
		}
		st.mu.Unlock()
	}
	s.wg.Wait()
	s.logger.Info("scheduler closed")
}

// spawn arms one async tier. Caller holds st.mu; once the scheduler is
// closed no new goroutine starts, which keeps the shutdown wait sound.
func (s *Scheduler) spawn(st *chapterState, chapterID string, tier manuscript.Tier, delay time.Duration) *passHandle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &passHandle{id: uuid.NewString(), cancel: cancel}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return h
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go s.runPass(ctx, st, h, chapterID, tier, delay)
	return h
}

// runPass waits out a tier's delay, runs the pipeline, and accepts the
// result if the pass is still current.
func (s *Scheduler) runPass(ctx context.Context, st *chapterState, h *passHandle, chapterID string, tier manuscript.Tier, delay time.Duration) {
	defer s.wg.Done()

	select {
	case <-s.clock.After(delay):
	case <-ctx.Done():
		s.finishDiscarded(st, h, chapterID, tier, ctx.Err())
		return
	}

	if tier == manuscript.TierBackground {
		if err := s.limiter.Wait(ctx); err != nil {
			s.finishDiscarded(st, h, chapterID, tier, err)
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.BackgroundCap)
		defer cancel()
	}

	s.events.Emit(Event{
		Type:      EventPassStarted,
		ChapterID: chapterID,
		PassID:    h.id,
		Tier:      tier,
		Timestamp: s.clock.Now(),
	})
	start := s.clock.Now()
	lore := s.loreSnapshot()

	st.mu.Lock()
	if !s.currentLocked(st, tier, h) {
		st.mu.Unlock()
		s.finishDiscarded(st, h, chapterID, tier, ErrPassSuperseded)
		return
	}
	text := st.text
	prior, _ := s.store.Latest(chapterID)
	d := s.pipeline.TrackDelta(chapterID, st.baselineText, text, st.baseline)
	var passes map[string]int
	var continuity map[string]float64
	if tier == manuscript.TierBackground {
		passes = advancePasses(st.passes, d)
		continuity = st.continuity
	}
	st.mu.Unlock()

	snap, err := s.pipeline.Run(ctx, PassRequest{
		ChapterID:  chapterID,
		Text:       text,
		Tier:       tier,
		Now:        s.clock.Now(),
		Prior:      prior,
		Delta:      d,
		Lore:       lore,
		Continuity: continuity,
		Passes:     passes,
	})
	if err != nil {
		s.finishDiscarded(st, h, chapterID, tier, err)
		return
	}

	st.mu.Lock()
	if ctx.Err() != nil || !s.currentLocked(st, tier, h) {
		st.mu.Unlock()
		cause := ctx.Err()
		if cause == nil {
			cause = ErrPassSuperseded
		}
		s.finishDiscarded(st, h, chapterID, tier, cause)
		return
	}
	if snap == prior {
		passes = nil // reused snapshot, counters stand
	}
	published := s.acceptLocked(st, snap, text, passes)
	if tier == manuscript.TierDebounced {
		st.debounced = nil
	} else {
		st.background = nil
	}
	st.mu.Unlock()

	duration := s.clock.Now().Sub(start)
	s.recordPass(tier, duration, snap == prior)
	s.emitAccepted(chapterID, h.id, tier, duration, published)
	if tier == manuscript.TierBackground {
		s.foldPromises()
	}
}

// acceptLocked publishes an accepted snapshot: store write, baseline and
// stale counters for full passes, fresh digest. It refuses to publish
// when a deeper pass over identical text already landed, so a slow
// debounced pass cannot roll the store back behind a finished full pass.
// passes is non-nil only for a freshly computed full pass. Caller holds
// st.mu.
func (s *Scheduler) acceptLocked(st *chapterState, snap *manuscript.Intelligence, text string, passes map[string]int) bool {
	if st.lastHash == snap.ContentHash && tierRank(st.lastTier) > tierRank(snap.Tier) {
		return false
	}
	s.store.Accept(snap)
	st.lastHash = snap.ContentHash
	st.lastTier = snap.Tier
	if snap.Tier == manuscript.TierBackground && passes != nil {
		st.baseline = snap
		st.baselineText = text
		st.passes = reconcilePasses(passes, snap.Heatmap)
	}
	st.hud = s.pipeline.BuildHUD(snap, situationFor(snap), snap.Tier, s.clock.Now())
	return true
}

// finishDiscarded records why an in-flight pass ended without acceptance
// and clears its tier slot if it still owns it.
func (s *Scheduler) finishDiscarded(st *chapterState, h *passHandle, chapterID string, tier manuscript.Tier, cause error) {
	st.mu.Lock()
	superseded := h.superseded
	if s.currentLocked(st, tier, h) {
		if tier == manuscript.TierDebounced {
			st.debounced = nil
		} else {
			st.background = nil
		}
	}
	st.mu.Unlock()

	if superseded {
		s.recordSuperseded()
		s.emitSuperseded(chapterID, h.id, tier)
		return
	}
	s.logger.Debug("pass discarded",
		"chapter", chapterID,
		"tier", tier,
		"pass_id", h.id,
		"reason", cause)
}

// supersedeLocked cancels both async tiers for a chapter. Caller holds
// st.mu; the cancelled goroutines observe their contexts and report.
func (s *Scheduler) supersedeLocked(st *chapterState) {
	if st.debounced != nil {
		st.debounced.superseded = true
		st.debounced.cancel()
		st.debounced = nil
	}
	if st.background != nil {
		st.background.superseded = true
		st.background.cancel()
		st.background = nil
	}
}

// clearHandle detaches a handle after a failed synchronous pass.
func (s *Scheduler) clearHandle(st *chapterState, tier manuscript.Tier, h *passHandle) {
	st.mu.Lock()
	if s.currentLocked(st, tier, h) {
		if tier == manuscript.TierDebounced {
			st.debounced = nil
		} else {
			st.background = nil
		}
	}
	st.mu.Unlock()
}

// discardReason maps a pipeline failure to the scheduler's vocabulary:
// superseded if a newer edit cancelled the pass, otherwise the raw cause.
func (s *Scheduler) discardReason(st *chapterState, h *passHandle, cause error) error {
	st.mu.Lock()
	superseded := h.superseded
	st.mu.Unlock()
	if superseded {
		s.recordSuperseded()
		return ErrPassSuperseded
	}
	return cause
}

func (s *Scheduler) currentLocked(st *chapterState, tier manuscript.Tier, h *passHandle) bool {
	if tier == manuscript.TierDebounced {
		return st.debounced == h
	}
	return st.background == h
}

// chapter fetches or registers per-chapter state.
func (s *Scheduler) chapter(id string, create bool) (*chapterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrEngineClosed
	}
	st, ok := s.chapters[id]
	if !ok {
		if !create {
			return nil, ErrUnknownChapter
		}
		st = &chapterState{seq: s.nextSeq, passes: make(map[string]int)}
		s.nextSeq++
		s.chapters[id] = st
	}
	return st, nil
}

// chapterOrder returns chapter ids in registration order, the order the
// caller fed the manuscript in.
func (s *Scheduler) chapterOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	type entry struct {
		id  string
		seq int
	}
	entries := make([]entry, 0, len(s.chapters))
	for id, st := range s.chapters {
		entries = append(entries, entry{id: id, seq: st.seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.id
	}
	return out
}

func (s *Scheduler) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrEngineClosed
	}
	return nil
}

func (s *Scheduler) loreSnapshot() manuscript.Lore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lore
}

func (s *Scheduler) recordPass(tier manuscript.Tier, d time.Duration, shortCircuit bool) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	switch tier {
	case manuscript.TierInstant:
		s.metrics.InstantPasses++
		s.metrics.LastInstantDuration = d
	case manuscript.TierDebounced:
		s.metrics.DebouncedPasses++
		s.metrics.LastDebouncedDuration = d
	case manuscript.TierBackground:
		s.metrics.BackgroundPasses++
		s.metrics.LastBackgroundDuration = d
	}
	if shortCircuit {
		s.metrics.ShortCircuits++
	}
}

func (s *Scheduler) recordSuperseded() {
	s.metricsMu.Lock()
	s.metrics.SupersededPasses++
	s.metricsMu.Unlock()
}

func (s *Scheduler) emitAccepted(chapterID, passID string, tier manuscript.Tier, d time.Duration, published bool) {
	now := s.clock.Now()
	s.events.Emit(Event{
		Type:      EventPassCompleted,
		ChapterID: chapterID,
		PassID:    passID,
		Tier:      tier,
		Duration:  d,
		Timestamp: now,
	})
	if !published {
		return
	}
	s.events.Emit(Event{
		Type:      EventHUDUpdated,
		ChapterID: chapterID,
		PassID:    passID,
		Tier:      tier,
		Timestamp: now,
	})
	s.logger.Info("pass accepted",
		"chapter", chapterID,
		"tier", tier,
		"pass_id", passID,
		"duration", d)
}

func (s *Scheduler) emitSuperseded(chapterID, passID string, tier manuscript.Tier) {
	s.events.Emit(Event{
		Type:      EventPassSuperseded,
		ChapterID: chapterID,
		PassID:    passID,
		Tier:      tier,
		Timestamp: s.clock.Now(),
	})
	s.logger.Debug("pass superseded",
		"chapter", chapterID,
		"tier", tier,
		"pass_id", passID)
}

// situationFor derives the cursor situation from a snapshot's delta: the
// end of the most recent change, in current coordinates.
func situationFor(snap *manuscript.Intelligence) hud.Situation {
	if snap == nil || snap.Delta == nil || len(snap.Delta.Changes) == 0 {
		return hud.Situation{}
	}
	c := snap.Delta.Changes[len(snap.Delta.Changes)-1]
	return hud.Situation{Cursor: c.Span.Start + len(c.NewText), Valid: true}
}

// advancePasses projects the stale-section counters through one full
// pass: invalidated sections restart at 1, untouched ones gain a pass.
func advancePasses(prev map[string]int, d *manuscript.Delta) map[string]int {
	out := make(map[string]int, len(prev))
	for id, n := range prev {
		if d.Invalidates(id) {
			out[id] = 1
		} else {
			out[id] = n + 1
		}
	}
	return out
}

// reconcilePasses trims the counters to the sections that exist after a
// full pass and seeds new sections at their first survived pass.
func reconcilePasses(advanced map[string]int, hm *manuscript.AttentionHeatmap) map[string]int {
	out := make(map[string]int)
	if hm == nil {
		return out
	}
	for _, sec := range hm.Sections {
		if n, ok := advanced[sec.SectionID]; ok {
			out[sec.SectionID] = n
		} else {
			out[sec.SectionID] = 1
		}
	}
	return out
}
