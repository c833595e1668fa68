package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// fakeClock drives tier delays deterministically. After registers a
// waiter; Advance moves time and fires every waiter that came due.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := fakeWaiter{at: c.now.Add(d), ch: make(chan time.Time, 1)}
	if d <= 0 {
		w.ch <- c.now
		return w.ch
	}
	c.waiters = append(c.waiters, w)
	return w.ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
	c.mu.Unlock()
}

// WaitForTimers blocks until at least n delay timers are registered, so
// Advance cannot race a goroutine that has not armed its timer yet.
func (c *fakeClock) WaitForTimers(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		got := len(c.waiters)
		c.mu.Unlock()
		if got >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timers armed = %d, want at least %d", got, n)
		}
		time.Sleep(time.Millisecond)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEngine struct {
	s      *Scheduler
	clock  *fakeClock
	events chan Event
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	cfg := config.Default()
	clock := newFakeClock()
	s := NewScheduler(NewPipeline(cfg, discardLogger()), NewSnapshotStore(), cfg.Limits,
		WithClock(clock), WithLogger(discardLogger()))
	e := &testEngine{s: s, clock: clock, events: make(chan Event, 64)}
	s.Events().Subscribe(func(ev Event) { e.events <- ev })
	t.Cleanup(s.Close)
	return e
}

// waitEvent consumes events until one matches, discarding the rest.
func (e *testEngine) waitEvent(t *testing.T, typ EventType, tier manuscript.Tier) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-e.events:
			if ev.Type == typ && ev.Tier == tier {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s at tier %s", typ, tier)
		}
	}
}

// waitTiers waits for one event of the given type per tier, any order.
func (e *testEngine) waitTiers(t *testing.T, typ EventType, tiers ...manuscript.Tier) {
	t.Helper()
	pending := make(map[manuscript.Tier]bool, len(tiers))
	for _, tr := range tiers {
		pending[tr] = true
	}
	deadline := time.After(2 * time.Second)
	for len(pending) > 0 {
		select {
		case ev := <-e.events:
			if ev.Type == typ && pending[ev.Tier] {
				delete(pending, ev.Tier)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s, still missing %v", typ, pending)
		}
	}
}

func latest(t *testing.T, e *testEngine, chapterID string) *manuscript.Intelligence {
	t.Helper()
	snap, err := e.s.Latest(chapterID)
	if err != nil {
		t.Fatalf("latest %s: %v", chapterID, err)
	}
	return snap
}

func TestEditReturnsInstantDigest(t *testing.T) {
	e := newTestEngine(t)

	digest, err := e.s.Edit(context.Background(), "ch1", chapterText)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if digest == nil || digest.ChapterID != "ch1" || digest.Tier != manuscript.TierInstant {
		t.Fatalf("digest = %+v, want instant digest for ch1", digest)
	}
	if digest.Stats.WordCount == 0 {
		t.Error("digest stats empty after instant pass")
	}

	snap := latest(t, e, "ch1")
	if snap.Tier != manuscript.TierInstant || snap.Structure == nil {
		t.Errorf("stored snapshot tier = %q, structure nil = %v", snap.Tier, snap.Structure == nil)
	}
	if snap.Graph != nil {
		t.Error("first instant pass produced an entity graph without inputs")
	}

	e.waitEvent(t, EventHUDUpdated, manuscript.TierInstant)
	if m := e.s.Metrics(); m.InstantPasses != 1 {
		t.Errorf("instant passes = %d, want 1", m.InstantPasses)
	}
}

func TestTierCadenceAfterEdit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.s.Edit(ctx, "ch1", chapterText); err != nil {
		t.Fatalf("edit: %v", err)
	}
	e.clock.WaitForTimers(t, 2)

	e.clock.Advance(100 * time.Millisecond)
	e.waitEvent(t, EventPassCompleted, manuscript.TierDebounced)
	snap := latest(t, e, "ch1")
	if snap.Tier != manuscript.TierDebounced {
		t.Fatalf("tier after debounce delay = %q", snap.Tier)
	}
	if snap.Graph == nil || len(snap.Graph.Nodes) == 0 {
		t.Error("debounced pass produced no entity graph")
	}
	if snap.Heatmap != nil {
		t.Error("debounced pass produced background-only layers")
	}

	e.clock.Advance(1900 * time.Millisecond)
	e.waitEvent(t, EventPassCompleted, manuscript.TierBackground)
	snap = latest(t, e, "ch1")
	if snap.Tier != manuscript.TierBackground {
		t.Fatalf("tier after background delay = %q", snap.Tier)
	}
	if snap.Heatmap == nil || snap.Timeline == nil || snap.Style == nil {
		t.Error("background pass missing full layers")
	}

	m := e.s.Metrics()
	if m.DebouncedPasses != 1 || m.BackgroundPasses != 1 || m.SupersededPasses != 0 {
		t.Errorf("metrics = %+v, want one pass per async tier and no supersedes", m)
	}
}

func TestEditSupersedesPendingPasses(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.s.Edit(ctx, "ch1", chapterText); err != nil {
		t.Fatalf("edit: %v", err)
	}
	e.clock.WaitForTimers(t, 2)

	edited := chapterText + "\n\nShe did not look back."
	if _, err := e.s.Edit(ctx, "ch1", edited); err != nil {
		t.Fatalf("second edit: %v", err)
	}
	e.waitTiers(t, EventPassSuperseded, manuscript.TierDebounced, manuscript.TierBackground)

	// The superseded goroutines leave their timers behind; only the two
	// fresh ones matter, so wait for all four before advancing.
	e.clock.WaitForTimers(t, 4)
	e.clock.Advance(2 * time.Second)
	e.waitTiers(t, EventPassCompleted, manuscript.TierDebounced, manuscript.TierBackground)

	snap := latest(t, e, "ch1")
	if snap.ContentHash != manuscript.ContentHash(edited) {
		t.Error("store settled on a superseded version of the text")
	}
	if snap.Tier != manuscript.TierBackground {
		t.Errorf("final tier = %q, want the full pass to win", snap.Tier)
	}
	if m := e.s.Metrics(); m.SupersededPasses != 2 {
		t.Errorf("superseded passes = %d, want 2", m.SupersededPasses)
	}
}

func TestAnalyzeProducesFullSnapshot(t *testing.T) {
	e := newTestEngine(t)

	snap, err := e.s.Analyze(context.Background(), "ch1", chapterText)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if snap.Tier != manuscript.TierBackground {
		t.Fatalf("tier = %q", snap.Tier)
	}
	if snap.Structure == nil || snap.Graph == nil || snap.Timeline == nil ||
		snap.Style == nil || snap.Heatmap == nil {
		t.Fatal("analyze returned a snapshot with missing layers")
	}

	digest, err := e.s.LatestHUD("ch1")
	if err != nil {
		t.Fatalf("latest hud: %v", err)
	}
	if len(digest.OpenPromises) == 0 {
		t.Error("digest lost the open promise from the vow")
	}
	if m := e.s.Metrics(); m.BackgroundPasses != 1 {
		t.Errorf("background passes = %d, want 1", m.BackgroundPasses)
	}
}

func TestAnalyzeReusesUnchangedText(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.s.Analyze(ctx, "ch1", chapterText)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	second, err := e.s.Analyze(ctx, "ch1", chapterText)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if second.ContentHash != first.ContentHash {
		t.Error("re-analysis of identical text changed the snapshot identity")
	}

	m := e.s.Metrics()
	if m.BackgroundPasses != 2 || m.ShortCircuits != 1 {
		t.Errorf("passes = %d, short circuits = %d, want 2 and 1",
			m.BackgroundPasses, m.ShortCircuits)
	}
}

func TestCrossChapterPromiseResolution(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ch1 := "Mira vowed to find the stolen ledger before the winter council. The road south was long."
	ch2 := "Weeks passed on the road. Mira finally found the stolen ledger hidden beneath the chapel floor."

	if _, err := e.s.Analyze(ctx, "ch1", ch1); err != nil {
		t.Fatalf("analyze ch1: %v", err)
	}
	open := e.s.OpenPromises()
	if len(open) == 0 {
		t.Fatal("no promise extracted from the vow")
	}
	if open[0].ChapterID != "ch1" {
		t.Fatalf("promise origin = %q", open[0].ChapterID)
	}

	if _, err := e.s.Analyze(ctx, "ch2", ch2); err != nil {
		t.Fatalf("analyze ch2: %v", err)
	}

	snap := latest(t, e, "ch1")
	var vow *manuscript.PlotPromise
	for i := range snap.Timeline.Promises {
		if snap.Timeline.Promises[i].ID == open[0].ID {
			vow = &snap.Timeline.Promises[i]
		}
	}
	if vow == nil {
		t.Fatal("vow promise vanished from the origin chapter")
	}
	if !vow.Resolved || vow.ResolutionChapter != "ch2" {
		t.Fatalf("vow = %+v, want resolution recorded in ch2", vow)
	}
	if left := e.s.OpenPromises(); len(left) != 0 {
		t.Errorf("open promises after payoff = %+v, want none", left)
	}
	if m := e.s.Metrics(); m.PromisesResolved == 0 {
		t.Error("resolution not counted")
	}
}

func TestStaleSectionAccrual(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	steady := "Mira kept her long watch on the bridge, counting lanterns in the dark."
	variant := func(word string) string {
		return steady + "\n\n***\n\nThe courier arrived with the " + word + " report and left without a word."
	}

	for _, word := range []string{"first", "second", "third", "fourth", "fifth"} {
		if _, err := e.s.Analyze(ctx, "stale", variant(word)); err != nil {
			t.Fatalf("analyze %q: %v", word, err)
		}
	}

	snap := latest(t, e, "stale")
	watch := snap.Heatmap.Section(manuscript.SectionID("stale", 0))
	if watch == nil {
		t.Fatal("untouched scene missing from heatmap")
	}
	if !watch.HasFlag(manuscript.FlagStaleSection) {
		t.Errorf("untouched scene flags = %v after five full passes, want stale_section", watch.Flags)
	}
	courier := snap.Heatmap.Section(manuscript.SectionID("stale", 1))
	if courier == nil {
		t.Fatal("edited scene missing from heatmap")
	}
	if courier.HasFlag(manuscript.FlagStaleSection) {
		t.Errorf("freshly edited scene flagged stale: %v", courier.Flags)
	}
}

func TestMergedGraphAcrossChapters(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ch1 := `Mira crossed the old bridge before first light. "We ride at dawn," Mira said.`
	ch2 := `The monastery gates stood open. "The road is clear," Mira said. Tomas waited in the courtyard.`

	if _, err := e.s.Analyze(ctx, "ch1", ch1); err != nil {
		t.Fatalf("analyze ch1: %v", err)
	}
	if _, err := e.s.Analyze(ctx, "ch2", ch2); err != nil {
		t.Fatalf("analyze ch2: %v", err)
	}

	g, err := e.s.MergedGraph(ctx)
	if err != nil {
		t.Fatalf("merged graph: %v", err)
	}

	var mira *manuscript.EntityNode
	names := make(map[string]bool)
	for _, n := range g.Nodes {
		names[n.Name] = true
		if n.Name == "Mira" {
			mira = n
		}
	}
	if mira == nil {
		t.Fatalf("merged graph nodes = %v, want Mira", names)
	}
	chapters := make(map[string]bool)
	for _, m := range mira.Mentions {
		chapters[m.ChapterID] = true
	}
	if !chapters["ch1"] || !chapters["ch2"] {
		t.Errorf("Mira mentions span %v, want both chapters", chapters)
	}
	if !names["Tomas"] {
		t.Errorf("merged graph nodes = %v, want Tomas carried over", names)
	}
}

func TestHUDAtCursor(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.s.Analyze(ctx, "ch1", chapterText); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	digest, err := e.s.HUD("ch1", 10)
	if err != nil {
		t.Fatalf("hud: %v", err)
	}
	if digest.ChapterID != "ch1" || digest.Tier != manuscript.TierBackground {
		t.Errorf("digest identity = (%q, %q)", digest.ChapterID, digest.Tier)
	}

	if _, err := e.s.HUD("missing", 0); !errors.Is(err, ErrUnknownChapter) {
		t.Errorf("unknown chapter err = %v, want ErrUnknownChapter", err)
	}
}

func TestCloseRejectsOperations(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.s.Edit(ctx, "ch1", chapterText); err != nil {
		t.Fatalf("edit: %v", err)
	}
	e.s.Close()

	if _, err := e.s.Edit(ctx, "ch1", "x"); !IsClosed(err) {
		t.Errorf("edit after close err = %v", err)
	}
	if _, err := e.s.Analyze(ctx, "ch1", "x"); !IsClosed(err) {
		t.Errorf("analyze after close err = %v", err)
	}
	if _, err := e.s.Latest("ch1"); !IsClosed(err) {
		t.Errorf("latest after close err = %v", err)
	}
	if _, err := e.s.MergedGraph(ctx); !IsClosed(err) {
		t.Errorf("merged graph after close err = %v", err)
	}

	e.s.Close() // idempotent
}
