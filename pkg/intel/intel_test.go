package intel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

const chapterOne = `Mira crossed the old bridge before first light. "We ride at dawn," Mira said. Mira vowed to find the stolen ledger before the winter council.`

const chapterTwo = `The monastery gates stood open. "The road is clear," Mira said. Tomas waited in the courtyard.`

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEngineAnalyzeAndReads(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	snap, err := e.Analyze(ctx, "ch1", chapterOne)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if snap.Tier != manuscript.TierBackground {
		t.Fatalf("tier = %s, want %s", snap.Tier, manuscript.TierBackground)
	}
	if snap.Graph == nil || snap.Timeline == nil || snap.Style == nil || snap.Heatmap == nil {
		t.Fatal("full pass should fill every layer")
	}

	got, err := e.Latest("ch1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ContentHash != snap.ContentHash {
		t.Fatalf("Latest hash = %s, want %s", got.ContentHash, snap.ContentHash)
	}

	hud, err := e.HUD("ch1", len(chapterOne)/2)
	if err != nil {
		t.Fatalf("HUD: %v", err)
	}
	if hud.ChapterID != "ch1" || hud.Stats.WordCount == 0 {
		t.Fatalf("unexpected digest: %+v", hud)
	}
	if _, err := e.LatestHUD("ch1"); err != nil {
		t.Fatalf("LatestHUD: %v", err)
	}

	if _, err := e.Latest("nope"); !errors.Is(err, ErrUnknownChapter) {
		t.Fatalf("Latest(nope) = %v, want ErrUnknownChapter", err)
	}
}

func TestEngineEditEmitsDigestEvents(t *testing.T) {
	e := newEngine(t)

	var (
		mu  sync.Mutex
		got []Event
	)
	unsub := e.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	}, EventHUDUpdated)

	hud, err := e.Edit(context.Background(), "ch1", chapterOne)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if hud.Tier != manuscript.TierInstant {
		t.Fatalf("digest tier = %s, want %s", hud.Tier, manuscript.TierInstant)
	}
	unsub()

	mu.Lock()
	seen := len(got)
	if seen == 0 {
		mu.Unlock()
		t.Fatal("expected a hud.updated event from the instant pass")
	}
	first := got[0]
	mu.Unlock()
	if first.Type != EventHUDUpdated || first.ChapterID != "ch1" || first.Tier != manuscript.TierInstant {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.ID == "" || first.PassID == "" {
		t.Fatalf("event identity not filled: %+v", first)
	}

	// After unsubscribing, further edits must not reach the handler.
	if _, err := e.Edit(context.Background(), "ch1", chapterOne+" More words arrived."); err != nil {
		t.Fatalf("second Edit: %v", err)
	}
	mu.Lock()
	after := len(got)
	mu.Unlock()
	if after != seen {
		t.Fatalf("handler called after unsubscribe: %d -> %d events", seen, after)
	}
}

func TestEngineManuscriptWideReads(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	if _, err := e.Analyze(ctx, "ch1", chapterOne); err != nil {
		t.Fatalf("Analyze ch1: %v", err)
	}
	if _, err := e.Analyze(ctx, "ch2", chapterTwo); err != nil {
		t.Fatalf("Analyze ch2: %v", err)
	}

	graph, err := e.MergedGraph(ctx)
	if err != nil {
		t.Fatalf("MergedGraph: %v", err)
	}
	var mira, tomas bool
	for _, n := range graph.Nodes {
		switch n.Name {
		case "Mira":
			mira = true
		case "Tomas":
			tomas = true
		}
	}
	if !mira || !tomas {
		t.Fatalf("merged graph missing characters (mira=%v tomas=%v)", mira, tomas)
	}

	open := e.OpenPromises()
	if len(open) == 0 {
		t.Fatal("expected the vow to stay open")
	}
	if open[0].ChapterID != "ch1" {
		t.Fatalf("promise origin = %s, want ch1", open[0].ChapterID)
	}

	e.SetLore(manuscript.Lore{
		Characters: []manuscript.LoreCharacter{{Name: "Mira", Role: "courier"}},
	})
	e.SetContinuity("ch1", map[string]float64{"ch1_sec_0": 0.4})
	if _, err := e.Analyze(ctx, "ch1", chapterOne+" The bell tolled twice."); err != nil {
		t.Fatalf("Analyze after lore: %v", err)
	}
}

func TestEngineClosedErrors(t *testing.T) {
	e := newEngine(t)
	if _, err := e.Analyze(context.Background(), "ch1", chapterOne); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	e.Close()

	if _, err := e.Edit(context.Background(), "ch1", chapterOne); !IsClosed(err) {
		t.Fatalf("Edit after Close = %v, want engine closed", err)
	}
	if _, err := e.Analyze(context.Background(), "ch1", chapterOne); !IsClosed(err) {
		t.Fatalf("Analyze after Close = %v, want engine closed", err)
	}
	if _, err := e.Latest("ch1"); !IsClosed(err) {
		t.Fatalf("Latest after Close = %v, want engine closed", err)
	}
	e.Close() // second Close is a no-op
}
