package timeline

import (
	"strings"
	"testing"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

func newAnalyzer() *Analyzer {
	return New(config.Default())
}

func TestFindMarkers(t *testing.T) {
	s := "The next morning, Voss returned to the archive. Years ago, the fire had taken everything. Meanwhile, Harrow waited by the canal."
	got := FindMarkers(s)
	if len(got) != 3 {
		t.Fatalf("got %d markers %v, want 3", len(got), got)
	}
	checks := []struct {
		order manuscript.EventOrder
		scale manuscript.TimeScale
	}{
		{manuscript.OrderAfter, manuscript.ScaleHours},
		{manuscript.OrderBefore, manuscript.ScaleYears},
		{manuscript.OrderConcurrent, manuscript.ScaleMoment},
	}
	for i, c := range checks {
		if got[i].Order != c.order || got[i].Scale != c.scale {
			t.Errorf("marker[%d] = %v/%v, want %v/%v", i, got[i].Order, got[i].Scale, c.order, c.scale)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Offset <= got[i-1].Offset {
			t.Error("markers not in offset order")
		}
	}
}

func TestFindMarkersCollapsesOverlaps(t *testing.T) {
	got := FindMarkers("Later that morning the rain stopped.")
	if len(got) != 1 {
		t.Fatalf("got %d markers %v, want 1", len(got), got)
	}
	if got[0].Order != manuscript.OrderAfter {
		t.Errorf("order = %v, want the longer forward match to win", got[0].Order)
	}
}

func TestOpeningMarker(t *testing.T) {
	if _, ok := OpeningMarker("The next morning, everything had changed."); !ok {
		t.Error("paragraph opening with a time jump not detected")
	}
	if _, ok := OpeningMarker("She found the letter the next morning."); ok {
		t.Error("mid-paragraph marker should not count as an opener")
	}
}

func TestExtractChains(t *testing.T) {
	s := "She left the city because the threats had grown worse. The bridge collapsed, so the caravan turned back east."
	chains := extractChains("ch1", s, 10)
	if len(chains) != 2 {
		t.Fatalf("got %d chains %v, want 2", len(chains), chains)
	}

	first := chains[0]
	if first.CauseQuote != "the threats had grown worse" {
		t.Errorf("cause = %q, want the clause after 'because'", first.CauseQuote)
	}
	if first.EffectQuote != "She left the city" {
		t.Errorf("effect = %q, want the clause before 'because'", first.EffectQuote)
	}
	if first.Marker != "because" || first.Confidence != 0.90 {
		t.Errorf("marker/confidence = %q/%v", first.Marker, first.Confidence)
	}

	second := chains[1]
	if second.CauseQuote != "The bridge collapsed" || second.EffectQuote != "the caravan turned back east" {
		t.Errorf("'so' chain split wrong: cause %q effect %q", second.CauseQuote, second.EffectQuote)
	}
}

func TestExtractChainsSkipsShortClauses(t *testing.T) {
	chains := extractChains("ch1", "He left because reasons.", 10)
	if len(chains) != 0 {
		t.Errorf("one-word clause produced a chain: %v", chains)
	}
}

func TestAnalyzePromisesAndResolution(t *testing.T) {
	filler := strings.Repeat("The road wound on through the silent hills and empty fields. ", 6)
	s := "She vowed to find her brother before the winter storms. " + filler +
		"Her brother stood at the harbor gate, and the winter wind did not touch him."

	tl := newAnalyzer().Analyze("ch1", s, nil)
	if len(tl.Promises) != 1 {
		t.Fatalf("got %d promises %v, want 1", len(tl.Promises), tl.Promises)
	}
	p := tl.Promises[0]
	if p.Kind != manuscript.PromiseConflict {
		t.Errorf("kind = %q, want conflict for a vow", p.Kind)
	}
	if !p.Resolved {
		t.Fatal("payoff sentence with shared keywords should resolve the promise")
	}
	if p.ResolutionChapter != "ch1" || p.ResolutionOffset <= p.Offset {
		t.Errorf("resolution at (%d, %q), want later in ch1", p.ResolutionOffset, p.ResolutionChapter)
	}
}

func TestResolutionRequiresDistance(t *testing.T) {
	s := "She vowed to find her brother before the winter storms. Her brother and the winter could wait no longer."
	tl := newAnalyzer().Analyze("ch1", s, nil)
	if len(tl.Promises) != 1 {
		t.Fatalf("got %d promises, want 1", len(tl.Promises))
	}
	if tl.Promises[0].Resolved {
		t.Error("adjacent restatement should not count as a payoff")
	}
}

func TestPriorResolutionSticks(t *testing.T) {
	s := "She vowed to find her brother before the winter storms."
	a := newAnalyzer()

	first := a.Analyze("ch1", s, nil)
	if first.Promises[0].Resolved {
		t.Fatal("unexpected resolution without payoff text")
	}
	prior := first.Clone()
	prior.Promises[0].Resolve(9000, "ch4")

	second := a.Analyze("ch1", s, prior)
	if !second.Promises[0].Resolved {
		t.Error("resolution recorded in prior snapshot must survive re-analysis")
	}
	if second.Promises[0].ResolutionChapter != "ch4" {
		t.Errorf("resolution chapter = %q, want carried ch4", second.Promises[0].ResolutionChapter)
	}
}

func TestResolveCarried(t *testing.T) {
	a := newAnalyzer()
	carried := []manuscript.PlotPromise{{
		ID:        manuscript.PromiseID("ch1", manuscript.PromiseGoal, "she needed to reach the lighthouse before dark"),
		Kind:      manuscript.PromiseGoal,
		Quote:     "she needed to reach the lighthouse before dark",
		ChapterID: "ch1",
	}}

	got := a.ResolveCarried(carried, "ch3", "At dusk she finally stood beneath the lighthouse, the dark sea hissing below.")
	if len(got) != 1 || !got[0].Resolved {
		t.Fatalf("carried promise not resolved: %v", got)
	}
	if got[0].ResolutionChapter != "ch3" {
		t.Errorf("resolution chapter = %q, want ch3", got[0].ResolutionChapter)
	}
	if carried[0].Resolved {
		t.Error("ResolveCarried mutated its input")
	}

	if out := a.ResolveCarried(nil, "ch3", "text"); out != nil {
		t.Error("no carried promises should yield nil")
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	s := "The next morning she vowed to find the key because the door would not open. Moments later the hall fell silent."
	a := newAnalyzer()
	t1 := a.Analyze("ch1", s, nil)
	t2 := a.Analyze("ch1", s, nil)

	if len(t1.Markers) != len(t2.Markers) || len(t1.Chains) != len(t2.Chains) || len(t1.Promises) != len(t2.Promises) {
		t.Fatal("repeated analysis disagreed on artifact counts")
	}
	for i := range t1.Promises {
		if t1.Promises[i].ID != t2.Promises[i].ID {
			t.Errorf("promise id changed between runs: %q vs %q", t1.Promises[i].ID, t2.Promises[i].ID)
		}
	}
	for i := range t1.Chains {
		if t1.Chains[i].ID != t2.Chains[i].ID {
			t.Errorf("chain id changed between runs: %q vs %q", t1.Chains[i].ID, t2.Chains[i].ID)
		}
	}
}
