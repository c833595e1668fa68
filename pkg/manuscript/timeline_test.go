package manuscript

import "testing"

func TestPromiseResolveIsFinal(t *testing.T) {
	p := &PlotPromise{
		ID:        PromiseID("ch1", PromiseQuestion, "who sent the letter?"),
		Kind:      PromiseQuestion,
		Quote:     "who sent the letter?",
		ChapterID: "ch1",
	}
	p.Resolve(500, "ch3")
	p.Resolve(900, "ch7") // later payoff must not overwrite the first

	if !p.Resolved {
		t.Fatal("promise not marked resolved")
	}
	if p.ResolutionOffset != 500 || p.ResolutionChapter != "ch3" {
		t.Errorf("resolution = (%d, %q), want first payoff (500, ch3)",
			p.ResolutionOffset, p.ResolutionChapter)
	}
}

func TestOpenPromises(t *testing.T) {
	tl := &Timeline{
		ChapterID: "ch1",
		Promises: []PlotPromise{
			{ID: "a", Resolved: false},
			{ID: "b", Resolved: true},
			{ID: "c", Resolved: false},
		},
	}
	open := tl.OpenPromises()
	if len(open) != 2 {
		t.Fatalf("open promises = %d, want 2", len(open))
	}
	if open[0].ID != "a" || open[1].ID != "c" {
		t.Errorf("open promises out of order: %q, %q", open[0].ID, open[1].ID)
	}

	var nilTL *Timeline
	if nilTL.OpenPromises() != nil {
		t.Error("nil timeline should yield no promises")
	}
}
