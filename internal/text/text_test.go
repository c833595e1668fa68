package text

import "testing"

func TestWords(t *testing.T) {
	tokens := Words(`"Didn't you see it?" she asked.`)
	want := []string{"Didn't", "you", "see", "it", "she", "asked"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, w := range want {
		if tokens[i].Text != w {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i].Text, w)
		}
	}
	if tokens[0].Offset != 1 {
		t.Errorf("first token offset = %d, want 1 (inside the quote)", tokens[0].Offset)
	}
}

func TestWordsOffsetsIndexSource(t *testing.T) {
	src := "The well-known detective."
	for _, tok := range Words(src) {
		got := src[tok.Offset : tok.Offset+len(tok.Text)]
		if got != tok.Text {
			t.Errorf("offset %d yields %q, want %q", tok.Offset, got, tok.Text)
		}
	}
}

func TestSentences(t *testing.T) {
	src := `Mr. Voss opened the door. "Who's there?!" he called. Nothing moved...`
	got := Sentences(src)
	if len(got) != 3 {
		t.Fatalf("got %d sentences %v, want 3", len(got), got)
	}
	if got[0].Text != `Mr. Voss opened the door.` {
		t.Errorf("sentence[0] = %q (abbreviation split?)", got[0].Text)
	}
	if got[1].Text != `"Who's there?!" he called.` {
		t.Errorf("sentence[1] = %q, terminator run inside quotes mishandled", got[1].Text)
	}
	for _, s := range got {
		if src[s.Offset:s.End()] != s.Text {
			t.Errorf("offset mismatch for %q", s.Text)
		}
	}
}

func TestParagraphs(t *testing.T) {
	src := "First paragraph line one.\nStill first.\n\nSecond paragraph.\n   \nThird."
	got := Paragraphs(src)
	if len(got) != 3 {
		t.Fatalf("got %d blocks %v, want 3", len(got), got)
	}
	if got[0].Text != "First paragraph line one.\nStill first." {
		t.Errorf("block[0] = %q", got[0].Text)
	}
	if got[1].Text != "Second paragraph." {
		t.Errorf("block[1] = %q", got[1].Text)
	}
	for _, b := range got {
		if src[b.Start:b.End] != b.Text {
			t.Errorf("span mismatch for %q", b.Text)
		}
	}
}

func TestSentiment(t *testing.T) {
	if s := Sentiment(Words("warm gentle smile and quiet joy")); s <= 0 {
		t.Errorf("positive text scored %v", s)
	}
	if s := Sentiment(Words("blood and terror and despair")); s >= 0 {
		t.Errorf("negative text scored %v", s)
	}
	if s := Sentiment(Words("the door was open")); s != 0 {
		t.Errorf("neutral text scored %v, want 0", s)
	}
}

func TestTension(t *testing.T) {
	calm := "The garden lay quiet in the afternoon sun, bees drifting among the roses."
	tense := "She ran. The gun fired! Glass shattered and she lunged for the door, heartbeat pounding."
	if Tension(tense, Words(tense)) <= Tension(calm, Words(calm)) {
		t.Error("tense passage should outscore calm passage")
	}
	if got := Tension("", nil); got != 0 {
		t.Errorf("empty text tension = %v, want 0", got)
	}
}

func TestSetAdd(t *testing.T) {
	s := NewSet("alpha")
	s.Add("Beta")
	if !s.Has("beta") {
		t.Error("Add should lowercase entries")
	}
	if s.Has("gamma") {
		t.Error("unexpected membership")
	}
}
