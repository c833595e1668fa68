package structure

import (
	"testing"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

const testChapter = `Voss sprinted down the alley, vaulted the iron gate, and ran hard for the river stairs. A crate toppled behind him. He dodged left, rolled across the wet stones, and sprang up without breaking stride. Boots hammered the boards of the old dock as he charged the last stretch toward the ferry landing.

"Where is she?" Voss demanded.

"Gone before dawn," said Mira.

"Then we ride north."

***

The monastery sprawled across the ridge, its weathered walls golden in the late light, ancient timbers fading beneath the moss. Narrow windows gleamed faintly, and a gray mist drifted along the outer wall, draping the gatehouse in pale shadow.

She wondered why the gates stood open after all these years. Perhaps the monks remembered her father. She doubted it, yet she hoped they recalled his kindness.

The next morning, Mira led the horses through the mist toward the Northgate. Frost silvered the road, and the wind carried the smell of pine down from the high passes.

Hours later they reached the pass and made camp beneath the old watchtower.`

func analyze(t *testing.T) *manuscript.StructuralFingerprint {
	t.Helper()
	return New(config.Default()).Analyze("ch1", testChapter)
}

func TestAnalyzeScenes(t *testing.T) {
	fp := analyze(t)
	if len(fp.Scenes) != 3 {
		t.Fatalf("got %d scenes, want 3 (hard break + time jump)", len(fp.Scenes))
	}

	wantTypes := []manuscript.SceneType{
		manuscript.SceneAction,
		manuscript.SceneDescription,
		manuscript.SceneTransition,
	}
	for i, want := range wantTypes {
		if fp.Scenes[i].Type != want {
			t.Errorf("scene[%d].Type = %q, want %q", i, fp.Scenes[i].Type, want)
		}
	}

	if fp.Scenes[0].POVCharacter != "Voss" {
		t.Errorf("scene[0] POV = %q, want Voss", fp.Scenes[0].POVCharacter)
	}
	if fp.Scenes[0].Tension <= fp.Scenes[1].Tension {
		t.Error("chase scene should carry more tension than the monastery description")
	}
	if fp.Scenes[2].TimeMarker != "The next morning" {
		t.Errorf("scene[2] time marker = %q", fp.Scenes[2].TimeMarker)
	}
	if fp.Scenes[2].Location != "Northgate" {
		t.Errorf("scene[2] location = %q, want Northgate", fp.Scenes[2].Location)
	}

	for i, sc := range fp.Scenes {
		if sc.ID != manuscript.SceneID("ch1", i) {
			t.Errorf("scene[%d].ID = %q", i, sc.ID)
		}
		if sc.Span.Start >= sc.Span.End {
			t.Errorf("scene[%d] has empty span", i)
		}
		if testChapter[sc.Span.Start:sc.Span.End] == "" {
			t.Errorf("scene[%d] span does not slice the chapter", i)
		}
	}
}

func TestAnalyzeParagraphTypes(t *testing.T) {
	fp := analyze(t)
	if len(fp.Paragraphs) != 8 {
		t.Fatalf("got %d paragraphs, want 8 (separator stripped)", len(fp.Paragraphs))
	}
	wantTypes := map[int]manuscript.ParagraphType{
		0: manuscript.ParagraphAction,
		1: manuscript.ParagraphDialogue,
		2: manuscript.ParagraphDialogue,
		3: manuscript.ParagraphDialogue,
		4: manuscript.ParagraphDescription,
		5: manuscript.ParagraphIntrospection,
	}
	for idx, want := range wantTypes {
		if got := fp.Paragraphs[idx].Type; got != want {
			t.Errorf("paragraph[%d].Type = %q, want %q", idx, got, want)
		}
	}
	if fp.Paragraphs[1].Speaker != "Voss" {
		t.Errorf("paragraph[1].Speaker = %q, want Voss", fp.Paragraphs[1].Speaker)
	}
	for _, p := range fp.Paragraphs {
		if got := testChapter[p.Span.Start:p.Span.End]; len(got) == 0 {
			t.Errorf("paragraph[%d] span empty", p.Index)
		}
	}
}

func TestAnalyzeDialogue(t *testing.T) {
	fp := analyze(t)
	if len(fp.Dialogue) != 3 {
		t.Fatalf("got %d dialogue lines, want 3", len(fp.Dialogue))
	}

	wantSpeakers := []string{"Voss", "Mira", "Voss"}
	for i, want := range wantSpeakers {
		if fp.Dialogue[i].Speaker != want {
			t.Errorf("line[%d].Speaker = %q, want %q", i, fp.Dialogue[i].Speaker, want)
		}
	}

	if fp.Dialogue[0].ReplyTo != 0 {
		t.Errorf("opening line ReplyTo = %d, want 0", fp.Dialogue[0].ReplyTo)
	}
	if fp.Dialogue[1].ReplyTo != fp.Dialogue[0].ID || fp.Dialogue[2].ReplyTo != fp.Dialogue[1].ID {
		t.Error("conversation chain broken")
	}
	if fp.Dialogue[0].Text != "Where is she?" {
		t.Errorf("line[0].Text = %q", fp.Dialogue[0].Text)
	}
	for i, l := range fp.Dialogue {
		if l.ID != i+1 {
			t.Errorf("line ids must be sequential from 1, got %d at %d", l.ID, i)
		}
	}
}

func TestAnalyzeStats(t *testing.T) {
	fp := analyze(t)
	s := fp.Stats
	if s.ParagraphCount != 8 || s.SceneCount != 3 || s.DialogueLineCount != 3 {
		t.Errorf("counts = %d paragraphs, %d scenes, %d lines", s.ParagraphCount, s.SceneCount, s.DialogueLineCount)
	}
	if s.WordCount < 150 || s.WordCount > 220 {
		t.Errorf("word count = %d, outside plausible range", s.WordCount)
	}
	if s.DialogueRatio <= 0 || s.DialogueRatio >= 0.5 {
		t.Errorf("dialogue ratio = %v, want small nonzero share", s.DialogueRatio)
	}
	if s.AvgSentenceLength <= 0 {
		t.Error("average sentence length missing")
	}
	if s.ReadingTimeMinutes != s.WordCount/225 {
		t.Errorf("reading time = %d min", s.ReadingTimeMinutes)
	}
}

func TestAnalyzeEmptyChapter(t *testing.T) {
	fp := New(config.Default()).Analyze("ch1", "")
	if fp == nil {
		t.Fatal("empty chapter must still yield a fingerprint")
	}
	if len(fp.Scenes) != 0 || len(fp.Paragraphs) != 0 || len(fp.Dialogue) != 0 {
		t.Errorf("empty chapter produced artifacts: %+v", fp)
	}
	if fp.Stats.WordCount != 0 {
		t.Errorf("word count = %d, want 0", fp.Stats.WordCount)
	}
}

func TestSceneAtAndParagraphAt(t *testing.T) {
	fp := analyze(t)
	mid := fp.Scenes[1].Span.Start + 5
	if sc := fp.SceneAt(mid); sc == nil || sc.ID != fp.Scenes[1].ID {
		t.Error("SceneAt did not find the covering scene")
	}
	if p := fp.ParagraphAt(fp.Paragraphs[4].Span.Start); p == nil || p.Index != 4 {
		t.Error("ParagraphAt did not find the covering paragraph")
	}
	if sc := fp.SceneAt(len(testChapter) + 50); sc != nil {
		t.Error("offset past the text should find no scene")
	}
}
