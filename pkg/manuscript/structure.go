package manuscript

// SceneType classifies the dominant mode of a scene.
type SceneType string

const (
	SceneAction        SceneType = "action"
	SceneDialogue      SceneType = "dialogue"
	SceneDescription   SceneType = "description"
	SceneIntrospection SceneType = "introspection"
	SceneTransition    SceneType = "transition"
)

// ParagraphType classifies a single paragraph by its dominant pattern.
type ParagraphType string

const (
	ParagraphDialogue      ParagraphType = "dialogue"
	ParagraphAction        ParagraphType = "action"
	ParagraphDescription   ParagraphType = "description"
	ParagraphIntrospection ParagraphType = "introspection"
	ParagraphExposition    ParagraphType = "exposition"
)

// Scene is one structural unit of a chapter. Scenes are immutable once
// produced and are superseded wholesale when the chapter is re-segmented.
type Scene struct {
	ID            string    `json:"id"`
	Span          Span      `json:"span"`
	Type          SceneType `json:"type"`
	POVCharacter  string    `json:"pov_character,omitempty"`
	Location      string    `json:"location,omitempty"`
	TimeMarker    string    `json:"time_marker,omitempty"`
	Tension       float64   `json:"tension"`
	DialogueRatio float64   `json:"dialogue_ratio"`
}

// ClassifiedParagraph is a paragraph with its inferred type and mood scores.
type ClassifiedParagraph struct {
	Index     int           `json:"index"`
	Span      Span          `json:"span"`
	Type      ParagraphType `json:"type"`
	Speaker   string        `json:"speaker,omitempty"`
	Sentiment float64       `json:"sentiment"`
	Tension   float64       `json:"tension"`
	WordCount int           `json:"word_count"`
}

// DialogueLine is one quoted utterance. IDs start at 1 and are unique within
// a chapter. ReplyTo points at the previous line of the same conversational
// run, or 0 when the line opens a run.
type DialogueLine struct {
	ID        int     `json:"id"`
	Span      Span    `json:"span"`
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker,omitempty"`
	Sentiment float64 `json:"sentiment"`
	Tension   float64 `json:"tension"`
	ReplyTo   int     `json:"reply_to,omitempty"`
}

// StructuralFingerprint is the structural analyzer's complete output for one
// chapter text snapshot.
type StructuralFingerprint struct {
	ChapterID  string                `json:"chapter_id"`
	Scenes     []Scene               `json:"scenes"`
	Paragraphs []ClassifiedParagraph `json:"paragraphs"`
	Dialogue   []DialogueLine        `json:"dialogue"`
	Stats      Stats                 `json:"stats"`
}

// SceneAt returns the scene containing the offset, or nil.
func (f *StructuralFingerprint) SceneAt(offset int) *Scene {
	for i := range f.Scenes {
		if f.Scenes[i].Span.Contains(offset) {
			return &f.Scenes[i]
		}
	}
	return nil
}

// ParagraphAt returns the paragraph containing the offset, or nil.
func (f *StructuralFingerprint) ParagraphAt(offset int) *ClassifiedParagraph {
	for i := range f.Paragraphs {
		if f.Paragraphs[i].Span.Contains(offset) {
			return &f.Paragraphs[i]
		}
	}
	return nil
}
