// Package manuscript defines the data model produced by the intelligence
// engine: structural fingerprints, entity graphs, timelines, style metrics,
// heatmaps, deltas, and the HUD digest. Everything here is a computed
// artifact: the engine builds these from a text snapshot and hands them to
// the caller, which owns the canonical text and any persistence.
package manuscript

import "time"

// Span is a half-open byte range [Start, End) into the chapter text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Length returns the number of bytes covered by the span.
func (s Span) Length() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether the offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Clamp bounds the span to [0, textLen], preserving ordering.
func (s Span) Clamp(textLen int) Span {
	if s.Start < 0 {
		s.Start = 0
	}
	if s.End > textLen {
		s.End = textLen
	}
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

// Tier identifies which recomputation tier produced an artifact.
type Tier string

const (
	TierInstant    Tier = "instant"
	TierDebounced  Tier = "debounced"
	TierBackground Tier = "background"
)

// Stats aggregates chapter-level counts shown in the HUD summary.
type Stats struct {
	WordCount          int     `json:"word_count"`
	SentenceCount      int     `json:"sentence_count"`
	ParagraphCount     int     `json:"paragraph_count"`
	SceneCount         int     `json:"scene_count"`
	DialogueLineCount  int     `json:"dialogue_line_count"`
	DialogueRatio      float64 `json:"dialogue_ratio"`
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	ReadingTimeMinutes int     `json:"reading_time_minutes"`
}

// Intelligence is the full layered analysis state for one chapter. The
// engine returns a fresh value each accepted pass; callers persist it and
// hand it back as the prior snapshot to enable delta-scoped recompute.
type Intelligence struct {
	ChapterID   string                 `json:"chapter_id"`
	ContentHash string                 `json:"content_hash"`
	Structure   *StructuralFingerprint `json:"structure,omitempty"`
	Graph       *EntityGraph           `json:"graph,omitempty"`
	Timeline    *Timeline              `json:"timeline,omitempty"`
	Style       *StyleFingerprint      `json:"style,omitempty"`
	Heatmap     *AttentionHeatmap      `json:"heatmap,omitempty"`
	Delta       *Delta                 `json:"delta,omitempty"`
	Tier        Tier                   `json:"tier"`
	AnalyzedAt  time.Time              `json:"analyzed_at"`
}

// Lore is read-only project knowledge supplied by the caller and used only
// as a cross-reference signal for risk scoring. The engine never mutates it.
type Lore struct {
	Characters []LoreCharacter `json:"characters,omitempty"`
	WorldRules []string        `json:"world_rules,omitempty"`
}

// LoreCharacter describes one character from the project bible.
type LoreCharacter struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	Bio  string `json:"bio,omitempty"`
}

// Protagonists returns the lore characters whose role marks them as leads.
func (l Lore) Protagonists() []LoreCharacter {
	var out []LoreCharacter
	for _, c := range l.Characters {
		if c.Role == "protagonist" || c.Role == "lead" {
			out = append(out, c)
		}
	}
	return out
}
