// Package structure builds the structural fingerprint: paragraphs
// classified by narrative mode, dialogue lines with attributed speakers
// threaded into conversations, scenes with tension and pacing signals,
// and chapter-level statistics. Analysis is total: any input yields a
// fingerprint, never an error.
package structure

import (
	"strings"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Analyzer segments and classifies chapter text.
type Analyzer struct {
	limits config.Limits
	breaks map[string]struct{}
}

// New returns an analyzer configured with the given limits and any extra
// scene-break markers.
func New(cfg *config.Config) *Analyzer {
	breaks := make(map[string]struct{}, len(defaultBreakMarkers))
	for _, m := range defaultBreakMarkers {
		breaks[m] = struct{}{}
	}
	for _, m := range cfg.Lexicon.SceneBreakMarkers {
		if m = strings.TrimSpace(m); m != "" {
			breaks[m] = struct{}{}
		}
	}
	return &Analyzer{limits: cfg.Limits, breaks: breaks}
}

// Analyze builds the structural fingerprint for one chapter.
func (a *Analyzer) Analyze(chapterID, chapter string) *manuscript.StructuralFingerprint {
	blocks := text.Paragraphs(chapter)

	// Separator paragraphs carry no prose; they only mark boundaries.
	breakBefore := make(map[int]bool)
	prose := make([]text.Block, 0, len(blocks))
	for _, b := range blocks {
		if a.isBreakMarker(b.Text) {
			breakBefore[len(prose)] = true
			continue
		}
		prose = append(prose, b)
	}

	var (
		paras  []manuscript.ClassifiedParagraph
		lines  []manuscript.DialogueLine
		paraOf []int
	)
	for i, b := range prose {
		quotes := text.Quotes(b.Text)
		f := extractFeatures(b.Text, quotes)
		tokens := text.Words(b.Text)
		paras = append(paras, manuscript.ClassifiedParagraph{
			Index:     i,
			Span:      manuscript.Span{Start: b.Start, End: b.End},
			Type:      classifyParagraph(f),
			Sentiment: text.Sentiment(tokens),
			Tension:   text.Tension(b.Text, tokens),
			WordCount: f.words,
		})
		for _, q := range quotes {
			inner := strings.TrimSpace(q.Inner)
			if inner == "" {
				continue
			}
			innerTokens := text.Words(inner)
			lines = append(lines, manuscript.DialogueLine{
				ID:        len(lines) + 1,
				Span:      manuscript.Span{Start: b.Start + q.Start, End: b.Start + q.End},
				Text:      inner,
				Speaker:   attributeSpeaker(b.Text[:q.Start], b.Text[q.End:]),
				Sentiment: text.Sentiment(innerTokens),
				Tension:   text.Tension(inner, innerTokens),
			})
			paraOf = append(paraOf, i)
		}
	}
	linkConversations(lines, paraOf)

	for li := range lines {
		pi := paraOf[li]
		if paras[pi].Type == manuscript.ParagraphDialogue && paras[pi].Speaker == "" {
			paras[pi].Speaker = lines[li].Speaker
		}
	}

	scenes := a.segmentScenes(chapterID, chapter, paras, breakBefore, lines)

	return &manuscript.StructuralFingerprint{
		ChapterID:  chapterID,
		Scenes:     scenes,
		Paragraphs: paras,
		Dialogue:   lines,
		Stats:      a.stats(chapter, paras, scenes, lines),
	}
}

func (a *Analyzer) stats(chapter string, paras []manuscript.ClassifiedParagraph, scenes []manuscript.Scene, lines []manuscript.DialogueLine) manuscript.Stats {
	words := len(text.Words(chapter))
	sentences := len(text.Sentences(chapter))
	dialogueBytes := 0
	for _, l := range lines {
		dialogueBytes += l.Span.Length()
	}

	s := manuscript.Stats{
		WordCount:         words,
		SentenceCount:     sentences,
		ParagraphCount:    len(paras),
		SceneCount:        len(scenes),
		DialogueLineCount: len(lines),
	}
	if len(chapter) > 0 {
		s.DialogueRatio = float64(dialogueBytes) / float64(len(chapter))
	}
	if sentences > 0 {
		s.AvgSentenceLength = float64(words) / float64(sentences)
	}
	wpm := a.limits.ReadingWordsPerMinute
	if wpm <= 0 {
		wpm = 225
	}
	s.ReadingTimeMinutes = words / wpm
	return s
}
