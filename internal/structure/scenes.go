package structure

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/internal/timeline"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// defaultBreakMarkers are paragraph bodies that conventionally mark a
// scene break. Config can extend the set but not shrink it.
var defaultBreakMarkers = []string{"***", "* * *", "#", "⁂", "~", "---", "— — —", "• • •"}

// isBreakMarker reports whether a paragraph is a scene separator rather
// than prose.
func (a *Analyzer) isBreakMarker(block string) bool {
	t := strings.TrimSpace(block)
	if t == "" {
		return false
	}
	_, ok := a.breaks[t]
	return ok
}

// minSceneParagraphs guards soft breaks: a time jump only opens a new
// scene if the current one already has this many paragraphs.
const minSceneParagraphs = 2

// transitionWordLimit is the size under which a non-dialogue scene reads
// as connective tissue rather than a full scene.
const transitionWordLimit = 60

// sceneBuilder accumulates one scene's paragraphs during segmentation.
type sceneBuilder struct {
	paragraphs []int // indexes into the classified paragraph list
}

// segmentScenes groups paragraphs into scenes. Hard boundaries come from
// break-marker paragraphs (already stripped from the list; their
// positions arrive via breakBefore), soft boundaries from paragraphs that
// open with a time jump.
func (a *Analyzer) segmentScenes(chapterID, chapter string, paras []manuscript.ClassifiedParagraph, breakBefore map[int]bool, lines []manuscript.DialogueLine) []manuscript.Scene {
	if len(paras) == 0 {
		return nil
	}
	var builders []sceneBuilder
	current := sceneBuilder{}
	for i := range paras {
		boundary := false
		if len(current.paragraphs) > 0 {
			if breakBefore[i] {
				boundary = true
			} else if len(current.paragraphs) >= minSceneParagraphs {
				body := chapter[paras[i].Span.Start:paras[i].Span.End]
				if _, ok := timeline.OpeningMarker(body); ok {
					boundary = true
				}
			}
		}
		if boundary {
			builders = append(builders, current)
			current = sceneBuilder{}
		}
		current.paragraphs = append(current.paragraphs, i)
	}
	builders = append(builders, current)

	scenes := make([]manuscript.Scene, 0, len(builders))
	for idx, b := range builders {
		scenes = append(scenes, a.buildScene(chapterID, chapter, idx, b, paras, lines))
	}
	return scenes
}

func (a *Analyzer) buildScene(chapterID, chapter string, idx int, b sceneBuilder, paras []manuscript.ClassifiedParagraph, lines []manuscript.DialogueLine) manuscript.Scene {
	first := paras[b.paragraphs[0]]
	last := paras[b.paragraphs[len(b.paragraphs)-1]]
	span := manuscript.Span{Start: first.Span.Start, End: last.Span.End}
	body := chapter[span.Start:span.End]

	var sceneLines []manuscript.DialogueLine
	dialogueBytes := 0
	for _, l := range lines {
		if l.Span.Start >= span.Start && l.Span.End <= span.End {
			sceneLines = append(sceneLines, l)
			dialogueBytes += l.Span.Length()
		}
	}
	dialogueRatio := 0.0
	if span.Length() > 0 {
		dialogueRatio = float64(dialogueBytes) / float64(span.Length())
	}

	words := 0
	var tension float64
	typeWeight := map[manuscript.ParagraphType]int{}
	for _, pi := range b.paragraphs {
		p := paras[pi]
		words += p.WordCount
		tension += p.Tension * float64(p.WordCount)
		typeWeight[p.Type] += p.WordCount
	}
	if words > 0 {
		tension /= float64(words)
	}

	scene := manuscript.Scene{
		ID:            manuscript.SceneID(chapterID, idx),
		Span:          span,
		Type:          sceneType(dialogueRatio, words, typeWeight),
		Tension:       tension,
		DialogueRatio: dialogueRatio,
		POVCharacter:  povCharacter(body, sceneLines, span.Start),
		Location:      findLocation(body),
	}
	if markers := timeline.FindMarkers(body); len(markers) > 0 {
		scene.TimeMarker = markers[0].Text
	}
	return scene
}

// sceneType picks the scene label. Dialogue dominance wins outright; tiny
// scenes read as transitions; otherwise the heaviest paragraph type
// decides, with the priority order action, description, introspection
// breaking ties.
func sceneType(dialogueRatio float64, words int, weight map[manuscript.ParagraphType]int) manuscript.SceneType {
	if dialogueRatio > 0.5 {
		return manuscript.SceneDialogue
	}
	if words < transitionWordLimit {
		return manuscript.SceneTransition
	}
	ranked := []struct {
		para  manuscript.ParagraphType
		scene manuscript.SceneType
	}{
		{manuscript.ParagraphAction, manuscript.SceneAction},
		{manuscript.ParagraphDescription, manuscript.SceneDescription},
		{manuscript.ParagraphIntrospection, manuscript.SceneIntrospection},
	}
	best := manuscript.SceneDescription
	bestWeight := -1
	for _, r := range ranked {
		w := weight[r.para]
		if r.para == manuscript.ParagraphDescription {
			// Exposition reads as static prose; it votes with description.
			w += weight[manuscript.ParagraphExposition]
		}
		if w > bestWeight {
			best = r.scene
			bestWeight = w
		}
	}
	if weight[manuscript.ParagraphDialogue] > bestWeight {
		return manuscript.SceneDialogue
	}
	return best
}

// povCharacter guesses the viewpoint character: the name most often used
// in narration, ignoring names that only ever open sentences (those are
// often subjects of stray lines) unless nothing better exists.
func povCharacter(body string, lines []manuscript.DialogueLine, base int) string {
	total := map[string]int{}
	mid := map[string]int{}
	for _, tok := range text.Words(body) {
		r, _ := utf8.DecodeRuneInString(tok.Text)
		if r < 'A' || r > 'Z' || len(tok.Text) < 2 {
			continue
		}
		if text.Stopwords.Has(tok.Lower()) {
			continue
		}
		abs := base + tok.Offset
		if insideDialogue(abs, lines) {
			continue
		}
		total[tok.Text]++
		if !sentenceInitial(body, tok.Offset) {
			mid[tok.Text]++
		}
	}
	best := ""
	for name, n := range total {
		if mid[name] == 0 && n < 2 {
			continue
		}
		if best == "" || n > total[best] || (n == total[best] && name < best) {
			best = name
		}
	}
	return best
}

func insideDialogue(abs int, lines []manuscript.DialogueLine) bool {
	for _, l := range lines {
		if l.Span.Contains(abs) {
			return true
		}
	}
	return false
}

// sentenceInitial reports whether the rune before the offset (skipping
// spaces) ends a sentence, meaning the token starts one.
func sentenceInitial(s string, off int) bool {
	rest := s[:off]
	for len(rest) > 0 {
		r, size := utf8.DecodeLastRuneInString(rest)
		if unicode.IsSpace(r) {
			rest = rest[:len(rest)-size]
			continue
		}
		return r == '.' || r == '!' || r == '?' || r == '…' || r == '"' || r == '”'
	}
	return true
}

var locationRe = regexp.MustCompile(`\b(?:at|in|inside|near|outside|into|toward|towards) (?:the |a |an )?([A-Z][\w'’-]+(?:\s+[A-Z][\w'’-]+){0,2})`)

// findLocation returns the first explicit place reference in the scene.
func findLocation(body string) string {
	m := locationRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}
