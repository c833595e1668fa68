package timeline

import (
	"regexp"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// promisePattern recognizes one narrative setup worth tracking to its
// payoff. Each entry labels the promise kind and a short reader-facing
// description prefix; the quote is always the matched sentence.
type promisePattern struct {
	re       *regexp.Regexp
	kind     manuscript.PromiseKind
	describe string
}

var promisePatterns = []promisePattern{
	{regexp.MustCompile(`(?i)\blittle did (?:he|she|they|\w+) know\b`),
		manuscript.PromiseForeshadowing, "narrator hints at unknown consequence"},
	{regexp.MustCompile(`(?i)\b(?:had no idea|could not have known|never suspected)\b`),
		manuscript.PromiseForeshadowing, "narrator hints at unknown consequence"},
	{regexp.MustCompile(`(?i)\bwould (?:never|soon|later|one day|come to) \w+`),
		manuscript.PromiseForeshadowing, "narrator points ahead"},
	{regexp.MustCompile(`(?i)\bfor the last time\b`),
		manuscript.PromiseForeshadowing, "finality foreshadowed"},
	{regexp.MustCompile(`(?i)\bsomething (?:was|felt|seemed) (?:wrong|off|different)\b`),
		manuscript.PromiseForeshadowing, "unease planted"},

	{regexp.MustCompile(`(?i)\b(?:tucked|slipped|hid|stashed) (?:the |a |an )?\w+ (?:into|under|behind|inside|beneath)\b`),
		manuscript.PromiseSetup, "object planted"},
	{regexp.MustCompile(`(?i)\bkept (?:the |a |an )?\w+ (?:hidden|secret|locked)\b`),
		manuscript.PromiseSetup, "object planted"},

	{regexp.MustCompile(`(?i)\b(?:wondered|asked (?:himself|herself|themselves)) (?:why|what|who|how|where|whether|if)\b`),
		manuscript.PromiseQuestion, "open question raised"},

	{regexp.MustCompile(`(?i)\b(?:vowed|swore|promised) (?:to|that|revenge)\b`),
		manuscript.PromiseConflict, "vow made"},
	{regexp.MustCompile(`(?i)\b(?:would not|wouldn['’]t|will not|won['’]t) (?:rest|stop|forgive)\b`),
		manuscript.PromiseConflict, "vow made"},
	{regexp.MustCompile(`(?i)\bif \w[\w\s]{2,40}(?:finds out|found out|ever learns|ever learned|discovered)\b`),
		manuscript.PromiseConflict, "looming confrontation"},

	{regexp.MustCompile(`(?i)\b(?:needed|needs|had) to (?:find|reach|stop|save|get|escape|uncover|prove|win|protect|return|deliver)\b`),
		manuscript.PromiseGoal, "goal declared"},
	{regexp.MustCompile(`(?i)\b(?:set out|was determined|resolved|intent on) to\b`),
		manuscript.PromiseGoal, "goal declared"},
}

// resolutionGap is the minimum byte distance between a promise and its
// payoff. Anything closer is the same passage restating itself.
const resolutionGap = 200

// minKeywordOverlap is how many significant words a payoff sentence must
// share with the promise quote.
const minKeywordOverlap = 2

// extractPromises scans narration for promise patterns. One sentence
// yields at most one promise: the first pattern in registry order wins,
// so repeated analysis is deterministic.
func extractPromises(chapterID, s string, limit int) []manuscript.PlotPromise {
	var out []manuscript.PlotPromise
	seen := make(map[string]struct{})
	for _, sent := range text.Sentences(s) {
		if len(out) >= limit {
			break
		}
		for _, p := range promisePatterns {
			loc := p.re.FindStringIndex(sent.Text)
			if loc == nil {
				continue
			}
			quote := truncate(sent.Text, maxQuoteLen)
			id := manuscript.PromiseID(chapterID, p.kind, quote)
			if _, dup := seen[id]; dup {
				break
			}
			seen[id] = struct{}{}
			out = append(out, manuscript.PlotPromise{
				ID:          id,
				Kind:        p.kind,
				Description: p.describe,
				Quote:       quote,
				Offset:      sent.Offset,
				ChapterID:   chapterID,
			})
			break
		}
	}
	return out
}

// significantWords returns the lowercase content words of a quote, used
// for payoff matching.
func significantWords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range text.Words(s) {
		w := t.Lower()
		if len(w) >= 4 && !text.Stopwords.Has(w) {
			out[w] = struct{}{}
		}
	}
	return out
}

// resolvePromises marks promises whose payoff appears later in the text:
// a sentence far enough past the promise that shares enough of its
// content words. Already-resolved promises are left untouched.
func resolvePromises(promises []manuscript.PlotPromise, chapterID, s string) {
	sentences := text.Sentences(s)
	for i := range promises {
		p := &promises[i]
		if p.Resolved {
			continue
		}
		keywords := significantWords(p.Quote)
		if len(keywords) == 0 {
			continue
		}
		floor := 0
		if p.ChapterID == chapterID {
			floor = p.Offset + resolutionGap
		}
		for _, sent := range sentences {
			if sent.Offset < floor {
				continue
			}
			overlap := 0
			for _, t := range text.Words(sent.Text) {
				if _, ok := keywords[t.Lower()]; ok {
					overlap++
				}
			}
			if overlap >= minKeywordOverlap {
				p.Resolve(sent.Offset, chapterID)
				break
			}
		}
	}
}

// carryResolutions copies resolution state from a prior snapshot onto the
// freshly extracted promises. Resolution never retracts: once a payoff
// was seen, later edits to unrelated text cannot reopen the promise.
func carryResolutions(promises []manuscript.PlotPromise, prior *manuscript.Timeline) {
	if prior == nil {
		return
	}
	resolved := make(map[string]manuscript.PlotPromise)
	for _, p := range prior.Promises {
		if p.Resolved {
			resolved[p.ID] = p
		}
	}
	for i := range promises {
		if old, ok := resolved[promises[i].ID]; ok && !promises[i].Resolved {
			promises[i].Resolved = true
			promises[i].ResolutionOffset = old.ResolutionOffset
			promises[i].ResolutionChapter = old.ResolutionChapter
		}
	}
}
