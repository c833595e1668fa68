package timeline

import (
	"regexp"
	"strings"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// causalPattern binds a connective to how it splits a sentence. When
// effectFirst is true the clause before the connective is the effect
// ("she left because he lied"); otherwise it is the cause ("he lied, so
// she left"). Confidence reflects how reliably the connective signals
// causation rather than mere sequence.
type causalPattern struct {
	re          *regexp.Regexp
	confidence  float64
	effectFirst bool
}

var causalPatterns = []causalPattern{
	{regexp.MustCompile(`(?i)\bbecause of\b`), 0.80, true},
	{regexp.MustCompile(`(?i)\bbecause\b`), 0.90, true},
	{regexp.MustCompile(`(?i)\bdue to\b`), 0.70, true},
	{regexp.MustCompile(`(?i)\bthanks to\b`), 0.70, true},
	{regexp.MustCompile(`(?i)\bas a result\b`), 0.85, false},
	{regexp.MustCompile(`(?i)\btherefore\b`), 0.85, false},
	{regexp.MustCompile(`(?i)\bconsequently\b`), 0.85, false},
	{regexp.MustCompile(`(?i)\bwhich meant\b`), 0.70, false},
	{regexp.MustCompile(`(?i)\bled to\b`), 0.80, false},
	{regexp.MustCompile(`(?i)\bso that\b`), 0.60, false},
	{regexp.MustCompile(`(?i), so \b`), 0.50, false},
}

const (
	minClauseWords = 3
	maxQuoteLen    = 120
)

// extractChains finds cause/effect pairs sentence by sentence. Only the
// first connective in a sentence produces a chain; stacked connectives in
// one sentence are too ambiguous to split mechanically.
func extractChains(chapterID, s string, limit int) []manuscript.CausalChain {
	var out []manuscript.CausalChain
	for _, sent := range text.Sentences(s) {
		if len(out) >= limit {
			break
		}
		chain, ok := chainFromSentence(chapterID, sent)
		if ok {
			out = append(out, chain)
		}
	}
	return out
}

func chainFromSentence(chapterID string, sent text.Sentence) (manuscript.CausalChain, bool) {
	for _, p := range causalPatterns {
		loc := p.re.FindStringIndex(sent.Text)
		if loc == nil {
			continue
		}
		left := strings.Trim(sent.Text[:loc[0]], " \t,;—–-")
		right := strings.Trim(sent.Text[loc[1]:], " \t,;.!?—–-")
		if wordCount(left) < minClauseWords || wordCount(right) < minClauseWords {
			continue
		}
		cause, effect := left, right
		causeOff, effectOff := sent.Offset, sent.Offset+loc[1]
		if p.effectFirst {
			cause, effect = right, left
			causeOff, effectOff = sent.Offset+loc[1], sent.Offset
		}
		cause = truncate(cause, maxQuoteLen)
		effect = truncate(effect, maxQuoteLen)
		return manuscript.CausalChain{
			ID:           manuscript.ChainID(chapterID, cause, effect),
			CauseQuote:   cause,
			CauseOffset:  causeOff,
			EffectQuote:  effect,
			EffectOffset: effectOff,
			Marker:       strings.Trim(strings.ToLower(sent.Text[loc[0]:loc[1]]), " \t,;"),
			Confidence:   p.confidence,
		}, true
	}
	return manuscript.CausalChain{}, false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.LastIndexByte(s[:n], ' ')
	if cut <= 0 {
		cut = n
	}
	return s[:cut]
}
