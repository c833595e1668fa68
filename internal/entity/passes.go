package entity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// candidate is one raw extraction hit before filtering and consolidation.
type candidate struct {
	name   string
	typ    manuscript.EntityType
	offset int
	titled bool
}

// passInput is the shared view each extraction pass reads from.
type passInput struct {
	chapter   string
	sentences []text.Sentence
	quotes    []text.Quote
	structure *manuscript.StructuralFingerprint
	stop      text.Set
}

// extractPass is one raw extraction strategy. Passes run independently
// over the same input; their candidates merge during consolidation, so
// registry order only decides which spelling is seen first.
type extractPass struct {
	name string
	run  func(in passInput) []candidate
}

var extractPasses = []extractPass{
	{"sentence-start", sentenceStartPass},
	{"post-quote", postQuotePass},
	{"titled", titlePass},
	{"attribution", attributionPass},
	{"speakers", speakerPass},
	{"locations", locationPass},
	{"objects", objectPass},
}

const maxRunWords = 3

// capRun collects the capitalized-word run in s starting at token index
// start: consecutive capitalized tokens separated only by spaces, at most
// maxRunWords long. It returns the run's boundary token indexes, or ok
// false when the first token is not capitalized.
func capRun(s string, tokens []text.Token, start int) (first, last int, ok bool) {
	if start >= len(tokens) || !capitalized(tokens[start].Text) {
		return 0, 0, false
	}
	last = start
	for last+1 < len(tokens) && last-start+1 < maxRunWords {
		next := tokens[last+1]
		if !capitalized(next.Text) {
			break
		}
		gap := s[tokens[last].Offset+len(tokens[last].Text) : next.Offset]
		if strings.Trim(gap, " ") != "" {
			break
		}
		last++
	}
	return start, last, true
}

func capitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// runCandidate trims leading stoplisted words off a capitalized run and
// emits whatever remains. Sentence openers like "The" or "When" drop away
// so "When Voss arrived" still yields Voss.
func runCandidate(s string, base int, tokens []text.Token, first, last int, stop text.Set) (candidate, bool) {
	for first <= last && stop.Has(tokens[first].Lower()) {
		first++
	}
	if first > last {
		return candidate{}, false
	}
	from := tokens[first].Offset
	to := tokens[last].Offset + len(tokens[last].Text)
	return candidate{
		name:   s[from:to],
		typ:    manuscript.EntityCharacter,
		offset: base + from,
	}, true
}

func sentenceStartPass(in passInput) []candidate {
	var out []candidate
	for _, s := range in.sentences {
		tokens := text.Words(s.Text)
		first, last, ok := capRun(s.Text, tokens, 0)
		if !ok {
			continue
		}
		c, ok := runCandidate(s.Text, s.Offset, tokens, first, last, in.stop)
		if !ok || inQuote(in.quotes, c.offset) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// inQuote reports whether the offset falls inside quoted speech. Words
// opening a line of dialogue are commands and exclamations far more often
// than names, so the sentence-start pass skips them.
func inQuote(quotes []text.Quote, off int) bool {
	for _, q := range quotes {
		if off >= q.Start && off < q.End {
			return true
		}
		if q.Start > off {
			break
		}
	}
	return false
}

func postQuotePass(in passInput) []candidate {
	var out []candidate
	for _, q := range in.quotes {
		rest := in.chapter[q.End:]
		lead := len(rest) - len(strings.TrimLeft(rest, " \t,—–-"))
		after := rest[lead:]
		tokens := text.Words(after)
		if len(tokens) == 0 || tokens[0].Offset != 0 {
			continue
		}
		first, last, ok := capRun(after, tokens, 0)
		if !ok {
			continue
		}
		if c, ok := runCandidate(after, q.End+lead, tokens, first, last, in.stop); ok {
			out = append(out, c)
		}
	}
	return out
}

var titleRe = regexp.MustCompile(`\b(` + titleAlt + `)\.?\s+([A-Z][\w'’-]+)`)

func titlePass(in passInput) []candidate {
	var out []candidate
	for _, m := range titleRe.FindAllStringIndex(in.chapter, -1) {
		out = append(out, candidate{
			name:   in.chapter[m[0]:m[1]],
			typ:    manuscript.EntityCharacter,
			offset: m[0],
			titled: true,
		})
	}
	return out
}

// Attribution verbs written out so both tag orders compile to one
// alternation. A subset of the shared attribution lexicon: the common
// dialogue verbs that reliably precede or follow a name.
const sayVerbAlt = `said|asked|replied|answered|whispered|shouted|muttered|murmured|called|cried|snapped|demanded|growled|hissed|added|continued|began|agreed|warned`

var (
	nameVerbRe = regexp.MustCompile(`([A-Z][\w'’-]+)\s+(?:` + sayVerbAlt + `)\b`)
	verbNameRe = regexp.MustCompile(`\b(?:` + sayVerbAlt + `)\s+([A-Z][\w'’-]+)`)
)

func attributionPass(in passInput) []candidate {
	var out []candidate
	for _, re := range []*regexp.Regexp{nameVerbRe, verbNameRe} {
		for _, m := range re.FindAllStringSubmatchIndex(in.chapter, -1) {
			out = append(out, candidate{
				name:   in.chapter[m[2]:m[3]],
				typ:    manuscript.EntityCharacter,
				offset: m[2],
			})
		}
	}
	return out
}

// speakerPass injects speakers the structural analyzer already resolved.
// These are high-confidence: attribution there survives conversation
// threading, not just a single regex hit.
func speakerPass(in passInput) []candidate {
	if in.structure == nil {
		return nil
	}
	var out []candidate
	for _, line := range in.structure.Dialogue {
		if line.Speaker == "" {
			continue
		}
		out = append(out, candidate{
			name:   line.Speaker,
			typ:    manuscript.EntityCharacter,
			offset: line.Span.Start,
		})
	}
	return out
}

var (
	prepLocRe   = regexp.MustCompile(`\b(?:at|in|inside|near|outside|into|toward|towards) (?:the |a |an )?([A-Z][\w'’-]+(?:\s+[A-Z][\w'’-]+){0,2})`)
	placeNounRe = regexp.MustCompile(`\bthe ([A-Z][\w'’-]+(?: [A-Z][\w'’-]+)?) (` + placeNounAlt + `)\b`)
)

func locationPass(in passInput) []candidate {
	var out []candidate
	for _, m := range prepLocRe.FindAllStringSubmatchIndex(in.chapter, -1) {
		out = append(out, candidate{
			name:   in.chapter[m[2]:m[3]],
			typ:    manuscript.EntityLocation,
			offset: m[2],
		})
	}
	for _, m := range placeNounRe.FindAllStringSubmatchIndex(in.chapter, -1) {
		out = append(out, candidate{
			name:   in.chapter[m[2]:m[5]],
			typ:    manuscript.EntityLocation,
			offset: m[2],
		})
	}
	return out
}

var (
	possessiveRe = regexp.MustCompile(`([A-Z][\w'’-]+)(?:’s|'s) (` + objectNounAlt + `)\b`)
	objectOfRe   = regexp.MustCompile(`\bthe (` + objectNounAlt + `) of ([A-Z][\w'’-]+)`)
)

func objectPass(in passInput) []candidate {
	var out []candidate
	for _, m := range possessiveRe.FindAllStringSubmatchIndex(in.chapter, -1) {
		out = append(out, candidate{
			name:   in.chapter[m[0]:m[5]],
			typ:    manuscript.EntityObject,
			offset: m[0],
		})
	}
	for _, m := range objectOfRe.FindAllStringSubmatchIndex(in.chapter, -1) {
		out = append(out, candidate{
			name:   in.chapter[m[2]:m[5]],
			typ:    manuscript.EntityObject,
			offset: m[2],
		})
	}
	return out
}
