// Package text provides the low-level tokenization shared by every
// analyzer: word, sentence and paragraph extraction with byte offsets
// into the original string, plus the word lists the heuristics match
// against. All functions are pure and never fail; malformed input just
// yields fewer tokens.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one word with its byte offset in the source text.
type Token struct {
	Text   string
	Offset int
}

// Lower returns the token text lowercased for lexicon matching.
func (t Token) Lower() string {
	return strings.ToLower(t.Text)
}

// Sentence is one sentence with its byte offset in the source text.
type Sentence struct {
	Text   string
	Offset int
}

// End returns the byte offset just past the sentence.
func (s Sentence) End() int {
	return s.Offset + len(s.Text)
}

// Block is one paragraph with its byte range in the source text.
type Block struct {
	Text  string
	Start int
	End   int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '’' || r == '-'
}

// Words tokenizes text into words, keeping original casing. Apostrophes
// and hyphens join words ("didn't", "well-known"); stray punctuation at
// token edges is trimmed off.
func Words(s string) []Token {
	var out []Token
	start := -1
	flush := func(end int) {
		raw := s[start:end]
		trimmed := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed != "" {
			out = append(out, Token{Text: trimmed, Offset: start + strings.Index(raw, trimmed)})
		}
		start = -1
	}
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			flush(i)
		}
	}
	if start >= 0 {
		flush(len(s))
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isCloser(r rune) bool {
	return r == '"' || r == '”' || r == '\'' || r == '’' || r == ')' || r == ']'
}

var abbreviations = NewSet(
	"mr", "mrs", "ms", "dr", "st", "vs", "jr", "sr", "prof", "gen", "col",
	"sgt", "lt", "capt", "rev", "hon", "etc", "approx", "dept", "est",
)

// endsWithAbbreviation reports whether the fragment's final word is a
// known abbreviation, meaning its trailing period does not end a sentence.
func endsWithAbbreviation(fragment string) bool {
	fragment = strings.TrimRight(fragment, ".")
	i := strings.LastIndexFunc(fragment, func(r rune) bool { return !isWordRune(r) })
	word := strings.ToLower(fragment[i+1:])
	return abbreviations.Has(word)
}

// Sentences splits text into sentences with offsets. Terminator runs
// ("?!", "...") and trailing closing quotes stay attached to their
// sentence; periods after common abbreviations do not split.
func Sentences(s string) []Sentence {
	var out []Sentence
	emit := func(start, end int) {
		seg := s[start:end]
		trimmed := strings.TrimSpace(seg)
		if trimmed != "" {
			out = append(out, Sentence{Text: trimmed, Offset: start + strings.Index(seg, trimmed)})
		}
	}
	start := 0
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isTerminator(r) {
			i += size
			continue
		}
		dot := r == '.'
		j := i + size
		for j < len(s) {
			r2, sz := utf8.DecodeRuneInString(s[j:])
			if !isTerminator(r2) {
				break
			}
			dot = dot && r2 == '.'
			j += sz
		}
		for j < len(s) {
			r2, sz := utf8.DecodeRuneInString(s[j:])
			if !isCloser(r2) {
				break
			}
			j += sz
		}
		atEnd := j >= len(s)
		var next rune
		if !atEnd {
			next, _ = utf8.DecodeRuneInString(s[j:])
		}
		boundary := atEnd || unicode.IsSpace(next)
		if boundary && dot && endsWithAbbreviation(s[start:i]) {
			boundary = false
		}
		// A lowercase continuation after a closing quote is a dialogue
		// tag ("Stop!" he said), still part of the same sentence.
		if boundary && !atEnd {
			rest := strings.TrimLeft(s[j:], " \t")
			if r3, _ := utf8.DecodeRuneInString(rest); unicode.IsLower(r3) {
				boundary = false
			}
		}
		if boundary {
			emit(start, j)
			start = j
		}
		i = j
	}
	if start < len(s) {
		emit(start, len(s))
	}
	return out
}

// Paragraphs splits text into blocks separated by blank lines. Each
// block's span covers its trimmed content.
func Paragraphs(s string) []Block {
	var out []Block
	blockStart := -1
	flush := func(end int) {
		if blockStart < 0 {
			return
		}
		if b, ok := trimBlock(s, blockStart, end); ok {
			out = append(out, b)
		}
		blockStart = -1
	}
	lineStart := 0
	for {
		lineEnd := len(s)
		if nl := strings.IndexByte(s[lineStart:], '\n'); nl >= 0 {
			lineEnd = lineStart + nl
		}
		if strings.TrimSpace(s[lineStart:lineEnd]) == "" {
			flush(lineStart)
		} else if blockStart < 0 {
			blockStart = lineStart
		}
		if lineEnd == len(s) {
			break
		}
		lineStart = lineEnd + 1
	}
	flush(len(s))
	return out
}

func trimBlock(s string, start, end int) (Block, bool) {
	seg := s[start:end]
	trimmed := strings.TrimSpace(seg)
	if trimmed == "" {
		return Block{}, false
	}
	off := start + strings.Index(seg, trimmed)
	return Block{Text: trimmed, Start: off, End: off + len(trimmed)}, true
}
