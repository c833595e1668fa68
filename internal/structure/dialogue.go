package structure

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

var (
	// "...," said Voss
	tagVerbNameRe = regexp.MustCompile(`^[\s,.!?—–-]*([a-z]+)\s+([A-Z][\w'’-]*(?:\s+[A-Z][\w'’-]*)?)`)
	// "...," Voss said  /  "..." Voss turned away (action beat)
	tagNameVerbRe = regexp.MustCompile(`^[\s,.!?—–-]*([A-Z][\w'’-]*(?:\s+[A-Z][\w'’-]*)?)\s+[a-z]+`)
	// Voss said, "..."  (immediately before the quote)
	beforeTagRe = regexp.MustCompile(`([A-Z][\w'’-]*(?:\s+[A-Z][\w'’-]*)?)\s+([a-z]+)[,:]?\s*$`)
)

// plausibleName rejects capitalized sentence openers that are not names.
func plausibleName(name string) bool {
	first := strings.ToLower(strings.Fields(name)[0])
	return !text.Stopwords.Has(first)
}

// attributeSpeaker resolves who speaks a quote from the surrounding
// paragraph text. Tags after the quote win over context before it;
// pronoun tags resolve later through conversation alternation.
func attributeSpeaker(before, after string) string {
	if m := tagVerbNameRe.FindStringSubmatch(after); m != nil {
		if text.AttributionVerbs.Has(m[1]) && plausibleName(m[2]) {
			return m[2]
		}
	}
	if m := tagNameVerbRe.FindStringSubmatch(after); m != nil && plausibleName(m[1]) {
		return m[1]
	}
	if m := beforeTagRe.FindStringSubmatch(before); m != nil {
		if text.AttributionVerbs.Has(m[2]) && plausibleName(m[1]) {
			return m[1]
		}
	}
	// Action beat before the quote: a lone name in the closing sentence.
	if name, ok := soleNameInTail(before); ok {
		return name
	}
	return ""
}

// soleNameInTail looks at the last sentence before the quote; exactly one
// plausible capitalized name there makes it the speaker.
func soleNameInTail(before string) (string, bool) {
	sentences := text.Sentences(before)
	if len(sentences) == 0 {
		return "", false
	}
	tail := sentences[len(sentences)-1].Text
	var found string
	for _, tok := range text.Words(tail) {
		if len(tok.Text) < 2 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(tok.Text)
		if r < 'A' || r > 'Z' {
			continue
		}
		if text.Stopwords.Has(tok.Lower()) {
			continue
		}
		if found != "" && found != tok.Text {
			return "", false
		}
		found = tok.Text
	}
	return found, found != ""
}

// linkConversations threads dialogue lines into reply chains. Lines at
// most two paragraphs apart continue the run; a larger gap starts a new
// one. Unattributed lines inherit speakers: same-paragraph continuations
// keep the previous speaker, and in an alternating exchange a line takes
// the speaker from two lines back.
func linkConversations(lines []manuscript.DialogueLine, paraOf []int) {
	for i := 1; i < len(lines); i++ {
		gap := paraOf[i] - paraOf[i-1]
		if gap <= 2 {
			lines[i].ReplyTo = lines[i-1].ID
			if lines[i].Speaker == "" && gap == 0 {
				lines[i].Speaker = lines[i-1].Speaker
			}
		}
	}
	for i := 2; i < len(lines); i++ {
		if lines[i].Speaker == "" &&
			lines[i].ReplyTo == lines[i-1].ID &&
			lines[i-1].ReplyTo == lines[i-2].ID {
			lines[i].Speaker = lines[i-2].Speaker
		}
	}
}
