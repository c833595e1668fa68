// Package style computes the stylistic fingerprint of a chapter:
// vocabulary, syntax, and rhythm metrics plus flagged constructions
// (passive voice, adverbs, filter words, clichés, repeated phrases).
// Every metric is a pure function of the chapter text and its structural
// fingerprint; the analyzer keeps no cross-chapter state.
package style

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

const (
	overuseMinCount = 5
	overuseMinShare = 0.003
	overusedCap     = 15
	rareMinLength   = 9
	rareCap         = 15
)

// Analyzer derives style fingerprints. Lexicons are extended once at
// construction from the configured extras.
type Analyzer struct {
	limits      config.Limits
	stopwords   text.Set
	filterWords text.Set
	cliches     []string
}

// New builds an analyzer from cfg, folding any configured extra filter
// words, clichés, and stopwords into the built-in lexicons.
func New(cfg *config.Config) *Analyzer {
	a := &Analyzer{
		limits:      cfg.Limits,
		stopwords:   text.Stopwords.Clone(),
		filterWords: text.FilterWords.Clone(),
		cliches:     append([]string(nil), text.Cliches...),
	}
	a.stopwords.Add(cfg.Lexicon.ExtraStopwords...)
	a.filterWords.Add(cfg.Lexicon.ExtraFilterWords...)
	a.cliches = append(a.cliches, cfg.Lexicon.ExtraCliches...)
	return a
}

// Analyze fingerprints one chapter. sf supplies the dialogue ratio when
// available; a nil fingerprint falls back to counting quoted bytes.
// Analysis is total: any input yields a fingerprint, never an error.
func (a *Analyzer) Analyze(chapterID, chapter string, sf *manuscript.StructuralFingerprint) *manuscript.StyleFingerprint {
	tokens := text.Words(chapter)
	sentences := text.Sentences(chapter)

	out := &manuscript.StyleFingerprint{
		ChapterID:  chapterID,
		Vocabulary: a.vocabulary(tokens),
		Syntax:     a.syntax(chapter, tokens, sentences, sf),
		Rhythm:     rhythm(chapter, tokens, sentences),
		Flags:      a.flags(chapter, tokens, sentences),
	}
	return out
}

func (a *Analyzer) vocabulary(tokens []text.Token) manuscript.VocabularyMetrics {
	m := manuscript.VocabularyMetrics{TotalWords: len(tokens)}
	if len(tokens) == 0 {
		return m
	}
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t.Lower()]++
	}
	m.UniqueWords = len(freq)
	m.LexicalDiversity = float64(m.UniqueWords) / float64(m.TotalWords)

	for w, n := range freq {
		if len(w) >= 4 && !a.stopwords.Has(w) &&
			n >= overuseMinCount && float64(n)/float64(m.TotalWords) >= overuseMinShare {
			m.OverusedWords = append(m.OverusedWords, manuscript.WordFrequency{Word: w, Count: n})
		}
		if n == 1 && len(w) >= rareMinLength && !a.stopwords.Has(w) {
			m.RareWords = append(m.RareWords, w)
		}
	}
	sort.Slice(m.OverusedWords, func(i, j int) bool {
		if m.OverusedWords[i].Count != m.OverusedWords[j].Count {
			return m.OverusedWords[i].Count > m.OverusedWords[j].Count
		}
		return m.OverusedWords[i].Word < m.OverusedWords[j].Word
	})
	if len(m.OverusedWords) > overusedCap {
		m.OverusedWords = m.OverusedWords[:overusedCap]
	}
	sort.Strings(m.RareWords)
	if len(m.RareWords) > rareCap {
		m.RareWords = m.RareWords[:rareCap]
	}
	return m
}

func (a *Analyzer) syntax(chapter string, tokens []text.Token, sentences []text.Sentence, sf *manuscript.StructuralFingerprint) manuscript.SyntaxMetrics {
	m := manuscript.SyntaxMetrics{SentenceCount: len(sentences)}
	questions, exclaims := 0, 0
	for _, s := range sentences {
		n := len(text.Words(s.Text))
		if n > m.LongestSentence {
			m.LongestSentence = n
		}
		if m.ShortestSentence == 0 || n < m.ShortestSentence {
			m.ShortestSentence = n
		}
		if strings.ContainsRune(s.Text, '?') {
			questions++
		}
		if strings.ContainsRune(s.Text, '!') {
			exclaims++
		}
	}
	if len(sentences) > 0 {
		m.AvgSentenceLength = float64(len(tokens)) / float64(len(sentences))
		m.QuestionRatio = float64(questions) / float64(len(sentences))
		m.ExclamationRatio = float64(exclaims) / float64(len(sentences))
	}
	switch {
	case sf != nil:
		m.DialogueRatio = sf.Stats.DialogueRatio
	case len(chapter) > 0:
		m.DialogueRatio = float64(text.QuotedBytes(chapter)) / float64(len(chapter))
	}
	m.ReadabilityGrade = readabilityGrade(chapter, len(tokens), len(sentences))
	return m
}

// readabilityGrade is the automated readability index: grade level from
// characters per word and words per sentence, rounded up, floored at 1.
func readabilityGrade(chapter string, words, sentences int) int {
	if words == 0 || sentences == 0 {
		return 0
	}
	chars := 0
	for _, r := range chapter {
		if !unicode.IsSpace(r) {
			chars++
		}
	}
	ari := 4.71*(float64(chars)/float64(words)) + 0.5*(float64(words)/float64(sentences)) - 21.43
	grade := int(math.Ceil(ari))
	if grade < 1 {
		grade = 1
	}
	return grade
}

func rhythm(chapter string, tokens []text.Token, sentences []text.Sentence) manuscript.RhythmMetrics {
	m := manuscript.RhythmMetrics{}
	separators := 0
	for _, r := range chapter {
		switch r {
		case ',', ';', ':', '—', '–':
			separators++
		}
	}
	if len(tokens) > 0 {
		m.PunctuationDensity = float64(separators) / float64(len(tokens))
	}
	if len(sentences) > 0 {
		m.ClausesPerSentence = float64(len(sentences)+separators) / float64(len(sentences))
	}
	return m
}
