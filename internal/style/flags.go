package style

import (
	"regexp"
	"sort"
	"strings"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// irregularParticiples are past participles the -ed suffix misses.
const irregularParticiples = `born|bought|broken|brought|built|caught|chosen|done|drawn|driven|fed|felt|forgotten|found|frozen|given|gone|heard|held|hidden|hit|hung|kept|known|laid|led|left|lost|made|met|paid|put|read|said|seen|sent|set|shaken|shut|sold|spoken|stolen|struck|sung|sworn|taken|thrown|told|torn|worn|written`

var (
	passiveRe = regexp.MustCompile(`(?i)\b(am|are|is|was|were|be|been|being)\b\s+(\w+ed|` + irregularParticiples + `)\b`)
	adverbRe  = regexp.MustCompile(`(?i)\b\w+ly\b`)
)

const minPhraseRepeats = 3

func (a *Analyzer) flags(chapter string, tokens []text.Token, sentences []text.Sentence) manuscript.StyleFlags {
	f := manuscript.StyleFlags{}
	words := len(tokens)

	passives := passiveRe.FindAllStringIndex(chapter, -1)
	if len(sentences) > 0 {
		f.PassiveVoiceRatio = float64(len(passives)) / float64(len(sentences))
	}
	for _, loc := range passives {
		f.PassiveInstances = append(f.PassiveInstances, manuscript.StyleInstance{Text: chapter[loc[0]:loc[1]], Offset: loc[0]})
	}

	adverbs := 0
	for _, loc := range adverbRe.FindAllStringIndex(chapter, -1) {
		w := chapter[loc[0]:loc[1]]
		if text.NonAdverbLY.Has(strings.ToLower(w)) {
			continue
		}
		adverbs++
		f.AdverbInstances = append(f.AdverbInstances, manuscript.StyleInstance{Text: w, Offset: loc[0]})
	}
	if words > 0 {
		f.AdverbDensity = float64(adverbs) / float64(words)
	}

	filters := 0
	for _, t := range tokens {
		if a.filterWords.Has(t.Lower()) {
			filters++
			f.FilterInstances = append(f.FilterInstances, manuscript.StyleInstance{Text: t.Text, Offset: t.Offset})
		}
	}
	if words > 0 {
		f.FilterWordDensity = float64(filters) / float64(words)
	}

	folded := foldASCII(chapter)
	for _, phrase := range a.cliches {
		needle := foldASCII(phrase)
		from := 0
		for {
			i := strings.Index(folded[from:], needle)
			if i < 0 {
				break
			}
			at := from + i
			f.ClicheCount++
			f.ClicheInstances = append(f.ClicheInstances, manuscript.StyleInstance{Text: chapter[at : at+len(needle)], Offset: at})
			from = at + len(needle)
		}
	}
	sort.Slice(f.ClicheInstances, func(i, j int) bool { return f.ClicheInstances[i].Offset < f.ClicheInstances[j].Offset })

	f.RepeatedPhrases = a.repeatedPhrases(tokens)

	maxInst := a.limits.MaxInstancesPerFlag
	f.PassiveInstances = capInstances(f.PassiveInstances, maxInst)
	f.AdverbInstances = capInstances(f.AdverbInstances, maxInst)
	f.FilterInstances = capInstances(f.FilterInstances, maxInst)
	f.ClicheInstances = capInstances(f.ClicheInstances, maxInst)
	return f
}

// repeatedPhrases finds trigrams of consecutive words that recur at least
// minPhraseRepeats times. Trigrams made entirely of stopwords are
// skipped; offsets record every occurrence.
func (a *Analyzer) repeatedPhrases(tokens []text.Token) []manuscript.RepeatedPhrase {
	if len(tokens) < 3 {
		return nil
	}
	low := make([]string, len(tokens))
	for i, t := range tokens {
		low[i] = t.Lower()
	}
	offsets := make(map[string][]int)
	for i := 0; i+2 < len(tokens); i++ {
		if a.stopwords.Has(low[i]) && a.stopwords.Has(low[i+1]) && a.stopwords.Has(low[i+2]) {
			continue
		}
		key := low[i] + " " + low[i+1] + " " + low[i+2]
		offsets[key] = append(offsets[key], tokens[i].Offset)
	}
	var out []manuscript.RepeatedPhrase
	for phrase, offs := range offsets {
		if len(offs) >= minPhraseRepeats {
			out = append(out, manuscript.RepeatedPhrase{Phrase: phrase, Count: len(offs), Offsets: offs})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Phrase < out[j].Phrase
	})
	if len(out) > a.limits.MaxRepeatedPhrases {
		out = out[:a.limits.MaxRepeatedPhrases]
	}
	return out
}

// foldASCII lowercases ASCII letters without changing byte offsets, so
// matches against the folded text index straight into the original.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func capInstances(in []manuscript.StyleInstance, n int) []manuscript.StyleInstance {
	if len(in) > n {
		return in[:n]
	}
	return in
}
