package text

import "strings"

// Sentiment scores tokens in [-1, 1] by lexicon polarity. Zero means
// neutral or no matches; magnitude grows with the share of charged words.
func Sentiment(tokens []Token) float64 {
	var pos, neg int
	for _, t := range tokens {
		w := t.Lower()
		if PositiveWords.Has(w) {
			pos++
		} else if NegativeWords.Has(w) {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}

// Tension scores text in [0, 1]: the share of tension-lexicon words,
// boosted by exclamation marks and dampened toward zero for calm prose.
func Tension(raw string, tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if TensionWords.Has(t.Lower()) {
			hits++
		}
	}
	score := float64(hits) / float64(len(tokens)) * 8
	score += float64(strings.Count(raw, "!")) * 0.05
	if score > 1 {
		score = 1
	}
	return score
}
