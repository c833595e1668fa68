package structure

import (
	"strings"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// paraFeatures holds everything the classification rules score against,
// computed once per paragraph.
type paraFeatures struct {
	words          int
	quotedRatio    float64
	avgSentenceLen float64
	actionHits     int
	introHits      int
	descHits       int
	hadCount       int
	exclaims       int
	questions      int
}

func extractFeatures(block string, quotes []text.Quote) paraFeatures {
	f := paraFeatures{}
	tokens := text.Words(block)
	f.words = len(tokens)
	for _, t := range tokens {
		w := t.Lower()
		switch {
		case text.ActionVerbs.Has(w):
			f.actionHits++
		case text.IntrospectionVerbs.Has(w):
			f.introHits++
		case text.DescriptionWords.Has(w):
			f.descHits++
		}
		if w == "had" {
			f.hadCount++
		}
	}
	quoted := 0
	for _, q := range quotes {
		quoted += q.End - q.Start
	}
	if len(block) > 0 {
		f.quotedRatio = float64(quoted) / float64(len(block))
	}
	sentences := text.Sentences(block)
	if len(sentences) > 0 {
		f.avgSentenceLen = float64(f.words) / float64(len(sentences))
	}
	f.exclaims = strings.Count(block, "!")
	f.questions = strings.Count(block, "?")
	return f
}

// classRule scores one paragraph type. Registry order doubles as the
// tie-break: on equal scores the earlier rule wins, so classification is
// reproducible.
type classRule struct {
	kind  manuscript.ParagraphType
	score func(f paraFeatures) float64
}

var classRules = []classRule{
	{manuscript.ParagraphDialogue, func(f paraFeatures) float64 {
		if f.quotedRatio >= 0.25 {
			return 1 + f.quotedRatio
		}
		return f.quotedRatio
	}},
	{manuscript.ParagraphAction, func(f paraFeatures) float64 {
		if f.words == 0 {
			return 0
		}
		s := float64(f.actionHits) / float64(f.words) * 12
		if f.avgSentenceLen > 0 && f.avgSentenceLen < 9 {
			s += 0.25
		}
		return s + float64(f.exclaims)*0.05
	}},
	{manuscript.ParagraphIntrospection, func(f paraFeatures) float64 {
		if f.words == 0 {
			return 0
		}
		s := float64(f.introHits) / float64(f.words) * 12
		if f.quotedRatio == 0 {
			s += float64(f.questions) * 0.1
		}
		return s
	}},
	{manuscript.ParagraphDescription, func(f paraFeatures) float64 {
		if f.words == 0 {
			return 0
		}
		s := float64(f.descHits) / float64(f.words) * 12
		if f.avgSentenceLen > 18 {
			s += 0.25
		}
		return s
	}},
	{manuscript.ParagraphExposition, func(f paraFeatures) float64 {
		if f.words == 0 {
			return 0
		}
		return 0.15 + float64(f.hadCount)/float64(f.words)*8
	}},
}

// classifyParagraph picks the highest-scoring type; earlier rules win
// ties.
func classifyParagraph(f paraFeatures) manuscript.ParagraphType {
	best := classRules[0].kind
	bestScore := classRules[0].score(f)
	for _, r := range classRules[1:] {
		if s := r.score(f); s > bestScore {
			best, bestScore = r.kind, s
		}
	}
	return best
}
