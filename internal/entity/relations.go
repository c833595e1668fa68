package entity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// relationRule upgrades an edge when an explicit verb links two names.
// Registry order is the tie-break: when two rules could claim the same
// pair, the earlier rule's type sticks because upgrades never replace a
// specific type.
type relationRule struct {
	re  *regexp.Regexp
	typ manuscript.RelationType
}

var relationRules = []relationRule{
	{regexp.MustCompile(`([A-Z][\w'’-]+)\s+(?:loved|kissed|married)\s+([A-Z][\w'’-]+)`), manuscript.RelationRelatedTo},
	{regexp.MustCompile(`([A-Z][\w'’-]+)\s+(?:attacked|fought|killed)\s+([A-Z][\w'’-]+)`), manuscript.RelationOpposes},
	{regexp.MustCompile(`([A-Z][\w'’-]+)\s+(?:helped|saved|protected)\s+([A-Z][\w'’-]+)`), manuscript.RelationAlliedTo},
	{regexp.MustCompile(`([A-Z][\w'’-]+)\s+(?:hated|feared)\s+([A-Z][\w'’-]+)`), manuscript.RelationOpposes},
	{regexp.MustCompile(`([A-Z][\w'’-]+)\s+(?:trusted|followed)\s+([A-Z][\w'’-]+)`), manuscript.RelationAlliedTo},
}

const evidenceLen = 120

// relate runs the relationship passes over a built node arena. Pass
// results merge through the shared edge map, so the order here only
// decides which specific type wins a contested pair.
func (a *Analyzer) relate(chapterID, chapter string, g *manuscript.EntityGraph, sentences []text.Sentence) {
	byName := resolverFor(g)
	a.coOccur(chapterID, chapter, g)
	a.verbRelations(chapterID, chapter, g, byName)
	a.placeRelations(chapterID, g, sentences)
	a.possessRelations(chapterID, chapter, g, byName)
}

// resolverFor maps every normalized name and alias to its node id. On a
// clash the node with the smaller id wins, which keeps resolution
// reproducible.
func resolverFor(g *manuscript.EntityGraph) map[string]string {
	out := make(map[string]string)
	for _, id := range sortedNodeIDs(g) {
		n := g.Nodes[id]
		keys := []string{manuscript.NormalizeName(n.Name)}
		for _, al := range n.Aliases {
			keys = append(keys, manuscript.NormalizeName(al))
		}
		for _, k := range keys {
			if _, taken := out[k]; !taken {
				out[k] = id
			}
		}
	}
	return out
}

func sortedNodeIDs(g *manuscript.EntityGraph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedEdgeIDs(g *manuscript.EntityGraph) []string {
	ids := make([]string, 0, len(g.Edges))
	for id := range g.Edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ensureEdge returns the edge joining two nodes, creating it with the
// generic interacts type when the pair is new.
func ensureEdge(g *manuscript.EntityGraph, a, b string) *manuscript.EntityEdge {
	id := manuscript.EdgeID(a, b)
	if e := g.Edges[id]; e != nil {
		return e
	}
	src, tgt := a, b
	if tgt < src {
		src, tgt = tgt, src
	}
	e := &manuscript.EntityEdge{ID: id, Source: src, Target: tgt, Type: manuscript.RelationInteracts}
	g.Edges[id] = e
	return e
}

// coOccur links every pair of entities mentioned in the same paragraph
// with a generic interacts edge, counting co-occurrences and capturing
// the paragraph as evidence. Edge sentiment is the mean sentiment of the
// co-occurring paragraphs.
func (a *Analyzer) coOccur(chapterID, chapter string, g *manuscript.EntityGraph) {
	type agg struct {
		sum float64
		n   int
	}
	sentiments := make(map[string]*agg)
	for _, p := range text.Paragraphs(chapter) {
		ids := mentionedIn(g, p.Start, p.End)
		if len(ids) < 2 {
			continue
		}
		s := text.Sentiment(text.Words(p.Text))
		ev := snippet(p.Text)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				e := ensureEdge(g, ids[i], ids[j])
				e.CoOccurrences++
				e.AddChapter(chapterID)
				e.AddEvidence(ev)
				ag := sentiments[e.ID]
				if ag == nil {
					ag = &agg{}
					sentiments[e.ID] = ag
				}
				ag.sum += s
				ag.n++
			}
		}
	}
	for id, ag := range sentiments {
		g.Edges[id].Sentiment = ag.sum / float64(ag.n)
	}
}

// mentionedIn returns the sorted ids of nodes with at least one mention
// inside [start, end).
func mentionedIn(g *manuscript.EntityGraph, start, end int) []string {
	var ids []string
	for _, id := range sortedNodeIDs(g) {
		for _, m := range g.Nodes[id].Mentions {
			if m.Offset >= start && m.Offset < end {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func (a *Analyzer) verbRelations(chapterID, chapter string, g *manuscript.EntityGraph, byName map[string]string) {
	for _, rule := range relationRules {
		for _, m := range rule.re.FindAllStringSubmatch(chapter, -1) {
			src := byName[manuscript.NormalizeName(m[1])]
			tgt := byName[manuscript.NormalizeName(m[2])]
			if src == "" || tgt == "" || src == tgt {
				continue
			}
			e := ensureEdge(g, src, tgt)
			e.Upgrade(rule.typ)
			e.AddChapter(chapterID)
			e.AddEvidence(snippet(m[0]))
		}
	}
}

// placeRelations upgrades character-location pairs that share a sentence
// to located_at.
func (a *Analyzer) placeRelations(chapterID string, g *manuscript.EntityGraph, sentences []text.Sentence) {
	for _, s := range sentences {
		ids := mentionedIn(g, s.Offset, s.End())
		var chars, locs []string
		for _, id := range ids {
			switch g.Nodes[id].Type {
			case manuscript.EntityCharacter:
				chars = append(chars, id)
			case manuscript.EntityLocation:
				locs = append(locs, id)
			}
		}
		for _, c := range chars {
			for _, l := range locs {
				e := ensureEdge(g, c, l)
				e.Upgrade(manuscript.RelationLocatedAt)
				e.AddChapter(chapterID)
			}
		}
	}
}

// possessRelations upgrades owner-object pairs found by the possessive
// patterns to possesses.
func (a *Analyzer) possessRelations(chapterID, chapter string, g *manuscript.EntityGraph, byName map[string]string) {
	link := func(owner, object string) {
		src := byName[manuscript.NormalizeName(owner)]
		tgt := byName[manuscript.NormalizeName(object)]
		if src == "" || tgt == "" || src == tgt {
			return
		}
		e := ensureEdge(g, src, tgt)
		e.Upgrade(manuscript.RelationPossesses)
		e.AddChapter(chapterID)
	}
	for _, m := range possessiveRe.FindAllStringSubmatchIndex(chapter, -1) {
		link(chapter[m[2]:m[3]], chapter[m[0]:m[5]])
	}
	for _, m := range objectOfRe.FindAllStringSubmatchIndex(chapter, -1) {
		link(chapter[m[4]:m[5]], chapter[m[2]:m[5]])
	}
}

// snippet trims evidence to a bounded quote, cutting on a word boundary.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= evidenceLen {
		return s
	}
	cut := s[:evidenceLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
