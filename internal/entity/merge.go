package entity

import (
	"sort"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Merge combines per-chapter graphs into a book-level graph. Nodes merge
// by normalized name: mention counts sum, mention lists and alias sets
// union, the earliest first mention survives, and the canonical spelling
// is the lexically smallest variant so the result does not depend on
// merge order. Edges merge by node pair: co-occurrences sum, chapter sets
// union, evidence concatenates up to the cap, and relation types follow
// the upgrade-only rule. Inputs are never mutated; callers merging
// against graphs that may still change should hand in clones.
func (a *Analyzer) Merge(graphs ...*manuscript.EntityGraph) *manuscript.EntityGraph {
	out := manuscript.NewEntityGraph()
	byName := make(map[string]*manuscript.EntityNode)
	toKey := make(map[string]string)

	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, id := range sortedNodeIDs(g) {
			n := g.Nodes[id]
			key := manuscript.NormalizeName(n.Name)
			toKey[id] = key
			ex := byName[key]
			if ex == nil {
				byName[key] = n.Clone()
				continue
			}
			mergeNode(ex, n)
		}
	}

	idOf := make(map[string]string, len(byName))
	for _, key := range sortedKeys(byName) {
		n := byName[key]
		n.ID = manuscript.EntityID(n.Name, n.Type)
		sort.Slice(n.Mentions, func(i, j int) bool {
			if n.Mentions[i].ChapterID != n.Mentions[j].ChapterID {
				return n.Mentions[i].ChapterID < n.Mentions[j].ChapterID
			}
			return n.Mentions[i].Offset < n.Mentions[j].Offset
		})
		if len(n.Mentions) > a.limits.MaxMentionsPerEntity {
			n.Mentions = n.Mentions[:a.limits.MaxMentionsPerEntity]
		}
		out.Nodes[n.ID] = n
		idOf[key] = n.ID
	}

	type agg struct {
		sum float64
		w   float64
	}
	sentiments := make(map[string]*agg)
	for _, g := range graphs {
		if g == nil {
			continue
		}
		for _, eid := range sortedEdgeIDs(g) {
			e := g.Edges[eid]
			src, tgt := idOf[toKey[e.Source]], idOf[toKey[e.Target]]
			if src == "" || tgt == "" || src == tgt {
				continue
			}
			me := ensureEdge(out, src, tgt)
			me.CoOccurrences += e.CoOccurrences
			me.Upgrade(e.Type)
			for _, c := range e.Chapters {
				me.AddChapter(c)
			}
			for _, ev := range e.Evidence {
				me.AddEvidence(ev)
			}
			w := float64(e.CoOccurrences)
			if w == 0 {
				w = 1
			}
			ag := sentiments[me.ID]
			if ag == nil {
				ag = &agg{}
				sentiments[me.ID] = ag
			}
			ag.sum += e.Sentiment * w
			ag.w += w
		}
	}
	for id, ag := range sentiments {
		out.Edges[id].Sentiment = ag.sum / ag.w
	}
	return out
}

// mergeNode folds src into dst under the order-independent rules: summed
// counts, unioned sets, minimum first mention, highest-priority type, and
// the lexically smallest spelling as canonical.
func mergeNode(dst *manuscript.EntityNode, src *manuscript.EntityNode) {
	dst.MentionCount += src.MentionCount
	dst.Mentions = append(dst.Mentions, src.Mentions...)
	if src.FirstMention < dst.FirstMention {
		dst.FirstMention = src.FirstMention
	}
	if typePriority[src.Type] > typePriority[dst.Type] {
		dst.Type = src.Type
	}
	if src.Name != dst.Name {
		if src.Name < dst.Name {
			old := dst.Name
			dst.Name = src.Name
			dst.AddAlias(old)
		} else {
			dst.AddAlias(src.Name)
		}
	}
	for _, al := range src.Aliases {
		dst.AddAlias(al)
	}
	for _, attr := range sortedAttrKeys(src.Attributes) {
		for _, v := range src.Attributes[attr] {
			dst.AddAttribute(attr, v)
		}
	}
}

func sortedKeys(m map[string]*manuscript.EntityNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAttrKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
