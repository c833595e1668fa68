package entity

import (
	"sort"
	"strings"

	"github.com/draftmind/manuscript/internal/text"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// typePriority resolves type conflicts when passes disagree about a name.
// Speaker and attribution evidence make character the strongest claim;
// concept is the weakest.
var typePriority = map[manuscript.EntityType]int{
	manuscript.EntityCharacter: 5,
	manuscript.EntityFaction:   4,
	manuscript.EntityLocation:  3,
	manuscript.EntityObject:    2,
	manuscript.EntityConcept:   1,
}

// group accumulates candidates that share a normalized name.
type group struct {
	display  string
	typ      manuscript.EntityType
	titled   bool
	title    string
	first    int
	firstOff int
	offsets  map[int]struct{}
	aliases  []string
}

// admissible rejects candidates the stoplist or shape rules disqualify:
// too short, too long, purely numeric, or made only of stoplisted words.
func (a *Analyzer) admissible(name string) bool {
	norm := manuscript.NormalizeName(name)
	if len(norm) < 2 || len(norm) > 30 {
		return false
	}
	if numeric(norm) {
		return false
	}
	for _, w := range strings.Fields(norm) {
		if !a.stop.Has(strings.Trim(w, ".")) {
			return true
		}
	}
	return false
}

func numeric(s string) bool {
	seen := false
	for _, r := range s {
		if r == ' ' {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
		seen = true
	}
	return seen
}

// consolidate groups filtered candidates by normalized name. The display
// spelling comes from the earliest candidate, except that a titled
// spelling always wins so honorifics survive on the canonical name.
// Mentions dedupe by offset; the same position found by two passes counts
// once.
func (a *Analyzer) consolidate(cands []candidate) map[string]*group {
	groups := make(map[string]*group)
	for _, c := range cands {
		if !a.admissible(c.name) {
			continue
		}
		key := manuscript.NormalizeName(c.name)
		g := groups[key]
		if g == nil {
			g = &group{
				display:  c.name,
				typ:      c.typ,
				titled:   c.titled,
				first:    c.offset,
				firstOff: c.offset,
				offsets:  map[int]struct{}{c.offset: {}},
			}
			groups[key] = g
			continue
		}
		g.offsets[c.offset] = struct{}{}
		if c.offset < g.first {
			g.first = c.offset
		}
		if typePriority[c.typ] > typePriority[g.typ] {
			g.typ = c.typ
		}
		switch {
		case c.titled && !g.titled:
			g.display, g.titled, g.firstOff = c.name, true, c.offset
		case c.titled == g.titled && c.offset < g.firstOff:
			g.display, g.firstOff = c.name, c.offset
		}
	}
	a.mergeTitled(groups)
	a.mergePlaces(groups)
	return groups
}

// mergeTitled folds a bare-name group into its titled counterpart, so
// "Mr. Voss" and "Voss" become one node with the title preserved and the
// bare name kept as an alias.
func (a *Analyzer) mergeTitled(groups map[string]*group) {
	for _, key := range sortedGroupKeys(groups) {
		g := groups[key]
		if g == nil || !g.titled {
			continue
		}
		fields := strings.Fields(key)
		if len(fields) < 2 {
			continue
		}
		g.title = strings.TrimSuffix(strings.Fields(g.display)[0], ".")
		bare := strings.Join(fields[1:], " ")
		other := groups[bare]
		if other == nil {
			g.aliases = append(g.aliases, bareDisplay(g.display))
			continue
		}
		absorb(g, other)
		g.aliases = append(g.aliases, other.display)
		delete(groups, bare)
	}
}

// bareDisplay strips the leading title word from a display name.
func bareDisplay(display string) string {
	fields := strings.Fields(display)
	if len(fields) < 2 {
		return display
	}
	return strings.Join(fields[1:], " ")
}

// mergePlaces folds a location group into the longer group that names the
// same place with its noun attached, so "Broken Lantern" and "Broken
// Lantern tavern" become one node.
func (a *Analyzer) mergePlaces(groups map[string]*group) {
	for _, key := range sortedGroupKeys(groups) {
		g := groups[key]
		if g == nil || g.typ != manuscript.EntityLocation {
			continue
		}
		fields := strings.Fields(key)
		if len(fields) < 2 || !placeNouns.Has(fields[len(fields)-1]) {
			continue
		}
		bare := strings.Join(fields[:len(fields)-1], " ")
		other := groups[bare]
		if other == nil || other.typ != manuscript.EntityLocation {
			continue
		}
		absorb(g, other)
		g.aliases = append(g.aliases, other.display)
		delete(groups, bare)
	}
}

func sortedGroupKeys(groups map[string]*group) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// absorb merges src's accumulated state into dst, keeping dst canonical.
func absorb(dst, src *group) {
	for off := range src.offsets {
		dst.offsets[off] = struct{}{}
	}
	if src.first < dst.first {
		dst.first = src.first
	}
	if typePriority[src.typ] > typePriority[dst.typ] {
		dst.typ = src.typ
	}
	dst.aliases = append(dst.aliases, src.aliases...)
}

// buildGraph turns consolidated groups into the node arena. Group keys are
// walked in sorted order so node construction is reproducible; mention
// lists keep the earliest offsets when the cap bites.
func (a *Analyzer) buildGraph(chapterID string, groups map[string]*group) *manuscript.EntityGraph {
	g := manuscript.NewEntityGraph()
	for _, key := range sortedGroupKeys(groups) {
		gr := groups[key]
		node := &manuscript.EntityNode{
			ID:           manuscript.EntityID(gr.display, gr.typ),
			Name:         gr.display,
			Type:         gr.typ,
			FirstMention: gr.first,
			MentionCount: len(gr.offsets),
		}
		offs := make([]int, 0, len(gr.offsets))
		for off := range gr.offsets {
			offs = append(offs, off)
		}
		sort.Ints(offs)
		if len(offs) > a.limits.MaxMentionsPerEntity {
			offs = offs[:a.limits.MaxMentionsPerEntity]
		}
		for _, off := range offs {
			node.Mentions = append(node.Mentions, manuscript.Mention{Offset: off, ChapterID: chapterID})
		}
		for _, al := range gr.aliases {
			node.AddAlias(al)
		}
		if gr.title != "" {
			node.AddAttribute("title", gr.title)
		}
		g.Nodes[node.ID] = node
	}
	return g
}

// stopFor builds the candidate filter from the shared stoplist and any
// configured extras.
func stopFor(extra []string) text.Set {
	s := stoplist()
	s.Add(extra...)
	return s
}
