// Package delta diffs two snapshots of a chapter and maps the changed
// range onto the previous pass's artifacts: which sections are invalidated,
// which entities moved or were edited, which promises had their setup or
// payoff touched. It performs no recomputation; callers read the sets to
// scope the next pass.
package delta

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Tracker computes deltas. It is stateless; one instance serves all
// chapters concurrently.
type Tracker struct{}

// New returns a delta tracker.
func New() *Tracker {
	return &Tracker{}
}

// Track diffs prev against curr and scopes the result using the prior
// intelligence snapshot, which was computed over prev. Any of the prior
// layers may be nil; the corresponding invalidation set stays empty. An
// identical pair yields an empty delta carrying only the content hash.
func (t *Tracker) Track(chapterID, prev, curr string, prior *manuscript.Intelligence) *manuscript.Delta {
	d := &manuscript.Delta{
		ChapterID:   chapterID,
		ContentHash: manuscript.ContentHash(curr),
	}
	if prev == curr {
		return d
	}

	change := diff(prev, curr)
	d.Changes = []manuscript.TextChange{change}

	// Invalidation works in prev coordinates, where the prior artifacts
	// live. An insert is a zero-width point there.
	prevSpan := change.Span
	if change.Type == manuscript.ChangeInsert {
		prevSpan = manuscript.Span{Start: change.Span.Start, End: change.Span.Start}
	}
	shift := len(change.NewText) - len(change.OldText)

	if prior != nil {
		d.InvalidatedSections = invalidatedSections(chapterID, prior.Structure, prevSpan)
		d.AffectedEntities = affectedEntities(chapterID, prior.Graph, prevSpan, shift)
		d.TouchedPromises = touchedPromises(chapterID, prior.Timeline, prevSpan)
	}
	return d
}

// diff trims the common prefix and suffix and classifies the remainder.
// Compound edits between two snapshots collapse into one contiguous
// change. Spans follow the TextChange convention: prev coordinates for
// deletes and modifies, curr coordinates for inserts (identical up to the
// change start, so Start is the same either way).
func diff(prev, curr string) manuscript.TextChange {
	p := commonPrefix(prev, curr)
	s := commonSuffix(prev[p:], curr[p:])
	oldMid := prev[p : len(prev)-s]
	newMid := curr[p : len(curr)-s]

	switch {
	case len(oldMid) == 0:
		return manuscript.TextChange{
			Span:    manuscript.Span{Start: p, End: p + len(newMid)},
			Type:    manuscript.ChangeInsert,
			NewText: newMid,
		}
	case len(newMid) == 0:
		return manuscript.TextChange{
			Span:    manuscript.Span{Start: p, End: p + len(oldMid)},
			Type:    manuscript.ChangeDelete,
			OldText: oldMid,
		}
	default:
		return manuscript.TextChange{
			Span:    manuscript.Span{Start: p, End: p + len(oldMid)},
			Type:    manuscript.ChangeModify,
			OldText: oldMid,
			NewText: newMid,
		}
	}
}

// commonPrefix returns the length of the shared prefix, backed off so it
// never ends inside a multi-byte rune.
func commonPrefix(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	for i > 0 && i < len(a) && !utf8.RuneStart(a[i]) {
		i--
	}
	return i
}

// commonSuffix returns the length of the shared suffix of two strings that
// already had their common prefix removed, again on a rune boundary.
func commonSuffix(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	for i > 0 && !utf8.RuneStart(a[len(a)-i]) {
		i--
	}
	return i
}

// invalidatedSections lists the section ids whose scene meets the changed
// range. A scene's coverage runs to the next scene's start, so edits in
// the blank gap between paragraphs still invalidate a neighbor, and the
// last scene covers trailing appends. Comparisons are closed: an edit
// exactly on a boundary invalidates both sides. Over-invalidating is
// safe; missing a section is not.
func invalidatedSections(chapterID string, sf *manuscript.StructuralFingerprint, change manuscript.Span) []string {
	if sf == nil {
		return nil
	}
	var out []string
	for i, scene := range sf.Scenes {
		start := scene.Span.Start
		if i == 0 {
			start = 0
		}
		end := math.MaxInt
		if i+1 < len(sf.Scenes) {
			end = sf.Scenes[i+1].Span.Start
		}
		if start <= change.End && change.Start <= end {
			out = append(out, manuscript.SectionID(chapterID, i))
		}
	}
	return out
}

// affectedEntities lists node ids with a mention inside the changed range
// or past it when the edit shifted offsets. Output is ordered by node id.
func affectedEntities(chapterID string, g *manuscript.EntityGraph, change manuscript.Span, shift int) []string {
	if g == nil {
		return nil
	}
	var out []string
	for _, id := range sortedNodeIDs(g) {
		for _, m := range g.Nodes[id].Mentions {
			if m.ChapterID != chapterID {
				continue
			}
			if change.Contains(m.Offset) || (shift != 0 && m.Offset >= change.End) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// touchedPromises lists promises whose setup quote overlaps the changed
// range, or is split by an insertion point, or whose payoff offset falls
// inside it.
func touchedPromises(chapterID string, tl *manuscript.Timeline, change manuscript.Span) []string {
	if tl == nil {
		return nil
	}
	var out []string
	for i := range tl.Promises {
		p := &tl.Promises[i]
		origin := p.ChapterID == chapterID && rangeTouched(p.Offset, len(p.Quote), change)
		payoff := p.Resolved && p.ResolutionChapter == chapterID && change.Contains(p.ResolutionOffset)
		if origin || payoff {
			out = append(out, p.ID)
		}
	}
	return out
}

// rangeTouched reports whether [start, start+length) meets the changed
// span. A zero-width change is an insertion point and touches the range
// only when it lands strictly inside it.
func rangeTouched(start, length int, change manuscript.Span) bool {
	if change.Length() == 0 {
		return start < change.Start && change.Start < start+length
	}
	return start < change.End && change.Start < start+length
}

func sortedNodeIDs(g *manuscript.EntityGraph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
