package timeline

import (
	"regexp"
	"sort"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// markerPattern binds one temporal expression to its narrative order and
// time scale. The table is the single source of truth: adding a phrase
// here is all it takes to teach the engine a new marker.
type markerPattern struct {
	re    *regexp.Regexp
	order manuscript.EventOrder
	scale manuscript.TimeScale
}

var markerPatterns = []markerPattern{
	// Forward jumps, smallest scale first.
	{regexp.MustCompile(`(?i)\b(a moment later|moments later|a second later|seconds later|an instant later|just then)\b`),
		manuscript.OrderAfter, manuscript.ScaleMoment},
	{regexp.MustCompile(`(?i)\b(the next morning|the next evening|the next night|that evening|that night|later that (?:day|night|evening|morning)|hours later|an hour later|by (?:evening|nightfall|morning|noon|dawn|dusk)|after (?:dinner|breakfast|lunch|dark))\b`),
		manuscript.OrderAfter, manuscript.ScaleHours},
	{regexp.MustCompile(`(?i)\b(the next day|the following (?:day|week|month)|days later|a week later|weeks later|the day after|within days)\b`),
		manuscript.OrderAfter, manuscript.ScaleDays},
	{regexp.MustCompile(`(?i)\b(years later|a year later|months later|a month later|decades later|a decade later|many years after)\b`),
		manuscript.OrderAfter, manuscript.ScaleYears},

	// Backward references.
	{regexp.MustCompile(`(?i)\b(moments (?:ago|before|earlier)|a moment (?:ago|earlier)|seconds (?:ago|before))\b`),
		manuscript.OrderBefore, manuscript.ScaleMoment},
	{regexp.MustCompile(`(?i)\b(hours (?:ago|earlier|before)|earlier that (?:day|night|morning|evening)|that morning)\b`),
		manuscript.OrderBefore, manuscript.ScaleHours},
	{regexp.MustCompile(`(?i)\b(the day before|the previous (?:day|night|week)|yesterday|last (?:night|week|month))\b`),
		manuscript.OrderBefore, manuscript.ScaleDays},
	{regexp.MustCompile(`(?i)\b(years (?:ago|before|earlier)|a year (?:ago|earlier)|months ago|long ago|back then|last year|in those days|when (?:he|she|they) (?:was|were) (?:young|a boy|a girl|a child))\b`),
		manuscript.OrderBefore, manuscript.ScaleYears},

	// Simultaneity.
	{regexp.MustCompile(`(?i)\b(meanwhile|at the same time|at that (?:very )?moment|elsewhere|across town|all the while)\b`),
		manuscript.OrderConcurrent, manuscript.ScaleMoment},
}

// FindMarkers scans text for temporal expressions and returns them in
// offset order. Offsets index the passed string; callers slicing a larger
// document shift them by the slice start. Overlapping matches collapse to
// the longest one, so "later that morning" is a single forward marker.
func FindMarkers(s string) []manuscript.TemporalMarker {
	var all []manuscript.TemporalMarker
	for _, p := range markerPatterns {
		for _, loc := range p.re.FindAllStringIndex(s, -1) {
			all = append(all, manuscript.TemporalMarker{
				Text:   s[loc[0]:loc[1]],
				Offset: loc[0],
				Order:  p.order,
				Scale:  p.scale,
			})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Offset != all[j].Offset {
			return all[i].Offset < all[j].Offset
		}
		return len(all[i].Text) > len(all[j].Text)
	})
	var out []manuscript.TemporalMarker
	lastEnd := -1
	for _, m := range all {
		if m.Offset < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.Offset + len(m.Text)
	}
	return out
}

// OpeningMarker reports whether the text begins with a temporal
// expression within its first few words. The structural analyzer treats
// marker-led paragraphs ("The next morning, ...") as scene boundaries.
func OpeningMarker(s string) (manuscript.TemporalMarker, bool) {
	const window = 40
	head := s
	if len(head) > window {
		head = head[:window]
	}
	for _, m := range FindMarkers(head) {
		if m.Offset <= 12 {
			return m, true
		}
	}
	return manuscript.TemporalMarker{}, false
}
