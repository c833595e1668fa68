// Package timeline builds the temporal and causal layer: explicit time
// markers, cause/effect chains, and plot promises tracked from setup to
// payoff. Everything is pattern-driven and deterministic; the same text
// always yields the same timeline.
package timeline

import (
	"github.com/draftmind/manuscript/internal/config"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// Analyzer extracts a chapter's timeline.
type Analyzer struct {
	limits config.Limits
}

// New returns an analyzer using the given limits.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{limits: cfg.Limits}
}

// Analyze builds the timeline for one chapter. The prior snapshot, when
// present, only contributes promise resolutions: a promise resolved once
// stays resolved across re-analysis even if the payoff text moved.
func (a *Analyzer) Analyze(chapterID, s string, prior *manuscript.Timeline) *manuscript.Timeline {
	markers := FindMarkers(s)
	if len(markers) > a.limits.MaxTemporalMarkers {
		markers = markers[:a.limits.MaxTemporalMarkers]
	}

	promises := extractPromises(chapterID, s, a.limits.MaxPromises)
	resolvePromises(promises, chapterID, s)
	carryResolutions(promises, prior)

	return &manuscript.Timeline{
		ChapterID: chapterID,
		Markers:   markers,
		Chains:    extractChains(chapterID, s, a.limits.MaxCausalChains),
		Promises:  promises,
	}
}

// ResolveCarried scans this chapter's text for payoffs of promises that
// originated elsewhere. It returns updated copies; the originals are not
// mutated. The cross-chapter merge feeds open promises from every other
// chapter through here.
func (a *Analyzer) ResolveCarried(carried []manuscript.PlotPromise, chapterID, s string) []manuscript.PlotPromise {
	if len(carried) == 0 {
		return nil
	}
	out := make([]manuscript.PlotPromise, len(carried))
	copy(out, carried)
	resolvePromises(out, chapterID, s)
	return out
}
