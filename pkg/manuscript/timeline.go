package manuscript

// EventOrder places a temporal marker relative to the surrounding narration.
type EventOrder string

const (
	OrderBefore     EventOrder = "before"
	OrderAfter      EventOrder = "after"
	OrderConcurrent EventOrder = "concurrent"
	OrderUnknown    EventOrder = "unknown"
)

// TimeScale is the coarse magnitude of a temporal jump, used for detecting
// scene breaks on large jumps.
type TimeScale int

const (
	ScaleMoment TimeScale = iota
	ScaleHours
	ScaleDays
	ScaleYears
)

// TemporalMarker is one detected time expression.
type TemporalMarker struct {
	Text   string     `json:"text"`
	Offset int        `json:"offset"`
	Order  EventOrder `json:"order"`
	Scale  TimeScale  `json:"scale"`
}

// CausalChain links a cause passage to an effect passage through a detected
// linguistic marker.
type CausalChain struct {
	ID           string  `json:"id"`
	CauseQuote   string  `json:"cause_quote"`
	CauseOffset  int     `json:"cause_offset"`
	EffectQuote  string  `json:"effect_quote"`
	EffectOffset int     `json:"effect_offset"`
	Marker       string  `json:"marker"`
	Confidence   float64 `json:"confidence"`
}

// PromiseKind categorizes a plot promise.
type PromiseKind string

const (
	PromiseForeshadowing PromiseKind = "foreshadowing"
	PromiseSetup         PromiseKind = "setup"
	PromiseQuestion      PromiseKind = "question"
	PromiseConflict      PromiseKind = "conflict"
	PromiseGoal          PromiseKind = "goal"
)

// PlotPromise is a narrative setup awaiting payoff. Resolved is monotonic:
// once a payoff is recorded it is never cleared.
type PlotPromise struct {
	ID                string      `json:"id"`
	Kind              PromiseKind `json:"kind"`
	Description       string      `json:"description"`
	Quote             string      `json:"quote"`
	Offset            int         `json:"offset"`
	ChapterID         string      `json:"chapter_id"`
	Resolved          bool        `json:"resolved"`
	ResolutionOffset  int         `json:"resolution_offset,omitempty"`
	ResolutionChapter string      `json:"resolution_chapter,omitempty"`
}

// Resolve records the payoff location. Calling it again is a no-op so the
// first detected payoff wins and the flag never regresses.
func (p *PlotPromise) Resolve(offset int, chapterID string) {
	if p.Resolved {
		return
	}
	p.Resolved = true
	p.ResolutionOffset = offset
	p.ResolutionChapter = chapterID
}

// Timeline is the temporal/causal layer for one chapter.
type Timeline struct {
	ChapterID string           `json:"chapter_id"`
	Markers   []TemporalMarker `json:"markers"`
	Chains    []CausalChain    `json:"chains"`
	Promises  []PlotPromise    `json:"promises"`
}

// OpenPromises returns the promises still awaiting payoff, in order.
func (t *Timeline) OpenPromises() []PlotPromise {
	if t == nil {
		return nil
	}
	var out []PlotPromise
	for _, p := range t.Promises {
		if !p.Resolved {
			out = append(out, p)
		}
	}
	return out
}
