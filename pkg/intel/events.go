package intel

import (
	"time"

	"github.com/draftmind/manuscript/internal/core"
	"github.com/draftmind/manuscript/pkg/manuscript"
)

// EventType categorizes engine notifications.
type EventType string

const (
	// EventPassStarted fires when an asynchronous pass begins running.
	EventPassStarted EventType = "pass.started"
	// EventPassCompleted fires when a pass finishes, whether or not its
	// result was published.
	EventPassCompleted EventType = "pass.completed"
	// EventPassSuperseded fires when a newer edit cancels a pass; its
	// result was discarded.
	EventPassSuperseded EventType = "pass.superseded"
	// EventHUDUpdated fires when a pass publishes a fresh chapter digest.
	EventHUDUpdated EventType = "hud.updated"
)

// Event is one engine notification. Events are advisory: subscribers
// learn that a pass ran or a digest refreshed and pull the artifacts
// they want through the read API. Handlers run synchronously on the
// emitting goroutine and must return quickly.
type Event struct {
	ID        string
	Type      EventType
	ChapterID string
	PassID    string
	Tier      manuscript.Tier
	Duration  time.Duration
	Timestamp time.Time
}

// Subscribe registers a handler for the given event types, or for all
// events when none are listed. The returned function removes the
// subscription; calling it more than once is harmless.
func (e *Engine) Subscribe(handler func(Event), types ...EventType) func() {
	if handler == nil {
		return func() {}
	}
	coreTypes := make([]core.EventType, len(types))
	for i, t := range types {
		coreTypes[i] = core.EventType(t)
	}
	id := e.events.Subscribe(func(ev core.Event) {
		handler(Event{
			ID:        ev.ID,
			Type:      EventType(ev.Type),
			ChapterID: ev.ChapterID,
			PassID:    ev.PassID,
			Tier:      ev.Tier,
			Duration:  ev.Duration,
			Timestamp: ev.Timestamp,
		})
	}, coreTypes...)
	return func() { e.events.Unsubscribe(id) }
}

// Metrics is a point-in-time counter snapshot.
type Metrics struct {
	InstantPasses    int64
	DebouncedPasses  int64
	BackgroundPasses int64
	SupersededPasses int64
	ShortCircuits    int64
	PromisesResolved int64

	LastInstantDuration    time.Duration
	LastDebouncedDuration  time.Duration
	LastBackgroundDuration time.Duration
}

// Metrics reports scheduler counters for dashboards and tests.
func (e *Engine) Metrics() Metrics {
	m := e.scheduler.Metrics()
	return Metrics{
		InstantPasses:    m.InstantPasses,
		DebouncedPasses:  m.DebouncedPasses,
		BackgroundPasses: m.BackgroundPasses,
		SupersededPasses: m.SupersededPasses,
		ShortCircuits:    m.ShortCircuits,
		PromisesResolved: m.PromisesResolved,

		LastInstantDuration:    m.LastInstantDuration,
		LastDebouncedDuration:  m.LastDebouncedDuration,
		LastBackgroundDuration: m.LastBackgroundDuration,
	}
}
