package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// EventType categorizes engine notifications.
type EventType string

const (
	EventPassStarted    EventType = "pass.started"
	EventPassCompleted  EventType = "pass.completed"
	EventPassSuperseded EventType = "pass.superseded"
	EventHUDUpdated     EventType = "hud.updated"
)

// Event is one engine notification. Events are advisory: collaborators
// learn that a pass ran or a digest refreshed and pull the artifacts they
// want through the read API.
type Event struct {
	ID        string
	Type      EventType
	ChapterID string
	PassID    string
	Tier      manuscript.Tier
	Duration  time.Duration
	Timestamp time.Time
}

// Handler receives events. Handlers run synchronously on the emitting
// goroutine and must return quickly; anything slow belongs on the
// handler's own goroutine.
type Handler func(Event)

type subscription struct {
	handler Handler
	types   map[EventType]struct{} // nil means all types
}

// Events fans engine notifications out to subscribed handlers. Each
// engine owns its own instance; there is no package-level bus.
type Events struct {
	mu     sync.RWMutex
	subs   map[string]subscription
	logger *slog.Logger
}

// NewEvents creates an empty event sink.
func NewEvents(logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{
		subs:   make(map[string]subscription),
		logger: logger,
	}
}

// Subscribe registers a handler and returns its subscription id. With no
// types given the handler receives every event; otherwise only the listed
// types.
func (e *Events) Subscribe(handler Handler, types ...EventType) string {
	if handler == nil {
		return ""
	}

	var filter map[EventType]struct{}
	if len(types) > 0 {
		filter = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			filter[t] = struct{}{}
		}
	}

	id := uuid.NewString()
	e.mu.Lock()
	e.subs[id] = subscription{handler: handler, types: filter}
	e.mu.Unlock()

	e.logger.Debug("event subscription created", "subscription", id, "types", len(types))
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (e *Events) Unsubscribe(id string) {
	e.mu.Lock()
	delete(e.subs, id)
	e.mu.Unlock()
}

// Emit delivers an event to every matching handler. A panicking handler
// is logged and skipped; it never takes down the pass that emitted.
func (e *Events) Emit(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.subs))
	for _, sub := range e.subs {
		if sub.types != nil {
			if _, ok := sub.types[ev.Type]; !ok {
				continue
			}
		}
		handlers = append(handlers, sub.handler)
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		e.safeCall(h, ev)
	}
}

func (e *Events) safeCall(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event handler panicked",
				"event", ev.ID,
				"type", ev.Type,
				"panic", r)
		}
	}()
	h(ev)
}
