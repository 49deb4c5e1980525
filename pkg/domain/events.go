package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPush     EventType = "push"
	EventTruncate EventType = "truncate"
	EventRemove   EventType = "remove"
	EventClear    EventType = "clear"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// CrumbEvent describes a change to one crumb of a trail.
type CrumbEvent struct {
	EventBase
	Entry Entry `json:"entry"`

	// Depth is the trail length after the change.
	Depth int `json:"depth"`

	// Dropped is the number of crumbs removed by a truncation.
	Dropped int `json:"dropped,omitempty"`
}

// NewCrumbEvent builds an event stamped with the current time.
func NewCrumbEvent(typ EventType, sessionID string, entry Entry, depth int) *CrumbEvent {
	return &CrumbEvent{
		EventBase: EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: sessionID,
		},
		Entry: entry,
		Depth: depth,
	}
}

// Hooks defines callbacks for trail observability.
// Nil callbacks are skipped.
type Hooks struct {
	OnPush     func(context.Context, *CrumbEvent)
	OnTruncate func(context.Context, *CrumbEvent)
	OnRemove   func(context.Context, *CrumbEvent)
	OnClear    func(context.Context, *CrumbEvent)
}

// Emit dispatches the event to the matching callback.
func (h Hooks) Emit(ctx context.Context, e *CrumbEvent) {
	var fn func(context.Context, *CrumbEvent)
	switch e.Type {
	case EventPush:
		fn = h.OnPush
	case EventTruncate:
		fn = h.OnTruncate
	case EventRemove:
		fn = h.OnRemove
	case EventClear:
		fn = h.OnClear
	}
	if fn != nil {
		fn(ctx, e)
	}
}

// Join returns hooks that call every callback of each argument in order.
func Join(hooks ...Hooks) Hooks {
	fanout := func(pick func(Hooks) func(context.Context, *CrumbEvent)) func(context.Context, *CrumbEvent) {
		return func(ctx context.Context, e *CrumbEvent) {
			for _, h := range hooks {
				if fn := pick(h); fn != nil {
					fn(ctx, e)
				}
			}
		}
	}
	return Hooks{
		OnPush:     fanout(func(h Hooks) func(context.Context, *CrumbEvent) { return h.OnPush }),
		OnTruncate: fanout(func(h Hooks) func(context.Context, *CrumbEvent) { return h.OnTruncate }),
		OnRemove:   fanout(func(h Hooks) func(context.Context, *CrumbEvent) { return h.OnRemove }),
		OnClear:    fanout(func(h Hooks) func(context.Context, *CrumbEvent) { return h.OnClear }),
	}
}
