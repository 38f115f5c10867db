package event

import "github.com/tailored-agentic-units/reactive/observability"

const (
	EventDrain            observability.EventType = "event.drain"
	EventNestedDrain      observability.EventType = "event.drain.nested"
	EventSubscriberPanic  observability.EventType = "event.subscriber.panic"
	EventLivenessPanic    observability.EventType = "event.liveness.panic"
	EventInvalidatedEvent observability.EventType = "event.invalidated"
)
