package engine

import "github.com/tailored-agentic-units/reactive/observability"

const (
	EventStart observability.EventType = "engine.start"
	EventClean observability.EventType = "engine.clean"
)
