package rangediff

import "github.com/tailored-agentic-units/reactive/observability"

const (
	EventRejected   observability.EventType = "range.rejected"
	EventEraseFixup observability.EventType = "range.erase.fixup"
)
