package observed

import "github.com/tailored-agentic-units/reactive/observability"

const (
	EventFlush         observability.EventType = "observed.flush"
	EventRetryAnomaly  observability.EventType = "observed.retry.anomaly"
	EventListenerPanic observability.EventType = "observed.listener.panic"
)

// Fallback reasons carried in EventRetryAnomaly data.
const (
	reasonDoubleRetry  = "double_retry"
	reasonFlushRefused = "flush_refused"
	reasonRejected     = "rejected"
)
