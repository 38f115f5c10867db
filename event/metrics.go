package event

import "sync/atomic"

type MetricsSnapshot struct {
	Registered int64
	Activated  int64
	Executed   int64
	Pruned     int64
	Panics     int64
	Drains     int64
}

// Metrics counts registry activity. Counters are atomic so another goroutine
// may read a snapshot while the owning thread mutates the context.
type Metrics struct {
	registered atomic.Int64
	activated  atomic.Int64
	executed   atomic.Int64
	pruned     atomic.Int64
	panics     atomic.Int64
	drains     atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordRegistered(delta int) {
	m.registered.Add(int64(delta))
}

func (m *Metrics) RecordActivated(delta int) {
	m.activated.Add(int64(delta))
}

func (m *Metrics) RecordExecuted(delta int) {
	m.executed.Add(int64(delta))
}

func (m *Metrics) RecordPruned(delta int) {
	m.pruned.Add(int64(delta))
}

func (m *Metrics) RecordPanic() {
	m.panics.Add(1)
}

func (m *Metrics) RecordDrain() {
	m.drains.Add(1)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Registered: m.registered.Load(),
		Activated:  m.activated.Load(),
		Executed:   m.executed.Load(),
		Pruned:     m.pruned.Load(),
		Panics:     m.panics.Load(),
		Drains:     m.drains.Load(),
	}
}
