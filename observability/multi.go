package observability

import "context"

// NoOpObserver drops every event.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// MultiObserver forwards each event to every wrapped observer in order. An
// observer that panics is skipped for that event; the rest still receive it.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver wraps the given observers. Nil entries and NoOpObservers
// are dropped.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, obs := range observers {
		switch obs.(type) {
		case nil, NoOpObserver:
			continue
		}
		m.observers = append(m.observers, obs)
	}
	return m
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		forward(ctx, obs, event)
	}
}

// Len reports how many observers receive events.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

func forward(ctx context.Context, obs Observer, event Event) {
	defer func() { _ = recover() }()
	obs.OnEvent(ctx, event)
}
