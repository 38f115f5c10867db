// Package event implements the registry that observed values notify.
//
// A subscriber registers an activation closure and a liveness check and
// receives an ID. Observed values activate ids when they change; activation
// only marks the id pending. ExecuteActiveEventsImmediately later runs the
// pending snapshot once, in activation order.
//
//	ctx := event.NewContext()
//	id := ctx.RegisterEvent(func(event.ID) bool { render(); return true }, nil)
//	ctx.ActivateEvent(id)
//	ctx.ExecuteActiveEventsImmediately()
//
// A Context is single threaded and must only be touched from the thread that
// owns the observed values attached to it.
package event

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/reactive/observability"
)

const source = "event.Context"

// Option configures a Context.
type Option func(*Context)

// WithObserver replaces the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Context) { c.observer = o }
}

// WithID overrides the generated context id.
func WithID(id string) Option {
	return func(c *Context) { c.id = id }
}

// Context owns the event registry and the after-effect registry.
type Context struct {
	id           string
	events       registry
	afterEffects registry
	observer     observability.Observer
	metrics      *Metrics
	draining     bool
}

// NewContext creates an empty Context with a UUIDv7 identifier.
func NewContext(opts ...Option) *Context {
	c := &Context{
		id:           uuid.Must(uuid.NewV7()).String(),
		events:       newRegistry(),
		afterEffects: newRegistry(),
		observer:     observability.NewSlogObserver(nil),
		metrics:      NewMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = observability.NoOpObserver{}
	}
	return c
}

func (c *Context) ID() string {
	return c.id
}

// Observer returns the observer diagnostics are sent to. Observed values
// attached to this context report through it as well.
func (c *Context) Observer() observability.Observer {
	return c.observer
}

func (c *Context) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// RegisterEvent stores a subscriber. activate returns false when the
// subscriber is gone, which disposes of the event. isAlive may be nil,
// meaning the event lives until it is removed or activate returns false.
func (c *Context) RegisterEvent(activate func(ID) bool, isAlive func() bool) ID {
	c.metrics.RecordRegistered(1)
	return c.events.append(&entry{activate: activate, alive: isAlive})
}

// Subscribe registers fn guarded by token: once the token's owner is
// released the event is pruned without fn being called again.
func (c *Context) Subscribe(token Token, fn func(ID) bool) ID {
	return c.RegisterEvent(func(id ID) bool {
		if !token.Alive() {
			return false
		}
		return fn(id)
	}, token.Alive)
}

// ActivateEvent marks id pending. It returns false when id is unknown or its
// subscriber is no longer alive; a dead entry is removed.
func (c *Context) ActivateEvent(id ID) bool {
	ok := c.events.selectID(id, c.alive)
	if ok {
		c.metrics.RecordActivated(1)
	}
	return ok
}

// RegisterAfterEffect stores an event that runs after the regular events of
// the drain in which it is active.
func (c *Context) RegisterAfterEffect(activate func(ID) bool, isAlive func() bool) ID {
	c.metrics.RecordRegistered(1)
	return c.afterEffects.append(&entry{activate: activate, alive: isAlive})
}

// ActivateAfterEffect marks an after-effect pending.
func (c *Context) ActivateAfterEffect(id ID) bool {
	ok := c.afterEffects.selectID(id, c.alive)
	if ok {
		c.metrics.RecordActivated(1)
	}
	return ok
}

// RemoveEvent unregisters a regular event and drops it from the pending set.
func (c *Context) RemoveEvent(id ID) bool {
	c.events.unselect(id)
	return c.events.remove(id)
}

// Len returns the number of registered regular events.
func (c *Context) Len() int {
	return len(c.events.entries)
}

// Pending returns the number of activated events that have not run yet.
func (c *Context) Pending() int {
	return len(c.events.active) + len(c.afterEffects.active)
}

// ExecuteActiveEventsImmediately runs the snapshot of pending events, then
// the pending after-effects. Events activated while the snapshot runs are
// deferred to the next call. Called from inside an executing event it does
// nothing and returns false.
func (c *Context) ExecuteActiveEventsImmediately() bool {
	if c.draining {
		observability.Emit(c.observer, EventNestedDrain, observability.LevelWarning, source, map[string]any{
			"context_id": c.id,
			"pending":    c.Pending(),
		})
		return false
	}

	c.draining = true
	defer func() { c.draining = false }()

	executed := c.run(&c.events, c.events.takeActive())
	executed += c.run(&c.afterEffects, c.afterEffects.takeActive())

	c.metrics.RecordDrain()
	observability.Emit(c.observer, EventDrain, observability.LevelVerbose, source, map[string]any{
		"context_id": c.id,
		"executed":   executed,
		"deferred":   c.Pending(),
	})
	return true
}

// ExecuteEvent runs a single regular event now, whether or not it is pending.
func (c *Context) ExecuteEvent(id ID) error {
	if c.draining {
		return ErrNestedDrain
	}
	if _, ok := c.events.entries[id]; !ok {
		return fmt.Errorf("execute %d: %w", id, ErrUnknownEvent)
	}

	c.draining = true
	defer func() { c.draining = false }()

	c.events.unselect(id)
	c.run(&c.events, []ID{id})
	return nil
}

// CleanInvalidEvents drops every registered event whose subscriber is gone.
func (c *Context) CleanInvalidEvents() int {
	removed := 0
	for _, r := range []*registry{&c.events, &c.afterEffects} {
		for id, e := range r.entries {
			if !c.alive(e) {
				r.unselect(id)
				delete(r.entries, id)
				removed++
			}
		}
	}
	c.metrics.RecordPruned(removed)
	return removed
}

func (c *Context) run(r *registry, ids []ID) int {
	executed := 0
	for _, id := range ids {
		e, ok := r.entries[id]
		if !ok {
			continue
		}
		if !c.alive(e) {
			delete(r.entries, id)
			c.metrics.RecordPruned(1)
			continue
		}
		executed++
		if !c.call(id, e) {
			delete(r.entries, id)
			c.metrics.RecordPruned(1)
			observability.Emit(c.observer, EventInvalidatedEvent, observability.LevelVerbose, source, map[string]any{
				"context_id": c.id,
				"event_id":   uint64(id),
			})
		}
	}
	c.metrics.RecordExecuted(executed)
	return executed
}

// call runs the activation. A panicking subscriber is reported and kept: it
// must not stop its siblings from running.
func (c *Context) call(id ID, e *entry) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			keep = true
			c.metrics.RecordPanic()
			observability.Emit(c.observer, EventSubscriberPanic, observability.LevelWarning, source, map[string]any{
				"context_id": c.id,
				"event_id":   uint64(id),
				"panic":      fmt.Sprint(r),
			})
		}
	}()
	return e.activate(id)
}

func (c *Context) alive(e *entry) (alive bool) {
	if e.alive == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			alive = false
			observability.Emit(c.observer, EventLivenessPanic, observability.LevelWarning, source, map[string]any{
				"context_id": c.id,
				"panic":      fmt.Sprint(r),
			})
		}
	}()
	return e.alive()
}
