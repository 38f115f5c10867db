// Package observed wraps values and sequences so that every write notifies
// the events attached to them.
//
// Observed values never call subscribers directly. A write activates the
// attached event ids on the value's event.Context; subscribers run when the
// context is drained, or right away when the value was created with
// InstantUpdate.
//
//	ctx := event.NewContext()
//	count := observed.NewValue(ctx, 0)
//	observed.Listen(count, event.Token{}, func(n int) bool {
//		fmt.Println("count:", n)
//		return true
//	})
//	observed.Increment(count)
//	ctx.ExecuteActiveEventsImmediately()
//
// Sequences are tracked with a rangediff.Context, so range listeners learn
// which indices changed instead of re-reading the whole slice.
package observed

import (
	"fmt"

	"github.com/tailored-agentic-units/reactive/event"
)

// Observable is implemented by every observed value.
type Observable interface {
	EventContext() *event.Context
	AttachEvent(id event.ID)
	AttachOneshotEvent(id event.ID)
	DetachEvent(id event.ID)
	Update()
}

// Base holds the event ids attached to one observed value.
type Base struct {
	ctx      *event.Context
	attached []event.ID
	oneshot  []event.ID
	instant  bool
}

func newBase(ctx *event.Context, opts []Option) Base {
	if ctx == nil {
		panic(fmt.Errorf("observed: nil event context"))
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return Base{ctx: ctx, instant: cfg.InstantUpdate}
}

func (b *Base) EventContext() *event.Context {
	return b.ctx
}

// InstantUpdate reports whether Update drains the context immediately.
func (b *Base) InstantUpdate() bool {
	return b.instant
}

// AttachEvent activates id on every future Update until it is detached or
// its subscriber is gone.
func (b *Base) AttachEvent(id event.ID) {
	b.attached = append(b.attached, id)
}

// AttachOneshotEvent activates id on the next Update only.
func (b *Base) AttachOneshotEvent(id event.ID) {
	b.oneshot = append(b.oneshot, id)
}

func (b *Base) DetachEvent(id event.ID) {
	b.attached = removeID(b.attached, id)
	b.oneshot = removeID(b.oneshot, id)
}

// Attached returns the number of persistent event ids, dead ones included
// until the next Update prunes them.
func (b *Base) Attached() int {
	return len(b.attached)
}

// Update activates every attached event and the pending one-shot events.
// Ids whose subscriber is gone are dropped here.
func (b *Base) Update() {
	live := b.attached[:0]
	for _, id := range b.attached {
		if b.ctx.ActivateEvent(id) {
			live = append(live, id)
		}
	}
	clear(b.attached[len(live):])
	b.attached = live

	oneshot := b.oneshot
	b.oneshot = nil
	for _, id := range oneshot {
		b.ctx.ActivateEvent(id)
	}

	if b.instant {
		b.ctx.ExecuteActiveEventsImmediately()
	}
}

func removeID(ids []event.ID, id event.ID) []event.ID {
	out := ids[:0]
	for _, other := range ids {
		if other != id {
			out = append(out, other)
		}
	}
	clear(ids[len(out):])
	return out
}
