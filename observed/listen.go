package observed

import (
	"fmt"

	"github.com/tailored-agentic-units/reactive/event"
)

// Listen calls fn with the current value each time v changes and the
// context is drained. fn returning false ends the subscription, as does the
// release of token's owner.
func Listen[T any](v *Value[T], token event.Token, fn func(T) bool) event.ID {
	id := v.EventContext().Subscribe(token, func(event.ID) bool {
		return fn(v.Get())
	})
	v.AttachEvent(id)
	return id
}

// ListenFunc attaches fn to any observable.
func ListenFunc(o Observable, token event.Token, fn func()) event.ID {
	id := o.EventContext().Subscribe(token, func(event.ID) bool {
		fn()
		return true
	})
	o.AttachEvent(id)
	return id
}

// Once runs fn after the next change of o, then disposes of the event.
func Once(o Observable, fn func()) event.ID {
	id := o.EventContext().RegisterEvent(func(event.ID) bool {
		fn()
		return false
	}, nil)
	o.AttachOneshotEvent(id)
	return id
}

// Combinator attaches one event to several observables at once.
type Combinator struct {
	members []Observable
}

// Observe groups observables that share an event context. A change to any
// of them activates the combined event; changes within one drain collapse
// into a single call.
func Observe(members ...Observable) Combinator {
	if len(members) == 0 {
		panic(fmt.Errorf("observe: no observables"))
	}
	ctx := members[0].EventContext()
	for _, m := range members[1:] {
		if m.EventContext() != ctx {
			panic(fmt.Errorf("observe: %w", ErrContextMismatch))
		}
	}
	return Combinator{members: members}
}

func (c Combinator) EventContext() *event.Context {
	return c.members[0].EventContext()
}

func (c Combinator) AttachEvent(id event.ID) {
	for _, m := range c.members {
		m.AttachEvent(id)
	}
}

func (c Combinator) AttachOneshotEvent(id event.ID) {
	for _, m := range c.members {
		m.AttachOneshotEvent(id)
	}
}

func (c Combinator) DetachEvent(id event.ID) {
	for _, m := range c.members {
		m.DetachEvent(id)
	}
}

// Update notifies through every member.
func (c Combinator) Update() {
	for _, m := range c.members {
		m.Update()
	}
}

// Listen registers fn once and attaches it to every member.
func (c Combinator) Listen(token event.Token, fn func()) event.ID {
	return ListenFunc(c, token, fn)
}
