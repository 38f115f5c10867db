package observed

import (
	"fmt"
	"slices"

	"github.com/tailored-agentic-units/reactive/event"
	"github.com/tailored-agentic-units/reactive/observability"
	"github.com/tailored-agentic-units/reactive/rangediff"
)

// RangeUpdate is one committed epoch handed to range listeners.
type RangeUpdate[T any] struct {
	// Full asks the listener to rebuild its view from Values.
	Full   bool
	Type   rangediff.OperationType
	Ranges []rangediff.Range
	// Values is the slice content at commit time. It is only valid for the
	// duration of the listener call and must not be modified.
	Values []T
}

// Apply brings view, a copy of the slice as of the previous update, in line
// with the committed epoch and returns it. Insert ranges are applied in
// ascending order, Erase ranges in descending order.
func (u RangeUpdate[T]) Apply(view []T) []T {
	if u.Full {
		return append(view[:0], u.Values...)
	}
	switch u.Type {
	case rangediff.Modify:
		for _, r := range u.Ranges {
			copy(view[r.Low:r.High+1], u.Values[r.Low:r.High+1])
		}
	case rangediff.Insert:
		for _, r := range u.Ranges {
			view = slices.Insert(view, r.Low, u.Values[r.Low:r.High+1]...)
		}
	case rangediff.Erase:
		for _, r := range slices.Backward(u.Ranges) {
			view = slices.Delete(view, r.Low, r.High+1)
		}
	}
	return view
}

type rangeListener[T any] struct {
	token event.Token
	fn    func(RangeUpdate[T])
}

// ListenRanges hooks a consumer to the committed epochs of s. All range
// listeners of a slice share one internal event which snapshots the epoch,
// resets the tracker and then calls each listener. A new listener starts
// with a full update.
func (s *Slice[T]) ListenRanges(token event.Token, fn func(RangeUpdate[T])) {
	s.rangeListeners = append(s.rangeListeners, rangeListener[T]{token: token, fn: fn})
	if s.rangeEvent == event.InvalidID {
		s.rangeEvent = s.ctx.RegisterEvent(s.dispatchRanges, nil)
		s.AttachEvent(s.rangeEvent)
	}
	s.ranges.Reset(len(s.values), true)
	s.ctx.ActivateEvent(s.rangeEvent)
}

// RangeListeners returns the number of registered range listeners, released
// ones included until the next dispatch.
func (s *Slice[T]) RangeListeners() int {
	return len(s.rangeListeners)
}

func (s *Slice[T]) dispatchRanges(event.ID) bool {
	s.rangeListeners = slices.DeleteFunc(s.rangeListeners, func(l rangeListener[T]) bool {
		return !l.token.Alive()
	})
	if len(s.rangeListeners) == 0 {
		s.rangeEvent = event.InvalidID
		return false
	}

	u := RangeUpdate[T]{
		Full:   s.ranges.IsFullRangeUpdate(),
		Type:   s.ranges.Type(),
		Ranges: s.ranges.Ranges(),
		Values: slices.Clip(s.values),
	}
	s.ranges.Reset(len(s.values), false)
	if !u.Full && len(u.Ranges) == 0 {
		return true
	}

	listeners := slices.Clone(s.rangeListeners)
	if len(listeners) > 1 {
		// A listener that writes to s must not change what the next one sees.
		u.Values = slices.Clone(u.Values)
	}
	for _, l := range listeners {
		s.callRangeListener(l, u)
	}
	return true
}

// callRangeListener isolates listeners from each other's panics.
func (s *Slice[T]) callRangeListener(l rangeListener[T], u RangeUpdate[T]) {
	defer func() {
		if r := recover(); r != nil {
			observability.Emit(s.ctx.Observer(), EventListenerPanic, observability.LevelWarning, source, map[string]any{
				"slice_id": s.id,
				"panic":    fmt.Sprint(r),
			})
		}
	}()
	if l.token.Alive() {
		l.fn(u)
	}
}
