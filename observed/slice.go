package observed

import (
	"fmt"
	"iter"
	"slices"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/reactive/event"
	"github.com/tailored-agentic-units/reactive/observability"
	"github.com/tailored-agentic-units/reactive/rangediff"
)

const source = "observed.Slice"

// Slice is an observed sequence. Every mutation records the affected index
// range in a rangediff.Context owned by the slice, then notifies.
//
// When a mutation of a different kind than the pending epoch arrives, the
// slice flushes first: it drains the event context so consumers apply the
// pending epoch, then records the new range in a fresh one.
type Slice[T any] struct {
	Base
	id     string
	values []T
	ranges *rangediff.Context

	rangeEvent     event.ID
	rangeListeners []rangeListener[T]
}

func NewSlice[T any](ctx *event.Context, values []T, opts ...Option) *Slice[T] {
	s := &Slice[T]{
		Base:       newBase(ctx, opts),
		id:         uuid.Must(uuid.NewV7()).String(),
		values:     slices.Clone(values),
		rangeEvent: event.InvalidID,
	}
	s.ranges = rangediff.NewContext(len(s.values), rangediff.WithObserver(ctx.Observer()))
	return s
}

func (s *Slice[T]) ID() string {
	return s.id
}

func (s *Slice[T]) Len() int {
	return len(s.values)
}

// RangeContext exposes the diff tracker to consumers that drive it
// themselves. A consumer reads Ranges, applies them, then calls Reset with
// the current length.
func (s *Slice[T]) RangeContext() *rangediff.Context {
	return s.ranges
}

// Get returns the element at i without registering anything.
func (s *Slice[T]) Get(i int) T {
	s.check(i)
	return s.values[i]
}

// Values returns a copy of the elements.
func (s *Slice[T]) Values() []T {
	return slices.Clone(s.values)
}

// All iterates index and element pairs. The slice must not be mutated
// during iteration.
func (s *Slice[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range s.values {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Set replaces the element at i.
func (s *Slice[T]) Set(i int, value T) {
	s.check(i)
	s.values[i] = value
	s.insertRangeChecked(i, i, rangediff.Modify)
}

// SwapAt exchanges two elements.
func (s *Slice[T]) SwapAt(i, j int) {
	s.check(i)
	s.check(j)
	if i == j {
		return
	}
	s.values[i], s.values[j] = s.values[j], s.values[i]
	s.insertRangeChecked(i, i, rangediff.Modify)
	s.insertRangeChecked(j, j, rangediff.Modify)
}

// Insert places values before index pos. pos may equal Len.
func (s *Slice[T]) Insert(pos int, values ...T) {
	if pos < 0 || pos > len(s.values) {
		panic(fmt.Errorf("insert at %d of %d: %w", pos, len(s.values), ErrOutOfRange))
	}
	if len(values) == 0 {
		return
	}
	s.settle(s.ranges.InsertNotify(pos))
	s.values = slices.Insert(s.values, pos, values...)
	s.insertRangeChecked(pos, pos+len(values)-1, rangediff.Insert)
}

func (s *Slice[T]) PushBack(values ...T) {
	s.Insert(len(s.values), values...)
}

func (s *Slice[T]) PushFront(values ...T) {
	s.Insert(0, values...)
}

// PopBack removes and returns the last element.
func (s *Slice[T]) PopBack() (T, bool) {
	var zero T
	n := len(s.values)
	if n == 0 {
		return zero, false
	}
	v := s.values[n-1]
	s.EraseRange(n-1, n)
	return v, true
}

// PopFront removes and returns the first element.
func (s *Slice[T]) PopFront() (T, bool) {
	var zero T
	if len(s.values) == 0 {
		return zero, false
	}
	v := s.values[0]
	s.EraseRange(0, 1)
	return v, true
}

// Erase removes the element at i.
func (s *Slice[T]) Erase(i int) {
	s.check(i)
	s.EraseRange(i, i+1)
}

// EraseRange removes the elements in [first, last).
func (s *Slice[T]) EraseRange(first, last int) {
	if first < 0 || last > len(s.values) || first > last {
		panic(fmt.Errorf("erase [%d,%d) of %d: %w", first, last, len(s.values), ErrOutOfRange))
	}
	if first == last {
		return
	}
	s.settle(s.ranges.EraseNotify(first, last-1))
	s.values = slices.Delete(s.values, first, last)
	s.insertRangeChecked(first, last-1, rangediff.Erase)
}

// DeleteFunc erases every element for which del returns true and reports
// how many were removed.
func (s *Slice[T]) DeleteFunc(del func(T) bool) int {
	removed := 0
	for i := len(s.values) - 1; i >= 0; i-- {
		if del(s.values[i]) {
			s.EraseRange(i, i+1)
			removed++
		}
	}
	return removed
}

// Resize grows the slice with zero values or truncates it.
func (s *Slice[T]) Resize(n int) {
	if n < 0 {
		panic(fmt.Errorf("resize to %d: %w", n, ErrOutOfRange))
	}
	switch old := len(s.values); {
	case n > old:
		s.Insert(old, make([]T, n-old)...)
	case n < old:
		s.EraseRange(n, old)
	}
}

// Assign replaces all elements. Consumers rebuild their whole view.
func (s *Slice[T]) Assign(values []T) {
	s.values = slices.Clone(values)
	s.fullUpdate()
}

// Clear removes all elements. Consumers rebuild their whole view.
func (s *Slice[T]) Clear() {
	clear(s.values)
	s.values = s.values[:0]
	s.fullUpdate()
}

// Swap exchanges the contents of two slices. Both notify a full update.
func (s *Slice[T]) Swap(other *Slice[T]) {
	s.values, other.values = other.values, s.values
	s.fullUpdate()
	other.fullUpdate()
}

// Modify grants mutable access to the whole backing slice. Closing the
// proxy reports a full update, since any element or the length may have
// changed.
func (s *Slice[T]) Modify() *Proxy[[]T] {
	return &Proxy[[]T]{data: &s.values, release: s.fullUpdate}
}

// Mutate runs fn on the backing slice and reports a full update.
func (s *Slice[T]) Mutate(fn func(*[]T)) {
	p := s.Modify()
	defer p.Close()
	fn(p.Data())
}

func (s *Slice[T]) check(i int) {
	if i < 0 || i >= len(s.values) {
		panic(fmt.Errorf("index %d of %d: %w", i, len(s.values), ErrOutOfRange))
	}
}

func (s *Slice[T]) fullUpdate() {
	s.ranges.Reset(len(s.values), true)
	s.Update()
}

// settle flushes before a physical mutation when the tracker says the
// pending epoch would not survive it.
func (s *Slice[T]) settle(needsFlush bool) {
	if needsFlush && !s.flush() {
		s.fallback(reasonFlushRefused, nil)
	}
}

// insertRangeChecked records [low, high] and notifies. A kind switch is
// retried once after a flush; anything else falls back to a full update.
func (s *Slice[T]) insertRangeChecked(low, high int, kind rangediff.OperationType) {
	data := func() map[string]any {
		return map[string]any{"kind": kind.String(), "low": low, "high": high}
	}

	switch s.ranges.InsertModificationRange(len(s.values), low, high, kind) {
	case rangediff.Accepted:
		s.Update()
		return
	case rangediff.Rejected:
		s.fallback(reasonRejected, data())
		return
	}

	if !s.flush() {
		s.fallback(reasonFlushRefused, data())
		return
	}

	if s.ranges.InsertModificationRange(len(s.values), low, high, kind) != rangediff.Accepted {
		s.fallback(reasonDoubleRetry, data())
		return
	}
	s.Update()
}

// flush materializes the pending epoch. Range listeners reset the tracker
// when they consume it; if nobody did, the epoch is dropped here so the next
// kind can start. It reports false when the context is already draining.
func (s *Slice[T]) flush() bool {
	epoch := s.ranges.Epoch()
	kind := s.ranges.Type()

	s.Update()
	if !s.ctx.ExecuteActiveEventsImmediately() {
		return false
	}
	if s.ranges.Epoch() == epoch {
		s.ranges.Reset(len(s.values), false)
	}

	observability.Emit(s.ctx.Observer(), EventFlush, observability.LevelVerbose, source, map[string]any{
		"slice_id": s.id,
		"kind":     kind.String(),
		"epoch":    epoch,
	})
	return true
}

// fallback gives up on incremental tracking for the current epoch.
// Consumers rebuild their view from scratch, which is never wrong.
func (s *Slice[T]) fallback(reason string, data map[string]any) {
	if data == nil {
		data = make(map[string]any, 3)
	}
	data["slice_id"] = s.id
	data["reason"] = reason
	data["pending"] = s.ranges.Type().String()
	observability.Emit(s.ctx.Observer(), EventRetryAnomaly, observability.LevelWarning, source, data)

	s.ranges.Reset(len(s.values), true)
	s.Update()
}
