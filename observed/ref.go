package observed

import (
	"fmt"

	"github.com/tailored-agentic-units/reactive/rangediff"
)

// Ref addresses one element of a Slice by index. Writes through a Ref
// record a single-index Modify range.
type Ref[T any] struct {
	s     *Slice[T]
	index int
}

// At returns a Ref to element i. It panics when i is out of range.
func (s *Slice[T]) At(i int) Ref[T] {
	s.check(i)
	return Ref[T]{s: s, index: i}
}

func (s *Slice[T]) Front() Ref[T] {
	return s.At(0)
}

func (s *Slice[T]) Back() Ref[T] {
	return s.At(len(s.values) - 1)
}

func (r Ref[T]) Index() int {
	return r.index
}

// Get reads the element. A Ref left dangling by a shrink panics.
func (r Ref[T]) Get() T {
	return r.s.Get(r.index)
}

func (r Ref[T]) Set(value T) {
	r.s.Set(r.index, value)
}

// Update edits the element in place and records the write.
func (r Ref[T]) Update(fn func(*T)) {
	r.s.check(r.index)
	fn(&r.s.values[r.index])
	r.s.insertRangeChecked(r.index, r.index, rangediff.Modify)
}

// Iterator walks a Slice front to back by index. Mutating the slice while
// iterating is allowed; the iterator simply continues at the next index.
type Iterator[T any] struct {
	s     *Slice[T]
	index int
}

func (s *Slice[T]) Begin() *Iterator[T] {
	return &Iterator[T]{s: s}
}

// Valid reports whether the iterator points at an element.
func (it *Iterator[T]) Valid() bool {
	return it.index >= 0 && it.index < len(it.s.values)
}

func (it *Iterator[T]) Next() {
	it.index++
}

func (it *Iterator[T]) Index() int {
	return it.index
}

// Ref returns the element under the iterator. It panics past the end.
func (it *Iterator[T]) Ref() Ref[T] {
	if !it.Valid() {
		panic(fmt.Errorf("iterator at %d of %d: %w", it.index, len(it.s.values), ErrIteratorEnd))
	}
	return Ref[T]{s: it.s, index: it.index}
}

func (it *Iterator[T]) Get() T {
	return it.Ref().Get()
}

func (it *Iterator[T]) Set(value T) {
	it.Ref().Set(value)
}
