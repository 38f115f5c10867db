package observed

import (
	"golang.org/x/exp/constraints"

	"github.com/tailored-agentic-units/reactive/event"
)

// Value is an observed scalar. Every write calls Update.
type Value[T any] struct {
	Base
	value T
}

func NewValue[T any](ctx *event.Context, value T, opts ...Option) *Value[T] {
	return &Value[T]{Base: newBase(ctx, opts), value: value}
}

func (v *Value[T]) Get() T {
	return v.value
}

// Set stores value and notifies, whether or not it changed.
func (v *Value[T]) Set(value T) {
	v.value = value
	v.Update()
}

// SetChecked stores value and notifies only when it differs from the
// current one. It reports whether a notification happened.
func SetChecked[T comparable](v *Value[T], value T) bool {
	if v.value == value {
		return false
	}
	v.Set(value)
	return true
}

// Modify grants mutable access to the wrapped value. The returned Proxy
// notifies once when closed:
//
//	p := v.Modify()
//	defer p.Close()
//	p.Data().Items = append(p.Data().Items, item)
func (v *Value[T]) Modify() *Proxy[T] {
	return &Proxy[T]{data: &v.value, release: v.Update}
}

// Mutate runs fn on the wrapped value and notifies afterwards, also when fn
// panics.
func (v *Value[T]) Mutate(fn func(*T)) {
	p := v.Modify()
	defer p.Close()
	fn(p.Data())
}

// Proxy is a scoped write handle returned by Modify.
type Proxy[T any] struct {
	data    *T
	release func()
	closed  bool
}

// Data returns the wrapped value. It must not be retained after Close.
func (p *Proxy[T]) Data() *T {
	return p.data
}

// Close notifies the observed value's subscribers. Calls after the first
// are no-ops.
func (p *Proxy[T]) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.release()
}

// Number is satisfied by the types the arithmetic shorthands accept.
type Number interface {
	constraints.Integer | constraints.Float
}

// Add adds delta and notifies. It returns the new value.
func Add[T Number](v *Value[T], delta T) T {
	v.value += delta
	v.Update()
	return v.value
}

// Sub subtracts delta and notifies. It returns the new value.
func Sub[T Number](v *Value[T], delta T) T {
	v.value -= delta
	v.Update()
	return v.value
}

func Increment[T Number](v *Value[T]) T {
	return Add(v, 1)
}

func Decrement[T Number](v *Value[T]) T {
	return Sub(v, 1)
}
