package event

import "math"

// ID identifies a registered event within one Context.
type ID uint64

// InvalidID is never handed out by a registry.
const InvalidID ID = math.MaxUint64

type entry struct {
	activate func(ID) bool
	alive    func() bool
}

// registry stores events by id and keeps the ordered set of selected
// (pending) ids. Selection order is execution order.
type registry struct {
	entries  map[ID]*entry
	next     ID
	active   []ID
	selected map[ID]bool
}

func newRegistry() registry {
	return registry{
		entries:  make(map[ID]*entry),
		selected: make(map[ID]bool),
	}
}

func (r *registry) append(e *entry) ID {
	id := r.next
	r.next++
	r.entries[id] = e
	return id
}

func (r *registry) remove(id ID) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// selectID marks id pending. It reports false when the id is unknown or its
// owner is gone; in the latter case the entry is dropped.
func (r *registry) selectID(id ID, isAlive func(*entry) bool) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	if !isAlive(e) {
		delete(r.entries, id)
		return false
	}
	if !r.selected[id] {
		r.selected[id] = true
		r.active = append(r.active, id)
	}
	return true
}

// takeActive returns the pending ids and clears the pending set, so that
// selections made while the snapshot runs land in the next one.
func (r *registry) takeActive() []ID {
	snapshot := r.active
	r.active = nil
	clear(r.selected)
	return snapshot
}

// unselect drops id from the pending set if present.
func (r *registry) unselect(id ID) {
	if !r.selected[id] {
		return
	}
	delete(r.selected, id)
	for i, a := range r.active {
		if a == id {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
}
