// Package rangediff tracks which index ranges of a sequence changed since the
// last reconciliation.
//
// A Context accumulates the ranges of one operation kind at a time (an
// epoch). Modify and Insert ranges are expressed in the coordinates of the
// sequence as it is now; Erase ranges are expressed in the coordinates the
// sequence had when the epoch started. A consumer brings its view up to date
// by applying Insert ranges in ascending order and Erase ranges in
// descending order, then calls Reset to open the next epoch.
//
// When an operation of a different kind arrives, InsertModificationRange
// answers PerformAndRetry: the caller flushes the pending epoch to its
// consumers and repeats the call.
package rangediff

import (
	"github.com/tailored-agentic-units/reactive/observability"
)

const source = "rangediff.Context"

// OperationType tags an epoch. Values match the bit flags used for
// combining kinds.
type OperationType int

const (
	Keep   OperationType = 0b0001
	Modify OperationType = 0b0010
	Insert OperationType = 0b0100
	Erase  OperationType = 0b1000
)

func (o OperationType) String() string {
	switch o {
	case Keep:
		return "keep"
	case Modify:
		return "modify"
	case Insert:
		return "insert"
	case Erase:
		return "erase"
	default:
		return "unknown"
	}
}

// InsertResult tells the caller what to do after InsertModificationRange.
type InsertResult int

const (
	// Accepted means the range is tracked; notification can be deferred.
	Accepted InsertResult = iota
	// PerformAndRetry means the pending epoch has another kind. Flush it,
	// then call again with the same arguments.
	PerformAndRetry
	// Rejected means the arguments were invalid and nothing was tracked.
	Rejected
)

func (r InsertResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case PerformAndRetry:
		return "perform_and_retry"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Range is one committed span handed to consumers.
type Range struct {
	Type OperationType
	Low  int
	High int
}

// eraseOverride carries the outcome of an insertion fixup to the Erase
// notification that follows it.
type eraseOverride struct {
	interval Interval
	skip     bool
}

// Option configures a Context.
type Option func(*Context)

// WithObserver sets the observer anomalies are reported to.
func WithObserver(o observability.Observer) Option {
	return func(c *Context) { c.observer = o }
}

// Context is the diff state machine for one observed sequence.
type Context struct {
	tree            *Tree
	operation       OperationType
	dataSize        int
	fullRangeUpdate bool
	nextErase       *eraseOverride
	epoch           uint64
	observer        observability.Observer
}

// NewContext creates a Context for a sequence of dataSize elements. Nothing
// has been rendered yet, so it starts with a full-range update pending.
func NewContext(dataSize int, opts ...Option) *Context {
	c := &Context{
		tree:            NewTree(),
		operation:       Keep,
		dataSize:        dataSize,
		fullRangeUpdate: true,
		observer:        observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = observability.NoOpObserver{}
	}
	return c
}

// InsertModificationRange records that [low, high] was affected by an
// operation of kind, leaving elementCount elements in the sequence.
func (c *Context) InsertModificationRange(elementCount, low, high int, kind OperationType) InsertResult {
	if kind == Keep || low < 0 || high < low {
		observability.Emit(c.observer, EventRejected, observability.LevelWarning, source, map[string]any{
			"kind": kind.String(),
			"low":  low,
			"high": high,
		})
		return Rejected
	}

	if kind == Erase && c.nextErase != nil && c.nextErase.skip {
		c.nextErase = nil
		c.dataSize = elementCount
		return Accepted
	}

	if c.fullRangeUpdate {
		c.nextErase = nil
		c.dataSize = elementCount
		return Accepted
	}

	if c.operation == Keep {
		c.operation = kind
	}

	if kind != c.operation {
		if kind == Modify && c.operation == Insert && c.coveredByInsertion(low, high) {
			// Inserted elements are read fresh when the insertion is applied.
			c.dataSize = elementCount
			return Accepted
		}
		return PerformAndRetry
	}

	switch kind {
	case Modify:
		c.tree.InsertOverlap(Interval{Low: low, High: high}, true)
	case Insert:
		c.insertInsertRange(low, high)
	case Erase:
		if o := c.nextErase; o != nil {
			c.nextErase = nil
			low, high = o.interval.Low, o.interval.High
		}
		c.insertEraseRange(low, high)
	}
	c.dataSize = elementCount
	return Accepted
}

// insertInsertRange tracks elements inserted at [low, high]. Everything
// tracked at or after low moves right by the inserted width.
func (c *Context) insertInsertRange(low, high int) {
	inserted := Interval{Low: low, High: high}
	width := inserted.Width()

	host, ok := c.tree.Find(low)
	if !ok {
		host, ok = c.tree.OverlapFind(low, low, false)
	}
	if ok {
		// Inserting into (or in front of) a pending insertion grows it.
		c.tree.Erase(host)
		c.tree.ShiftFrom(low, width)
		c.tree.InsertOverlap(host.Extend(inserted), true)
		return
	}

	c.tree.ShiftFrom(low, width)
	c.tree.InsertOverlap(inserted, true)
}

// insertEraseRange tracks an erase of [low, high], given in the coordinates
// of the sequence just before this erase. Tracked ranges are in epoch-start
// coordinates, so the window is mapped there first: every tracked range at
// or left of the window pushes it right, and every tracked range the window
// then reaches is absorbed into it.
func (c *Context) insertEraseRange(low, high int) {
	lo, hi := low, high
	left := true
	c.tree.Ascend(func(iv Interval) bool {
		if left && iv.Low <= lo {
			lo += iv.Width()
			hi += iv.Width()
			return true
		}
		left = false
		if iv.Low <= hi {
			hi += iv.Width()
			return true
		}
		return false
	})
	c.tree.InsertOverlap(Interval{Low: lo, High: hi}, true)
}

// EraseNotify must be called before [low, high] is physically erased. It
// reports true when the pending epoch has to be flushed first, because the
// tracked ranges could not be kept consistent across the erase.
func (c *Context) EraseNotify(low, high int) bool {
	if c.fullRangeUpdate || low < 0 || high < low {
		return false
	}
	switch c.operation {
	case Insert:
		return c.eraseInsertionFixup(low, high)
	case Modify:
		return c.eraseModificationFixup(low, high)
	default:
		return false
	}
}

// eraseInsertionFixup handles an erase during an Insert epoch. Elements that
// were inserted and erased within the epoch were never seen by a consumer,
// so they are cut from the insertion instead of being reported twice.
func (c *Context) eraseInsertionFixup(low, high int) bool {
	window := Interval{Low: low, High: high}

	host, ok := c.tree.OverlapFind(low, high, false)
	if !ok {
		// Only pre-existing elements go. Insertions behind the window would
		// be misplaced once the erase shifts them.
		return c.trackedAfter(high)
	}
	if host.Low > low {
		return true
	}

	if host.Covers(window) {
		width := window.Width()
		c.tree.Erase(host)
		c.tree.ShiftFrom(host.High+1, -width)
		if rest := (Interval{Low: host.Low, High: host.High - width}); !rest.Empty() {
			c.tree.Insert(rest)
		}
		c.nextErase = &eraseOverride{skip: true}
		c.settle()
		c.emitFixup(Insert, window, Interval{High: -1})
		return false
	}

	// The window starts inside the insertion and runs into pre-existing
	// elements. Only the left remainder of the insertion survives, and the
	// erase that follows shrinks by what was cut.
	if c.trackedAfter(host.High) {
		return true
	}
	consumed := host.High - low + 1
	c.tree.Erase(host)
	if low > host.Low {
		c.tree.Insert(Interval{Low: host.Low, High: low - 1})
	}
	override := Interval{Low: low, High: high - consumed}
	c.nextErase = &eraseOverride{interval: override}
	c.settle()
	c.emitFixup(Insert, window, override)
	return false
}

// eraseModificationFixup cuts the erased window out of tracked Modify
// ranges. Remainders left of the window stay valid after the erase; any
// remainder right of it forces a flush before the erase.
func (c *Context) eraseModificationFixup(low, high int) bool {
	window := Interval{Low: low, High: high}
	for {
		iv, ok := c.tree.OverlapFind(low, high, false)
		if !ok {
			break
		}
		c.tree.Erase(iv)
		if iv.Low < low {
			c.tree.Insert(Interval{Low: iv.Low, High: low - 1})
		}
		if iv.High > high {
			c.tree.Insert(Interval{Low: high + 1, High: iv.High})
		}
	}
	c.settle()
	c.emitFixup(Modify, window, Interval{High: -1})
	if c.operation == Keep {
		return false
	}
	return c.trackedAfter(high)
}

// InsertNotify must be called before elements are physically inserted at
// low. A Modify epoch with ranges at or after low has to be flushed first,
// since the insertion would move the elements those ranges point at.
func (c *Context) InsertNotify(low int) bool {
	if c.fullRangeUpdate || c.operation != Modify {
		return false
	}
	return c.trackedAfter(low - 1)
}

// Reset drops all tracked ranges and opens a new epoch. With requireFull
// set, consumers must rebuild their whole view. A pending erase override
// survives a plain reset, since the erase it belongs to has not been
// reported yet.
func (c *Context) Reset(dataSize int, requireFull bool) {
	c.tree.Clear()
	c.operation = Keep
	c.dataSize = dataSize
	c.fullRangeUpdate = requireFull
	if requireFull {
		c.nextErase = nil
	}
	c.epoch++
}

func (c *Context) IsFullRangeUpdate() bool {
	return c.fullRangeUpdate
}

// InsertInterval returns the inserted span when the epoch consists of a
// single contiguous insertion.
func (c *Context) InsertInterval() (Interval, bool) {
	if c.fullRangeUpdate || c.operation != Insert || c.tree.Len() != 1 {
		return Interval{}, false
	}
	return c.tree.Min()
}

// Ranges returns the committed ranges in ascending order. It is empty while
// a full-range update is pending.
func (c *Context) Ranges() []Range {
	if c.fullRangeUpdate || c.operation == Keep {
		return nil
	}
	out := make([]Range, 0, c.tree.Len())
	c.tree.Ascend(func(iv Interval) bool {
		out = append(out, Range{Type: c.operation, Low: iv.Low, High: iv.High})
		return true
	})
	return out
}

// Type returns the kind tracked in the current epoch.
func (c *Context) Type() OperationType {
	return c.operation
}

// DataSize returns the element count reported by the last operation or reset.
func (c *Context) DataSize() int {
	return c.dataSize
}

// Epoch counts resets.
func (c *Context) Epoch() uint64 {
	return c.epoch
}

// Len returns the number of tracked ranges.
func (c *Context) Len() int {
	return c.tree.Len()
}

func (c *Context) coveredByInsertion(low, high int) bool {
	iv, ok := c.tree.OverlapFind(low, high, false)
	return ok && iv.Covers(Interval{Low: low, High: high})
}

// trackedAfter reports whether any tracked range ends after index.
func (c *Context) trackedAfter(index int) bool {
	last, ok := c.tree.Max()
	return ok && last.High > index
}

func (c *Context) settle() {
	if c.tree.Len() == 0 {
		c.operation = Keep
	}
}

func (c *Context) emitFixup(kind OperationType, window, override Interval) {
	data := map[string]any{
		"kind":   kind.String(),
		"window": window.String(),
		"ranges": c.tree.Len(),
	}
	if !override.Empty() {
		data["override"] = override.String()
	}
	observability.Emit(c.observer, EventEraseFixup, observability.LevelVerbose, source, data)
}
