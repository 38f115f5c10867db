package rangediff

import "fmt"

// Interval is a closed index span [Low, High]. An interval with High < Low
// is empty.
type Interval struct {
	Low  int
	High int
}

func (i Interval) Width() int {
	return i.High - i.Low + 1
}

func (i Interval) Empty() bool {
	return i.High < i.Low
}

// Overlaps reports whether [l, h] shares at least one index with i.
func (i Interval) Overlaps(l, h int) bool {
	return i.Low <= h && l <= i.High
}

// OverlapsOrIsAdjacent also accepts spans that touch i without a gap.
func (i Interval) OverlapsOrIsAdjacent(l, h int) bool {
	return i.Low <= h+1 && l-1 <= i.High
}

// Covers reports whether other lies entirely inside i.
func (i Interval) Covers(other Interval) bool {
	return i.Low <= other.Low && i.High >= other.High
}

func (i Interval) Contains(index int) bool {
	return i.Low <= index && index <= i.High
}

// Expand returns the tight union of i and other. It fails when a gap
// separates them, since the union would not be a single interval.
func (i Interval) Expand(other Interval) (Interval, bool) {
	if !i.OverlapsOrIsAdjacent(other.Low, other.High) {
		return i, false
	}
	return i.Join(other), true
}

// Join returns the smallest interval covering both, gap included.
func (i Interval) Join(other Interval) Interval {
	return Interval{Low: min(i.Low, other.Low), High: max(i.High, other.High)}
}

// Extend returns an interval starting at the lower of both lows whose width
// is the sum of both widths. Two insertions at the same position never lose
// elements to overlap.
func (i Interval) Extend(other Interval) Interval {
	low := min(i.Low, other.Low)
	return Interval{Low: low, High: low + i.Width() + other.Width() - 1}
}

func (i Interval) ShiftRight(offset int) Interval {
	return Interval{Low: i.Low + offset, High: i.High + offset}
}

func (i Interval) ShiftLeft(offset int) Interval {
	return Interval{Low: i.Low - offset, High: i.High - offset}
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d]", i.Low, i.High)
}
