package rangediff

import "github.com/google/btree"

const treeDegree = 8

// Tree is an ordered set of disjoint intervals keyed by their low bound.
// Intervals are stored by value and addressed by low bound, so no handle
// held by a caller can be invalidated by a shift or an erase.
type Tree struct {
	tree *btree.BTreeG[Interval]
}

func NewTree() *Tree {
	return &Tree{tree: btree.NewG[Interval](treeDegree, func(a, b Interval) bool {
		return a.Low < b.Low
	})}
}

func (t *Tree) Len() int {
	return t.tree.Len()
}

func (t *Tree) Clear() {
	t.tree.Clear(false)
}

// Insert stores iv without merging. The caller guarantees it does not
// overlap a stored interval.
func (t *Tree) Insert(iv Interval) {
	t.tree.ReplaceOrInsert(iv)
}

// InsertOverlap stores iv, first absorbing every stored interval that
// overlaps it (or touches it, when adjacent is set). It returns the interval
// that ended up in the tree.
func (t *Tree) InsertOverlap(iv Interval, adjacent bool) Interval {
	for {
		other, ok := t.OverlapFind(iv.Low, iv.High, adjacent)
		if !ok {
			break
		}
		t.tree.Delete(other)
		iv = iv.Join(other)
	}
	t.tree.ReplaceOrInsert(iv)
	return iv
}

// Find returns the interval whose low bound is exactly low.
func (t *Tree) Find(low int) (Interval, bool) {
	return t.tree.Get(Interval{Low: low})
}

// OverlapFind returns the lowest stored interval intersecting [l, h]. With
// adjacent set, intervals ending at l-1 or starting at h+1 match as well.
func (t *Tree) OverlapFind(l, h int, adjacent bool) (Interval, bool) {
	if adjacent {
		l, h = l-1, h+1
	}

	var found Interval
	ok := false
	t.tree.DescendLessOrEqual(Interval{Low: l}, func(iv Interval) bool {
		if iv.High >= l {
			found, ok = iv, true
		}
		return false
	})
	if ok {
		return found, true
	}

	t.tree.AscendGreaterOrEqual(Interval{Low: l}, func(iv Interval) bool {
		if iv.Low <= h {
			found, ok = iv, true
		}
		return false
	})
	return found, ok
}

// Erase removes the interval with iv's low bound.
func (t *Tree) Erase(iv Interval) bool {
	_, ok := t.tree.Delete(iv)
	return ok
}

// ShiftFrom moves every interval with Low >= low by offset. Order among the
// moved intervals is preserved; the caller guarantees a negative offset does
// not collide with intervals below low.
func (t *Tree) ShiftFrom(low, offset int) {
	if offset == 0 {
		return
	}
	var moved []Interval
	t.tree.AscendGreaterOrEqual(Interval{Low: low}, func(iv Interval) bool {
		moved = append(moved, iv)
		return true
	})
	for _, iv := range moved {
		t.tree.Delete(iv)
	}
	for _, iv := range moved {
		t.tree.ReplaceOrInsert(iv.ShiftRight(offset))
	}
}

// Ascend visits intervals in order until fn returns false.
func (t *Tree) Ascend(fn func(Interval) bool) {
	t.tree.Ascend(fn)
}

func (t *Tree) Min() (Interval, bool) {
	return t.tree.Min()
}

func (t *Tree) Max() (Interval, bool) {
	return t.tree.Max()
}

// Intervals returns all intervals in ascending order.
func (t *Tree) Intervals() []Interval {
	out := make([]Interval, 0, t.tree.Len())
	t.tree.Ascend(func(iv Interval) bool {
		out = append(out, iv)
		return true
	})
	return out
}
