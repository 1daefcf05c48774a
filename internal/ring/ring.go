// Package ring provides a fixed-capacity, auto-growing circular buffer used
// throughout rxs by the task queue, the last(n) and sample operators, and the
// replay hub.
package ring

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Number is the constraint satisfied by element types that support the
// Ordered-based variants (Search). Plain Buffer works for any type.
type Number = constraints.Ordered

// Buffer is a FIFO circular buffer over elements of type E. The zero value
// is not usable; construct one with New. Capacity doubles on overflow and
// existing elements are copied into a contiguous region starting at index 0,
// so the buffer itself never drops an element - callers choose drop-vs-grow
// policy by calling Pop before Add when they want bounded behavior.
type Buffer[E any] struct {
	s    []E
	head int
	tail int
	n    int
}

// New creates a Buffer with the given initial capacity. A non-positive
// capacity is rounded up to 1.
func New[E any](capacity int) *Buffer[E] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[E]{s: make([]E, capacity)}
}

// Len returns the number of elements currently stored.
func (b *Buffer[E]) Len() int { return b.n }

// Cap returns the current capacity.
func (b *Buffer[E]) Cap() int { return len(b.s) }

// Add appends v to the tail, growing the buffer if it is full.
func (b *Buffer[E]) Add(v E) {
	if b.n == len(b.s) {
		b.grow()
	}
	b.s[b.tail] = v
	b.tail = (b.tail + 1) % len(b.s)
	b.n++
}

// Pop removes and returns the element at the head. ok is false if empty.
func (b *Buffer[E]) Pop() (v E, ok bool) {
	if b.n == 0 {
		return v, false
	}
	v = b.s[b.head]
	var zero E
	b.s[b.head] = zero
	b.head = (b.head + 1) % len(b.s)
	b.n--
	return v, true
}

// Peek returns the head element without removing it.
func (b *Buffer[E]) Peek() (v E, ok bool) {
	if b.n == 0 {
		return v, false
	}
	return b.s[b.head], true
}

// Clear empties the buffer without shrinking its capacity.
func (b *Buffer[E]) Clear() {
	var zero E
	for i := 0; i < b.n; i++ {
		b.s[(b.head+i)%len(b.s)] = zero
	}
	b.head, b.tail, b.n = 0, 0, 0
}

// Each iterates head-to-tail, stopping early if fn returns false.
func (b *Buffer[E]) Each(fn func(E) bool) {
	for i := 0; i < b.n; i++ {
		if !fn(b.s[(b.head+i)%len(b.s)]) {
			return
		}
	}
}

// At returns the element at head-to-tail position i without removing it. ok
// is false if i is out of range.
func (b *Buffer[E]) At(i int) (v E, ok bool) {
	if i < 0 || i >= b.n {
		return v, false
	}
	return b.s[(b.head+i)%len(b.s)], true
}

// Search performs a binary search over a Buffer[E] whose head-to-tail
// contents are sorted in ascending order, returning the smallest head-to-tail
// index i such that b.At(i) >= v (sort.Search semantics: the insertion point
// that keeps the buffer sorted). Grounded on catrate's
// ringBuffer[E constraints.Ordered].Search, used there to locate the
// insertion point for a newly observed event timestamp in a sorted window
// (catrate/limiter.go: `data.events.Insert(data.events.Search(now), now)`).
func Search[E Number](b *Buffer[E], v E) int {
	return sort.Search(b.Len(), func(i int) bool {
		e, _ := b.At(i)
		return e >= v
	})
}

// Insert places v at head-to-tail position i, shifting elements at or after
// i one position toward the tail (growing the buffer first if full). i must
// be in [0, Len()]; i == Len() is equivalent to Add. Grounded on catrate's
// ringBuffer.Insert (catrate/ring.go), simplified to a linear shift since
// rxs's sorted-window callers (Sample, operators_stateful.go) are not on the
// same hot per-event path catrate's rate limiter is.
func (b *Buffer[E]) Insert(i int, v E) {
	if i < 0 || i > b.n {
		panic("ring: insert index out of range")
	}
	if i == b.n {
		b.Add(v)
		return
	}
	if b.n == len(b.s) {
		b.grow()
	}
	for j := b.n; j > i; j-- {
		prev, _ := b.At(j - 1)
		b.s[(b.head+j)%len(b.s)] = prev
	}
	b.s[(b.head+i)%len(b.s)] = v
	b.tail = (b.tail + 1) % len(b.s)
	b.n++
}

// Slice returns a newly allocated head-to-tail copy of the buffer contents.
func (b *Buffer[E]) Slice() []E {
	out := make([]E, 0, b.n)
	b.Each(func(v E) bool {
		out = append(out, v)
		return true
	})
	return out
}

// grow doubles capacity, copying existing elements into a contiguous region
// starting at index 0.
func (b *Buffer[E]) grow() {
	newCap := len(b.s) * 2
	if newCap == 0 {
		newCap = 1
	}
	ns := make([]E, newCap)
	for i := 0; i < b.n; i++ {
		ns[i] = b.s[(b.head+i)%len(b.s)]
	}
	b.s = ns
	b.head = 0
	b.tail = b.n
}
