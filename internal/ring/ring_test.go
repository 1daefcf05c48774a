package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_AddPopOrder(t *testing.T) {
	b := New[int](2)
	b.Add(1)
	b.Add(2)
	b.Add(3) // forces growth beyond initial capacity of 2

	assert.Equal(t, 3, b.Len())
	assert.GreaterOrEqual(t, b.Cap(), 3)

	v, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = b.Pop()
	assert.False(t, ok)
}

func TestBuffer_PeekDoesNotRemove(t *testing.T) {
	b := New[string](4)
	b.Add("a")
	b.Add("b")

	v, ok := b.Peek()
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, b.Len())
}

func TestBuffer_GrowthPreservesOrderAroundWrap(t *testing.T) {
	b := New[int](4)
	for i := 0; i < 4; i++ {
		b.Add(i)
	}
	// pop two so head/tail wrap
	_, _ = b.Pop()
	_, _ = b.Pop()
	b.Add(4)
	b.Add(5)
	b.Add(6) // forces growth while head != 0

	got := b.Slice()
	assert.Equal(t, []int{2, 3, 4, 5, 6}, got)
}

func TestBuffer_Clear(t *testing.T) {
	b := New[int](4)
	b.Add(1)
	b.Add(2)
	b.Clear()
	assert.Equal(t, 0, b.Len())
	_, ok := b.Pop()
	assert.False(t, ok)
}

func TestBuffer_AtIndexesHeadToTail(t *testing.T) {
	b := New[int](4)
	b.Add(10)
	b.Add(20)
	b.Add(30)
	_, _ = b.Pop() // force head to wrap away from 0

	v, ok := b.At(0)
	require.True(t, ok)
	assert.Equal(t, 20, v)

	_, ok = b.At(5)
	assert.False(t, ok)
}

func TestSearch_FindsSortedInsertionPoint(t *testing.T) {
	b := New[int](4)
	for _, v := range []int{1, 3, 5, 7} {
		b.Add(v)
	}
	assert.Equal(t, 2, Search(b, 4))
	assert.Equal(t, 0, Search(b, 0))
	assert.Equal(t, 4, Search(b, 8))
	assert.Equal(t, 1, Search(b, 3), "an exact match returns its own index")
}

func TestBuffer_InsertAtTailEquivalentToAdd(t *testing.T) {
	b := New[int](4)
	b.Add(1)
	b.Add(2)
	b.Insert(b.Len(), 3)
	assert.Equal(t, []int{1, 2, 3}, b.Slice())
}

func TestBuffer_InsertShiftsTailwardElements(t *testing.T) {
	b := New[int](4)
	for _, v := range []int{1, 3, 5, 7} {
		b.Add(v)
	}
	b.Insert(Search(b, 4), 4)
	assert.Equal(t, []int{1, 3, 4, 5, 7}, b.Slice())
}

func TestBuffer_InsertGrowsWhenFull(t *testing.T) {
	b := New[int](4)
	for _, v := range []int{1, 3, 5, 7} {
		b.Add(v)
	}
	b.Insert(Search(b, 6), 6)
	assert.Equal(t, 5, b.Len())
	assert.GreaterOrEqual(t, b.Cap(), 5)
	assert.Equal(t, []int{1, 3, 5, 6, 7}, b.Slice())
}

func TestBuffer_InsertAfterWrapAround(t *testing.T) {
	b := New[int](4)
	for i := 0; i < 4; i++ {
		b.Add(i)
	}
	_, _ = b.Pop()
	_, _ = b.Pop()
	b.Add(4)
	b.Add(5) // head has wrapped past index 0

	b.Insert(1, 99)
	assert.Equal(t, []int{2, 99, 3, 4, 5}, b.Slice())
}

func TestBuffer_InsertPanicsOutOfRange(t *testing.T) {
	b := New[int](4)
	b.Add(1)
	assert.Panics(t, func() { b.Insert(-1, 0) })
	assert.Panics(t, func() { b.Insert(2, 0) })
}

func TestBuffer_EachStopsEarly(t *testing.T) {
	b := New[int](4)
	for i := 0; i < 5; i++ {
		b.Add(i)
	}
	var seen []int
	b.Each(func(v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}
