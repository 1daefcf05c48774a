package rxs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat_DrainsEachInnerBeforeStartingNext(t *testing.T) {
	c := newCollector[int]()
	Concat(Of(Of(1, 2), Of(3, 4), Empty[int]())).Subscribe(c)
	assert.Equal(t, []int{1, 2, 3, 4}, c.items)
	assert.True(t, c.completed)
}

func TestConcat_PropagatesInnerError(t *testing.T) {
	boom := errors.New("boom")
	c := newCollector[int]()
	Concat(Of(Of(1), Fail[int](boom), Of(2))).Subscribe(c)
	assert.Equal(t, []int{1}, c.items)
	assert.True(t, c.errored)
	assert.Equal(t, boom, c.err)
}

func TestMerge_InterleavesAllInnersAndCompletesOnceAllDone(t *testing.T) {
	c := newCollector[int]()
	Merge(Of(Of(1, 2), Of(10, 20)), 0).Subscribe(c)
	assert.ElementsMatch(t, []int{1, 2, 10, 20}, c.items)
	assert.True(t, c.completed)
}

func TestFlatMap_BoundedConcurrencyQueuesExtras(t *testing.T) {
	c := newCollector[int]()
	FlatMap(Range(0, 5), 2, func(v int) Stream[int] { return Of(v) }).Subscribe(c)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, c.items)
	assert.True(t, c.completed)
}

func TestSwitchMap_CancelsPreviousInnerOnNewOuterItem(t *testing.T) {
	c := newCollector[int]()
	var item1, item2 func(int)
	var complete1 func()

	inner1 := Create(func(sub Subscriber[int], self Subscription) {
		item1 = func(v int) { sub.OnItem(v) }
		complete1 = func() { sub.OnComplete() }
	})
	inner2 := Create(func(sub Subscriber[int], self Subscription) {
		item2 = func(v int) { sub.OnItem(v) }
	})

	var pushOuter func(v int)
	outer := Create(func(sub Subscriber[int], self Subscription) {
		pushOuter = func(v int) { sub.OnItem(v) }
	})

	first := true
	switched := SwitchMap(outer, func(v int) Stream[int] {
		if first && v == 0 {
			first = false
			return inner1
		}
		return inner2
	})
	switched.Subscribe(c)

	pushOuter(0)
	item1(100)
	assert.Equal(t, []int{100}, c.items, "the first (still-active) inner delivers normally")

	pushOuter(1)
	item1(999)
	assert.Equal(t, []int{100}, c.items, "the stale first inner's item must be dropped after the switch")

	item2(200)
	assert.Equal(t, []int{100, 200}, c.items)

	if complete1 != nil {
		complete1()
	}
	assert.Equal(t, []int{100, 200}, c.items, "the stale inner's late complete must not affect the active inner")
}

func TestSwitch_CompletesOnceOuterAndLastInnerComplete(t *testing.T) {
	c := newCollector[int]()
	Switch(Of(Of(1, 2), Of(3))).Subscribe(c)
	assert.Equal(t, []int{1, 2, 3}, c.items)
	assert.True(t, c.completed)
}

func TestExhaustMap_DropsOuterItemsWhileInnerActive(t *testing.T) {
	c := newCollector[int]()
	var itemFn func(int)
	var completeFn func()
	active := Create(func(sub Subscriber[int], self Subscription) {
		itemFn = func(v int) { sub.OnItem(v) }
		completeFn = func() { sub.OnComplete() }
	})

	calls := 0
	ExhaustMap(Of(1, 2, 3), func(int) Stream[int] {
		calls++
		return active
	}).Subscribe(c)

	assert.Equal(t, 1, calls, "only the first outer item should start an inner while none is active")
	itemFn(42)
	assert.Equal(t, []int{42}, c.items)
	completeFn()
	assert.True(t, c.completed)
}

func TestExhaust_FlattensOnlyNonOverlappingInners(t *testing.T) {
	c := newCollector[int]()
	Exhaust(Of(Of(1, 2), Of(3, 4))).Subscribe(c)
	assert.Equal(t, []int{1, 2, 3, 4}, c.items)
	assert.True(t, c.completed)
}
