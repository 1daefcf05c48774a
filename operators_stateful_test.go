package rxs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLast_DrainsMostRecentNOnComplete(t *testing.T) {
	c := newCollector[int]()
	Last(Range(0, 10), 3).Subscribe(c)
	assert.Equal(t, []int{7, 8, 9}, c.items)
	assert.True(t, c.completed)
}

func TestLast_FewerThanNItemsDrainsAll(t *testing.T) {
	c := newCollector[int]()
	Last(Of(1, 2), 5).Subscribe(c)
	assert.Equal(t, []int{1, 2}, c.items)
	assert.True(t, c.completed)
}

func TestBuffer_EmitsFixedSizeBatches(t *testing.T) {
	c := newCollector[[]int]()
	Buffer(Range(0, 7), 3).Subscribe(c)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}, {6}}, c.items)
	assert.True(t, c.completed)
}

func TestWindow_EmitsSubStreamsOfSizeN(t *testing.T) {
	var flattened []int
	Window(Range(0, 5), 2).SubscribeFunc(func(w Stream[int]) {
		w.SubscribeFunc(func(v int) { flattened = append(flattened, v) }, nil, nil)
	}, nil, nil)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, flattened)
}

func TestDebounce_OnlyFiresAfterQuietPeriod(t *testing.T) {
	p := newTestProcessor(t)
	c := newCollector[int]()

	var push func(v int)
	var complete func()
	underlying := Create(func(sub Subscriber[int], self Subscription) {
		push = func(v int) { sub.OnItem(v) }
		complete = func() { sub.OnComplete() }
	})

	Debounce(p, underlying, func(int) Clock { return 10 }).Subscribe(c)

	push(1)
	p.Scheduler().AdvanceTo(5)
	p.Executor().RunToExhaustion()
	assert.Empty(t, c.items, "debounce must not fire before the quiet period elapses")

	push(2)
	p.Scheduler().AdvanceTo(15)
	p.Executor().RunToExhaustion()
	assert.Equal(t, []int{2}, c.items, "only the latest value before the quiet period should fire")

	complete()
	assert.True(t, c.completed)
}

func TestThrottleLatest_FirstItemIsImmediate(t *testing.T) {
	p := newTestProcessor(t)
	c := newCollector[int]()

	var push func(v int)
	underlying := Create(func(sub Subscriber[int], self Subscription) {
		push = func(v int) { sub.OnItem(v) }
	})

	ThrottleLatest(p, underlying, 10).Subscribe(c)
	push(1)
	assert.Equal(t, []int{1}, c.items, "the first item must emit immediately")

	push(2)
	push(3)
	assert.Equal(t, []int{1}, c.items, "items within the active window must be held back")

	p.Scheduler().AdvanceTo(10)
	p.Executor().RunToExhaustion()
	assert.Equal(t, []int{1, 3}, c.items, "only the latest held item emits when the window closes")
}

func TestSample_OnlyEmitsWhenArrivalWithinWindow(t *testing.T) {
	p := newTestProcessor(t)
	c := newCollector[int]()

	var push func(v int)
	underlying := Create(func(sub Subscriber[int], self Subscription) {
		push = func(v int) { sub.OnItem(v) }
	})

	Sample(p, underlying, 10).Subscribe(c)

	p.Scheduler().AdvanceTo(5)
	push(1)
	p.Scheduler().AdvanceTo(10)
	p.Executor().RunToExhaustion()
	assert.Equal(t, []int{1}, c.items, "an item that arrived during the first window samples")

	p.Scheduler().AdvanceTo(20)
	p.Executor().RunToExhaustion()
	assert.Equal(t, []int{1}, c.items, "no arrivals during the second window: nothing further emitted")

	p.Scheduler().AdvanceTo(25)
	push(2)
	push(3)
	p.Scheduler().AdvanceTo(30)
	p.Executor().RunToExhaustion()
	assert.Equal(t, []int{1, 3}, c.items, "the latest of several arrivals in a window samples")
}

func TestFilterSuccessive_FirstItemAlwaysPasses(t *testing.T) {
	c := newCollector[int]()
	FilterSuccessive(FromSlice([]int{5, 5, 6, 6, 6, 7}), func(last, curr int) bool {
		return curr != last
	}).Subscribe(c)
	assert.Equal(t, []int{5, 6, 7}, c.items)
}
