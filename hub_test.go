package rxs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_SubjectDropsItemsEmittedBeforeSubscribe(t *testing.T) {
	hub := NewSubjectHub[int]()
	hub.OnItem(1)

	c := newCollector[int]()
	hub.Stream().Subscribe(c)
	hub.OnItem(2)
	hub.OnComplete()

	assert.Equal(t, []int{2}, c.items, "a subject hub has no replay - only items after subscribe are seen")
	assert.True(t, c.completed)
}

func TestHub_ReplayBuffersLastNForLateSubscribers(t *testing.T) {
	hub := NewReplayHub[int](2)
	hub.OnItem(1)
	hub.OnItem(2)
	hub.OnItem(3)

	c := newCollector[int]()
	hub.Stream().Subscribe(c)
	assert.Equal(t, []int{2, 3}, c.items, "only the last 2 buffered items replay to a late subscriber")

	hub.OnItem(4)
	assert.Equal(t, []int{2, 3, 4}, c.items)
}

func TestHub_BehaviorSeedsInitialValue(t *testing.T) {
	hub := NewBehaviorHub(42)
	c := newCollector[int]()
	hub.Stream().Subscribe(c)
	assert.Equal(t, []int{42}, c.items, "a behavior hub replays its seed to every subscriber, even with no upstream activity")
}

func TestHub_AsyncOnlyEmitsLastItemOnComplete(t *testing.T) {
	hub := NewAsyncHub[int]()
	c := newCollector[int]()
	hub.Stream().Subscribe(c)

	hub.OnItem(1)
	hub.OnItem(2)
	assert.Empty(t, c.items, "an async hub withholds items until complete")

	hub.OnComplete()
	assert.Equal(t, []int{2}, c.items, "only the most recent item is delivered, immediately before complete")
	assert.True(t, c.completed)
}

func TestHub_LateSubscriberAfterTerminalReplaysBufferThenTerminal(t *testing.T) {
	hub := NewReplayHub[int](5)
	hub.OnItem(1)
	hub.OnItem(2)
	hub.OnComplete()

	c := newCollector[int]()
	hub.Stream().Subscribe(c)
	assert.Equal(t, []int{1, 2}, c.items)
	assert.True(t, c.completed)
}

func TestHub_MulticastsOneUpstreamToManyDownstreams(t *testing.T) {
	hub := NewSubjectHub[int]()
	c1 := newCollector[int]()
	c2 := newCollector[int]()
	hub.Stream().Subscribe(c1)
	hub.Stream().Subscribe(c2)

	hub.OnItem(7)
	hub.OnComplete()

	assert.Equal(t, []int{7}, c1.items)
	assert.Equal(t, []int{7}, c2.items)
	assert.True(t, c1.completed)
	assert.True(t, c2.completed)
}

func TestHub_CancelledSubscriberStopsReceivingFurtherItems(t *testing.T) {
	hub := NewSubjectHub[int]()
	c1 := newCollector[int]()
	c2 := newCollector[int]()
	sub1 := hub.Stream().Subscribe(c1)
	hub.Stream().Subscribe(c2)

	hub.OnItem(1)
	sub1.Cancel()
	hub.OnItem(2)

	assert.Equal(t, []int{1}, c1.items)
	assert.Equal(t, []int{1, 2}, c2.items)
}

func TestConnectable_ConnectIsIdempotentBeforeDisconnect(t *testing.T) {
	var subscribeCount int
	src := New[int]("counted", func(sub Subscriber[int]) Subscription {
		subscribeCount++
		st := newState(nil)
		sub.OnSubscribe(st)
		return st
	})

	c := NewConnectable(src, NewSubjectHub[int]())
	c.Connect()
	c.Connect()
	assert.Equal(t, 1, subscribeCount)

	c.Disconnect()
	c.Connect()
	assert.Equal(t, 2, subscribeCount)
}

func TestRefCount_ConnectsOnFirstSubscriberDisconnectsOnLast(t *testing.T) {
	var subscribeCount, cancelCount int
	src := New[int]("counted", func(sub Subscriber[int]) Subscription {
		subscribeCount++
		st := newState(func() { cancelCount++ })
		sub.OnSubscribe(st)
		return st
	})

	shared := RefCount(src, NewSubjectHub[int]())

	c1 := newCollector[int]()
	sub1 := shared.Subscribe(c1)
	assert.Equal(t, 1, subscribeCount, "the first subscriber connects the shared upstream")

	c2 := newCollector[int]()
	sub2 := shared.Subscribe(c2)
	assert.Equal(t, 1, subscribeCount, "a second concurrent subscriber reuses the existing connection")

	sub1.Cancel()
	assert.Equal(t, 0, cancelCount, "the upstream must stay connected while any subscriber remains")

	sub2.Cancel()
	assert.Equal(t, 1, cancelCount, "the upstream disconnects once the last subscriber cancels")
}

func TestRefCount_CancelViaCapturedSubscriptionActuallyDecrements(t *testing.T) {
	var cancelCount int
	src := New[int]("counted", func(sub Subscriber[int]) Subscription {
		st := newState(func() { cancelCount++ })
		sub.OnSubscribe(st)
		return st
	})

	shared := RefCount(src, NewSubjectHub[int]())

	var captured Subscription
	shared.Subscribe(SubscriberFunc[int]{
		Subscribe: func(sub Subscription) { captured = sub },
	})
	captured.Cancel()
	assert.Equal(t, 1, cancelCount, "cancelling the Subscription delivered via OnSubscribe must drive the refcount teardown")
}
