package rxs

// Stream is a lazy, reusable description of how to produce items of type T
// (spec.md §3): pure until subscribed, and subscribable any number of times,
// with each subscription independent (except multicast hubs, §4.L).
//
// Because Go forbids a method from introducing type parameters beyond its
// receiver's, every operator that changes the item type (Map, Scan, FlatMap,
// ...) is a free function taking a Stream[T] and returning a Stream[R],
// rather than a method - grounded on the teacher's own preference for small
// composable functions over inheritance (see §9 "Inheritance chains" map to
// composition).
type Stream[T any] struct {
	// Name is an optional debug name (EngineConfig.NamesEnabled).
	Name string

	subscribe func(Subscriber[T]) Subscription
}

// New constructs a Stream from a raw subscribe function. subscribeFn is
// responsible for calling sub.OnItem/OnError/OnComplete under the ordering
// rules of spec.md §3 and returning a Subscription whose Cancel halts
// further delivery.
func New[T any](name string, subscribeFn func(Subscriber[T]) Subscription) Stream[T] {
	return Stream[T]{Name: name, subscribe: subscribeFn}
}

// Subscribe attaches sub to the stream, returning the live Subscription. When
// EngineConfig.ValidateSubscriptions is enabled, sub is wrapped with the
// protocol validator (subscription.go's validatingSubscriber) before it ever
// sees a signal - since every operator in this package subscribes to its
// upstream via this same method, wiring the wrap here validates the
// protocol at every stage boundary in a chain, not just the outermost one.
func (s Stream[T]) Subscribe(sub Subscriber[T]) Subscription {
	if validationEnabled.Load() {
		sub = ValidateSubscriber[T](s.Name, sub)
	}
	if s.subscribe == nil {
		// A zero-value Stream is the empty stream.
		st := newState(nil)
		sub.OnSubscribe(st)
		st.markDone()
		sub.OnComplete()
		return st
	}
	return s.subscribe(sub)
}

// SubscribeFunc is sugar over Subscribe + SubscriberFunc.
func (s Stream[T]) SubscribeFunc(item func(T), errFn func(error), complete func()) Subscription {
	return s.Subscribe(SubscriberFunc[T]{Item: item, Error: errFn, Complete: complete})
}

// Named returns a copy of s with Name set, for debugging (EngineConfig.NamesEnabled).
func (s Stream[T]) Named(name string) Stream[T] {
	s.Name = name
	return s
}

// nameOr returns cfgName if non-empty, else a debug name derived from
// fallback (suffixed with a short UUID when EngineConfig.NamesEnabled) - used
// by operators constructing a downstream debug name from an upstream one.
func nameOr(fallback, cfgName string) string {
	if cfgName != "" {
		return cfgName
	}
	return debugName(fallback)
}
