package rxs

// Empty subscribes to immediate completion, per spec.md §4.H.
func Empty[T any]() Stream[T] {
	return New[T]("empty", func(sub Subscriber[T]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		st.markDone()
		sub.OnComplete()
		return st
	})
}

// Fail subscribes to an immediate error signal.
func Fail[T any](err error) Stream[T] {
	return New[T]("fail", func(sub Subscriber[T]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		st.markDone()
		sub.OnError(err)
		return st
	})
}

// Of emits each of vs in order, then completes, checking the done-state
// between items so a cancel mid-emission halts delivery at the next item
// boundary (spec.md §4.H, §5 "Re-entrancy").
func Of[T any](vs ...T) Stream[T] {
	return FromSlice(vs)
}

// FromSlice iterates c, emitting each element in order then completing.
func FromSlice[T any](c []T) Stream[T] {
	return New[T]("fromSlice", func(sub Subscriber[T]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		for _, v := range c {
			if st.Done() {
				return st
			}
			sub.OnItem(v)
		}
		if !st.Done() {
			st.markDone()
			sub.OnComplete()
		}
		return st
	})
}

// Range emits start, start+1, ..., start+count-1 then completes. count <= 0
// yields an empty stream.
func Range(start, count int) Stream[int] {
	return New[int]("range", func(sub Subscriber[int]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		for i := 0; i < count; i++ {
			if st.Done() {
				return st
			}
			sub.OnItem(start + i)
		}
		if !st.Done() {
			st.markDone()
			sub.OnComplete()
		}
		return st
	})
}

// Periodic schedules a periodic task on p's Scheduler at the given period
// and emits 0, 1, 2, ... on each firing; it never completes on its own -
// only cancellation (or a downstream take/switch/exhaust) ends it. Grounded
// on spec.md §4.H "periodic(p)".
func Periodic(p *Processor, period Clock) Stream[int64] {
	return New[int64]("periodic", func(sub Subscriber[int64]) Subscription {
		var n int64
		var handle TimerHandle
		st := newState(func() {
			if handle != nil {
				handle.Cancel()
			}
		})
		sub.OnSubscribe(st)

		tick := func() {
			if st.Done() {
				return
			}
			v := n
			n++
			sub.OnItem(v)
		}
		h, err := p.Scheduler().ScheduleAtFixedRate(tick, period)
		if err != nil {
			st.markDone()
			sub.OnError(err)
			return st
		}
		handle = h
		return st
	})
}

// Generate is periodic(period).map(supplier): it fires the scheduler at
// period, invoking supplier with the firing index and emitting the result.
func Generate[T any](p *Processor, period Clock, supplier func(int64) (T, error)) Stream[T] {
	return Map(Periodic(p, period).Named("generate"), supplier)
}

// FromCallable emits a single item produced by calling supplier, then
// completes; if supplier returns an error, that error is forwarded instead.
func FromCallable[T any](supplier func() (T, error)) Stream[T] {
	return New[T]("fromCallable", func(sub Subscriber[T]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		v, err := supplier()
		if st.Done() {
			return st
		}
		st.markDone()
		if err != nil {
			sub.OnError(err)
			return st
		}
		sub.OnItem(v)
		sub.OnComplete()
		return st
	})
}

// Never subscribes to a live, never-terminating, never-emitting
// subscription.
func Never[T any]() Stream[T] {
	return New[T]("never", func(sub Subscriber[T]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		return st
	})
}

// Create hands the subscriber directly to producer, which is expected to
// call the subscriber's OnItem/OnError/OnComplete itself (e.g. bridging a
// callback-based API). producer receives the live Subscription so it can
// check Done() between emissions.
func Create[T any](producer func(sub Subscriber[T], self Subscription)) Stream[T] {
	return New[T]("create", func(sub Subscriber[T]) Subscription {
		st := newState(nil)
		sub.OnSubscribe(st)
		producer(sub, st)
		return st
	})
}
