package rxs

import "github.com/realityforge-experiments/rxs/internal/ring"

// This file implements the per-subscription stateful operators of spec.md
// §4.J, each grounded on internal/ring.Buffer (itself grounded on
// catrate/ring.go) for the bookkeeping that needs bounded, overwrite-on-full
// storage.

// Last buffers up to n most-recent items in a ring.Buffer; on complete it
// drains the buffer downstream in order, then completes. On error, the
// buffer is discarded and the error forwarded.
func Last[T any](s Stream[T], n int) Stream[T] {
	return New[T](nameOr("last", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		if n <= 0 {
			n = 1
		}
		buf := ring.New[T](n)
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if buf.Len() >= n {
					buf.Pop()
				}
				buf.Add(v)
			},
			Error: func(err error) {
				if !st.markDone() {
					return
				}
				buf.Clear()
				sub.OnError(err)
			},
			Complete: func() {
				if !st.markDone() {
					return
				}
				for _, v := range buf.Slice() {
					sub.OnItem(v)
				}
				sub.OnComplete()
			},
		})
		return st
	})
}

// Buffer accumulates n items then emits them as a []T; a short final buffer
// (fewer than n items) is flushed on complete.
func Buffer[T any](s Stream[T], n int) Stream[[]T] {
	if n <= 0 {
		n = 1
	}
	return New[[]T](nameOr("buffer", s.Name), func(sub Subscriber[[]T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		current := make([]T, 0, n)
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				current = append(current, v)
				if len(current) >= n {
					out := current
					current = make([]T, 0, n)
					sub.OnItem(out)
				}
			},
			Error: func(err error) {
				if st.markDone() {
					sub.OnError(err)
				}
			},
			Complete: func() {
				if !st.markDone() {
					return
				}
				if len(current) > 0 {
					sub.OnItem(current)
				}
				sub.OnComplete()
			},
		})
		return st
	})
}

// Window is Buffer's sub-stream variant: it accumulates n items then emits
// them as a completed sub-Stream[T] instead of a slice, for callers that
// want to compose further operators over each window.
func Window[T any](s Stream[T], n int) Stream[Stream[T]] {
	return Map(Buffer(s, n), func(vs []T) (Stream[T], error) {
		return FromSlice(vs), nil
	})
}

// Debounce cancels any pending timer on each item, scheduling a new one at
// delay f(item); when a timer fires (i.e. no newer item arrived within the
// delay), its item is emitted downstream.
func Debounce[T any](p *Processor, s Stream[T], f func(T) Clock) Stream[T] {
	return New[T](nameOr("debounce", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		var pending TimerHandle
		st := newState(func() {
			if pending != nil {
				pending.Cancel()
			}
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if pending != nil {
					pending.Cancel()
				}
				item := v
				pending = p.Scheduler().Schedule(func() {
					if !st.Done() {
						sub.OnItem(item)
					}
				}, f(v))
			},
			Error: func(err error) {
				if st.markDone() {
					if pending != nil {
						pending.Cancel()
					}
					sub.OnError(err)
				}
			},
			Complete: func() {
				if st.markDone() {
					if pending != nil {
						pending.Cancel()
					}
					sub.OnComplete()
				}
			},
		})
		return st
	})
}

// ThrottleLatest emits the first item immediately, then at most once per
// period: the most recently-arrived item since the last emission, if any
// new item arrived during the window.
func ThrottleLatest[T any](p *Processor, s Stream[T], period Clock) Stream[T] {
	return New[T](nameOr("throttleLatest", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		var timer TimerHandle
		st := newState(func() {
			if timer != nil {
				timer.Cancel()
			}
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		first := true
		var have bool
		var latest T

		var armWindow func()
		armWindow = func() {
			timer = p.Scheduler().Schedule(func() {
				if st.Done() {
					return
				}
				if have {
					v := latest
					have = false
					sub.OnItem(v)
					armWindow()
				} else {
					first = true
				}
			}, period)
		}

		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if first {
					first = false
					sub.OnItem(v)
					armWindow()
					return
				}
				have = true
				latest = v
			},
			Error: func(err error) {
				if st.markDone() {
					if timer != nil {
						timer.Cancel()
					}
					sub.OnError(err)
				}
			},
			Complete: func() {
				if st.markDone() {
					if timer != nil {
						timer.Cancel()
					}
					sub.OnComplete()
				}
			},
		})
		return st
	})
}

// Sample emits the most recently arrived item once per period, but only if
// at least one item arrived during the preceding window - unlike
// ThrottleLatest, it never emits on the leading edge and stays silent for a
// window with no arrivals (spec.md §4.J "sample").
//
// Arrival times are kept in a sorted internal/ring.Buffer[Clock] window,
// grounded directly on catrate's sliding-window rate limiter (limiter.go):
// each arrival is inserted at its Search-found sorted position rather than
// assumed to land at the tail, so multiple items arriving within the same
// virtual-clock tick (several tasks running in one round) still insert
// correctly. Each tick trims everything at or before the window's lower
// bound before checking whether anything remains.
func Sample[T any](p *Processor, s Stream[T], period Clock) Stream[T] {
	return New[T](nameOr("sample", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		var timer TimerHandle
		st := newState(func() {
			if timer != nil {
				timer.Cancel()
			}
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)

		arrivals := ring.New[Clock](4)
		var latest T
		have := false

		tick := func() {
			if st.Done() {
				return
			}
			cutoff := p.Scheduler().Now() - period
			for {
				v, ok := arrivals.Peek()
				if !ok || v > cutoff {
					break
				}
				arrivals.Pop()
			}
			if have && arrivals.Len() > 0 {
				v := latest
				have = false
				sub.OnItem(v)
			}
		}
		h, err := p.Scheduler().ScheduleAtFixedRate(tick, period)
		if err != nil {
			st.markDone()
			sub.OnError(err)
			return st
		}
		timer = h

		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				now := p.Scheduler().Now()
				arrivals.Insert(ring.Search(arrivals, now), now)
				latest = v
				have = true
			},
			Error: func(err error) {
				if st.markDone() {
					if timer != nil {
						timer.Cancel()
					}
					sub.OnError(err)
				}
			},
			Complete: func() {
				if st.markDone() {
					if timer != nil {
						timer.Cancel()
					}
					sub.OnComplete()
				}
			},
		})
		return st
	})
}

// FilterSuccessive remembers the last-emitted item and passes the current
// one through only if pred(last, current) holds; the first item is always
// passed (there is no "last" to compare against).
func FilterSuccessive[T any](s Stream[T], pred func(last, curr T) bool) Stream[T] {
	return New[T](nameOr("filterSuccessive", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		var last T
		have := false
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if have && !pred(last, v) {
					return
				}
				have = true
				last = v
				sub.OnItem(v)
			},
			Error: func(err error) {
				if st.markDone() {
					sub.OnError(err)
				}
			},
			Complete: func() {
				if st.markDone() {
					sub.OnComplete()
				}
			},
		})
		return st
	})
}
