package rxs

// This file implements the stateless pass-through operators of spec.md §4.I:
// each adds at most a handful of fields over a straight forwarding
// subscription. Grounded on the teacher's small-struct-plus-closure style
// (eventloop/promise.go's then/catch chaining) rather than an inheritance
// tree, per §9's composition-over-inheritance design note.

// Map transforms each item with f; if f returns an error, that error is
// propagated downstream wrapped in an *OperatorError and the upstream
// subscription is cancelled.
func Map[T, R any](s Stream[T], f func(T) (R, error)) Stream[R] {
	return New[R](nameOr("map", s.Name), func(sub Subscriber[R]) Subscription {
		var upstream Subscription
		st := newState(func() {
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
				r, err := f(v)
				if err != nil {
					st.markDone()
					sub.OnError(wrapCallbackPanic("map", 0, false, err))
					if upstream != nil {
						upstream.Cancel()
					}
					return
				}
				sub.OnItem(r)
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

// Filter drops items for which pred is false.
func Filter[T any](s Stream[T], pred func(T) bool) Stream[T] {
	return New[T](nameOr("filter", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() || !pred(v) {
					return
				}
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

// Take delivers at most n items; after the nth, it completes downstream and
// cancels upstream.
func Take[T any](s Stream[T], n int) Stream[T] {
	return New[T](nameOr("take", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		count := 0
		if n <= 0 {
			st.markDone()
			sub.OnComplete()
			return st
		}
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				count++
				sub.OnItem(v)
				if count >= n && st.markDone() {
					sub.OnComplete()
					if upstream != nil {
						upstream.Cancel()
					}
				}
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

// Skip swallows the first n items.
func Skip[T any](s Stream[T], n int) Stream[T] {
	return New[T](nameOr("skip", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		seen := 0
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if seen < n {
					seen++
					return
				}
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

// Distinct delivers only the first occurrence of each item, by value
// equality (T must be comparable).
func Distinct[T comparable](s Stream[T]) Stream[T] {
	return New[T](nameOr("distinct", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		seen := make(map[T]struct{})
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if _, ok := seen[v]; ok {
					return
				}
				seen[v] = struct{}{}
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

// Scan emits the running accumulation acc = f(acc, item), seeded with seed;
// one output item per input item (an eager, always-emitting fold, as
// opposed to reduce which only emits on complete).
func Scan[T, R any](s Stream[T], seed R, f func(acc R, v T) R) Stream[R] {
	return New[R](nameOr("scan", s.Name), func(sub Subscriber[R]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		acc := seed
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				acc = f(acc, v)
				sub.OnItem(acc)
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

// DefaultIfEmpty emits v then completes if s completes having emitted no
// items; otherwise it is a pass-through.
func DefaultIfEmpty[T any](s Stream[T], v T) Stream[T] {
	return New[T](nameOr("defaultIfEmpty", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		emitted := false
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(item T) {
				if st.Done() {
					return
				}
				emitted = true
				sub.OnItem(item)
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
				if !emitted {
					sub.OnItem(v)
				}
				sub.OnComplete()
			},
		})
		return st
	})
}

// Peek invokes onItem before each item is forwarded downstream; a panic
// inside onItem is fatal to the stream (propagated as an error downstream,
// once), per spec.md §4.I.
func Peek[T any](s Stream[T], onItem func(T)) Stream[T] {
	return sideEffect(s, "peek", onItem, nil, nil, true)
}

// AfterNext invokes onItem after each item has been forwarded downstream.
func AfterNext[T any](s Stream[T], onItem func(T)) Stream[T] {
	return sideEffect(s, "afterNext", onItem, nil, nil, false)
}

// OnError invokes onErr before the error signal is forwarded downstream.
func OnError[T any](s Stream[T], onErr func(error)) Stream[T] {
	return sideEffect[T](s, "onError", nil, onErr, nil, true)
}

// AfterError invokes onErr after the error signal has been forwarded
// downstream.
func AfterError[T any](s Stream[T], onErr func(error)) Stream[T] {
	return sideEffect[T](s, "afterError", nil, onErr, nil, false)
}

// OnComplete invokes onComplete before the complete signal is forwarded.
func OnComplete[T any](s Stream[T], onComplete func()) Stream[T] {
	return sideEffect[T](s, "onComplete", nil, nil, onComplete, true)
}

// AfterComplete invokes onComplete after the complete signal has been
// forwarded downstream.
func AfterComplete[T any](s Stream[T], onComplete func()) Stream[T] {
	return sideEffect[T](s, "afterComplete", nil, nil, onComplete, false)
}

// OnTerminate invokes fn exactly once, whether the stream ends via error or
// complete (but not via a bare downstream cancel with no terminal signal
// observed from upstream).
func OnTerminate[T any](s Stream[T], fn func()) Stream[T] {
	return New[T](nameOr("onTerminate", s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if !st.Done() {
					sub.OnItem(v)
				}
			},
			Error: func(err error) {
				if st.markDone() {
					fn()
					sub.OnError(err)
				}
			},
			Complete: func() {
				if st.markDone() {
					fn()
					sub.OnComplete()
				}
			},
		})
		return st
	})
}

// sideEffect backs the Peek/AfterNext/OnError/AfterError/OnComplete/
// AfterComplete family: it invokes the relevant callback either before
// (before=true) or after forwarding each corresponding signal. A panic
// inside onItem is converted to a terminal error, delivered once, and
// cancels upstream. A panic inside onErr or onComplete is recovered and
// discarded: the original error or completion is still delivered.
func sideEffect[T any](s Stream[T], op string, onItem func(T), onErr func(error), onComplete func(), before bool) Stream[T] {
	return New[T](nameOr(op, s.Name), func(sub Subscriber[T]) Subscription {
		var upstream Subscription
		st := newState(func() {
			if upstream != nil {
				upstream.Cancel()
			}
		})
		sub.OnSubscribe(st)
		safeCall := func(fn func(), fallback func()) (ok bool) {
			defer func() {
				if r := recover(); r != nil {
					if st.markDone() {
						sub.OnError(wrapCallbackPanic(op, 0, false, r))
						if upstream != nil {
							upstream.Cancel()
						}
					}
					ok = false
				}
			}()
			fn()
			return true
		}
		upstream = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { upstream = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				if onItem != nil {
					if before {
						if !safeCall(func() { onItem(v) }, nil) {
							return
						}
						sub.OnItem(v)
					} else {
						sub.OnItem(v)
						safeCall(func() { onItem(v) }, nil)
					}
				} else {
					sub.OnItem(v)
				}
			},
			Error: func(err error) {
				if !st.markDone() {
					return
				}
				if onErr != nil {
					if before {
						safeCall(func() { onErr(err) }, nil)
						sub.OnError(err)
					} else {
						sub.OnError(err)
						safeCall(func() { onErr(err) }, nil)
					}
				} else {
					sub.OnError(err)
				}
			},
			Complete: func() {
				if !st.markDone() {
					return
				}
				if onComplete != nil {
					if before {
						safeCall(onComplete, nil)
						sub.OnComplete()
					} else {
						sub.OnComplete()
						safeCall(onComplete, nil)
					}
				} else {
					sub.OnComplete()
				}
			},
		})
		return st
	})
}

// OnErrorResumeWith swaps the upstream to f(error) when s errors, so the
// downstream observes a single seamless logical sequence (spec.md §4.G):
// no re-subscribe is visible, only the continuation stream's own terminal
// ends the sequence. If f returns a zero-value Stream (no resume target),
// semantics fall back to "forward the original error" per spec.md §9's open
// question resolution.
func OnErrorResumeWith[T any](s Stream[T], f func(error) Stream[T]) Stream[T] {
	return New[T](nameOr("onErrorResumeWith", s.Name), func(sub Subscriber[T]) Subscription {
		var current Subscription
		st := newState(func() {
			if current != nil {
				current.Cancel()
			}
		})
		sub.OnSubscribe(st)
		var subscribeResume func(err error)
		subscribeResume = func(err error) {
			resumed := f(err)
			if resumed.subscribe == nil {
				if st.markDone() {
					sub.OnError(err)
				}
				return
			}
			current = resumed.Subscribe(SubscriberFunc[T]{
				Subscribe: func(sub Subscription) { current = sub },
				Item: func(v T) {
					if !st.Done() {
						sub.OnItem(v)
					}
				},
				Error: func(e2 error) {
					if st.markDone() {
						sub.OnError(e2)
					}
				},
				Complete: func() {
					if st.markDone() {
						sub.OnComplete()
					}
				},
			})
		}
		current = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { current = sub },
			Item: func(v T) {
				if !st.Done() {
					sub.OnItem(v)
				}
			},
			Error: func(err error) {
				if st.Done() {
					return
				}
				subscribeResume(err)
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

// RescueThenReturn is onErrorResumeWith backed by a single-value Of stream:
// on error, emit v then complete.
func RescueThenReturn[T any](s Stream[T], v T) Stream[T] {
	return OnErrorResumeWith(s, func(error) Stream[T] { return Of(v) })
}
