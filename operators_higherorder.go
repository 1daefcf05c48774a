package rxs

// This file implements the streams-of-streams operators of spec.md §4.K.
// Each takes an outer Stream[T] plus a mapping f: T -> Stream[R]; the
// stream-of-streams forms (Concat, Merge, Switch, Exhaust) are the identity
// specialization of the Map-variants (FlatMap/SwitchMap/ExhaustMap), mirroring
// how the teacher keeps a single generalized implementation and a thin
// convenience wrapper rather than duplicating logic per variant.

func identityStream[T any](s Stream[T]) Stream[T] { return s }

// removeSubscription removes target from list by identity, if present.
func removeSubscription(list *[]Subscription, target Subscription) {
	s := *list
	for i, x := range s {
		if x == target {
			*list = append(s[:i], s[i+1:]...)
			return
		}
	}
}

// FlatMap subscribes to up to maxConcurrency inner streams (produced by
// f from each outer item) concurrently; maxConcurrency <= 0 means
// unbounded. Extra outer items beyond the concurrency budget are queued in
// an unbounded FIFO and subscribed as active inners complete. concat is
// FlatMap with maxConcurrency == 1; merge is FlatMap with maxConcurrency ==
// K. On any inner or outer error, all active inners and the outer are
// cancelled and the error propagates once.
func FlatMap[T, R any](s Stream[T], maxConcurrency int, f func(T) Stream[R]) Stream[R] {
	return New[R](nameOr("flatMap", s.Name), func(sub Subscriber[R]) Subscription {
		var outerSub Subscription
		var active []Subscription
		var pending []Stream[R]
		outerDone := false

		st := newState(func() {
			if outerSub != nil {
				outerSub.Cancel()
			}
			for _, a := range active {
				a.Cancel()
			}
		})
		sub.OnSubscribe(st)

		maybeComplete := func() {
			if outerDone && len(active) == 0 && len(pending) == 0 {
				if st.markDone() {
					sub.OnComplete()
				}
			}
		}

		var subscribeNext func()
		var subscribeInner func(inner Stream[R])

		subscribeInner = func(inner Stream[R]) {
			var innerSub Subscription
			completed := false
			innerSub = inner.Subscribe(SubscriberFunc[R]{
				Subscribe: func(sub Subscription) { innerSub = sub },
				Item: func(v R) {
					if !st.Done() {
						sub.OnItem(v)
					}
				},
				Error: func(err error) {
					if st.markDone() {
						if outerSub != nil {
							outerSub.Cancel()
						}
						for _, a := range active {
							a.Cancel()
						}
						sub.OnError(err)
					}
				},
				Complete: func() {
					if st.Done() {
						return
					}
					completed = true
					removeSubscription(&active, innerSub)
					subscribeNext()
					maybeComplete()
				},
			})
			// An inner that completed synchronously inside Subscribe is
			// already finished and must not count against the budget.
			if !completed {
				active = append(active, innerSub)
			}
		}

		subscribeNext = func() {
			if maxConcurrency > 0 && len(active) >= maxConcurrency {
				return
			}
			if len(pending) == 0 {
				return
			}
			next := pending[0]
			pending = pending[1:]
			subscribeInner(next)
		}

		outerSub = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { outerSub = sub },
			Item: func(v T) {
				if st.Done() {
					return
				}
				inner := f(v)
				if maxConcurrency <= 0 || len(active) < maxConcurrency {
					subscribeInner(inner)
				} else {
					pending = append(pending, inner)
				}
			},
			Error: func(err error) {
				if st.markDone() {
					for _, a := range active {
						a.Cancel()
					}
					sub.OnError(err)
				}
			},
			Complete: func() {
				outerDone = true
				maybeComplete()
			},
		})
		return st
	})
}

// Concat flattens a stream of streams in order: each inner stream is fully
// drained before the next is subscribed (FlatMap with maxConcurrency 1).
func Concat[T any](s Stream[Stream[T]]) Stream[T] {
	return FlatMap(s, 1, identityStream[T])
}

// Merge flattens a stream of streams, running up to maxConcurrency inner
// streams at once (FlatMap with maxConcurrency K). maxConcurrency <= 0
// means unbounded.
func Merge[T any](s Stream[Stream[T]], maxConcurrency int) Stream[T] {
	return FlatMap(s, maxConcurrency, identityStream[T])
}

// SwitchMap subscribes to f(v) for each outer item v, cancelling any
// previously active inner stream first: at most one inner is ever active.
// Downstream completes once both the outer and the (last) inner have
// completed.
func SwitchMap[T, R any](s Stream[T], f func(T) Stream[R]) Stream[R] {
	return New[R](nameOr("switchMap", s.Name), func(sub Subscriber[R]) Subscription {
		var outerSub Subscription
		var innerSub Subscription
		gen := 0
		outerDone := false

		st := newState(func() {
			if innerSub != nil {
				innerSub.Cancel()
			}
			if outerSub != nil {
				outerSub.Cancel()
			}
		})
		sub.OnSubscribe(st)

		maybeComplete := func() {
			if outerDone && innerSub == nil {
				if st.markDone() {
					sub.OnComplete()
				}
			}
		}

		subscribeInner := func(v T) {
			gen++
			myGen := gen
			if innerSub != nil {
				prev := innerSub
				innerSub = nil
				prev.Cancel()
			}
			next := f(v).Subscribe(SubscriberFunc[R]{
				Subscribe: func(sub Subscription) { innerSub = sub },
				Item: func(r R) {
					if st.Done() || myGen != gen {
						return
					}
					sub.OnItem(r)
				},
				Error: func(err error) {
					if myGen != gen {
						return
					}
					if st.markDone() {
						if outerSub != nil {
							outerSub.Cancel()
						}
						sub.OnError(err)
					}
				},
				Complete: func() {
					if myGen != gen {
						return
					}
					innerSub = nil
					maybeComplete()
				},
			})
			// Keep the handle only if this inner is still the active one and
			// did not already complete synchronously inside Subscribe.
			if myGen == gen && innerSub != nil {
				innerSub = next
			}
		}

		outerSub = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { outerSub = sub },
			Item: func(v T) {
				if !st.Done() {
					subscribeInner(v)
				}
			},
			Error: func(err error) {
				if st.markDone() {
					if innerSub != nil {
						innerSub.Cancel()
					}
					sub.OnError(err)
				}
			},
			Complete: func() {
				outerDone = true
				maybeComplete()
			},
		})
		return st
	})
}

// Switch is SwitchMap's stream-of-streams specialization.
func Switch[T any](s Stream[Stream[T]]) Stream[T] {
	return SwitchMap(s, identityStream[T])
}

// ExhaustMap is the mirror image of SwitchMap: while an inner stream is
// active, further outer items are dropped; only once the active inner
// completes does the next outer item get a chance to start a new one.
func ExhaustMap[T, R any](s Stream[T], f func(T) Stream[R]) Stream[R] {
	return New[R](nameOr("exhaustMap", s.Name), func(sub Subscriber[R]) Subscription {
		var outerSub Subscription
		var innerSub Subscription
		outerDone := false

		st := newState(func() {
			if innerSub != nil {
				innerSub.Cancel()
			}
			if outerSub != nil {
				outerSub.Cancel()
			}
		})
		sub.OnSubscribe(st)

		maybeComplete := func() {
			if outerDone && innerSub == nil {
				if st.markDone() {
					sub.OnComplete()
				}
			}
		}

		outerSub = s.Subscribe(SubscriberFunc[T]{
			Subscribe: func(sub Subscription) { outerSub = sub },
			Item: func(v T) {
				if st.Done() || innerSub != nil {
					return
				}
				next := f(v).Subscribe(SubscriberFunc[R]{
					Subscribe: func(sub Subscription) { innerSub = sub },
					Item: func(r R) {
						if !st.Done() {
							sub.OnItem(r)
						}
					},
					Error: func(err error) {
						if st.markDone() {
							if outerSub != nil {
								outerSub.Cancel()
							}
							sub.OnError(err)
						}
					},
					Complete: func() {
						innerSub = nil
						maybeComplete()
					},
				})
				// An inner that completed synchronously has already cleared
				// innerSub; only a still-running inner is kept.
				if innerSub != nil {
					innerSub = next
				}
			},
			Error: func(err error) {
				if st.markDone() {
					if innerSub != nil {
						innerSub.Cancel()
					}
					sub.OnError(err)
				}
			},
			Complete: func() {
				outerDone = true
				maybeComplete()
			},
		})
		return st
	})
}

// Exhaust is ExhaustMap's stream-of-streams specialization.
func Exhaust[T any](s Stream[Stream[T]]) Stream[T] {
	return ExhaustMap(s, identityStream[T])
}
