package rxs

import (
	"reflect"
	"sync/atomic"
)

// validationEnabled mirrors EngineConfig.ValidateSubscriptions, set by
// NewProcessor via setValidationEnabled; see stream.go's Subscribe, which
// wraps every subscriber in a validatingSubscriber when it is set. Package
// level for the same reason as namesEnabled (naming.go): Stream values are
// constructed independently of any particular Processor.
var validationEnabled atomic.Bool

// setValidationEnabled is called by NewProcessor with
// EngineConfig.ValidateSubscriptions.
func setValidationEnabled(v bool) {
	validationEnabled.Store(v)
}

// Subscriber is the sink capability of spec.md §3: a consumer of the four
// lifecycle signals. subscribe is delivered exactly once via OnSubscribe,
// strictly before any other signal (spec.md §3) - every source and operator
// in this package calls OnSubscribe synchronously before its first
// Item/Error/Complete, so a downstream operator's upstream Subscription
// reference is always valid by the time a signal can reach it, even when
// upstream emits synchronously and reentrantly from within its own
// Subscribe call.
type Subscriber[T any] interface {
	// OnSubscribe delivers the live Subscription. Always first.
	OnSubscribe(sub Subscription)
	// OnItem delivers one item. Never called before OnSubscribe, never
	// called after a terminal signal or cancel.
	OnItem(v T)
	// OnError delivers the terminal error signal. At most once, mutually
	// exclusive with OnComplete.
	OnError(err error)
	// OnComplete delivers the terminal completion signal. At most once,
	// mutually exclusive with OnError.
	OnComplete()
}

// SubscriberFunc adapts plain functions into a Subscriber. A nil field is a
// no-op for that signal.
type SubscriberFunc[T any] struct {
	Subscribe func(Subscription)
	Item      func(T)
	Error     func(error)
	Complete  func()
}

func (f SubscriberFunc[T]) OnSubscribe(sub Subscription) {
	if f.Subscribe != nil {
		f.Subscribe(sub)
	}
}

func (f SubscriberFunc[T]) OnItem(v T) {
	if f.Item != nil {
		f.Item(v)
	}
}

func (f SubscriberFunc[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f SubscriberFunc[T]) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}

// Subscription is the cancel capability of spec.md §3. Cancellation is
// idempotent: after the first Cancel, subsequent calls are no-ops.
type Subscription interface {
	Cancel()
	// Done reports whether the subscription has reached a terminal state
	// (cancelled, errored, or completed).
	Done() bool
}

// subState is the lifecycle state machine of spec.md §4.G:
// initial -> subscribed -> done.
type subState int32

const (
	subInitial subState = iota
	subSubscribed
	subDone
)

// state is the shared done-flag every subscription in this package embeds,
// grounded on the teacher's FastState CAS pattern (used throughout
// eventloop/promise.go for Pending/Resolved/Rejected transitions) adapted to
// the three-state subscribe/done lifecycle of spec.md §4.G.
type state struct {
	v        atomic.Int32
	cancelFn func()
}

func newState(cancelFn func()) *state {
	s := &state{cancelFn: cancelFn}
	s.v.Store(int32(subSubscribed))
	return s
}

// Cancel idempotently transitions to done and invokes the upstream cancel
// callback exactly once.
func (s *state) Cancel() {
	if s.v.CompareAndSwap(int32(subSubscribed), int32(subDone)) || s.v.CompareAndSwap(int32(subInitial), int32(subDone)) {
		if s.cancelFn != nil {
			s.cancelFn()
		}
	}
}

// Done reports whether the state has reached subDone, via any path
// (explicit Cancel, or markDone from a terminal signal).
func (s *state) Done() bool {
	return subState(s.v.Load()) == subDone
}

// markDone transitions straight to done without invoking cancelFn - used
// when a terminal signal (error/complete), rather than an explicit Cancel,
// is what ends the subscription. Returns false if it was already done
// (guards against double-terminal delivery, spec.md §3).
func (s *state) markDone() bool {
	return s.v.CompareAndSwap(int32(subSubscribed), int32(subDone)) || s.v.CompareAndSwap(int32(subInitial), int32(subDone))
}

// NewSubscription returns a bare Subscription whose Cancel invokes cancelFn
// exactly once. Used by sources and operators that have no further
// bookkeeping to do on cancel.
func NewSubscription(cancelFn func()) Subscription {
	return newState(cancelFn)
}

// validatingSubscriber wraps a Subscriber[T] to enforce the protocol
// invariants of spec.md §3/§4.G when EngineConfig.ValidateSubscriptions is
// enabled: exactly one subscribe, nothing before subscribe, exactly one
// terminal signal, nothing after cancel/terminal, and no nil items.
// Violations raise a *ProtocolViolationError via the panic path (so that,
// combined with Task.run's recover, they surface as a logged error rather
// than corrupting downstream state).
//
// Grounded on ygrebnov-workers's error-tagging approach: rather than
// silently dropping an out-of-protocol signal, we tag and surface it. Unlike
// an earlier revision, this does not need the Subscription handed to it up
// front: it observes cancellation by wrapping the Subscription it receives
// via OnSubscribe, so it can be constructed before the underlying stream's
// own Subscription exists - which is what lets Stream.Subscribe wrap every
// subscriber uniformly (see stream.go).
type validatingSubscriber[T any] struct {
	name       string
	subscribed atomic.Bool
	terminal   atomic.Bool
	cancelled  atomic.Bool
	inner      Subscriber[T]
}

// ValidateSubscriber wraps inner with protocol assertions, returning the
// wrapped Subscriber. name is used only for diagnostics.
func ValidateSubscriber[T any](name string, inner Subscriber[T]) Subscriber[T] {
	return &validatingSubscriber[T]{name: name, inner: inner}
}

// validatingSubscription wraps the Subscription delivered to OnSubscribe so
// the validator can observe explicit Cancel calls in addition to terminal
// signals.
type validatingSubscription struct {
	v     interface{ markCancelled() }
	inner Subscription
}

func (s *validatingSubscription) Cancel() {
	s.v.markCancelled()
	s.inner.Cancel()
}

func (s *validatingSubscription) Done() bool { return s.inner.Done() }

func (v *validatingSubscriber[T]) markCancelled() { v.cancelled.Store(true) }

func (v *validatingSubscriber[T]) done() bool {
	return v.terminal.Load() || v.cancelled.Load()
}

func (v *validatingSubscriber[T]) OnSubscribe(sub Subscription) {
	if !v.subscribed.CompareAndSwap(false, true) {
		panic(&ProtocolViolationError{Cause: ErrAlreadySubscribed, Stream: v.name, Message: "subscribe delivered more than once"})
	}
	v.inner.OnSubscribe(&validatingSubscription{v: v, inner: sub})
}

func (v *validatingSubscriber[T]) OnItem(item T) {
	if !v.subscribed.Load() {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "item delivered before subscribe"})
	}
	if v.done() {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "item delivered after terminal/cancel"})
	}
	if isNilItem(item) {
		panic(&ProtocolViolationError{Cause: ErrNilItem, Stream: v.name, Message: "nil item delivered"})
	}
	v.inner.OnItem(item)
}

func (v *validatingSubscriber[T]) OnError(err error) {
	if !v.subscribed.Load() {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "error delivered before subscribe"})
	}
	if v.done() {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "error delivered after terminal/cancel"})
	}
	if !v.terminal.CompareAndSwap(false, true) {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "error delivered after a prior terminal signal"})
	}
	v.inner.OnError(err)
}

func (v *validatingSubscriber[T]) OnComplete() {
	if !v.subscribed.Load() {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "complete delivered before subscribe"})
	}
	if v.done() {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "complete delivered after terminal/cancel"})
	}
	if !v.terminal.CompareAndSwap(false, true) {
		panic(&ProtocolViolationError{Cause: ErrSignalAfterTerminal, Stream: v.name, Message: "complete delivered after a prior terminal signal"})
	}
	v.inner.OnComplete()
}

// isNilItem reports whether v, boxed as any, is a nil pointer/interface/
// map/slice/chan/func - the nilable kinds a Subscriber[T] could plausibly
// receive as a "null item" per spec.md §6 "validateSubscriptions ... rejects
// ... null items". Non-nilable kinds (ints, structs, strings, ...) are never
// reported as nil.
func isNilItem(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
