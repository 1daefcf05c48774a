package rxs

import (
	"sync"

	"github.com/realityforge-experiments/rxs/internal/ring"
)

// HubKind selects a multicast hub's caching/latching policy (spec.md §4.L),
// modeled as a tagged variant per §9's design note ("Stream variants ...
// model as a tagged variant HubKind with per-variant state, not an
// inheritance tree") rather than one concrete type per variant.
type HubKind int

const (
	// HubSubject broadcasts items as-is with no replay buffer; only the
	// terminal signal is latched.
	HubSubject HubKind = iota
	// HubReplay buffers the last N items (plus the terminal, if any);
	// new subscribers receive the buffered items in order, then any
	// terminal.
	HubReplay
	// HubBehavior is HubReplay(1) seeded with an initial value at
	// construction.
	HubBehavior
	// HubAsync holds only the last item and the terminal, emitting the
	// item (if any) only once complete fires.
	HubAsync
)

type hubSubscriber[T any] struct {
	sub Subscriber[T]
}

func removeHubSubscriber[T any](list *[]*hubSubscriber[T], target *hubSubscriber[T]) {
	s := *list
	for i, x := range s {
		if x == target {
			*list = append(s[:i], s[i+1:]...)
			return
		}
	}
}

func containsHubSubscriber[T any](list []*hubSubscriber[T], target *hubSubscriber[T]) bool {
	for _, x := range list {
		if x == target {
			return true
		}
	}
	return false
}

// Hub is a multicast fan-out (spec.md §4.L): it holds an ordered list of
// downstream subscribers and implements Subscriber[T] itself, so it can be
// subscribed directly to an upstream source (see Connectable). Its own
// Stream() method hands out independent downstream subscriptions that all
// observe the same upstream items, per hub-variant caching/latching policy.
//
// Grounded on the teacher's event-target dispatch policy
// (eventloop/eventtarget.go): DispatchEvent iterates a snapshot of listeners
// taken at broadcast start, checking live membership before each callback so
// concurrent add/remove during dispatch behaves per spec.md §4.L's
// broadcast policy.
type Hub[T any] struct {
	kind HubKind

	mu          sync.Mutex
	subscribers []*hubSubscriber[T]

	replayBuf *ring.Buffer[T] // HubReplay / HubBehavior only

	hasTerminal      bool
	terminalErr      error
	terminalComplete bool

	asyncHasItem bool
	asyncItem    T
}

// NewSubjectHub creates a plain-subject hub: no replay, terminal latched.
func NewSubjectHub[T any]() *Hub[T] {
	return &Hub[T]{kind: HubSubject}
}

// NewReplayHub creates a hub that buffers the last n items for late
// subscribers.
func NewReplayHub[T any](n int) *Hub[T] {
	if n <= 0 {
		n = 1
	}
	return &Hub[T]{kind: HubReplay, replayBuf: ring.New[T](n)}
}

// NewBehaviorHub creates a replay(1) hub pre-seeded with v0.
func NewBehaviorHub[T any](v0 T) *Hub[T] {
	h := &Hub[T]{kind: HubBehavior, replayBuf: ring.New[T](1)}
	h.replayBuf.Add(v0)
	return h
}

// NewAsyncHub creates a hub that holds only the most recent item, emitted
// (to every subscriber, including those already attached) only once
// complete fires.
func NewAsyncHub[T any]() *Hub[T] {
	return &Hub[T]{kind: HubAsync}
}

// OnSubscribe satisfies Subscriber[T] so a Hub can be subscribed directly to
// an upstream source (see Connectable.Connect). The hub has no use for the
// upstream Subscription itself - Connectable tracks and cancels it.
func (h *Hub[T]) OnSubscribe(sub Subscription) {}

// OnItem fans v out to the current snapshot of subscribers (spec.md §4.L
// broadcast policy), caching it per the hub's variant.
func (h *Hub[T]) OnItem(v T) {
	h.mu.Lock()
	if h.hasTerminal {
		h.mu.Unlock()
		return
	}
	switch h.kind {
	case HubReplay, HubBehavior:
		if h.replayBuf.Len() >= h.replayBuf.Cap() {
			h.replayBuf.Pop()
		}
		h.replayBuf.Add(v)
	case HubAsync:
		h.asyncItem = v
		h.asyncHasItem = true
	}
	snapshot := append([]*hubSubscriber[T](nil), h.subscribers...)
	isAsync := h.kind == HubAsync
	h.mu.Unlock()

	if isAsync {
		// Async only emits on complete; see OnComplete.
		return
	}
	for _, hs := range snapshot {
		h.mu.Lock()
		live := containsHubSubscriber(h.subscribers, hs)
		h.mu.Unlock()
		if live {
			hs.sub.OnItem(v)
		}
	}
}

// OnError latches the error as the hub's terminal and broadcasts it once to
// the current snapshot of subscribers.
func (h *Hub[T]) OnError(err error) {
	h.mu.Lock()
	if h.hasTerminal {
		h.mu.Unlock()
		return
	}
	h.hasTerminal = true
	h.terminalErr = err
	snapshot := append([]*hubSubscriber[T](nil), h.subscribers...)
	h.mu.Unlock()

	for _, hs := range snapshot {
		h.mu.Lock()
		live := containsHubSubscriber(h.subscribers, hs)
		h.mu.Unlock()
		if live {
			hs.sub.OnError(err)
		}
	}
}

// OnComplete latches completion as the hub's terminal; for HubAsync, the
// cached last item (if any) is delivered to each live subscriber
// immediately before complete.
func (h *Hub[T]) OnComplete() {
	h.mu.Lock()
	if h.hasTerminal {
		h.mu.Unlock()
		return
	}
	h.hasTerminal = true
	h.terminalComplete = true
	snapshot := append([]*hubSubscriber[T](nil), h.subscribers...)
	asyncItem, asyncHasItem := h.asyncItem, h.asyncHasItem
	isAsync := h.kind == HubAsync
	h.mu.Unlock()

	for _, hs := range snapshot {
		h.mu.Lock()
		live := containsHubSubscriber(h.subscribers, hs)
		h.mu.Unlock()
		if !live {
			continue
		}
		if isAsync && asyncHasItem {
			hs.sub.OnItem(asyncItem)
		}
		hs.sub.OnComplete()
	}
}

// Stream returns a Stream[T] whose subscriptions attach to this hub. Each
// call returns an independent downstream subscription sharing the hub's
// single upstream (spec.md §3 "Ownership ... Hubs are shared").
func (h *Hub[T]) Stream() Stream[T] {
	return New[T]("hub", func(sub Subscriber[T]) Subscription {
		h.mu.Lock()
		if h.hasTerminal {
			var buffered []T
			if h.kind == HubReplay || h.kind == HubBehavior {
				buffered = h.replayBuf.Slice()
			}
			terminalErr, terminalComplete := h.terminalErr, h.terminalComplete
			asyncItem, asyncHasItem := h.asyncItem, h.asyncHasItem
			isAsync := h.kind == HubAsync
			h.mu.Unlock()

			st := newState(nil)
			sub.OnSubscribe(st)
			for _, v := range buffered {
				sub.OnItem(v)
			}
			if isAsync && asyncHasItem && terminalComplete {
				sub.OnItem(asyncItem)
			}
			st.markDone()
			if terminalComplete {
				sub.OnComplete()
			} else {
				sub.OnError(terminalErr)
			}
			return st
		}

		hs := &hubSubscriber[T]{sub: sub}
		var buffered []T
		if h.kind == HubReplay || h.kind == HubBehavior {
			buffered = h.replayBuf.Slice()
		}
		h.subscribers = append(h.subscribers, hs)
		h.mu.Unlock()

		st := newState(func() {
			h.mu.Lock()
			removeHubSubscriber(&h.subscribers, hs)
			h.mu.Unlock()
		})
		sub.OnSubscribe(st)
		for _, v := range buffered {
			sub.OnItem(v)
		}

		return st
	})
}

// Connectable wraps a source Stream and a Hub: Connect subscribes the hub
// to the source; Disconnect cancels that subscription. Multiple Connect
// calls before a Disconnect are no-ops (idempotent connect), matching the
// subscription's own idempotent-cancel contract.
type Connectable[T any] struct {
	source Stream[T]
	hub    *Hub[T]

	mu          sync.Mutex
	upstreamSub Subscription
}

// NewConnectable pairs source with hub.
func NewConnectable[T any](source Stream[T], hub *Hub[T]) *Connectable[T] {
	return &Connectable[T]{source: source, hub: hub}
}

// Connect subscribes the hub to the source, if not already connected.
func (c *Connectable[T]) Connect() Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.upstreamSub == nil {
		c.upstreamSub = c.source.Subscribe(c.hub)
	}
	return c.upstreamSub
}

// Disconnect cancels the upstream subscription, if connected.
func (c *Connectable[T]) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.upstreamSub != nil {
		c.upstreamSub.Cancel()
		c.upstreamSub = nil
	}
}

// Stream returns the hub's multicast Stream (equivalent to c.hub.Stream()).
func (c *Connectable[T]) Stream() Stream[T] {
	return c.hub.Stream()
}

// RefCount wraps source/hub in a Connectable that auto-connects on the
// first downstream subscriber and auto-disconnects on the last, per
// spec.md §4.L: "no upstream subscription exists when downstream-count = 0
// under refCount".
func RefCount[T any](source Stream[T], hub *Hub[T]) Stream[T] {
	c := NewConnectable(source, hub)
	var mu sync.Mutex
	count := 0

	return New[T](nameOr("refCount", source.Name), func(sub Subscriber[T]) Subscription {
		mu.Lock()
		count++
		if count == 1 {
			c.Connect()
		}
		mu.Unlock()

		var inner Subscription
		var outer *state
		outer = newState(func() {
			if inner != nil {
				inner.Cancel()
			}
			mu.Lock()
			count--
			if count == 0 {
				c.Disconnect()
			}
			mu.Unlock()
		})

		// The hub delivers OnSubscribe with its own internal Subscription;
		// substitute outer so the caller's cancel handle actually drives the
		// refcount instead of bypassing it.
		inner = c.Stream().Subscribe(SubscriberFunc[T]{
			Subscribe: func(Subscription) { sub.OnSubscribe(outer) },
			Item: func(v T) {
				if !outer.Done() {
					sub.OnItem(v)
				}
			},
			Error: func(err error) {
				if outer.markDone() {
					sub.OnError(err)
				}
			},
			Complete: func() {
				if outer.markDone() {
					sub.OnComplete()
				}
			},
		})

		return outer
	})
}
