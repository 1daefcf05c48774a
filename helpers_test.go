package rxs

// collector is a small Subscriber[T] used throughout the operator/source
// test suite to record the signals a stream delivers, in order.
type collector[T any] struct {
	sub       Subscription
	items     []T
	err       error
	completed bool
	errored   bool
}

func newCollector[T any]() *collector[T] {
	return &collector[T]{}
}

func (c *collector[T]) OnSubscribe(sub Subscription) { c.sub = sub }

func (c *collector[T]) OnItem(v T) { c.items = append(c.items, v) }

func (c *collector[T]) OnError(err error) {
	c.err = err
	c.errored = true
}

func (c *collector[T]) OnComplete() { c.completed = true }
