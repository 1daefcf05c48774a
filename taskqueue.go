package rxs

import "github.com/realityforge-experiments/rxs/internal/ring"

// TaskQueue is a multi-priority FIFO of tasks, per spec.md §4.B-D: a strict
// highest-priority-first dequeue over per-priority FIFO buffers.
//
// Grounded on the teacher's ChunkedIngress (eventloop/ingress.go), which is a
// single mutex-protected FIFO of tasks; here we generalize to P independent
// FIFOs (one ring.Buffer per priority, per the teacher's internal/timer-heap
// style of owning a typed slice per concern) so dequeue can scan
// lowest-index-first without re-sorting.
//
// TaskQueue is NOT safe for concurrent use; it is owned exclusively by a
// single Executor running on a single processor unit goroutine (spec.md
// §5 "Shared resources").
type TaskQueue struct {
	priorities []*ring.Buffer[*Task]
}

// NewTaskQueue creates a queue with the given number of priority levels
// (P in spec.md §3; priority index must be in [0, P)).
func NewTaskQueue(levels int) *TaskQueue {
	if levels < 1 {
		levels = 1
	}
	q := &TaskQueue{priorities: make([]*ring.Buffer[*Task], levels)}
	for i := range q.priorities {
		q.priorities[i] = ring.New[*Task](8)
	}
	return q
}

// Levels returns the number of priority levels.
func (q *TaskQueue) Levels() int { return len(q.priorities) }

// Enqueue places task at the tail of the buffer for task.Priority, marking
// it Queued. Panics if the task is already Queued or Executing - per
// spec.md §3, a task may not be enqueued twice concurrently.
func (q *TaskQueue) Enqueue(t *Task) {
	if t.State() == TaskQueued || t.State() == TaskExecuting {
		panic(ErrTaskAlreadyQueued)
	}
	p := t.Priority
	if p < 0 {
		p = 0
	}
	if p >= len(q.priorities) {
		p = len(q.priorities) - 1
	}
	t.setState(TaskQueued)
	q.priorities[p].Add(t)
}

// Dequeue scans priorities low-to-high and returns the head of the first
// non-empty buffer, marking the returned task Executing. Disposed tasks are
// skipped (and left Disposed) rather than returned, per spec.md §5
// cancellation semantics ("the executor skips disposed tasks it pops").
func (q *TaskQueue) Dequeue() (*Task, bool) {
	for _, buf := range q.priorities {
		for {
			t, ok := buf.Pop()
			if !ok {
				break
			}
			if t.State() == TaskDisposed {
				continue
			}
			t.setState(TaskExecuting)
			return t, true
		}
	}
	return nil, false
}

// Size returns the total number of queued tasks across all priorities.
func (q *TaskQueue) Size() int {
	n := 0
	for _, buf := range q.priorities {
		n += buf.Len()
	}
	return n
}

// Clear empties all priority buffers, marking each removed task Idle (so
// it can be re-enqueued later). Used by the runaway policy (spec.md §4.D).
func (q *TaskQueue) Clear() []*Task {
	var removed []*Task
	for _, buf := range q.priorities {
		for {
			t, ok := buf.Pop()
			if !ok {
				break
			}
			t.setState(TaskIdle)
			removed = append(removed, t)
		}
	}
	return removed
}
