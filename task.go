package rxs

import "sync/atomic"

// TaskState is the lifecycle state of a Task, per spec.md §3.
type TaskState int32

const (
	TaskIdle TaskState = iota
	TaskQueued
	TaskExecuting
	TaskDisposed
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskQueued:
		return "queued"
	case TaskExecuting:
		return "executing"
	case TaskDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Task is a schedulable unit of work: a runnable body plus a priority index
// and lifecycle state, grounded on the teacher's Task type in loop.go (a
// Runnable carried through the ingress queues) generalized to carry explicit
// state and priority the way spec.md §3/§4.B-D require.
//
// A Task value is shared (by pointer semantics via *Task) between the code
// that created it and the TaskQueue/Executor that run it; it must not be
// enqueued on two queues concurrently (TaskQueue.Enqueue enforces this).
type Task struct {
	// Name is an optional debug name, populated when EngineConfig.NamesEnabled.
	Name string

	// Priority is the task's priority index; lower runs first.
	Priority int

	// Runnable is the task body. Must not be nil when enqueued.
	Runnable func()

	// Periodic tasks are set idle by the executor after running and then
	// handed to Reschedule, which the Scheduler uses to push the task's
	// timer back onto its heap.
	Periodic bool
	// Reschedule is invoked by the executor after a periodic task runs, to
	// decide whether and when to re-enqueue it. nil for non-periodic tasks.
	Reschedule func(t *Task)

	state atomic.Int32
}

// State returns the task's current lifecycle state.
func (t *Task) State() TaskState {
	return TaskState(t.state.Load())
}

// setState performs an unconditional state assignment; callers
// (TaskQueue, Executor) are responsible for only calling this from contexts
// where the transition is valid per spec.md §3.
func (t *Task) setState(s TaskState) {
	t.state.Store(int32(s))
}

// casState performs a compare-and-swap state transition.
func (t *Task) casState(from, to TaskState) bool {
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// Cancel transitions the task to Disposed, idempotently. The task queue
// skips disposed tasks when it pops them (spec.md §5 "Cancellation
// semantics").
func (t *Task) Cancel() {
	t.setState(TaskDisposed)
}

// run executes the task body with panic recovery, delegating message
// formatting/logging to the supplied Logger. Grounded on the teacher's
// safeExecute (loop.go): tasks must never take down the processor unit.
func (t *Task) run(log Logger) {
	if t.Runnable == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Log(LogLevelError, "task panicked", StrField("task", t.Name), ErrField(PanicError{Value: r}))
		}
	}()
	t.Runnable()
}
