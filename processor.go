package rxs

import (
	"fmt"
	"sync"
)

// currentUnit is the process-wide "current processor unit" slot (spec.md
// §4.E, §5 "Shared resources"). Grounded on the teacher's loopGoroutineID +
// isLoopThread() pair (eventloop/loop.go): rather than comparing goroutine
// IDs, we store the active *Processor itself behind a mutex, since
// Activation is defined to be exclusive process-wide (not merely per
// goroutine) - nesting is forbidden by assertion regardless of which
// goroutine would attempt it.
var currentUnit struct {
	sync.Mutex
	active *Processor
}

// Current returns the Processor currently activated on this process, or nil
// if none is active. It is non-nil only while a processor is driven through
// Activate or Run; task bodies run by calling the Executor's methods
// directly, outside Activate, see nil.
func Current() *Processor {
	currentUnit.Lock()
	defer currentUnit.Unlock()
	return currentUnit.active
}

// Processor is a processor unit (spec.md §4.E): it owns an Executor (and
// thereby a TaskQueue) and a Scheduler, and exposes queue/queueNext for
// submitting work, plus Activate to drain the executor while exposing
// itself as Current().
//
// Grounded on the teacher's Loop type (eventloop/loop.go) stripped of I/O
// polling and OS-thread pinning (out of scope per spec.md §1): what remains
// is exactly "owns an executor and a name" plus the activation protocol.
type Processor struct {
	Name      string
	queue     *TaskQueue
	executor  *Executor
	scheduler *Scheduler
	log       Logger

	activating sync.Mutex
}

// NewProcessor creates a Processor with its own TaskQueue, Executor, and
// Scheduler wired together: the Scheduler's fired timers are submitted onto
// this processor's queue at priority 0 (spec.md §4.F/§5 "cross-thread
// handoff ... by enqueueing a task on the target unit via its scheduler").
func NewProcessor(name string, cfg *EngineConfig) *Processor {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	setNamesEnabled(cfg.NamesEnabled)
	setValidationEnabled(cfg.ValidateSubscriptions)
	log := cfg.Logger
	if log == nil {
		log = defaultLogger()
	}
	q := NewTaskQueue(cfg.PriorityLevels)
	policy := cfg.RunawayPolicy
	if policy == nil {
		if cfg.PurgeTasksWhenRunawayDetected {
			policy = PurgeOnRunaway(log)
		} else {
			policy = ToleratingRunaway(log)
		}
	}
	exec := NewExecutor(q, cfg.MaxRounds, policy, log)

	p := &Processor{Name: name, queue: q, executor: exec, log: log}
	p.scheduler = NewScheduler(p)
	if cfg.Metrics != nil {
		exec.AttachMetrics(cfg.Metrics)
		p.scheduler.AttachMetrics(cfg.Metrics)
	}
	return p
}

// Queue enqueues t at its configured priority.
func (p *Processor) Queue(t *Task) {
	p.queue.Enqueue(t)
}

// QueueNext enqueues t at priority 0 (highest), inserted so it is the very
// next task dequeued ahead of any other priority-0 task already queued -
// per spec.md §4.E "queueNext(task) (priority 0 insert at head)". Because
// TaskQueue's priority buffers are strict FIFOs, "insert at head" is
// achieved by draining and re-adding; this is only used for the rare case
// of immediate re-priority and is O(n) in the priority-0 queue length.
func (p *Processor) QueueNext(t *Task) {
	t.Priority = 0
	head := p.queue.priorities[0]
	rest := head.Slice()
	head.Clear()
	t.setState(TaskQueued)
	head.Add(t)
	for _, other := range rest {
		head.Add(other)
	}
}

// Executor returns the owned Executor.
func (p *Processor) Executor() *Executor { return p.executor }

// Scheduler returns the owned Scheduler.
func (p *Processor) Scheduler() *Scheduler { return p.scheduler }

// Activate acquires the process-wide current-unit slot, sets Current() to
// p, invokes fn (which is expected to drive the executor, e.g. via
// RunToExhaustion or RunOneTask in a loop), and clears Current() on return.
//
// Nesting is forbidden: calling Activate while p (or any other Processor)
// is already active panics, per spec.md §4.E "Only one unit may be active
// ... at a time; nesting is forbidden and enforced by assertion."
func (p *Processor) Activate(fn func()) {
	if !p.activating.TryLock() {
		panic(fmt.Sprintf("rxs: processor %q activated while it is already active", p.Name))
	}
	defer p.activating.Unlock()

	currentUnit.Lock()
	if currentUnit.active != nil {
		currentUnit.Unlock()
		panic(fmt.Sprintf("rxs: processor %q activated while %q is already active", p.Name, currentUnit.active.Name))
	}
	currentUnit.active = p
	currentUnit.Unlock()

	defer func() {
		currentUnit.Lock()
		currentUnit.active = nil
		currentUnit.Unlock()
	}()

	fn()
}

// Run activates p and makes one pass: it enqueues the timers due at the
// current virtual time behind any tasks already queued, then drains the
// executor with RunToExhaustion. It does not advance the clock, so timers
// that become due later wait for the next Run or Scheduler.AdvanceTo.
// Intended for tests and simple embeddings where the host advances the
// virtual clock explicitly via Scheduler.AdvanceTo between calls.
func (p *Processor) Run() {
	p.Activate(func() {
		p.scheduler.fireDue()
		p.executor.RunToExhaustion()
	})
}
