package rxs

// RunawayPolicy decides what happens when the round-based executor exceeds
// its MaxRounds budget (spec.md §4.D "Runaway policy").
type RunawayPolicy interface {
	// OnRunaway is invoked with the error describing the runaway condition
	// and the queue that triggered it. If Purge returns true, the executor
	// clears the queue (draining and marking tasks Idle); otherwise the
	// queue is left as-is (tasks remain queued, to be tried again next
	// round) and the policy is only responsible for raising a diagnostic.
	OnRunaway(err *RunawayError, q *TaskQueue) (purge bool)
}

// RunawayPolicyFunc adapts a function to RunawayPolicy.
type RunawayPolicyFunc func(err *RunawayError, q *TaskQueue) bool

func (f RunawayPolicyFunc) OnRunaway(err *RunawayError, q *TaskQueue) bool { return f(err, q) }

// PurgeOnRunaway always purges the queue; the teacher-recommended default
// per spec.md §4.D ("Always raise a diagnostic ... If configured to purge:
// clear() the queue").
func PurgeOnRunaway(log Logger) RunawayPolicy {
	return RunawayPolicyFunc(func(err *RunawayError, q *TaskQueue) bool {
		log.Log(LogLevelError, "runaway tasks detected, purging queue",
			IntField("max_rounds", int64(err.MaxRounds)),
			IntField("pending_tasks", int64(len(err.PendingTasks))))
		return true
	})
}

// ToleratingRunaway logs but never purges - tasks remain queued and are
// retried on subsequent rounds.
func ToleratingRunaway(log Logger) RunawayPolicy {
	return RunawayPolicyFunc(func(err *RunawayError, q *TaskQueue) bool {
		log.Log(LogLevelWarn, "runaway tasks detected, continuing",
			IntField("max_rounds", int64(err.MaxRounds)))
		return false
	})
}

// Executor implements the round-based execution algorithm of spec.md §4.D:
// it pulls tasks from a TaskQueue in rounds, where a round's size is fixed
// to the queue's length at the start of the round. Tasks enqueued DURING a
// round are only visible in the NEXT round, which gives O(queue-size)
// fairness while bounding unbounded self-recursion (a task that re-enqueues
// itself can run at most once per round, so after MaxRounds rounds of
// nothing-but-that-task, the runaway policy fires).
//
// Grounded on the teacher's tick()/processExternal budget-draining loop
// (eventloop/loop.go), generalized from a single fixed per-tick budget into
// an explicit round counter so runaway detection (which the teacher does not
// implement - it instead emits OnOverload once a budget is exceeded) is
// precise about how many rounds elapsed.
type Executor struct {
	queue          *TaskQueue
	maxRounds      int
	runawayPolicy  RunawayPolicy
	log            Logger
	metrics        *ExecutorMetrics
	currentRound   int
	remainInRound  int
	tasksExecuted  uint64
}

// NewExecutor creates an Executor over queue. maxRounds <= 0 defaults to 100,
// matching spec.md §4.D's documented default.
func NewExecutor(queue *TaskQueue, maxRounds int, policy RunawayPolicy, log Logger) *Executor {
	if maxRounds <= 0 {
		maxRounds = 100
	}
	if log == nil {
		log = NoopLogger()
	}
	if policy == nil {
		policy = PurgeOnRunaway(log)
	}
	return &Executor{
		queue:         queue,
		maxRounds:     maxRounds,
		runawayPolicy: policy,
		log:           log,
	}
}

// AttachMetrics wires a Prometheus-backed ExecutorMetrics collector; see
// metrics.go.
func (e *Executor) AttachMetrics(m *ExecutorMetrics) { e.metrics = m }

// TasksExecuted returns the lifetime count of tasks run by this executor.
func (e *Executor) TasksExecuted() uint64 { return e.tasksExecuted }

// RunOneTask implements the algorithm of spec.md §4.D step 1-2, returning
// true if a task was run, false if there was "no work" (queue empty, or a
// runaway was just handled).
func (e *Executor) RunOneTask() bool {
	if e.remainInRound == 0 {
		size := e.queue.Size()
		if e.metrics != nil {
			e.metrics.SetQueueDepth(size)
		}
		if size == 0 {
			e.currentRound = 0
			return false
		}
		if e.currentRound+1 > e.maxRounds {
			e.currentRound = 0
			e.handleRunaway()
			return false
		}
		e.currentRound++
		e.remainInRound = size
		if e.metrics != nil {
			e.metrics.ObserveRound(e.currentRound, e.remainInRound)
		}
	}

	e.remainInRound--
	t, ok := e.queue.Dequeue()
	if !ok {
		// Queue was emptied by cancellations within this round; nothing to run.
		return false
	}

	t.run(e.log)
	e.tasksExecuted++
	if e.metrics != nil {
		e.metrics.ObserveTaskExecuted()
	}

	if t.Periodic && t.State() != TaskDisposed {
		t.setState(TaskIdle)
		if t.Reschedule != nil {
			t.Reschedule(t)
		}
	} else if t.State() != TaskDisposed {
		t.setState(TaskIdle)
	}

	return true
}

// RunToExhaustion repeatedly calls RunOneTask until it reports no work: the
// queue is empty, or a runaway was just handled. Under a policy that does
// not purge (ToleratingRunaway), tasks can still be queued when it returns.
func (e *Executor) RunToExhaustion() {
	for e.RunOneTask() {
	}
}

func (e *Executor) handleRunaway() {
	pending := e.pendingNames()
	err := &RunawayError{MaxRounds: e.maxRounds, PendingTasks: pending}
	if e.metrics != nil {
		e.metrics.ObserveRunaway()
	}
	if e.runawayPolicy.OnRunaway(err, e.queue) {
		for _, t := range e.queue.Clear() {
			_ = t // already marked Idle by Clear
		}
		if e.metrics != nil {
			e.metrics.SetQueueDepth(0)
		}
	}
}

func (e *Executor) pendingNames() []string {
	var names []string
	for _, buf := range e.queue.priorities {
		buf.Each(func(t *Task) bool {
			name := t.Name
			if name == "" {
				name = "<unnamed>"
			}
			names = append(names, name)
			return true
		})
	}
	return names
}
