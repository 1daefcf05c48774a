package rxs

import (
	"container/heap"
	"sync"
)

// Clock is the scheduler's virtual monotonic clock (spec.md §3 "Scheduler
// clock"): a monotonically non-decreasing integer whose unit is
// implementation-defined and not guaranteed to track wall-clock time.
type Clock int64

// TimerHandle lets a caller cancel a scheduled (delayed or periodic) task.
// Cancellation is idempotent, per spec.md §4.F.
type TimerHandle interface {
	Cancel()
}

// timerEntry is one entry in the scheduler's min-heap, grounded on the
// teacher's `timer`/`timerHeap` (eventloop/loop.go), generalized from
// time.Time to the virtual Clock and extended with a period for re-firing.
type timerEntry struct {
	fireAt Clock
	seq    uint64 // tie-break for entries scheduled at the same tick
	period Clock  // 0 = one-shot
	task   *Task
	cancelled bool
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is the virtual-clock timer wheel of spec.md §4.F: it fires
// delayed and periodic tasks by enqueueing them onto its owning Processor's
// queue once the virtual clock reaches their fire time.
//
// Grounded on the teacher's timerHeap + ScheduleTimer/CurrentTickTime
// (eventloop/loop.go) with the poller/I-O-driven advancement replaced by an
// explicit AdvanceTo, since spec.md §3 specifies a *virtual* clock with no
// guaranteed wall-clock relation and out-of-scope platform timer adapters
// (spec.md §1).
type Scheduler struct {
	mu        sync.Mutex
	processor *Processor
	now       Clock
	heap      timerHeap
	nextSeq   uint64
	shutdown  bool
	metrics   *ExecutorMetrics
}

// NewScheduler creates a Scheduler whose fired tasks are submitted onto p's
// queue.
func NewScheduler(p *Processor) *Scheduler {
	return &Scheduler{processor: p}
}

// AttachMetrics wires a Prometheus-backed ExecutorMetrics collector so the
// timers_active gauge tracks every Schedule/AdvanceTo/fireDue/Shutdown call;
// see metrics.go.
func (s *Scheduler) AttachMetrics(m *ExecutorMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// reportTimersActiveLocked must be called with s.mu held.
func (s *Scheduler) reportTimersActiveLocked() {
	if s.metrics != nil {
		s.metrics.SetTimersActive(len(s.heap))
	}
}

// Now returns the scheduler's current virtual time.
func (s *Scheduler) Now() Clock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// timerHandle is the concrete TimerHandle implementation.
type timerHandle struct {
	s *Scheduler
	e *timerEntry
}

func (h *timerHandle) Cancel() {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	h.e.cancelled = true
}

// Schedule fires fn once, after delay ticks, per spec.md §4.F: "A delayed
// task fires at now() + delay. Firing time may drift forward but never
// earlier."
func (s *Scheduler) Schedule(fn func(), delay Clock) TimerHandle {
	return s.schedule(fn, delay, 0)
}

// ScheduleAtFixedRate fires fn every period ticks, starting at now()+period,
// re-firing at lastFire+period (so firing never drifts earlier than
// scheduled, only possibly later if the processor was busy). period == 0
// schedules fn once, as Schedule(fn, 0) does; a negative period returns
// ErrInvalidPeriod.
func (s *Scheduler) ScheduleAtFixedRate(fn func(), period Clock) (TimerHandle, error) {
	if period < 0 {
		return nil, ErrInvalidPeriod
	}
	if period == 0 {
		return s.Schedule(fn, 0), nil
	}
	return s.schedule(fn, period, period), nil
}

func (s *Scheduler) schedule(fn func(), delay, period Clock) TimerHandle {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &timerEntry{
		fireAt: s.now + delay,
		seq:    s.nextSeq,
		period: period,
	}
	s.nextSeq++

	e.task = &Task{
		Name:     debugName("timer"),
		Priority: 0,
		Periodic: period > 0,
		Runnable: fn,
	}
	if period > 0 {
		e.task.Reschedule = func(*Task) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if e.cancelled || s.shutdown {
				return
			}
			e.fireAt = s.now + e.period
			e.seq = s.nextSeq
			s.nextSeq++
			heap.Push(&s.heap, e)
			s.reportTimersActiveLocked()
		}
	}

	heap.Push(&s.heap, e)
	s.reportTimersActiveLocked()
	return &timerHandle{s: s, e: e}
}

// AdvanceTo moves the virtual clock forward to t (a no-op if t is not after
// the current time - the clock never moves backward) and enqueues every
// timer whose fire time has now been reached onto the owning Processor's
// queue. Returns the number of timers enqueued.
func (s *Scheduler) AdvanceTo(t Clock) int {
	s.mu.Lock()
	if t > s.now {
		s.now = t
	}
	due := s.popDueLocked()
	s.mu.Unlock()

	for _, e := range due {
		s.processor.Queue(e.task)
	}
	return len(due)
}

// fireDue enqueues timers due at the current virtual time, without
// advancing the clock. Called by Processor.Run before draining the
// executor each activation.
func (s *Scheduler) fireDue() int {
	s.mu.Lock()
	due := s.popDueLocked()
	s.mu.Unlock()
	for _, e := range due {
		s.processor.Queue(e.task)
	}
	return len(due)
}

// popDueLocked must be called with s.mu held.
func (s *Scheduler) popDueLocked() []*timerEntry {
	var due []*timerEntry
	for len(s.heap) > 0 && s.heap[0].fireAt <= s.now {
		e := heap.Pop(&s.heap).(*timerEntry)
		if e.cancelled {
			continue
		}
		due = append(due, e)
	}
	s.reportTimersActiveLocked()
	return due
}

// Pending returns the number of timer entries still held by the scheduler,
// including cancelled entries that have not yet been popped.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// Shutdown cancels every timer whose fire time has not yet passed, per
// spec.md §4.F "On shutdown, queued tasks whose fire time has not passed
// are cancelled; currently-executing task runs to completion." (the latter
// half is automatically satisfied: Shutdown never interrupts a Task.run
// already in progress, since Scheduler.mu is not held across task
// execution).
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	for _, e := range s.heap {
		e.cancelled = true
	}
	s.heap = s.heap[:0]
	s.reportTimersActiveLocked()
}
