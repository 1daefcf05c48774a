package rxs

import (
	"errors"
	"fmt"
)

// Standard sentinel errors, grounded on the teacher's (go-eventloop) errors.go
// taxonomy of named, wrap-able error values.
var (
	// ErrEngineTerminated names the error for an engine that has been shut
	// down. No function in this package returns it.
	ErrEngineTerminated = errors.New("rxs: engine has been terminated")

	// ErrEngineNotRunning names the error for an engine that is not running.
	// No function in this package returns it.
	ErrEngineNotRunning = errors.New("rxs: engine is not running")

	// ErrReentrantRun names the error for a reentrant Run. No function in
	// this package returns it: a nested Processor.Activate (and so a Run
	// from inside a task body of an active processor) panics instead.
	ErrReentrantRun = errors.New("rxs: cannot call Run from within the engine")

	// ErrAlreadySubscribed signals a protocol violation: subscribe called
	// twice for the same subscription.
	ErrAlreadySubscribed = errors.New("rxs: subscribe called more than once")

	// ErrSignalAfterTerminal signals a protocol violation: item/error/complete
	// delivered after a terminal signal or cancel. The validator also uses it
	// for a signal delivered before subscribe.
	ErrSignalAfterTerminal = errors.New("rxs: signal delivered after terminal or cancel")

	// ErrNilItem signals a protocol violation: a nil item was delivered where
	// the validator does not allow one.
	ErrNilItem = errors.New("rxs: nil item delivered")

	// ErrInvalidPeriod is returned by scheduler APIs given a negative period.
	ErrInvalidPeriod = errors.New("rxs: negative period is invalid")

	// ErrTaskAlreadyQueued is the task-queue invariant violation: a task may
	// not be enqueued twice concurrently.
	ErrTaskAlreadyQueued = errors.New("rxs: task already queued")
)

// ProtocolViolationError is raised as a panic by the subscription validator
// for violations of the subscription protocol in spec.md §4.G / §8. The
// validator is installed only when EngineConfig.ValidateSubscriptions is
// enabled; with it disabled, violations are not detected.
//
// Grounded on the teacher's TypeError/RangeError shape (errors.go): a
// sentinel Cause plus a human-readable Message, exposed via Unwrap for
// errors.Is/errors.As.
type ProtocolViolationError struct {
	Cause   error
	Stream  string
	Message string
}

func (e *ProtocolViolationError) Error() string {
	if e.Stream != "" {
		return fmt.Sprintf("rxs: protocol violation in %q: %s", e.Stream, e.Message)
	}
	return fmt.Sprintf("rxs: protocol violation: %s", e.Message)
}

func (e *ProtocolViolationError) Unwrap() error { return e.Cause }

// RunawayError is delivered to a RunawayPolicy (§4.D) when the round-based
// executor exceeds its configured MaxRounds, naming the tasks still pending
// at the time of detection.
type RunawayError struct {
	MaxRounds    int
	PendingTasks []string
}

func (e *RunawayError) Error() string {
	return fmt.Sprintf("rxs: runaway detected after %d rounds (%d tasks still pending)", e.MaxRounds, len(e.PendingTasks))
}

// OperatorError wraps an error returned by a Map callback, or a panic
// recovered from a side-effect callback (Peek and its family), with the name
// of the stage that raised it. ItemIndex/HasIndex carry the 0-based index of
// the offending item when set; no operator in this package sets them.
//
// Grounded on ygrebnov-workers's TaskMetaError tagging pattern
// (error_tagging.go): metadata is attached to the error rather than lost,
// and is retrievable via errors.As without changing Error()'s text.
type OperatorError struct {
	Cause     error
	Operator  string
	ItemIndex int
	HasIndex  bool
}

func (e *OperatorError) Error() string {
	if e.HasIndex {
		return fmt.Sprintf("rxs: %s: item %d: %v", e.Operator, e.ItemIndex, e.Cause)
	}
	return fmt.Sprintf("rxs: %s: %v", e.Operator, e.Cause)
}

func (e *OperatorError) Unwrap() error { return e.Cause }

// OperatorIndex extracts the ItemIndex from err, if it is (or wraps) an
// *OperatorError recorded with an index.
func OperatorIndex(err error) (int, bool) {
	var oe *OperatorError
	if errors.As(err, &oe) && oe.HasIndex {
		return oe.ItemIndex, true
	}
	return 0, false
}

// PanicError wraps a recovered panic value from user callback code, mirroring
// the teacher's PanicError used around Loop.Promisify.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("rxs: recovered panic: %v", e.Value)
}

func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// wrapCallbackPanic converts a recovered panic value into an error suitable
// for delivery as a terminal error signal, tagging it with the operator name
// and (optionally) the item index that triggered the callback.
func wrapCallbackPanic(operator string, itemIndex int, hasIndex bool, r any) error {
	var cause error
	if err, ok := r.(error); ok {
		cause = err
	} else {
		cause = PanicError{Value: r}
	}
	return &OperatorError{Cause: cause, Operator: operator, ItemIndex: itemIndex, HasIndex: hasIndex}
}
