package rxs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutorMetrics_CollectorsReflectObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExecutorMetrics(reg, "rxs", "test")

	m.ObserveRound(1, 5)
	m.ObserveTaskExecuted()
	m.ObserveRunaway()
	m.SetQueueDepth(3)
	m.SetTimersActive(2)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.roundsRun))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tasksExecuted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runaways))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.timersActive))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, count, "tasksExecuted, roundsRun, roundSize, runaways, queueDepth, timersActive")
}

func TestExecutor_QueueDepthGaugeTracksRoundDraining(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExecutorMetrics(reg, "rxs", "test")

	log := NoopLogger()
	q := NewTaskQueue(1)
	exec := NewExecutor(q, 100, ToleratingRunaway(log), log)
	exec.AttachMetrics(m)

	var ran bool
	q.Enqueue(&Task{Name: "t", Runnable: func() { ran = true }})

	exec.RunToExhaustion()
	assert.True(t, ran)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.queueDepth), "the gauge reflects the now-empty queue once exhausted")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.roundsRun))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tasksExecuted))
}

func TestScheduler_TimersActiveGaugeTracksLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExecutorMetrics(reg, "rxs", "test")

	p := NewProcessor("test", DefaultEngineConfig())
	p.Scheduler().AttachMetrics(m)

	h := p.Scheduler().Schedule(func() {}, 10)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.timersActive))

	h.Cancel()
	p.Scheduler().AdvanceTo(10)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.timersActive), "a cancelled timer is dropped once its fire time is reached")
}

func TestNewProcessor_WiresMetricsIntoExecutorAndScheduler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExecutorMetrics(reg, "rxs", "test")

	cfg := DefaultEngineConfig()
	cfg.Metrics = m
	p := NewProcessor("test", cfg)

	p.Scheduler().Schedule(func() {}, 5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.timersActive))

	p.Scheduler().AdvanceTo(5)
	p.Executor().RunToExhaustion()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tasksExecuted))
}
