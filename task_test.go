package rxs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask_CancelIsIdempotent(t *testing.T) {
	task := &Task{Name: "t"}
	assert.Equal(t, TaskIdle, task.State())
	task.Cancel()
	task.Cancel()
	assert.Equal(t, TaskDisposed, task.State())
}

func TestTask_RunRecoversPanic(t *testing.T) {
	ran := false
	task := &Task{Name: "boom", Runnable: func() {
		ran = true
		panic("kaboom")
	}}
	assert.NotPanics(t, func() {
		task.run(NoopLogger())
	})
	assert.True(t, ran)
}

func TestTask_RunNilRunnableIsNoop(t *testing.T) {
	task := &Task{}
	assert.NotPanics(t, func() { task.run(NoopLogger()) })
}
