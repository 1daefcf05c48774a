package rxs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
)

func TestAdaptLogifaceLogger_ForwardsMessageAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf), stumpy.WithTimeField("")),
		logiface.WithLevel[*stumpy.Event](logiface.LevelDebug),
	)
	logger := AdaptLogifaceLogger[*stumpy.Event](l)

	logger.Log(LogLevelInfo, "task queued", StrField("task", "t1"), IntField("priority", 2))
	logger.Log(LogLevelError, "task panicked", ErrField(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, `"msg":"task queued"`)
	assert.Contains(t, out, `"task":"t1"`)
	assert.Contains(t, out, `"priority":"2"`)
	assert.Contains(t, out, `"msg":"task panicked"`)
	assert.Contains(t, out, `"err":"boom"`)
}

func TestAdaptLogifaceLogger_FiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf)),
		logiface.WithLevel[*stumpy.Event](logiface.LevelWarning),
	)
	logger := AdaptLogifaceLogger[*stumpy.Event](l)

	logger.Log(LogLevelDebug, "should not appear")
	assert.Empty(t, buf.String(), "debug is below the configured warning level")

	logger.Log(LogLevelWarn, "should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestNewStumpyLogger_LogsWithoutPanicking(t *testing.T) {
	logger := NewStumpyLogger()
	assert.NotPanics(t, func() {
		logger.Log(LogLevelError, "smoke test", StrField("k", "v"))
	})
}

func TestNoopLogger_DiscardsEverything(t *testing.T) {
	logger := NoopLogger()
	assert.NotPanics(t, func() {
		logger.Log(LogLevelError, "discarded", ErrField(errors.New("x")))
	})
}
