package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOutput struct {
	calls []string
}

func (r *recordingOutput) Error(msgs ...string)   { r.record("error", msgs) }
func (r *recordingOutput) Warning(msgs ...string) { r.record("warning", msgs) }
func (r *recordingOutput) Info(msgs ...string)    { r.record("info", msgs) }
func (r *recordingOutput) Success(msgs ...string) { r.record("success", msgs) }

func (r *recordingOutput) record(level string, msgs []string) {
	for _, m := range msgs {
		r.calls = append(r.calls, level+": "+m)
	}
}

func TestCLIHandlerForwards(t *testing.T) {
	out := &recordingOutput{}
	h := NewCLIHandler(out)

	h.Error("boom")
	h.Warning("careful")
	h.Info("fyi")
	h.Success("done")

	assert.Equal(t, []string{"error: boom", "warning: careful", "info: fyi", "success: done"}, out.calls)
}

func TestCLIHandlerErrorResetsGuard(t *testing.T) {
	out := &recordingOutput{}
	h := NewCLIHandler(out)

	h.Error("first")
	assert.False(t, h.inHandling)
	h.Error("second")
	assert.Len(t, out.calls, 2)
}

func TestWithHint(t *testing.T) {
	assert.NoError(t, WithHint(nil, "ignored"))

	base := stderrors.New("portal unreachable")
	err := fmt.Errorf("sync: %w", WithHint(base, "the request was queued and will be retried"))

	assert.ErrorIs(t, err, base)
	hint, ok := HintOf(err)
	require.True(t, ok)
	assert.Equal(t, "the request was queued and will be retried", hint)

	_, ok = HintOf(base)
	assert.False(t, ok)
}

func TestReport(t *testing.T) {
	out := &recordingOutput{}
	h := NewCLIHandler(out)

	Report(h, nil)
	assert.Empty(t, out.calls)

	Report(h, WithHint(stderrors.New("session expired"), "log in again"))
	assert.Equal(t, []string{"error: session expired", "info: log in again"}, out.calls)
}

func TestTUIHandler(t *testing.T) {
	var seen []Message
	h := NewTUIHandler(func(m Message) { seen = append(seen, m) })

	_, ok := h.Latest()
	assert.False(t, ok)

	h.Warning("offline")
	h.Success("synced")

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, "synced", latest.Text)
	assert.Equal(t, MessageTypeSuccess, latest.Type)
	assert.Len(t, seen, 2)
	assert.Len(t, h.All(), 2)

	h.Clear()
	assert.Empty(t, h.All())
}

func TestTUIHandlerBoundsHistory(t *testing.T) {
	h := NewTUIHandler(nil)
	for i := 0; i < maxTUIMessages+5; i++ {
		h.Info(fmt.Sprintf("m%d", i))
	}
	all := h.All()
	require.Len(t, all, maxTUIMessages)
	assert.Equal(t, "m5", all[0].Text)
}
