package colors

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Debug(msg string, args ...any) { m.Called(msg) }
func (m *mockLogger) Info(msg string, args ...any)  { m.Called(msg) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.Called(msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.Called(msg) }

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetOutput(nil, nil)
		SetDebug(false)
		SetQuiet(false)
		SetLogger(nil)
	})
	return &out, &errOut
}

func TestError(t *testing.T) {
	_, errOut := capture(t)

	Error("something went wrong")

	assert.Contains(t, errOut.String(), "Error:")
	assert.Contains(t, errOut.String(), "something went wrong")
	assert.Contains(t, errOut.String(), Red)
}

func TestSuccess(t *testing.T) {
	out, _ := capture(t)

	Success("operation completed")

	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, out.String(), "operation completed")
	assert.Contains(t, out.String(), Green)
}

func TestWarningAndInfo(t *testing.T) {
	out, errOut := capture(t)

	Warning("careful", "now")
	Info("hello")

	assert.Contains(t, errOut.String(), "Warning:")
	assert.Contains(t, errOut.String(), "careful now")
	assert.Contains(t, out.String(), "hello")
}

func TestDebugOnlyWhenEnabled(t *testing.T) {
	_, errOut := capture(t)

	Debug("hidden")
	assert.Empty(t, errOut.String())

	SetDebug(true)
	Debug("visible")
	assert.Contains(t, errOut.String(), "visible")
}

func TestQuietSuppressesInfoButNotErrors(t *testing.T) {
	out, errOut := capture(t)
	SetQuiet(true)

	Info("hidden")
	Success("hidden")
	Error("shown")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "shown")
}

func TestMessagesAreMirroredToLogger(t *testing.T) {
	capture(t)
	l := new(mockLogger)
	l.On("Error", "boom").Once()
	l.On("Warn", "hmm").Once()
	l.On("Info", "done").Once()
	SetLogger(l)

	Error("boom")
	Warning("hmm")
	Success("done")

	l.AssertExpectations(t)
}
