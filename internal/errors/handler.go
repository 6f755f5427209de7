// Package errors routes user-facing failures to the console or the TUI.
package errors

import (
	stderrors "errors"
	"sync"
)

// ErrorHandler is implemented by every output sink for user-facing messages.
type ErrorHandler interface {
	Error(msg string)
	Warning(msg string)
	Info(msg string)
	Success(msg string)
}

// ColorOutput is the subset of the colors package used by CLIHandler.
type ColorOutput interface {
	Error(msgs ...string)
	Warning(msgs ...string)
	Info(msgs ...string)
	Success(msgs ...string)
}

// Hinter is implemented by errors that carry a follow-up suggestion for the user.
type Hinter interface {
	Hint() string
}

type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() }
func (e *hintedError) Unwrap() error { return e.err }
func (e *hintedError) Hint() string  { return e.hint }

// WithHint attaches a suggestion to err. A nil err stays nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintedError{err: err, hint: hint}
}

// HintOf returns the first hint found in err's chain.
func HintOf(err error) (string, bool) {
	var h Hinter
	if stderrors.As(err, &h) && h.Hint() != "" {
		return h.Hint(), true
	}
	return "", false
}

// CLIHandler writes messages to the terminal through the colors package.
type CLIHandler struct {
	colors     ColorOutput
	mu         sync.Mutex
	inHandling bool
}

func NewCLIHandler(colors ColorOutput) *CLIHandler {
	return &CLIHandler{colors: colors}
}

func (h *CLIHandler) Error(msg string) {
	h.mu.Lock()
	if h.inHandling {
		// Re-entrant call from a logger mirror; print without the guard.
		h.mu.Unlock()
		h.colors.Error(msg)
		return
	}
	h.inHandling = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inHandling = false
		h.mu.Unlock()
	}()

	h.colors.Error(msg)
}

func (h *CLIHandler) Warning(msg string) {
	h.colors.Warning(msg)
}

func (h *CLIHandler) Info(msg string) {
	h.colors.Info(msg)
}

func (h *CLIHandler) Success(msg string) {
	h.colors.Success(msg)
}

// Report prints err and, when present, its hint. Nil errors are ignored.
func Report(h ErrorHandler, err error) {
	if err == nil {
		return
	}
	h.Error(err.Error())
	if hint, ok := HintOf(err); ok {
		h.Info(hint)
	}
}
