// Package hooks runs user scripts when the sync engine observes events.
//
// Scripts live in <hooks_dir>/<event>/ and run in lexical order with the
// event data in their environment.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/config"
)

// Events.
const (
	EventStatusChange       = "status-change"
	EventNotificationQueued = "notification-queued"
	EventQueueFlushed       = "queue-flushed"
)

// Failure modes.
const (
	FailureWarn   = "warn"
	FailureIgnore = "ignore"
)

const defaultTimeout = 10 * time.Second

// Runner executes hook scripts.
type Runner struct {
	Enabled     bool
	Dir         string
	FailureMode string
	Timeout     time.Duration
	// Output receives the combined output of every script. Defaults to stderr.
	Output io.Writer
}

// NewFromConfig builds a runner from the hooks_* configuration keys.
func NewFromConfig() *Runner {
	return &Runner{
		Enabled:     config.GetBool("hooks_enabled", true),
		Dir:         config.Get("hooks_dir", ""),
		FailureMode: config.Get("hooks_failure_mode", FailureWarn),
		Timeout:     config.GetDuration("hooks_timeout", defaultTimeout),
	}
}

// Disabled returns a runner that never executes anything.
func Disabled() *Runner {
	return &Runner{}
}

// Scripts lists the executable files registered for event, in run order.
func (r *Runner) Scripts(event string) []string {
	if r == nil || !r.Enabled || r.Dir == "" {
		return nil
	}
	dir := filepath.Join(r.Dir, event)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Mode()&0111 == 0 {
			continue
		}
		scripts = append(scripts, filepath.Join(dir, e.Name()))
	}
	sort.Strings(scripts)
	return scripts
}

// Run executes every script for event. Failures never abort the caller:
// with the warn mode they are printed, and in every mode they are returned
// joined so the caller can log them.
func (r *Runner) Run(ctx context.Context, event string, env map[string]string) error {
	scripts := r.Scripts(event)
	if len(scripts) == 0 {
		return nil
	}

	vars := buildEnv(event, env)
	var errs []error
	for _, script := range scripts {
		if err := r.runOne(ctx, script, vars); err != nil {
			errs = append(errs, err)
			if r.FailureMode != FailureIgnore {
				colors.Warning(err.Error())
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, script string, vars []string) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = append(os.Environ(), vars...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second
	err := cmd.Run()

	out := r.Output
	if out == nil {
		out = os.Stderr
	}
	if output.Len() > 0 {
		out.Write(output.Bytes())
	}

	name := filepath.Base(script)
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("hook %s timed out after %s", name, timeout)
	}
	if err != nil {
		return fmt.Errorf("hook %s failed: %w", name, err)
	}
	colors.Debug(fmt.Sprintf("hook %s completed in %.2fs", name, time.Since(start).Seconds()))
	return nil
}

// buildEnv returns KEY=value pairs in a stable order.
func buildEnv(event string, env map[string]string) []string {
	vars := map[string]string{
		"HOOK_EVENT":     event,
		"HOOK_TIMESTAMP": time.Now().Format(time.RFC3339),
	}
	if exe, err := os.Executable(); err == nil {
		vars["PORTAL_INBOX_BIN"] = exe
	}
	for k, v := range env {
		vars[k] = v
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}
	return out
}
