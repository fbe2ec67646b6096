package media

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"clippa/internal/services"
)

// Runner executes an external tool to completion.
//
// Run returns nil on a zero exit status. Any other outcome is reported as a
// *services.ExitError carrying the exit code, the terminating signal name, or
// the spawn failure. onOutput, when non-nil, receives every stdout and stderr
// line as it is produced.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(line string)) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, binary string, args []string, onOutput func(string)) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	return f(ctx, binary, args, onOutput)
}

// ExecRunner runs tools with os/exec. When the context is done the process is
// sent SIGKILL. WaitDelay bounds how long Run then waits for output pipes held
// open by grandchildren.
type ExecRunner struct {
	WaitDelay time.Duration
}

const defaultWaitDelay = 5 * time.Second

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	tool := filepath.Base(binary)
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGKILL) }
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultWaitDelay
	}

	sink := &lineWriter{emit: onOutput}
	cmd.Stdout = sink
	cmd.Stderr = sink
	if err := cmd.Start(); err != nil {
		return &services.ExitError{Tool: tool, Spawn: err}
	}
	waitErr := cmd.Wait()
	sink.flush()
	return exitError(tool, waitErr, ctx.Err())
}

func exitError(tool string, waitErr, ctxErr error) error {
	if waitErr == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(waitErr, &ee) {
		if errors.Is(waitErr, exec.ErrWaitDelay) {
			return nil
		}
		return &services.ExitError{Tool: tool, Spawn: waitErr, Context: ctxErr}
	}
	if status, ok := ee.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		name := unix.SignalName(status.Signal())
		if name == "" {
			name = status.Signal().String()
		}
		return &services.ExitError{Tool: tool, Signal: name, Context: ctxErr}
	}
	return &services.ExitError{Tool: tool, Code: ee.ExitCode(), Context: ctxErr}
}

// lineWriter splits written bytes on '\n' or '\r' so carriage-return
// progress updates from ffmpeg and yt-dlp arrive as separate lines. Stdout and
// stderr share one writer.
type lineWriter struct {
	mu      sync.Mutex
	emit    func(string)
	pending []byte
}

const maxPendingLine = 64 * 1024

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexAny(w.pending, "\r\n")
		if i < 0 {
			break
		}
		w.emitLocked(w.pending[:i])
		w.pending = w.pending[i+1:]
	}
	if len(w.pending) > maxPendingLine {
		w.emitLocked(w.pending)
		w.pending = w.pending[:0]
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emitLocked(w.pending)
	w.pending = nil
}

func (w *lineWriter) emitLocked(line []byte) {
	if w.emit == nil || len(line) == 0 {
		return
	}
	w.emit(string(line))
}
