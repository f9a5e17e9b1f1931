package security

import (
	"context"
	stdErrors "errors"
	"os/exec"
	"time"

	"github.com/wasmforge-dev/wasmforge/domain/errors"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
)

// DefaultStreamCap bounds captured stdout and stderr, per stream.
const DefaultStreamCap = 4096

// ExecRunner runs programs directly, never through a shell, with bounded
// output capture. It implements ports.CommandRunner. The caller owns the
// execution deadline; context cancellation kills the process.
type ExecRunner struct {
	streamCap int
}

// RunnerOption configures an ExecRunner.
type RunnerOption func(*ExecRunner)

// WithStreamCap sets the per-stream capture limit in bytes.
func WithStreamCap(n int) RunnerOption {
	return func(r *ExecRunner) {
		if n > 0 {
			r.streamCap = n
		}
	}
}

// NewExecRunner creates a runner with the default stream cap.
func NewExecRunner(opts ...RunnerOption) *ExecRunner {
	r := &ExecRunner{streamCap: DefaultStreamCap}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.CommandRunner = (*ExecRunner)(nil)

// Run executes the request and reports the outcome. A timeout or a
// non-zero exit is a valid result, not an error; the error return is
// reserved for failures to start the process at all.
func (r *ExecRunner) Run(ctx context.Context, req ports.CommandRequest) (*ports.CommandResult, error) {
	if req.Command == "" {
		return nil, &errors.ExecError{Err: stdErrors.New("command is required"), Command: req.Command}
	}

	//nolint:gosec // G204: running caller-approved programs is this type's purpose
	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}

	stdout := NewBoundedBuffer(r.streamCap)
	stderr := NewBoundedBuffer(r.streamCap)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	result := &ports.CommandResult{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMs: time.Since(start).Milliseconds(),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			result.IsTimeout = true
			result.ExitCode = -1
			return result, nil
		}

		var exitErr *exec.ExitError
		if stdErrors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return nil, &errors.ExecError{Err: err, Command: req.Command}
	}

	return result, nil
}
