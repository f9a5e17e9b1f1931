package ports

import (
	"context"
)

// CommandRunner defines the interface for command execution.
// Infrastructure adapters implement this to provide exec functionality.
type CommandRunner interface {
	// Run executes a command and returns the result. Cancellation of ctx
	// kills the process.
	Run(ctx context.Context, req CommandRequest) (*CommandResult, error)
}

// CommandRequest holds parameters for command execution. Args are passed
// directly to the program, never through a shell.
type CommandRequest struct {
	Command string
	Args    []string
	Dir     string
}

// CommandResult represents the result of a command execution. Stdout and
// Stderr are truncated to the runner's per-stream cap.
type CommandResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMs int64
	IsTimeout  bool
}
