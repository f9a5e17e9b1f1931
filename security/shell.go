package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/domain/policy"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
)

// DefaultShellTimeout is the wall-clock budget for one shell tool call.
const DefaultShellTimeout = 10 * time.Second

// forbiddenShellChars are rejected before any splitting. Arguments go
// directly to the program, so shell operators have no meaning here and
// their presence signals an injection attempt.
const forbiddenShellChars = "|><;&`\n\r"

// ShellGuard runs the dual-validation shell flow: the guest's prepare
// export votes first, then the host enforces token, allow-list and
// timeout rules. It implements catalog.ShellGuard.
type ShellGuard struct {
	runner  ports.CommandRunner
	pol     *policy.Policy
	timeout time.Duration
}

// ShellGuardOption configures a ShellGuard.
type ShellGuardOption func(*ShellGuard)

// WithShellTimeout overrides the execution budget.
func WithShellTimeout(d time.Duration) ShellGuardOption {
	return func(g *ShellGuard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewShellGuard creates a guard that executes through runner and
// resolves allow-lists through pol.
func NewShellGuard(runner ports.CommandRunner, pol *policy.Policy, opts ...ShellGuardOption) *ShellGuard {
	if pol == nil {
		pol = policy.NewPolicy()
	}
	g := &ShellGuard{runner: runner, pol: pol, timeout: DefaultShellTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ catalog.ShellGuard = (*ShellGuard)(nil)

// Execute validates and runs one command line. An empty allowed list
// falls back to the policy's resolved default.
func (g *ShellGuard) Execute(ctx context.Context, guest catalog.Guest, validateExport, command string, allowed []string) (string, error) {
	accepted, err := guest.CallWithInput(ctx, validateExport, []byte(command))
	if err != nil {
		return "", err
	}
	if accepted != 1 {
		return "", reject("Command rejected by WASM validation")
	}

	if strings.ContainsAny(command, forbiddenShellChars) {
		return "", reject("Command contains forbidden characters")
	}
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return "", reject("Empty command")
	}

	program := argv[0]
	if len(allowed) == 0 {
		allowed = g.pol.Commands(nil, nil)
	}
	if !g.pol.CheckCommand(program, allowed) {
		return "", reject("Command '%s' is not allowed", program)
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.runner.Run(cctx, ports.CommandRequest{Command: program, Args: argv[1:]})
	if err != nil {
		return "", err
	}
	if result.IsTimeout {
		return "", expired("Command timed out after %ds", int(g.timeout.Seconds()))
	}

	return fmt.Sprintf("Shell execution completed.\nExit code: %d\n\nSTDOUT (truncated):\n%s\n\nSTDERR (truncated):\n%s",
		result.ExitCode, result.Stdout, result.Stderr), nil
}
