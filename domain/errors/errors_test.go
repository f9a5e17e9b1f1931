package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleUnavailableError(t *testing.T) {
	baseErr := fmt.Errorf("connection refused")
	err := &ModuleUnavailableError{
		Name:   "calc",
		Source: "https://modules.example.com/calc.wasm",
		Err:    baseErr,
	}

	assert.Equal(t, "module 'calc' unavailable from https://modules.example.com/calc.wasm: connection refused", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	var modErr *ModuleUnavailableError
	require.True(t, errors.As(err, &modErr))
	assert.Equal(t, "calc", modErr.Name)

	detail := err.ToErrorDetail()
	assert.Equal(t, "module_unavailable", detail.Type)
	assert.True(t, detail.IsNotFound)
}

func TestModuleUnavailableError_NoSource(t *testing.T) {
	baseErr := fmt.Errorf("registry sources are not supported")
	err := &ModuleUnavailableError{
		Name: "text-utils",
		Err:  baseErr,
	}

	assert.Equal(t, "module 'text-utils' unavailable: registry sources are not supported", err.Error())
}

func TestIntegrityError(t *testing.T) {
	err := &IntegrityError{
		Name:     "calc",
		Expected: "aaaa",
		Actual:   "bbbb",
	}

	assert.Equal(t, "checksum mismatch for module 'calc': expected aaaa, got bbbb", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "integrity", detail.Type)
	assert.Equal(t, "calc", detail.Code)
}

func TestLoadError(t *testing.T) {
	baseErr := fmt.Errorf("invalid magic number")
	err := &LoadError{
		Name:  "broken",
		Stage: "compile",
		Err:   baseErr,
	}

	assert.Equal(t, "failed to compile module 'broken': invalid magic number", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	detail := err.ToErrorDetail()
	assert.Equal(t, "load", detail.Type)
	assert.Equal(t, "compile", detail.Code)
}

func TestExportNotFoundError(t *testing.T) {
	err := &ExportNotFoundError{
		Module: "calc",
		Export: "divide",
	}

	assert.Equal(t, "export 'divide' not found in module 'calc'", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "export_not_found", detail.Type)
	assert.True(t, detail.IsNotFound)
}

func TestTypeMismatchError(t *testing.T) {
	err := &TypeMismatchError{
		Module:  "calc",
		Export:  "add",
		Pattern: "no_params_to_i32",
		Got:     "(i32, i32) -> i32",
	}

	assert.Equal(t, "export 'add' in module 'calc' has signature (i32, i32) -> i32, incompatible with no_params_to_i32", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "type_mismatch", detail.Type)
	assert.Equal(t, "no_params_to_i32", detail.Code)
}

func TestTrapError(t *testing.T) {
	baseErr := fmt.Errorf("wasm error: integer divide by zero")
	err := &TrapError{
		Module: "calc",
		Export: "divide",
		Err:    baseErr,
	}

	assert.Equal(t, "module 'calc' trapped in 'divide': wasm error: integer divide by zero", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	detail := err.ToErrorDetail()
	assert.Equal(t, "trap", detail.Type)
	assert.Equal(t, "divide", detail.Code)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Stage:  "host",
		Tool:   "execute_shell",
		Reason: "command 'rm' is not in the allowed list",
	}

	assert.Equal(t, "host validation rejected 'execute_shell': command 'rm' is not in the allowed list", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "validation", detail.Type)
	assert.Equal(t, "host", detail.Code)
}

func TestValidationError_NoTool(t *testing.T) {
	err := &ValidationError{
		Stage:  "sandbox",
		Reason: "url scheme not recognized",
	}

	assert.Equal(t, "sandbox validation failed: url scheme not recognized", err.Error())
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{
		Operation: "call",
		Duration:  30 * time.Second,
		Target:    "calc::add",
	}

	assert.Equal(t, "call timeout after 30s (target: calc::add)", err.Error())
	assert.True(t, err.Timeout())

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 30*time.Second, timeoutErr.Duration)

	detail := err.ToErrorDetail()
	assert.Equal(t, "timeout", detail.Type)
	assert.True(t, detail.IsTimeout)
}

func TestTimeoutError_NoTarget(t *testing.T) {
	err := &TimeoutError{
		Operation: "shell_exec",
		Duration:  10 * time.Second,
	}

	assert.Equal(t, "shell_exec timeout after 10s", err.Error())
}

func TestProtocolError(t *testing.T) {
	baseErr := fmt.Errorf("unknown method")
	err := &ProtocolError{
		Method: "resources/list",
		Code:   -32601,
		Err:    baseErr,
	}

	assert.Equal(t, "protocol error for method 'resources/list': unknown method", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	detail := err.ToErrorDetail()
	assert.Equal(t, "protocol", detail.Type)
	assert.Equal(t, "-32601", detail.Code)
}

func TestProtocolError_NoMethod(t *testing.T) {
	baseErr := fmt.Errorf("unexpected end of JSON input")
	err := &ProtocolError{
		Code: -32700,
		Err:  baseErr,
	}

	assert.Equal(t, "protocol error: unexpected end of JSON input", err.Error())
}

func TestFetchError(t *testing.T) {
	baseErr := fmt.Errorf("connection refused")
	err := &FetchError{
		URL: "https://modules.example.com/calc.wasm",
		Err: baseErr,
	}

	assert.Equal(t, "fetch https://modules.example.com/calc.wasm failed: connection refused", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestFetchError_WithStatusCode(t *testing.T) {
	baseErr := fmt.Errorf("not found")
	err := &FetchError{
		URL:        "https://modules.example.com/missing.wasm",
		StatusCode: 404,
		Err:        baseErr,
	}

	assert.Equal(t, "fetch https://modules.example.com/missing.wasm failed with status 404: not found", err.Error())

	detail := err.ToErrorDetail()
	assert.Equal(t, "network", detail.Type)
	assert.Equal(t, "http_404", detail.Code)
}

func TestFetchError_Timeout(t *testing.T) {
	timeoutErr := &TimeoutError{Operation: "fetch", Duration: 30 * time.Second}
	err := &FetchError{
		URL: "https://slow.example.com/big.wasm",
		Err: timeoutErr,
	}

	assert.True(t, err.Timeout())

	detail := err.ToErrorDetail()
	assert.Equal(t, "timeout", detail.Type)
	assert.True(t, detail.IsTimeout)
}

func TestExecError_DidNotRun(t *testing.T) {
	baseErr := fmt.Errorf("command not found")
	err := &ExecError{
		Command: "nonexistent-command",
		Err:     baseErr,
	}

	assert.Equal(t, "failed to execute 'nonexistent-command': command not found", err.Error())
	assert.True(t, errors.Is(err, baseErr))
}

func TestExecError_NonZeroExit(t *testing.T) {
	err := &ExecError{
		Command:  "grep",
		ExitCode: 1,
		Stderr:   "pattern not found",
	}

	assert.Equal(t, "command 'grep' exited with code 1: pattern not found", err.Error())

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.ExitCode)
	assert.Equal(t, "pattern not found", execErr.Stderr)
}

func TestExecError_NonZeroExitNoStderr(t *testing.T) {
	err := &ExecError{
		Command:  "false",
		ExitCode: 1,
	}

	assert.Equal(t, "command 'false' exited with code 1", err.Error())
}

func TestToErrorDetail_Nil(t *testing.T) {
	assert.Nil(t, ToErrorDetail(nil))
}

func TestToErrorDetail_Generic(t *testing.T) {
	detail := ToErrorDetail(fmt.Errorf("something broke"))

	require.NotNil(t, detail)
	assert.Equal(t, "something broke", detail.Message)
	assert.Equal(t, "internal", detail.Type)
}

func TestToErrorDetail_Wrapped(t *testing.T) {
	inner := &TrapError{Module: "calc", Export: "divide", Err: fmt.Errorf("divide by zero")}
	wrapped := fmt.Errorf("call failed: %w", inner)

	detail := ToErrorDetail(wrapped)

	require.NotNil(t, detail)
	assert.Equal(t, "trap", detail.Type)
}

func TestErrorUnwrapping(t *testing.T) {
	baseErr := fmt.Errorf("base error")

	tests := []struct {
		name string
		err  error
	}{
		{"ModuleUnavailableError", &ModuleUnavailableError{Name: "test", Err: baseErr}},
		{"LoadError", &LoadError{Name: "test", Stage: "compile", Err: baseErr}},
		{"TrapError", &TrapError{Module: "test", Export: "f", Err: baseErr}},
		{"ProtocolError", &ProtocolError{Method: "test", Err: baseErr}},
		{"FetchError", &FetchError{URL: "test", Err: baseErr}},
		{"ExecError", &ExecError{Command: "test", Err: baseErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, baseErr), "errors.Is should find base error")
			unwrapped := errors.Unwrap(tt.err)
			assert.Equal(t, baseErr, unwrapped, "errors.Unwrap should return base error")
		})
	}
}
