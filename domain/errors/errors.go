// Package errors provides domain-specific error types for the host.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// DetailedError is an interface for custom error types that can convert
// themselves to a structured ErrorDetail. New error types only need to
// implement this interface without modifying ToErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
// This function recognizes custom error types and categorizes them appropriately.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	// If the error is already a *ErrorDetail (entity), use it directly.
	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	// Check if error matches the DetailedError interface
	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	// Generic error - categorize as internal
	return &entities.ErrorDetail{
		Message: err.Error(),
		Type:    "internal",
	}
}

// ModuleUnavailableError indicates a configured module could not be
// obtained from its source.
type ModuleUnavailableError struct {
	Err    error
	Name   string
	Source string
}

func (e *ModuleUnavailableError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("module '%s' unavailable from %s: %v", e.Name, e.Source, e.Err)
	}
	return fmt.Sprintf("module '%s' unavailable: %v", e.Name, e.Err)
}

func (e *ModuleUnavailableError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ModuleUnavailableError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "module_unavailable", Code: e.Name, IsNotFound: true}
}

// IntegrityError indicates fetched module bytes did not match the pinned
// checksum. The mismatching bytes must never reach the runtime or cache.
type IntegrityError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for module '%s': expected %s, got %s", e.Name, e.Expected, e.Actual)
}

// ToErrorDetail implements DetailedError.
func (e *IntegrityError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "integrity", Code: e.Name}
}

// LoadError indicates a module failed to compile or instantiate.
type LoadError struct {
	Err   error
	Name  string
	Stage string // "compile" or "instantiate"
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to %s module '%s': %v", e.Stage, e.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *LoadError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "load", Code: e.Stage}
}

// ExportNotFoundError indicates a named export does not exist in a
// loaded module.
type ExportNotFoundError struct {
	Module string
	Export string
}

func (e *ExportNotFoundError) Error() string {
	return fmt.Sprintf("export '%s' not found in module '%s'", e.Export, e.Module)
}

// ToErrorDetail implements DetailedError.
func (e *ExportNotFoundError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "export_not_found", Code: e.Export, IsNotFound: true}
}

// TypeMismatchError indicates an export's runtime signature does not
// match the pattern it was bound with.
type TypeMismatchError struct {
	Module  string
	Export  string
	Pattern string
	Got     string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("export '%s' in module '%s' has signature %s, incompatible with %s",
		e.Export, e.Module, e.Got, e.Pattern)
}

// ToErrorDetail implements DetailedError.
func (e *TypeMismatchError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "type_mismatch", Code: e.Pattern}
}

// TrapError indicates a guest function trapped during execution
// (unreachable, divide by zero, out-of-bounds access).
type TrapError struct {
	Err    error
	Module string
	Export string
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("module '%s' trapped in '%s': %v", e.Module, e.Export, e.Err)
}

func (e *TrapError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *TrapError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "trap", Code: e.Export}
}

// ValidationError indicates an argument was rejected before a privileged
// operation ran. Stage records which layer rejected it.
type ValidationError struct {
	Stage  string // "host" or "sandbox"
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("%s validation rejected '%s': %s", e.Stage, e.Tool, e.Reason)
	}
	return fmt.Sprintf("%s validation failed: %s", e.Stage, e.Reason)
}

// ToErrorDetail implements DetailedError.
func (e *ValidationError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "validation", Code: e.Stage}
}

// TimeoutError represents a timeout during an operation.
type TimeoutError struct {
	Operation string
	Target    string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s timeout after %v (target: %s)", e.Operation, e.Duration, e.Target)
	}
	return fmt.Sprintf("%s timeout after %v", e.Operation, e.Duration)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// ToErrorDetail implements DetailedError.
func (e *TimeoutError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "timeout", Code: e.Operation, IsTimeout: true}
}

// ProtocolError represents a request the wire layer could not serve.
// Code carries the JSON-RPC error code for the response.
type ProtocolError struct {
	Err    error
	Method string
	Code   int
}

func (e *ProtocolError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("protocol error for method '%s': %v", e.Method, e.Err)
	}
	return fmt.Sprintf("protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ProtocolError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "protocol", Code: fmt.Sprintf("%d", e.Code)}
}

// FetchError represents an HTTP retrieval failure.
type FetchError struct {
	Err        error
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Timeout() bool {
	if t, ok := e.Err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return false
}

// ToErrorDetail implements DetailedError.
func (e *FetchError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Error(), Type: "network", Code: fmt.Sprintf("http_%d", e.StatusCode)}
	if e.Timeout() {
		detail.Type = "timeout"
		detail.IsTimeout = true
	}
	return detail
}

// ExecError represents a command execution error.
type ExecError struct {
	Err      error
	Command  string
	Stderr   string
	ExitCode int
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to execute '%s': %v", e.Command, e.Err)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("command '%s' exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("command '%s' exited with code %d", e.Command, e.ExitCode)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ExecError) ToErrorDetail() *entities.ErrorDetail {
	return &entities.ErrorDetail{Message: e.Error(), Type: "exec", Code: fmt.Sprintf("exit_%d", e.ExitCode)}
}
