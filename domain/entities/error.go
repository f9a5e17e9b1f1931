package entities

import "fmt"

// ErrorDetail provides structured error information shared between the
// domain error types and the protocol layer.
// Error Types: "module_unavailable", "integrity", "load",
// "export_not_found", "type_mismatch", "trap", "validation", "timeout",
// "protocol", "network", "exec", "internal".
type ErrorDetail struct {
	// Message describes what went wrong, for humans.
	Message string `json:"message"`

	// Type is one of the categories listed above.
	Type string `json:"type"`

	// Code carries a stable identifier for callers that branch on it.
	Code string `json:"code,omitempty"`

	// IsTimeout indicates the operation exceeded its bound and was
	// forcibly terminated.
	IsTimeout bool `json:"is_timeout,omitempty"`

	// IsNotFound indicates a missing module, export, or tool.
	IsNotFound bool `json:"is_not_found,omitempty"`
}

// Error formats the detail as "type: message", dropping the type prefix
// for internal errors where it adds nothing.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	if e.Type != "" && e.Type != "internal" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Message
}
