// Package wireformat defines the JSON wire format structures for the
// line-oriented JSON-RPC protocol between clients and the server. These types
// must remain stable and backward compatible as they define the protocol
// contract.
package wireformat

import "encoding/json"

// JSONRPCVersion is the version string carried by every message.
const JSONRPCVersion = "2.0"

// Protocol identity reported by initialize.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "wasmforge"
	ServerVersion   = "0.1.0"
)

// JSON-RPC error codes used on the wire.
const (
	// CodeParseError is returned for unparseable request lines.
	CodeParseError = -32700

	// CodeMethodNotFound is returned for unknown methods.
	CodeMethodNotFound = -32601

	// CodeServerError is returned for every tool lookup, validation, and
	// invocation failure.
	CodeServerError = -32000
)

// Request is one JSON-RPC request line. ID is kept raw so any JSON value
// (string, number, null) round-trips byte-preserved.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC response line. Exactly one of Result or Error is
// set. ID echoes the request id; a request without an id is answered with
// id null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the error member of a failed response.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// InitializeResult is the result of the initialize method.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Capabilities advertises what the server supports. Tools is present and
// empty; this server exposes tools only.
type Capabilities struct {
	Tools struct{} `json:"tools"`
}

// ServerInfo identifies the server implementation.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolEntry describes one tool in a tools/list result.
type ToolEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsResult is the result of the tools/list method.
type ListToolsResult struct {
	Tools []ToolEntry `json:"tools"`
}

// CallParams are the parameters of the tools/call method.
type CallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ContentBlock is one item of a call result's content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the result of a successful tools/call.
type CallResult struct {
	Content []ContentBlock `json:"content"`
}

// TextResult builds a call result holding a single text block.
func TextResult(text string) CallResult {
	return CallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// NewInitializeResult returns the fixed identity payload.
func NewInitializeResult() InitializeResult {
	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      ServerInfo{Name: ServerName, Version: ServerVersion},
	}
}
