package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wasmforge-dev/wasmforge/application/schema"
)

// action is the closed set of invocation behaviors a tool can be bound to.
// The choice is made once at build; invocation never re-derives it.
type action uint8

const (
	actionTwoInt action = iota
	actionNoArgs
	actionText
	actionValidateURL
	actionHTTPGet
	actionFileRead
	actionFileWrite
	actionShell
	actionRecommend
	actionFetch
)

// genericTextDescription is the fallback for pointer/length exports whose
// name carries no recognized meaning.
const genericTextDescription = "Processes string data and returns an integer"

// convention refines an export whose name is well known. The gate is the
// name plus the raw two-i32 shape; an export with the right name but the
// wrong shape falls through to plain classification.
type convention struct {
	act    action
	schema json.RawMessage
}

var conventions = map[string]convention{
	"validate_url":           {act: actionValidateURL, schema: schema.Text},
	"process_response":       {act: actionText, schema: schema.Text},
	"prepare_http_get":       {act: actionHTTPGet, schema: schema.HTTPGet},
	"prepare_file_read":      {act: actionFileRead, schema: schema.FileRead},
	"prepare_file_write":     {act: actionFileWrite, schema: schema.FileWrite},
	"prepare_shell_exec":     {act: actionShell, schema: schema.ShellExec},
	"prepare_recommend_mcps": {act: actionRecommend, schema: schema.Recommend},
}

// describe resolves the listed description for an export, formatted with
// its owning module. Exact names are tried first, then name fragments,
// then the classification fallback.
func describe(export, fallback, module string) string {
	text := fallback
	switch export {
	case "add":
		text = "Add two numbers using WebAssembly"
	case "subtract", "sub":
		text = "Subtract two numbers using WebAssembly"
	case "multiply", "mul":
		text = "Multiply two numbers using WebAssembly"
	case "divide", "div":
		text = "Divide two numbers using WebAssembly"
	case "validate_url":
		text = "Validate URL format using WebAssembly"
	case "process_response":
		text = "Process HTTP response using WebAssembly"
	case "prepare_http_get":
		text = "Fetch content from a URL using async HTTP GET with WASM validation"
	case "prepare_file_read":
		text = "Read file content with WASM path validation"
	case "prepare_file_write":
		text = "Write content to file with WASM path validation"
	case "prepare_shell_exec":
		text = "Execute a simple shell command with WASM validation"
	case "prepare_recommend_mcps":
		text = "Recommend relevant MCP tools based on a task description"
	case "hash", "sha256":
		text = "Calculate hash of input data"
	case "encrypt":
		text = "Encrypt data using WebAssembly"
	case "decrypt":
		text = "Decrypt data using WebAssembly"
	case "compress":
		text = "Compress data using WebAssembly"
	case "decompress":
		text = "Decompress data using WebAssembly"
	default:
		switch {
		case strings.Contains(export, "validate"):
			text = "Validate input data using WebAssembly"
		case strings.Contains(export, "process"):
			text = "Process input data using WebAssembly"
		case strings.Contains(export, "parse"):
			text = "Parse input data using WebAssembly"
		case strings.Contains(export, "format"):
			text = "Format input data using WebAssembly"
		}
	}
	return fmt.Sprintf("%s (from module: %s)", text, module)
}
