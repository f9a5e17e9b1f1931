package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/wireformat"
)

// Dispatcher routes request lines against the current catalog. It is safe
// for concurrent use: the catalog pointer is read per request and swapped
// whole on reload, never mutated in place.
type Dispatcher struct {
	logger  *slog.Logger
	catalog atomic.Pointer[catalog.Catalog]
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger. Default is slog.Default().
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher serving cat. A nil catalog is valid:
// tools/list answers empty and every call fails as unknown until a catalog
// is swapped in.
func NewDispatcher(cat *catalog.Catalog, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.catalog.Store(cat)
	return d
}

// Swap installs cat as the serving catalog and returns the previous one.
func (d *Dispatcher) Swap(cat *catalog.Catalog) *catalog.Catalog {
	return d.catalog.Swap(cat)
}

// Catalog returns the catalog serving new requests.
func (d *Dispatcher) Catalog() *catalog.Catalog {
	return d.catalog.Load()
}

// HandleLine processes one request line and returns the encoded response.
// Unparseable lines get a parse error response with a null id; every other
// outcome echoes the caller's id byte for byte.
func (d *Dispatcher) HandleLine(ctx context.Context, line []byte) []byte {
	var req wireformat.Request
	if err := json.Unmarshal(line, &req); err != nil {
		d.logger.Warn("request parse failed", "error", err)
		return encode(wireformat.Response{
			JSONRPC: wireformat.JSONRPCVersion,
			ID:      json.RawMessage("null"),
			Error:   &wireformat.ErrorObject{Code: wireformat.CodeParseError, Message: "Parse error"},
		})
	}
	return encode(d.dispatch(ctx, req))
}

func (d *Dispatcher) dispatch(ctx context.Context, req wireformat.Request) wireformat.Response {
	d.logger.Debug("request received", "method", req.Method)

	switch req.Method {
	case "initialize":
		return d.result(req, wireformat.NewInitializeResult())
	case "tools/list":
		return d.result(req, d.listTools())
	case "tools/call":
		text, err := d.call(ctx, req.Params)
		if err != nil {
			d.logger.Warn("tool call failed", "error", err)
			return d.fail(req, wireformat.CodeServerError, err.Error())
		}
		return d.result(req, wireformat.TextResult(text))
	default:
		return d.fail(req, wireformat.CodeMethodNotFound, "Method not found")
	}
}

func (d *Dispatcher) listTools() wireformat.ListToolsResult {
	out := wireformat.ListToolsResult{Tools: []wireformat.ToolEntry{}}
	cat := d.catalog.Load()
	if cat == nil {
		return out
	}
	for _, tool := range cat.Tools() {
		out.Tools = append(out.Tools, wireformat.ToolEntry{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return out
}

// call unpacks tools/call parameters and invokes the named tool. Parameter
// probing is field-by-field so each missing piece reports its own message.
func (d *Dispatcher) call(ctx context.Context, params json.RawMessage) (string, error) {
	if len(params) == 0 || string(params) == "null" {
		return "", fmt.Errorf("Missing parameters")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(params, &fields); err != nil {
		return "", fmt.Errorf("Missing tool name")
	}

	rawName, ok := fields["name"]
	if !ok {
		return "", fmt.Errorf("Missing tool name")
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return "", fmt.Errorf("Missing tool name")
	}

	rawArgs, ok := fields["arguments"]
	if !ok {
		return "", fmt.Errorf("Missing arguments")
	}
	// Null or non-object arguments pass through as an empty set; the bound
	// handler reports which parameter it is missing.
	var args map[string]any
	_ = json.Unmarshal(rawArgs, &args)

	cat := d.catalog.Load()
	if cat == nil {
		return "", fmt.Errorf("Unknown tool: %s", name)
	}
	result, err := cat.Invoke(ctx, name, args)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

func (d *Dispatcher) result(req wireformat.Request, v interface{}) wireformat.Response {
	payload, err := json.Marshal(v)
	if err != nil {
		d.logger.Error("result encoding failed", "method", req.Method, "error", err)
		return d.fail(req, wireformat.CodeServerError, "result encoding failed")
	}
	return wireformat.Response{
		JSONRPC: wireformat.JSONRPCVersion,
		ID:      req.ID,
		Result:  payload,
	}
}

func (d *Dispatcher) fail(req wireformat.Request, code int, message string) wireformat.Response {
	return wireformat.Response{
		JSONRPC: wireformat.JSONRPCVersion,
		ID:      req.ID,
		Error:   &wireformat.ErrorObject{Code: code, Message: message},
	}
}

func encode(resp wireformat.Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32000,"message":"response encoding failed"}}`)
	}
	return data
}
