package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmforge-dev/wasmforge/application/catalog"
	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/wireformat"
)

var (
	sigTwoI32 = entities.Signature{
		Params:  []entities.ValueType{entities.I32, entities.I32},
		Results: []entities.ValueType{entities.I32},
	}
	sigNoArgs = entities.Signature{
		Results: []entities.ValueType{entities.I32},
	}
)

// fakeModule implements catalog.Module over static export tables, enough
// to build real catalogs without a runtime.
type fakeModule struct {
	name    string
	exports map[string]entities.Signature
	twoInt  func(export string, a, b int32) (int32, error)
	noArgs  func(export string) (int32, error)
}

func (f *fakeModule) Name() string { return f.name }

func (f *fakeModule) ExportNames() []string {
	names := make([]string, 0, len(f.exports))
	for name := range f.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *fakeModule) Signature(export string) (entities.Signature, bool) {
	sig, ok := f.exports[export]
	return sig, ok
}

func (f *fakeModule) CallTwoInt32(_ context.Context, export string, a, b int32) (int32, error) {
	if f.twoInt == nil {
		return 0, fmt.Errorf("unexpected two-int call to %s", export)
	}
	return f.twoInt(export, a, b)
}

func (f *fakeModule) CallNoArgs(_ context.Context, export string) (int32, error) {
	if f.noArgs == nil {
		return 0, fmt.Errorf("unexpected no-args call to %s", export)
	}
	return f.noArgs(export)
}

func (f *fakeModule) CallWithInput(_ context.Context, export string, _ []byte) (int32, error) {
	return 0, fmt.Errorf("unexpected input call to %s", export)
}

func calcModule() *fakeModule {
	return &fakeModule{
		name: "calc",
		exports: map[string]entities.Signature{
			"add":    sigTwoI32,
			"answer": sigNoArgs,
		},
		twoInt: func(_ string, a, b int32) (int32, error) { return a + b, nil },
		noArgs: func(string) (int32, error) { return 42, nil },
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCatalog(t *testing.T, modules ...catalog.Module) *catalog.Catalog {
	t.Helper()
	if len(modules) == 0 {
		modules = []catalog.Module{calcModule()}
	}
	cat, err := catalog.Build(modules, catalog.Dependencies{}, catalog.WithLogger(quietLogger()))
	require.NoError(t, err)
	return cat
}

func testDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(testCatalog(t), WithDispatcherLogger(quietLogger()))
}

// handle runs one request line and decodes the response envelope.
func handle(t *testing.T, d *Dispatcher, line string) wireformat.Response {
	t.Helper()
	raw := d.HandleLine(context.Background(), []byte(line))
	var resp wireformat.Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	return resp
}

func contentText(t *testing.T, resp wireformat.Response) string {
	t.Helper()
	require.Nil(t, resp.Error, "expected success, got error")
	var result wireformat.CallResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result.Content[0].Text
}

func TestInitialize(t *testing.T) {
	d := testDispatcher(t)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)

	require.Nil(t, resp.Error)
	assert.JSONEq(t,
		`{"protocolVersion":"2024-11-05","capabilities":{"tools":{}},"serverInfo":{"name":"wasmforge","version":"0.1.0"}}`,
		string(resp.Result))
}

func TestToolsList(t *testing.T) {
	d := testDispatcher(t)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	require.Nil(t, resp.Error)
	var result wireformat.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"add", "answer"}, names)
	for _, tool := range result.Tools {
		assert.NotEmpty(t, tool.Description)
		assert.True(t, json.Valid(tool.InputSchema))
	}
}

func TestToolsList_EmptyWithoutCatalog(t *testing.T) {
	d := NewDispatcher(nil, WithDispatcherLogger(quietLogger()))

	resp := handle(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	require.Nil(t, resp.Error)
	assert.JSONEq(t, `{"tools":[]}`, string(resp.Result))
}

func TestToolsCall(t *testing.T) {
	d := testDispatcher(t)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"add","arguments":{"a":5,"b":3}}}`)

	assert.Equal(t, "WASM calculation result: 8 (from calc::add)", contentText(t, resp))
}

func TestToolsCall_NoArgsTool(t *testing.T) {
	d := testDispatcher(t)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"answer","arguments":{}}}`)

	assert.Equal(t, "WASM result: 42 (from calc::answer)", contentText(t, resp))
}

func TestToolsCall_ParameterErrors(t *testing.T) {
	d := testDispatcher(t)

	tests := []struct {
		name string
		line string
		want string
	}{
		{"absent params", `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, "Missing parameters"},
		{"null params", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":null}`, "Missing parameters"},
		{"params not an object", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":[1,2]}`, "Missing tool name"},
		{"absent name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`, "Missing tool name"},
		{"non-string name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":7,"arguments":{}}}`, "Missing tool name"},
		{"absent arguments", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"add"}}`, "Missing arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handle(t, d, tt.line)
			require.NotNil(t, resp.Error)
			assert.Equal(t, wireformat.CodeServerError, resp.Error.Code)
			assert.Equal(t, tt.want, resp.Error.Message)
		})
	}
}

func TestToolsCall_NullArgumentsReachHandler(t *testing.T) {
	d := testDispatcher(t)

	// An explicit null arguments value is present, so the argument check
	// happens in the bound handler, not the dispatcher.
	resp := handle(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"add","arguments":null}}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, wireformat.CodeServerError, resp.Error.Code)
	assert.Equal(t, "Missing or invalid parameter 'a'", resp.Error.Message)
}

func TestToolsCall_UnknownTool(t *testing.T) {
	d := testDispatcher(t)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, wireformat.CodeServerError, resp.Error.Code)
	assert.Equal(t, "Unknown tool: nope", resp.Error.Message)
}

func TestMethodNotFound(t *testing.T) {
	d := testDispatcher(t)

	resp := handle(t, d, `{"jsonrpc":"2.0","id":9,"method":"resources/list"}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, wireformat.CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "Method not found", resp.Error.Message)
	assert.Equal(t, json.RawMessage("9"), resp.ID)
}

func TestParseError(t *testing.T) {
	d := testDispatcher(t)

	raw := d.HandleLine(context.Background(), []byte(`{"jsonrpc":"2.0", broken`))

	var resp wireformat.Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, wireformat.CodeParseError, resp.Error.Code)
	assert.Equal(t, "Parse error", resp.Error.Message)
	assert.Equal(t, json.RawMessage("null"), resp.ID)
}

func TestIDEcho_BytePreserved(t *testing.T) {
	d := testDispatcher(t)

	tests := []struct {
		name   string
		id     string // raw JSON as it appears in the request
		wantID string // raw JSON expected back
	}{
		{"string", `"req-1"`, `"req-1"`},
		{"integer", `42`, `42`},
		{"fractional keeps formatting", `1.50`, `1.50`},
		{"null", `null`, `null`},
		{"object", `{"seq":7}`, `{"seq":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := fmt.Sprintf(`{"jsonrpc":"2.0","id":%s,"method":"initialize"}`, tt.id)
			resp := handle(t, d, line)
			assert.Equal(t, json.RawMessage(tt.wantID), resp.ID)
		})
	}
}

func TestIDEcho_AbsentIDAnsweredWithNull(t *testing.T) {
	d := testDispatcher(t)

	raw := d.HandleLine(context.Background(), []byte(`{"jsonrpc":"2.0","method":"initialize"}`))

	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &envelope))
	id, ok := envelope["id"]
	require.True(t, ok, "response must carry an id member")
	assert.Equal(t, json.RawMessage("null"), id)
}

func TestSwap_ReplacesCatalogWhole(t *testing.T) {
	first := testCatalog(t)
	second := testCatalog(t, &fakeModule{
		name:    "other",
		exports: map[string]entities.Signature{"ping": sigNoArgs},
		noArgs:  func(string) (int32, error) { return 1, nil },
	})
	d := NewDispatcher(first, WithDispatcherLogger(quietLogger()))

	previous := d.Swap(second)

	assert.Same(t, first, previous)
	assert.Same(t, second, d.Catalog())

	resp := handle(t, d, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"ping","arguments":{}}}`)
	assert.Equal(t, "WASM result: 1 (from other::ping)", contentText(t, resp))

	resp = handle(t, d, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"add","arguments":{"a":1,"b":2}}}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Unknown tool: add", resp.Error.Message)
}
