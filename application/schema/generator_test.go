package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflect_TwoInt(t *testing.T) {
	raw, err := Reflect(TwoIntArgs{})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "object",
		"additionalProperties": false,
		"properties": {
			"a": {"type": "number", "description": "First integer parameter"},
			"b": {"type": "number", "description": "Second integer parameter"}
		},
		"required": ["a", "b"]
	}`, string(raw))
}

func TestReflect_NoArgs(t *testing.T) {
	raw, err := Reflect(EmptyArgs{})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "object",
		"properties": {},
		"additionalProperties": false
	}`, string(raw))
}

func TestReflect_GuardedShapes(t *testing.T) {
	tests := []struct {
		name string
		doc  json.RawMessage
		want string
	}{
		{
			name: "text",
			doc:  Text,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"data": {"type": "string", "description": "Data to process"}
				},
				"required": ["data"]
			}`,
		},
		{
			name: "fetch",
			doc:  Fetch,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"url": {"type": "string", "description": "The URL to fetch"}
				},
				"required": ["url"]
			}`,
		},
		{
			name: "http get",
			doc:  HTTPGet,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"url": {"type": "string", "description": "The URL to fetch via HTTP GET request"}
				},
				"required": ["url"]
			}`,
		},
		{
			name: "file read",
			doc:  FileRead,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"path": {"type": "string", "description": "The file path to read"}
				},
				"required": ["path"]
			}`,
		},
		{
			name: "file write",
			doc:  FileWrite,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"path": {"type": "string", "description": "The file path to write to"},
					"content": {"type": "string", "description": "The content to write to the file"}
				},
				"required": ["path", "content"]
			}`,
		},
		{
			name: "shell exec",
			doc:  ShellExec,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"command": {"type": "string", "description": "The shell command to execute (validated by WASM and host)"}
				},
				"required": ["command"]
			}`,
		},
		{
			name: "recommend",
			doc:  Recommend,
			want: `{
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"task": {"type": "string", "description": "Describe your task and we'll recommend suitable tools"}
				},
				"required": ["task"]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(tt.doc))
		})
	}
}

func TestReflect_RequiredFollowsFieldOrder(t *testing.T) {
	raw, err := Reflect(WriteFileArgs{})
	require.NoError(t, err)

	var decoded struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []string{"path", "content"}, decoded.Required)
}

func TestReflect_SelfContained(t *testing.T) {
	raw, err := Reflect(TwoIntArgs{})
	require.NoError(t, err)

	doc := string(raw)
	assert.NotContains(t, doc, "$schema")
	assert.NotContains(t, doc, "$id")
	assert.NotContains(t, doc, "$ref")
	assert.NotContains(t, doc, "$defs")
}

func TestReflectedDocumentsAreValidJSON(t *testing.T) {
	docs := map[string]json.RawMessage{
		"TwoInt":    TwoInt,
		"NoArgs":    NoArgs,
		"Text":      Text,
		"Fetch":     Fetch,
		"HTTPGet":   HTTPGet,
		"FileRead":  FileRead,
		"FileWrite": FileWrite,
		"ShellExec": ShellExec,
		"Recommend": Recommend,
	}
	for name, doc := range docs {
		assert.True(t, json.Valid(doc), "document %s is not valid JSON", name)
	}
}
