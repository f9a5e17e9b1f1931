package entities

import "encoding/json"

// Binding is the closed set of tool-to-export bindings. A binding is
// either Direct (one export) or Virtual (an ordered sequence of exports
// composed with a host-side action).
type Binding interface {
	isBinding()
}

// DirectBinding binds a tool to a single exported function.
type DirectBinding struct {
	// Module is the owning module name.
	Module string `json:"module"`

	// Export is the exported function name.
	Export string `json:"export"`

	// Pattern is the calling pattern fixed at discovery time.
	// Execution dispatches on this alone.
	Pattern SignaturePattern `json:"pattern"`
}

func (DirectBinding) isBinding() {}

// VirtualBinding binds a tool to an ordered sequence of exports plus a
// named composition rule executed by the host.
type VirtualBinding struct {
	// Module is the module providing all steps.
	Module string `json:"module"`

	// Rule names the composition (e.g. "fetch").
	Rule string `json:"rule"`

	// Steps are the underlying direct bindings, in invocation order.
	Steps []DirectBinding `json:"steps"`
}

func (VirtualBinding) isBinding() {}

// ToolDescriptor is one externally visible tool: its wire name, a
// human-readable description, the JSON schema of its argument object, and
// the binding that executes it.
type ToolDescriptor struct {
	// Name is unique within the catalog. Primary-module tools are
	// unprefixed; other modules' tools are "{module}_{export}" with
	// dashes mapped to underscores.
	Name string `json:"name"`

	// Description is shown to callers in tool listings.
	Description string `json:"description"`

	// InputSchema is the JSON schema for the arguments object.
	InputSchema json.RawMessage `json:"inputSchema"`

	// Binding executes the tool.
	Binding Binding `json:"-"`
}

// Invocation is one tool-call request: the target tool and its keyed
// argument map. Ephemeral, one per call.
type Invocation struct {
	Tool      string
	Arguments map[string]any
}

// InvocationResult carries the textual payload of a completed call and,
// for tools that produce one, a structured JSON payload.
type InvocationResult struct {
	Text       string
	Structured json.RawMessage
}
