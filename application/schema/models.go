package schema

// Argument models for the built-in tool shapes. Field order is significant:
// it fixes the order of the "required" array in the reflected schema.

// TwoIntArgs describes exports taking two integers. JSON numbers arrive as
// float64, so the fields are declared that way even though only integral
// values are accepted at dispatch time.
type TwoIntArgs struct {
	A float64 `json:"a" jsonschema:"description=First integer parameter"`
	B float64 `json:"b" jsonschema:"description=Second integer parameter"`
}

// EmptyArgs describes exports taking no parameters.
type EmptyArgs struct{}

// TextArgs describes generic string-processing exports.
type TextArgs struct {
	Data string `json:"data" jsonschema:"description=Data to process"`
}

// FetchArgs describes the composed fetch tool.
type FetchArgs struct {
	URL string `json:"url" jsonschema:"description=The URL to fetch"`
}

// HTTPGetArgs describes the guarded HTTP GET tool.
type HTTPGetArgs struct {
	URL string `json:"url" jsonschema:"description=The URL to fetch via HTTP GET request"`
}

// ReadFileArgs describes the guarded file read tool.
type ReadFileArgs struct {
	Path string `json:"path" jsonschema:"description=The file path to read"`
}

// WriteFileArgs describes the guarded file write tool.
type WriteFileArgs struct {
	Path    string `json:"path" jsonschema:"description=The file path to write to"`
	Content string `json:"content" jsonschema:"description=The content to write to the file"`
}

// CommandArgs describes the guarded shell execution tool.
type CommandArgs struct {
	Command string `json:"command" jsonschema:"description=The shell command to execute (validated by WASM and host)"`
}

// TaskArgs describes the tool recommendation tool.
type TaskArgs struct {
	Task string `json:"task" jsonschema:"description=Describe your task and we'll recommend suitable tools"`
}

// Reflected documents for the built-in shapes, ready to embed in listings.
var (
	TwoInt    = MustReflect(TwoIntArgs{})
	NoArgs    = MustReflect(EmptyArgs{})
	Text      = MustReflect(TextArgs{})
	Fetch     = MustReflect(FetchArgs{})
	HTTPGet   = MustReflect(HTTPGetArgs{})
	FileRead  = MustReflect(ReadFileArgs{})
	FileWrite = MustReflect(WriteFileArgs{})
	ShellExec = MustReflect(CommandArgs{})
	Recommend = MustReflect(TaskArgs{})
)
