package wasmtest

// httpLE is "http" read as a little-endian i32.
const httpLE = 0x70747468

// CalcModule builds a module exporting integer arithmetic. divide traps on a
// zero divisor; explode traps unconditionally; _scratch is underscore-prefixed
// and odd has a shape tool discovery does not recognize.
func CalcModule() []byte {
	return NewBuilder().
		Export("add", SigTwoI32, LocalGet(0), LocalGet(1), I32Add()).
		Export("subtract", SigTwoI32, LocalGet(0), LocalGet(1), I32Sub()).
		Export("multiply", SigTwoI32, LocalGet(0), LocalGet(1), I32Mul()).
		Export("divide", SigTwoI32, LocalGet(0), LocalGet(1), I32DivS()).
		Export("answer", SigNoArgs, I32Const(42)).
		Export("_scratch", SigNoArgs, I32Const(1)).
		Export("odd", SigOneI32, LocalGet(0)).
		Export("explode", SigNoArgs, Unreachable()).
		Build()
}

// TextModule builds a module exporting pointer/length text handlers and a
// one-page exported memory. validate_url accepts inputs beginning with
// "http"; process_response returns the input length; the prepare_* handlers
// accept any non-empty input except prepare_shell_exec, which accepts
// everything so host-stage authority can be observed.
func TextModule() []byte {
	b := NewBuilder().WithMemory(1, "memory")

	b.Export("validate_url", SigTwoI32, httpPrefixCheck()...)
	b.Export("process_response", SigTwoI32, LocalGet(1))
	for _, name := range []string{"prepare_http_get", "prepare_file_read", "prepare_file_write", "prepare_recommend_mcps"} {
		b.Export(name, SigTwoI32, acceptNonEmpty()...)
	}
	b.Export("prepare_shell_exec", SigTwoI32, I32Const(1))

	return b.Build()
}

// RejectModule builds a module whose validate_url refuses every input, for
// fail-fast composition tests.
func RejectModule() []byte {
	return NewBuilder().
		WithMemory(1, "memory").
		Export("validate_url", SigTwoI32, I32Const(0)).
		Export("process_response", SigTwoI32, LocalGet(1)).
		Build()
}

// NoMemoryModule exports a text handler without any linear memory, so input
// writes must fail before invocation.
func NoMemoryModule() []byte {
	return NewBuilder().
		Export("validate_url", SigTwoI32, I32Const(1)).
		Build()
}

// SpinModule exports spin, which never returns, alongside answer, so
// deadline interruption and recovery can both be observed. The constant
// after the loop satisfies validation but never executes.
func SpinModule() []byte {
	return NewBuilder().
		Export("spin", SigNoArgs, Loop(BlockEmpty), Br(0), End(), I32Const(0)).
		Export("answer", SigNoArgs, I32Const(42)).
		Build()
}

// acceptNonEmpty returns 1 when the input length is positive.
func acceptNonEmpty() [][]byte {
	return [][]byte{LocalGet(1), I32Const(0), I32GtS()}
}

// httpPrefixCheck returns 1 when the input is at least four bytes long and
// begins with "http".
func httpPrefixCheck() [][]byte {
	return [][]byte{
		LocalGet(1), I32Const(4), I32LtS(),
		If(BlockEmpty), I32Const(0), Return(), End(),
		LocalGet(0), I32Load(0), I32Const(httpLE), I32Eq(),
	}
}
