// Package wasmtest assembles minimal WebAssembly binaries in process so
// runtime tests exercise real modules without a guest toolchain or fixture
// files. Only the small instruction set the canned modules need is covered.
package wasmtest

// Binary section ids.
const (
	secType     = 1
	secFunction = 3
	secMemory   = 5
	secExport   = 7
	secCode     = 10
)

// Export kinds.
const (
	kindFunc   = 0x00
	kindMemory = 0x02
)

// I32 is the i32 value type byte.
const I32 = 0x7F

// Sig is a function signature as raw value type bytes.
type Sig struct {
	Params  []byte
	Results []byte
}

// Common signatures.
var (
	SigTwoI32 = Sig{Params: []byte{I32, I32}, Results: []byte{I32}}
	SigOneI32 = Sig{Params: []byte{I32}, Results: []byte{I32}}
	SigNoArgs = Sig{Results: []byte{I32}}
)

type funcDef struct {
	name string
	sig  Sig
	body []byte
}

// Builder accumulates exported functions and an optional memory, then
// serializes them as a complete wasm module.
type Builder struct {
	funcs     []funcDef
	memPages  uint32
	memName   string
	hasMemory bool
}

// NewBuilder returns an empty module builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithMemory declares a linear memory of pages 64 KiB pages, exported under
// name when name is non-empty.
func (b *Builder) WithMemory(pages uint32, name string) *Builder {
	b.hasMemory = true
	b.memPages = pages
	b.memName = name
	return b
}

// Export declares an exported function. Body parts are concatenated and the
// terminating end opcode is appended automatically.
func (b *Builder) Export(name string, sig Sig, body ...[]byte) *Builder {
	var code []byte
	for _, part := range body {
		code = append(code, part...)
	}
	code = append(code, opEnd)
	b.funcs = append(b.funcs, funcDef{name: name, sig: sig, body: code})
	return b
}

// Build serializes the module. Section sizes are computed, never hand-set.
func (b *Builder) Build() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	// Type section, deduplicating identical signatures.
	var types [][]byte
	typeIdx := make([]int, len(b.funcs))
	seen := make(map[string]int)
	for i, f := range b.funcs {
		enc := encodeFuncType(f.sig)
		idx, ok := seen[string(enc)]
		if !ok {
			idx = len(types)
			seen[string(enc)] = idx
			types = append(types, enc)
		}
		typeIdx[i] = idx
	}
	if len(types) > 0 {
		out = append(out, section(secType, vec(types))...)
	}

	// Function section: one type index per defined function.
	if len(b.funcs) > 0 {
		indices := make([][]byte, len(b.funcs))
		for i, ti := range typeIdx {
			indices[i] = uleb128(uint32(ti))
		}
		out = append(out, section(secFunction, vec(indices))...)
	}

	// Memory section: min-only limits.
	if b.hasMemory {
		mem := append([]byte{0x00}, uleb128(b.memPages)...)
		out = append(out, section(secMemory, vec([][]byte{mem}))...)
	}

	// Export section.
	var exports [][]byte
	for i, f := range b.funcs {
		entry := encodeName(f.name)
		entry = append(entry, kindFunc)
		entry = append(entry, uleb128(uint32(i))...)
		exports = append(exports, entry)
	}
	if b.hasMemory && b.memName != "" {
		entry := encodeName(b.memName)
		entry = append(entry, kindMemory)
		entry = append(entry, uleb128(0)...)
		exports = append(exports, entry)
	}
	if len(exports) > 0 {
		out = append(out, section(secExport, vec(exports))...)
	}

	// Code section: every body has zero locals.
	if len(b.funcs) > 0 {
		codes := make([][]byte, len(b.funcs))
		for i, f := range b.funcs {
			entry := append([]byte{0x00}, f.body...)
			codes[i] = append(uleb128(uint32(len(entry))), entry...)
		}
		out = append(out, section(secCode, vec(codes))...)
	}

	return out
}

func section(id byte, contents []byte) []byte {
	out := append([]byte{id}, uleb128(uint32(len(contents)))...)
	return append(out, contents...)
}

func vec(items [][]byte) []byte {
	out := uleb128(uint32(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func encodeName(s string) []byte {
	return append(uleb128(uint32(len(s))), s...)
}

func encodeFuncType(sig Sig) []byte {
	out := []byte{0x60}
	out = append(out, uleb128(uint32(len(sig.Params)))...)
	out = append(out, sig.Params...)
	out = append(out, uleb128(uint32(len(sig.Results)))...)
	out = append(out, sig.Results...)
	return out
}

// uleb128 encodes v as unsigned LEB128.
func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// sleb128 encodes v as signed LEB128.
func sleb128(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
