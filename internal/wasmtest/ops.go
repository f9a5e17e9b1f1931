package wasmtest

// Opcodes used by the canned modules.
const (
	opUnreachable = 0x00
	opLoop        = 0x03
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0B
	opBr          = 0x0C
	opReturn      = 0x0F
	opDrop        = 0x1A
	opSelect      = 0x1B
	opLocalGet    = 0x20
	opI32Load     = 0x28
	opI32Load8U   = 0x2D
	opI32Const    = 0x41
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32Ne       = 0x47
	opI32LtS      = 0x48
	opI32GtS      = 0x4A
	opI32LeS      = 0x4C
	opI32GeS      = 0x4E
	opI32Add      = 0x6A
	opI32Sub      = 0x6B
	opI32Mul      = 0x6C
	opI32DivS     = 0x6D
	opI32And      = 0x71
	opI32Or       = 0x72
)

// BlockEmpty is the empty block type for structured instructions.
const BlockEmpty = 0x40

// LocalGet pushes local idx.
func LocalGet(idx uint32) []byte {
	return append([]byte{opLocalGet}, uleb128(idx)...)
}

// I32Const pushes a constant.
func I32Const(v int32) []byte {
	return append([]byte{opI32Const}, sleb128(v)...)
}

// I32Load loads a 32-bit value at the popped address plus offset.
func I32Load(offset uint32) []byte {
	out := []byte{opI32Load, 0x02} // natural alignment hint
	return append(out, uleb128(offset)...)
}

// I32Load8U loads one byte, zero-extended, at the popped address plus offset.
func I32Load8U(offset uint32) []byte {
	out := []byte{opI32Load8U, 0x00}
	return append(out, uleb128(offset)...)
}

func I32Add() []byte  { return []byte{opI32Add} }
func I32Sub() []byte  { return []byte{opI32Sub} }
func I32Mul() []byte  { return []byte{opI32Mul} }
func I32DivS() []byte { return []byte{opI32DivS} }
func I32Eqz() []byte  { return []byte{opI32Eqz} }
func I32Eq() []byte   { return []byte{opI32Eq} }
func I32Ne() []byte   { return []byte{opI32Ne} }
func I32LtS() []byte  { return []byte{opI32LtS} }
func I32GtS() []byte  { return []byte{opI32GtS} }
func I32LeS() []byte  { return []byte{opI32LeS} }
func I32GeS() []byte  { return []byte{opI32GeS} }
func I32And() []byte  { return []byte{opI32And} }
func I32Or() []byte   { return []byte{opI32Or} }
func Select() []byte  { return []byte{opSelect} }
func Drop() []byte    { return []byte{opDrop} }
func Return() []byte  { return []byte{opReturn} }

func Unreachable() []byte { return []byte{opUnreachable} }

// If opens a conditional block of the given block type.
func If(blockType byte) []byte { return []byte{opIf, blockType} }

// Loop opens a loop block of the given block type.
func Loop(blockType byte) []byte { return []byte{opLoop, blockType} }

// Br branches to the label at the given relative depth.
func Br(depth uint32) []byte {
	return append([]byte{opBr}, uleb128(depth)...)
}

// Else separates the branches of an If block.
func Else() []byte { return []byte{opElse} }

// End closes a structured block.
func End() []byte { return []byte{opEnd} }
