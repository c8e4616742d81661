package wasmbin

// Body assembles a straight-line function body instruction by
// instruction. The terminating end opcode is appended by Module.Encode.
type Body struct {
	w writer
}

// NewBody creates an empty function body.
func NewBody() *Body {
	return &Body{}
}

func (b *Body) instrs() []byte {
	return b.w.Bytes()
}

// LocalGet pushes local idx onto the stack.
func (b *Body) LocalGet(idx uint32) *Body {
	b.w.Byte(0x20)
	b.w.U32(idx)
	return b
}

// I32Const pushes a constant i32.
func (b *Body) I32Const(v int32) *Body {
	b.w.Byte(0x41)
	b.w.S64(int64(v))
	return b
}

// I64Const pushes a constant i64.
func (b *Body) I64Const(v int64) *Body {
	b.w.Byte(0x42)
	b.w.S64(v)
	return b
}

// I32Add pops two i32 values and pushes their sum.
func (b *Body) I32Add() *Body {
	b.w.Byte(0x6a)
	return b
}

// Call invokes the function at funcIdx.
func (b *Body) Call(funcIdx uint32) *Body {
	b.w.Byte(0x10)
	b.w.U32(funcIdx)
	return b
}

// Drop discards the top of the stack.
func (b *Body) Drop() *Body {
	b.w.Byte(0x1a)
	return b
}

// I32Load reads an i32 from memory at the popped address plus offset.
func (b *Body) I32Load(offset uint32) *Body {
	b.w.Byte(0x28)
	b.w.U32(2) // alignment hint
	b.w.U32(offset)
	return b
}

// I32Store writes the popped i32 to memory at the popped address plus offset.
func (b *Body) I32Store(offset uint32) *Body {
	b.w.Byte(0x36)
	b.w.U32(2)
	b.w.U32(offset)
	return b
}

// MemorySize pushes the current memory size in pages.
func (b *Body) MemorySize() *Body {
	b.w.Byte(0x3f)
	b.w.Byte(0x00)
	return b
}

// MemoryGrow pops a page delta, grows memory, and pushes the previous
// size in pages (or -1 on failure).
func (b *Body) MemoryGrow() *Body {
	b.w.Byte(0x40)
	b.w.Byte(0x00)
	return b
}
