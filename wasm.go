package hostbridge

// PageSize is the WebAssembly linear memory page granularity in bytes.
const PageSize = 65536

// Memory is a byte-addressable window into guest linear memory.
// Every access is bounds-checked against the current region size; offsets
// and lengths supplied by the guest are never trusted.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of guest linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates guest linear memory through a guest-exported
// allocation entry point. The bridge itself never allocates guest memory.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}
