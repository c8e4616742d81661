package guestmem

import (
	"unicode/utf8"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hostbridge/errors"
)

// View adapts wazero api.Memory to the bounds-checked access protocol.
//
// A View is transient: it must be acquired inside the bridge call that
// uses it and never cached across calls, since any call that grows guest
// memory may relocate the backing storage. Import handlers get a fresh
// View from their CallContext on every invocation.
type View struct {
	mem api.Memory
}

// NewView wraps a wazero memory. Returns nil if mem is nil (module
// without a memory section).
func NewView(mem api.Memory) *View {
	if mem == nil {
		return nil
	}
	return &View{mem: mem}
}

// Size returns the current region size in bytes.
func (v *View) Size() uint32 {
	return v.mem.Size()
}

// Read copies length bytes starting at offset out of guest memory.
// The bounds check runs before any copy; offset == size with length == 0
// is in bounds.
func (v *View) Read(offset, length uint32) ([]byte, error) {
	data, ok := v.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(offset, length, v.mem.Size())
	}
	// Copy out: the wazero slice aliases guest memory and would be
	// invalidated by growth.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ReadString reads length bytes at offset and decodes them as UTF-8.
// Malformed bytes are reported as invalid_utf8, never silently replaced.
func (v *View) ReadString(offset, length uint32) (string, error) {
	data, ok := v.mem.Read(offset, length)
	if !ok {
		return "", errors.OutOfBounds(offset, length, v.mem.Size())
	}
	if !utf8.Valid(data) {
		return "", errors.InvalidUTF8(offset, data)
	}
	return string(data), nil
}

// Write copies data into guest memory at offset. The target location must
// have been allocated by the guest and communicated to the host; the
// bridge never allocates guest memory on the guest's behalf.
func (v *View) Write(offset uint32, data []byte) error {
	if !v.mem.Write(offset, data) {
		return errors.OutOfBounds(offset, uint32(len(data)), v.mem.Size())
	}
	return nil
}

// WriteString writes the UTF-8 bytes of s at offset.
func (v *View) WriteString(offset uint32, s string) error {
	if !v.mem.WriteString(offset, s) {
		return errors.OutOfBounds(offset, uint32(len(s)), v.mem.Size())
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (v *View) ReadU8(offset uint32) (uint8, error) {
	b, ok := v.mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 1, v.mem.Size())
	}
	return b, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (v *View) ReadU16(offset uint32) (uint16, error) {
	n, ok := v.mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 2, v.mem.Size())
	}
	return n, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (v *View) ReadU32(offset uint32) (uint32, error) {
	n, ok := v.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 4, v.mem.Size())
	}
	return n, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (v *View) ReadU64(offset uint32) (uint64, error) {
	n, ok := v.mem.ReadUint64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 8, v.mem.Size())
	}
	return n, nil
}

// ReadF32 reads a 32-bit little-endian float.
func (v *View) ReadF32(offset uint32) (float32, error) {
	f, ok := v.mem.ReadFloat32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 4, v.mem.Size())
	}
	return f, nil
}

// ReadF64 reads a 64-bit little-endian float.
func (v *View) ReadF64(offset uint32) (float64, error) {
	f, ok := v.mem.ReadFloat64Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(offset, 8, v.mem.Size())
	}
	return f, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (v *View) WriteU8(offset uint32, value uint8) error {
	if !v.mem.WriteByte(offset, value) {
		return errors.OutOfBounds(offset, 1, v.mem.Size())
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (v *View) WriteU16(offset uint32, value uint16) error {
	if !v.mem.WriteUint16Le(offset, value) {
		return errors.OutOfBounds(offset, 2, v.mem.Size())
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (v *View) WriteU32(offset uint32, value uint32) error {
	if !v.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(offset, 4, v.mem.Size())
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (v *View) WriteU64(offset uint32, value uint64) error {
	if !v.mem.WriteUint64Le(offset, value) {
		return errors.OutOfBounds(offset, 8, v.mem.Size())
	}
	return nil
}

// WriteF32 writes a 32-bit little-endian float.
func (v *View) WriteF32(offset uint32, value float32) error {
	if !v.mem.WriteFloat32Le(offset, value) {
		return errors.OutOfBounds(offset, 4, v.mem.Size())
	}
	return nil
}

// WriteF64 writes a 64-bit little-endian float.
func (v *View) WriteF64(offset uint32, value float64) error {
	if !v.mem.WriteFloat64Le(offset, value) {
		return errors.OutOfBounds(offset, 8, v.mem.Size())
	}
	return nil
}
