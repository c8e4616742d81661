package guestmem

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wippyai/hostbridge/errors"
)

// PageSize is the linear memory page granularity in bytes.
const PageSize = 65536

// Region is a host-local growable linear memory, used by tests and by
// hosts that embed a guest without a wazero runtime. Only the region's
// owner grows it; growth may relocate the backing storage, so every
// previously acquired RegionView is invalidated by Grow.
type Region struct {
	data     []byte
	maxPages uint32
	gen      uint64
}

// NewRegion creates a linear memory region of the given size in 64 KiB pages.
// maxPages of 0 means unbounded growth.
func NewRegion(pages, maxPages uint32) *Region {
	return &Region{
		data:     make([]byte, int(pages)*PageSize),
		maxPages: maxPages,
	}
}

// Size returns the current region size in bytes.
func (r *Region) Size() uint32 {
	return uint32(len(r.data))
}

// Pages returns the current region size in pages.
func (r *Region) Pages() uint32 {
	return uint32(len(r.data) / PageSize)
}

// Grow extends the region by delta pages and returns the previous size in
// pages. All outstanding views become stale and must be re-acquired.
func (r *Region) Grow(delta uint32) (uint32, error) {
	prev := r.Pages()
	if delta == 0 {
		return prev, nil
	}
	next := uint64(prev) + uint64(delta)
	if r.maxPages > 0 && next > uint64(r.maxPages) {
		return 0, errors.New(errors.PhaseMemory, errors.KindInvalidInput).
			Detail("grow to %d pages exceeds limit of %d", next, r.maxPages).
			Build()
	}
	if next > math.MaxUint32/PageSize {
		return 0, errors.New(errors.PhaseMemory, errors.KindInvalidInput).
			Detail("grow to %d pages overflows the 32-bit address space", next).
			Build()
	}

	grown := make([]byte, int(next)*PageSize)
	copy(grown, r.data)
	r.data = grown
	r.gen++
	return prev, nil
}

// View acquires a raw view of the region. The view is valid until the
// next Grow; stale accesses fail with stale_view instead of touching
// relocated memory.
func (r *Region) View() *RegionView {
	return &RegionView{region: r, gen: r.gen}
}

// RegionView is a bounds-checked window over a Region, pinned to the
// region's state at acquisition time.
type RegionView struct {
	region *Region
	gen    uint64
}

// Size returns the region size in bytes as of the last valid access.
func (v *RegionView) Size() uint32 {
	return v.region.Size()
}

// span bounds-checks offset+length with overflow-safe arithmetic and
// returns the backing slice for the range.
func (v *RegionView) span(offset, length uint32) ([]byte, error) {
	if v.gen != v.region.gen {
		return nil, errors.StaleView()
	}
	if uint64(offset)+uint64(length) > uint64(len(v.region.data)) {
		return nil, errors.OutOfBounds(offset, length, v.region.Size())
	}
	return v.region.data[offset : offset+length], nil
}

// Read copies length bytes starting at offset out of the region.
func (v *RegionView) Read(offset, length uint32) ([]byte, error) {
	src, err := v.span(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// ReadString reads length bytes at offset and decodes them as UTF-8.
func (v *RegionView) ReadString(offset, length uint32) (string, error) {
	src, err := v.span(offset, length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(src) {
		return "", errors.InvalidUTF8(offset, src)
	}
	return string(src), nil
}

// Write copies data into the region at offset.
func (v *RegionView) Write(offset uint32, data []byte) error {
	dst, err := v.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (v *RegionView) ReadU8(offset uint32) (uint8, error) {
	src, err := v.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return src[0], nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (v *RegionView) ReadU16(offset uint32) (uint16, error) {
	src, err := v.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(src), nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (v *RegionView) ReadU32(offset uint32) (uint32, error) {
	src, err := v.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(src), nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (v *RegionView) ReadU64(offset uint32) (uint64, error) {
	src, err := v.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(src), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (v *RegionView) WriteU8(offset uint32, value uint8) error {
	dst, err := v.span(offset, 1)
	if err != nil {
		return err
	}
	dst[0] = value
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (v *RegionView) WriteU16(offset uint32, value uint16) error {
	dst, err := v.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(dst, value)
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (v *RegionView) WriteU32(offset uint32, value uint32) error {
	dst, err := v.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, value)
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (v *RegionView) WriteU64(offset uint32, value uint64) error {
	dst, err := v.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(dst, value)
	return nil
}
