package guestmem

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/wippyai/hostbridge/errors"
)

func isKind(err error, kind errors.Kind) bool {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

func TestRegion_ReadBounds(t *testing.T) {
	r := NewRegion(1, 0) // one 64 KiB page
	v := r.View()

	tests := []struct {
		name    string
		offset  uint32
		length  uint32
		wantErr bool
	}{
		{"start", 0, 16, false},
		{"full region", 0, 65536, false},
		{"end with zero length", 65536, 0, false},
		{"zero length inside", 1000, 0, false},
		{"last byte", 65535, 1, false},
		{"one past end", 65535, 2, true},
		{"offset past end", 65537, 0, true},
		{"string near end", 65530, 10, true},
		{"huge length", 0, 1 << 31, true},
		{"overflowing sum", 1 << 31, 1 << 31, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Read(tt.offset, tt.length)
			if tt.wantErr {
				if !isKind(err, errors.KindOutOfBounds) {
					t.Fatalf("Read(%d, %d) = %v, want out_of_bounds", tt.offset, tt.length, err)
				}
			} else if err != nil {
				t.Fatalf("Read(%d, %d) failed: %v", tt.offset, tt.length, err)
			}
		})
	}
}

func TestRegion_WriteReadRoundTrip(t *testing.T) {
	r := NewRegion(1, 4)

	// Growth strictly before the write must not affect the round trip.
	if _, err := r.Grow(1); err != nil {
		t.Fatalf("Grow failed: %v", err)
	}

	v := r.View()
	payload := []byte("handle table scratch data \x00\x01\x02")
	const offset = 70000 // inside the second page

	if err := v.Write(offset, payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := v.Read(offset, uint32(len(payload)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %x, want %x", got, payload)
	}
}

func TestRegion_GrowInvalidatesViews(t *testing.T) {
	r := NewRegion(1, 0)
	v := r.View()

	if err := v.WriteU32(0, 42); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}

	prev, err := r.Grow(1)
	if err != nil {
		t.Fatalf("Grow failed: %v", err)
	}
	if prev != 1 {
		t.Fatalf("Grow returned previous size %d pages, want 1", prev)
	}

	if _, err := v.ReadU32(0); !isKind(err, errors.KindStaleView) {
		t.Fatalf("stale view access = %v, want stale_view", err)
	}
	if err := v.Write(0, []byte{1}); !isKind(err, errors.KindStaleView) {
		t.Fatalf("stale view write = %v, want stale_view", err)
	}

	// Re-acquired view sees the grown region and the old contents.
	v2 := r.View()
	if v2.Size() != 2*PageSize {
		t.Fatalf("Size = %d, want %d", v2.Size(), 2*PageSize)
	}
	n, err := v2.ReadU32(0)
	if err != nil {
		t.Fatalf("ReadU32 after re-acquire failed: %v", err)
	}
	if n != 42 {
		t.Fatalf("contents lost across growth: got %d, want 42", n)
	}
}

func TestRegion_GrowZeroDeltaKeepsViews(t *testing.T) {
	r := NewRegion(1, 0)
	v := r.View()

	if _, err := r.Grow(0); err != nil {
		t.Fatalf("Grow(0) failed: %v", err)
	}
	if _, err := v.Read(0, 1); err != nil {
		t.Fatalf("view should survive zero-delta grow: %v", err)
	}
}

func TestRegion_GrowLimit(t *testing.T) {
	r := NewRegion(1, 2)

	if _, err := r.Grow(1); err != nil {
		t.Fatalf("Grow within limit failed: %v", err)
	}
	if _, err := r.Grow(1); err == nil {
		t.Fatal("Grow past maxPages should fail")
	}
	if r.Pages() != 2 {
		t.Fatalf("failed grow must not change size: %d pages", r.Pages())
	}
}

func TestRegionView_ReadString(t *testing.T) {
	r := NewRegion(1, 0)
	v := r.View()

	if err := v.Write(128, []byte("héllo wörld")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	s, err := v.ReadString(128, uint32(len("héllo wörld")))
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if s != "héllo wörld" {
		t.Fatalf("got %q", s)
	}

	// Truncating mid-rune must be reported, not replaced.
	if _, err := v.ReadString(128, 2); !isKind(err, errors.KindInvalidUTF8) {
		t.Fatalf("truncated rune = %v, want invalid_utf8", err)
	}

	if err := v.Write(256, []byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := v.ReadString(256, 3); !isKind(err, errors.KindInvalidUTF8) {
		t.Fatalf("garbage bytes = %v, want invalid_utf8", err)
	}

	// The page-boundary case from the protocol contract.
	if _, err := v.ReadString(65530, 10); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("ReadString(65530, 10) = %v, want out_of_bounds", err)
	}
}

func TestRegionView_TypedAccess(t *testing.T) {
	r := NewRegion(1, 0)
	v := r.View()

	if err := v.WriteU8(0, 0xAB); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteU16(2, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteU32(4, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteU64(8, 0x0123456789ABCDEF); err != nil {
		t.Fatal(err)
	}

	if b, _ := v.ReadU8(0); b != 0xAB {
		t.Fatalf("ReadU8 = %#x", b)
	}
	if n, _ := v.ReadU16(2); n != 0xBEEF {
		t.Fatalf("ReadU16 = %#x", n)
	}
	if n, _ := v.ReadU32(4); n != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %#x", n)
	}
	if n, _ := v.ReadU64(8); n != 0x0123456789ABCDEF {
		t.Fatalf("ReadU64 = %#x", n)
	}

	// Little-endian wire layout.
	raw, err := v.Read(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0xEF, 0xBE, 0xAD, 0xDE}) {
		t.Fatalf("layout = %x, want little-endian", raw)
	}

	// Typed access at the boundary.
	if _, err := v.ReadU64(65529); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("ReadU64 crossing end = %v, want out_of_bounds", err)
	}
	if _, err := v.ReadU64(65528); err != nil {
		t.Fatalf("ReadU64 at last aligned slot failed: %v", err)
	}
}

func TestSpan(t *testing.T) {
	r := NewRegion(1, 0)
	v := r.View()

	if err := v.Write(512, []byte("span payload")); err != nil {
		t.Fatal(err)
	}

	s := SpanFrom(512, uint64(len("span payload")))
	got, err := s.Bytes(v)
	if err != nil {
		t.Fatalf("Span.Bytes failed: %v", err)
	}
	if string(got) != "span payload" {
		t.Fatalf("got %q", got)
	}

	text, err := s.String(v)
	if err != nil {
		t.Fatalf("Span.String failed: %v", err)
	}
	if text != "span payload" {
		t.Fatalf("got %q", text)
	}

	bad := Span{Ptr: 65530, Len: 10}
	if _, err := bad.Bytes(v); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("out-of-range span = %v, want out_of_bounds", err)
	}
}
