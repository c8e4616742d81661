package bridge

import (
	"bytes"
	"context"
	"testing"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/guestmem"
	"github.com/wippyai/hostbridge/internal/wasmbin"
)

// buildMemoryModule synthesizes a guest with one page of memory (max 4)
// and a grow(i32) -> i32 export wrapping memory.grow.
func buildMemoryModule() []byte {
	m := wasmbin.NewModule()
	growType := m.AddType([]wasmbin.ValType{wasmbin.I32}, []wasmbin.ValType{wasmbin.I32})
	growIdx := m.AddFunc(growType, wasmbin.NewBody().LocalGet(0).MemoryGrow())
	m.SetMemory(1, 4)
	m.ExportFunc("grow", growIdx)
	m.ExportMemory("memory")
	return m.Encode()
}

func memoryInstance(t *testing.T) (*Bridge, *Instance) {
	t.Helper()
	ctx := context.Background()
	b, err := New(ctx)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	mod, err := b.Load(ctx, buildMemoryModule())
	if err != nil {
		b.Close(ctx)
		t.Fatalf("Load failed: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		b.Close(ctx)
		t.Fatalf("Instantiate failed: %v", err)
	}
	return b, inst
}

func TestView_Bounds(t *testing.T) {
	b, inst := memoryInstance(t)
	defer b.Close(context.Background())

	v := inst.Memory()
	if v.Size() != 65536 {
		t.Fatalf("Size = %d, want 65536", v.Size())
	}

	if _, err := v.Read(65536, 0); err != nil {
		t.Fatalf("Read at end with zero length failed: %v", err)
	}
	if _, err := v.Read(0, 65536); err != nil {
		t.Fatalf("full-region read failed: %v", err)
	}
	if _, err := v.Read(65535, 2); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("read past end = %v, want out_of_bounds", err)
	}
	if _, err := v.ReadString(65530, 10); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("ReadString(65530, 10) = %v, want out_of_bounds", err)
	}
	if err := v.Write(65530, make([]byte, 10)); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("write past end = %v, want out_of_bounds", err)
	}
}

func TestView_WriteReadRoundTrip(t *testing.T) {
	b, inst := memoryInstance(t)
	ctx := context.Background()
	defer b.Close(ctx)

	// Grow strictly before the write; the round trip must be unaffected.
	results, err := inst.Call(ctx, "grow", 1)
	if err != nil {
		t.Fatalf("grow failed: %v", err)
	}
	if uint32(results[0]) != 1 {
		t.Fatalf("grow returned previous size %d pages, want 1", results[0])
	}

	// A fresh view sees the grown region.
	v := inst.Memory()
	if v.Size() != 2*65536 {
		t.Fatalf("Size after grow = %d, want %d", v.Size(), 2*65536)
	}

	payload := []byte("scratch \x00\xff data")
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

func TestView_UTF8(t *testing.T) {
	b, inst := memoryInstance(t)
	defer b.Close(context.Background())

	v := inst.Memory()
	if err := v.Write(64, []byte("grüße")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	s, err := v.ReadString(64, uint32(len("grüße")))
	if err != nil {
		t.Fatalf("ReadString failed: %v", err)
	}
	if s != "grüße" {
		t.Fatalf("got %q", s)
	}

	if err := v.Write(128, []byte{0x80, 0x80}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := v.ReadString(128, 2); !isKind(err, errors.KindInvalidUTF8) {
		t.Fatalf("malformed bytes = %v, want invalid_utf8", err)
	}
}

func TestView_TypedAccess(t *testing.T) {
	b, inst := memoryInstance(t)
	defer b.Close(context.Background())

	v := inst.Memory()
	if err := v.WriteU32(8, 0xCAFEBABE); err != nil {
		t.Fatalf("WriteU32 failed: %v", err)
	}
	n, err := v.ReadU32(8)
	if err != nil {
		t.Fatalf("ReadU32 failed: %v", err)
	}
	if n != 0xCAFEBABE {
		t.Fatalf("ReadU32 = %#x", n)
	}

	if err := v.WriteF64(16, 3.5); err != nil {
		t.Fatalf("WriteF64 failed: %v", err)
	}
	f, err := v.ReadF64(16)
	if err != nil {
		t.Fatalf("ReadF64 failed: %v", err)
	}
	if f != 3.5 {
		t.Fatalf("ReadF64 = %v", f)
	}

	if _, err := v.ReadU64(65535); !isKind(err, errors.KindOutOfBounds) {
		t.Fatalf("ReadU64 near end = %v, want out_of_bounds", err)
	}
}

func TestView_SpanFromImportHandler(t *testing.T) {
	ctx := context.Background()
	b, _ := New(ctx)
	defer b.Close(ctx)

	var got string
	err := b.Imports().Register("env", "log",
		func(call *CallContext, stack []uint64) {
			span := guestmem.SpanFrom(stack[0], stack[1])
			s, err := span.String(call.Memory())
			if err != nil {
				t.Errorf("span read failed: %v", err)
				return
			}
			got = s
		},
		Params(I32, I32), Results())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	mod, err := b.Load(ctx, buildLogModule("pointer-length pair"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	if _, err := inst.Call(ctx, "run"); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if got != "pointer-length pair" {
		t.Fatalf("got %q", got)
	}
}

func TestMemoryLimit(t *testing.T) {
	ctx := context.Background()
	b, err := New(ctx, WithMemoryLimitPages(2))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer b.Close(ctx)

	mod, err := b.Load(ctx, buildMemoryModule())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	defer inst.Close(ctx)

	// Growing beyond the runtime limit reports -1 to the guest.
	results, err := inst.Call(ctx, "grow", 3)
	if err != nil {
		t.Fatalf("grow failed: %v", err)
	}
	if int32(results[0]) != -1 {
		t.Fatalf("grow past limit = %d, want -1", int32(results[0]))
	}
}
