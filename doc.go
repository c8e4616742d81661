// Package hostbridge bridges a linear-memory WebAssembly guest and a Go
// host that cannot share pointers or object references directly.
//
// The guest operates on host-resident objects through small-integer
// handles, and the host reads and writes typed data and UTF-8 text living
// in the guest's flat memory. Everything that crosses the boundary is a
// fixed-width number: composite data travels through handles or through
// (offset, length) pairs into guest memory.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	hostbridge/          Root package with Memory and Allocator interfaces
//	├── bridge/          Import/export call dispatch over wazero
//	├── handle/          Foreign handle table (host object proxies)
//	├── guestmem/        Bounds-checked guest linear memory access
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Register host functions, load a guest module, and call an export:
//
//	b, err := bridge.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close(ctx)
//
//	b.Imports().Register("env", "object_new",
//	    func(call *bridge.CallContext, stack []uint64) {
//	        h, _ := call.Handles().Allocate(newObject())
//	        stack[0] = uint64(h)
//	    }, bridge.Params(), bridge.Results(bridge.I32))
//
//	mod, err := b.Load(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	results, err := inst.Call(ctx, "run", 1, 2)
//
// # Handles
//
// The guest address space cannot hold a host reference, so every
// cross-boundary object is indirected through a per-instance handle table.
// Handle 0 is reserved as the null sentinel and never issued. See package
// handle for lifecycle rules.
//
// # Guest Memory
//
// Guest memory views are transient: memory growth may relocate the backing
// storage, so a view must never outlive the single bridge call that
// acquired it. Import handlers receive a fresh view through CallContext on
// every call. See package guestmem.
package hostbridge
