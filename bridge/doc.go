// Package bridge dispatches calls between a WebAssembly guest and host
// functions across a numeric-only boundary.
//
// Imports (host functions callable from the guest) are registered under a
// module namespace and symbolic name with a fixed signature over
// i32/i64/f32/f64. Binding is checked at load time: a guest import with
// no registered host function fails Load with MissingImportsError, and a
// signature mismatch fails with type_mismatch. Neither surfaces as a
// runtime fault.
//
//	b, _ := bridge.New(ctx, bridge.WithMemoryLimitPages(32))
//	b.Imports().Register("env", "object_new",
//	    func(call *bridge.CallContext, stack []uint64) {
//	        h, _ := call.Handles().Allocate(newObject())
//	        stack[0] = uint64(h)
//	    }, bridge.Params(), bridge.Results(bridge.I32))
//
// Exports (guest functions callable from the host) are invoked through
// Instance.Call with raw numeric arguments; the argument count is checked
// against the export's signature before dispatch.
//
// Import handlers receive a CallContext with the calling instance's
// handle table and a memory view scoped to the current call. Views must
// not be cached across calls: guest memory growth may relocate the
// backing storage.
//
// The boundary is synchronous and non-reentrant. While a call is in
// flight, a nested call into the same instance is rejected with
// reentrant_call. Cancellation and timeouts are out of scope; a
// long-running call runs to completion.
package bridge
