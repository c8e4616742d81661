package bridge

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/guestmem"
	"github.com/wippyai/hostbridge/handle"
)

// Instance is a running guest with its own linear memory and handle table.
//
// The call model is single-threaded and synchronous: a Call blocks until
// the guest returns, and a host import handler executing on behalf of a
// guest call must not trigger another call into the same instance. Nested
// calls are rejected with reentrant_call rather than corrupting guest
// state.
type Instance struct {
	bridge  *Bridge
	mod     api.Module
	handles *handle.Table
	name    string
	busy    atomic.Bool
	closed  atomic.Bool
}

// Name returns the instance's unique name within its bridge.
func (i *Instance) Name() string {
	return i.name
}

// Call invokes an exported guest function. Arguments and results are raw
// stack words holding i32/i64/f32/f64 values; composite data crosses only
// via handles or pointer-length pairs.
//
// The argument count is checked against the export's signature before
// dispatch; a mismatch is a caller contract violation reported as
// arity_mismatch, and the guest never runs.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	if i.closed.Load() {
		return nil, errors.Closed(errors.PhaseDispatch, "instance")
	}

	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseDispatch, "export", name)
	}

	if want := len(fn.Definition().ParamTypes()); want != len(args) {
		return nil, errors.ArityMismatch(name, want, len(args))
	}

	if !i.busy.CompareAndSwap(false, true) {
		return nil, errors.ReentrantCall(name)
	}
	defer i.busy.Store(false)

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseDispatch, errors.KindTrap, err, "call "+name)
	}
	return results, nil
}

// Memory acquires a fresh view of the guest's linear memory. The view is
// only valid until the next call that can grow guest memory; acquire a
// new one for every bridge call rather than caching.
func (i *Instance) Memory() *guestmem.View {
	return guestmem.NewView(i.mod.Memory())
}

// Handles returns this instance's handle table.
func (i *Instance) Handles() *handle.Table {
	return i.handles
}

// ExportedFunctionDefinitions describes the guest's exports by name.
func (i *Instance) ExportedFunctionDefinitions() map[string]api.FunctionDefinition {
	return i.mod.ExportedFunctionDefinitions()
}

// Close tears down the instance and releases every handle its table
// still holds.
func (i *Instance) Close(ctx context.Context) error {
	if !i.closed.CompareAndSwap(false, true) {
		return nil
	}
	i.bridge.dropInstance(i.name)
	_ = i.handles.Close()
	return i.mod.Close(ctx)
}

// CallContext carries the per-call state an import handler may touch: the
// calling instance's handle table and a memory view scoped to this call.
type CallContext struct {
	ctx  context.Context
	inst *Instance
	mod  api.Module
}

// Context returns the context of the in-flight guest call.
func (c *CallContext) Context() context.Context {
	return c.ctx
}

// Memory returns a view of the calling guest's linear memory, valid only
// for the duration of this call.
func (c *CallContext) Memory() *guestmem.View {
	return guestmem.NewView(c.mod.Memory())
}

// Handles returns the calling instance's handle table.
func (c *CallContext) Handles() *handle.Table {
	if c.inst == nil {
		return nil
	}
	return c.inst.handles
}

// Instance returns the calling instance. A handler that tries to Call
// back into it gets reentrant_call, preserving the synchronous
// call/response model.
func (c *CallContext) Instance() *Instance {
	return c.inst
}
