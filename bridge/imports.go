package bridge

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
)

// HostFunc is an import handler. It receives the per-call context and the
// shared value stack: stack[i] holds argument i on entry, and the handler
// writes its results into stack[0..] before returning.
//
// Handlers that must report failure to the guest numerically should
// return 0, the reserved null/failure sentinel (live handles start at 1).
type HostFunc func(call *CallContext, stack []uint64)

type importEntry struct {
	fn      HostFunc
	params  []ValueType
	results []ValueType
}

// ImportRegistry holds the host functions callable from the guest,
// keyed by module namespace and symbolic name. The full import set must
// be registered before any guest module is loaded; a guest import with no
// binding fails at load, not at call time.
type ImportRegistry struct {
	funcs map[string]map[string]*importEntry
	mu    sync.RWMutex
}

func NewImportRegistry() *ImportRegistry {
	return &ImportRegistry{
		funcs: make(map[string]map[string]*importEntry),
	}
}

// Register binds fn under module#name with a fixed numeric signature.
// Signatures are restricted to i32/i64/f32/f64.
func (r *ImportRegistry) Register(module, name string, fn HostFunc, params, results []ValueType) error {
	if module == "" {
		return errors.InvalidInput(errors.PhaseHost, "module namespace cannot be empty")
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	if fn == nil {
		return errors.InvalidInput(errors.PhaseHost, "handler cannot be nil")
	}
	if !numericOnly(params) || !numericOnly(results) {
		return errors.New(errors.PhaseHost, errors.KindTypeMismatch).
			Symbol(module + "#" + name).
			Detail("only fixed-width numeric types may cross the boundary").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[module] == nil {
		r.funcs[module] = make(map[string]*importEntry)
	}
	r.funcs[module][name] = &importEntry{
		fn:      fn,
		params:  params,
		results: results,
	}
	return nil
}

// Lookup returns the signature registered under module#name.
func (r *ImportRegistry) Lookup(module, name string) (params, results []ValueType, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.funcs[module][name]
	if !ok {
		return nil, nil, false
	}
	return entry.params, entry.results, true
}

// Modules returns the registered namespaces in sorted order.
func (r *ImportRegistry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// entries snapshots one namespace for host module construction.
func (r *ImportRegistry) entries(module string) map[string]*importEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*importEntry, len(r.funcs[module]))
	for name, e := range r.funcs[module] {
		out[name] = e
	}
	return out
}

// ensureHostModule instantiates the wazero host module for one namespace,
// binding every function registered under it. Idempotent per namespace.
func (b *Bridge) ensureHostModule(ctx context.Context, module string) error {
	b.hostModMu.Lock()
	defer b.hostModMu.Unlock()

	if b.runtime.Module(module) != nil {
		return nil
	}

	builder := b.runtime.NewHostModuleBuilder(module)
	for name, entry := range b.imports.entries(module) {
		handler := b.wrapHostFunc(entry.fn)
		builder.NewFunctionBuilder().
			WithGoModuleFunction(handler, entry.params, entry.results).
			Export(name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Wrap(errors.PhaseHost, errors.KindRegistration, err, "instantiate host module "+module)
	}

	Logger().Debug("host module bound", zap.String("module", module))
	return nil
}

// wrapHostFunc adapts a HostFunc to wazero's calling convention. The
// CallContext is rebuilt on every invocation so handlers always see a
// fresh memory view; caching a view across calls would dodge the
// growth-invalidation rule.
func (b *Bridge) wrapHostFunc(fn HostFunc) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		call := &CallContext{
			ctx:  ctx,
			inst: b.instanceFor(mod.Name()),
			mod:  mod,
		}
		fn(call, stack)
	}
}
