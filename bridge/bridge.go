package bridge

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/handle"
)

// Bridge owns the guest runtime and the import table. One Bridge can load
// several modules and run several instances; each instance gets its own
// handle table, since handles are only meaningful relative to the table
// that issued them.
type Bridge struct {
	runtime   wazero.Runtime
	imports   *ImportRegistry
	newTable  func() *handle.Table
	instances map[string]*Instance
	instMu    sync.RWMutex
	hostModMu sync.Mutex
	nameSeq   uint64
	seqMu     sync.Mutex
}

type config struct {
	memoryLimitPages uint32
	newTable         func() *handle.Table
}

// Option configures a Bridge.
type Option func(*config)

// WithMemoryLimitPages caps guest memory per instance in 64 KiB pages.
// The demo convention of 32 pages yields 2 MiB.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = pages
	}
}

// WithTableFactory overrides how per-instance handle tables are created,
// e.g. to attach observers before any handle is issued. Each call must
// return a fresh table; tables are never shared between instances.
func WithTableFactory(f func() *handle.Table) Option {
	return func(c *config) {
		c.newTable = f
	}
}

// New creates a bridge backed by a wazero runtime.
func New(ctx context.Context, opts ...Option) (*Bridge, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.memoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	if cfg.newTable == nil {
		cfg.newTable = handle.NewTable
	}

	return &Bridge{
		runtime:   wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		imports:   NewImportRegistry(),
		newTable:  cfg.newTable,
		instances: make(map[string]*Instance),
	}, nil
}

// Imports returns the bridge's import registry. All imports must be
// registered BEFORE loading modules that use them.
func (b *Bridge) Imports() *ImportRegistry {
	return b.imports
}

// Load compiles a guest binary and checks its import set against the
// registry. Every function the guest imports must already be registered,
// with a matching numeric signature; anything unbound fails here, before
// any instantiation.
func (b *Bridge) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := b.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	var missing []string
	for _, def := range compiled.ImportedFunctions() {
		modName, name, ok := def.Import()
		if !ok {
			continue
		}
		params, results, found := b.imports.Lookup(modName, name)
		if !found {
			missing = append(missing, modName+"#"+name)
			continue
		}
		if !typesMatch(params, def.ParamTypes()) || !typesMatch(results, def.ResultTypes()) {
			_ = compiled.Close(ctx)
			return nil, errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
				Symbol(modName + "#" + name).
				Detail("guest import signature does not match registered host function").
				Build()
		}
	}
	if len(missing) > 0 {
		_ = compiled.Close(ctx)
		return nil, errors.NewMissingImportsError(missing)
	}

	Logger().Debug("module loaded",
		zap.Int("size", len(wasmBytes)),
		zap.Int("imports", len(compiled.ImportedFunctions())),
		zap.Int("exports", len(compiled.ExportedFunctions())))

	return &Module{
		bridge:   b,
		compiled: compiled,
	}, nil
}

// Close tears down the bridge: every live instance is closed, which
// releases all handles its table still holds.
func (b *Bridge) Close(ctx context.Context) error {
	b.instMu.RLock()
	instances := make([]*Instance, 0, len(b.instances))
	for _, inst := range b.instances {
		instances = append(instances, inst)
	}
	b.instMu.RUnlock()

	for _, inst := range instances {
		_ = inst.Close(ctx)
	}
	return b.runtime.Close(ctx)
}

func (b *Bridge) nextInstanceName() string {
	b.seqMu.Lock()
	defer b.seqMu.Unlock()
	b.nameSeq++
	return instanceName(b.nameSeq)
}

func (b *Bridge) registerInstance(inst *Instance) {
	b.instMu.Lock()
	b.instances[inst.name] = inst
	b.instMu.Unlock()
}

func (b *Bridge) dropInstance(name string) {
	b.instMu.Lock()
	delete(b.instances, name)
	b.instMu.Unlock()
}

func (b *Bridge) instanceFor(name string) *Instance {
	b.instMu.RLock()
	defer b.instMu.RUnlock()
	return b.instances[name]
}

func typesMatch(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
