package bridge

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
)

func instanceName(seq uint64) string {
	return fmt.Sprintf("guest-%d", seq)
}

// Module is a compiled guest binary whose import set has been verified
// against the registry. It can be instantiated multiple times; instances
// are independent and never share handle tables.
type Module struct {
	bridge   *Bridge
	compiled wazero.CompiledModule
}

// ExportedFunctions returns the guest's externally visible functions.
func (m *Module) ExportedFunctions() map[string]api.FunctionDefinition {
	return m.compiled.ExportedFunctions()
}

// Instantiate creates a running instance with its own linear memory and
// handle table. No guest code executes during instantiation: start
// functions are suppressed, so the first guest code runs on the first
// explicit Call.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	// Host modules are bound per namespace on first use.
	for _, mod := range m.bridge.imports.Modules() {
		if err := m.bridge.ensureHostModule(ctx, mod); err != nil {
			return nil, err
		}
	}

	name := m.bridge.nextInstanceName()
	inst := &Instance{
		bridge:  m.bridge,
		name:    name,
		handles: m.bridge.newTable(),
	}

	// Registered before instantiation so import handlers can resolve the
	// calling module back to this instance.
	m.bridge.registerInstance(inst)

	modConfig := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions()

	mod, err := m.bridge.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		m.bridge.dropInstance(name)
		_ = inst.handles.Close()
		return nil, errors.Instantiation(err)
	}
	inst.mod = mod

	Logger().Debug("instance created", zap.String("instance", name))
	return inst, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
