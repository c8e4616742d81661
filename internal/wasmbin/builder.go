// Package wasmbin synthesizes minimal WebAssembly core modules directly
// in the binary format, so tests and examples can produce guest binaries
// without a build toolchain. Only the constructs the bridge exercises are
// supported: numeric function types, function imports, a single memory,
// exports, data segments, and straight-line function bodies.
package wasmbin

// ValType is a WebAssembly value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

const (
	magic   = 0x6d736100 // "\0asm"
	version = 1
)

// Section ids.
const (
	secType   = 1
	secImport = 2
	secFunc   = 3
	secMemory = 5
	secExport = 7
	secCode   = 10
	secData   = 11
)

// Export kinds.
const (
	kindFunc   = 0x00
	kindMemory = 0x02
)

type funcType struct {
	params  []ValType
	results []ValType
}

type funcImport struct {
	module  string
	name    string
	typeIdx uint32
}

type funcEntry struct {
	typeIdx uint32
	body    *Body
}

type memType struct {
	min    uint32
	max    uint32
	hasMax bool
}

type exportEntry struct {
	name string
	kind byte
	idx  uint32
}

type dataSeg struct {
	offset uint32
	bytes  []byte
}

// Module accumulates sections and encodes them in the order the binary
// format requires. Function indices count imports first, then local
// functions, matching the WebAssembly index space.
type Module struct {
	types   []funcType
	imports []funcImport
	funcs   []funcEntry
	mem     *memType
	exports []exportEntry
	data    []dataSeg
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// AddType registers a function type and returns its index. Identical
// types are deduplicated.
func (m *Module) AddType(params, results []ValType) uint32 {
	for i, t := range m.types {
		if typesEqual(t.params, params) && typesEqual(t.results, results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

func typesEqual(a, b []ValType) bool {
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

// ImportFunc declares a function import and returns its function index.
// All imports must be declared before AddFunc calls, since imported
// functions occupy the front of the index space.
func (m *Module) ImportFunc(module, name string, typeIdx uint32) uint32 {
	m.imports = append(m.imports, funcImport{module: module, name: name, typeIdx: typeIdx})
	return uint32(len(m.imports) - 1)
}

// AddFunc declares a local function with the given body and returns its
// function index.
func (m *Module) AddFunc(typeIdx uint32, body *Body) uint32 {
	m.funcs = append(m.funcs, funcEntry{typeIdx: typeIdx, body: body})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// SetMemory declares the module's linear memory in 64 KiB pages.
// maxPages of 0 leaves the memory unbounded.
func (m *Module) SetMemory(minPages, maxPages uint32) {
	m.mem = &memType{min: minPages, max: maxPages, hasMax: maxPages > 0}
}

// ExportFunc marks a function as externally visible under name.
func (m *Module) ExportFunc(name string, funcIdx uint32) {
	m.exports = append(m.exports, exportEntry{name: name, kind: kindFunc, idx: funcIdx})
}

// ExportMemory marks the module memory as externally visible under name.
func (m *Module) ExportMemory(name string) {
	m.exports = append(m.exports, exportEntry{name: name, kind: kindMemory, idx: 0})
}

// AddData places bytes at a fixed offset in linear memory at instantiation.
func (m *Module) AddData(offset uint32, data []byte) {
	m.data = append(m.data, dataSeg{offset: offset, bytes: data})
}

// Encode produces the module in WebAssembly binary format.
func (m *Module) Encode() []byte {
	w := &writer{}
	w.U32LE(magic)
	w.U32LE(version)

	if len(m.types) > 0 {
		sec := &writer{}
		sec.U32(uint32(len(m.types)))
		for _, t := range m.types {
			sec.Byte(0x60)
			sec.U32(uint32(len(t.params)))
			for _, p := range t.params {
				sec.Byte(byte(p))
			}
			sec.U32(uint32(len(t.results)))
			for _, r := range t.results {
				sec.Byte(byte(r))
			}
		}
		w.section(secType, sec.Bytes())
	}

	if len(m.imports) > 0 {
		sec := &writer{}
		sec.U32(uint32(len(m.imports)))
		for _, imp := range m.imports {
			sec.Name(imp.module)
			sec.Name(imp.name)
			sec.Byte(kindFunc)
			sec.U32(imp.typeIdx)
		}
		w.section(secImport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.U32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			sec.U32(f.typeIdx)
		}
		w.section(secFunc, sec.Bytes())
	}

	if m.mem != nil {
		sec := &writer{}
		sec.U32(1)
		if m.mem.hasMax {
			sec.Byte(0x01)
			sec.U32(m.mem.min)
			sec.U32(m.mem.max)
		} else {
			sec.Byte(0x00)
			sec.U32(m.mem.min)
		}
		w.section(secMemory, sec.Bytes())
	}

	if len(m.exports) > 0 {
		sec := &writer{}
		sec.U32(uint32(len(m.exports)))
		for _, e := range m.exports {
			sec.Name(e.name)
			sec.Byte(e.kind)
			sec.U32(e.idx)
		}
		w.section(secExport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.U32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			body := &writer{}
			body.U32(0) // no local declarations
			body.Raw(f.body.instrs())
			body.Byte(0x0b) // end
			sec.U32(uint32(len(body.Bytes())))
			sec.Raw(body.Bytes())
		}
		w.section(secCode, sec.Bytes())
	}

	if len(m.data) > 0 {
		sec := &writer{}
		sec.U32(uint32(len(m.data)))
		for _, d := range m.data {
			sec.Byte(0x00) // active segment, memory 0
			sec.Byte(0x41) // i32.const offset expr
			sec.S64(int64(int32(d.offset)))
			sec.Byte(0x0b)
			sec.U32(uint32(len(d.bytes)))
			sec.Raw(d.bytes)
		}
		w.section(secData, sec.Bytes())
	}

	return w.Bytes()
}
