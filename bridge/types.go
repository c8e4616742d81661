package bridge

import "github.com/tetratelabs/wazero/api"

// ValueType identifies one of the fixed-width numeric types that may
// cross the guest/host boundary. No other type crosses without going
// through a handle or a pointer-length pair.
type ValueType = api.ValueType

const (
	I32 ValueType = api.ValueTypeI32
	I64 ValueType = api.ValueTypeI64
	F32 ValueType = api.ValueTypeF32
	F64 ValueType = api.ValueTypeF64
)

// Params builds the parameter type list for Register.
func Params(ts ...ValueType) []ValueType { return ts }

// Results builds the result type list for Register.
func Results(ts ...ValueType) []ValueType { return ts }

// EncodeF32 returns the raw stack representation of a float32.
func EncodeF32(v float32) uint64 { return api.EncodeF32(v) }

// DecodeF32 interprets a raw stack value as a float32.
func DecodeF32(raw uint64) float32 { return api.DecodeF32(raw) }

// EncodeF64 returns the raw stack representation of a float64.
func EncodeF64(v float64) uint64 { return api.EncodeF64(v) }

// DecodeF64 interprets a raw stack value as a float64.
func DecodeF64(raw uint64) float64 { return api.DecodeF64(raw) }

func numericOnly(ts []ValueType) bool {
	for _, t := range ts {
		switch t {
		case I32, I64, F32, F64:
		default:
			return false
		}
	}
	return true
}
