package host

import (
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// unknownValueType is outside the domain enumeration, so any signature
// carrying it classifies as unrecognized.
const unknownValueType = entities.ValueType(0xFF)

// valueType maps a wazero value type to the domain representation.
// Reference and vector types have no mapping.
func valueType(t api.ValueType) entities.ValueType {
	switch t {
	case api.ValueTypeI32:
		return entities.I32
	case api.ValueTypeI64:
		return entities.I64
	case api.ValueTypeF32:
		return entities.F32
	case api.ValueTypeF64:
		return entities.F64
	default:
		return unknownValueType
	}
}

// signatureOf extracts the raw type signature from a compiled function
// definition.
func signatureOf(def api.FunctionDefinition) entities.Signature {
	params := def.ParamTypes()
	results := def.ResultTypes()
	sig := entities.Signature{
		Params:  make([]entities.ValueType, len(params)),
		Results: make([]entities.ValueType, len(results)),
	}
	for i, p := range params {
		sig.Params[i] = valueType(p)
	}
	for i, r := range results {
		sig.Results[i] = valueType(r)
	}
	return sig
}

// moduleConfig is the instantiation configuration shared by first load
// and reinstantiation: a named instance with no start functions, so no
// guest code runs before the first explicit call.
func moduleConfig(name string) wazero.ModuleConfig {
	return wazero.NewModuleConfig().WithName(name).WithStartFunctions()
}
