package entities

import "strings"

// ValueType is a WebAssembly core value type.
type ValueType uint8

const (
	I32 ValueType = iota
	I64
	F32
	F64
)

// String returns the conventional lowercase name of the value type.
func (v ValueType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

// Signature is the raw type signature of one exported function.
type Signature struct {
	Params  []ValueType `json:"params"`
	Results []ValueType `json:"results"`
}

// String renders the signature as "(i32, i32) -> i32". Result lists other
// than a single value are parenthesized, so no results reads "-> ()".
func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	if len(s.Results) == 1 {
		return "(" + strings.Join(params, ", ") + ") -> " + s.Results[0].String()
	}
	results := make([]string, len(s.Results))
	for i, r := range s.Results {
		results[i] = r.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> (" + strings.Join(results, ", ") + ")"
}

// SignaturePattern is the closed set of recognized calling shapes.
// Classification is derived from arity and primitive types alone.
// PatternPointerLength shares its raw shape with PatternTwoInt32 and is
// assigned only by the discovery convention table, never by Classify.
type SignaturePattern uint8

const (
	// PatternUnrecognized marks exports that match no recognized shape.
	// Unrecognized exports are not surfaced as tools.
	PatternUnrecognized SignaturePattern = iota

	// PatternTwoInt32 is (i32, i32) -> i32 called with two plain integers.
	PatternTwoInt32

	// PatternPointerLength is (i32, i32) -> i32 called with a pointer and
	// length addressing text written into guest memory.
	PatternPointerLength

	// PatternNoArgs is () -> i32.
	PatternNoArgs
)

// String returns the stable pattern name used in logs and metadata.
func (p SignaturePattern) String() string {
	switch p {
	case PatternTwoInt32:
		return "i32_i32_to_i32"
	case PatternPointerLength:
		return "ptr_len_to_i32"
	case PatternNoArgs:
		return "no_params_to_i32"
	default:
		return "unrecognized"
	}
}

// Classify maps a raw signature to its calling pattern. The mapping is
// pure: (i32, i32) -> i32 yields PatternTwoInt32, () -> i32 yields
// PatternNoArgs, everything else is PatternUnrecognized.
func Classify(sig Signature) SignaturePattern {
	if len(sig.Results) != 1 || sig.Results[0] != I32 {
		return PatternUnrecognized
	}
	switch len(sig.Params) {
	case 0:
		return PatternNoArgs
	case 2:
		if sig.Params[0] == I32 && sig.Params[1] == I32 {
			return PatternTwoInt32
		}
	}
	return PatternUnrecognized
}

// Matches reports whether the signature is compatible with the pattern.
// PatternPointerLength and PatternTwoInt32 accept the same raw shape.
func (s Signature) Matches(p SignaturePattern) bool {
	switch p {
	case PatternTwoInt32, PatternPointerLength:
		return Classify(s) == PatternTwoInt32
	case PatternNoArgs:
		return Classify(s) == PatternNoArgs
	default:
		return false
	}
}
