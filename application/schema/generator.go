// Package schema builds the JSON Schema documents advertised by the tool
// catalog. Every schema is reflected from a Go argument model, so the shape
// a client sees and the shape the dispatcher accepts come from one place.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Reflect generates a self-contained JSON schema for the given argument
// model. The document is inlined (no $ref or $defs) and carries no $schema
// version marker, matching what tool listings embed verbatim.
func Reflect(model interface{}) (json.RawMessage, error) {
	reflector := jsonschema.Reflector{
		Anonymous:      true, // no $id
		DoNotReference: true, // inline everything
		ExpandedStruct: true, // root is the object schema itself
	}
	s := reflector.Reflect(model)
	s.Version = ""

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return raw, nil
}

// MustReflect is like Reflect but panics on error. Intended for reflecting
// the static argument models at package initialization.
func MustReflect(model interface{}) json.RawMessage {
	raw, err := Reflect(model)
	if err != nil {
		panic(err)
	}
	return raw
}
