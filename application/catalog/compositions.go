package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/wasmforge-dev/wasmforge/application/schema"
	"github.com/wasmforge-dev/wasmforge/domain/entities"
)

// composition synthesizes a virtual tool when one module exports every
// required step with a pointer/length-compatible shape.
type composition struct {
	rule     string
	act      action
	schema   json.RawMessage
	describe func(module string) string
	steps    []string // required exports, in invocation order
}

var compositions = []composition{
	{
		rule:   "fetch",
		act:    actionFetch,
		schema: schema.Fetch,
		describe: func(module string) string {
			return fmt.Sprintf("Fetch content from a URL using WASM validation and processing (from module: %s)", module)
		},
		steps: []string{"validate_url", "process_response"},
	},
}

func (b *builder) discoverCompositions(m Module) {
	for _, comp := range compositions {
		steps := make([]entities.DirectBinding, 0, len(comp.steps))
		complete := true
		for _, export := range comp.steps {
			sig, ok := m.Signature(export)
			if !ok || !sig.Matches(entities.PatternPointerLength) {
				complete = false
				break
			}
			steps = append(steps, entities.DirectBinding{
				Module:  m.Name(),
				Export:  export,
				Pattern: entities.PatternPointerLength,
			})
		}
		if !complete {
			continue
		}

		virtual := entities.VirtualBinding{
			Module: m.Name(),
			Rule:   comp.rule,
			Steps:  steps,
		}
		b.add(entry{
			tool: entities.ToolDescriptor{
				Name:        b.qualify(m.Name(), comp.rule),
				Description: comp.describe(m.Name()),
				InputSchema: comp.schema,
				Binding:     virtual,
			},
			module:  m,
			act:     comp.act,
			virtual: virtual,
		})
	}
}
