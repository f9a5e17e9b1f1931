package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wasmforge-dev/wasmforge/domain/entities"
	"github.com/wasmforge-dev/wasmforge/domain/errors"
)

// Module is one instantiated guest, kept for the process lifetime or
// until displaced by a reload. The mutex serializes write-input,
// invoke, read-result as one unit per instance; calls into different
// modules proceed in parallel.
type Module struct {
	name     string
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	exports  map[string]entities.Signature
	names    []string
	region   entities.InputRegion
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	instance api.Module
}

// Name returns the module's unique name.
func (m *Module) Name() string {
	return m.name
}

// ExportNames returns the exported function names in sorted order.
func (m *Module) ExportNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Signature returns the raw signature of the named export.
func (m *Module) Signature(export string) (entities.Signature, bool) {
	sig, ok := m.exports[export]
	return sig, ok
}

// Region returns the guest-memory window this module receives call
// input in.
func (m *Module) Region() entities.InputRegion {
	return m.region
}

// CallTwoInt32 invokes an (i32, i32) -> i32 export with two plain
// integers.
func (m *Module) CallTwoInt32(ctx context.Context, export string, a, b int32) (int32, error) {
	if err := m.check(export, entities.PatternTwoInt32); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	instance, err := m.liveInstance(ctx)
	if err != nil {
		return 0, err
	}
	return m.invoke(ctx, instance, export, api.EncodeI32(a), api.EncodeI32(b))
}

// CallNoArgs invokes a () -> i32 export.
func (m *Module) CallNoArgs(ctx context.Context, export string) (int32, error) {
	if err := m.check(export, entities.PatternNoArgs); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	instance, err := m.liveInstance(ctx)
	if err != nil {
		return 0, err
	}
	return m.invoke(ctx, instance, export)
}

// CallWithInput writes payload into the input region and invokes the
// export as (pointer, length). A write that cannot complete, because
// the payload exceeds the region, the module has no memory, or the
// region lies outside it, aborts before any guest code runs.
func (m *Module) CallWithInput(ctx context.Context, export string, payload []byte) (int32, error) {
	if err := m.check(export, entities.PatternPointerLength); err != nil {
		return 0, err
	}
	if !m.region.Fits(len(payload)) {
		return 0, fmt.Errorf("input of %d bytes exceeds region capacity %d", len(payload), m.region.Capacity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	instance, err := m.liveInstance(ctx)
	if err != nil {
		return 0, err
	}

	memory := instance.Memory()
	if memory == nil {
		return 0, fmt.Errorf("module '%s' has no linear memory", m.name)
	}
	if !memory.Write(m.region.Offset, payload) {
		return 0, fmt.Errorf("input write of %d bytes at offset %d is out of bounds in module '%s'",
			len(payload), m.region.Offset, m.name)
	}

	return m.invoke(ctx, instance, export,
		api.EncodeI32(int32(m.region.Offset)), api.EncodeI32(int32(len(payload))))
}

// Close waits for any in-flight call, then releases the instance and
// its compiled code.
func (m *Module) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.instance.Close(ctx)
	if cerr := m.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// check verifies the export exists and its signature is compatible with
// the pattern it was bound under.
func (m *Module) check(export string, pattern entities.SignaturePattern) error {
	sig, ok := m.exports[export]
	if !ok {
		return &errors.ExportNotFoundError{Module: m.name, Export: export}
	}
	if !sig.Matches(pattern) {
		return &errors.TypeMismatchError{
			Module:  m.name,
			Export:  export,
			Pattern: pattern.String(),
			Got:     sig.String(),
		}
	}
	return nil
}

// liveInstance returns the current instance, rebuilding it first if a
// deadline interrupt closed it. Guest memory starts fresh after a
// rebuild; no state persists between calls beyond what the guest
// initializes at load time. Callers hold m.mu.
func (m *Module) liveInstance(ctx context.Context) (api.Module, error) {
	if !m.instance.IsClosed() {
		return m.instance, nil
	}

	instance, err := m.runtime.InstantiateModule(ctx, m.compiled, moduleConfig(m.name))
	if err != nil {
		return nil, &errors.LoadError{Err: err, Name: m.name, Stage: "instantiate"}
	}
	m.logger.Info("module reinstantiated after interrupted call", "module", m.name)
	m.instance = instance
	return instance, nil
}

// invoke calls the export under the per-call deadline and maps failures
// to the domain taxonomy. Callers hold m.mu.
func (m *Module) invoke(ctx context.Context, instance api.Module, export string, params ...uint64) (int32, error) {
	fn := instance.ExportedFunction(export)
	if fn == nil {
		return 0, &errors.ExportNotFoundError{Module: m.name, Export: export}
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	results, err := fn.Call(callCtx, params...)
	if err != nil {
		switch {
		case stdErrors.Is(err, context.DeadlineExceeded), callCtx.Err() == context.DeadlineExceeded:
			return 0, &errors.TimeoutError{
				Operation: "call",
				Target:    m.name + "." + export,
				Duration:  m.timeout,
			}
		case stdErrors.Is(err, context.Canceled):
			return 0, err
		default:
			return 0, &errors.TrapError{Err: err, Module: m.name, Export: export}
		}
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("export '%s' returned %d results, want 1", export, len(results))
	}
	return api.DecodeI32(results[0]), nil
}
