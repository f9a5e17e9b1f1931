// Package host runs untrusted WASM modules under wazero and invokes
// their exported functions through a fixed byte-marshaling calling
// convention.
//
// Modules are instantiated with zero imported capabilities: no WASI, no
// host modules, no start functions. Guest code sees no ambient I/O;
// every real side effect happens on the host behind its own validation.
// Complex arguments cross the sandbox boundary through a fixed input
// region in guest linear memory and are passed as (pointer, length)
// integer pairs; recognized exports return a single i32. Calls into one
// module instance are serialized, while distinct modules execute in
// parallel.
package host
