// Package entities provides the core domain types for the module host:
// module descriptors and sources, export signatures and calling patterns,
// tool descriptors and bindings, and the cache entry shape.
// Types here carry no behavior beyond classification and validation helpers;
// runtime concerns live in the host and application layers.
package entities
