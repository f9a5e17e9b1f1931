// Package catalog turns loaded module export tables into the externally
// visible tool surface.
//
// A catalog is built once from a set of modules and is immutable afterward:
// discovery classifies every export, declarative convention and composition
// tables attach well-known semantics, and each tool is bound to a handler
// closure at build time. Invocation is a map lookup plus the bound handler;
// the execution path never inspects export names or signatures. Reload
// builds a fresh catalog and swaps it whole.
package catalog
