// Package server runs the line-oriented JSON-RPC protocol over stdio or
// TCP and owns the serving lifecycle around it: resolving configured
// modules, loading them into the runtime host, building the tool catalog,
// and swapping in a rebuilt catalog on reload.
//
// The dispatcher answers exactly one response per request line and holds
// no cross-request state beyond the current catalog. The catalog is
// replaced whole on reload; requests in flight keep the catalog they
// started with, so readers never observe a partially built one.
package server
