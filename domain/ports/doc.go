// Package ports holds the interfaces the domain needs filled in from
// outside: process execution, remote retrieval, module persistence, and
// denial reporting. Adapters live in infrastructure and security; domain
// and application code depend only on these abstractions.
package ports
