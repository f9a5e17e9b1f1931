// Package security implements the host-side half of dual validation for
// privileged tool operations. The guest votes first through its own
// prepare or validate export; the checks here run second and are
// authoritative, so a compromised guest cannot widen its own access.
//
// Shell commands run as direct argv with a wall-clock kill and bounded
// output capture, outbound HTTP passes address filtering before any
// connection is made, and file access is limited by path, extension and
// size rules in both directions.
package security
