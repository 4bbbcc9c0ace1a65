// Package assemble merges rule fragments from multiple synthesis passes and
// static overrides into one policy per enforcement mode. Each fragment rule
// fans out to every rule collection in its scope, every emitted rule gets a
// unique identifier, and the assembler emits two immutable artifacts from the
// one assembled policy: an audit-mode copy and an enforce-mode copy.
package assemble
