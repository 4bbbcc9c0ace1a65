// Package rules defines the core data model for application-control policies:
// the Rule sum type (publisher, hash, and path rules), rule collections keyed
// by target file kind, assembled policies, typed canonical keys used for
// merging and comparison, and the diagnostics accumulator shared by all
// pipeline stages.
//
// The package is pure vocabulary: it has no I/O and no dependencies beyond
// the standard library. Synthesis, assembly, diffing, and rendering all build
// on these types.
package rules
