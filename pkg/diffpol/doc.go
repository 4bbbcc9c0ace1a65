// Package diffpol normalizes two assembled policies into a common key space
// and classifies every rule collection and every rule as equal, differing, or
// present on only one side. Duplicate canonical keys within one policy have
// their detail strings concatenated rather than overwritten, and detail
// comparison is independent of insertion order, so exception lists and
// overlapping hash entries listed in different orders still compare equal.
//
// Output is emitted in lexicographic key order for deterministic, diffable
// reports.
package diffpol
