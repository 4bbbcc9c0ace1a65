// Package synth converts per-file scan records into typed rules at a
// configurable granularity. Signed records become publisher rules whose
// minimum versions merge downward as more files are observed; records without
// a usable signer fall back to hash rules unless a publisher-only rule
// already covers their signer. Records with neither a usable signer nor a
// hash are dropped with a diagnostic.
//
// Synthesis runs in two passes over the record set (publisher rules first,
// then hash fallbacks) so the publisher-wins suppression policy is
// independent of input order.
package synth
