// Package export writes policy comparison reports in tabular formats.
// CSV output feeds spreadsheet review; JSON output feeds downstream tooling.
// Both exporters emit rows in the order the differ produced them, which is
// already deterministic.
package export
