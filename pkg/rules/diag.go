package rules

import (
	"fmt"
	"strings"
)

// DiagCode categorizes a recoverable problem encountered while synthesizing
// or assembling rules.
type DiagCode string

const (
	// DiagMissingMetadata marks a scan record with neither a usable signer
	// nor a content hash. The record is dropped.
	DiagMissingMetadata DiagCode = "MissingMetadata"

	// DiagUnknownCollectionType marks a fragment rule targeting a collection
	// the base template does not declare. The rule is skipped.
	DiagUnknownCollectionType DiagCode = "UnknownCollectionType"

	// DiagMalformedVersion marks an unparsable version string. Synthesis
	// falls back to a wildcard version range.
	DiagMalformedVersion DiagCode = "MalformedVersion"

	// DiagDuplicateRuleID marks a post-merge identifier collision. The
	// assembler regenerates a fresh identifier.
	DiagDuplicateRuleID DiagCode = "DuplicateRuleID"
)

// Diagnostic is one recoverable problem, tied to the source path or rule that
// triggered it.
type Diagnostic struct {
	Code    DiagCode
	Message string

	// Source is the scan path or rule name the diagnostic refers to.
	Source string
}

// String renders the diagnostic as "[Code] source: message".
func (d Diagnostic) String() string {
	if d.Source != "" {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Source, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Diagnostics accumulates recoverable problems across a pipeline stage.
// Every top-level operation returns its successful output together with the
// diagnostics it accumulated, so callers can report fidelity gaps without
// losing the rules that were synthesized.
type Diagnostics struct {
	Items []Diagnostic
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(code DiagCode, source, format string, args ...any) {
	d.Items = append(d.Items, Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
	})
}

// Merge appends all diagnostics from other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Items = append(d.Items, other.Items...)
}

// HasCode returns true if at least one diagnostic carries the given code.
func (d *Diagnostics) HasCode(code DiagCode) bool {
	for _, item := range d.Items {
		if item.Code == code {
			return true
		}
	}
	return false
}

// ByCode returns all diagnostics with the given code.
func (d *Diagnostics) ByCode(code DiagCode) []Diagnostic {
	var result []Diagnostic
	for _, item := range d.Items {
		if item.Code == code {
			result = append(result, item)
		}
	}
	return result
}

// Count returns the number of accumulated diagnostics.
func (d *Diagnostics) Count() int {
	return len(d.Items)
}

// String renders all diagnostics, one per line.
func (d *Diagnostics) String() string {
	lines := make([]string, len(d.Items))
	for i, item := range d.Items {
		lines[i] = item.String()
	}
	return strings.Join(lines, "\n")
}
