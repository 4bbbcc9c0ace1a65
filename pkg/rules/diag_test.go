package rules

import (
	"strings"
	"testing"
)

// TestDiagnosticsAccumulation tests Add, HasCode, ByCode, and Merge.
func TestDiagnosticsAccumulation(t *testing.T) {
	var diags Diagnostics

	if diags.Count() != 0 {
		t.Fatalf("new Diagnostics has count %d, want 0", diags.Count())
	}

	diags.Add(DiagMissingMetadata, `C:\tools\mystery.bin`, "no signer and no hash")
	diags.Add(DiagMalformedVersion, `C:\apps\legacy.exe`, "cannot parse version %q", "one.two")

	if diags.Count() != 2 {
		t.Errorf("Count() = %d, want 2", diags.Count())
	}
	if !diags.HasCode(DiagMissingMetadata) {
		t.Error("HasCode(MissingMetadata) = false, want true")
	}
	if diags.HasCode(DiagDuplicateRuleID) {
		t.Error("HasCode(DuplicateRuleID) = true, want false")
	}
	if got := diags.ByCode(DiagMalformedVersion); len(got) != 1 {
		t.Errorf("ByCode(MalformedVersion) returned %d items, want 1", len(got))
	}

	var other Diagnostics
	other.Add(DiagUnknownCollectionType, "rule-7", "collection %q not declared", "Gadget")
	diags.Merge(&other)
	if diags.Count() != 3 {
		t.Errorf("Count() after merge = %d, want 3", diags.Count())
	}

	diags.Merge(nil) // no-op
	if diags.Count() != 3 {
		t.Errorf("Count() after nil merge = %d, want 3", diags.Count())
	}
}

// TestDiagnosticString tests rendering with and without a source.
func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Code: DiagMissingMetadata, Source: `C:\x.bin`, Message: "dropped"}
	if got := d.String(); got != `[MissingMetadata] C:\x.bin: dropped` {
		t.Errorf("String() = %q", got)
	}

	d = Diagnostic{Code: DiagDuplicateRuleID, Message: "regenerated"}
	if got := d.String(); got != "[DuplicateRuleID] regenerated" {
		t.Errorf("String() without source = %q", got)
	}

	var diags Diagnostics
	diags.Add(DiagMissingMetadata, "a", "one")
	diags.Add(DiagMissingMetadata, "b", "two")
	if got := diags.String(); !strings.Contains(got, "\n") {
		t.Errorf("Diagnostics.String() = %q, want one line per item", got)
	}
}
