package synth

import (
	"reflect"
	"testing"

	"acuity-hq/palisade/pkg/rules"
	"acuity-hq/palisade/pkg/scan"
)

const testPrincipal = "S-1-1-0"

func signed(path, publisher, product, binary, version string) *scan.Record {
	return &scan.Record{
		Path: path,
		Signer: &scan.SignerInfo{
			Publisher: publisher,
			Product:   product,
			Binary:    binary,
			Version:   version,
		},
	}
}

func unsigned(path, hash string) *scan.Record {
	return &scan.Record{Path: path, Hash: hash}
}

func newTestSynthesizer(gran Granularity) *Synthesizer {
	return NewSynthesizer(Options{Granularity: gran, Principal: testPrincipal}, nil)
}

// TestSynthesizeMergesDuplicateKeys tests that records landing on the same
// canonical key produce one rule.
func TestSynthesizeMergesDuplicateKeys(t *testing.T) {
	s := newTestSynthesizer(GranularityPublisherProductBinary)
	result := s.Synthesize([]*scan.Record{
		signed(`C:\a\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "1.0"),
		signed(`C:\b\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "2.0"),
	})

	if len(result.PublisherRules) != 1 {
		t.Fatalf("synthesized %d publisher rules, want 1", len(result.PublisherRules))
	}
	if result.Diagnostics.Count() != 0 {
		t.Errorf("unexpected diagnostics: %s", result.Diagnostics.String())
	}
}

// TestSynthesizeMonotonicVersionMerge tests that the merged minimum version
// equals the lowest observed version regardless of input order.
func TestSynthesizeMonotonicVersionMerge(t *testing.T) {
	recA := signed(`C:\a\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "1.0.0.0")
	recB := signed(`C:\b\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "2.0.0.0")
	recC := signed(`C:\c\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "1.5.0.0")

	orders := [][]*scan.Record{
		{recA, recB, recC},
		{recC, recB, recA},
		{recB, recA, recC},
	}

	for i, records := range orders {
		s := newTestSynthesizer(GranularityPublisherProductBinaryVersion)
		result := s.Synthesize(records)
		if len(result.PublisherRules) != 1 {
			t.Fatalf("order %d: synthesized %d rules, want 1", i, len(result.PublisherRules))
		}
		got := result.PublisherRules[0].MinVersion
		if got.String() != "1.0.0.0" {
			t.Errorf("order %d: minVersion = %s, want 1.0.0.0", i, got)
		}
		if !result.PublisherRules[0].MaxVersion.Wildcard {
			t.Errorf("order %d: maxVersion = %s, want wildcard", i, result.PublisherRules[0].MaxVersion)
		}
	}
}

// TestSynthesizeGranularityCollapsesFields tests that excluded key fields
// collapse to the wildcard.
func TestSynthesizeGranularityCollapsesFields(t *testing.T) {
	records := []*scan.Record{
		signed(`C:\a\one.exe`, "O=CONTOSO", "APP A", "ONE.EXE", "1.0"),
		signed(`C:\a\two.exe`, "O=CONTOSO", "APP B", "TWO.EXE", "1.0"),
	}

	s := newTestSynthesizer(GranularityPublisher)
	result := s.Synthesize(records)

	if len(result.PublisherRules) != 1 {
		t.Fatalf("publisher granularity synthesized %d rules, want 1", len(result.PublisherRules))
	}
	rule := result.PublisherRules[0]
	if rule.Product != "*" || rule.Binary != "*" {
		t.Errorf("rule fields = %q/%q, want wildcards", rule.Product, rule.Binary)
	}
	if !rule.MinVersion.Wildcard {
		t.Errorf("minVersion = %s, want wildcard below version granularity", rule.MinVersion)
	}

	s = newTestSynthesizer(GranularityPublisherProductBinary)
	result = s.Synthesize(records)
	if len(result.PublisherRules) != 2 {
		t.Errorf("binary granularity synthesized %d rules, want 2", len(result.PublisherRules))
	}
}

// TestSynthesizeMicrosoftFloors tests the forced-minimum granularity for
// Microsoft-signed records.
func TestSynthesizeMicrosoftFloors(t *testing.T) {
	msPublisher := "O=MICROSOFT CORPORATION, L=REDMOND, S=WASHINGTON, C=US"
	records := []*scan.Record{
		signed(`C:\Windows\notepad.exe`, msPublisher, "WINDOWS OPERATING SYSTEM", "NOTEPAD.EXE", "10.0"),
		signed(`C:\Windows\calc.exe`, msPublisher, "WINDOWS OPERATING SYSTEM", "CALC.EXE", "10.0"),
		signed(`C:\VS\devenv.exe`, msPublisher, "MICROSOFT VISUAL STUDIO 2022", "DEVENV.EXE", "17.0"),
		signed(`C:\Office\winword.exe`, msPublisher, "MICROSOFT OFFICE", "WINWORD.EXE", "16.0"),
		signed(`C:\Other\tool.exe`, "O=CONTOSO", "TOOL", "TOOL.EXE", "1.0"),
	}

	// At publisher granularity, Microsoft records are raised: Office lands at
	// product level, Windows and Visual Studio at binary level. The Contoso
	// record stays publisher-only.
	s := newTestSynthesizer(GranularityPublisher)
	result := s.Synthesize(records)

	byName := map[string]*rules.PublisherRule{}
	for _, r := range result.PublisherRules {
		byName[r.Name] = r
	}

	if len(result.PublisherRules) != 5 {
		t.Fatalf("synthesized %d rules, want 5: %v", len(result.PublisherRules), byName)
	}

	for _, r := range result.PublisherRules {
		switch {
		case r.Publisher == "O=CONTOSO":
			if r.Product != "*" || r.Binary != "*" {
				t.Errorf("Contoso rule = %q/%q, want publisher-only", r.Product, r.Binary)
			}
		case r.Product == "MICROSOFT OFFICE":
			if r.Binary != "*" {
				t.Errorf("Office rule binary = %q, want product level", r.Binary)
			}
		case r.Product == "WINDOWS OPERATING SYSTEM" || r.Product == "MICROSOFT VISUAL STUDIO 2022":
			if r.Binary == "*" {
				t.Errorf("%s rule has wildcard binary, want binary level", r.Product)
			}
		default:
			t.Errorf("unexpected rule %q", r.Name)
		}
	}
}

// TestSynthesizeHashFallback tests hash rules for unsigned records and
// deduplication of identical (name, hash) pairs.
func TestSynthesizeHashFallback(t *testing.T) {
	s := newTestSynthesizer(DefaultGranularity)
	result := s.Synthesize([]*scan.Record{
		unsigned(`C:\tools\tool.ps1`, "0xAA"),
		unsigned(`C:\backup\tool.ps1`, "0xAA"),
		unsigned(`C:\tools\other.ps1`, "0xBB"),
	})

	if len(result.HashRules) != 2 {
		t.Fatalf("synthesized %d hash rules, want 2", len(result.HashRules))
	}
	if result.HashRules[0].SourceFile != "tool.ps1" {
		t.Errorf("first hash rule source = %q", result.HashRules[0].SourceFile)
	}
	if got := result.HashRules[0].Collections; len(got) != 1 || got[0] != rules.CollectionScript {
		t.Errorf("hash rule collections = %v, want [Script]", got)
	}
}

// TestSynthesizePublisherSuppressesHash tests that a record whose signer is
// already covered by a non-Microsoft publisher-only rule produces no hash
// rule, independent of input order.
func TestSynthesizePublisherSuppressesHash(t *testing.T) {
	full := signed(`C:\a\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "1.0")
	// Signed by the same publisher but without version metadata, so it falls
	// to the hash pass.
	degraded := signed(`C:\a\patch.exe`, "O=CONTOSO", "APP", "PATCH.EXE", "")
	degraded.Hash = "0xCC"

	orders := [][]*scan.Record{
		{full, degraded},
		{degraded, full},
	}

	for i, records := range orders {
		s := newTestSynthesizer(GranularityPublisher)
		result := s.Synthesize(records)

		if len(result.PublisherRules) != 1 {
			t.Fatalf("order %d: %d publisher rules, want 1", i, len(result.PublisherRules))
		}
		if len(result.HashRules) != 0 {
			t.Errorf("order %d: hash rule not suppressed by publisher rule", i)
		}
	}
}

// TestSynthesizeMicrosoftSignerNotSuppressed tests that the suppression
// policy does not apply to Microsoft-signed records.
func TestSynthesizeMicrosoftSignerNotSuppressed(t *testing.T) {
	msPublisher := "O=MICROSOFT CORPORATION"
	full := signed(`C:\Office\winword.exe`, msPublisher, "MICROSOFT OFFICE", "WINWORD.EXE", "16.0")
	degraded := signed(`C:\Office\patch.exe`, msPublisher, "", "", "")
	degraded.Hash = "0xDD"

	s := newTestSynthesizer(GranularityPublisher)
	result := s.Synthesize([]*scan.Record{full, degraded})

	if len(result.HashRules) != 1 {
		t.Errorf("Microsoft-signed degraded record produced %d hash rules, want 1", len(result.HashRules))
	}
}

// TestSynthesizeMissingMetadata tests that a record with neither signer nor
// hash is dropped with a diagnostic.
func TestSynthesizeMissingMetadata(t *testing.T) {
	s := newTestSynthesizer(DefaultGranularity)
	result := s.Synthesize([]*scan.Record{
		{Path: `C:\mystery\blob.bin`},
		unsigned(`C:\tools\good.exe`, "0xEE"),
	})

	if len(result.HashRules) != 1 {
		t.Fatalf("synthesized %d hash rules, want 1", len(result.HashRules))
	}
	if !result.Diagnostics.HasCode(rules.DiagMissingMetadata) {
		t.Error("no MissingMetadata diagnostic for the dropped record")
	}
	if got := result.Diagnostics.ByCode(rules.DiagMissingMetadata); len(got) != 1 || got[0].Source != `C:\mystery\blob.bin` {
		t.Errorf("MissingMetadata diagnostics = %v", got)
	}
}

// TestSynthesizeMalformedVersion tests the wildcard fallback for unparsable
// versions.
func TestSynthesizeMalformedVersion(t *testing.T) {
	s := newTestSynthesizer(GranularityPublisherProductBinaryVersion)
	result := s.Synthesize([]*scan.Record{
		signed(`C:\a\legacy.exe`, "O=CONTOSO", "LEGACY", "LEGACY.EXE", "one.two"),
	})

	if len(result.PublisherRules) != 1 {
		t.Fatalf("synthesized %d publisher rules, want 1", len(result.PublisherRules))
	}
	if !result.PublisherRules[0].MinVersion.Wildcard {
		t.Errorf("minVersion = %s, want wildcard fallback", result.PublisherRules[0].MinVersion)
	}
	if !result.Diagnostics.HasCode(rules.DiagMalformedVersion) {
		t.Error("no MalformedVersion diagnostic")
	}
}

// TestSynthesizeIdempotent tests that two passes over the same records yield
// identical results.
func TestSynthesizeIdempotent(t *testing.T) {
	records := []*scan.Record{
		signed(`C:\a\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "1.0"),
		signed(`C:\b\app.exe`, "O=CONTOSO", "APP", "APP.EXE", "2.0"),
		unsigned(`C:\tools\tool.ps1`, "0xAA"),
		{Path: `C:\mystery\blob.bin`},
	}

	s := newTestSynthesizer(DefaultGranularity)
	first := s.Synthesize(records)
	second := s.Synthesize(records)

	if !reflect.DeepEqual(first, second) {
		t.Error("two synthesis passes over the same records differ")
	}
}

// TestSynthesizeIgnoresDirectories tests that directory records are skipped.
func TestSynthesizeIgnoresDirectories(t *testing.T) {
	s := newTestSynthesizer(DefaultGranularity)
	result := s.Synthesize([]*scan.Record{
		{Path: `C:\tools`, IsDirectory: true},
	})

	if len(result.PublisherRules)+len(result.HashRules) != 0 {
		t.Error("directory record produced rules")
	}
	if result.Diagnostics.Count() != 0 {
		t.Errorf("directory record produced diagnostics: %s", result.Diagnostics.String())
	}
}

// TestPathRulesCarryExclusions tests that reducer output becomes path-rule
// exceptions and that the exception slices are independent copies.
func TestPathRulesCarryExclusions(t *testing.T) {
	exclusions := []string{`c:\windows\temp\*`, `c:\windows\tasks\*`}
	pathRules := PathRules(exclusions, testPrincipal)

	if len(pathRules) == 0 {
		t.Fatal("no path rules built")
	}
	for _, pr := range pathRules {
		if len(pr.Exceptions) != len(exclusions) {
			t.Errorf("rule %q has %d exceptions, want %d", pr.Name, len(pr.Exceptions), len(exclusions))
		}
		if pr.Action != rules.ActionAllow {
			t.Errorf("rule %q action = %s, want Allow", pr.Name, pr.Action)
		}
	}

	pathRules[0].Exceptions[0] = "mutated"
	if exclusions[0] != `c:\windows\temp\*` {
		t.Error("mutating rule exceptions mutated the caller's exclusion slice")
	}
}
