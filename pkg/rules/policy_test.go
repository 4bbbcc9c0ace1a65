package rules

import "testing"

// TestNewPolicy tests template construction.
func TestNewPolicy(t *testing.T) {
	p := NewPolicy("baseline")
	if len(p.Collections) != len(AllCollectionTypes) {
		t.Fatalf("default template has %d collections, want %d", len(p.Collections), len(AllCollectionTypes))
	}
	for _, typ := range AllCollectionTypes {
		c := p.Collection(typ)
		if c == nil {
			t.Fatalf("collection %s missing from default template", typ)
		}
		if c.Mode != ModeNotConfigured {
			t.Errorf("collection %s mode = %s, want NotConfigured", typ, c.Mode)
		}
		if len(c.Rules) != 0 {
			t.Errorf("collection %s not empty", typ)
		}
	}

	narrow := NewPolicy("exe-only", CollectionExe)
	if len(narrow.Collections) != 1 {
		t.Errorf("narrow template has %d collections, want 1", len(narrow.Collections))
	}
	if narrow.Collection(CollectionDll) != nil {
		t.Error("narrow template declares Dll collection")
	}
}

// TestPolicyCollectionTypesSorted tests deterministic iteration order.
func TestPolicyCollectionTypesSorted(t *testing.T) {
	p := NewPolicy("baseline")
	types := p.CollectionTypes()
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("CollectionTypes() not sorted: %v", types)
		}
	}
}

// TestPolicySetEnforcement tests the uniform enforcement pass.
func TestPolicySetEnforcement(t *testing.T) {
	p := NewPolicy("baseline")
	p.SetEnforcement(ModeAuditOnly)
	for typ, c := range p.Collections {
		if c.Mode != ModeAuditOnly {
			t.Errorf("collection %s mode = %s, want AuditOnly", typ, c.Mode)
		}
	}
}

// TestPolicyClone tests that policy clones are independent down to the rules.
func TestPolicyClone(t *testing.T) {
	p := NewPolicy("baseline")
	p.Collection(CollectionExe).Rules = append(p.Collection(CollectionExe).Rules, &HashRule{
		Properties: Properties{Name: "Hash: tool.ps1", Action: ActionAllow},
		SourceFile: "tool.ps1",
		Hash:       "0x01",
	})

	clone := p.Clone()
	clone.SetEnforcement(ModeEnabled)
	clone.Collection(CollectionExe).Rules[0].(*HashRule).Hash = "0x02"

	if p.Collection(CollectionExe).Mode != ModeNotConfigured {
		t.Error("clone enforcement change mutated original")
	}
	if p.Collection(CollectionExe).Rules[0].(*HashRule).Hash != "0x01" {
		t.Error("clone rule mutation mutated original")
	}
	if p.RuleCount() != 1 || clone.RuleCount() != 1 {
		t.Errorf("RuleCount() = %d/%d, want 1/1", p.RuleCount(), clone.RuleCount())
	}
}
