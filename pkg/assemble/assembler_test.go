package assemble

import (
	"testing"

	"acuity-hq/palisade/pkg/rules"
)

func hashRule(name string, collections ...rules.CollectionType) *rules.HashRule {
	return &rules.HashRule{
		Properties: rules.Properties{
			Name:        name,
			Action:      rules.ActionAllow,
			Collections: collections,
		},
		SourceFile: name,
		Hash:       "0x" + name,
	}
}

// TestAssembleFansOutToScope tests that a rule targeting multiple collections
// lands in each of them with distinct identifiers.
func TestAssembleFansOutToScope(t *testing.T) {
	a := New(nil)
	out := a.Assemble(rules.NewPolicy("baseline"), Fragment{
		Name:  "synth",
		Rules: []rules.Rule{hashRule("multi", rules.CollectionExe, rules.CollectionDll, rules.CollectionScript)},
	})

	ids := map[string]bool{}
	for _, typ := range []rules.CollectionType{rules.CollectionExe, rules.CollectionDll, rules.CollectionScript} {
		c := out.Enforce.Collection(typ)
		if len(c.Rules) != 1 {
			t.Fatalf("collection %s has %d rules, want 1", typ, len(c.Rules))
		}
		id := c.Rules[0].Props().ID
		if id == "" {
			t.Fatalf("collection %s rule has no identifier", typ)
		}
		if ids[id] {
			t.Errorf("identifier %s reused across collections", id)
		}
		ids[id] = true
	}

	if len(out.Enforce.Collection(rules.CollectionMsi).Rules) != 0 {
		t.Error("rule leaked into a collection outside its scope")
	}
}

// TestAssembleEmitsAuditAndEnforce tests the two immutable artifacts.
func TestAssembleEmitsAuditAndEnforce(t *testing.T) {
	a := New(nil)
	out := a.Assemble(rules.NewPolicy("baseline"), Fragment{
		Name:  "synth",
		Rules: []rules.Rule{hashRule("one", rules.CollectionExe)},
	})

	for typ, c := range out.Audit.Collections {
		if c.Mode != rules.ModeAuditOnly {
			t.Errorf("audit artifact collection %s mode = %s", typ, c.Mode)
		}
	}
	for typ, c := range out.Enforce.Collections {
		if c.Mode != rules.ModeEnabled {
			t.Errorf("enforce artifact collection %s mode = %s", typ, c.Mode)
		}
	}

	// The artifacts are independent copies of one assembled policy.
	out.Audit.Collection(rules.CollectionExe).Rules[0].(*rules.HashRule).Hash = "mutated"
	if out.Enforce.Collection(rules.CollectionExe).Rules[0].(*rules.HashRule).Hash == "mutated" {
		t.Error("mutating the audit artifact mutated the enforce artifact")
	}

	if out.Audit.Collection(rules.CollectionExe).Rules[0].Props().ID !=
		out.Enforce.Collection(rules.CollectionExe).Rules[0].Props().ID {
		t.Error("artifacts disagree on rule identifiers")
	}
}

// TestAssembleTemplateUntouched tests that the base template is not modified.
func TestAssembleTemplateUntouched(t *testing.T) {
	template := rules.NewPolicy("baseline")
	a := New(nil)
	a.Assemble(template, Fragment{
		Name:  "synth",
		Rules: []rules.Rule{hashRule("one", rules.CollectionExe)},
	})

	if template.RuleCount() != 0 {
		t.Error("assembly mutated the base template")
	}
	if template.Collection(rules.CollectionExe).Mode != rules.ModeNotConfigured {
		t.Error("assembly changed the template enforcement mode")
	}
}

// TestAssembleUnknownCollectionSkipped tests the UnknownCollectionType path.
func TestAssembleUnknownCollectionSkipped(t *testing.T) {
	template := rules.NewPolicy("exe-only", rules.CollectionExe)
	a := New(nil)
	out := a.Assemble(template,
		Fragment{Name: "good", Rules: []rules.Rule{hashRule("ok", rules.CollectionExe)}},
		Fragment{Name: "bad", Rules: []rules.Rule{hashRule("dll-rule", rules.CollectionExe, rules.CollectionDll)}},
	)

	if got := len(out.Enforce.Collection(rules.CollectionExe).Rules); got != 1 {
		t.Errorf("Exe collection has %d rules, want 1 (bad rule skipped entirely)", got)
	}
	if !out.Diagnostics.HasCode(rules.DiagUnknownCollectionType) {
		t.Error("no UnknownCollectionType diagnostic")
	}
}

// TestAssembleRegeneratesCollidingIDs tests DuplicateRuleID handling.
func TestAssembleRegeneratesCollidingIDs(t *testing.T) {
	first := hashRule("one", rules.CollectionExe)
	first.ID = "fixed-id"
	second := hashRule("two", rules.CollectionExe)
	second.ID = "fixed-id"

	a := New(nil)
	out := a.Assemble(rules.NewPolicy("baseline"),
		Fragment{Name: "overrides", Rules: []rules.Rule{first, second}},
	)

	c := out.Enforce.Collection(rules.CollectionExe)
	if len(c.Rules) != 2 {
		t.Fatalf("Exe collection has %d rules, want 2", len(c.Rules))
	}
	id0, id1 := c.Rules[0].Props().ID, c.Rules[1].Props().ID
	if id0 == id1 {
		t.Errorf("colliding identifiers not regenerated: %s", id0)
	}
	if id0 != "fixed-id" {
		t.Errorf("first rule lost its original identifier: %s", id0)
	}
	if !out.Diagnostics.HasCode(rules.DiagDuplicateRuleID) {
		t.Error("no DuplicateRuleID diagnostic")
	}
}

// TestAssembleEmptyFragment tests that assembling no rules still emits both
// artifacts.
func TestAssembleEmptyFragment(t *testing.T) {
	a := New(nil)
	out := a.Assemble(rules.NewPolicy("baseline"))

	if out.Audit == nil || out.Enforce == nil {
		t.Fatal("missing artifacts for empty assembly")
	}
	if out.Enforce.RuleCount() != 0 {
		t.Errorf("empty assembly produced %d rules", out.Enforce.RuleCount())
	}
}
