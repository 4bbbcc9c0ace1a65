package render

import (
	"bytes"
	"strings"
	"testing"

	"acuity-hq/palisade/pkg/rules"
)

// TestParseAppLockerRoundTrip tests that a rendered policy parses back with
// identical rules.
func TestParseAppLockerRoundTrip(t *testing.T) {
	original := testPolicy()

	var buf bytes.Buffer
	if err := NewAppLockerRenderer().Render(original, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}

	parsed, err := ParseAppLocker("baseline", &buf)
	if err != nil {
		t.Fatalf("ParseAppLocker: %v", err)
	}

	if len(parsed.Collections) != 2 {
		t.Fatalf("parsed %d collections, want 2", len(parsed.Collections))
	}
	if parsed.Collection(rules.CollectionExe).Mode != rules.ModeEnabled {
		t.Errorf("exe mode = %q", parsed.Collection(rules.CollectionExe).Mode)
	}
	if parsed.RuleCount() != original.RuleCount() {
		t.Fatalf("parsed %d rules, want %d", parsed.RuleCount(), original.RuleCount())
	}

	var pub *rules.PublisherRule
	var path *rules.PathRule
	for _, r := range parsed.Collection(rules.CollectionExe).Rules {
		switch rr := r.(type) {
		case *rules.PublisherRule:
			pub = rr
		case *rules.PathRule:
			path = rr
		}
	}
	if pub == nil || path == nil {
		t.Fatal("exe collection lost a rule variant")
	}
	if pub.Publisher != "O=CONTOSO" || pub.MinVersion.String() != "1.0.0.0" || !pub.MaxVersion.Wildcard {
		t.Errorf("publisher rule mangled: %s", pub.Detail())
	}
	if pub.Props().Principal != "S-1-1-0" || pub.Props().Action != rules.ActionAllow {
		t.Errorf("publisher props mangled: %+v", pub.Props())
	}
	if len(path.Exceptions) != 1 || path.Exceptions[0] != `c:\windows\temp\*` {
		t.Errorf("path exceptions = %v", path.Exceptions)
	}

	hash, ok := parsed.Collection(rules.CollectionScript).Rules[0].(*rules.HashRule)
	if !ok {
		t.Fatal("script rule is not a hash rule")
	}
	if hash.Hash != "0xAB" || hash.Length != 512 || hash.Props().Action != rules.ActionDeny {
		t.Errorf("hash rule mangled: %s", hash.Detail())
	}
}

// TestParseAppLockerMalformed tests the decode error path.
func TestParseAppLockerMalformed(t *testing.T) {
	if _, err := ParseAppLocker("x", strings.NewReader("<AppLockerPolicy")); err == nil {
		t.Fatal("malformed XML accepted")
	}
}
