package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"acuity-hq/palisade/pkg/config"
	"acuity-hq/palisade/pkg/diffpol"
	"acuity-hq/palisade/pkg/rules"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

// TestCollectorRecords tests that recorded values reach the exposition output.
func TestCollectorRecords(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())

	c.RecordRules(rules.RuleTypePublisher, 5)
	c.RecordRules(rules.RuleTypeHash, 2)

	diags := &rules.Diagnostics{}
	diags.Add(rules.DiagMissingMetadata, `c:\x.exe`, "no signer and no hash")
	diags.Add(rules.DiagMissingMetadata, `c:\y.exe`, "no signer and no hash")
	diags.Add(rules.DiagMalformedVersion, `c:\z.exe`, "bad version")
	c.RecordDiagnostics(diags)

	c.RecordComparison([]diffpol.Record{
		{Classification: diffpol.Same},
		{Classification: diffpol.Different},
		{Classification: diffpol.Different},
	})

	c.SetSnapshotsStored(7)
	c.RecordSnapshotSaved(time.Unix(1756500000, 0))
	c.ObserveSynthesisDuration(120 * time.Millisecond)

	body := scrape(t, c)

	for _, want := range []string{
		`palisade_rules_synthesized_total{rule_type="Publisher"} 5`,
		`palisade_rules_synthesized_total{rule_type="Hash"} 2`,
		`palisade_diagnostics_total{code="MissingMetadata"} 2`,
		`palisade_diagnostics_total{code="MalformedVersion"} 1`,
		`palisade_comparison_records_total{classification="Different"} 2`,
		`palisade_snapshots_stored 7`,
		`palisade_snapshot_last_saved_timestamp_seconds 1.7565e+09`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}

	if !strings.Contains(body, "palisade_synthesis_duration_seconds_count 1") {
		t.Error("synthesis duration not observed")
	}
}

// TestCollectorDisabled tests that a disabled collector records nothing.
func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: false}, prometheus.NewRegistry())

	c.RecordRules(rules.RuleTypePublisher, 5)
	c.SetSnapshotsStored(7)

	body := scrape(t, c)
	if strings.Contains(body, `rule_type="Publisher"`) {
		t.Error("disabled collector recorded rule counter")
	}
	if strings.Contains(body, "palisade_snapshots_stored 7") {
		t.Error("disabled collector moved gauge")
	}
}
