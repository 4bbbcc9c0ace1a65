package diffpol

import (
	"fmt"
	"sort"
	"strings"

	"acuity-hq/palisade/pkg/rules"
)

// Classification is the comparison outcome for one key.
type Classification string

const (
	// Same means both sides carry the key with identical detail.
	Same Classification = "Same"

	// Different means both sides carry the key with differing detail.
	Different Classification = "Different"

	// OnlyInReference means the key appears only in the reference policy.
	OnlyInReference Classification = "OnlyInReference"

	// OnlyInComparison means the key appears only in the comparison policy.
	OnlyInComparison Classification = "OnlyInComparison"
)

// Glyph returns the two-to-three character marker used in tabular reports.
func (c Classification) Glyph() string {
	switch c {
	case Same:
		return "=="
	case Different:
		return "<->"
	case OnlyInReference:
		return "<--"
	case OnlyInComparison:
		return "-->"
	default:
		return "?"
	}
}

// Mirror returns the classification with the policy roles swapped.
func (c Classification) Mirror() Classification {
	switch c {
	case OnlyInReference:
		return OnlyInComparison
	case OnlyInComparison:
		return OnlyInReference
	default:
		return c
	}
}

// Record is one row of a comparison report. Detail strings are owned copies:
// records outlive both input policies.
type Record struct {
	Classification Classification

	// Key is the rendered canonical key: the collection type for
	// collection-level rows, the full rule key for rule-level rows.
	Key string

	// ReferenceDetail is the normalized detail on the reference side, empty
	// for OnlyInComparison rows.
	ReferenceDetail string

	// ComparisonDetail is the normalized detail on the comparison side,
	// empty for OnlyInReference rows.
	ComparisonDetail string
}

// Options controls report contents.
type Options struct {
	// SuppressSame drops Same-classified rows from the report.
	SuppressSame bool
}

// detailJoin separates concatenated details for duplicate keys and is the
// token detail normalization splits on.
const detailJoin = "\n"

// Compare classifies every collection and every rule across the two policies
// and returns the report rows: collection rows first, then rule rows, each
// group in lexicographic key order.
func Compare(reference, comparison *rules.Policy, opts Options) []Record {
	var records []Record
	records = append(records, compareCollections(reference, comparison)...)
	records = append(records, compareRules(reference, comparison)...)

	if opts.SuppressSame {
		kept := records[:0]
		for _, rec := range records {
			if rec.Classification != Same {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	return records
}

// compareCollections classifies enforcement modes for each collection type
// present in either policy.
func compareCollections(reference, comparison *rules.Policy) []Record {
	keys := make(map[rules.CollectionType]bool)
	for t := range reference.Collections {
		keys[t] = true
	}
	for t := range comparison.Collections {
		keys[t] = true
	}

	sorted := make([]string, 0, len(keys))
	for t := range keys {
		sorted = append(sorted, string(t))
	}
	sort.Strings(sorted)

	records := make([]Record, 0, len(sorted))
	for _, key := range sorted {
		t := rules.CollectionType(key)
		ref := reference.Collection(t)
		cmp := comparison.Collection(t)

		rec := Record{Key: "Collection|" + key}
		switch {
		case ref != nil && cmp != nil:
			rec.ReferenceDetail = string(ref.Mode)
			rec.ComparisonDetail = string(cmp.Mode)
			if rec.ReferenceDetail == rec.ComparisonDetail {
				rec.Classification = Same
			} else {
				rec.Classification = Different
			}
		case ref != nil:
			rec.Classification = OnlyInReference
			rec.ReferenceDetail = string(ref.Mode)
		default:
			rec.Classification = OnlyInComparison
			rec.ComparisonDetail = string(cmp.Mode)
		}
		records = append(records, rec)
	}
	return records
}

// compareRules canonicalizes both rule sets into the shared key space and
// classifies each key.
func compareRules(reference, comparison *rules.Policy) []Record {
	refDetails := canonicalize(reference)
	cmpDetails := canonicalize(comparison)

	keys := make(map[rules.ComparisonKey]bool, len(refDetails)+len(cmpDetails))
	for k := range refDetails {
		keys[k] = true
	}
	for k := range cmpDetails {
		keys[k] = true
	}

	sorted := make([]rules.ComparisonKey, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return renderKey(sorted[i]) < renderKey(sorted[j])
	})

	records := make([]Record, 0, len(sorted))
	for _, key := range sorted {
		refDetail, inRef := refDetails[key]
		cmpDetail, inCmp := cmpDetails[key]

		rec := Record{Key: renderKey(key)}
		switch {
		case inRef && inCmp:
			rec.ReferenceDetail = normalizeDetail(refDetail)
			rec.ComparisonDetail = normalizeDetail(cmpDetail)
			if rec.ReferenceDetail == rec.ComparisonDetail {
				rec.Classification = Same
			} else {
				rec.Classification = Different
			}
		case inRef:
			rec.Classification = OnlyInReference
			rec.ReferenceDetail = normalizeDetail(refDetail)
		default:
			rec.Classification = OnlyInComparison
			rec.ComparisonDetail = normalizeDetail(cmpDetail)
		}
		records = append(records, rec)
	}
	return records
}

// canonicalize maps every rule in the policy to its canonical key. Duplicate
// keys within one policy concatenate their details so no variant is lost.
func canonicalize(p *rules.Policy) map[rules.ComparisonKey]string {
	details := make(map[rules.ComparisonKey]string)
	for t, collection := range p.Collections {
		for _, rule := range collection.Rules {
			key := ruleKey(t, rule)
			detail := rule.Detail()
			if existing, ok := details[key]; ok {
				details[key] = existing + detailJoin + detail
			} else {
				details[key] = detail
			}
		}
	}
	return details
}

// ruleKey builds the canonical comparison key for a rule within one
// collection. Info is variant-specific: publisher|product|binary for
// publisher rules, the path expression for path rules, and the source file
// name for hash rules.
func ruleKey(collection rules.CollectionType, rule rules.Rule) rules.ComparisonKey {
	props := rule.Props()
	key := rules.ComparisonKey{
		Collection: collection,
		RuleType:   rule.Type(),
		Action:     props.Action,
		Principal:  props.Principal,
	}

	switch r := rule.(type) {
	case *rules.PublisherRule:
		key.Info = fmt.Sprintf("%s|%s|%s", r.Publisher, r.Product, r.Binary)
	case *rules.PathRule:
		key.Info = r.Path
	case *rules.HashRule:
		key.Info = r.SourceFile
	}
	return key
}

// renderKey flattens a comparison key for sorting and report output.
func renderKey(key rules.ComparisonKey) string {
	return strings.Join([]string{
		string(key.Collection),
		string(key.RuleType),
		string(key.Action),
		key.Principal,
		key.Info,
	}, "|")
}

// normalizeDetail makes detail comparison independent of insertion order:
// split on the join token, sort the lines, rejoin.
func normalizeDetail(detail string) string {
	lines := strings.Split(detail, detailJoin)
	sort.Strings(lines)
	return strings.Join(lines, detailJoin)
}
