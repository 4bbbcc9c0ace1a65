package synth

import (
	"fmt"
	"log/slog"
	"strings"

	"acuity-hq/palisade/pkg/rules"
	"acuity-hq/palisade/pkg/scan"
)

// microsoftFloorProducts are the product-name patterns that raise a
// Microsoft-signed record to binary granularity: OS binaries and Visual
// Studio ship too many distinctly-versioned products to be safely covered by
// a product-level rule.
const (
	windowsProductName  = "windows operating system"
	visualStudioPattern = "visual studio"
)

// Options configures a synthesis pass.
type Options struct {
	// Granularity is the publisher-rule scoping level.
	// Defaults to DefaultGranularity.
	Granularity Granularity

	// Principal is the security identifier synthesized rules apply to,
	// e.g. the Everyone SID "S-1-1-0".
	Principal string

	// Action is the rule effect. Defaults to Allow.
	Action rules.Action
}

// Result is the output of one synthesis pass: two disjoint rule collections
// plus the diagnostics accumulated while producing them.
type Result struct {
	PublisherRules []*rules.PublisherRule
	HashRules      []*rules.HashRule
	Diagnostics    rules.Diagnostics
}

// Rules returns all synthesized rules as the generic sum type, publisher
// rules first.
func (r *Result) Rules() []rules.Rule {
	out := make([]rules.Rule, 0, len(r.PublisherRules)+len(r.HashRules))
	for _, pr := range r.PublisherRules {
		out = append(out, pr)
	}
	for _, hr := range r.HashRules {
		out = append(out, hr)
	}
	return out
}

// Synthesizer converts scan records into rules. Its deduplication maps are
// not safe for concurrent writers: run one synthesis pass at a time and merge
// per-worker results afterwards if scanning is parallelized.
type Synthesizer struct {
	opts   Options
	logger *slog.Logger
}

// NewSynthesizer creates a synthesizer with the given options.
func NewSynthesizer(opts Options, logger *slog.Logger) *Synthesizer {
	if opts.Granularity == "" {
		opts.Granularity = DefaultGranularity
	}
	if opts.Action == "" {
		opts.Action = rules.ActionAllow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		opts:   opts,
		logger: logger.With("component", "synth"),
	}
}

// Synthesize runs the two-pass synthesis over the record set. Directory
// records are ignored. Running Synthesize twice on the same records yields
// identical results.
func (s *Synthesizer) Synthesize(records []*scan.Record) *Result {
	result := &Result{}

	publisherRules := make(map[rules.PublisherKey]*rules.PublisherRule)
	var keyOrder []rules.PublisherKey

	// coveredPublishers holds non-Microsoft signers covered by a
	// publisher-only rule; hash fallbacks for these signers are suppressed.
	coveredPublishers := make(map[string]bool)

	// Pass 1: publisher rules for signed records with sufficient metadata.
	for _, rec := range records {
		if rec.IsDirectory || !s.usableSigner(rec) {
			continue
		}

		gran := s.effectiveGranularity(rec.Signer)
		key := s.publisherKey(rec, gran)
		minVersion := s.minVersion(rec, gran, &result.Diagnostics)

		if existing, ok := publisherRules[key]; ok {
			// The rule must not become more restrictive as more files are
			// observed: keep the lower version.
			existing.MinVersion = existing.MinVersion.Min(minVersion)
			appendSource(existing.Props(), rec.Path)
			continue
		}

		rule := s.newPublisherRule(rec, key, minVersion)
		publisherRules[key] = rule
		keyOrder = append(keyOrder, key)

		if gran.level() == levelPublisher && !isMicrosoft(rec.Signer.Publisher) {
			coveredPublishers[strings.ToUpper(rec.Signer.Publisher)] = true
		}
	}

	// Pass 2: hash fallbacks. Runs after the publisher pass completes so the
	// publisher-wins suppression cannot depend on input order.
	hashRules := make(map[rules.HashKey]*rules.HashRule)
	var hashOrder []rules.HashKey

	for _, rec := range records {
		if rec.IsDirectory || s.usableSigner(rec) {
			continue
		}

		if rec.Signed() && coveredPublishers[strings.ToUpper(rec.Signer.Publisher)] {
			s.logger.Debug("hash rule suppressed by publisher rule",
				"path", rec.Path,
				"publisher", rec.Signer.Publisher,
			)
			continue
		}

		if rec.Hash == "" {
			result.Diagnostics.Add(rules.DiagMissingMetadata, rec.Path,
				"record has neither a usable signer nor a content hash")
			continue
		}

		key := rules.HashKey{SourceFile: rec.FileName(), Hash: rec.Hash}
		if existing, ok := hashRules[key]; ok {
			appendSource(existing.Props(), rec.Path)
			continue
		}

		rule := s.newHashRule(rec, key)
		hashRules[key] = rule
		hashOrder = append(hashOrder, key)
	}

	for _, key := range keyOrder {
		result.PublisherRules = append(result.PublisherRules, publisherRules[key])
	}
	for _, key := range hashOrder {
		result.HashRules = append(result.HashRules, hashRules[key])
	}

	s.logger.Info("synthesis complete",
		"records", len(records),
		"publisher_rules", len(result.PublisherRules),
		"hash_rules", len(result.HashRules),
		"diagnostics", result.Diagnostics.Count(),
	)

	return result
}

// usableSigner returns true if the record's signer metadata is sufficient for
// a publisher rule at the record's effective granularity. A version string is
// always required: a record that cannot establish "this version and newer"
// falls through to the hash pass. Malformed (but present) versions stay on
// the publisher path with a wildcard fallback.
func (s *Synthesizer) usableSigner(rec *scan.Record) bool {
	if !rec.Signed() || rec.Signer.Version == "" {
		return false
	}
	gran := s.effectiveGranularity(rec.Signer)
	if gran.includesProduct() && rec.Signer.Product == "" {
		return false
	}
	if gran.includesBinary() && rec.Signer.Binary == "" {
		return false
	}
	return true
}

// effectiveGranularity applies the forced-minimum overrides for
// Microsoft-signed records.
func (s *Synthesizer) effectiveGranularity(signer *scan.SignerInfo) Granularity {
	gran := s.opts.Granularity
	if !isMicrosoft(signer.Publisher) {
		return gran
	}

	gran = gran.atLeast(GranularityPublisherProduct)

	product := strings.ToLower(signer.Product)
	if product == windowsProductName || strings.Contains(product, visualStudioPattern) {
		gran = gran.atLeast(GranularityPublisherProductBinary)
	}
	return gran
}

// publisherKey builds the canonical key using only the fields the effective
// granularity implies; excluded fields collapse to "*".
func (s *Synthesizer) publisherKey(rec *scan.Record, gran Granularity) rules.PublisherKey {
	key := rules.PublisherKey{
		Collection: CollectionForPath(rec.Path),
		Publisher:  strings.ToUpper(rec.Signer.Publisher),
		Product:    "*",
		Binary:     "*",
	}
	if gran.includesProduct() {
		key.Product = strings.ToUpper(rec.Signer.Product)
	}
	if gran.includesBinary() {
		key.Binary = strings.ToUpper(rec.Signer.Binary)
	}
	return key
}

// minVersion resolves the rule's minimum version for the record. Malformed
// versions fall back to the wildcard range with a diagnostic instead of
// aborting synthesis.
func (s *Synthesizer) minVersion(rec *scan.Record, gran Granularity, diags *rules.Diagnostics) rules.Version {
	if !gran.includesVersion() {
		return rules.WildcardVersion
	}

	v, err := rules.ParseVersion(rec.Signer.Version)
	if err != nil {
		diags.Add(rules.DiagMalformedVersion, rec.Path,
			"cannot parse version %q, using wildcard range", rec.Signer.Version)
		return rules.WildcardVersion
	}
	return v
}

func (s *Synthesizer) newPublisherRule(rec *scan.Record, key rules.PublisherKey, minVersion rules.Version) *rules.PublisherRule {
	name := fmt.Sprintf("%s: %s", key.Publisher, key.Product)
	if key.Binary != "*" {
		name = fmt.Sprintf("%s: %s", name, key.Binary)
	}

	return &rules.PublisherRule{
		Properties: rules.Properties{
			Name: name,
			Description: fmt.Sprintf("Publisher rule for %s (publisher %s); generated from %s",
				key.Product, key.Publisher, rec.Path),
			Principal:   s.opts.Principal,
			Action:      s.opts.Action,
			Collections: []rules.CollectionType{key.Collection},
		},
		Publisher:  key.Publisher,
		Product:    key.Product,
		Binary:     key.Binary,
		MinVersion: minVersion,
		MaxVersion: rules.WildcardVersion,
	}
}

func (s *Synthesizer) newHashRule(rec *scan.Record, key rules.HashKey) *rules.HashRule {
	return &rules.HashRule{
		Properties: rules.Properties{
			Name:        fmt.Sprintf("Hash: %s", key.SourceFile),
			Description: fmt.Sprintf("Hash rule for %s; generated from %s", key.SourceFile, rec.Path),
			Principal:   s.opts.Principal,
			Action:      s.opts.Action,
			Collections: []rules.CollectionType{CollectionForPath(rec.Path)},
		},
		SourceFile: key.SourceFile,
		Hash:       rec.Hash,
		Length:     rec.Length,
	}
}

// maxSourcesInDescription caps how many merged source paths a description
// records before summarizing.
const maxSourcesInDescription = 3

// appendSource records an additional source path on a merged rule's
// description, keeping descriptions bounded.
func appendSource(props *rules.Properties, path string) {
	if strings.HasSuffix(props.Description, "; and others") {
		return
	}
	sources := strings.Count(props.Description, "; also ") + 1
	if sources < maxSourcesInDescription {
		props.Description += "; also " + path
		return
	}
	props.Description += "; and others"
}

// isMicrosoft reports whether the certificate subject names Microsoft as the
// organization.
func isMicrosoft(publisher string) bool {
	return strings.Contains(strings.ToUpper(publisher), "O=MICROSOFT")
}
