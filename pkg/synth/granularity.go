package synth

import (
	"fmt"
	"strings"
)

// Granularity controls how narrowly publisher rules are scoped.
type Granularity string

const (
	// GranularityPublisher scopes rules to the publisher alone.
	GranularityPublisher Granularity = "publisher"

	// GranularityPublisherProduct narrows rules to publisher and product.
	GranularityPublisherProduct Granularity = "publisher-product"

	// GranularityPublisherProductBinary narrows rules to publisher, product,
	// and binary name. This is the default.
	GranularityPublisherProductBinary Granularity = "publisher-product-binary"

	// GranularityPublisherProductBinaryVersion additionally pins the rule's
	// minimum version to the scanned file version.
	GranularityPublisherProductBinaryVersion Granularity = "publisher-product-binary-version"
)

// DefaultGranularity is used when no granularity is configured.
const DefaultGranularity = GranularityPublisherProductBinary

// granularity ladder levels, for "at least" comparisons.
const (
	levelPublisher = iota
	levelProduct
	levelBinary
	levelVersion
)

// ParseGranularity parses a granularity setting from configuration or flags.
// Empty input yields the default.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultGranularity, nil
	case GranularityPublisher:
		return GranularityPublisher, nil
	case GranularityPublisherProduct:
		return GranularityPublisherProduct, nil
	case GranularityPublisherProductBinary:
		return GranularityPublisherProductBinary, nil
	case GranularityPublisherProductBinaryVersion:
		return GranularityPublisherProductBinaryVersion, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// level returns the ladder position of the granularity.
func (g Granularity) level() int {
	switch g {
	case GranularityPublisher:
		return levelPublisher
	case GranularityPublisherProduct:
		return levelProduct
	case GranularityPublisherProductBinaryVersion:
		return levelVersion
	default:
		return levelBinary
	}
}

// atLeast raises the granularity to the given floor if it is below it.
func (g Granularity) atLeast(floor Granularity) Granularity {
	if g.level() < floor.level() {
		return floor
	}
	return g
}

// includesProduct returns true if rule keys narrow on product name.
func (g Granularity) includesProduct() bool { return g.level() >= levelProduct }

// includesBinary returns true if rule keys narrow on binary name.
func (g Granularity) includesBinary() bool { return g.level() >= levelBinary }

// includesVersion returns true if rules pin their minimum version to the
// scanned file version.
func (g Granularity) includesVersion() bool { return g.level() >= levelVersion }
