package rules

// PublisherKey is the canonical key for merging publisher rules during
// synthesis. Fields the effective granularity excludes are set to "*" so that
// records differing only in excluded fields land on the same key.
type PublisherKey struct {
	Collection CollectionType
	Publisher  string
	Product    string
	Binary     string
}

// HashKey is the canonical key for deduplicating hash rules: the same file
// name with the same content hash is one rule, however many times it is
// scanned.
type HashKey struct {
	SourceFile string
	Hash       string
}

// ComparisonKey is the canonical key for matching rules across two
// independently generated policies. Info is the variant-specific component:
// "publisher|product|binary" for publisher rules, the path expression for
// path rules, and the source file name for hash rules.
type ComparisonKey struct {
	Collection CollectionType
	RuleType   RuleType
	Action     Action
	Principal  string
	Info       string
}
