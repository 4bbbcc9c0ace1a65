package rules

import (
	"fmt"
	"strings"
)

// RuleType tags the concrete variant of a Rule.
type RuleType string

const (
	// RuleTypePublisher matches files by code-signing certificate subject,
	// optionally narrowed by product, binary name, and version range.
	RuleTypePublisher RuleType = "Publisher"

	// RuleTypeHash matches one specific file by cryptographic content hash.
	RuleTypeHash RuleType = "Hash"

	// RuleTypePath matches files under a path expression, minus exceptions.
	RuleTypePath RuleType = "Path"
)

// Properties holds the fields common to every rule variant.
type Properties struct {
	// ID is the unique rule identifier within an assembled policy.
	// Empty until the assembler stamps one.
	ID string

	// Name is the generated human-readable rule name.
	Name string

	// Description records the source path(s) and signer metadata the rule
	// was synthesized from, for later auditing.
	Description string

	// Principal is the security identifier the rule applies to.
	Principal string

	// Action is the rule effect (Allow or Deny).
	Action Action

	// Collections lists every rule collection the rule targets. A rule may
	// target multiple collections (e.g. Exe+Dll+Script).
	Collections []CollectionType
}

// Rule is the sum type over publisher, hash, and path rules. Concrete types
// are *PublisherRule, *HashRule, and *PathRule; callers dispatch with a type
// switch on those three variants.
type Rule interface {
	// Type returns the variant tag.
	Type() RuleType

	// Props returns the common rule fields.
	Props() *Properties

	// Detail returns the variant-specific detail string used when two rules
	// with the same canonical key must be distinguished in a comparison.
	Detail() string

	// Clone returns a deep copy of the rule.
	Clone() Rule
}

// PublisherRule allows or denies files signed by a publisher, optionally
// narrowed by product, binary name, and a minimum version. MaxVersion is
// wildcard in synthesized rules: a rule always permits "this version and
// newer".
type PublisherRule struct {
	Properties

	Publisher  string
	Product    string // "*" when granularity excludes product
	Binary     string // "*" when granularity excludes binary name
	MinVersion Version
	MaxVersion Version
}

// Type returns RuleTypePublisher.
func (r *PublisherRule) Type() RuleType { return RuleTypePublisher }

// Props returns the common rule fields.
func (r *PublisherRule) Props() *Properties { return &r.Properties }

// Detail returns "publisher|product|binary|minVersion-maxVersion".
func (r *PublisherRule) Detail() string {
	return fmt.Sprintf("%s|%s|%s|%s-%s", r.Publisher, r.Product, r.Binary, r.MinVersion, r.MaxVersion)
}

// Clone returns a deep copy of the rule.
func (r *PublisherRule) Clone() Rule {
	c := *r
	c.Collections = append([]CollectionType(nil), r.Collections...)
	return &c
}

// Key returns the canonical publisher key for the rule, scoped to one
// collection type.
func (r *PublisherRule) Key(collection CollectionType) PublisherKey {
	return PublisherKey{
		Collection: collection,
		Publisher:  r.Publisher,
		Product:    r.Product,
		Binary:     r.Binary,
	}
}

// HashRule allows or denies one specific file by content hash.
type HashRule struct {
	Properties

	// SourceFile is the file name the hash was computed from.
	SourceFile string

	// Hash is the hex-encoded content hash supplied by the scanner.
	Hash string

	// Length is the file size in bytes at scan time.
	Length int64
}

// Type returns RuleTypeHash.
func (r *HashRule) Type() RuleType { return RuleTypeHash }

// Props returns the common rule fields.
func (r *HashRule) Props() *Properties { return &r.Properties }

// Detail returns "sourceFile|hash".
func (r *HashRule) Detail() string {
	return fmt.Sprintf("%s|%s", r.SourceFile, r.Hash)
}

// Clone returns a deep copy of the rule.
func (r *HashRule) Clone() Rule {
	c := *r
	c.Collections = append([]CollectionType(nil), r.Collections...)
	return &c
}

// Key returns the canonical (sourceFile, hash) key for deduplication.
func (r *HashRule) Key() HashKey {
	return HashKey{SourceFile: r.SourceFile, Hash: r.Hash}
}

// PathRule allows or denies files under a path expression, minus an ordered
// set of exception path expressions.
type PathRule struct {
	Properties

	// Path is the path expression, e.g. `%WINDIR%\*`.
	Path string

	// Exceptions are path expressions carved out of Path, typically the
	// user-writable directory exclusions produced by the reducer.
	Exceptions []string
}

// Type returns RuleTypePath.
func (r *PathRule) Type() RuleType { return RuleTypePath }

// Props returns the common rule fields.
func (r *PathRule) Props() *Properties { return &r.Properties }

// Detail returns the path followed by one exception per line.
func (r *PathRule) Detail() string {
	if len(r.Exceptions) == 0 {
		return r.Path
	}
	return r.Path + "\n" + strings.Join(r.Exceptions, "\n")
}

// Clone returns a deep copy of the rule.
func (r *PathRule) Clone() Rule {
	c := *r
	c.Collections = append([]CollectionType(nil), r.Collections...)
	c.Exceptions = append([]string(nil), r.Exceptions...)
	return &c
}
