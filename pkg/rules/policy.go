package rules

import "sort"

// RuleCollection is one partition of a policy: the rules targeting a single
// file kind, plus the collection's enforcement mode.
type RuleCollection struct {
	Type  CollectionType
	Mode  EnforcementMode
	Rules []Rule
}

// Clone returns a deep copy of the collection, including every rule.
func (c *RuleCollection) Clone() *RuleCollection {
	clone := &RuleCollection{
		Type:  c.Type,
		Mode:  c.Mode,
		Rules: make([]Rule, len(c.Rules)),
	}
	for i, r := range c.Rules {
		clone.Rules[i] = r.Clone()
	}
	return clone
}

// Policy maps each declared collection type to its rule collection.
type Policy struct {
	// Name identifies the policy in snapshots and comparison reports.
	Name string

	Collections map[CollectionType]*RuleCollection
}

// NewPolicy builds a policy template with one empty collection per given
// type. With no types it declares all canonical collection types.
func NewPolicy(name string, types ...CollectionType) *Policy {
	if len(types) == 0 {
		types = AllCollectionTypes
	}
	p := &Policy{
		Name:        name,
		Collections: make(map[CollectionType]*RuleCollection, len(types)),
	}
	for _, t := range types {
		p.Collections[t] = &RuleCollection{Type: t, Mode: ModeNotConfigured}
	}
	return p
}

// Collection returns the collection for the given type, or nil if the policy
// does not declare it.
func (p *Policy) Collection(t CollectionType) *RuleCollection {
	return p.Collections[t]
}

// CollectionTypes returns the declared collection types in lexicographic
// order, for deterministic iteration.
func (p *Policy) CollectionTypes() []CollectionType {
	types := make([]CollectionType, 0, len(p.Collections))
	for t := range p.Collections {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// RuleCount returns the total number of rules across all collections.
func (p *Policy) RuleCount() int {
	n := 0
	for _, c := range p.Collections {
		n += len(c.Rules)
	}
	return n
}

// SetEnforcement sets the enforcement mode uniformly across all collections.
func (p *Policy) SetEnforcement(mode EnforcementMode) {
	for _, c := range p.Collections {
		c.Mode = mode
	}
}

// Clone returns a deep copy of the policy.
func (p *Policy) Clone() *Policy {
	clone := &Policy{
		Name:        p.Name,
		Collections: make(map[CollectionType]*RuleCollection, len(p.Collections)),
	}
	for t, c := range p.Collections {
		clone.Collections[t] = c.Clone()
	}
	return clone
}
