package snapshot

import (
	"encoding/json"
	"fmt"

	"acuity-hq/palisade/pkg/rules"
)

// wirePolicy is the JSON form of a policy. Rules carry an explicit rule_type
// discriminator because the in-memory rule is an interface value.
type wirePolicy struct {
	Name        string           `json:"name"`
	Collections []wireCollection `json:"collections"`
}

type wireCollection struct {
	Type  string     `json:"type"`
	Mode  string     `json:"mode"`
	Rules []wireRule `json:"rules,omitempty"`
}

type wireRule struct {
	RuleType    string   `json:"rule_type"`
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Principal   string   `json:"principal,omitempty"`
	Action      string   `json:"action"`
	Collections []string `json:"collections,omitempty"`

	// Publisher rule fields
	Publisher  string `json:"publisher,omitempty"`
	Product    string `json:"product,omitempty"`
	Binary     string `json:"binary,omitempty"`
	MinVersion string `json:"min_version,omitempty"`
	MaxVersion string `json:"max_version,omitempty"`

	// Hash rule fields
	SourceFile string `json:"source_file,omitempty"`
	Hash       string `json:"hash,omitempty"`
	Length     int64  `json:"length,omitempty"`

	// Path rule fields
	Path       string   `json:"path,omitempty"`
	Exceptions []string `json:"exceptions,omitempty"`
}

// marshalPolicy encodes a policy to its JSON storage form. Collections are
// emitted in lexicographic type order so the stored form is deterministic.
func marshalPolicy(p *rules.Policy) ([]byte, error) {
	wire := wirePolicy{Name: p.Name}
	for _, t := range p.CollectionTypes() {
		coll := p.Collection(t)
		wc := wireCollection{Type: string(coll.Type), Mode: string(coll.Mode)}
		for _, r := range coll.Rules {
			wr, err := encodeRule(r)
			if err != nil {
				return nil, err
			}
			wc.Rules = append(wc.Rules, wr)
		}
		wire.Collections = append(wire.Collections, wc)
	}
	return json.Marshal(wire)
}

// unmarshalPolicy decodes a policy from its JSON storage form.
func unmarshalPolicy(data []byte) (*rules.Policy, error) {
	var wire wirePolicy
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}

	types := make([]rules.CollectionType, 0, len(wire.Collections))
	for _, wc := range wire.Collections {
		types = append(types, rules.CollectionType(wc.Type))
	}
	p := rules.NewPolicy(wire.Name, types...)

	for _, wc := range wire.Collections {
		coll := p.Collection(rules.CollectionType(wc.Type))
		coll.Mode = rules.EnforcementMode(wc.Mode)
		for _, wr := range wc.Rules {
			r, err := decodeRule(wr)
			if err != nil {
				return nil, err
			}
			coll.Rules = append(coll.Rules, r)
		}
	}
	return p, nil
}

func encodeRule(r rules.Rule) (wireRule, error) {
	props := r.Props()
	wr := wireRule{
		RuleType:    string(r.Type()),
		ID:          props.ID,
		Name:        props.Name,
		Description: props.Description,
		Principal:   props.Principal,
		Action:      string(props.Action),
	}
	for _, c := range props.Collections {
		wr.Collections = append(wr.Collections, string(c))
	}

	switch rule := r.(type) {
	case *rules.PublisherRule:
		wr.Publisher = rule.Publisher
		wr.Product = rule.Product
		wr.Binary = rule.Binary
		wr.MinVersion = rule.MinVersion.String()
		wr.MaxVersion = rule.MaxVersion.String()
	case *rules.HashRule:
		wr.SourceFile = rule.SourceFile
		wr.Hash = rule.Hash
		wr.Length = rule.Length
	case *rules.PathRule:
		wr.Path = rule.Path
		wr.Exceptions = rule.Exceptions
	default:
		return wireRule{}, fmt.Errorf("unknown rule type %T", r)
	}
	return wr, nil
}

func decodeRule(wr wireRule) (rules.Rule, error) {
	props := rules.Properties{
		ID:          wr.ID,
		Name:        wr.Name,
		Description: wr.Description,
		Principal:   wr.Principal,
		Action:      rules.Action(wr.Action),
	}
	for _, c := range wr.Collections {
		props.Collections = append(props.Collections, rules.CollectionType(c))
	}

	switch rules.RuleType(wr.RuleType) {
	case rules.RuleTypePublisher:
		minV, err := rules.ParseVersion(wr.MinVersion)
		if err != nil {
			return nil, fmt.Errorf("stored rule %q: bad min version: %w", wr.ID, err)
		}
		maxV, err := rules.ParseVersion(wr.MaxVersion)
		if err != nil {
			return nil, fmt.Errorf("stored rule %q: bad max version: %w", wr.ID, err)
		}
		return &rules.PublisherRule{
			Properties: props,
			Publisher:  wr.Publisher,
			Product:    wr.Product,
			Binary:     wr.Binary,
			MinVersion: minV,
			MaxVersion: maxV,
		}, nil
	case rules.RuleTypeHash:
		return &rules.HashRule{
			Properties: props,
			SourceFile: wr.SourceFile,
			Hash:       wr.Hash,
			Length:     wr.Length,
		}, nil
	case rules.RuleTypePath:
		return &rules.PathRule{
			Properties: props,
			Path:       wr.Path,
			Exceptions: wr.Exceptions,
		}, nil
	default:
		return nil, fmt.Errorf("stored rule %q: unknown rule type %q", wr.ID, wr.RuleType)
	}
}
