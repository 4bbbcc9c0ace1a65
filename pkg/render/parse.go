package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"acuity-hq/palisade/pkg/rules"
)

// ParseAppLocker reads an AppLocker policy XML document back into a policy,
// so reference policies exported elsewhere can be compared against. Unknown
// elements are ignored; only the rule variants the renderer emits are read.
func ParseAppLocker(name string, r io.Reader) (*rules.Policy, error) {
	var doc appLockerPolicy
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode AppLocker policy: %w", err)
	}

	types := make([]rules.CollectionType, 0, len(doc.Collections))
	for _, c := range doc.Collections {
		types = append(types, rules.CollectionType(c.Type))
	}
	p := rules.NewPolicy(name, types...)

	for _, c := range doc.Collections {
		collection := p.Collection(rules.CollectionType(c.Type))
		collection.Mode = rules.EnforcementMode(c.EnforcementMode)

		for _, pub := range c.PublisherRules {
			minV, err := rules.ParseVersion(pub.Conditions.Condition.VersionRange.LowSection)
			if err != nil {
				return nil, fmt.Errorf("rule %q: bad low version: %w", pub.Name, err)
			}
			maxV, err := rules.ParseVersion(pub.Conditions.Condition.VersionRange.HighSection)
			if err != nil {
				return nil, fmt.Errorf("rule %q: bad high version: %w", pub.Name, err)
			}
			collection.Rules = append(collection.Rules, &rules.PublisherRule{
				Properties: propsFrom(pub.ruleAttrs, collection.Type),
				Publisher:  pub.Conditions.Condition.PublisherName,
				Product:    pub.Conditions.Condition.ProductName,
				Binary:     pub.Conditions.Condition.BinaryName,
				MinVersion: minV,
				MaxVersion: maxV,
			})
		}

		for _, hr := range c.HashRules {
			for _, h := range hr.Conditions.Condition.Hashes {
				collection.Rules = append(collection.Rules, &rules.HashRule{
					Properties: propsFrom(hr.ruleAttrs, collection.Type),
					SourceFile: h.SourceFileName,
					Hash:       h.Data,
					Length:     h.SourceFileLength,
				})
			}
		}

		for _, pr := range c.PathRules {
			rule := &rules.PathRule{
				Properties: propsFrom(pr.ruleAttrs, collection.Type),
				Path:       pr.Conditions.Condition.Path,
			}
			if pr.Exceptions != nil {
				for _, cond := range pr.Exceptions.Conditions {
					rule.Exceptions = append(rule.Exceptions, cond.Path)
				}
			}
			collection.Rules = append(collection.Rules, rule)
		}
	}

	return p, nil
}

// ParseAppLockerFile reads an AppLocker policy XML file. The policy is named
// after the file path.
func ParseAppLockerFile(path string) (*rules.Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy %q: %w", path, err)
	}
	defer f.Close()
	return ParseAppLocker(path, f)
}

func propsFrom(attrs ruleAttrs, collection rules.CollectionType) rules.Properties {
	return rules.Properties{
		ID:          attrs.ID,
		Name:        attrs.Name,
		Description: attrs.Description,
		Principal:   attrs.UserOrGroupSid,
		Action:      rules.Action(attrs.Action),
		Collections: []rules.CollectionType{collection},
	}
}
