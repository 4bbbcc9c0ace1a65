package render

import (
	"encoding/xml"
	"fmt"
	"io"

	"acuity-hq/palisade/pkg/rules"
)

// AppLockerRenderer serializes a policy into the AppLocker policy XML schema.
type AppLockerRenderer struct{}

// NewAppLockerRenderer creates an AppLocker XML renderer.
func NewAppLockerRenderer() *AppLockerRenderer {
	return &AppLockerRenderer{}
}

// Format returns "applocker".
func (r *AppLockerRenderer) Format() string { return "applocker" }

// appLockerPolicy is the XML document root.
type appLockerPolicy struct {
	XMLName     xml.Name              `xml:"AppLockerPolicy"`
	Version     string                `xml:"Version,attr"`
	Collections []appLockerCollection `xml:"RuleCollection"`
}

type appLockerCollection struct {
	Type            string              `xml:"Type,attr"`
	EnforcementMode string              `xml:"EnforcementMode,attr"`
	PublisherRules  []filePublisherRule `xml:"FilePublisherRule"`
	HashRules       []fileHashRule      `xml:"FileHashRule"`
	PathRules       []filePathRule      `xml:"FilePathRule"`
}

type ruleAttrs struct {
	ID             string `xml:"Id,attr"`
	Name           string `xml:"Name,attr"`
	Description    string `xml:"Description,attr"`
	UserOrGroupSid string `xml:"UserOrGroupSid,attr"`
	Action         string `xml:"Action,attr"`
}

type filePublisherRule struct {
	ruleAttrs
	Conditions struct {
		Condition filePublisherCondition `xml:"FilePublisherCondition"`
	} `xml:"Conditions"`
}

type filePublisherCondition struct {
	PublisherName string `xml:"PublisherName,attr"`
	ProductName   string `xml:"ProductName,attr"`
	BinaryName    string `xml:"BinaryName,attr"`
	VersionRange  struct {
		LowSection  string `xml:"LowSection,attr"`
		HighSection string `xml:"HighSection,attr"`
	} `xml:"BinaryVersionRange"`
}

type fileHashRule struct {
	ruleAttrs
	Conditions struct {
		Condition struct {
			Hashes []fileHash `xml:"FileHash"`
		} `xml:"FileHashCondition"`
	} `xml:"Conditions"`
}

type fileHash struct {
	Type             string `xml:"Type,attr"`
	Data             string `xml:"Data,attr"`
	SourceFileName   string `xml:"SourceFileName,attr"`
	SourceFileLength int64  `xml:"SourceFileLength,attr"`
}

type filePathRule struct {
	ruleAttrs
	Conditions struct {
		Condition filePathCondition `xml:"FilePathCondition"`
	} `xml:"Conditions"`
	Exceptions *pathExceptions `xml:"Exceptions,omitempty"`
}

type pathExceptions struct {
	Conditions []filePathCondition `xml:"FilePathCondition"`
}

type filePathCondition struct {
	Path string `xml:"Path,attr"`
}

// Render writes the policy as AppLocker XML. Collections are emitted in
// lexicographic type order for stable output.
func (r *AppLockerRenderer) Render(p *rules.Policy, w io.Writer) error {
	doc := appLockerPolicy{Version: "1"}

	for _, t := range p.CollectionTypes() {
		collection := p.Collection(t)
		out := appLockerCollection{
			Type:            string(t),
			EnforcementMode: string(collection.Mode),
		}

		for _, rule := range collection.Rules {
			attrs := attrsFor(rule)
			switch rr := rule.(type) {
			case *rules.PublisherRule:
				pub := filePublisherRule{ruleAttrs: attrs}
				pub.Conditions.Condition = filePublisherCondition{
					PublisherName: rr.Publisher,
					ProductName:   rr.Product,
					BinaryName:    rr.Binary,
				}
				pub.Conditions.Condition.VersionRange.LowSection = rr.MinVersion.String()
				pub.Conditions.Condition.VersionRange.HighSection = rr.MaxVersion.String()
				out.PublisherRules = append(out.PublisherRules, pub)

			case *rules.HashRule:
				hr := fileHashRule{ruleAttrs: attrs}
				hr.Conditions.Condition.Hashes = []fileHash{{
					Type:             "SHA256",
					Data:             rr.Hash,
					SourceFileName:   rr.SourceFile,
					SourceFileLength: rr.Length,
				}}
				out.HashRules = append(out.HashRules, hr)

			case *rules.PathRule:
				pr := filePathRule{ruleAttrs: attrs}
				pr.Conditions.Condition = filePathCondition{Path: rr.Path}
				if len(rr.Exceptions) > 0 {
					exceptions := &pathExceptions{}
					for _, excl := range rr.Exceptions {
						exceptions.Conditions = append(exceptions.Conditions, filePathCondition{Path: excl})
					}
					pr.Exceptions = exceptions
				}
				out.PathRules = append(out.PathRules, pr)

			default:
				return fmt.Errorf("unsupported rule variant %T", rule)
			}
		}

		doc.Collections = append(doc.Collections, out)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode AppLocker policy: %w", err)
	}
	return nil
}

func attrsFor(rule rules.Rule) ruleAttrs {
	props := rule.Props()
	return ruleAttrs{
		ID:             props.ID,
		Name:           props.Name,
		Description:    props.Description,
		UserOrGroupSid: props.Principal,
		Action:         string(props.Action),
	}
}
