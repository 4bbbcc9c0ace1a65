package render

import (
	"encoding/xml"
	"fmt"
	"io"

	"acuity-hq/palisade/pkg/rules"
)

// sipolicyNamespace is the WDAC policy schema namespace.
const sipolicyNamespace = "urn:schemas-microsoft-com:sipolicy"

// SIPolicyRenderer serializes a policy into the WDAC SIPolicy XML schema.
// WDAC file rules are not partitioned by collection type, so rules from all
// collections flatten into one FileRules section; signer-based rules also
// emit a Signers entry referencing the publisher certificate subject.
type SIPolicyRenderer struct{}

// NewSIPolicyRenderer creates a WDAC SIPolicy renderer.
func NewSIPolicyRenderer() *SIPolicyRenderer {
	return &SIPolicyRenderer{}
}

// Format returns "sipolicy".
func (r *SIPolicyRenderer) Format() string { return "sipolicy" }

type siPolicy struct {
	XMLName    xml.Name    `xml:"SiPolicy"`
	Namespace  string      `xml:"xmlns,attr"`
	VersionEx  string      `xml:"VersionEx"`
	PolicyType string      `xml:"PolicyType"`
	Rules      siOptions   `xml:"Rules"`
	FileRules  siFileRules `xml:"FileRules"`
	Signers    []siSigner  `xml:"Signers>Signer"`
}

type siOptions struct {
	Options []siOption `xml:"Rule"`
}

type siOption struct {
	Option string `xml:"Option"`
}

type siFileRules struct {
	Allows []siFileRule `xml:"Allow"`
	Denies []siFileRule `xml:"Deny"`
}

type siFileRule struct {
	ID                 string `xml:"ID,attr"`
	FriendlyName       string `xml:"FriendlyName,attr"`
	FileName           string `xml:"FileName,attr,omitempty"`
	MinimumFileVersion string `xml:"MinimumFileVersion,attr,omitempty"`
	Hash               string `xml:"Hash,attr,omitempty"`
	FilePath           string `xml:"FilePath,attr,omitempty"`
}

type siSigner struct {
	ID            string `xml:"ID,attr"`
	Name          string `xml:"Name,attr"`
	CertPublisher struct {
		Value string `xml:"Value,attr"`
	} `xml:"CertPublisher"`
}

// Render writes the policy as SIPolicy XML. The policy is emitted in audit
// mode when every collection is in audit mode, otherwise enforcing.
func (r *SIPolicyRenderer) Render(p *rules.Policy, w io.Writer) error {
	doc := siPolicy{
		Namespace:  sipolicyNamespace,
		VersionEx:  "1.0.0.0",
		PolicyType: "Base Policy",
	}
	if auditMode(p) {
		doc.Rules.Options = append(doc.Rules.Options, siOption{Option: "Enabled:Audit Mode"})
	}

	signerSeen := make(map[string]bool)
	ruleIndex := 0

	for _, t := range p.CollectionTypes() {
		for _, rule := range p.Collection(t).Rules {
			ruleIndex++
			props := rule.Props()

			fileRule := siFileRule{
				ID:           fmt.Sprintf("ID_%s_%d", idPrefix(props.Action), ruleIndex),
				FriendlyName: props.Name,
			}

			switch rr := rule.(type) {
			case *rules.PublisherRule:
				if rr.Binary != "*" {
					fileRule.FileName = rr.Binary
				}
				if !rr.MinVersion.Wildcard {
					fileRule.MinimumFileVersion = rr.MinVersion.String()
				}
				if !signerSeen[rr.Publisher] {
					signerSeen[rr.Publisher] = true
					signer := siSigner{
						ID:   fmt.Sprintf("ID_SIGNER_%d", len(signerSeen)),
						Name: rr.Publisher,
					}
					signer.CertPublisher.Value = rr.Publisher
					doc.Signers = append(doc.Signers, signer)
				}
			case *rules.HashRule:
				fileRule.Hash = rr.Hash
				fileRule.FileName = rr.SourceFile
			case *rules.PathRule:
				fileRule.FilePath = rr.Path
			default:
				return fmt.Errorf("unsupported rule variant %T", rule)
			}

			if props.Action == rules.ActionDeny {
				doc.FileRules.Denies = append(doc.FileRules.Denies, fileRule)
			} else {
				doc.FileRules.Allows = append(doc.FileRules.Allows, fileRule)
			}
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode SIPolicy: %w", err)
	}
	return nil
}

func auditMode(p *rules.Policy) bool {
	for _, c := range p.Collections {
		if c.Mode != rules.ModeAuditOnly {
			return false
		}
	}
	return len(p.Collections) > 0
}

func idPrefix(action rules.Action) string {
	if action == rules.ActionDeny {
		return "DENY"
	}
	return "ALLOW"
}
