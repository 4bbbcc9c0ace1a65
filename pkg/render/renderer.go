package render

import (
	"io"

	"acuity-hq/palisade/pkg/rules"
)

// Renderer serializes a policy into one wire format.
type Renderer interface {
	// Render writes the serialized policy.
	Render(p *rules.Policy, w io.Writer) error

	// Format returns the renderer's format name for logs and file naming.
	Format() string
}
