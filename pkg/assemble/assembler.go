package assemble

import (
	"log/slog"

	"github.com/google/uuid"

	"acuity-hq/palisade/pkg/rules"
)

// Fragment is a set of rules produced by one synthesis pass or static
// override, destined for the collections named in each rule's scope.
// The assembler takes ownership of fragment rules when merging.
type Fragment struct {
	// Name identifies the fragment in logs and diagnostics.
	Name string

	Rules []rules.Rule
}

// Output is the result of assembling fragments into a policy: the two
// immutable enforcement-mode artifacts plus accumulated diagnostics.
type Output struct {
	// Audit is the assembled policy with every collection in audit mode.
	Audit *rules.Policy

	// Enforce is the assembled policy with every collection enforcing.
	Enforce *rules.Policy

	Diagnostics rules.Diagnostics
}

// Assembler merges rule fragments into policies.
type Assembler struct {
	logger *slog.Logger
}

// New creates an assembler.
func New(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger.With("component", "assemble")}
}

// Assemble merges the fragments into the base template and emits the audit
// and enforce artifacts. The template itself is not modified.
//
// The assembler does not re-deduplicate across fragments: per-fragment
// uniqueness is the synthesizer's contract. It does guarantee every emitted
// rule a unique identifier, regenerating on collision rather than failing.
// A fragment rule naming a collection the template does not declare is
// skipped with a diagnostic.
func (a *Assembler) Assemble(template *rules.Policy, fragments ...Fragment) *Output {
	out := &Output{}
	assembled := template.Clone()
	seenIDs := make(map[string]bool)

	for _, frag := range fragments {
		merged := 0
		for _, rule := range frag.Rules {
			if !a.scopeDeclared(assembled, rule, frag.Name, &out.Diagnostics) {
				continue
			}
			for _, collection := range rule.Props().Collections {
				emitted := rule.Clone()
				a.stampID(emitted, seenIDs, &out.Diagnostics)
				target := assembled.Collection(collection)
				target.Rules = append(target.Rules, emitted)
				merged++
			}
		}
		a.logger.Debug("fragment merged", "fragment", frag.Name, "rules_emitted", merged)
	}

	out.Audit = assembled.Clone()
	out.Audit.SetEnforcement(rules.ModeAuditOnly)
	out.Enforce = assembled
	out.Enforce.SetEnforcement(rules.ModeEnabled)

	a.logger.Info("policy assembled",
		"policy", template.Name,
		"rules", out.Enforce.RuleCount(),
		"diagnostics", out.Diagnostics.Count(),
	)

	return out
}

// scopeDeclared checks that every collection in the rule's scope exists in
// the assembled policy. A rule naming an undeclared collection is skipped
// entirely so a partial fan-out cannot produce a half-merged rule.
func (a *Assembler) scopeDeclared(p *rules.Policy, rule rules.Rule, fragment string, diags *rules.Diagnostics) bool {
	props := rule.Props()
	if len(props.Collections) == 0 {
		diags.Add(rules.DiagUnknownCollectionType, props.Name,
			"rule in fragment %q has no target collections", fragment)
		return false
	}
	for _, collection := range props.Collections {
		if p.Collection(collection) == nil {
			diags.Add(rules.DiagUnknownCollectionType, props.Name,
				"fragment %q targets collection %q not declared by the base template", fragment, collection)
			return false
		}
	}
	return true
}

// stampID ensures the emitted rule carries a unique identifier. Rules
// arriving with an identifier keep it unless it collides with one already
// emitted.
func (a *Assembler) stampID(rule rules.Rule, seen map[string]bool, diags *rules.Diagnostics) {
	props := rule.Props()
	if props.ID == "" {
		props.ID = a.freshID(seen)
		seen[props.ID] = true
		return
	}
	if seen[props.ID] {
		old := props.ID
		props.ID = a.freshID(seen)
		diags.Add(rules.DiagDuplicateRuleID, props.Name,
			"identifier %s already emitted, regenerated as %s", old, props.ID)
	}
	seen[props.ID] = true
}

// freshID generates identifiers until one misses the seen set. uuid
// collisions are not a practical concern but the loop keeps the uniqueness
// guarantee unconditional.
func (a *Assembler) freshID(seen map[string]bool) string {
	for {
		id := uuid.New().String()
		if !seen[id] {
			return id
		}
	}
}
