package rules

// CollectionType identifies the partition of rules by target file kind.
type CollectionType string

const (
	// CollectionExe covers executable files (.exe, .com).
	CollectionExe CollectionType = "Exe"

	// CollectionDll covers libraries (.dll, .ocx).
	CollectionDll CollectionType = "Dll"

	// CollectionScript covers scripts (.ps1, .bat, .cmd, .vbs, .js).
	CollectionScript CollectionType = "Script"

	// CollectionMsi covers Windows Installer packages (.msi, .msp, .mst).
	CollectionMsi CollectionType = "Msi"

	// CollectionAppx covers packaged apps.
	CollectionAppx CollectionType = "Appx"
)

// AllCollectionTypes lists every collection type in canonical order.
// Policies built from the default template declare exactly these collections.
var AllCollectionTypes = []CollectionType{
	CollectionExe,
	CollectionDll,
	CollectionScript,
	CollectionMsi,
	CollectionAppx,
}

// Valid returns true if the collection type is one of the declared types.
func (c CollectionType) Valid() bool {
	for _, t := range AllCollectionTypes {
		if c == t {
			return true
		}
	}
	return false
}

// EnforcementMode controls whether a rule collection audits or enforces.
type EnforcementMode string

const (
	// ModeNotConfigured leaves the collection without an explicit mode.
	ModeNotConfigured EnforcementMode = "NotConfigured"

	// ModeAuditOnly logs violations without blocking execution.
	ModeAuditOnly EnforcementMode = "AuditOnly"

	// ModeEnabled blocks execution of files not matched by an allow rule.
	ModeEnabled EnforcementMode = "Enabled"
)

// Action is the effect of a rule on matching files.
type Action string

const (
	// ActionAllow permits execution of matching files.
	ActionAllow Action = "Allow"

	// ActionDeny blocks execution of matching files.
	ActionDeny Action = "Deny"
)
