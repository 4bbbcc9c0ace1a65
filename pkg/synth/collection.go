package synth

import (
	"strings"

	"acuity-hq/palisade/pkg/rules"
)

// extensionCollections maps file extensions to their rule collection.
// Unknown extensions default to the Exe collection.
var extensionCollections = map[string]rules.CollectionType{
	".exe":  rules.CollectionExe,
	".com":  rules.CollectionExe,
	".scr":  rules.CollectionExe,
	".dll":  rules.CollectionDll,
	".ocx":  rules.CollectionDll,
	".ps1":  rules.CollectionScript,
	".bat":  rules.CollectionScript,
	".cmd":  rules.CollectionScript,
	".vbs":  rules.CollectionScript,
	".js":   rules.CollectionScript,
	".msi":  rules.CollectionMsi,
	".msp":  rules.CollectionMsi,
	".mst":  rules.CollectionMsi,
	".appx": rules.CollectionAppx,
	".msix": rules.CollectionAppx,
}

// CollectionForPath returns the rule collection a scanned file belongs to,
// based on its extension.
func CollectionForPath(path string) rules.CollectionType {
	lower := strings.ToLower(path)
	if i := strings.LastIndexByte(lower, '.'); i >= 0 {
		if c, ok := extensionCollections[lower[i:]]; ok {
			return c
		}
	}
	return rules.CollectionExe
}
