package synth

import (
	"acuity-hq/palisade/pkg/rules"
)

// basePathExpressions are the trusted roots the standard allow-list covers.
// User-writable directories under these roots are carved out as exceptions.
var basePathExpressions = []string{
	`%WINDIR%\*`,
	`%PROGRAMFILES%\*`,
}

// PathRules builds the standard allow rules for trusted roots, carrying the
// reducer's writable-directory exclusions as exceptions on every rule.
// The exceptions keep user-writable locations under trusted roots outside the
// allow-list.
func PathRules(exclusions []string, principal string) []*rules.PathRule {
	pathRules := make([]*rules.PathRule, 0, len(basePathExpressions))
	for _, expr := range basePathExpressions {
		pathRules = append(pathRules, &rules.PathRule{
			Properties: rules.Properties{
				Name:        "Path: " + expr,
				Description: "Allow trusted root " + expr + " minus user-writable exclusions",
				Principal:   principal,
				Action:      rules.ActionAllow,
				Collections: []rules.CollectionType{rules.CollectionExe, rules.CollectionDll, rules.CollectionScript},
			},
			Path:       expr,
			Exceptions: append([]string(nil), exclusions...),
		})
	}
	return pathRules
}
