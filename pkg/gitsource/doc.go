// Package gitsource fetches reference policies from a git repository so
// comparisons can run against a version-controlled baseline instead of a
// local file. It clones the repository once, pulls on demand, and lists the
// policy XML files under the configured path.
package gitsource
