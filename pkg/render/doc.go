// Package render serializes assembled policies into their wire formats: the
// AppLocker policy XML schema and the WDAC SIPolicy schema (namespace
// urn:schemas-microsoft-com:sipolicy). Renderers own element and attribute
// naming and ordering; they consume finished, immutable rule values and never
// modify them.
package render
