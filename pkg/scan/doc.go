// Package scan defines the scan-time input model for rule synthesis: per-file
// scan records produced by the external filesystem/signature scanner,
// writable-directory entries with their ACL grantees, CSV inventory
// persistence, and the plain-text exclusion list written by the reducer and
// read back on subsequent runs.
//
// Signature verification and hashing are owned by the OS scanner upstream;
// this package only carries their already-computed results.
package scan
