// Package reduce collapses the scanned list of user-writable directories into
// the minimal covering set of path-exclusion expressions. Directories covered
// by an already-kept ancestor are dropped, and directories where a non-admin
// grantee can also write an executable alternate data stream get an
// additional stream exclusion.
package reduce
