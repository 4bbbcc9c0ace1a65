package scan

import "strings"

// SignerInfo carries the signer identity of a verified file.
type SignerInfo struct {
	// Publisher is the certificate subject, e.g. "O=CONTOSO, L=REDMOND, ...".
	Publisher string

	// Product is the product name from the version resource.
	Product string

	// Binary is the original binary name from the version resource.
	Binary string

	// Version is the file version string, e.g. "10.0.19041.1".
	Version string
}

// Record is one scanned file or directory. Records are produced by the
// external scanner and are immutable once created; the synthesizer borrows
// them read-only.
type Record struct {
	// Path is the full path of the scanned item.
	Path string

	// IsDirectory marks directory records.
	IsDirectory bool

	// Signer is the verified signer identity, nil for unsigned files.
	Signer *SignerInfo

	// Hash is the hex-encoded content hash, empty if not computed.
	Hash string

	// Length is the file size in bytes.
	Length int64
}

// Signed returns true if the record has a usable signer identity.
func (r *Record) Signed() bool {
	return r.Signer != nil && r.Signer.Publisher != ""
}

// FileName returns the base name of the record's path, using the Windows
// separator the scanner emits.
func (r *Record) FileName() string {
	if i := strings.LastIndexByte(r.Path, '\\'); i >= 0 {
		return r.Path[i+1:]
	}
	return r.Path
}

// AccessRights is the Windows file-system rights bit set carried by an ACE.
type AccessRights uint32

// The subset of FileSystemRights the reducer's alternate-data-stream test
// cares about. Values match the Windows access mask bits.
const (
	RightReadData                 AccessRights = 0x0001
	RightCreateFiles              AccessRights = 0x0002
	RightCreateDirectories        AccessRights = 0x0004
	RightWriteExtendedAttributes  AccessRights = 0x0010
	RightExecuteFile              AccessRights = 0x0020
	RightWriteAttributes          AccessRights = 0x0100
)

// StreamWriteRights is the full bit set a non-admin grantee must hold on a
// directory, via a non-inherited ACE, for the directory to need an
// alternate-data-stream exclusion.
const StreamWriteRights = RightCreateFiles |
	RightCreateDirectories |
	RightWriteExtendedAttributes |
	RightWriteAttributes |
	RightReadData |
	RightExecuteFile

// HasAll returns true if r contains every bit of want.
func (r AccessRights) HasAll(want AccessRights) bool {
	return r&want == want
}

// AccessEntry is one ACE on a writable directory, pre-classified by the
// external admin identity resolver.
type AccessEntry struct {
	// Grantee is the principal the ACE grants rights to.
	Grantee string

	// Rights is the granted rights bit set.
	Rights AccessRights

	// Inherited marks ACEs inherited from a parent rather than set directly.
	Inherited bool

	// Admin marks grantees the admin identity resolver classifies as
	// administrative. The classification policy is opaque to this package.
	Admin bool
}

// WritableDirectory is one user-writable directory found by the scanner.
// Lifecycle is scan-time only: entries are consumed once into exclusion path
// expressions by the reducer.
type WritableDirectory struct {
	// Path is the directory path, lower-cased on construction.
	Path string

	// Entries are the ACEs granting write rights on the directory.
	Entries []AccessEntry
}

// NewWritableDirectory builds a writable-directory entry with the path
// normalized to lower case.
func NewWritableDirectory(path string, entries []AccessEntry) WritableDirectory {
	return WritableDirectory{
		Path:    strings.ToLower(path),
		Entries: entries,
	}
}

// StreamWritable returns true if some non-inherited ACE for a non-admin
// grantee grants the full stream-write bit set on the directory.
func (d WritableDirectory) StreamWritable() bool {
	for _, e := range d.Entries {
		if e.Inherited || e.Admin {
			continue
		}
		if e.Rights.HasAll(StreamWriteRights) {
			return true
		}
	}
	return false
}
