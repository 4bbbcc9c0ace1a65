package scan

import (
	"strings"
	"testing"
)

// TestReadWritableDirectories tests ACE grouping and field parsing.
func TestReadWritableDirectories(t *testing.T) {
	input := strings.Join([]string{
		"path,grantee,rights,inherited,admin",
		`C:\Users\alice\Downloads,alice,0x137,false,false`,
		`C:\Users\alice\Downloads,BUILTIN\Administrators,0x1f01ff,false,true`,
		`C:\ProgramData\Shared,Everyone,0x2,true,false`,
	}, "\n")

	dirs, err := ReadWritableDirectories(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadWritableDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("got %d directories, want 2", len(dirs))
	}

	downloads := dirs[0]
	if downloads.Path != `c:\users\alice\downloads` {
		t.Errorf("path not lower-cased: %q", downloads.Path)
	}
	if len(downloads.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(downloads.Entries))
	}
	if !downloads.StreamWritable() {
		t.Error("full stream-write mask not detected")
	}

	shared := dirs[1]
	if shared.StreamWritable() {
		t.Error("inherited ACE counted toward stream writability")
	}
	if !shared.Entries[0].Inherited {
		t.Error("inherited flag not parsed")
	}
}

// TestReadWritableDirectoriesBadHeader tests header validation.
func TestReadWritableDirectoriesBadHeader(t *testing.T) {
	input := "directory,who,mask,inherited,admin\n"
	if _, err := ReadWritableDirectories(strings.NewReader(input)); err == nil {
		t.Fatal("wrong header accepted")
	}
}

// TestReadWritableDirectoriesBadRights tests the rights parse error path.
func TestReadWritableDirectoriesBadRights(t *testing.T) {
	input := "path,grantee,rights,inherited,admin\n" +
		`C:\x,alice,full-control,false,false` + "\n"
	if _, err := ReadWritableDirectories(strings.NewReader(input)); err == nil {
		t.Fatal("non-numeric rights accepted")
	}
}
