package scan

import (
	"bytes"
	"strings"
	"testing"
)

// TestInventoryRoundTrip tests that written inventories read back intact.
func TestInventoryRoundTrip(t *testing.T) {
	records := []*Record{
		{
			Path: `C:\Program Files\Contoso\app.exe`,
			Signer: &SignerInfo{
				Publisher: "O=CONTOSO, L=REDMOND, S=WASHINGTON, C=US",
				Product:   "CONTOSO APP",
				Binary:    "APP.EXE",
				Version:   "1.0.0.0",
			},
			Hash:   "0x11AA",
			Length: 2048,
		},
		{
			Path:   `C:\Tools\helper.ps1`,
			Hash:   "0x22BB",
			Length: 512,
		},
		{
			Path:        `C:\Tools`,
			IsDirectory: true,
		},
	}

	var buf bytes.Buffer
	if err := WriteInventory(&buf, records); err != nil {
		t.Fatalf("WriteInventory: %v", err)
	}

	got, err := ReadInventory(&buf)
	if err != nil {
		t.Fatalf("ReadInventory: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("read %d records, want %d", len(got), len(records))
	}

	if got[0].Signer == nil || got[0].Signer.Publisher != records[0].Signer.Publisher {
		t.Errorf("signer not preserved: %+v", got[0].Signer)
	}
	if got[1].Signer != nil {
		t.Errorf("unsigned record gained a signer: %+v", got[1].Signer)
	}
	if got[1].Hash != "0x22BB" || got[1].Length != 512 {
		t.Errorf("unsigned record fields = %q/%d, want 0x22BB/512", got[1].Hash, got[1].Length)
	}
	if !got[2].IsDirectory {
		t.Error("directory flag not preserved")
	}
}

// TestReadInventoryRejectsBadHeader tests header validation.
func TestReadInventoryRejectsBadHeader(t *testing.T) {
	input := "path,flag,publisher,product,binary,version,hash,length\n"
	_, err := ReadInventory(strings.NewReader(input))
	if err == nil {
		t.Fatal("ReadInventory accepted a malformed header")
	}
}
