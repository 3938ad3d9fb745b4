package records

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labelforge/labelforge/pkg/errors"
)

func writeCSV(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ids.csv")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVSourceLoad(t *testing.T) {
	path := writeCSV(t, []byte("id,qr_value,barcode_value\nBOX-001,https://ex.am/BOX-001,12345\nBOX-002,,\n"))

	recs, warnings, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	if recs[0].QRValue != "https://ex.am/BOX-001" || recs[0].BarcodeValue != "12345" {
		t.Errorf("explicit values not kept: %+v", recs[0])
	}
	// Missing optional values fall back to the id.
	if recs[1].QRValue != "BOX-002" || recs[1].BarcodeValue != "BOX-002" {
		t.Errorf("fallback values wrong: %+v", recs[1])
	}
	if recs[1].Line != 3 {
		t.Errorf("Line = %d, want 3", recs[1].Line)
	}
}

func TestCSVSourceSkipsAndWarns(t *testing.T) {
	path := writeCSV(t, []byte("id\nBOX-001\n\n  \nBOX-002\n,\n"))

	recs, warnings, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}
	// Rows with no content at all are dropped without warning.
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestCSVSourceEmptyID(t *testing.T) {
	path := writeCSV(t, []byte("id,qr_value\n,orphan\nBOX-001,\n"))

	recs, warnings, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "BOX-001" {
		t.Errorf("records = %+v", recs)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "row 2") {
		t.Errorf("warnings = %v, want one about row 2", warnings)
	}
}

func TestCSVSourceErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		wantCode errors.Code
	}{
		{"missing id column", []byte("name,value\na,b\n"), errors.ErrCodeInvalidFormat},
		{"empty file", []byte(""), errors.ErrCodeInvalidFormat},
		{"only skipped rows", []byte("id\n\n \n"), errors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			_, _, err := NewCSVSource(path).Load(context.Background())
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Load() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"))
	_, _, err := src.Load(context.Background())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

// TestCSVSourceEncodings feeds the same row in lossy legacy encodings and a
// BOM-prefixed UTF-8 file. All of them must decode.
func TestCSVSourceEncodings(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		wantID  string
	}{
		{
			name:    "utf8 with bom",
			content: append([]byte{0xEF, 0xBB, 0xBF}, []byte("id\nBOX-001\n")...),
			wantID:  "BOX-001",
		},
		{
			name: "latin1 umlaut",
			// "id\nBÖX\n" with Ö as the single Latin-1 byte 0xD6.
			content: []byte{'i', 'd', '\n', 'B', 0xD6, 'X', '\n'},
			wantID:  "BÖX",
		},
		{
			name: "cp1252 euro sign",
			// 0x80 is the euro sign in Windows-1252 and undefined in UTF-8.
			content: []byte{'i', 'd', '\n', 0x80, '-', '1', '\n'},
			wantID:  "€-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, tt.content)
			recs, _, err := NewCSVSource(path).Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(recs) != 1 || recs[0].ID != tt.wantID {
				t.Errorf("records = %+v, want one with id %q", recs, tt.wantID)
			}
		})
	}
}

func TestCSVSourceMarkerID(t *testing.T) {
	path := writeCSV(t, []byte("id,marker_id\nA,7\nB,\nC,x\n"))

	recs, warnings, err := NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].MarkerID == nil || *recs[0].MarkerID != 7 {
		t.Errorf("record A marker id = %v, want 7", recs[0].MarkerID)
	}
	if recs[1].MarkerID != nil {
		t.Errorf("record B marker id = %v, want nil", *recs[1].MarkerID)
	}
	// Non-numeric marker ids warn and leave the field unset.
	if recs[2].MarkerID != nil {
		t.Errorf("record C marker id = %v, want nil", *recs[2].MarkerID)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "non-numeric") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestAssignMarkerIDs(t *testing.T) {
	seven := 7
	recs := []Record{
		{ID: "A"},
		{ID: "B", MarkerID: &seven},
		{ID: "C"},
	}

	AssignMarkerIDs(recs, true, 100)

	if recs[0].MarkerID == nil || *recs[0].MarkerID != 100 {
		t.Errorf("record A marker id = %v, want 100", recs[0].MarkerID)
	}
	if *recs[1].MarkerID != 7 {
		t.Errorf("explicit marker id overwritten: %v", *recs[1].MarkerID)
	}
	if recs[2].MarkerID == nil || *recs[2].MarkerID != 102 {
		t.Errorf("record C marker id = %v, want 102", recs[2].MarkerID)
	}
}

func TestAssignMarkerIDsDisabled(t *testing.T) {
	recs := []Record{{ID: "A"}}
	AssignMarkerIDs(recs, false, 0)
	if recs[0].MarkerID != nil {
		t.Error("marker id assigned with auto-assign disabled")
	}
}
