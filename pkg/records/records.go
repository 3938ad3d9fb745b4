// Package records loads the identifier records a sheet is generated from.
//
// A record carries the label's identifier plus optional per-code payload
// overrides. Sources are line oriented: CSV files are the common case,
// MongoDB collections the shared-infrastructure one. Loading is lenient
// where the input is recoverable (blank ids are skipped with a warning) and
// strict where it is not (a missing id column rejects the whole file).
package records

import "context"

// Record is one identifier row. QRValue and BarcodeValue fall back to ID
// when the source does not provide them. MarkerID is nil until the source
// or the auto-assignment step sets one.
type Record struct {
	Line         int // 1-based source position, for warnings
	ID           string
	QRValue      string
	BarcodeValue string
	MarkerID     *int
}

// NewRecord builds a record, applying the payload fallbacks.
func NewRecord(line int, id, qrValue, barcodeValue string) Record {
	if qrValue == "" {
		qrValue = id
	}
	if barcodeValue == "" {
		barcodeValue = id
	}
	return Record{Line: line, ID: id, QRValue: qrValue, BarcodeValue: barcodeValue}
}

// Source yields the records for one run. Implementations return the records
// in source order together with warnings for rows they skipped.
type Source interface {
	Load(ctx context.Context) ([]Record, []string, error)
}

// AssignMarkerIDs fills in marker ids for records that do not carry one:
// startIndex plus the record's position in the slice. Records with an
// explicit id keep it. No-op when autoAssign is false.
func AssignMarkerIDs(records []Record, autoAssign bool, startIndex int) {
	if !autoAssign {
		return
	}
	for i := range records {
		if records[i].MarkerID == nil {
			id := startIndex + i
			records[i].MarkerID = &id
		}
	}
}
