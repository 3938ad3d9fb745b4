package records

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/labelforge/labelforge/pkg/errors"
)

// utf8BOM is the byte order mark some spreadsheet exports prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads records from a CSV file with an "id" header column.
// Optional columns: qr_value, barcode_value, marker_id (aruco_id and
// apriltag_id are accepted as aliases).
type CSVSource struct {
	Path string
}

// NewCSVSource creates a CSV source for the given path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Load reads and parses the file. Rows with a blank id are skipped with a
// warning; an unreadable file or a missing id column fails the load.
func (s *CSVSource) Load(ctx context.Context) ([]Record, []string, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "CSV file %s", s.Path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "read CSV file %s", s.Path)
	}

	text, err := decodeCSVBytes(raw)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode CSV file %s", s.Path)
	}

	return parseCSV(ctx, text)
}

// decodeCSVBytes turns raw file bytes into a string, trying UTF-8 (with or
// without BOM) first, then Windows-1252, then Latin-1. Latin-1 maps every
// byte, so decoding always succeeds eventually.
func decodeCSVBytes(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
		return string(decoded), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func parseCSV(ctx context.Context, text string) ([]Record, []string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "CSV file is empty")
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read CSV header")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, nil, errors.New(errors.ErrCodeInvalidFormat, "CSV file must have an 'id' column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		out      []Record
		warnings []string
	)
	line := 1 // header
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "CSV row %d", line)
		}

		if allBlank(row) {
			continue
		}
		id := field(row, "id")
		if id == "" {
			warnings = append(warnings, fmt.Sprintf("row %d has empty 'id', skipping", line))
			continue
		}

		rec := NewRecord(line, id, field(row, "qr_value"), field(row, "barcode_value"))
		for _, col := range []string{"marker_id", "aruco_id", "apriltag_id"} {
			if v := field(row, col); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("row %d has non-numeric %s %q, ignoring", line, col, v))
					break
				}
				rec.MarkerID = &n
				break
			}
		}
		out = append(out, rec)
	}

	if len(out) == 0 {
		return nil, warnings, errors.New(errors.ErrCodeInvalidFormat, "no valid records found in CSV file")
	}
	return out, warnings, nil
}

func allBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
