// Package csvrows reads an uploaded CSV payload into raw rows keyed by
// lower-cased column name.
package csvrows

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"spx_backend/internal/feature/series/domain"
	"spx_backend/internal/feature/series/domain/normalize"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read parses r as comma-delimited UTF-8 text with a header row.
// Missing required columns, an empty payload or non-tabular content are
// reported as domain.ErrInvalidInput. Short rows are padded with empty cells.
func Read(r io.Reader) ([]normalize.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrInvalidInput)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: file is not UTF-8 text", domain.ErrInvalidInput)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", domain.ErrInvalidInput, err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: CSV must contain columns: %s (missing: %s)",
			domain.ErrInvalidInput,
			strings.Join(normalize.RequiredColumns, ", "),
			strings.Join(missing, ", "))
	}

	var rows []normalize.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed CSV: %v", domain.ErrInvalidInput, err)
		}
		if isBlank(rec) {
			continue
		}
		row := make(normalize.RawRow, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func missingColumns(header []string) []string {
	var missing []string
	for _, col := range normalize.RequiredColumns {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
