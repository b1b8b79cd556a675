// Package saveback copies cells out of a sheet into the record that
// submitted the row, following mappings such as "last-1x4:total".
package saveback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"form_sheets/internal/rowspec"
)

var ErrMalformedSaveMapping = errors.New("malformed save mapping")

// CellAddress names a cell to copy and the record field that receives it.
type CellAddress struct {
	Row rowspec.Spec
	// Column is zero-based; mappings are written one-based.
	Column    int
	FieldName string
}

// ParseAddresses parses a comma or newline separated list of mappings.
// Each mapping is "<row> x <column> : <field>" or "<row>:<column>:<field>".
// Mappings with an empty field name are dropped.
func ParseAddresses(raw string) ([]CellAddress, error) {
	entries := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	var addrs []CellAddress
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		addr, keep, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		if keep {
			addrs = append(addrs, addr)
		}
	}
	return addrs, nil
}

func parseEntry(entry string) (CellAddress, bool, error) {
	parts := strings.Split(entry, ":")
	if len(parts) == 2 {
		row, column, ok := splitRowColumn(parts[0])
		if !ok {
			return CellAddress{}, false, fmt.Errorf("%w %q: missing row x column separator", ErrMalformedSaveMapping, entry)
		}
		parts = []string{row, column, parts[1]}
	}
	if len(parts) != 3 {
		return CellAddress{}, false, fmt.Errorf("%w %q: expected row, column and field name", ErrMalformedSaveMapping, entry)
	}

	fieldName := strings.TrimSpace(parts[2])
	if fieldName == "" {
		return CellAddress{}, false, nil
	}

	column, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || column < 1 {
		return CellAddress{}, false, fmt.Errorf("%w %q: column %q is not a positive integer", ErrMalformedSaveMapping, entry, strings.TrimSpace(parts[1]))
	}

	row, err := rowspec.Parse(parts[0])
	if err != nil {
		return CellAddress{}, false, fmt.Errorf("%w %q: %w", ErrMalformedSaveMapping, entry, err)
	}

	return CellAddress{Row: row, Column: column - 1, FieldName: fieldName}, true, nil
}

// splitRowColumn splits "last-1x4" on its final x (or ×).
func splitRowColumn(s string) (row, column string, ok bool) {
	i := strings.LastIndexAny(s, "xX×")
	if i < 0 {
		return "", "", false
	}
	_, width := utf8.DecodeRuneInString(s[i:])
	return s[:i], s[i+width:], true
}
