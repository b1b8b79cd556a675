package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// SheetRef identifies one tab within one spreadsheet.
type SheetRef struct {
	SpreadsheetID string
	SheetName     string
}

func (r SheetRef) String() string {
	return r.SpreadsheetID + "/" + r.SheetName
}

// Range prefixes a sheet-local A1 range with the quoted sheet name.
// An empty a1 addresses the whole sheet.
func (r SheetRef) Range(a1 string) string {
	name := quoteSheetName(r.SheetName)
	switch {
	case name == "":
		return a1
	case a1 == "":
		return name
	default:
		return name + "!" + a1
	}
}

// quoteSheetName always wraps the name in single quotes, doubling embedded
// quotes. Unquoted names shaped like cells ("Q1", "AB12") would be read as
// a single cell of the first sheet.
func quoteSheetName(name string) string {
	name = strings.Trim(name, "'")
	if name == "" {
		return ""
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// rowStart returns the A1 address of column A on the given one-based row.
func rowStart(row int) string {
	return fmt.Sprintf("A%d", row)
}

// rowSpan returns the A1 range covering the whole of the given one-based row.
func rowSpan(row int) string {
	return fmt.Sprintf("%d:%d", row, row)
}

// ColumnLetters converts a zero-based column index to its A1 letters (0 -> A, 26 -> AA).
func ColumnLetters(col int) string {
	var letters []byte
	for col >= 0 {
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col = col/26 - 1
	}
	return string(letters)
}

// parseCell splits a sheet-local A1 cell such as "C12" into zero-based column and row.
func parseCell(a1 string) (col, row int, err error) {
	i := 0
	col = 0
	for i < len(a1) && a1[i] >= 'A' && a1[i] <= 'Z' {
		col = col*26 + int(a1[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(a1) {
		return 0, 0, fmt.Errorf("invalid cell address %q", a1)
	}
	n, err := strconv.Atoi(a1[i:])
	if err != nil || n < 1 {
		return 0, 0, fmt.Errorf("invalid cell address %q", a1)
	}
	return col - 1, n - 1, nil
}

// parseRowSpan parses a whole-row range such as "4:6" into zero-based bounds (inclusive).
func parseRowSpan(a1 string) (first, last int, err error) {
	parts := strings.Split(a1, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid row range %q", a1)
	}
	from, err1 := strconv.Atoi(parts[0])
	to, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || from < 1 || to < from {
		return 0, 0, fmt.Errorf("invalid row range %q", a1)
	}
	return from - 1, to - 1, nil
}
