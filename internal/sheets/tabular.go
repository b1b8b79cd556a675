package sheets

import "context"

type ValueInputOption string

const (
	// Raw stores values as literal text.
	Raw ValueInputOption = "RAW"
	// UserEntered lets the service parse numbers, dates and formulas.
	UserEntered ValueInputOption = "USER_ENTERED"
)

// Tabular is the set of remote operations the row engine needs.
// Ranges are sheet local ("A5", "5:5"); implementations qualify them with the sheet name.
type Tabular interface {
	GetRows(ctx context.Context, ref SheetRef) ([][]string, error)
	InsertDimension(ctx context.Context, ref SheetRef, startIndex, endIndex int, inheritFromBefore bool) error
	WriteValues(ctx context.Context, ref SheetRef, rangeA1 string, values [][]string, opt ValueInputOption) error
	ClearValues(ctx context.Context, ref SheetRef, rangeA1 string) error
}

// Directory turns configured spreadsheet and sheet names into a SheetRef.
// An empty sheet name selects the first tab.
type Directory interface {
	ResolveSheet(ctx context.Context, spreadsheetID, sheetName string) (SheetRef, error)
}

// Backend is a spreadsheet service usable by the submission pipeline.
type Backend interface {
	Tabular
	Directory
}
