package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/googleapi"
)

// Memory is an in-process Backend. It reproduces the read behaviour of the
// Sheets values API: trailing empty cells and trailing empty rows are not
// returned. Useful for tests and for dry runs without credentials.
type Memory struct {
	mu    sync.Mutex
	books map[string]*memoryBook
	fail  map[string]error
	calls []string
}

type memoryBook struct {
	order []string
	tabs  map[string][][]string
}

func NewMemory() *Memory {
	return &Memory{
		books: make(map[string]*memoryBook),
		fail:  make(map[string]error),
	}
}

// AddSheet creates or replaces a tab with a copy of rows.
func (m *Memory) AddSheet(spreadsheetID, sheetName string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[spreadsheetID]
	if !ok {
		book = &memoryBook{tabs: make(map[string][][]string)}
		m.books[spreadsheetID] = book
	}
	if _, exists := book.tabs[sheetName]; !exists {
		book.order = append(book.order, sheetName)
	}
	book.tabs[sheetName] = copyRows(rows)
}

// Snapshot returns every stored row of a tab, including trailing blanks.
func (m *Memory) Snapshot(ref SheetRef) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.tab(ref)
	if err != nil {
		return nil
	}
	return copyRows(*rows)
}

// FailOn makes the named operation ("get_rows", "insert_dimension",
// "write_values", "clear_values", "resolve_sheet") fail with err until cleared
// with a nil err.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Calls lists the operations performed so far, in order.
func (m *Memory) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Memory) record(op, detail string) error {
	if detail != "" {
		m.calls = append(m.calls, op+" "+detail)
	} else {
		m.calls = append(m.calls, op)
	}
	if err, ok := m.fail[op]; ok {
		return newTransportError(strings.ReplaceAll(op, "_", " "), detail, err)
	}
	return nil
}

func (m *Memory) tab(ref SheetRef) (*[][]string, error) {
	book, ok := m.books[ref.SpreadsheetID]
	if !ok {
		return nil, newTransportError("open spreadsheet", ref.SpreadsheetID, &googleapi.Error{
			Code:    http.StatusNotFound,
			Message: "Requested entity was not found.",
		})
	}
	rows, ok := book.tabs[strings.Trim(ref.SheetName, "'")]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, ref.SheetName)
	}
	return &rows, nil
}

func (m *Memory) store(ref SheetRef, rows [][]string) {
	m.books[ref.SpreadsheetID].tabs[strings.Trim(ref.SheetName, "'")] = rows
}

func (m *Memory) ResolveSheet(ctx context.Context, spreadsheetID, sheetName string) (SheetRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spreadsheetID == "" {
		return SheetRef{}, ErrMissingSpreadsheetID
	}
	if err := m.record("resolve_sheet", spreadsheetID); err != nil {
		return SheetRef{}, err
	}

	book, ok := m.books[spreadsheetID]
	if !ok {
		_, err := m.tab(SheetRef{SpreadsheetID: spreadsheetID})
		return SheetRef{}, err
	}

	name := strings.Trim(sheetName, "'")
	if name == "" {
		if len(book.order) == 0 {
			return SheetRef{}, fmt.Errorf("%w: spreadsheet %s has no sheets", ErrSheetNotFound, spreadsheetID)
		}
		name = book.order[0]
	}
	if _, ok := book.tabs[name]; !ok {
		return SheetRef{}, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return SheetRef{SpreadsheetID: spreadsheetID, SheetName: name}, nil
}

func (m *Memory) GetRows(ctx context.Context, ref SheetRef) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("get_rows", ref.Range("")); err != nil {
		return nil, err
	}
	rows, err := m.tab(ref)
	if err != nil {
		return nil, err
	}
	return trimRows(*rows), nil
}

func (m *Memory) InsertDimension(ctx context.Context, ref SheetRef, startIndex, endIndex int, inheritFromBefore bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("insert_dimension", fmt.Sprintf("%d:%d", startIndex, endIndex)); err != nil {
		return err
	}
	rows, err := m.tab(ref)
	if err != nil {
		return err
	}
	if startIndex < 0 || endIndex <= startIndex {
		return newTransportError("insert dimension", ref.SheetName, badRequest("invalid dimension range"))
	}
	if inheritFromBefore && startIndex == 0 {
		return newTransportError("insert dimension", ref.SheetName, badRequest("cannot inherit properties from before the first row"))
	}

	current := *rows
	for len(current) < startIndex {
		current = append(current, nil)
	}
	grown := make([][]string, 0, len(current)+endIndex-startIndex)
	grown = append(grown, current[:startIndex]...)
	for i := startIndex; i < endIndex; i++ {
		grown = append(grown, nil)
	}
	grown = append(grown, current[startIndex:]...)
	m.store(ref, grown)
	return nil
}

func (m *Memory) WriteValues(ctx context.Context, ref SheetRef, rangeA1 string, values [][]string, opt ValueInputOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("write_values", rangeA1); err != nil {
		return err
	}
	rows, err := m.tab(ref)
	if err != nil {
		return err
	}
	col, row, err := parseCell(rangeA1)
	if err != nil {
		return newTransportError("write values", rangeA1, badRequest(err.Error()))
	}

	current := *rows
	for len(current) < row+len(values) {
		current = append(current, nil)
	}
	for i, line := range values {
		target := current[row+i]
		for len(target) < col+len(line) {
			target = append(target, "")
		}
		copy(target[col:], line)
		current[row+i] = target
	}
	m.store(ref, current)
	return nil
}

func (m *Memory) ClearValues(ctx context.Context, ref SheetRef, rangeA1 string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("clear_values", rangeA1); err != nil {
		return err
	}
	rows, err := m.tab(ref)
	if err != nil {
		return err
	}

	current := *rows
	if first, last, err := parseRowSpan(rangeA1); err == nil {
		for i := first; i <= last && i < len(current); i++ {
			current[i] = nil
		}
		m.store(ref, current)
		return nil
	}

	col, row, err := parseCell(rangeA1)
	if err != nil {
		return newTransportError("clear values", rangeA1, badRequest(err.Error()))
	}
	if row < len(current) && col < len(current[row]) {
		current[row][col] = ""
	}
	m.store(ref, current)
	return nil
}

func badRequest(message string) error {
	return &googleapi.Error{Code: http.StatusBadRequest, Message: message}
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// trimRows mirrors what the values API returns: no trailing empty cells and
// no trailing empty rows. Blank rows in the middle come back as empty slices.
func trimRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		out = append(out, append([]string{}, row[:end]...))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

var _ Backend = (*Memory)(nil)

