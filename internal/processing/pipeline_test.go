package processing

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"form_sheets/internal/config"
	"form_sheets/internal/notifications"
	"form_sheets/internal/records"
	"form_sheets/internal/rowspec"
	"form_sheets/internal/saveback"
	"form_sheets/internal/sheets"
	"form_sheets/internal/submission"
)

const testForms = `
[[forms]]
record_id = "post-9"
hook = "donation"
spreadsheet_id = "book"
sheet_name = "Donations"
exclude = "consent"
saves = "%last%x4:receipt_url, last x 2:last_donor"
timestamp = true

[[forms]]
hook = "top"
spreadsheet_id = "book"
insert = "first"

[[forms]]
hook = "orphan"

[[forms]]
hook = "bad_saves"
spreadsheet_id = "book"
saves = "last:4"

[[forms]]
hook = "no_record"
spreadsheet_id = "book"
sheet_name = "Donations"
saves = "last x 1:name"

[[forms]]
hook = "bad_insert"
spreadsheet_id = "book"
insert = "middle"
`

type recordingNotifier struct {
	mu    sync.Mutex
	infos []notifications.RowInfo
}

func (r *recordingNotifier) NotifyRowStored(ctx context.Context, info notifications.RowInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, info)
}

type fixture struct {
	mem      *sheets.Memory
	store    *records.Memory
	notifier *recordingNotifier
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalogue, err := config.ParseForms([]byte(testForms))
	if err != nil {
		t.Fatalf("Failed to parse forms: %v", err)
	}

	mem := sheets.NewMemory()
	mem.AddSheet("book", "Donations", [][]string{
		{"when", "name", "amount", "total"},
		{"01/11/2022 10:00:00", "Alice", "10", "=SUM(C$2:C2)"},
	})
	mem.AddSheet("book", "Second", nil)

	store := records.NewMemory()
	notifier := &recordingNotifier{}
	now := time.Date(2022, time.November, 5, 14, 30, 0, 0, time.UTC)

	pipeline := NewPipeline(catalogue, mem, store, Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
		Notifier: notifier,
	})
	return &fixture{mem: mem, store: store, notifier: notifier, pipeline: pipeline}
}

func donation(name, amount string) submission.Submission {
	return submission.Submission{
		EntryID: "entry-1",
		Fields: []submission.Field{
			{ID: "name", Kind: "text", DisplayText: name},
			{ID: "amount", Kind: "number", DisplayText: amount},
			{ID: "consent", Kind: "checkbox", DisplayText: "yes"},
			{ID: "receipt", Kind: "file", DisplayText: `<a href="https://files.example/r.pdf">r.pdf</a>`},
		},
	}
}

func TestSubmitAppendsRowAndSavesBack(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Submit(context.Background(), "donation", donation("Bob", "5"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Row != 3 || result.Shifted {
		t.Errorf("Expected append at row 3 without shift, got row %d shifted=%v", result.Row, result.Shifted)
	}

	rows := f.mem.Snapshot(sheets.SheetRef{SpreadsheetID: "book", SheetName: "Donations"})
	expected := []string{"05/11/2022 14:30:00", "Bob", "5", "https://files.example/r.pdf"}
	if !reflect.DeepEqual(rows[2], expected) {
		t.Errorf("Expected row %v, got %v", expected, rows[2])
	}

	fields, _ := f.store.Fields(context.Background(), "post-9")
	if fields["receipt_url"] != "https://files.example/r.pdf" {
		t.Errorf("Expected column D of the new row to be saved, got %q", fields["receipt_url"])
	}
	if fields["last_donor"] != "Bob" {
		t.Errorf("Expected last_donor Bob, got %q", fields["last_donor"])
	}
	if len(result.SaveBack.Saved) != 2 {
		t.Errorf("Expected 2 saved fields, got %+v", result.SaveBack)
	}

	if len(f.notifier.infos) != 1 || f.notifier.infos[0].Row != 3 || f.notifier.infos[0].Saved != 2 {
		t.Errorf("Unexpected notifications: %+v", f.notifier.infos)
	}
}

func TestSubmitFirstShiftsRows(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Submit(context.Background(), "top", donation("Cara", "7"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Row != 1 || !result.Shifted || result.SheetName != "Donations" {
		t.Errorf("Expected first tab row 1 shifted, got %+v", result)
	}

	rows := f.mem.Snapshot(sheets.SheetRef{SpreadsheetID: "book", SheetName: "Donations"})
	if len(rows) != 3 || rows[0][0] != "Cara" || rows[1][0] != "when" {
		t.Errorf("Expected new row on top of the header, got %v", rows)
	}
}

func TestSubmitEmptyIsSkipped(t *testing.T) {
	f := newFixture(t)

	result, err := f.pipeline.Submit(context.Background(), "donation", submission.Submission{EntryID: "e"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.Skipped {
		t.Error("Expected submission to be skipped")
	}
	if calls := f.mem.Calls(); len(calls) != 0 {
		t.Errorf("Expected no sheet calls, got %v", calls)
	}
}

func TestSubmitConfigurationErrorsBeforeRemoteCalls(t *testing.T) {
	tests := []struct {
		hook string
		want error
	}{
		{"missing", ErrUnknownHook},
		{"orphan", sheets.ErrMissingSpreadsheetID},
		{"bad_saves", saveback.ErrMalformedSaveMapping},
		{"bad_insert", rowspec.ErrMalformedRowSpecifier},
		{"no_record", records.ErrMissingRecordID},
	}

	for _, tt := range tests {
		f := newFixture(t)
		_, err := f.pipeline.Submit(context.Background(), tt.hook, donation("Bob", "5"))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.hook, tt.want, err)
		}
		if calls := f.mem.Calls(); len(calls) != 0 {
			t.Errorf("%s: expected no sheet calls, got %v", tt.hook, calls)
		}
	}
}

func TestSubmitTransportFailureSkipsSaveBack(t *testing.T) {
	f := newFixture(t)
	f.mem.FailOn("write_values", errors.New("backend unavailable"))

	_, err := f.pipeline.Submit(context.Background(), "donation", donation("Bob", "5"))
	if !errors.Is(err, sheets.ErrTransport) {
		t.Fatalf("Expected transport error, got %v", err)
	}
	fields, _ := f.store.Fields(context.Background(), "post-9")
	if len(fields) != 0 {
		t.Errorf("Expected no saved fields, got %v", fields)
	}
	if len(f.notifier.infos) != 0 {
		t.Errorf("Expected no notification, got %+v", f.notifier.infos)
	}
}

func TestUpdateAndDeleteRow(t *testing.T) {
	f := newFixture(t)
	ref := sheets.SheetRef{SpreadsheetID: "book", SheetName: "Donations"}

	placement, err := f.pipeline.UpdateRow(context.Background(), "donation", "last", []string{"x", "Alicia"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if placement.Row != 2 {
		t.Errorf("Expected row 2, got %d", placement.Row)
	}
	if got := f.mem.Snapshot(ref)[1][1]; got != "Alicia" {
		t.Errorf("Expected updated name, got %q", got)
	}

	if _, err := f.pipeline.DeleteRow(context.Background(), "donation", "first"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rows := f.mem.Snapshot(ref); len(rows[0]) != 0 && rows[0][0] != "" {
		t.Errorf("Expected header row to be cleared, got %v", rows[0])
	}

	if _, err := f.pipeline.DeleteRow(context.Background(), "donation", "last+3"); !errors.Is(err, sheets.ErrRowOutOfRange) {
		t.Errorf("Expected ErrRowOutOfRange, got %v", err)
	}
	if _, err := f.pipeline.UpdateRow(context.Background(), "donation", "2 + ", nil); !errors.Is(err, rowspec.ErrMalformedRowSpecifier) {
		t.Errorf("Expected ErrMalformedRowSpecifier, got %v", err)
	}
}

func TestRecordFields(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipeline.Submit(context.Background(), "donation", donation("Bob", "5")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	fields, err := f.pipeline.RecordFields(context.Background(), "donation")
	if err != nil || fields["last_donor"] != "Bob" {
		t.Errorf("Expected saved fields, got %v (%v)", fields, err)
	}
	if _, err := f.pipeline.RecordFields(context.Background(), "top"); !errors.Is(err, records.ErrMissingRecordID) {
		t.Errorf("Expected ErrMissingRecordID, got %v", err)
	}
}

func TestSubmitSavesWithoutRecordLeavesSheetUntouched(t *testing.T) {
	f := newFixture(t)
	ref := sheets.SheetRef{SpreadsheetID: "book", SheetName: "Donations"}
	before := f.mem.Snapshot(ref)

	_, err := f.pipeline.Submit(context.Background(), "no_record", donation("Bob", "5"))
	if !errors.Is(err, records.ErrMissingRecordID) {
		t.Fatalf("Expected ErrMissingRecordID, got %v", err)
	}
	for _, call := range f.mem.Calls() {
		if strings.HasPrefix(call, "write_values") || strings.HasPrefix(call, "insert_dimension") {
			t.Errorf("Expected no sheet mutation, got %q", call)
		}
	}
	if after := f.mem.Snapshot(ref); !reflect.DeepEqual(before, after) {
		t.Errorf("Expected sheet unchanged, got %v", after)
	}
}
