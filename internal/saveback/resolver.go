package saveback

import (
	"context"
	"fmt"

	"form_sheets/internal/sheets"

	"github.com/rs/zerolog/log"
)

// RowReader reads the current rows of a sheet.
type RowReader interface {
	GetRows(ctx context.Context, ref sheets.SheetRef) ([][]string, error)
}

// Store receives copied cell values.
type Store interface {
	SetField(ctx context.Context, recordID, field, value string) error
}

type Saved struct {
	FieldName string `json:"field"`
	Value     string `json:"value"`
	Row       int    `json:"row"`
	Column    int    `json:"column"`
}

type Skipped struct {
	FieldName string `json:"field"`
	Reason    string `json:"reason"`
}

// Report lists what a save-back pass copied and what it passed over.
type Report struct {
	Saved   []Saved   `json:"saved"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

type Resolver struct {
	rows  RowReader
	store Store
}

func NewResolver(rows RowReader, store Store) *Resolver {
	return &Resolver{rows: rows, store: store}
}

// Apply copies each addressed cell into recordID. Every address triggers a
// fresh read so it resolves against the sheet as it is now. Missing rows,
// missing columns and empty cells are skipped. The first read or store
// failure ends the pass; the report holds what was already written.
func (r *Resolver) Apply(ctx context.Context, ref sheets.SheetRef, recordID string, addrs []CellAddress) (Report, error) {
	var report Report

	for _, addr := range addrs {
		if addr.FieldName == "" {
			continue
		}

		rows, err := r.rows.GetRows(ctx, ref)
		if err != nil {
			return report, fmt.Errorf("failed to read rows for %s: %w", addr.FieldName, err)
		}

		row := addr.Row.Resolve(len(rows))
		value, reason := cellAt(rows, row, addr.Column)
		if reason != "" {
			log.Debug().
				Str("field", addr.FieldName).
				Str("row_spec", addr.Row.String()).
				Int("row", row+1).
				Int("column", addr.Column+1).
				Str("reason", reason).
				Msg("Skipping save-back cell")
			report.Skipped = append(report.Skipped, Skipped{FieldName: addr.FieldName, Reason: reason})
			continue
		}

		if err := r.store.SetField(ctx, recordID, addr.FieldName, value); err != nil {
			return report, fmt.Errorf("failed to save field %s on record %s: %w", addr.FieldName, recordID, err)
		}

		log.Debug().
			Str("record_id", recordID).
			Str("field", addr.FieldName).
			Str("cell", fmt.Sprintf("%s%d", sheets.ColumnLetters(addr.Column), row+1)).
			Msg("Saved cell to record")
		report.Saved = append(report.Saved, Saved{FieldName: addr.FieldName, Value: value, Row: row + 1, Column: addr.Column + 1})
	}

	return report, nil
}

func cellAt(rows [][]string, row, column int) (string, string) {
	if row < 0 || row >= len(rows) || len(rows[row]) == 0 {
		return "", "row absent"
	}
	if column >= len(rows[row]) {
		return "", "column out of range"
	}
	if rows[row][column] == "" {
		return "", "cell empty"
	}
	return rows[row][column], ""
}
