package sheets

import (
	"context"
	"fmt"

	"form_sheets/internal/rowspec"

	"github.com/rs/zerolog/log"
)

// Placement describes where a row operation landed.
type Placement struct {
	Ref SheetRef
	// Index is the zero-based row index, Row the one-based sheet row.
	Index int
	Row   int
	// LastRowCount is the row count read before the mutation.
	LastRowCount int
	// Shifted is set when existing rows were moved down to open the slot.
	Shifted bool
}

// Engine inserts, updates and clears rows addressed by row specifiers.
// It holds no state: every call starts from a fresh read of the sheet.
type Engine struct {
	tab Tabular
}

func NewEngine(tab Tabular) *Engine {
	return &Engine{tab: tab}
}

func (e *Engine) rowCount(ctx context.Context, ref SheetRef) (int, error) {
	rows, err := e.tab.GetRows(ctx, ref)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// InsertRow writes values as a new row so that, once written, the row sits at
// the index the specifier names in the grown sheet. "last" appends, "first"
// pushes every existing row down by one.
//
// The dimension insert and the value write are separate calls. If the write
// fails the sheet keeps the blank row that was opened for it.
func (e *Engine) InsertRow(ctx context.Context, values []string, spec rowspec.Spec, ref SheetRef) (Placement, error) {
	lastRowCount, err := e.rowCount(ctx, ref)
	if err != nil {
		return Placement{}, err
	}

	target := spec.Resolve(lastRowCount + 1)
	if target < 0 || target > lastRowCount {
		return Placement{}, fmt.Errorf("%w: %q resolves to %d, insert accepts 0..%d", ErrRowOutOfRange, spec, target, lastRowCount)
	}

	idx := target + 1
	placement := Placement{Ref: ref, Index: target, Row: idx, LastRowCount: lastRowCount}

	if idx <= lastRowCount {
		log.Debug().
			Str("sheet", ref.SheetName).
			Int("row", idx).
			Int("last_row", lastRowCount).
			Msg("Shifting rows down to open insert slot")

		// Only a single row is opened; rows idx..lastRowCount move down by one.
		if err := e.tab.InsertDimension(ctx, ref, idx-1, idx, idx > 1); err != nil {
			return placement, err
		}
		placement.Shifted = true
	}

	if err := e.tab.WriteValues(ctx, ref, rowStart(idx), [][]string{values}, UserEntered); err != nil {
		if placement.Shifted {
			log.Warn().
				Err(err).
				Str("sheet", ref.SheetName).
				Int("row", idx).
				Msg("Row write failed after shifting; blank row left in place")
		}
		return placement, err
	}

	log.Debug().
		Str("sheet", ref.SheetName).
		Str("specifier", spec.String()).
		Int("row", idx).
		Bool("shifted", placement.Shifted).
		Int("columns", len(values)).
		Msg("Inserted row")
	return placement, nil
}

// UpdateRow overwrites the values of an existing row in place.
func (e *Engine) UpdateRow(ctx context.Context, values []string, ref SheetRef, spec rowspec.Spec) (Placement, error) {
	placement, err := e.existingRow(ctx, ref, spec)
	if err != nil {
		return placement, err
	}

	if err := e.tab.WriteValues(ctx, ref, rowStart(placement.Row), [][]string{values}, UserEntered); err != nil {
		return placement, err
	}

	log.Debug().
		Str("sheet", ref.SheetName).
		Str("specifier", spec.String()).
		Int("row", placement.Row).
		Msg("Updated row")
	return placement, nil
}

// DeleteRow clears the values of a row. The row itself stays, so rows below
// keep their positions.
func (e *Engine) DeleteRow(ctx context.Context, ref SheetRef, spec rowspec.Spec) (Placement, error) {
	placement, err := e.existingRow(ctx, ref, spec)
	if err != nil {
		return placement, err
	}

	if err := e.tab.ClearValues(ctx, ref, rowSpan(placement.Row)); err != nil {
		return placement, err
	}

	log.Debug().
		Str("sheet", ref.SheetName).
		Str("specifier", spec.String()).
		Int("row", placement.Row).
		Msg("Cleared row")
	return placement, nil
}

func (e *Engine) existingRow(ctx context.Context, ref SheetRef, spec rowspec.Spec) (Placement, error) {
	lastRowCount, err := e.rowCount(ctx, ref)
	if err != nil {
		return Placement{}, err
	}

	idx := spec.Resolve(lastRowCount)
	if idx < 0 || idx >= lastRowCount {
		return Placement{}, fmt.Errorf("%w: %q resolves to %d, sheet has %d rows", ErrRowOutOfRange, spec, idx, lastRowCount)
	}
	return Placement{Ref: ref, Index: idx, Row: idx + 1, LastRowCount: lastRowCount}, nil
}
