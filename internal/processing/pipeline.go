// Package processing runs form submissions through the sheet and the
// save-back pass.
package processing

import (
	"context"
	"fmt"
	"time"

	"form_sheets/internal/config"
	"form_sheets/internal/notifications"
	"form_sheets/internal/records"
	"form_sheets/internal/rowspec"
	"form_sheets/internal/saveback"
	"form_sheets/internal/sheets"
	"form_sheets/internal/submission"

	"github.com/rs/zerolog/log"
)

var ErrUnknownHook = config.ErrUnknownForm

type Notifier interface {
	NotifyRowStored(ctx context.Context, info notifications.RowInfo)
}

type Options struct {
	// Location is used for row timestamps. Defaults to time.Local.
	Location *time.Location
	// Timeout bounds a whole operation. Zero uses config.DefaultRequestTimeout.
	Timeout  time.Duration
	Now      func() time.Time
	Notifier Notifier
}

type Pipeline struct {
	forms    *config.Catalogue
	backend  sheets.Backend
	engine   *sheets.Engine
	store    records.Store
	saver    *saveback.Resolver
	location *time.Location
	timeout  time.Duration
	now      func() time.Time
	notifier Notifier
}

// Result is the outcome of one submission.
type Result struct {
	Hook    string `json:"hook"`
	EntryID string `json:"entry_id"`
	// Skipped is set for submissions without fields; nothing is written.
	Skipped   bool             `json:"skipped"`
	SheetName string           `json:"sheet_name,omitempty"`
	Row       int              `json:"row,omitempty"`
	Shifted   bool             `json:"shifted"`
	Values    []string         `json:"values,omitempty"`
	SaveBack  saveback.Report  `json:"save_back"`
	Placement sheets.Placement `json:"-"`
}

func NewPipeline(forms *config.Catalogue, backend sheets.Backend, store records.Store, opts Options) *Pipeline {
	p := &Pipeline{
		forms:    forms,
		backend:  backend,
		engine:   sheets.NewEngine(backend),
		store:    store,
		saver:    saveback.NewResolver(backend, store),
		location: opts.Location,
		timeout:  opts.Timeout,
		now:      opts.Now,
		notifier: opts.Notifier,
	}
	if p.location == nil {
		p.location = time.Local
	}
	if p.timeout <= 0 {
		p.timeout = config.DefaultRequestTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

func (p *Pipeline) Form(hook string) (config.Form, error) {
	return p.forms.Lookup(hook)
}

// Submit stores sub as a new row of the sheet configured for hook, then
// copies the configured cells back onto the form's record.
func (p *Pipeline) Submit(ctx context.Context, hook string, sub submission.Submission) (Result, error) {
	form, err := p.forms.Lookup(hook)
	if err != nil {
		return Result{}, err
	}

	result := Result{Hook: hook, EntryID: sub.EntryID}
	if len(sub.Fields) == 0 {
		log.Debug().Str("hook", hook).Str("entry_id", sub.EntryID).Msg("Empty submission, skipping")
		result.Skipped = true
		return result, nil
	}
	if form.SpreadsheetID == "" {
		return result, fmt.Errorf("form %s: %w", hook, sheets.ErrMissingSpreadsheetID)
	}

	// Settings are parsed up front so a bad mapping never follows a write.
	spec, err := rowspec.Parse(form.InsertSpecifier())
	if err != nil {
		return result, fmt.Errorf("form %s insert: %w", hook, err)
	}
	addrs, err := saveback.ParseAddresses(form.Saves)
	if err != nil {
		return result, fmt.Errorf("form %s saves: %w", hook, err)
	}
	if len(addrs) > 0 && form.RecordID == "" {
		return result, fmt.Errorf("form %s saves: %w", hook, records.ErrMissingRecordID)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ref, err := p.backend.ResolveSheet(ctx, form.SpreadsheetID, form.SheetName)
	if err != nil {
		return result, fmt.Errorf("failed to resolve sheet for form %s: %w", hook, err)
	}
	result.SheetName = ref.SheetName

	values := submission.BuildRow(sub.Fields, submission.ParseExclusions(form.Exclude), form.Timestamp, p.now().In(p.location))
	placement, err := p.engine.InsertRow(ctx, values, spec, ref)
	if err != nil {
		return result, fmt.Errorf("failed to insert row for form %s: %w", hook, err)
	}
	result.Placement = placement
	result.Row = placement.Row
	result.Shifted = placement.Shifted
	result.Values = values

	log.Info().
		Str("hook", hook).
		Str("entry_id", sub.EntryID).
		Str("sheet", ref.SheetName).
		Int("row", placement.Row).
		Bool("shifted", placement.Shifted).
		Msg("Stored submission")

	if len(addrs) > 0 {
		report, err := p.saver.Apply(ctx, ref, form.RecordID, addrs)
		result.SaveBack = report
		if err != nil {
			return result, fmt.Errorf("save-back for form %s: %w", hook, err)
		}
		log.Debug().
			Str("hook", hook).
			Int("saved", len(report.Saved)).
			Int("skipped", len(report.Skipped)).
			Msg("Save-back complete")
	}

	if p.notifier != nil {
		p.notifier.NotifyRowStored(ctx, notifications.RowInfo{
			Hook:      hook,
			EntryID:   sub.EntryID,
			SheetName: ref.SheetName,
			Row:       placement.Row,
			Saved:     len(result.SaveBack.Saved),
		})
	}
	return result, nil
}

// UpdateRow overwrites the row rowSpec names in the sheet configured for hook.
func (p *Pipeline) UpdateRow(ctx context.Context, hook, rowSpec string, values []string) (sheets.Placement, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ref, spec, err := p.target(ctx, hook, rowSpec)
	if err != nil {
		return sheets.Placement{}, err
	}

	placement, err := p.engine.UpdateRow(ctx, values, ref, spec)
	if err != nil {
		return placement, fmt.Errorf("failed to update row for form %s: %w", hook, err)
	}
	log.Info().Str("hook", hook).Int("row", placement.Row).Msg("Updated row")
	return placement, nil
}

// DeleteRow clears the row rowSpec names in the sheet configured for hook.
func (p *Pipeline) DeleteRow(ctx context.Context, hook, rowSpec string) (sheets.Placement, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ref, spec, err := p.target(ctx, hook, rowSpec)
	if err != nil {
		return sheets.Placement{}, err
	}

	placement, err := p.engine.DeleteRow(ctx, ref, spec)
	if err != nil {
		return placement, fmt.Errorf("failed to clear row for form %s: %w", hook, err)
	}
	log.Info().Str("hook", hook).Int("row", placement.Row).Msg("Cleared row")
	return placement, nil
}

// RecordFields returns the values saved back onto the record of hook's form.
func (p *Pipeline) RecordFields(ctx context.Context, hook string) (map[string]string, error) {
	form, err := p.forms.Lookup(hook)
	if err != nil {
		return nil, err
	}
	if form.RecordID == "" {
		return nil, fmt.Errorf("form %s: %w", hook, records.ErrMissingRecordID)
	}
	return p.store.Fields(ctx, form.RecordID)
}

// target parses rowSpec and resolves the sheet configured for hook.
func (p *Pipeline) target(ctx context.Context, hook, rowSpec string) (sheets.SheetRef, rowspec.Spec, error) {
	form, err := p.forms.Lookup(hook)
	if err != nil {
		return sheets.SheetRef{}, rowspec.Spec{}, err
	}
	if form.SpreadsheetID == "" {
		return sheets.SheetRef{}, rowspec.Spec{}, fmt.Errorf("form %s: %w", hook, sheets.ErrMissingSpreadsheetID)
	}
	spec, err := rowspec.Parse(rowSpec)
	if err != nil {
		return sheets.SheetRef{}, rowspec.Spec{}, err
	}

	ref, err := p.backend.ResolveSheet(ctx, form.SpreadsheetID, form.SheetName)
	if err != nil {
		return sheets.SheetRef{}, rowspec.Spec{}, fmt.Errorf("failed to resolve sheet for form %s: %w", hook, err)
	}
	return ref, spec, nil
}
