package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultInsertSpecifier appends new rows at the end of the sheet.
const DefaultInsertSpecifier = "last"

var ErrUnknownForm = errors.New("no form configured for hook")

// Form is the sheet configuration of one form, matched by Hook.
type Form struct {
	RecordID      string `toml:"record_id"`
	Hook          string `toml:"hook"`
	SpreadsheetID string `toml:"spreadsheet_id"`
	// SheetName may be empty to use the first tab.
	SheetName string `toml:"sheet_name"`
	// Exclude is a comma separated list of field IDs left out of the row.
	Exclude string `toml:"exclude"`
	Insert  string `toml:"insert"`
	// Saves lists save-back mappings, e.g. "last-1x4:total, last:5:amount".
	Saves     string `toml:"saves"`
	Timestamp bool   `toml:"timestamp"`
}

// InsertSpecifier returns the configured insert row, defaulting to "last".
func (f Form) InsertSpecifier() string {
	if strings.TrimSpace(f.Insert) == "" {
		return DefaultInsertSpecifier
	}
	return f.Insert
}

type formsFile struct {
	Forms []Form `toml:"forms"`
}

// Catalogue holds every configured form keyed by hook name.
type Catalogue struct {
	forms []Form
	index map[string]int
}

func LoadForms(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forms file: %w", err)
	}
	catalogue, err := ParseForms(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalogue, nil
}

func ParseForms(data []byte) (*Catalogue, error) {
	var file formsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode forms: %w", err)
	}

	catalogue := &Catalogue{index: make(map[string]int)}
	for i, form := range file.Forms {
		form.Hook = strings.TrimSpace(form.Hook)
		if form.Hook == "" {
			return nil, fmt.Errorf("form %d: hook is required", i+1)
		}
		if _, dup := catalogue.index[form.Hook]; dup {
			return nil, fmt.Errorf("form %d: duplicate hook %q", i+1, form.Hook)
		}
		catalogue.index[form.Hook] = len(catalogue.forms)
		catalogue.forms = append(catalogue.forms, form)
	}
	return catalogue, nil
}

func (c *Catalogue) Lookup(hook string) (Form, error) {
	i, ok := c.index[hook]
	if !ok {
		return Form{}, fmt.Errorf("%w %q", ErrUnknownForm, hook)
	}
	return c.forms[i], nil
}

func (c *Catalogue) Forms() []Form {
	return append([]Form(nil), c.forms...)
}
