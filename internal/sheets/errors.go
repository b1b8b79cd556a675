package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	ErrMissingSpreadsheetID = errors.New("no spreadsheet ID provided")
	ErrSheetNotFound        = errors.New("sheet not found")
	ErrRowOutOfRange        = errors.New("row out of range")
	ErrTransport            = errors.New("sheets transport failure")
)

// TransportError reports a failed call to the remote spreadsheet service.
type TransportError struct {
	Op         string
	Range      string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to %s %s (HTTP %d): %v", e.Op, e.Range, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Range, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func newTransportError(op, rangeA1 string, err error) *TransportError {
	te := &TransportError{Op: op, Range: rangeA1, Err: err}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		te.StatusCode = gErr.Code
	}
	return te
}

// IsNotFound reports whether err carries an HTTP 404 from the service.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}
