package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"form_sheets/internal/processing"
	"form_sheets/internal/records"
	"form_sheets/internal/rowspec"
	"form_sheets/internal/saveback"
	"form_sheets/internal/sheets"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, processing.ErrUnknownHook):
		return http.StatusNotFound
	case errors.Is(err, rowspec.ErrMalformedRowSpecifier),
		errors.Is(err, saveback.ErrMalformedSaveMapping),
		errors.Is(err, sheets.ErrRowOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sheets.ErrMissingSpreadsheetID),
		errors.Is(err, sheets.ErrSheetNotFound),
		errors.Is(err, records.ErrMissingRecordID),
		sheets.IsNotFound(err):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, sheets.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID := middleware.GetReqID(r.Context())

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("request_id", requestID).
		Msg("Request failed")

	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: requestID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
