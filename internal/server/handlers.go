package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"form_sheets/internal/sheets"
	"form_sheets/internal/submission"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type placementResponse struct {
	Hook      string `json:"hook"`
	SheetName string `json:"sheet_name"`
	Row       int    `json:"row"`
}

type updateRequest struct {
	Values []string `json:"values"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	hook := chi.URLParam(r, "hook")

	var sub submission.Submission
	if err := decodeBody(w, r, &sub); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if sub.EntryID == "" {
		sub.EntryID = uuid.NewString()
	}

	result, err := s.pipeline.Submit(r.Context(), hook, sub)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	hook := chi.URLParam(r, "hook")
	rowSpec, ok := rowParam(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(req.Values) == 0 {
		writeError(w, r, http.StatusBadRequest, errors.New("values must not be empty"))
		return
	}

	placement, err := s.pipeline.UpdateRow(r.Context(), hook, rowSpec, req.Values)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toPlacementResponse(hook, placement))
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	hook := chi.URLParam(r, "hook")
	rowSpec, ok := rowParam(w, r)
	if !ok {
		return
	}

	placement, err := s.pipeline.DeleteRow(r.Context(), hook, rowSpec)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toPlacementResponse(hook, placement))
}

func (s *Server) handleRecordFields(w http.ResponseWriter, r *http.Request) {
	hook := chi.URLParam(r, "hook")

	fields, err := s.pipeline.RecordFields(r.Context(), hook)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

func rowParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	rowSpec := r.URL.Query().Get("row")
	if rowSpec == "" {
		writeError(w, r, http.StatusBadRequest, errors.New("missing row query parameter"))
		return "", false
	}
	return rowSpec, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func toPlacementResponse(hook string, p sheets.Placement) placementResponse {
	return placementResponse{Hook: hook, SheetName: p.Ref.SheetName, Row: p.Row}
}
