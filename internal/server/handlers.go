package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/Sternrassler/firstnames/pkg/errqueue"
	"github.com/Sternrassler/firstnames/pkg/normalize"
	"github.com/Sternrassler/firstnames/pkg/render"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

// maxLookupBody bounds the size of a pasted name list.
const maxLookupBody = 1 << 20

// LookupRequest is the JSON form of a lookup submission.
type LookupRequest struct {
	Names []string `json:"names"`
}

// LookupResponse is returned by POST /api/lookup.
type LookupResponse struct {
	Names []string     `json:"names"`
	New   []string     `json:"new"`
	Rows  []render.Row `json:"rows"`
}

// ResultsResponse is returned by GET /api/results.
type ResultsResponse struct {
	Rows []render.Row `json:"rows"`
}

// ErrorsResponse is returned by GET /api/errors.
type ErrorsResponse struct {
	Errors []errqueue.Entry `json:"errors"`
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleLookup accepts pasted text (one name per line) or a JSON name list,
// starts the lookups and answers with the current rows without waiting.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	names, err := readNames(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sub := s.service.Submit(r.Context(), names)

	newNames := sub.New
	if newNames == nil {
		newNames = []string{}
	}
	writeJSON(w, r, http.StatusAccepted, LookupResponse{
		Names: names,
		New:   newNames,
		Rows:  render.Rows(s.service.Store(), names),
	})
}

func readNames(w http.ResponseWriter, r *http.Request) ([]string, error) {
	body := http.MaxBytesReader(w, r.Body, maxLookupBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req LookupRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		names := make([]string, 0, len(req.Names))
		for _, raw := range req.Names {
			if name := normalize.Name(raw); name != "" {
				names = append(names, name)
			}
		}
		return names, nil
	}

	text, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	names := normalize.Lines(string(text))
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// queryNames returns the name parameters, or every tracked name if none are
// given.
func (s *Server) queryNames(r *http.Request) []string {
	if names := r.URL.Query()["name"]; len(names) > 0 {
		return names
	}
	return s.service.Store().Names()
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ResultsResponse{
		Rows: render.Rows(s.service.Store(), s.queryNames(r)),
	})
}

// handleMF returns the M/F column as plain text, one label per line.
func (s *Server) handleMF(w http.ResponseWriter, r *http.Request) {
	rows := render.Rows(s.service.Store(), s.queryNames(r))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, render.MFColumn(rows))
}

func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ErrorsResponse{Errors: s.errors.Entries()})
}

// handleDismissError removes one message. Unknown ids are accepted.
func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid error id")
		return
	}

	s.errors.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorBody{Error: message, RequestID: GetRequestID(r.Context())})
}
