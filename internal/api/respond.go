package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/seed"
	"github.com/MikeSquared-Agency/Impact/internal/store"
)

// writeJSON encodes v before committing the status so an unencodable value
// becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
		buf.Reset()
		buf.WriteString(`{"error":"internal error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// reported as an internal error without leaking its text.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, scoring.ErrUnknownService),
		errors.Is(err, scoring.ErrUnknownPersona):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, scoring.ErrInvalidEntity),
		errors.Is(err, scoring.ErrOutOfRange),
		errors.Is(err, scoring.ErrUnknownTouchPoint),
		errors.Is(err, scoring.ErrInvalidVector),
		errors.Is(err, seed.ErrModelMismatch):
		status = http.StatusBadRequest
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}
