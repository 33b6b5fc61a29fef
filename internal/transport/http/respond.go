package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"personmatch/pkg/platform/sentinel"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to status codes. Unrecognized errors hide
// their detail behind a generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNoMatch):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no match"})
	case errors.Is(err, sentinel.ErrNoSufficientCombination):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "no sufficient field combination"})
	case errors.Is(err, sentinel.ErrConfiguration):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
