// Package service exposes the tracker over HTTP: JSON request/response
// handlers for auth, the wedding document, derived summaries, invites and
// the snapshot stream.
package service

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

func decodePayload[T any](r *http.Request) (T, error) {
	var v T
	err := json.NewDecoder(r.Body).Decode(&v)
	defer r.Body.Close()
	if err != nil {
		return v, fmt.Errorf("failure decoding request payload: %w", err)
	}
	return v, nil
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("could not marshal JSON for response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		slog.Error("could not write response body", "error", err)
	}
}

// respondWithError logs the technical error and responds with the short
// message only. Data-layer failures always come back through here: every
// write is acknowledged or reported, never silently dropped.
func respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	if err != nil {
		slog.Error(msg, "status", code, "error", err)
	} else {
		slog.Warn(msg, "status", code)
	}

	type errorResponse struct {
		Error string `json:"error"`
	}
	respondWithJSON(w, code, errorResponse{Error: msg})
}
