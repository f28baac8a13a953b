package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aob-scanner/book-scanner/internal/intake"
	"github.com/aob-scanner/book-scanner/internal/models"
)

// HandleProcessImage decodes the data URLs and runs the pipeline. Only a
// malformed request is rejected; stage failures come back inside a 200.
func (h *Handler) HandleProcessImage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Warn("Rejected request body", "err", err)
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	req, err := intake.Decode(body)
	if err != nil {
		if models.IsClientError(err) {
			slog.Warn("Rejected image payload", "reason", models.ReasonOf(err), "err", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Unexpected decode failure", "err", err)
		writeError(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	env, err := h.pipeline.Process(r.Context(), req)
	if err != nil {
		slog.Error("Pipeline failed", "err", err)
		writeError(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, env)
}
