package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aob-scanner/book-scanner/internal/models"
	"github.com/aob-scanner/book-scanner/internal/storage"
)

// HandleSaveEntry stores a reviewed record: a multipart form with a "meta"
// JSON object and one or more "images". The first image is uploaded and
// its URL is added to the record, which is then written as entries/<id>.json.
func (h *Handler) HandleSaveEntry(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeError(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := r.ParseMultipartForm(h.maxBodyBytes); err != nil {
		writeError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	metaJSON := r.FormValue("meta")
	if metaJSON == "" {
		writeError(w, "meta field missing", http.StatusBadRequest)
		return
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil || meta == nil {
		writeError(w, "bad meta JSON", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, "need image", http.StatusBadRequest)
		return
	}

	file, err := files[0].Open()
	if err != nil {
		writeError(w, "Failed to read image: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, "Failed to read image: "+err.Error(), http.StatusBadRequest)
		return
	}
	contentType := files[0].Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = models.DefaultMIMEType
	}

	imageURL, err := h.archiver.Put(r.Context(), storage.CoverPrefix, data, contentType)
	if err != nil {
		slog.Error("Entry image upload failed", "err", err)
		if errors.Is(err, storage.ErrNotConfigured) {
			writeError(w, "Storage is not configured", http.StatusBadGateway)
			return
		}
		writeError(w, "Failed to store image", http.StatusBadGateway)
		return
	}
	meta["image_url"] = imageURL

	record, err := json.Marshal(meta)
	if err != nil {
		slog.Error("Unable to encode entry", "err", err)
		writeError(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}
	entryURL, err := h.archiver.Put(r.Context(), storage.EntryPrefix, record, "application/json")
	if err != nil {
		// The image is already stored; the caller still gets its URL.
		slog.Error("Entry record upload failed", "image_url", imageURL, "err", err)
	} else {
		meta["entry_url"] = entryURL
		slog.Info("Entry saved", "entry_url", entryURL, "image_url", imageURL)
	}

	writeJSON(w, http.StatusOK, meta)
}
