package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleUploads serves images written by the local blob store
func (h *Handler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/static/uploads/")

	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.uploadDir, filepath.FromSlash(name)))
}
