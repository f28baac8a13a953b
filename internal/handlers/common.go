package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aob-scanner/book-scanner/internal/metrics"
	"github.com/aob-scanner/book-scanner/internal/pipeline"
	"github.com/aob-scanner/book-scanner/internal/storage"
)

const defaultMaxBodyBytes = 20 << 20

// Options wires the handler to the long-lived components built at startup
type Options struct {
	Pipeline     *pipeline.Pipeline
	Archiver     *storage.Archiver
	Metrics      *metrics.Metrics
	MaxBodyBytes int64
	// UploadDir is served under /static/uploads/ when images are kept on
	// local disk; empty disables the route.
	UploadDir string
}

type Handler struct {
	pipeline     *pipeline.Pipeline
	archiver     *storage.Archiver
	metrics      *metrics.Metrics
	maxBodyBytes int64
	uploadDir    string
}

func New(opts Options) *Handler {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	archiver := opts.Archiver
	if archiver == nil {
		archiver = storage.NewArchiver(nil)
	}
	return &Handler{
		pipeline:     opts.Pipeline,
		archiver:     archiver,
		metrics:      opts.Metrics,
		maxBodyBytes: maxBody,
		uploadDir:    opts.UploadDir,
	}
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/process-image", h.instrument("process_image", h.HandleProcessImage))
	mux.Handle("/api/save-entry", h.instrument("save_entry", h.HandleSaveEntry))
	mux.Handle("/metrics", h.metrics.Handler())
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	if h.uploadDir != "" {
		mux.HandleFunc("/static/uploads/", h.HandleUploads)
	}
	return mux
}

// instrument adds CORS headers, panic recovery and request counting
func (h *Handler) instrument(name string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(rec.Header())

		defer func() {
			if p := recover(); p != nil {
				slog.Error("Handler panicked", "handler", name, "panic", p, "stack", string(debug.Stack()))
				if !rec.wroteHeader {
					writeError(rec, internalErrorMessage, http.StatusInternalServerError)
				}
			}
			h.metrics.ObserveRequest(name, rec.status)
		}()

		next(rec, r)
	})
}

func setCORSHeaders(header http.Header) {
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Content-Type")
	header.Set("Access-Control-Max-Age", "3600")
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

const internalErrorMessage = "An unexpected internal error occurred"

// Response helpers
func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}
