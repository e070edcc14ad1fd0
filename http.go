package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"rapidreport/export"
	"rapidreport/store"
)

var contentTypes = map[string]string{
	export.FormatPPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	export.FormatPDF:  "application/pdf",
	export.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// HTTPServer exposes the upload, status and download endpoints.
type HTTPServer struct {
	jobs      *JobService
	artifacts *store.ArtifactStore
	configSvc ConfigProvider
	logger    func(string)
}

// NewHTTPServer creates a new HTTPServer instance
func NewHTTPServer(jobs *JobService, artifacts *store.ArtifactStore, configSvc ConfigProvider, logger func(string)) *HTTPServer {
	return &HTTPServer{
		jobs:      jobs,
		artifacts: artifacts,
		configSvc: configSvc,
		logger:    logger,
	}
}

// Routes builds the request mux.
func (h *HTTPServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("GET /download/{handle}", h.handleDownload)
	mux.HandleFunc("GET /jobs/{id}", h.handleJobStatus)
	return mux
}

func (h *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configSvc.GetConfig()
	if err != nil {
		h.log(fmt.Sprintf("upload: config load failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	maxBytes := int64(cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file part"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No selected file"})
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "upload too large or truncated"})
		return
	}

	job := h.jobs.Submit(raw, header.Filename)
	switch job.State {
	case StateReady:
		writeJSON(w, http.StatusOK, map[string]string{
			"message":      "Success",
			"job_id":       job.ID,
			"download_url": "/download/" + job.Handle,
		})
	case StateFailed:
		status := http.StatusInternalServerError
		if job.Failure == FailureUserInput {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": job.Error, "job_id": job.ID})
	default:
		// Submit is synchronous; any other state here is a defect.
		h.log(fmt.Sprintf("upload: job %s ended in unexpected state %s", job.ID, job.State))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (h *HTTPServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")

	rc, artifact, err := h.artifacts.Open(handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		h.log(fmt.Sprintf("download %s: %v", handle, err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer rc.Close()

	ct := contentTypes[artifact.Format]
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", artifact.Size))
	if _, err := io.Copy(w, rc); err != nil {
		h.log(fmt.Sprintf("download %s: stream aborted: %v", handle, err))
	}
}

func (h *HTTPServer) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *HTTPServer) log(msg string) {
	if h.logger != nil {
		h.logger(msg)
	}
}
