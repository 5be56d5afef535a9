package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/captionlab/captioner/internal/ingest"
)

const maxUploadBytes = 10 * 1024 * 1024

// HandleUpload accepts a multipart upload of one or more images and submits
// the selection to the session controller. Re-submitting the same selection
// into an existing session is a no-op diff: nothing is regenerated.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to parse multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	opts, optErr := h.generateOptions(r)
	if optErr != "" {
		h.writeError(w, optErr, http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}

	files := make([]ingest.File, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}

		// Read one byte past the limit so a file of exactly the limit is
		// still accepted.
		fileData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		file.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(fileData) > maxUploadBytes {
			h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
			return
		}

		files = append(files, ingest.File{
			Name: header.Filename,
			Size: int64(len(fileData)),
			Data: fileData,
		})
	}

	sessionID := r.FormValue("session")
	if sessionID == "" {
		if len(files) == 0 {
			h.writeError(w, "No files uploaded and no session named", http.StatusBadRequest)
			return
		}
		// Use the first filename (without extension) as session name, with
		// a timestamp for uniqueness.
		baseFilename := strings.TrimSuffix(files[0].Name, filepath.Ext(files[0].Name))
		sessionID = fmt.Sprintf("%s_%d", baseFilename, time.Now().Unix())
	}

	state := h.sessionStore.GetOrCreate(sessionID)

	batch, err := h.controller.UploadChanged(r.Context(), state, files, opts)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, batch)
}
