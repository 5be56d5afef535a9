package handlers

import (
	"net/http"
	"path"
	"strings"
)

// HandleStatic serves the single-page UI and stored upload copies.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	filepath := strings.TrimPrefix(r.URL.Path, "/static/")
	filepath = strings.TrimPrefix(filepath, "/")

	if strings.HasPrefix(filepath, "uploads/") {
		name := strings.TrimPrefix(filepath, "uploads/")
		// Prevent directory traversal attacks
		if strings.Contains(name, "..") || strings.Contains(name, "/") {
			http.Error(w, "Invalid file path", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, path.Join(h.cfg.UploadsDir, name))
		return
	}

	if filepath == "" {
		filepath = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(filepath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(filepath, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(filepath, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(filepath, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, "static/"+filepath)
}
