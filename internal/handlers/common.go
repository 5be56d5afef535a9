package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/captionlab/captioner/internal/config"
	"github.com/captionlab/captioner/internal/controller"
	"github.com/captionlab/captioner/internal/session"
)

type Handler struct {
	cfg          *config.Config
	sessionStore *session.Store
	controller   *controller.Controller
	index        RetrievalIndex
}

// RetrievalIndex is the slice of the retrieval index the inspection
// endpoint needs.
type RetrievalIndex interface {
	controller.Retriever
	Len() int
}

func New(cfg *config.Config, store *session.Store, ctrl *controller.Controller, index RetrievalIndex) *Handler {
	return &Handler{
		cfg:          cfg,
		sessionStore: store,
		controller:   ctrl,
		index:        index,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.State, bool) {
	state, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return state, true
}

// generateOptions reads the sidebar-style knobs from form values, applying
// defaults and bounds.
func (h *Handler) generateOptions(r *http.Request) (controller.GenerateOptions, string) {
	opts := controller.GenerateOptions{
		Style:      "Default",
		Count:      1,
		RAGResults: h.cfg.RAGResults,
	}

	if style := r.FormValue("style"); style != "" {
		if !config.ValidStyle(style) {
			return opts, "Invalid style: " + style
		}
		opts.Style = style
	}

	if countStr := r.FormValue("count"); countStr != "" {
		count, err := strconv.Atoi(countStr)
		if err != nil || count < 1 || count > 10 {
			return opts, "count must be an integer between 1 and 10"
		}
		opts.Count = count
	}

	if ragStr := r.FormValue("rag"); ragStr != "" {
		rag, err := strconv.ParseBool(ragStr)
		if err != nil {
			return opts, "rag must be a boolean"
		}
		opts.RAGEnabled = rag
	}

	return opts, ""
}
