package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/captionlab/captioner/internal/models"
	"github.com/captionlab/captioner/internal/session"
)

// HandleSessions lists all caption sessions.
func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		batches := make([]models.Batch, 0, len(sessions))
		for _, state := range sessions {
			batches = append(batches, state.Snapshot())
		}
		h.writeJSON(w, batches)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail routes everything under /api/sessions/{id}:
//
//	GET    /api/sessions/{id}                          session view
//	DELETE /api/sessions/{id}                          clear and forget
//	POST   /api/sessions/{id}/images/{name}/captions   generate more
//	POST   /api/sessions/{id}/translate                lazy translation pass
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	sessionID := parts[0]

	state, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	if len(parts) == 1 || parts[1] == "" {
		switch r.Method {
		case "GET":
			h.writeJSON(w, state.Snapshot())
		case "DELETE":
			h.controller.ClearAll(state)
			h.sessionStore.Delete(sessionID)
			h.writeJSON(w, map[string]string{"message": "Session cleared"})
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch {
	case parts[1] == "translate":
		h.handleTranslate(w, r, state)
	case strings.HasPrefix(parts[1], "images/") && strings.HasSuffix(parts[1], "/captions"):
		name := strings.TrimSuffix(strings.TrimPrefix(parts[1], "images/"), "/captions")
		h.handleGenerateMore(w, r, state, name)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleGenerateMore(w http.ResponseWriter, r *http.Request, state *session.State, imageName string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts, optErr := h.generateOptions(r)
	if optErr != "" {
		h.writeError(w, optErr, http.StatusBadRequest)
		return
	}

	batch, err := h.controller.GenerateMore(r.Context(), state, imageName, opts)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, batch)
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request, state *session.State) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request struct {
		Lang string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Lang == "" {
		h.writeError(w, "lang is required", http.StatusBadRequest)
		return
	}

	batch, err := h.controller.Render(r.Context(), state, request.Lang)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, batch)
}
