package handlers

import (
	"net/http"
	"strconv"
)

// HandleRetrieval exposes the similarity index for inspection:
// GET /api/retrieval?q=<text>&k=<count>.
func (h *Handler) HandleRetrieval(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeJSON(w, map[string]any{"captions": h.index.Len()})
		return
	}

	k := h.cfg.RAGResults
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 1 {
			h.writeError(w, "k must be a positive integer", http.StatusBadRequest)
			return
		}
		k = parsed
	}

	results, err := h.index.Query(r.Context(), query, k)
	if err != nil {
		h.writeError(w, "Retrieval query failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type match struct {
		Text     string            `json:"text"`
		Metadata map[string]string `json:"metadata"`
		Score    float64           `json:"score"`
	}
	matches := make([]match, 0, len(results))
	for _, res := range results {
		matches = append(matches, match{Text: res.Text, Metadata: res.Metadata, Score: res.Score})
	}
	h.writeJSON(w, matches)
}
