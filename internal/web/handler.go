package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"frontpriority/internal/booster"
	"frontpriority/internal/history"
)

const defaultHistoryLimit = 50

type Handler struct {
	booster *booster.Booster
	repo    *history.Repository // nil when history is disabled
}

func NewHandler(b *booster.Booster, repo *history.Repository) *Handler {
	return &Handler{booster: b, repo: repo}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/api/status", h.handleStatus)
	mux.HandleFunc("/api/history", h.handleHistory)
}

type statusResponse struct {
	Rule             string `json:"rule"`
	Boosted          bool   `json:"boosted"`
	PID              int    `json:"pid,omitempty"`
	OriginalPriority int    `json:"original_priority,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pid, original, boosted := h.booster.Current()
	resp := statusResponse{
		Rule:    h.booster.Rule().String(),
		Boosted: boosted,
	}
	if boosted {
		resp.PID = pid
		resp.OriginalPriority = original
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.repo == nil {
		http.Error(w, "history is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.repo.GetRecent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
