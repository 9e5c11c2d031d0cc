package httpadapter

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/core/domain"
)

type listResponse struct {
	Success bool               `json:"success"`
	Data    []domain.Item      `json:"data"`
	Total   int                `json:"total"`
	Outcome domain.OutcomeKind `json:"outcome,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeItems(w http.ResponseWriter, items []domain.Item, outcome domain.OutcomeKind) {
	if items == nil {
		items = []domain.Item{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Success: true,
		Data:    items,
		Total:   len(items),
		Outcome: outcome,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
