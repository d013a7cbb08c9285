package session

import (
	"encoding/json"
	"net/http"
	"simplefilehost/internal/core/domain"
	"time"

	"github.com/google/uuid"
)

type V1SessionResponse struct {
	ID        uuid.UUID           `json:"id"`
	Mode      domain.Mode         `json:"mode"`
	URL       string              `json:"url"`
	State     domain.SessionState `json:"state"`
	StartedAt time.Time           `json:"started_at"`
}

func (h *HandlerV1) GetSessionV1(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.status.Current()
	if !ok {
		http.Error(w, "no session running", http.StatusNotFound)
		return
	}

	resp := V1SessionResponse{
		ID:        snap.ID,
		Mode:      snap.Mode,
		URL:       snap.URL,
		State:     snap.State,
		StartedAt: snap.StartedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}
