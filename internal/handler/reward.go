package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/rgoodwin/tasktally/internal/model"
	"github.com/rgoodwin/tasktally/internal/store"
	"github.com/rgoodwin/tasktally/internal/websocket"
)

type RewardHandler struct {
	rewards *store.RewardStore
	hub     *websocket.Hub
}

func NewRewardHandler(rs *store.RewardStore, hub *websocket.Hub) *RewardHandler {
	return &RewardHandler{rewards: rs, hub: hub}
}

func (h *RewardHandler) notify(userID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Notify(userID, msg)
	}
}

type rewardRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Active *bool  `json:"active"`
}

func (req *rewardRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.Cost <= 0 {
		return "cost must be positive"
	}
	return ""
}

// List returns the user's active rewards in display order.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	rewards, err := h.rewards.ListActive(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list rewards"})
		return
	}
	if rewards == nil {
		rewards = []model.Reward{}
	}
	writeJSON(w, http.StatusOK, rewards)
}

// Create appends a reward to the end of the user's list.
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	reward, err := h.rewards.Create(req.UserID, req.Title, req.Cost, active)
	if err != nil {
		log.Printf("failed to create reward: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create reward"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("reward", "created", reward.ID, nil))

	writeJSON(w, http.StatusCreated, reward)
}

// Update rewrites a reward's title, cost, and active flag.
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.rewards.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get reward"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return
	}

	var req rewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	active := existing.Active
	if req.Active != nil {
		active = *req.Active
	}

	reward, err := h.rewards.Update(id, req.Title, req.Cost, active)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update reward"})
		return
	}

	h.notify(existing.UserID, websocket.NewMessage("reward", "updated", id, nil))

	writeJSON(w, http.StatusOK, reward)
}

// Delete removes a reward. Past redemptions keep their rows and simply stop
// contributing cost.
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.rewards.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get reward"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return
	}

	if err := h.rewards.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete reward"})
		return
	}

	h.notify(existing.UserID, websocket.NewMessage("reward", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Move swaps a reward with its neighbor in the active list.
func (h *RewardHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		ID        string `json:"id"`
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == "" || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and id are required"})
		return
	}
	if req.Direction != store.MoveUp && req.Direction != store.MoveDown {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "direction must be up or down"})
		return
	}

	err := h.rewards.MoveAdjacent(req.UserID, req.ID, req.Direction)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to move reward"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("reward", "moved", req.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Reorder applies a bulk position assignment atomically.
func (h *RewardHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string                     `json:"user_id"`
		Order  []store.PositionAssignment `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}
	if len(req.Order) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order is required"})
		return
	}
	for _, a := range req.Order {
		if a.ID == "" || a.Position < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "each entry needs an id and a position >= 0"})
			return
		}
	}

	if err := h.rewards.Reorder(req.UserID, req.Order); err != nil {
		log.Printf("failed to reorder rewards: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reorder rewards"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("reward", "reordered", "", nil))

	w.WriteHeader(http.StatusNoContent)
}
