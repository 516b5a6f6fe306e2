package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/rgoodwin/tasktally/internal/store"
)

type UserHandler struct {
	users *store.UserStore
}

func NewUserHandler(us *store.UserStore) *UserHandler {
	return &UserHandler{users: us}
}

// Upsert creates a user by email or returns the existing one, updating the
// display name when a non-empty name is provided.
func (h *UserHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "valid email is required"})
		return
	}

	user, err := h.users.Upsert(req.Email, strings.TrimSpace(req.Name))
	if err != nil {
		log.Printf("failed to upsert user: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to upsert user"})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
