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

type TemplateHandler struct {
	templates *store.TemplateStore
	hub       *websocket.Hub
}

func NewTemplateHandler(ts *store.TemplateStore, hub *websocket.Hub) *TemplateHandler {
	return &TemplateHandler{templates: ts, hub: hub}
}

func (h *TemplateHandler) notify(userID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Notify(userID, msg)
	}
}

type templateRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
	Points int    `json:"points"`
	Active *bool  `json:"active"`
}

func (req *templateRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.Points <= 0 {
		return "points must be positive"
	}
	return ""
}

// List returns the user's active templates in display order.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	templates, err := h.templates.ListActive(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list templates"})
		return
	}
	if templates == nil {
		templates = []model.TaskTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// Create appends a template to the end of the user's list.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
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

	template, err := h.templates.Create(req.UserID, req.Title, req.Points, active)
	if err != nil {
		log.Printf("failed to create template: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create template"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("template", "created", template.ID, nil))

	writeJSON(w, http.StatusCreated, template)
}

// Update rewrites a template's title, points, and active flag.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.templates.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get template"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}

	var req templateRequest
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

	template, err := h.templates.Update(id, req.Title, req.Points, active)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update template"})
		return
	}

	h.notify(existing.UserID, websocket.NewMessage("template", "updated", id, nil))

	writeJSON(w, http.StatusOK, template)
}

// Delete removes a template. Positions of the remaining templates are left
// untouched, so the sequence can have gaps.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.templates.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get template"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}

	if err := h.templates.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete template"})
		return
	}

	h.notify(existing.UserID, websocket.NewMessage("template", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Move swaps a template with its neighbor in the active list. Moving past
// either end is a no-op.
func (h *TemplateHandler) Move(w http.ResponseWriter, r *http.Request) {
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

	err := h.templates.MoveAdjacent(req.UserID, req.ID, req.Direction)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to move template"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("template", "moved", req.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

// Reorder applies a bulk position assignment atomically.
func (h *TemplateHandler) Reorder(w http.ResponseWriter, r *http.Request) {
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

	if err := h.templates.Reorder(req.UserID, req.Order); err != nil {
		log.Printf("failed to reorder templates: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reorder templates"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("template", "reordered", "", nil))

	w.WriteHeader(http.StatusNoContent)
}
