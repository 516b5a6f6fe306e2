package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rgoodwin/tasktally/internal/dates"
	"github.com/rgoodwin/tasktally/internal/ledger"
	"github.com/rgoodwin/tasktally/internal/store"
	"github.com/rgoodwin/tasktally/internal/websocket"
)

// DayHandler serves the per-day summary, completion toggling, redemptions,
// and the calendar analytics.
type DayHandler struct {
	users     *store.UserStore
	templates *store.TemplateStore
	rewards   *store.RewardStore
	clock     *dates.Clock
	hub       *websocket.Hub
}

func NewDayHandler(us *store.UserStore, ts *store.TemplateStore, rs *store.RewardStore, clock *dates.Clock, hub *websocket.Hub) *DayHandler {
	return &DayHandler{users: us, templates: ts, rewards: rs, clock: clock, hub: hub}
}

func (h *DayHandler) notify(userID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Notify(userID, msg)
	}
}

// dayParam resolves an optional date to a day key, defaulting to today.
// Returns "" if the date is malformed.
func (h *DayHandler) dayParam(date string) string {
	if date == "" {
		return h.clock.Today()
	}
	if !dates.Valid(date) {
		return ""
	}
	return date
}

// summarize assembles the ledger view of one day for a user.
func (h *DayHandler) summarize(userID, day string) (ledger.DaySummary, error) {
	templates, err := h.templates.ListActive(userID)
	if err != nil {
		return ledger.DaySummary{}, err
	}
	completed, err := h.templates.CompletedTemplateIDs(userID, day)
	if err != nil {
		return ledger.DaySummary{}, err
	}
	spent, err := h.rewards.SpentForDay(userID, day)
	if err != nil {
		return ledger.DaySummary{}, err
	}
	return ledger.Summarize(day, templates, completed, spent), nil
}

// Today returns the day summary for the user, for today or an explicit
// ?date=YYYY-MM-DD.
func (h *DayHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	user, err := h.users.GetByID(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	day := h.dayParam(r.URL.Query().Get("date"))
	if day == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	summary, err := h.summarize(userID, day)
	if err != nil {
		log.Printf("failed to summarize day: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to build day summary"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Toggle flips a completion for one template on one day and returns the
// refreshed summary.
func (h *DayHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string `json:"user_id"`
		TemplateID string `json:"template_id"`
		Date       string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == "" || req.TemplateID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and template_id are required"})
		return
	}

	day := h.dayParam(req.Date)
	if day == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	template, err := h.templates.GetByID(req.TemplateID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get template"})
		return
	}
	if template == nil || template.UserID != req.UserID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
		return
	}

	completed, err := h.templates.ToggleCompletion(req.UserID, req.TemplateID, day)
	if err != nil {
		log.Printf("failed to toggle completion: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle completion"})
		return
	}

	summary, err := h.summarize(req.UserID, day)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to build day summary"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("completion", "toggled", req.TemplateID, map[string]any{"date": day, "completed": completed}))

	writeJSON(w, http.StatusOK, map[string]any{
		"completed": completed,
		"date":      day,
		"summary":   summary,
	})
}

// Redeem spends points on a reward for one day. There is no undo; deleting
// the reward later removes its cost from the day.
func (h *DayHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		RewardID string `json:"reward_id"`
		Date     string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.UserID == "" || req.RewardID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and reward_id are required"})
		return
	}

	day := h.dayParam(req.Date)
	if day == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	redemption, err := h.rewards.Redeem(req.UserID, req.RewardID, day)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "reward not found"})
		return
	}
	if errors.Is(err, store.ErrInsufficientBalance) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": store.ErrInsufficientBalance.Error()})
		return
	}
	if err != nil {
		log.Printf("failed to redeem reward: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to redeem reward"})
		return
	}

	h.notify(req.UserID, websocket.NewMessage("reward", "redeemed", req.RewardID, map[string]any{"date": day}))

	writeJSON(w, http.StatusCreated, redemption)
}

// Analytics returns the completion-percentage calendar and the current
// streak for a user.
func (h *DayHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	user, err := h.users.GetByID(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	completions, err := h.templates.ListCompletions(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list completions"})
		return
	}
	activeCount, err := h.templates.CountActive(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count templates"})
		return
	}

	calendar := ledger.Calendar(completions, activeCount)
	if calendar == nil {
		calendar = []ledger.CalendarDay{}
	}

	writeJSON(w, http.StatusOK, ledger.Analytics{
		Streak:   ledger.Streak(calendar, h.clock.Today(), h.clock.PrevDay),
		Calendar: calendar,
	})
}
