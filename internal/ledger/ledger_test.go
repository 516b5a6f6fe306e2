package ledger

import (
	"testing"
	"time"

	"github.com/rgoodwin/tasktally/internal/dates"
	"github.com/rgoodwin/tasktally/internal/model"
)

func tmpl(id, title string, points int) model.TaskTemplate {
	return model.TaskTemplate{
		ID:        id,
		UserID:    "u1",
		Title:     title,
		Points:    points,
		Active:    true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func completion(day string) model.TaskCompletion {
	return model.TaskCompletion{ID: "c-" + day, UserID: "u1", Day: day}
}

func TestSummarizeBasic(t *testing.T) {
	templates := []model.TaskTemplate{
		tmpl("a", "Stretch", 10),
		tmpl("b", "Read", 20),
	}

	s := Summarize("2026-03-14", templates, []string{"a"}, 5)

	if s.Date != "2026-03-14" {
		t.Errorf("date = %q, want %q", s.Date, "2026-03-14")
	}
	if s.TotalTemplates != 2 {
		t.Errorf("total_templates = %d, want 2", s.TotalTemplates)
	}
	if s.CompletedCount != 1 {
		t.Errorf("completed_count = %d, want 1", s.CompletedCount)
	}
	if s.EarnedPoints != 10 {
		t.Errorf("earned = %d, want 10", s.EarnedPoints)
	}
	if s.TotalPossiblePoints != 30 {
		t.Errorf("total_possible = %d, want 30", s.TotalPossiblePoints)
	}
	if s.SpentPoints != 5 {
		t.Errorf("spent = %d, want 5", s.SpentPoints)
	}
	if s.RemainingPoints != 5 {
		t.Errorf("remaining = %d, want 5", s.RemainingPoints)
	}

	if len(s.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(s.Tasks))
	}
	if !s.Tasks[0].Completed || s.Tasks[0].TemplateID != "a" {
		t.Errorf("tasks[0] = %+v, want a completed", s.Tasks[0])
	}
	if s.Tasks[1].Completed || s.Tasks[1].TemplateID != "b" {
		t.Errorf("tasks[1] = %+v, want b not completed", s.Tasks[1])
	}
}

func TestSummarizeRemainingNeverNegative(t *testing.T) {
	templates := []model.TaskTemplate{tmpl("a", "Stretch", 10)}

	// Spent more than earned: the floor holds.
	s := Summarize("2026-03-14", templates, []string{"a"}, 250)
	if s.RemainingPoints != 0 {
		t.Errorf("remaining = %d, want 0", s.RemainingPoints)
	}
	if s.SpentPoints != 250 {
		t.Errorf("spent = %d, want 250", s.SpentPoints)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("2026-03-14", nil, nil, 0)
	if s.TotalTemplates != 0 || s.EarnedPoints != 0 || s.RemainingPoints != 0 {
		t.Errorf("empty summary = %+v, want zeros", s)
	}
	if s.Tasks == nil {
		t.Error("tasks should be an empty slice, not nil")
	}
}

func TestSummarizeIgnoresUnknownCompletions(t *testing.T) {
	// A completion for a template no longer in the active list earns nothing
	// for the day summary.
	templates := []model.TaskTemplate{tmpl("a", "Stretch", 10)}
	s := Summarize("2026-03-14", templates, []string{"a", "ghost"}, 0)
	if s.EarnedPoints != 10 {
		t.Errorf("earned = %d, want 10", s.EarnedPoints)
	}
	if s.CompletedCount != 1 {
		t.Errorf("completed_count = %d, want 1", s.CompletedCount)
	}
}

func TestCalendarGroupsAndSorts(t *testing.T) {
	completions := []model.TaskCompletion{
		completion("2026-03-12"),
		completion("2026-03-10"),
		completion("2026-03-12"),
	}

	cal := Calendar(completions, 4)

	if len(cal) != 2 {
		t.Fatalf("expected 2 calendar days, got %d", len(cal))
	}
	if cal[0].Date != "2026-03-10" || cal[0].Percent != 25 {
		t.Errorf("cal[0] = %+v, want 2026-03-10 at 25", cal[0])
	}
	if cal[1].Date != "2026-03-12" || cal[1].Percent != 50 {
		t.Errorf("cal[1] = %+v, want 2026-03-12 at 50", cal[1])
	}
}

func TestCalendarRounds(t *testing.T) {
	completions := []model.TaskCompletion{
		completion("2026-03-10"),
		completion("2026-03-10"),
	}

	// 2 of 3 = 66.67 rounds to 67.
	cal := Calendar(completions, 3)
	if cal[0].Percent != 67 {
		t.Errorf("percent = %d, want 67", cal[0].Percent)
	}
}

func TestCalendarNoActiveTemplates(t *testing.T) {
	cal := Calendar([]model.TaskCompletion{completion("2026-03-10")}, 0)
	if len(cal) != 1 {
		t.Fatalf("expected 1 calendar day, got %d", len(cal))
	}
	if cal[0].Percent != 0 {
		t.Errorf("percent = %d, want 0", cal[0].Percent)
	}
}

func TestCalendarCanExceedHundred(t *testing.T) {
	// Three completions on a day, but only one template is active now: the
	// deleted templates inflate history. Not clamped.
	completions := []model.TaskCompletion{
		completion("2026-03-10"),
		completion("2026-03-10"),
		completion("2026-03-10"),
	}
	cal := Calendar(completions, 1)
	if cal[0].Percent != 300 {
		t.Errorf("percent = %d, want 300", cal[0].Percent)
	}
}

func prevDayFunc(t *testing.T) func(string) string {
	t.Helper()
	c, err := dates.NewClock("")
	if err != nil {
		t.Fatalf("new clock: %v", err)
	}
	return c.PrevDay
}

func TestStreakRunEndingToday(t *testing.T) {
	cal := []CalendarDay{
		{Date: "2026-03-12", Percent: 50},
		{Date: "2026-03-13", Percent: 100},
		{Date: "2026-03-14", Percent: 100},
	}
	if got := Streak(cal, "2026-03-14", prevDayFunc(t)); got != 3 {
		t.Errorf("streak = %d, want 3", got)
	}
}

func TestStreakBrokenByGap(t *testing.T) {
	// Day before yesterday at 50%, yesterday absent, today at 100%: only
	// today counts.
	cal := []CalendarDay{
		{Date: "2026-03-12", Percent: 50},
		{Date: "2026-03-14", Percent: 100},
	}
	if got := Streak(cal, "2026-03-14", prevDayFunc(t)); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestStreakZeroWhenTodayEmpty(t *testing.T) {
	cal := []CalendarDay{
		{Date: "2026-03-12", Percent: 50},
		{Date: "2026-03-13", Percent: 100},
	}
	if got := Streak(cal, "2026-03-14", prevDayFunc(t)); got != 0 {
		t.Errorf("streak = %d, want 0", got)
	}
}

func TestStreakZeroPercentDayBreaks(t *testing.T) {
	// A day present in the calendar with percent 0 (possible when no
	// templates are active) still breaks the walk.
	cal := []CalendarDay{
		{Date: "2026-03-12", Percent: 100},
		{Date: "2026-03-13", Percent: 0},
		{Date: "2026-03-14", Percent: 100},
	}
	if got := Streak(cal, "2026-03-14", prevDayFunc(t)); got != 1 {
		t.Errorf("streak = %d, want 1", got)
	}
}

func TestStreakCrossesMonthBoundary(t *testing.T) {
	cal := []CalendarDay{
		{Date: "2026-02-28", Percent: 100},
		{Date: "2026-03-01", Percent: 100},
	}
	if got := Streak(cal, "2026-03-01", prevDayFunc(t)); got != 2 {
		t.Errorf("streak = %d, want 2", got)
	}
}
