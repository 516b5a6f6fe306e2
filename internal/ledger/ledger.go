// Package ledger computes the per-day points accounting: earned versus spent
// for a single day, the historical completion calendar, and the trailing
// streak. It operates on rows already loaded from the store and performs no
// I/O of its own.
package ledger

import (
	"math"
	"sort"

	"github.com/rgoodwin/tasktally/internal/model"
)

// TaskStatus is one template's completion state within a day summary.
type TaskStatus struct {
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	Points     int    `json:"points"`
	Completed  bool   `json:"completed"`
}

// DaySummary is the full ledger for one day.
type DaySummary struct {
	Date                string       `json:"date"`
	TotalTemplates      int          `json:"total_templates"`
	CompletedCount      int          `json:"completed_count"`
	EarnedPoints        int          `json:"earned_points"`
	TotalPossiblePoints int          `json:"total_possible_points"`
	SpentPoints         int          `json:"spent_points"`
	RemainingPoints     int          `json:"remaining_points"`
	Tasks               []TaskStatus `json:"tasks"`
}

// Summarize builds the day summary from the user's active templates (already
// in display order), the ids completed that day, and the points spent that
// day. The remaining balance is floored at zero: historical inconsistencies
// never produce a negative spendable balance.
func Summarize(day string, templates []model.TaskTemplate, completedIDs []string, spent int) DaySummary {
	completed := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	summary := DaySummary{
		Date:        day,
		SpentPoints: spent,
		Tasks:       make([]TaskStatus, 0, len(templates)),
	}

	for _, t := range templates {
		done := completed[t.ID]
		summary.Tasks = append(summary.Tasks, TaskStatus{
			TemplateID: t.ID,
			Title:      t.Title,
			Points:     t.Points,
			Completed:  done,
		})

		summary.TotalTemplates++
		summary.TotalPossiblePoints += t.Points
		if done {
			summary.CompletedCount++
			summary.EarnedPoints += t.Points
		}
	}

	summary.RemainingPoints = summary.EarnedPoints - summary.SpentPoints
	if summary.RemainingPoints < 0 {
		summary.RemainingPoints = 0
	}
	return summary
}

// CalendarDay is one day's completion percentage.
type CalendarDay struct {
	Date    string `json:"date"`
	Percent int    `json:"percent"`
}

// Analytics is the streak plus full historical calendar.
type Analytics struct {
	Streak   int           `json:"streak"`
	Calendar []CalendarDay `json:"calendar"`
}

// Calendar groups the user's entire completion history by day and computes
// each day's percentage against activeCount, the number of templates active
// right now. The current count applies uniformly to all historical days, so a
// day can exceed 100% when templates completed back then have since been
// deleted. Days without completions are absent, not zero.
func Calendar(completions []model.TaskCompletion, activeCount int) []CalendarDay {
	doneByDay := make(map[string]int)
	for _, c := range completions {
		doneByDay[c.Day]++
	}

	calendar := make([]CalendarDay, 0, len(doneByDay))
	for day, done := range doneByDay {
		percent := 0
		if activeCount > 0 {
			percent = int(math.Round(float64(done) / float64(activeCount) * 100))
		}
		calendar = append(calendar, CalendarDay{Date: day, Percent: percent})
	}

	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Date < calendar[j].Date })
	return calendar
}

// Streak counts consecutive days with a nonzero percentage, walking backward
// from today. The walk stops at the first zero-percent day without counting
// it; a today with no completions yields zero immediately.
func Streak(calendar []CalendarDay, today string, prevDay func(string) string) int {
	percentByDay := make(map[string]int, len(calendar))
	for _, d := range calendar {
		percentByDay[d.Date] = d.Percent
	}

	streak := 0
	for day := today; percentByDay[day] > 0; day = prevDay(day) {
		streak++
	}
	return streak
}
