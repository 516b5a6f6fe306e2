package model

import "time"

type TaskTemplate struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Points    int       `json:"points"`
	Active    bool      `json:"active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskCompletion marks a template as done on a given day. TemplateID is nil
// when the template has since been deleted; the row still counts toward
// historical analytics.
type TaskCompletion struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TemplateID *string   `json:"template_id"`
	Day        string    `json:"day"`
	CreatedAt  time.Time `json:"created_at"`
}
