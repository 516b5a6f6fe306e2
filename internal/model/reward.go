package model

import "time"

type Reward struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Cost      int       `json:"cost"`
	Active    bool      `json:"active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Redemption is an append-only record that a reward was spent on a given day.
// RewardID is nil when the reward has since been deleted; such rows contribute
// zero cost to the day's ledger.
type Redemption struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RewardID  *string   `json:"reward_id"`
	Day       string    `json:"day"`
	CreatedAt time.Time `json:"created_at"`
}
