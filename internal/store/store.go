package store

import "errors"

// ErrNotFound is returned by operations that require a specific existing row,
// such as moving an item that is not in the user's active list.
var ErrNotFound = errors.New("not found")

// ErrInsufficientBalance is returned when a redemption would cost more than
// the day's remaining points.
var ErrInsufficientBalance = errors.New("insufficient points")

// Directions accepted by the adjacent-move operations.
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// PositionAssignment is one row of a bulk reorder: overwrite the item's
// position with Position.
type PositionAssignment struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}
