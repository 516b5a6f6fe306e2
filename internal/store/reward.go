package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgoodwin/tasktally/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int

	err := scanner.Scan(&r.ID, &r.UserID, &r.Title, &r.Cost, &active, &r.Position, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Active = active != 0
	return &r, nil
}

const rewardCols = `id, user_id, title, cost, active, position, created_at`

// Create inserts a reward at the end of the user's list, counting inactive
// rewards when computing the next position.
func (s *RewardStore) Create(userID, title string, cost int, active bool) (*model.Reward, error) {
	var a int
	if active {
		a = 1
	}

	var nextPos int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position) + 1, 0) FROM rewards WHERE user_id = ?`,
		userID,
	).Scan(&nextPos)
	if err != nil {
		return nil, fmt.Errorf("next position: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO rewards (id, user_id, title, cost, active, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, title, cost, a, nextPos, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id string) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// ListActive returns the user's active rewards in display order.
func (s *RewardStore) ListActive(userID string) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE user_id = ? AND active = 1 ORDER BY position ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(id, title string, cost int, active bool) (*model.Reward, error) {
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, cost = ?, active = ? WHERE id = ?`,
		title, cost, a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// MoveAdjacent swaps the reward with its neighbor in the user's active list.
// Boundary moves are silent no-ops; a reward missing from the active list is
// ErrNotFound.
func (s *RewardStore) MoveAdjacent(userID, id, direction string) error {
	items, err := s.ListActive(userID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	swapWith := idx + 1
	if direction == MoveUp {
		swapWith = idx - 1
	}
	if swapWith < 0 || swapWith >= len(items) {
		return nil
	}

	return s.swapPositions(items[idx], items[swapWith])
}

func (s *RewardStore) swapPositions(a, b model.Reward) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE rewards SET position = ? WHERE id = ?`, b.Position, a.ID); err != nil {
		return fmt.Errorf("swap position: %w", err)
	}
	if _, err := tx.Exec(`UPDATE rewards SET position = ? WHERE id = ?`, a.Position, b.ID); err != nil {
		return fmt.Errorf("swap position: %w", err)
	}
	return tx.Commit()
}

// Reorder applies a batch of position overwrites in one transaction.
func (s *RewardStore) Reorder(userID string, assignments []PositionAssignment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assignments {
		if _, err := tx.Exec(
			`UPDATE rewards SET position = ? WHERE id = ? AND user_id = ?`,
			a.Position, a.ID, userID,
		); err != nil {
			return fmt.Errorf("reorder reward: %w", err)
		}
	}
	return tx.Commit()
}

// --- Redemption methods ---

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	var rewardID sql.NullString

	err := scanner.Scan(&r.ID, &r.UserID, &rewardID, &r.Day, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	if rewardID.Valid {
		r.RewardID = &rewardID.String
	}
	return &r, nil
}

const redemptionCols = `id, user_id, reward_id, day, created_at`

// Redeem spends points on a reward for one day, appending a redemption row.
// The check and the insert run in one transaction. Returns ErrNotFound when
// the reward does not exist for this user, ErrInsufficientBalance when the
// cost exceeds the day's remaining points. An inactive reward still redeems;
// active only controls list visibility. There is no undo.
func (s *RewardStore) Redeem(userID, rewardID, day string) (*model.Redemption, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ? AND user_id = ?`, rewardID, userID)
	reward, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}

	// Earned: points of active templates completed that day. Completions of
	// inactive or deleted templates contribute nothing, matching the summary.
	var earned int
	err = tx.QueryRow(
		`SELECT COALESCE(SUM(t.points), 0)
		 FROM task_completions c
		 JOIN task_templates t ON t.id = c.template_id AND t.active = 1
		 WHERE c.user_id = ? AND c.day = ?`,
		userID, day,
	).Scan(&earned)
	if err != nil {
		return nil, fmt.Errorf("sum earned for day: %w", err)
	}

	var spent int
	err = tx.QueryRow(
		`SELECT COALESCE(SUM(COALESCE(r.cost, 0)), 0)
		 FROM redemptions d
		 LEFT JOIN rewards r ON r.id = d.reward_id
		 WHERE d.user_id = ? AND d.day = ?`,
		userID, day,
	).Scan(&spent)
	if err != nil {
		return nil, fmt.Errorf("sum spent for day: %w", err)
	}

	remaining := earned - spent
	if remaining < 0 {
		remaining = 0
	}
	if reward.Cost > remaining {
		return nil, ErrInsufficientBalance
	}

	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO redemptions (id, user_id, reward_id, day) VALUES (?, ?, ?, ?)`,
		id, userID, rewardID, day,
	); err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redemption: %w", err)
	}

	row = s.db.QueryRow(`SELECT `+redemptionCols+` FROM redemptions WHERE id = ?`, id)
	return scanRedemption(row)
}

// SpentForDay sums the cost of every redemption the user made on the given
// day. Redemptions of deleted rewards count as zero.
func (s *RewardStore) SpentForDay(userID, day string) (int, error) {
	var spent int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(COALESCE(r.cost, 0)), 0)
		 FROM redemptions d
		 LEFT JOIN rewards r ON r.id = d.reward_id
		 WHERE d.user_id = ? AND d.day = ?`,
		userID, day,
	).Scan(&spent)
	if err != nil {
		return 0, fmt.Errorf("sum spent for day: %w", err)
	}
	return spent, nil
}

// ListRedemptionsForDay returns the day's redemptions, oldest first.
func (s *RewardStore) ListRedemptionsForDay(userID, day string) ([]model.Redemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM redemptions WHERE user_id = ? AND day = ? ORDER BY created_at ASC`,
		userID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions for day: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
