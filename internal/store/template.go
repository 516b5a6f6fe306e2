package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgoodwin/tasktally/internal/model"
)

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// --- Template methods ---

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	var active int

	err := scanner.Scan(&t.ID, &t.UserID, &t.Title, &t.Points, &active, &t.Position, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Active = active != 0
	return &t, nil
}

const templateCols = `id, user_id, title, points, active, position, created_at`

// Create inserts a template at the end of the user's list. The new position is
// one past the highest position the user owns, counting inactive templates too.
func (s *TemplateStore) Create(userID, title string, points int, active bool) (*model.TaskTemplate, error) {
	var a int
	if active {
		a = 1
	}

	var nextPos int
	err := s.db.QueryRow(
		`SELECT COALESCE(MAX(position) + 1, 0) FROM task_templates WHERE user_id = ?`,
		userID,
	).Scan(&nextPos)
	if err != nil {
		return nil, fmt.Errorf("next position: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO task_templates (id, user_id, title, points, active, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, title, points, a, nextPos, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return s.GetByID(id)
}

func (s *TemplateStore) GetByID(id string) (*model.TaskTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM task_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListActive returns the user's active templates in display order: position
// ascending, creation time breaking ties.
func (s *TemplateStore) ListActive(userID string) ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM task_templates WHERE user_id = ? AND active = 1 ORDER BY position ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	defer rows.Close()

	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *TemplateStore) CountActive(userID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM task_templates WHERE user_id = ? AND active = 1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active templates: %w", err)
	}
	return n, nil
}

func (s *TemplateStore) Update(id, title string, points int, active bool) (*model.TaskTemplate, error) {
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE task_templates SET title = ?, points = ?, active = ? WHERE id = ?`,
		title, points, a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return s.GetByID(id)
}

// Delete hard-deletes the template. Surviving positions are not renumbered;
// gaps are expected and harmless.
func (s *TemplateStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM task_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// MoveAdjacent swaps the template with its neighbor in the user's active
// list. Moving past either end is a no-op, not an error. Returns ErrNotFound
// when the template is not in the active list.
func (s *TemplateStore) MoveAdjacent(userID, id, direction string) error {
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

func (s *TemplateStore) swapPositions(a, b model.TaskTemplate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE task_templates SET position = ? WHERE id = ?`, b.Position, a.ID); err != nil {
		return fmt.Errorf("swap position: %w", err)
	}
	if _, err := tx.Exec(`UPDATE task_templates SET position = ? WHERE id = ?`, a.Position, b.ID); err != nil {
		return fmt.Errorf("swap position: %w", err)
	}
	return tx.Commit()
}

// Reorder applies a batch of position overwrites in one transaction. No
// permutation check: duplicate or gapped positions are tolerated because the
// creation-time tie-break keeps the sort well-defined.
func (s *TemplateStore) Reorder(userID string, assignments []PositionAssignment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assignments {
		if _, err := tx.Exec(
			`UPDATE task_templates SET position = ? WHERE id = ? AND user_id = ?`,
			a.Position, a.ID, userID,
		); err != nil {
			return fmt.Errorf("reorder template: %w", err)
		}
	}
	return tx.Commit()
}

// --- Completion methods ---

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.TaskCompletion, error) {
	var c model.TaskCompletion
	var templateID sql.NullString

	err := scanner.Scan(&c.ID, &c.UserID, &templateID, &c.Day, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		c.TemplateID = &templateID.String
	}
	return &c, nil
}

const completionCols = `id, user_id, template_id, day, created_at`

// ToggleCompletion flips the completion state for (user, template, day) and
// reports the resulting state. Toggling twice restores the prior state exactly.
func (s *TemplateStore) ToggleCompletion(userID, templateID, day string) (bool, error) {
	var existingID string
	err := s.db.QueryRow(
		`SELECT id FROM task_completions WHERE user_id = ? AND template_id = ? AND day = ?`,
		userID, templateID, day,
	).Scan(&existingID)

	if err == nil {
		if _, err := s.db.Exec(`DELETE FROM task_completions WHERE id = ?`, existingID); err != nil {
			return false, fmt.Errorf("delete completion: %w", err)
		}
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("find completion: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO task_completions (id, user_id, template_id, day) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, templateID, day,
	)
	if err != nil {
		return false, fmt.Errorf("insert completion: %w", err)
	}
	return true, nil
}

// CompletedTemplateIDs returns the ids of templates completed on the given day.
func (s *TemplateStore) CompletedTemplateIDs(userID, day string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT template_id FROM task_completions WHERE user_id = ? AND day = ? AND template_id IS NOT NULL`,
		userID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completed id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCompletions returns every completion the user has ever recorded,
// including rows whose template has since been deleted, ordered by day.
func (s *TemplateStore) ListCompletions(userID string) ([]model.TaskCompletion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM task_completions WHERE user_id = ? ORDER BY day ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.TaskCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
