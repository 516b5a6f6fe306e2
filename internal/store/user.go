package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rgoodwin/tasktally/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, name, created_at, updated_at`

// Upsert looks a user up by email, creating the account on first sign-in.
// A non-empty name overwrites the stored name; an empty one leaves it alone.
func (s *UserStore) Upsert(email, name string) (*model.User, error) {
	existing, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		id := uuid.NewString()
		_, err := s.db.Exec(
			`INSERT INTO users (id, email, name) VALUES (?, ?, ?)`,
			id, email, name,
		)
		if err != nil {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		return s.GetByID(id)
	}

	if name != "" && name != existing.Name {
		_, err := s.db.Exec(
			`UPDATE users SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			name, existing.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("update user name: %w", err)
		}
	}
	return s.GetByID(existing.ID)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
