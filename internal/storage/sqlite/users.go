// ABOUTME: User storage operations for SQLite
// ABOUTME: Idempotent ensure-exists; users are never deleted by this subsystem
package sqlite

import (
	"database/sql"
	"time"
)

// UserStore handles user persistence
type UserStore struct {
	db *DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Ensure creates the user if it does not exist
func (s *UserStore) Ensure(userID string) error {
	_, err := s.db.Exec(`
		INSERT INTO users (user_id, created_at)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, time.Now().UTC())
	return err
}

// Exists reports whether the user is known
func (s *UserStore) Exists(userID string) (bool, error) {
	var id string
	err := s.db.QueryRow("SELECT user_id FROM users WHERE user_id = ?", userID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
