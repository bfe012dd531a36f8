// ABOUTME: Session state storage as a single JSON blob per conversation
// ABOUTME: Full-record overwrite on every transition; no field-level updates
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// SessionStore handles session state persistence
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Get retrieves the stored state for a session, or nil when none exists
func (s *SessionStore) Get(sessionID string) (*models.SessionState, error) {
	var stateJSON string

	err := s.db.QueryRow(`
		SELECT state_json FROM session_state WHERE session_id = ?
	`, sessionID).Scan(&stateJSON)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state models.SessionState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}

	return &state, nil
}

// Put writes the entire state record. Concurrent writers for the same
// session race and the later write wins; there is no session locking.
func (s *SessionStore) Put(state *models.SessionState) error {
	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO session_state (session_id, user_id, created_at, updated_at, state_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			state_json = excluded.state_json
	`, state.SessionID, state.UserID, state.CreatedAt, state.UpdatedAt, string(stateJSON))

	return err
}

// Delete removes a session's stored state
func (s *SessionStore) Delete(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM session_state WHERE session_id = ?", sessionID)
	return err
}
