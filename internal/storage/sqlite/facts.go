// ABOUTME: Preference fact storage with additive strength updates
// ABOUTME: Deltas accumulate commutatively; strengths are never overwritten
package sqlite

import (
	"database/sql"
	"time"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// PreferenceStore handles preference fact persistence
type PreferenceStore struct {
	db *DB
}

// NewPreferenceStore creates a new PreferenceStore
func NewPreferenceStore(db *DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// ApplyDelta adds delta to the fact's strength, creating the fact at
// strength=delta if it does not exist. The SQL upsert makes concurrent
// deltas for the same key serialize safely.
func (s *PreferenceStore) ApplyDelta(userID, factKey string, delta float64, sourceMealID string) error {
	_, err := s.db.Exec(`
		INSERT INTO preference_facts (user_id, fact_key, strength, last_updated_at, source_meal_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, fact_key) DO UPDATE SET
			strength = preference_facts.strength + excluded.strength,
			last_updated_at = excluded.last_updated_at,
			source_meal_id = COALESCE(excluded.source_meal_id, preference_facts.source_meal_id)
	`, userID, factKey, delta, time.Now().UTC(), nullString(sourceMealID))
	return err
}

// Get retrieves a single preference fact, or nil when absent
func (s *PreferenceStore) Get(userID, factKey string) (*models.PreferenceFact, error) {
	var (
		fact   models.PreferenceFact
		source sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT user_id, fact_key, strength, last_updated_at, source_meal_id
		FROM preference_facts
		WHERE user_id = ? AND fact_key = ?
	`, userID, factKey).Scan(&fact.UserID, &fact.FactKey, &fact.Strength,
		&fact.LastUpdatedAt, &source)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fact.SourceMealID = source.String
	return &fact, nil
}

// Top returns the user's strongest preference facts, descending by strength
func (s *PreferenceStore) Top(userID string, limit int) ([]models.PreferenceFact, error) {
	rows, err := s.db.Query(`
		SELECT user_id, fact_key, strength, last_updated_at, source_meal_id
		FROM preference_facts
		WHERE user_id = ?
		ORDER BY strength DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var facts []models.PreferenceFact
	for rows.Next() {
		var (
			fact   models.PreferenceFact
			source sql.NullString
		)
		if err := rows.Scan(&fact.UserID, &fact.FactKey, &fact.Strength,
			&fact.LastUpdatedAt, &source); err != nil {
			return nil, err
		}
		fact.SourceMealID = source.String
		facts = append(facts, fact)
	}

	return facts, rows.Err()
}
