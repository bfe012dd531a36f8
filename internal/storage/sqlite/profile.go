// ABOUTME: Profile storage operations for SQLite
// ABOUTME: Whole-record upsert with JSON columns for list attributes
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// ProfileStore handles profile persistence
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new ProfileStore
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Upsert writes the full profile record, last write wins
func (s *ProfileStore) Upsert(profile *models.Profile) error {
	goals, _ := json.Marshal(emptyIfNil(profile.Goals))
	allergies, _ := json.Marshal(emptyIfNil(profile.Allergies))
	dislikes, _ := json.Marshal(emptyIfNil(profile.Dislikes))
	likes, _ := json.Marshal(emptyIfNil(profile.Likes))
	equipment, _ := json.Marshal(emptyIfNil(profile.Equipment))

	units := profile.Units
	if units == "" {
		units = "metric"
	}

	_, err := s.db.Exec(`
		INSERT INTO user_profile (
			user_id, updated_at, display_name, diet_style, goals_json,
			allergies_json, dislikes_json, likes_json, cooking_skill,
			time_per_meal_minutes, budget, household_size, equipment_json,
			units, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			display_name = excluded.display_name,
			diet_style = excluded.diet_style,
			goals_json = excluded.goals_json,
			allergies_json = excluded.allergies_json,
			dislikes_json = excluded.dislikes_json,
			likes_json = excluded.likes_json,
			cooking_skill = excluded.cooking_skill,
			time_per_meal_minutes = excluded.time_per_meal_minutes,
			budget = excluded.budget,
			household_size = excluded.household_size,
			equipment_json = excluded.equipment_json,
			units = excluded.units,
			notes = excluded.notes
	`, profile.UserID, time.Now().UTC(), nullString(profile.DisplayName),
		nullString(profile.DietStyle), string(goals), string(allergies),
		string(dislikes), string(likes), nullString(profile.CookingSkill),
		nullInt(profile.TimePerMealMinutes), nullString(profile.Budget),
		nullInt(profile.HouseholdSize), string(equipment), units,
		nullString(profile.Notes))

	return err
}

// Get retrieves a user's profile, or nil when none exists
func (s *ProfileStore) Get(userID string) (*models.Profile, error) {
	var (
		profile     models.Profile
		displayName sql.NullString
		dietStyle   sql.NullString
		goals       string
		allergies   string
		dislikes    string
		likes       string
		skill       sql.NullString
		timePerMeal sql.NullInt64
		budget      sql.NullString
		household   sql.NullInt64
		equipment   string
		notes       sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT user_id, updated_at, display_name, diet_style, goals_json,
		       allergies_json, dislikes_json, likes_json, cooking_skill,
		       time_per_meal_minutes, budget, household_size, equipment_json,
		       units, notes
		FROM user_profile
		WHERE user_id = ?
	`, userID).Scan(&profile.UserID, &profile.UpdatedAt, &displayName,
		&dietStyle, &goals, &allergies, &dislikes, &likes, &skill,
		&timePerMeal, &budget, &household, &equipment, &profile.Units, &notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	profile.DisplayName = displayName.String
	profile.DietStyle = dietStyle.String
	profile.CookingSkill = skill.String
	profile.Budget = budget.String
	profile.Notes = notes.String
	profile.TimePerMealMinutes = int(timePerMeal.Int64)
	profile.HouseholdSize = int(household.Int64)

	_ = json.Unmarshal([]byte(goals), &profile.Goals)
	_ = json.Unmarshal([]byte(allergies), &profile.Allergies)
	_ = json.Unmarshal([]byte(dislikes), &profile.Dislikes)
	_ = json.Unmarshal([]byte(likes), &profile.Likes)
	_ = json.Unmarshal([]byte(equipment), &profile.Equipment)

	return &profile, nil
}

// emptyIfNil keeps JSON columns as '[]' instead of 'null'
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullString converts an empty string to sql.NullString
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullInt converts a zero int to sql.NullInt64
func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
