// ABOUTME: Meal and outcome storage operations for SQLite
// ABOUTME: Meals are write-once plus async image attach; outcomes upsert
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// MealStore handles meal persistence
type MealStore struct {
	db *DB
}

// NewMealStore creates a new MealStore
func NewMealStore(db *DB) *MealStore {
	return &MealStore{db: db}
}

// Create inserts a new meal record. Meals are immutable after creation
// except for the generated-image path (see AttachImage).
func (s *MealStore) Create(meal *models.Meal) error {
	recipeJSON, err := json.Marshal(meal.Recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	var visionJSON sql.NullString
	if meal.VisionResult != nil {
		data, err := json.Marshal(meal.VisionResult)
		if err != nil {
			return fmt.Errorf("failed to marshal vision result: %w", err)
		}
		visionJSON = sql.NullString{String: string(data), Valid: true}
	}

	imagePaths, _ := json.Marshal(emptyIfNil(meal.InputImagePaths))
	tags, _ := json.Marshal(emptyIfNil(meal.Tags))

	createdAt := meal.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Exec(`
		INSERT INTO meals (
			meal_id, user_id, created_at, title, source_kind, input_text,
			input_image_paths_json, vision_result_json, suggestion_id,
			recipe_json, tags_json, generated_image_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, meal.MealID, meal.UserID, createdAt, meal.Title, string(meal.SourceKind),
		nullString(meal.InputText), string(imagePaths), visionJSON,
		nullString(meal.SuggestionID), string(recipeJSON), string(tags),
		nullString(meal.GeneratedImagePath))

	return err
}

// AttachImage records the asynchronously generated image path for a meal
func (s *MealStore) AttachImage(mealID, imagePath string) error {
	_, err := s.db.Exec(`
		UPDATE meals SET generated_image_path = ? WHERE meal_id = ?
	`, imagePath, mealID)
	return err
}

// Get retrieves a meal by id, or nil when absent
func (s *MealStore) Get(mealID string) (*models.Meal, error) {
	var (
		meal       models.Meal
		sourceKind string
		inputText  sql.NullString
		imagePaths string
		visionJSON sql.NullString
		sugID      sql.NullString
		recipeJSON string
		tags       string
		imagePath  sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT meal_id, user_id, created_at, title, source_kind, input_text,
		       input_image_paths_json, vision_result_json, suggestion_id,
		       recipe_json, tags_json, generated_image_path
		FROM meals
		WHERE meal_id = ?
	`, mealID).Scan(&meal.MealID, &meal.UserID, &meal.CreatedAt, &meal.Title,
		&sourceKind, &inputText, &imagePaths, &visionJSON, &sugID,
		&recipeJSON, &tags, &imagePath)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	meal.SourceKind = models.InputKind(sourceKind)
	meal.InputText = inputText.String
	meal.SuggestionID = sugID.String
	meal.GeneratedImagePath = imagePath.String

	_ = json.Unmarshal([]byte(imagePaths), &meal.InputImagePaths)
	_ = json.Unmarshal([]byte(tags), &meal.Tags)
	if err := json.Unmarshal([]byte(recipeJSON), &meal.Recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	if visionJSON.Valid {
		var vr models.VisionResult
		if err := json.Unmarshal([]byte(visionJSON.String), &vr); err == nil {
			meal.VisionResult = &vr
		}
	}

	return &meal, nil
}

// Recent returns the user's most recent meals as summaries
func (s *MealStore) Recent(userID string, limit int) ([]models.MealSummary, error) {
	rows, err := s.db.Query(`
		SELECT meal_id, title, tags_json, created_at
		FROM meals
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var summaries []models.MealSummary
	for rows.Next() {
		var (
			summary models.MealSummary
			tags    string
		)
		if err := rows.Scan(&summary.MealID, &summary.Title, &tags, &summary.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &summary.Tags)
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// History returns meals joined with their outcomes, newest first
func (s *MealStore) History(userID string, limit, offset int) ([]models.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT m.meal_id, m.created_at, m.title, m.tags_json, m.generated_image_path,
		       o.liked, o.cooked_again
		FROM meals m
		LEFT JOIN meal_outcomes o ON m.meal_id = o.meal_id
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.HistoryEntry
	for rows.Next() {
		var (
			entry       models.HistoryEntry
			tags        string
			imagePath   sql.NullString
			liked       sql.NullInt64
			cookedAgain sql.NullInt64
		)
		if err := rows.Scan(&entry.MealID, &entry.CreatedAt, &entry.Title,
			&tags, &imagePath, &liked, &cookedAgain); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &entry.Tags)
		entry.ImagePath = imagePath.String
		if liked.Valid {
			v := liked.Int64 != 0
			entry.Liked = &v
		}
		if cookedAgain.Valid {
			v := cookedAgain.Int64 != 0
			entry.CookedAgain = &v
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// OutcomeStore handles meal outcome persistence
type OutcomeStore struct {
	db *DB
}

// NewOutcomeStore creates a new OutcomeStore
func NewOutcomeStore(db *DB) *OutcomeStore {
	return &OutcomeStore{db: db}
}

// Upsert writes feedback for a meal. A revision replaces liked,
// cooked_again, tags, and notes but keeps the original created_at.
func (s *OutcomeStore) Upsert(outcome *models.MealOutcome) error {
	tags, _ := json.Marshal(emptyIfNil(outcome.Tags))

	createdAt := outcome.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO meal_outcomes (meal_id, user_id, created_at, liked, cooked_again, tags_json, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(meal_id) DO UPDATE SET
			liked = excluded.liked,
			cooked_again = excluded.cooked_again,
			tags_json = excluded.tags_json,
			notes = excluded.notes
	`, outcome.MealID, outcome.UserID, createdAt, boolToInt(outcome.Liked),
		boolToInt(outcome.CookedAgain), string(tags), nullString(outcome.Notes))

	return err
}

// Get retrieves the outcome for a meal, or nil when absent
func (s *OutcomeStore) Get(mealID string) (*models.MealOutcome, error) {
	var (
		outcome     models.MealOutcome
		liked       int
		cookedAgain int
		tags        string
		notes       sql.NullString
	)

	err := s.db.QueryRow(`
		SELECT meal_id, user_id, created_at, liked, cooked_again, tags_json, notes
		FROM meal_outcomes
		WHERE meal_id = ?
	`, mealID).Scan(&outcome.MealID, &outcome.UserID, &outcome.CreatedAt,
		&liked, &cookedAgain, &tags, &notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	outcome.Liked = liked != 0
	outcome.CookedAgain = cookedAgain != 0
	outcome.Notes = notes.String
	_ = json.Unmarshal([]byte(tags), &outcome.Tags)

	return &outcome, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
