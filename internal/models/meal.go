// ABOUTME: Meal captures a generated-and-accepted recipe with its provenance
// ABOUTME: Immutable after creation except the async generated-image path
package models

import "time"

// Meal is created exactly once, at selection time
type Meal struct {
	MealID             string        `json:"meal_id"`
	UserID             string        `json:"user_id"`
	Title              string        `json:"title"`
	SourceKind         InputKind     `json:"source_kind"`
	InputText          string        `json:"input_text,omitempty"`
	InputImagePaths    []string      `json:"input_image_paths,omitempty"`
	VisionResult       *VisionResult `json:"vision_result,omitempty"`
	SuggestionID       string        `json:"suggestion_id,omitempty"`
	Recipe             Recipe        `json:"recipe"`
	Tags               []string      `json:"tags,omitempty"`
	GeneratedImagePath string        `json:"generated_image_path,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

// MealSummary is the shortened form used in context bundles and history
type MealSummary struct {
	MealID    string    `json:"meal_id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MealOutcome is the one-per-meal feedback record.
// Revisions replace liked/cooked_again/tags/notes but keep the
// original creation identity.
type MealOutcome struct {
	MealID      string    `json:"meal_id"`
	UserID      string    `json:"user_id"`
	Liked       bool      `json:"liked"`
	CookedAgain bool      `json:"cooked_again"`
	Tags        []string  `json:"tags,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryEntry joins a meal with its outcome, if any
type HistoryEntry struct {
	MealID      string    `json:"meal_id"`
	Title       string    `json:"title"`
	Tags        []string  `json:"tags,omitempty"`
	ImagePath   string    `json:"image_path,omitempty"`
	Liked       *bool     `json:"liked,omitempty"`
	CookedAgain *bool     `json:"cooked_again,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
