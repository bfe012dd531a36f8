// ABOUTME: Response shapes the orchestrator returns to transport layers
// ABOUTME: A chat turn yields either follow-up questions or suggestions, never both
package core

import "github.com/tweakmymeal/mealcoach/internal/models"

// FollowUpResponse asks the user clarifying questions before proceeding
type FollowUpResponse struct {
	SessionID string   `json:"session_id"`
	Questions []string `json:"questions"`
	Blocking  bool     `json:"blocking"`
}

// SourceInfo describes how the suggestions' input was classified
type SourceInfo struct {
	InputKind    models.InputKind     `json:"input_kind"`
	VisionResult *models.VisionResult `json:"vision_result,omitempty"`
}

// SuggestionsResponse carries candidate meals awaiting a selection.
// Suggestion images load asynchronously via the session images poll.
type SuggestionsResponse struct {
	SessionID   string              `json:"session_id"`
	Source      SourceInfo          `json:"source"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// TurnResponse is the union result of a chat turn; exactly one field is set
type TurnResponse struct {
	FollowUp    *FollowUpResponse    `json:"follow_up,omitempty"`
	Suggestions *SuggestionsResponse `json:"suggestions,omitempty"`
}

// RecipeResponse is the result of selecting a suggestion
type RecipeResponse struct {
	SessionID string         `json:"session_id"`
	MealID    string         `json:"meal_id"`
	Recipe    *models.Recipe `json:"recipe"`
	ImageURL  string         `json:"image_url,omitempty"`
}

// FeedbackResponse summarizes what the learning step persisted
type FeedbackResponse struct {
	UpdatedProfileSummary  string `json:"updated_profile_summary"`
	MemoryItemsWritten     int    `json:"memory_items_written"`
	PreferenceFactsUpdated int    `json:"preference_facts_updated"`
}

// SessionImagesResponse reports the background image job's declared state
type SessionImagesResponse struct {
	SessionID string                `json:"session_id"`
	Status    models.ImageJobStatus `json:"status"`
	Images    map[string]string     `json:"images"`
}
