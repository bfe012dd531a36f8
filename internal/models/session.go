// ABOUTME: SessionState tracks pipeline progress for one conversation
// ABOUTME: Overwritten wholesale on every transition; no field-level updates
package models

import "time"

// Step is the session's pipeline position
type Step string

const (
	StepAwaitingFollowup  Step = "awaiting_followup"
	StepAwaitingSelection Step = "awaiting_selection"
	StepDone              Step = "done"
)

// ImageJobStatus describes the background image-generation job.
// Stored alongside the session so polling reads declared state
// instead of racing an implicit in-process map.
type ImageJobStatus string

const (
	ImageJobNone    ImageJobStatus = ""
	ImageJobPending ImageJobStatus = "pending"
	ImageJobDone    ImageJobStatus = "done"
	ImageJobFailed  ImageJobStatus = "failed"
)

// SessionState is the per-conversation mutable record. A first turn for a
// session id with no stored state is a fresh entry into the pipeline; there
// is no explicit start step.
type SessionState struct {
	SessionID        string            `json:"session_id"`
	UserID           string            `json:"user_id"`
	Step             Step              `json:"step"`
	VisionResult     *VisionResult     `json:"vision_result,omitempty"`
	NormalizedInput  *NormalizedInput  `json:"normalized_input,omitempty"`
	Suggestions      []Suggestion      `json:"suggestions,omitempty"`
	SuggestionImages map[string]string `json:"suggestion_images,omitempty"`
	ImageJob         ImageJobStatus    `json:"image_job,omitempty"`
	ImagePaths       []string          `json:"image_paths,omitempty"`
	OriginalText     string            `json:"original_text,omitempty"`
	Modifications    []string          `json:"modifications,omitempty"`
	MealID           string            `json:"meal_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// FindSuggestion returns the buffered suggestion with the given id, or nil
func (s *SessionState) FindSuggestion(suggestionID string) *Suggestion {
	for i := range s.Suggestions {
		if s.Suggestions[i].SuggestionID == suggestionID {
			return &s.Suggestions[i]
		}
	}
	return nil
}
