// ABOUTME: UserContext is the read-only bundle every generative call consumes
// ABOUTME: Assembled best-effort; empty sections are normal, never errors
package models

// UserContext bundles profile, learned preferences, recent meals, and
// semantically retrieved memories for one agent invocation
type UserContext struct {
	Profile         *Profile         `json:"profile,omitempty"`
	PreferenceFacts []PreferenceFact `json:"preference_facts,omitempty"`
	RecentMeals     []MealSummary    `json:"recent_meals,omitempty"`
	Memories        []MemoryHit      `json:"memories,omitempty"`

	// Set only on the modification path
	ModificationRequest string   `json:"modification_request,omitempty"`
	AllModifications    []string `json:"all_modifications,omitempty"`
}
