// ABOUTME: PreferenceFact is a signed additive strength signal per fact key
// ABOUTME: Updates are deltas, never overwrites, so application order is irrelevant
package models

import "time"

// PreferenceFact is keyed by (user_id, fact_key).
// Strength is an unbounded accumulator: positive means affinity,
// negative means aversion. Fact keys follow soft naming conventions
// (likes:, avoid:, prefers:, equipment:, goal:) that are not enforced.
type PreferenceFact struct {
	UserID        string    `json:"user_id"`
	FactKey       string    `json:"fact_key"`
	Strength      float64   `json:"strength"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	SourceMealID  string    `json:"source_meal_id,omitempty"`
}
