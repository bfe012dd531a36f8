// ABOUTME: Profile holds a user's structured attributes and constraints
// ABOUTME: Patches use set-union semantics; whole-record writes otherwise
package models

import (
	"fmt"
	"strings"
	"time"
)

// Profile is the one-per-user attributes record
type Profile struct {
	UserID             string    `json:"user_id"`
	DisplayName        string    `json:"display_name,omitempty"`
	DietStyle          string    `json:"diet_style,omitempty"`
	Goals              []string  `json:"goals,omitempty"`
	Allergies          []string  `json:"allergies,omitempty"`
	Dislikes           []string  `json:"dislikes,omitempty"`
	Likes              []string  `json:"likes,omitempty"`
	CookingSkill       string    `json:"cooking_skill,omitempty"`
	TimePerMealMinutes int       `json:"time_per_meal_minutes,omitempty"`
	Budget             string    `json:"budget,omitempty"`
	HouseholdSize      int       `json:"household_size,omitempty"`
	Equipment          []string  `json:"equipment,omitempty"`
	Units              string    `json:"units,omitempty"`
	Notes              string    `json:"notes,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ApplyPatch merges learned additions into the profile.
// Likes and dislikes grow by set union; nothing is ever removed.
// Applying the same patch twice yields the same result as once.
func (p *Profile) ApplyPatch(patch ProfilePatch) {
	for _, like := range patch.LikesAdd {
		if !containsFold(p.Likes, like) {
			p.Likes = append(p.Likes, like)
		}
	}
	for _, dislike := range patch.DislikesAdd {
		if !containsFold(p.Dislikes, dislike) {
			p.Dislikes = append(p.Dislikes, dislike)
		}
	}
	for _, note := range patch.NotesAppend {
		if p.Notes == "" {
			p.Notes = note
		} else if !strings.Contains(p.Notes, note) {
			p.Notes = p.Notes + "\n" + note
		}
	}
}

// Summary renders a short human-readable profile line
func (p *Profile) Summary() string {
	if p == nil {
		return "New user - no profile yet"
	}

	var parts []string
	if p.DisplayName != "" {
		parts = append(parts, p.DisplayName)
	}
	if p.DietStyle != "" {
		parts = append(parts, p.DietStyle)
	}
	if p.CookingSkill != "" {
		parts = append(parts, fmt.Sprintf("%s cook", p.CookingSkill))
	}
	if len(p.Goals) > 0 {
		goals := p.Goals
		if len(goals) > 2 {
			goals = goals[:2]
		}
		parts = append(parts, fmt.Sprintf("Goals: %s", strings.Join(goals, ", ")))
	}

	if len(parts) == 0 {
		return "Basic profile"
	}
	return strings.Join(parts, " | ")
}

// containsFold checks slice membership case-insensitively
func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
