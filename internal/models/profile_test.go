// ABOUTME: Tests for profile patch semantics and summary rendering
// ABOUTME: Set-union growth, idempotency, and the human-readable line
package models

import (
	"strings"
	"testing"
)

func TestApplyPatchSetUnion(t *testing.T) {
	p := &Profile{
		UserID: "u1",
		Likes:  []string{"avocado"},
	}

	p.ApplyPatch(ProfilePatch{
		LikesAdd:    []string{"Avocado", "quinoa"},
		DislikesAdd: []string{"mushrooms"},
	})

	if len(p.Likes) != 2 {
		t.Errorf("expected 2 likes (case-insensitive union), got %v", p.Likes)
	}
	if len(p.Dislikes) != 1 || p.Dislikes[0] != "mushrooms" {
		t.Errorf("expected dislikes [mushrooms], got %v", p.Dislikes)
	}
}

func TestApplyPatchIdempotent(t *testing.T) {
	p := &Profile{UserID: "u1"}
	patch := ProfilePatch{LikesAdd: []string{"avocado"}}

	p.ApplyPatch(patch)
	once := append([]string{}, p.Likes...)
	p.ApplyPatch(patch)

	if len(p.Likes) != len(once) {
		t.Errorf("expected identical like-set after repeated patch, got %v then %v", once, p.Likes)
	}
}

func TestApplyPatchNeverRemoves(t *testing.T) {
	p := &Profile{
		UserID:   "u1",
		Likes:    []string{"salmon"},
		Dislikes: []string{"cilantro"},
	}

	p.ApplyPatch(ProfilePatch{NotesAppend: []string{"prefers quick dinners"}})

	if len(p.Likes) != 1 || len(p.Dislikes) != 1 {
		t.Errorf("patch must not remove entries: likes %v dislikes %v", p.Likes, p.Dislikes)
	}
	if p.Notes != "prefers quick dinners" {
		t.Errorf("expected appended note, got %q", p.Notes)
	}

	// Re-appending the same note is a no-op
	p.ApplyPatch(ProfilePatch{NotesAppend: []string{"prefers quick dinners"}})
	if strings.Count(p.Notes, "prefers quick dinners") != 1 {
		t.Errorf("duplicate note appended: %q", p.Notes)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		want    string
	}{
		{
			name:    "nil profile",
			profile: nil,
			want:    "New user - no profile yet",
		},
		{
			name:    "empty profile",
			profile: &Profile{UserID: "u1"},
			want:    "Basic profile",
		},
		{
			name: "full profile truncates goals",
			profile: &Profile{
				DisplayName:  "Alex",
				DietStyle:    "vegetarian",
				CookingSkill: "beginner",
				Goals:        []string{"more protein", "less sugar", "meal prep"},
			},
			want: "Alex | vegetarian | beginner cook | Goals: more protein, less sugar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindSuggestion(t *testing.T) {
	state := &SessionState{
		Suggestions: []Suggestion{
			{SuggestionID: "sug_1", Title: "One"},
			{SuggestionID: "sug_2", Title: "Two"},
		},
	}

	if got := state.FindSuggestion("sug_2"); got == nil || got.Title != "Two" {
		t.Errorf("FindSuggestion(sug_2) = %+v", got)
	}
	if got := state.FindSuggestion("sug_9"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}
