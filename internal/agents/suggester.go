// ABOUTME: Suggestion agent proposes healthier meal candidates from normalized input
// ABOUTME: Candidate count depends on input kind; failures yield a follow-up question
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// Suggester generates meal suggestions
type Suggester struct {
	client           ChatClient
	mealCount        int
	ingredientsCount int
}

// NewSuggester creates a suggestion agent. mealCount applies to
// meal-style inputs, ingredientsCount to ingredient-style inputs.
func NewSuggester(client ChatClient, mealCount, ingredientsCount int) *Suggester {
	return &Suggester{client: client, mealCount: mealCount, ingredientsCount: ingredientsCount}
}

// Suggest proposes candidates for the normalized input. On failure it
// returns an empty list with a follow-up question instead of an error.
func (s *Suggester) Suggest(ctx context.Context, input *models.NormalizedInput, userCtx *models.UserContext) *models.SuggestionsResult {
	prompt := s.buildPrompt(input, userCtx)

	raw, err := s.client.ChatJSON(ctx, suggesterSystemPrompt, prompt)
	if err == nil {
		var result models.SuggestionsResult
		if perr := json.Unmarshal([]byte(raw), &result); perr == nil {
			ensureSuggestionIDs(result.Suggestions)
			return &result
		} else {
			err = fmt.Errorf("parse suggestions response: %w", perr)
		}
	}

	log.Printf("suggestion generation failed: %v", err)
	return &models.SuggestionsResult{
		Suggestions:       []models.Suggestion{},
		FollowUpQuestions: []string{"I had trouble generating suggestions. Could you provide more details?"},
	}
}

// ensureSuggestionIDs backfills missing ids as sug_1, sug_2, ...
func ensureSuggestionIDs(suggestions []models.Suggestion) {
	for i := range suggestions {
		if suggestions[i].SuggestionID == "" {
			suggestions[i].SuggestionID = fmt.Sprintf("sug_%d", i+1)
		}
	}
}

func (s *Suggester) buildPrompt(input *models.NormalizedInput, userCtx *models.UserContext) string {
	count := s.ingredientsCount
	task := "healthy meal ideas using these ingredients"
	if input.InputKind == models.InputMealPhoto || input.InputKind == models.InputTextMeal {
		count = s.mealCount
		task = "healthier variations of this meal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d %s.\n", count, task)

	b.WriteString("\n## Input\n")
	fmt.Fprintf(&b, "Type: %s\n", input.InputKind)
	if input.MealName != "" {
		fmt.Fprintf(&b, "Meal: %s\n", input.MealName)
	}
	if len(input.Ingredients) > 0 {
		fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(input.Ingredients, ", "))
	}

	b.WriteString("\n## User Context\n")
	profile := userCtx.Profile
	if profile != nil {
		if profile.DietStyle != "" {
			fmt.Fprintf(&b, "Diet: %s\n", profile.DietStyle)
		}
		if profile.CookingSkill != "" {
			fmt.Fprintf(&b, "Skill: %s\n", profile.CookingSkill)
		}
		if len(profile.Allergies) > 0 {
			fmt.Fprintf(&b, "ALLERGIES (MUST AVOID): %s\n", strings.Join(profile.Allergies, ", "))
		}
		if len(profile.Dislikes) > 0 {
			fmt.Fprintf(&b, "Dislikes (avoid): %s\n", strings.Join(profile.Dislikes, ", "))
		}
		if len(profile.Likes) > 0 {
			fmt.Fprintf(&b, "Likes: %s\n", strings.Join(profile.Likes, ", "))
		}
		if len(profile.Equipment) > 0 {
			fmt.Fprintf(&b, "Equipment: %s\n", strings.Join(profile.Equipment, ", "))
		}
		if len(profile.Goals) > 0 {
			fmt.Fprintf(&b, "Goals: %s\n", strings.Join(profile.Goals, ", "))
		}
	}

	maxTime := input.MaxTimeMinutes
	if maxTime == 0 && profile != nil {
		maxTime = profile.TimePerMealMinutes
	}
	if maxTime > 0 {
		fmt.Fprintf(&b, "Max time: %d minutes\n", maxTime)
	}

	if len(userCtx.PreferenceFacts) > 0 {
		facts := userCtx.PreferenceFacts
		if len(facts) > 5 {
			facts = facts[:5]
		}
		parts := make([]string, 0, len(facts))
		for _, f := range facts {
			parts = append(parts, fmt.Sprintf("%s(%.1f)", f.FactKey, f.Strength))
		}
		fmt.Fprintf(&b, "Learned preferences: %s\n", strings.Join(parts, ", "))
	}

	if len(userCtx.Memories) > 0 {
		memories := userCtx.Memories
		if len(memories) > 3 {
			memories = memories[:3]
		}
		texts := make([]string, 0, len(memories))
		for _, m := range memories {
			texts = append(texts, m.Text)
		}
		fmt.Fprintf(&b, "Relevant memories: %s\n", strings.Join(texts, "; "))
	}

	if userCtx.ModificationRequest != "" {
		b.WriteString("\n## User Modification Request\n")
		fmt.Fprintf(&b, "User wants to add/include: %s\n", userCtx.ModificationRequest)
		b.WriteString("IMPORTANT: Incorporate these additions into all suggestions!\n")
	}
	if len(userCtx.AllModifications) > 0 {
		fmt.Fprintf(&b, "All requested additions: %s\n", strings.Join(userCtx.AllModifications, ", "))
	}

	b.WriteString("\nGenerate suggestions as JSON.")
	return b.String()
}
