// ABOUTME: Recipe agent expands a selected suggestion into a cookable recipe
// ABOUTME: On failure returns a minimal placeholder recipe carrying a warning
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// RecipeAgent generates full recipes for selected suggestions
type RecipeAgent struct {
	client ChatClient
}

// NewRecipeAgent creates a recipe agent
func NewRecipeAgent(client ChatClient) *RecipeAgent {
	return &RecipeAgent{client: client}
}

// Generate builds a complete recipe. On failure it returns a minimal
// recipe named after the suggestion with the error in warnings, so the
// selection can still complete.
func (r *RecipeAgent) Generate(ctx context.Context, suggestion *models.Suggestion, input *models.NormalizedInput, userCtx *models.UserContext) *models.Recipe {
	prompt := r.buildPrompt(suggestion, input, userCtx)

	raw, err := r.client.ChatJSON(ctx, recipeSystemPrompt, prompt)
	if err == nil {
		var recipe models.Recipe
		if perr := json.Unmarshal([]byte(raw), &recipe); perr == nil {
			if recipe.Name == "" {
				recipe.Name = suggestion.Title
			}
			return &recipe
		} else {
			err = fmt.Errorf("parse recipe response: %w", perr)
		}
	}

	log.Printf("recipe generation failed: %v", err)
	return &models.Recipe{
		Name:        suggestion.Title,
		Summary:     fmt.Sprintf("Recipe generation failed: %v", err),
		Ingredients: []models.RecipeIngredient{},
		Steps:       []string{"Recipe generation encountered an error. Please try again."},
		TimeMinutes: suggestion.EstimatedTimeMinutes,
		Difficulty:  suggestion.Difficulty,
		Warnings:    []string{fmt.Sprintf("Error: %v", err)},
	}
}

func (r *RecipeAgent) buildPrompt(suggestion *models.Suggestion, input *models.NormalizedInput, userCtx *models.UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a complete recipe for: %s\n", suggestion.Title)

	b.WriteString("\n## Suggestion Details\n")
	fmt.Fprintf(&b, "Summary: %s\n", suggestion.Summary)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(suggestion.Tags, ", "))
	fmt.Fprintf(&b, "Target time: %d minutes\n", suggestion.EstimatedTimeMinutes)
	fmt.Fprintf(&b, "Difficulty: %s\n", suggestion.Difficulty)
	if len(suggestion.HealthRationale) > 0 {
		fmt.Fprintf(&b, "Health focus: %s\n", strings.Join(suggestion.HealthRationale, ", "))
	}

	b.WriteString("\n## Original Input\n")
	if input.MealName != "" {
		fmt.Fprintf(&b, "Based on meal: %s\n", input.MealName)
	}
	if len(input.Ingredients) > 0 {
		fmt.Fprintf(&b, "Using ingredients: %s\n", strings.Join(input.Ingredients, ", "))
	}

	b.WriteString("\n## User Profile (MUST RESPECT)\n")
	profile := userCtx.Profile
	if profile != nil {
		if len(profile.Allergies) > 0 {
			fmt.Fprintf(&b, "ALLERGIES (NEVER INCLUDE): %s\n", strings.Join(profile.Allergies, ", "))
		}
		if len(profile.Dislikes) > 0 {
			fmt.Fprintf(&b, "Dislikes (avoid or substitute): %s\n", strings.Join(profile.Dislikes, ", "))
		}
		if profile.DietStyle != "" {
			fmt.Fprintf(&b, "Diet: %s\n", profile.DietStyle)
		}
		if profile.CookingSkill != "" {
			fmt.Fprintf(&b, "Skill level: %s (adapt complexity)\n", profile.CookingSkill)
		}
		if len(profile.Likes) > 0 {
			fmt.Fprintf(&b, "Likes: %s\n", strings.Join(profile.Likes, ", "))
		}
		if len(profile.Equipment) > 0 {
			fmt.Fprintf(&b, "Available equipment: %s\n", strings.Join(profile.Equipment, ", "))
		} else {
			b.WriteString("Equipment: Standard kitchen (stovetop, oven, basic utensils)\n")
		}
		if profile.HouseholdSize > 0 {
			fmt.Fprintf(&b, "Servings: %d\n", profile.HouseholdSize)
		}
		if len(profile.Goals) > 0 {
			fmt.Fprintf(&b, "Health goals: %s\n", strings.Join(profile.Goals, ", "))
		}
	} else {
		b.WriteString("Equipment: Standard kitchen (stovetop, oven, basic utensils)\n")
	}

	maxTime := input.MaxTimeMinutes
	if maxTime == 0 && profile != nil {
		maxTime = profile.TimePerMealMinutes
	}
	if maxTime > 0 {
		fmt.Fprintf(&b, "Max cooking time: %d minutes\n", maxTime)
	}

	b.WriteString("\nUnits: Metric (grams, ml, celsius)\n")
	b.WriteString("\nGenerate the complete recipe as JSON.")
	return b.String()
}
