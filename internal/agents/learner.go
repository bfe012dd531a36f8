// ABOUTME: Learning agent turns meal feedback into memories and preference deltas
// ABOUTME: Degrades to deterministic rules when the model call fails
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// FeedbackInput carries everything the learning step needs for one
// feedback event
type FeedbackInput struct {
	MealTitle       string
	RecipeTags      []string
	Liked           bool
	CookedAgain     bool
	FeedbackTags    []string
	Notes           string
	PreferenceFacts []models.PreferenceFact
	Profile         *models.Profile
}

// Learner derives learning outputs from feedback
type Learner struct {
	client ChatClient
}

// NewLearner creates a learning agent
func NewLearner(client ChatClient) *Learner {
	return &Learner{client: client}
}

// Learn produces memory items, preference deltas, and a profile patch.
// It always returns a result; on model failure rule-based learning
// keeps the feedback loop alive.
func (l *Learner) Learn(ctx context.Context, input FeedbackInput) *models.LearningResult {
	prompt := l.buildPrompt(input)

	raw, err := l.client.ChatJSON(ctx, learnerSystemPrompt, prompt)
	if err == nil {
		var result models.LearningResult
		if perr := json.Unmarshal([]byte(raw), &result); perr == nil {
			return &result
		} else {
			err = fmt.Errorf("parse learning response: %w", perr)
		}
	}

	log.Printf("learning step failed, using rule-based fallback: %v", err)
	return fallbackLearn(input)
}

// fallbackLearn derives minimal learning without the model
func fallbackLearn(input FeedbackInput) *models.LearningResult {
	result := &models.LearningResult{
		MemoryItems:     []models.LearnedMemory{},
		PreferenceFacts: []models.PreferenceDelta{},
	}

	strength := 0.3
	if !input.Liked {
		strength = -0.3
	}
	if input.CookedAgain {
		strength = 0.5
	}

	outcome := "liked"
	kind := models.MemoryLike
	if !input.Liked {
		outcome = "disliked"
		kind = models.MemoryDislike
	}

	result.MemoryItems = append(result.MemoryItems, models.LearnedMemory{
		Text:     fmt.Sprintf("User %s %s", outcome, input.MealTitle),
		Kind:     kind,
		Salience: math.Abs(strength),
	})

	prefix := "likes"
	if !input.Liked {
		prefix = "avoid"
	}
	tags := input.RecipeTags
	if len(tags) > 5 {
		tags = tags[:5]
	}
	for _, tag := range tags {
		key := fmt.Sprintf("%s:%s", prefix, strings.ReplaceAll(strings.ToLower(tag), " ", "_"))
		result.PreferenceFacts = append(result.PreferenceFacts, models.PreferenceDelta{
			FactKey:       key,
			DeltaStrength: strength,
			Reason:        fmt.Sprintf("From %s meal: %s", outcome, input.MealTitle),
		})
	}

	for _, tag := range input.FeedbackTags {
		switch strings.ToLower(tag) {
		case "too_spicy", "too_hot":
			result.PreferenceFacts = append(result.PreferenceFacts, models.PreferenceDelta{
				FactKey:       "avoid:very_spicy",
				DeltaStrength: 0.3,
				Reason:        fmt.Sprintf("User found %s too spicy", input.MealTitle),
			})
		case "easy", "simple":
			result.PreferenceFacts = append(result.PreferenceFacts, models.PreferenceDelta{
				FactKey:       "likes:easy_recipes",
				DeltaStrength: 0.2,
				Reason:        fmt.Sprintf("User appreciated ease of %s", input.MealTitle),
			})
		}
	}

	return result
}

func (l *Learner) buildPrompt(input FeedbackInput) string {
	var b strings.Builder
	b.WriteString("Process this meal feedback and generate learning outputs.\n")

	b.WriteString("\n## Meal\n")
	fmt.Fprintf(&b, "Title: %s\n", input.MealTitle)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(input.RecipeTags, ", "))

	b.WriteString("\n## Feedback\n")
	fmt.Fprintf(&b, "Liked: %s\n", yesNo(input.Liked))
	fmt.Fprintf(&b, "Would cook again: %s\n", yesNo(input.CookedAgain))
	if len(input.FeedbackTags) > 0 {
		fmt.Fprintf(&b, "User tags: %s\n", strings.Join(input.FeedbackTags, ", "))
	}
	if input.Notes != "" {
		fmt.Fprintf(&b, "User notes: %q\n", input.Notes)
	}

	b.WriteString("\n## Current Preferences\n")
	if len(input.PreferenceFacts) > 0 {
		facts := input.PreferenceFacts
		if len(facts) > 10 {
			facts = facts[:10]
		}
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s: %.1f\n", f.FactKey, f.Strength)
		}
	} else {
		b.WriteString("No preferences learned yet.\n")
	}

	if input.Profile != nil {
		b.WriteString("\n## User Profile Context\n")
		if input.Profile.DietStyle != "" {
			fmt.Fprintf(&b, "Diet: %s\n", input.Profile.DietStyle)
		}
		if len(input.Profile.Goals) > 0 {
			fmt.Fprintf(&b, "Goals: %s\n", strings.Join(input.Profile.Goals, ", "))
		}
	}

	b.WriteString("\n## Instructions\n")
	if input.Liked {
		b.WriteString("- User LIKED this meal. Strengthen positive patterns.\n")
		if input.CookedAgain {
			b.WriteString("- User would COOK AGAIN. This is a strong positive signal!\n")
		}
	} else {
		b.WriteString("- User DISLIKED this meal. Create avoidance facts.\n")
	}
	b.WriteString("- Extract any explicit preferences from notes\n")
	b.WriteString("- Generate memory items, preference fact deltas, and profile patches\n")
	b.WriteString("\nGenerate learning outputs as JSON.")
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
