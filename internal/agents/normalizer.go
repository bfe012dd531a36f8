// ABOUTME: Normalizer turns text and vision output into one canonical input shape
// ABOUTME: Falls back to keyword heuristics when the model call fails
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// ChatClient is the text-completion surface the agents need
type ChatClient interface {
	ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Normalizer maps raw user input to a NormalizedInput
type Normalizer struct {
	client ChatClient
}

// NewNormalizer creates a normalizer agent
func NewNormalizer(client ChatClient) *Normalizer {
	return &Normalizer{client: client}
}

// Normalize classifies the turn's input. It always returns a result:
// on model failure it infers the kind heuristically from the text.
func (n *Normalizer) Normalize(ctx context.Context, text string, vision *models.VisionResult, previousAnswers map[string]string) *models.NormalizedInput {
	prompt := n.buildPrompt(text, vision, previousAnswers)

	raw, err := n.client.ChatJSON(ctx, normalizerSystemPrompt, prompt)
	if err == nil {
		var result models.NormalizedInput
		if perr := json.Unmarshal([]byte(raw), &result); perr == nil {
			return &result
		} else {
			err = fmt.Errorf("parse normalizer response: %w", perr)
		}
	}

	log.Printf("input normalization failed, using heuristics: %v", err)
	return fallbackNormalize(text, vision)
}

func (n *Normalizer) buildPrompt(text string, vision *models.VisionResult, previousAnswers map[string]string) string {
	var b strings.Builder

	if vision != nil {
		b.WriteString("Vision Analysis Result:\n")
		fmt.Fprintf(&b, "- Kind: %s\n", vision.Kind)
		fmt.Fprintf(&b, "- Confidence: %.2f\n", vision.Confidence)
		if vision.Detected.MealName != "" {
			fmt.Fprintf(&b, "- Detected meal: %s\n", vision.Detected.MealName)
		}
		if len(vision.Detected.Ingredients) > 0 {
			items := make([]string, 0, len(vision.Detected.Ingredients))
			for _, ing := range vision.Detected.Ingredients {
				if ing.QuantityHint != "" {
					items = append(items, fmt.Sprintf("%s (%s)", ing.Name, ing.QuantityHint))
				} else {
					items = append(items, ing.Name)
				}
			}
			fmt.Fprintf(&b, "- Detected ingredients: %s\n", strings.Join(items, ", "))
		}
		if vision.Detected.CuisineHint != "" {
			fmt.Fprintf(&b, "- Cuisine hint: %s\n", vision.Detected.CuisineHint)
		}
	}

	if text != "" {
		fmt.Fprintf(&b, "\nUser's text: %q\n", text)
	}

	if len(previousAnswers) > 0 {
		b.WriteString("\nPrevious Q&A:\n")
		for q, a := range previousAnswers {
			fmt.Fprintf(&b, "  Q: %s\n  A: %s\n", q, a)
		}
	}

	b.WriteString("\nNormalize this input into the structured format.")
	return b.String()
}

// ingredientKeywords mark text that reads like an ingredient inventory
var ingredientKeywords = []string{"i have", "using", "ingredients", "with these", "what can i make"}

// fallbackNormalize infers the input kind without the model
func fallbackNormalize(text string, vision *models.VisionResult) *models.NormalizedInput {
	// A confident vision result carries the classification
	if vision != nil && vision.Kind != models.VisionUnknown {
		ingredients := make([]string, 0, len(vision.Detected.Ingredients))
		for _, ing := range vision.Detected.Ingredients {
			ingredients = append(ingredients, ing.Name)
		}
		return &models.NormalizedInput{
			InputKind:            models.InputKind(vision.Kind),
			MealName:             vision.Detected.MealName,
			Ingredients:          ingredients,
			MissingInfoQuestions: vision.FollowUpQuestions,
		}
	}

	if text != "" {
		lower := strings.ToLower(text)
		for _, kw := range ingredientKeywords {
			if strings.Contains(lower, kw) {
				// Let the suggestion agent parse the raw text
				return &models.NormalizedInput{
					InputKind:   models.InputTextIngredients,
					Ingredients: []string{text},
				}
			}
		}
		return &models.NormalizedInput{
			InputKind: models.InputTextMeal,
			MealName:  text,
		}
	}

	return &models.NormalizedInput{
		InputKind:            models.InputUnknown,
		MissingInfoQuestions: []string{"Could you tell me more about what you'd like help with?"},
	}
}
