// ABOUTME: Vision agent classifies food images into meal or ingredients photos
// ABOUTME: Never fails the turn; degrades to unknown with a clarifying question
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/tweakmymeal/mealcoach/internal/llm"
	"github.com/tweakmymeal/mealcoach/internal/models"
)

// VisionClient is the LLM surface the vision agent needs
type VisionClient interface {
	VisionJSON(ctx context.Context, systemPrompt, userPrompt string, images []llm.ImageInput) (string, error)
}

// VisionAgent interprets uploaded food images
type VisionAgent struct {
	client VisionClient
	// Retry budget for unparseable responses, separate from the
	// transport-level retries inside the client
	maxRetries int
}

// NewVisionAgent creates a vision agent with a single parse retry
func NewVisionAgent(client VisionClient) *VisionAgent {
	return &VisionAgent{client: client, maxRetries: 1}
}

// Analyze classifies the given images. It always returns a result:
// on failure the kind is unknown with a clarifying follow-up question.
func (a *VisionAgent) Analyze(ctx context.Context, images []llm.ImageInput, userText string, allergies, dislikes []string) *models.VisionResult {
	prompt := a.buildPrompt(userText, allergies, dislikes)

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		raw, err := a.client.VisionJSON(ctx, visionSystemPrompt, prompt, images)
		if err != nil {
			lastErr = err
			continue
		}

		var result models.VisionResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			lastErr = fmt.Errorf("parse vision response: %w", err)
			continue
		}
		return &result
	}

	log.Printf("vision analysis failed: %v", lastErr)
	return &models.VisionResult{
		Kind:              models.VisionUnknown,
		Confidence:        0.0,
		Warnings:          []string{fmt.Sprintf("Vision analysis failed after retries: %v", lastErr)},
		FollowUpQuestions: []string{"I had trouble analyzing the image. Could you describe what's in it?"},
	}
}

func (a *VisionAgent) buildPrompt(userText string, allergies, dislikes []string) string {
	var b strings.Builder
	b.WriteString("Analyze this food image(s).")

	if userText != "" {
		fmt.Fprintf(&b, "\n\nUser's message: %q", userText)
	}
	if len(allergies) > 0 {
		fmt.Fprintf(&b, "\n\nIMPORTANT - User has these allergies (flag if detected): %s", strings.Join(allergies, ", "))
	}
	if len(dislikes) > 0 {
		fmt.Fprintf(&b, "\n\nUser dislikes: %s", strings.Join(dislikes, ", "))
	}

	b.WriteString("\n\nProvide your analysis as JSON.")
	return b.String()
}
