// ABOUTME: OpenAI client for chat, vision, embeddings, and image generation
// ABOUTME: All chat calls request JSON output; retries with exponential backoff
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tweakmymeal/mealcoach/internal/config"
	"github.com/tweakmymeal/mealcoach/internal/util"
)

// ImageInput is one image to send to the vision model
type ImageInput struct {
	Data     []byte
	MimeType string
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	textModel      string
	visionModel    string
	embeddingModel openai.EmbeddingModel
	imageModel     string
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClient creates a client from service configuration
func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	return &OpenAIClient{
		client:         openai.NewClient(cfg.OpenAIKey),
		textModel:      cfg.TextModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		imageModel:     cfg.ImageModel,
		timeout:        cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
	}, nil
}

// ChatJSON runs a chat completion in JSON mode and returns the raw JSON text
func (c *OpenAIClient) ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var content string

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.textModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.3,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.maxRetries+1, err)
	}

	return content, nil
}

// VisionJSON sends images plus a prompt to the vision model in JSON mode.
// Images are embedded as base64 data URLs.
func (c *OpenAIClient) VisionJSON(ctx context.Context, systemPrompt, userPrompt string, images []ImageInput) (string, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
	}
	for _, img := range images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Data)),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	var content string

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.visionModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, MultiContent: parts},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.2,
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("vision completion failed after %d attempts: %w", c.maxRetries+1, err)
	}

	return content, nil
}

// Embed generates an embedding vector for the given text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no embeddings returned")
		}
		embedding = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.maxRetries+1, err)
	}

	return embedding, nil
}

// GenerateImage creates an image from a prompt and returns its URL.
// Image generation is slow; callers should pass a generous context and
// the per-call timeout is widened accordingly.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var url string

	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func() error {
		callCtx, cancel := context.WithTimeout(ctx, 4*c.timeout)
		defer cancel()

		resp, err := c.client.CreateImage(callCtx, openai.ImageRequest{
			Model:          c.imageModel,
			Prompt:         prompt,
			N:              1,
			Size:           openai.CreateImageSize1024x1024,
			ResponseFormat: openai.CreateImageResponseFormatURL,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no image returned")
		}
		url = resp.Data[0].URL
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed after %d attempts: %w", c.maxRetries+1, err)
	}

	return url, nil
}
