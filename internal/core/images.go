// ABOUTME: Fire-and-forget generation of suggestion images in the background
// ABOUTME: Job outcome is declared in session state, never an in-process map
package core

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// presentationStyles vary the look of generated images across a
// suggestion set so candidates are visually distinct
var presentationStyles = []struct {
	background string
	plating    string
}{
	{"rustic wooden table, natural lighting, overhead shot", "earthenware bowl"},
	{"marble countertop, soft studio lighting, 45-degree angle", "modern white plate"},
	{"dark slate background, dramatic side lighting, close-up", "cast iron skillet"},
	{"bright kitchen setting, window light, styled with herbs", "ceramic plate with garnish"},
	{"minimalist white background, professional food styling", "bowl with chopsticks"},
}

// startImageJob kicks off background image generation for a suggestion
// set. The caller has already marked the session's job pending; this
// goroutine writes the terminal status when it finishes.
func (o *Orchestrator) startImageJob(sessionID, userID string, suggestions []models.Suggestion) {
	o.jobs.Add(1)
	go func() {
		defer o.jobs.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		images := o.generateSuggestionImages(ctx, userID, sessionID, suggestions)

		status := models.ImageJobDone
		if len(images) == 0 && len(suggestions) > 0 {
			status = models.ImageJobFailed
		}

		// Re-read so a session that moved on since keeps its newer record
		state, err := o.store.Sessions.Get(sessionID)
		if err != nil || state == nil {
			log.Printf("image job: session %s gone: %v", sessionID, err)
			return
		}
		if state.ImageJob != models.ImageJobPending {
			// The session moved on. If it finished with a selection
			// the new meal still wants its image; otherwise a newer
			// turn replaced the suggestions and our results are stale.
			if state.Step == models.StepDone && state.MealID != "" {
				o.attachLateImage(state, images)
			}
			return
		}
		state.SuggestionImages = images
		state.ImageJob = status
		if err := o.store.Sessions.Put(state); err != nil {
			log.Printf("image job: persist session %s: %v", sessionID, err)
		}
	}()
}

// attachLateImage back-fills the generated image onto a meal whose
// selection beat the image job to the finish
func (o *Orchestrator) attachLateImage(state *models.SessionState, images map[string]string) {
	meal, err := o.store.Meals.Get(state.MealID)
	if err != nil || meal == nil {
		log.Printf("image job: load meal %s: %v", state.MealID, err)
		return
	}
	if meal.GeneratedImagePath != "" || images[meal.SuggestionID] == "" {
		return
	}

	filename := fmt.Sprintf("%s_%s.jpg", state.SessionID, meal.SuggestionID)
	path := filepath.Join(o.cfg.UserImagesDir(state.UserID), filename)
	if err := o.store.Meals.AttachImage(meal.MealID, path); err != nil {
		log.Printf("image job: attach image to meal %s: %v", meal.MealID, err)
	}
}

// generateSuggestionImages renders, downloads, and locally stores one
// image per suggestion in parallel. Failures skip the suggestion.
func (o *Orchestrator) generateSuggestionImages(ctx context.Context, userID, sessionID string, suggestions []models.Suggestion) map[string]string {
	var (
		mu      sync.Mutex
		results = map[string]string{}
		wg      sync.WaitGroup
	)

	for i := range suggestions {
		wg.Add(1)
		go func(idx int, sug models.Suggestion) {
			defer wg.Done()

			url, err := o.images.GenerateImage(ctx, buildImagePrompt(&sug, idx))
			if err != nil {
				log.Printf("image job: generate for %s: %v", sug.Title, err)
				return
			}

			filename := fmt.Sprintf("%s_%s.jpg", sessionID, sug.SuggestionID)
			localPath := filepath.Join(o.cfg.UserImagesDir(userID), filename)
			if err := o.downloadImage(ctx, url, localPath); err != nil {
				log.Printf("image job: download for %s: %v", sug.Title, err)
				return
			}

			localURL := fmt.Sprintf("%s/images/%s/%s", strings.TrimSuffix(o.cfg.PublicURL, "/"), userID, filename)
			mu.Lock()
			results[sug.SuggestionID] = localURL
			mu.Unlock()
		}(i, suggestions[i])
	}

	wg.Wait()
	return results
}

// buildImagePrompt composes a food-photography prompt, cycling
// presentation styles by position
func buildImagePrompt(sug *models.Suggestion, index int) string {
	var ingredients string
	if len(sug.KeyIngredients) > 0 {
		visible := sug.KeyIngredients
		if len(visible) > 4 {
			visible = visible[:4]
		}
		ingredients = fmt.Sprintf(" featuring visible %s", strings.Join(visible, ", "))
	}

	style := presentationStyles[index%len(presentationStyles)]
	return fmt.Sprintf(
		"Professional food photography of %s%s. Served in a %s. %s. "+
			"Appetizing, realistic, restaurant-quality presentation. "+
			"Sharp focus on the food, vibrant colors, no text or labels or watermarks.",
		sug.Title, ingredients, style.plating, style.background,
	)
}

// downloadImage fetches a remote image and writes it to destPath
func (o *Orchestrator) downloadImage(ctx context.Context, url, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("create images directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}
