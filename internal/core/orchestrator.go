// ABOUTME: Deterministic coordinator for the five-step generative pipeline
// ABOUTME: Owns session state transitions, context assembly, and persistence
package core

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tweakmymeal/mealcoach/internal/agents"
	"github.com/tweakmymeal/mealcoach/internal/config"
	"github.com/tweakmymeal/mealcoach/internal/llm"
	"github.com/tweakmymeal/mealcoach/internal/models"
	"github.com/tweakmymeal/mealcoach/internal/storage/sqlite"
)

// VisionAnalyzer classifies uploaded food images
type VisionAnalyzer interface {
	Analyze(ctx context.Context, images []llm.ImageInput, userText string, allergies, dislikes []string) *models.VisionResult
}

// InputNormalizer maps raw input to the canonical shape
type InputNormalizer interface {
	Normalize(ctx context.Context, text string, vision *models.VisionResult, previousAnswers map[string]string) *models.NormalizedInput
}

// SuggestionProvider proposes candidate meals
type SuggestionProvider interface {
	Suggest(ctx context.Context, input *models.NormalizedInput, userCtx *models.UserContext) *models.SuggestionsResult
}

// RecipeGenerator expands a suggestion into a full recipe
type RecipeGenerator interface {
	Generate(ctx context.Context, suggestion *models.Suggestion, input *models.NormalizedInput, userCtx *models.UserContext) *models.Recipe
}

// FeedbackLearner derives learning outputs from meal feedback
type FeedbackLearner interface {
	Learn(ctx context.Context, input agents.FeedbackInput) *models.LearningResult
}

// MemoryIndex is the semantic retrieval surface over memory items
type MemoryIndex interface {
	Add(ctx context.Context, item *models.MemoryItem) error
	Search(ctx context.Context, userID, query string, topK int) ([]models.MemoryHit, error)
}

// ImageGenerator produces an image URL for a prompt
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Deps bundles the orchestrator's pipeline dependencies.
// Images may be nil to disable suggestion image generation.
type Deps struct {
	Vision     VisionAnalyzer
	Normalizer InputNormalizer
	Suggester  SuggestionProvider
	Recipes    RecipeGenerator
	Learner    FeedbackLearner
	Images     ImageGenerator
}

// Orchestrator coordinates the pipeline steps and owns all persistence.
// Concurrent turns on the same session race by design: each transition
// writes the whole state record and the later write wins.
type Orchestrator struct {
	cfg        *config.Config
	store      *sqlite.Store
	index      MemoryIndex
	vision     VisionAnalyzer
	normalizer InputNormalizer
	suggester  SuggestionProvider
	recipes    RecipeGenerator
	learner    FeedbackLearner
	images     ImageGenerator
	httpClient *http.Client

	jobs sync.WaitGroup
}

// New creates an orchestrator over the given store and index
func New(cfg *config.Config, store *sqlite.Store, index MemoryIndex, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		index:      index,
		vision:     deps.Vision,
		normalizer: deps.Normalizer,
		suggester:  deps.Suggester,
		recipes:    deps.Recipes,
		learner:    deps.Learner,
		images:     deps.Images,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WaitForImageJobs blocks until all background image jobs finish.
// Used by graceful shutdown and by tests.
func (o *Orchestrator) WaitForImageJobs() {
	o.jobs.Wait()
}

// BuildUserContext assembles the context bundle for agent calls.
// Every sub-fetch is best effort: failures are logged and leave the
// section empty rather than failing the turn.
func (o *Orchestrator) BuildUserContext(ctx context.Context, userID, queryText string) *models.UserContext {
	userCtx := &models.UserContext{}

	profile, err := o.store.Profiles.Get(userID)
	if err != nil {
		log.Printf("context: load profile for %s: %v", userID, err)
	}
	userCtx.Profile = profile

	facts, err := o.store.Facts.Top(userID, o.cfg.TopKPreferenceFacts)
	if err != nil {
		log.Printf("context: load preference facts for %s: %v", userID, err)
	}
	userCtx.PreferenceFacts = facts

	meals, err := o.store.Meals.Recent(userID, o.cfg.RecentMealsCount)
	if err != nil {
		log.Printf("context: load recent meals for %s: %v", userID, err)
	}
	userCtx.RecentMeals = meals

	if queryText != "" {
		memories, err := o.index.Search(ctx, userID, queryText, o.cfg.TopKMemories)
		if err != nil {
			log.Printf("context: memory search for %s: %v", userID, err)
		}
		userCtx.Memories = memories
	}

	return userCtx
}

// UploadedImage is one image received from the client
type UploadedImage struct {
	Filename string
	Data     []byte
}

// SaveUploadedImages writes uploads to the user's image directory under
// fresh names and returns the stored paths
func (o *Orchestrator) SaveUploadedImages(userID string, uploads []UploadedImage) ([]string, error) {
	dir := o.cfg.UserImagesDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create images directory: %w", err)
	}

	paths := make([]string, 0, len(uploads))
	for _, up := range uploads {
		ext := filepath.Ext(up.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		path := filepath.Join(dir, uuid.NewString()+ext)
		if err := os.WriteFile(path, up.Data, 0644); err != nil {
			return nil, fmt.Errorf("save uploaded image: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ProcessChatTurn runs a user turn through vision, normalization, and
// suggestion generation. It returns either follow-up questions or
// suggestions, persisting the session state at each exit. modeHint may
// be "meal" or "ingredients" to pin ambiguous text to one flow.
func (o *Orchestrator) ProcessChatTurn(ctx context.Context, userID, sessionID, text string, imagePaths []string, modeHint string, maxTimeMinutes int) (*TurnResponse, error) {
	if err := o.store.Users.Ensure(userID); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	existing, err := o.store.Sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	userCtx := o.BuildUserContext(ctx, userID, text)

	var allergies, dislikes []string
	if userCtx.Profile != nil {
		allergies = userCtx.Profile.Allergies
		dislikes = userCtx.Profile.Dislikes
	}

	// Step 1: vision, when images accompany the turn
	var visionResult *models.VisionResult
	if len(imagePaths) > 0 {
		images, err := loadImages(imagePaths)
		if err != nil {
			return nil, fmt.Errorf("load images: %w", err)
		}
		visionResult = o.vision.Analyze(ctx, images, text, allergies, dislikes)

		if visionResult.Kind == models.VisionUnknown && len(visionResult.FollowUpQuestions) > 0 {
			state := &models.SessionState{
				SessionID:    sessionID,
				UserID:       userID,
				Step:         models.StepAwaitingFollowup,
				VisionResult: visionResult,
				ImagePaths:   imagePaths,
				OriginalText: text,
			}
			if existing != nil {
				state.CreatedAt = existing.CreatedAt
			}
			if err := o.store.Sessions.Put(state); err != nil {
				return nil, fmt.Errorf("persist session: %w", err)
			}
			return &TurnResponse{FollowUp: &FollowUpResponse{
				SessionID: sessionID,
				Questions: visionResult.FollowUpQuestions,
				Blocking:  true,
			}}, nil
		}
	}

	// Step 2: normalization, carrying follow-up answers when resuming
	var previousAnswers map[string]string
	if existing != nil && existing.Step == models.StepAwaitingFollowup {
		previousAnswers = map[string]string{"follow_up": text}
		if visionResult == nil && existing.VisionResult != nil {
			visionResult = existing.VisionResult
		}
		if len(imagePaths) == 0 {
			imagePaths = existing.ImagePaths
		}
	}

	normalized := o.normalizer.Normalize(ctx, text, visionResult, previousAnswers)

	if normalized.InputKind == models.InputUnknown && len(normalized.MissingInfoQuestions) > 0 {
		state := &models.SessionState{
			SessionID:    sessionID,
			UserID:       userID,
			Step:         models.StepAwaitingFollowup,
			VisionResult: visionResult,
			ImagePaths:   imagePaths,
			OriginalText: text,
		}
		if existing != nil {
			state.CreatedAt = existing.CreatedAt
		}
		if err := o.store.Sessions.Put(state); err != nil {
			return nil, fmt.Errorf("persist session: %w", err)
		}
		return &TurnResponse{FollowUp: &FollowUpResponse{
			SessionID: sessionID,
			Questions: normalized.MissingInfoQuestions,
			Blocking:  true,
		}}, nil
	}

	switch modeHint {
	case "meal":
		if normalized.InputKind == models.InputTextIngredients {
			normalized.InputKind = models.InputTextMeal
		}
	case "ingredients":
		if normalized.InputKind == models.InputTextMeal {
			normalized.InputKind = models.InputTextIngredients
		}
	}

	if maxTimeMinutes > 0 {
		normalized.MaxTimeMinutes = maxTimeMinutes
	}

	// Step 3: suggestions
	suggestionsResult := o.suggester.Suggest(ctx, normalized, userCtx)

	if len(suggestionsResult.Suggestions) == 0 && len(suggestionsResult.FollowUpQuestions) > 0 {
		return &TurnResponse{FollowUp: &FollowUpResponse{
			SessionID: sessionID,
			Questions: suggestionsResult.FollowUpQuestions,
			Blocking:  true,
		}}, nil
	}

	imageJob := models.ImageJobNone
	if o.images != nil {
		imageJob = models.ImageJobPending
	}

	state := &models.SessionState{
		SessionID:        sessionID,
		UserID:           userID,
		Step:             models.StepAwaitingSelection,
		VisionResult:     visionResult,
		NormalizedInput:  normalized,
		Suggestions:      suggestionsResult.Suggestions,
		SuggestionImages: map[string]string{},
		ImageJob:         imageJob,
		ImagePaths:       imagePaths,
		OriginalText:     text,
	}
	if existing != nil {
		state.CreatedAt = existing.CreatedAt
	}
	if err := o.store.Sessions.Put(state); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	if o.images != nil {
		o.startImageJob(sessionID, userID, suggestionsResult.Suggestions)
	}

	return &TurnResponse{Suggestions: &SuggestionsResponse{
		SessionID: sessionID,
		Source: SourceInfo{
			InputKind:    normalized.InputKind,
			VisionResult: visionResult,
		},
		Suggestions: suggestionsResult.Suggestions,
	}}, nil
}

// ProcessModification regenerates suggestions with requested additions,
// reusing the session's stored input context
func (o *Orchestrator) ProcessModification(ctx context.Context, userID, sessionID, modification string) (*TurnResponse, error) {
	state, err := o.store.Sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}
	if state.NormalizedInput == nil {
		return nil, ErrNoMealContext
	}

	normalized := *state.NormalizedInput
	for _, item := range strings.Split(modification, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			normalized.Ingredients = append(normalized.Ingredients, trimmed)
		}
	}

	allModifications := append(append([]string{}, state.Modifications...), modification)

	userCtx := o.BuildUserContext(ctx, userID, modification)
	userCtx.ModificationRequest = modification
	userCtx.AllModifications = allModifications

	suggestionsResult := o.suggester.Suggest(ctx, &normalized, userCtx)

	imageJob := models.ImageJobNone
	if o.images != nil {
		imageJob = models.ImageJobPending
	}

	next := &models.SessionState{
		SessionID:        sessionID,
		UserID:           userID,
		Step:             models.StepAwaitingSelection,
		VisionResult:     state.VisionResult,
		NormalizedInput:  &normalized,
		Suggestions:      suggestionsResult.Suggestions,
		SuggestionImages: map[string]string{},
		ImageJob:         imageJob,
		ImagePaths:       state.ImagePaths,
		OriginalText:     state.OriginalText,
		Modifications:    allModifications,
		CreatedAt:        state.CreatedAt,
	}
	if err := o.store.Sessions.Put(next); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	if o.images != nil {
		o.startImageJob(sessionID, userID, suggestionsResult.Suggestions)
	}

	return &TurnResponse{Suggestions: &SuggestionsResponse{
		SessionID: sessionID,
		Source: SourceInfo{
			InputKind:    normalized.InputKind,
			VisionResult: state.VisionResult,
		},
		Suggestions: suggestionsResult.Suggestions,
	}}, nil
}

// ProcessSelection generates the recipe for a chosen suggestion and
// records the meal. The session moves to done.
func (o *Orchestrator) ProcessSelection(ctx context.Context, userID, sessionID, suggestionID string) (*RecipeResponse, error) {
	state, err := o.store.Sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}
	if state.Step != models.StepAwaitingSelection {
		return nil, ErrNoPendingSelection
	}

	selected := state.FindSuggestion(suggestionID)
	if selected == nil {
		return nil, fmt.Errorf("%w: %s", ErrSuggestionNotFound, suggestionID)
	}

	normalized := state.NormalizedInput
	if normalized == nil {
		normalized = &models.NormalizedInput{}
	}

	userCtx := o.BuildUserContext(ctx, userID, selected.Title)

	// Step 4: recipe
	recipe := o.recipes.Generate(ctx, selected, normalized, userCtx)

	mealID := uuid.NewString()

	// The background job stores local URLs; derive the file path back
	localImageURL := state.SuggestionImages[suggestionID]
	var savedImagePath string
	if localImageURL != "" {
		parts := strings.Split(localImageURL, "/")
		filename := parts[len(parts)-1]
		savedImagePath = filepath.Join(o.cfg.UserImagesDir(userID), filename)
	}

	meal := &models.Meal{
		MealID:             mealID,
		UserID:             userID,
		Title:              recipe.Name,
		SourceKind:         normalized.InputKind,
		InputText:          state.OriginalText,
		InputImagePaths:    state.ImagePaths,
		VisionResult:       state.VisionResult,
		SuggestionID:       suggestionID,
		Recipe:             *recipe,
		Tags:               selected.Tags,
		GeneratedImagePath: savedImagePath,
	}
	if err := o.store.Meals.Create(meal); err != nil {
		return nil, fmt.Errorf("persist meal: %w", err)
	}

	next := &models.SessionState{
		SessionID: sessionID,
		UserID:    userID,
		Step:      models.StepDone,
		MealID:    mealID,
		CreatedAt: state.CreatedAt,
	}
	if err := o.store.Sessions.Put(next); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	return &RecipeResponse{
		SessionID: sessionID,
		MealID:    mealID,
		Recipe:    recipe,
		ImageURL:  localImageURL,
	}, nil
}

// ProcessFeedback records the outcome and runs the learning step.
// Memory, fact, and profile writes are best effort after the outcome
// itself is stored.
func (o *Orchestrator) ProcessFeedback(ctx context.Context, userID, mealID string, liked, cookedAgain bool, tags []string, notes string) (*FeedbackResponse, error) {
	meal, err := o.store.Meals.Get(mealID)
	if err != nil {
		return nil, fmt.Errorf("load meal: %w", err)
	}
	if meal == nil {
		return nil, fmt.Errorf("%w: %s", ErrMealNotFound, mealID)
	}

	outcome := &models.MealOutcome{
		MealID:      mealID,
		UserID:      userID,
		Liked:       liked,
		CookedAgain: cookedAgain,
		Tags:        tags,
		Notes:       notes,
	}
	if err := o.store.Outcomes.Upsert(outcome); err != nil {
		return nil, fmt.Errorf("persist outcome: %w", err)
	}

	facts, err := o.store.Facts.Top(userID, o.cfg.TopKPreferenceFacts)
	if err != nil {
		log.Printf("feedback: load preference facts: %v", err)
	}
	profile, err := o.store.Profiles.Get(userID)
	if err != nil {
		log.Printf("feedback: load profile: %v", err)
	}

	// Step 5: learning
	learning := o.learner.Learn(ctx, agents.FeedbackInput{
		MealTitle:       meal.Title,
		RecipeTags:      meal.Tags,
		Liked:           liked,
		CookedAgain:     cookedAgain,
		FeedbackTags:    tags,
		Notes:           notes,
		PreferenceFacts: facts,
		Profile:         profile,
	})

	for _, item := range learning.MemoryItems {
		memoryID := uuid.NewString()
		record := &models.MemoryItem{
			MemoryID:     memoryID,
			UserID:       userID,
			Kind:         item.Kind,
			Text:         item.Text,
			Salience:     item.Salience,
			SourceMealID: mealID,
			EmbeddingID:  memoryID,
		}
		if err := o.store.Memories.Append(record); err != nil {
			log.Printf("feedback: persist memory item: %v", err)
			continue
		}
		if err := o.index.Add(ctx, record); err != nil {
			// Recall degrades but the item is durable in SQLite
			log.Printf("feedback: index memory item: %v", err)
		}
	}

	for _, delta := range learning.PreferenceFacts {
		if err := o.store.Facts.ApplyDelta(userID, delta.FactKey, delta.DeltaStrength, mealID); err != nil {
			log.Printf("feedback: apply preference delta %s: %v", delta.FactKey, err)
		}
	}

	if profile != nil && !learning.ProfilePatch.IsEmpty() {
		profile.ApplyPatch(learning.ProfilePatch)
		if err := o.store.Profiles.Upsert(profile); err != nil {
			log.Printf("feedback: apply profile patch: %v", err)
		}
	}

	updated, err := o.store.Profiles.Get(userID)
	if err != nil {
		log.Printf("feedback: reload profile: %v", err)
	}

	return &FeedbackResponse{
		UpdatedProfileSummary:  updated.Summary(),
		MemoryItemsWritten:     len(learning.MemoryItems),
		PreferenceFactsUpdated: len(learning.PreferenceFacts),
	}, nil
}

// GetSessionImages reports the image job status and any ready images
func (o *Orchestrator) GetSessionImages(sessionID string) (*SessionImagesResponse, error) {
	state, err := o.store.Sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}

	images := state.SuggestionImages
	if images == nil {
		images = map[string]string{}
	}
	return &SessionImagesResponse{
		SessionID: sessionID,
		Status:    state.ImageJob,
		Images:    images,
	}, nil
}

// loadImages reads image files into vision inputs
func loadImages(paths []string) ([]llm.ImageInput, error) {
	images := make([]llm.ImageInput, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", path, err)
		}
		images = append(images, llm.ImageInput{
			Data:     data,
			MimeType: mimeTypeForExt(filepath.Ext(path)),
		})
	}
	return images, nil
}

func mimeTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
