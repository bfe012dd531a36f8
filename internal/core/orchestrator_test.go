// ABOUTME: Tests for the orchestrator's state machine and persistence flows
// ABOUTME: Pipeline agents are stubbed; storage runs on in-memory SQLite
package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/tweakmymeal/mealcoach/internal/agents"
	"github.com/tweakmymeal/mealcoach/internal/config"
	"github.com/tweakmymeal/mealcoach/internal/llm"
	"github.com/tweakmymeal/mealcoach/internal/models"
	"github.com/tweakmymeal/mealcoach/internal/storage/sqlite"
)

type stubVision struct {
	result *models.VisionResult
}

func (s *stubVision) Analyze(_ context.Context, _ []llm.ImageInput, _ string, _, _ []string) *models.VisionResult {
	return s.result
}

type stubNormalizer struct {
	result       *models.NormalizedInput
	lastText     string
	lastVision   *models.VisionResult
	lastPrevious map[string]string
}

func (s *stubNormalizer) Normalize(_ context.Context, text string, vision *models.VisionResult, previous map[string]string) *models.NormalizedInput {
	s.lastText = text
	s.lastVision = vision
	s.lastPrevious = previous
	return s.result
}

type stubSuggester struct {
	result    *models.SuggestionsResult
	lastInput *models.NormalizedInput
	lastCtx   *models.UserContext
}

func (s *stubSuggester) Suggest(_ context.Context, input *models.NormalizedInput, userCtx *models.UserContext) *models.SuggestionsResult {
	s.lastInput = input
	s.lastCtx = userCtx
	return s.result
}

type stubRecipes struct {
	recipe *models.Recipe
}

func (s *stubRecipes) Generate(_ context.Context, suggestion *models.Suggestion, _ *models.NormalizedInput, _ *models.UserContext) *models.Recipe {
	if s.recipe != nil {
		return s.recipe
	}
	return &models.Recipe{Name: suggestion.Title, Servings: 2}
}

type stubLearner struct {
	result    *models.LearningResult
	lastInput agents.FeedbackInput
}

func (s *stubLearner) Learn(_ context.Context, input agents.FeedbackInput) *models.LearningResult {
	s.lastInput = input
	if s.result != nil {
		return s.result
	}
	return &models.LearningResult{}
}

type stubIndex struct {
	added []models.MemoryItem
	hits  []models.MemoryHit
}

func (s *stubIndex) Add(_ context.Context, item *models.MemoryItem) error {
	s.added = append(s.added, *item)
	return nil
}

func (s *stubIndex) Search(_ context.Context, _, _ string, _ int) ([]models.MemoryHit, error) {
	return s.hits, nil
}

type stubImages struct {
	url string
	err error
}

func (s *stubImages) GenerateImage(_ context.Context, _ string) (string, error) {
	return s.url, s.err
}

// gatedImages blocks generation until the gate closes, so tests can
// order the image job against other orchestrator calls
type gatedImages struct {
	url  string
	gate chan struct{}
}

func (s *gatedImages) GenerateImage(_ context.Context, _ string) (string, error) {
	<-s.gate
	return s.url, nil
}

type testEnv struct {
	orch       *Orchestrator
	store      *sqlite.Store
	index      *stubIndex
	vision     *stubVision
	normalizer *stubNormalizer
	suggester  *stubSuggester
	learner    *stubLearner
	cfg        *config.Config
}

func defaultSuggestions() *models.SuggestionsResult {
	return &models.SuggestionsResult{
		Suggestions: []models.Suggestion{
			{SuggestionID: "sug_1", Title: "Grilled Chicken Bowl", Tags: []string{"high-protein"}, KeyIngredients: []string{"chicken", "rice"}},
			{SuggestionID: "sug_2", Title: "Veggie Stir Fry", Tags: []string{"vegetarian"}},
		},
	}
}

func newTestEnv(t *testing.T, images ImageGenerator) *testEnv {
	t.Helper()

	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := sqlite.New(db)
	if err := store.Users.Ensure("u1"); err != nil {
		t.Fatalf("failed to ensure user: %v", err)
	}
	cfg := &config.Config{
		DataDir:             t.TempDir(),
		TopKPreferenceFacts: 10,
		RecentMealsCount:    5,
		TopKMemories:        5,
		PublicURL:           "http://127.0.0.1:8080",
	}

	env := &testEnv{
		store:      store,
		index:      &stubIndex{},
		vision:     &stubVision{result: &models.VisionResult{Kind: models.VisionMealPhoto, Confidence: 0.9}},
		normalizer: &stubNormalizer{result: &models.NormalizedInput{InputKind: models.InputTextMeal, MealName: "carbonara"}},
		suggester:  &stubSuggester{result: defaultSuggestions()},
		learner:    &stubLearner{},
		cfg:        cfg,
	}
	env.orch = New(cfg, store, env.index, Deps{
		Vision:     env.vision,
		Normalizer: env.normalizer,
		Suggester:  env.suggester,
		Recipes:    &stubRecipes{},
		Learner:    env.learner,
		Images:     images,
	})
	return env
}

func TestChatTurnReturnsSuggestions(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "I had carbonara", nil, "", 0)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	if resp.Suggestions == nil {
		t.Fatal("expected suggestions response")
	}
	if resp.FollowUp != nil {
		t.Error("expected follow-up to be empty")
	}
	if len(resp.Suggestions.Suggestions) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(resp.Suggestions.Suggestions))
	}
	if resp.Suggestions.Source.InputKind != models.InputTextMeal {
		t.Errorf("unexpected source kind: %q", resp.Suggestions.Source.InputKind)
	}

	state, err := env.store.Sessions.Get("sess_1")
	if err != nil {
		t.Fatalf("Get session failed: %v", err)
	}
	if state == nil {
		t.Fatal("expected persisted session state")
	}
	if state.Step != models.StepAwaitingSelection {
		t.Errorf("expected awaiting_selection, got %q", state.Step)
	}
	if len(state.Suggestions) != 2 {
		t.Errorf("expected buffered suggestions, got %d", len(state.Suggestions))
	}
	if state.ImageJob != models.ImageJobNone {
		t.Errorf("expected no image job without a generator, got %q", state.ImageJob)
	}
	if state.OriginalText != "I had carbonara" {
		t.Errorf("expected original text recorded, got %q", state.OriginalText)
	}
}

func TestChatTurnMaxTimeOverride(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "pasta", nil, "", 20)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	if env.suggester.lastInput.MaxTimeMinutes != 20 {
		t.Errorf("expected time override 20, got %d", env.suggester.lastInput.MaxTimeMinutes)
	}
}

func TestChatTurnModeHintPinsFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.normalizer.result = &models.NormalizedInput{
		InputKind:   models.InputTextMeal,
		MealName:    "chicken and rice",
		Ingredients: []string{"chicken", "rice"},
	}

	_, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "chicken and rice", nil, "ingredients", 0)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	if env.suggester.lastInput.InputKind != models.InputTextIngredients {
		t.Errorf("expected ingredients flow, got %s", env.suggester.lastInput.InputKind)
	}
}

func TestChatTurnFollowUpOnUnknownInput(t *testing.T) {
	env := newTestEnv(t, nil)
	env.normalizer.result = &models.NormalizedInput{
		InputKind:            models.InputUnknown,
		MissingInfoQuestions: []string{"What would you like to cook?"},
	}

	resp, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "", nil, "", 0)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	if resp.FollowUp == nil {
		t.Fatal("expected follow-up response")
	}
	if !resp.FollowUp.Blocking {
		t.Error("expected blocking follow-up")
	}

	state, _ := env.store.Sessions.Get("sess_1")
	if state == nil || state.Step != models.StepAwaitingFollowup {
		t.Fatalf("expected awaiting_followup state, got %+v", state)
	}
}

func TestChatTurnVisionFollowUp(t *testing.T) {
	env := newTestEnv(t, nil)
	env.vision.result = &models.VisionResult{
		Kind:              models.VisionUnknown,
		Confidence:        0.0,
		FollowUpQuestions: []string{"Could you describe what's in the image?"},
	}

	imagePath := writeTempImage(t)
	resp, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "", []string{imagePath}, "", 0)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	if resp.FollowUp == nil {
		t.Fatal("expected follow-up response from uncertain vision")
	}

	state, _ := env.store.Sessions.Get("sess_1")
	if state == nil || state.Step != models.StepAwaitingFollowup {
		t.Fatalf("expected awaiting_followup state, got %+v", state)
	}
	if state.VisionResult == nil || state.VisionResult.Kind != models.VisionUnknown {
		t.Error("expected vision result persisted for resume")
	}
	if len(state.ImagePaths) != 1 {
		t.Error("expected image paths persisted for resume")
	}
}

func TestFollowUpAnswerCarriesVision(t *testing.T) {
	env := newTestEnv(t, nil)

	// A previous turn left the session awaiting a follow-up answer
	prior := &models.SessionState{
		SessionID:    "sess_1",
		UserID:       "u1",
		Step:         models.StepAwaitingFollowup,
		VisionResult: &models.VisionResult{Kind: models.VisionMealPhoto, Confidence: 0.8},
		ImagePaths:   []string{"/tmp/earlier.jpg"},
	}
	if err := env.store.Sessions.Put(prior); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "it was a carbonara", nil, "", 0)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}

	if env.normalizer.lastPrevious == nil || env.normalizer.lastPrevious["follow_up"] != "it was a carbonara" {
		t.Errorf("expected follow-up answer forwarded, got %v", env.normalizer.lastPrevious)
	}
	if env.normalizer.lastVision == nil || env.normalizer.lastVision.Kind != models.VisionMealPhoto {
		t.Error("expected stored vision result forwarded to normalizer")
	}
}

func TestSuggesterFailureReturnsFollowUpWithoutState(t *testing.T) {
	env := newTestEnv(t, nil)
	env.suggester.result = &models.SuggestionsResult{
		Suggestions:       []models.Suggestion{},
		FollowUpQuestions: []string{"Could you provide more details?"},
	}

	resp, err := env.orch.ProcessChatTurn(context.Background(), "u1", "sess_1", "pasta", nil, "", 0)
	if err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	if resp.FollowUp == nil {
		t.Fatal("expected follow-up when no suggestions produced")
	}

	// The failed turn leaves no selection state behind
	state, _ := env.store.Sessions.Get("sess_1")
	if state != nil {
		t.Errorf("expected no persisted state, got %+v", state)
	}
}

func TestSelectionCreatesMealAndCompletesSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.orch.ProcessChatTurn(ctx, "u1", "sess_1", "carbonara", nil, "", 0); err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}

	resp, err := env.orch.ProcessSelection(ctx, "u1", "sess_1", "sug_1")
	if err != nil {
		t.Fatalf("ProcessSelection failed: %v", err)
	}
	if resp.MealID == "" {
		t.Fatal("expected meal id")
	}
	if resp.Recipe == nil || resp.Recipe.Name != "Grilled Chicken Bowl" {
		t.Errorf("unexpected recipe: %+v", resp.Recipe)
	}

	meal, err := env.store.Meals.Get(resp.MealID)
	if err != nil {
		t.Fatalf("Get meal failed: %v", err)
	}
	if meal == nil {
		t.Fatal("expected meal persisted")
	}
	if meal.SuggestionID != "sug_1" {
		t.Errorf("expected provenance suggestion id, got %q", meal.SuggestionID)
	}
	if meal.SourceKind != models.InputTextMeal {
		t.Errorf("expected source kind recorded, got %q", meal.SourceKind)
	}
	if len(meal.Tags) != 1 || meal.Tags[0] != "high-protein" {
		t.Errorf("expected suggestion tags on meal, got %v", meal.Tags)
	}

	state, _ := env.store.Sessions.Get("sess_1")
	if state == nil || state.Step != models.StepDone {
		t.Fatalf("expected done state, got %+v", state)
	}
	if state.MealID != resp.MealID {
		t.Errorf("expected meal id in state, got %q", state.MealID)
	}
}

func TestSelectionErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.orch.ProcessSelection(ctx, "u1", "sess_missing", "sug_1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := env.orch.ProcessChatTurn(ctx, "u1", "sess_1", "carbonara", nil, "", 0); err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}

	_, err = env.orch.ProcessSelection(ctx, "u1", "sess_1", "sug_99")
	if !errors.Is(err, ErrSuggestionNotFound) {
		t.Errorf("expected ErrSuggestionNotFound, got %v", err)
	}

	// Complete the session, then select again
	if _, err := env.orch.ProcessSelection(ctx, "u1", "sess_1", "sug_1"); err != nil {
		t.Fatalf("ProcessSelection failed: %v", err)
	}
	_, err = env.orch.ProcessSelection(ctx, "u1", "sess_1", "sug_1")
	if !errors.Is(err, ErrNoPendingSelection) {
		t.Errorf("expected ErrNoPendingSelection, got %v", err)
	}
}

func TestModificationAppendsIngredientsAndAccumulates(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.normalizer.result = &models.NormalizedInput{
		InputKind:   models.InputTextIngredients,
		Ingredients: []string{"chicken", "rice"},
	}
	if _, err := env.orch.ProcessChatTurn(ctx, "u1", "sess_1", "I have chicken and rice", nil, "", 0); err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}

	resp, err := env.orch.ProcessModification(ctx, "u1", "sess_1", "tofu, spinach")
	if err != nil {
		t.Fatalf("ProcessModification failed: %v", err)
	}
	if resp.Suggestions == nil {
		t.Fatal("expected suggestions response")
	}

	got := env.suggester.lastInput.Ingredients
	want := []string{"chicken", "rice", "tofu", "spinach"}
	if len(got) != len(want) {
		t.Fatalf("expected ingredients %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ingredient %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if env.suggester.lastCtx.ModificationRequest != "tofu, spinach" {
		t.Errorf("expected modification request in context, got %q", env.suggester.lastCtx.ModificationRequest)
	}

	state, _ := env.store.Sessions.Get("sess_1")
	if len(state.Modifications) != 1 || state.Modifications[0] != "tofu, spinach" {
		t.Errorf("expected modification recorded, got %v", state.Modifications)
	}

	// A second modification accumulates on the already-modified input
	if _, err := env.orch.ProcessModification(ctx, "u1", "sess_1", "garlic"); err != nil {
		t.Fatalf("second ProcessModification failed: %v", err)
	}
	state, _ = env.store.Sessions.Get("sess_1")
	if len(state.Modifications) != 2 {
		t.Errorf("expected 2 modifications, got %v", state.Modifications)
	}
	if len(env.suggester.lastCtx.AllModifications) != 2 {
		t.Errorf("expected full modification history in context, got %v", env.suggester.lastCtx.AllModifications)
	}
	if n := len(env.suggester.lastInput.Ingredients); n != 5 {
		t.Errorf("expected 5 accumulated ingredients, got %d", n)
	}
}

func TestModificationErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.orch.ProcessModification(ctx, "u1", "sess_missing", "tofu")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	// Session exists but never reached suggestions
	state := &models.SessionState{SessionID: "sess_1", UserID: "u1", Step: models.StepAwaitingFollowup}
	if err := env.store.Sessions.Put(state); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	_, err = env.orch.ProcessModification(ctx, "u1", "sess_1", "tofu")
	if !errors.Is(err, ErrNoMealContext) {
		t.Errorf("expected ErrNoMealContext, got %v", err)
	}
}

func TestFeedbackPersistsLearning(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.store.Users.Ensure("u1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	meal := &models.Meal{
		MealID:     "meal_1",
		UserID:     "u1",
		Title:      "Grilled Chicken Bowl",
		SourceKind: models.InputTextMeal,
		Tags:       []string{"high-protein"},
	}
	if err := env.store.Meals.Create(meal); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	env.learner.result = &models.LearningResult{
		MemoryItems: []models.LearnedMemory{
			{Text: "User liked Grilled Chicken Bowl", Kind: models.MemoryLike, Salience: 0.3},
		},
		PreferenceFacts: []models.PreferenceDelta{
			{FactKey: "likes:high-protein", DeltaStrength: 0.3},
		},
	}

	resp, err := env.orch.ProcessFeedback(ctx, "u1", "meal_1", true, false, []string{"easy"}, "loved it")
	if err != nil {
		t.Fatalf("ProcessFeedback failed: %v", err)
	}
	if resp.MemoryItemsWritten != 1 || resp.PreferenceFactsUpdated != 1 {
		t.Errorf("unexpected counts: %+v", resp)
	}

	outcome, err := env.store.Outcomes.Get("meal_1")
	if err != nil || outcome == nil {
		t.Fatalf("expected outcome persisted, got %+v err %v", outcome, err)
	}
	if !outcome.Liked || outcome.Notes != "loved it" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}

	fact, err := env.store.Facts.Get("u1", "likes:high-protein")
	if err != nil || fact == nil {
		t.Fatalf("expected preference fact, got %+v err %v", fact, err)
	}
	if fact.SourceMealID != "meal_1" {
		t.Errorf("expected fact provenance, got %q", fact.SourceMealID)
	}

	memories, err := env.store.Memories.List("u1", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(memories) != 1 || memories[0].SourceMealID != "meal_1" {
		t.Errorf("unexpected memories: %+v", memories)
	}
	if len(env.index.added) != 1 {
		t.Errorf("expected memory indexed, got %d", len(env.index.added))
	}
	if env.index.added[0].MemoryID != memories[0].MemoryID {
		t.Error("expected indexed id to match stored id")
	}

	if env.learner.lastInput.MealTitle != "Grilled Chicken Bowl" {
		t.Errorf("unexpected learner input: %+v", env.learner.lastInput)
	}
}

func TestFeedbackAppliesProfilePatch(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.store.Users.Ensure("u1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	profile := &models.Profile{UserID: "u1", DisplayName: "Alex", Likes: []string{"pasta"}}
	if err := env.store.Profiles.Upsert(profile); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	meal := &models.Meal{MealID: "meal_1", UserID: "u1", Title: "Ramen", SourceKind: models.InputTextMeal}
	if err := env.store.Meals.Create(meal); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	env.learner.result = &models.LearningResult{
		ProfilePatch: models.ProfilePatch{LikesAdd: []string{"ramen", "pasta"}},
	}

	resp, err := env.orch.ProcessFeedback(ctx, "u1", "meal_1", true, false, nil, "")
	if err != nil {
		t.Fatalf("ProcessFeedback failed: %v", err)
	}
	if resp.UpdatedProfileSummary == "" {
		t.Error("expected profile summary")
	}

	updated, _ := env.store.Profiles.Get("u1")
	if len(updated.Likes) != 2 {
		t.Errorf("expected set-union likes [pasta ramen], got %v", updated.Likes)
	}
}

func TestFeedbackUnknownMeal(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.orch.ProcessFeedback(context.Background(), "u1", "meal_missing", true, false, nil, "")
	if !errors.Is(err, ErrMealNotFound) {
		t.Errorf("expected ErrMealNotFound, got %v", err)
	}
}

func TestImageJobPopulatesSessionImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fake-image-bytes"))
	}))
	defer server.Close()

	env := newTestEnv(t, &stubImages{url: server.URL + "/img.jpg"})
	ctx := context.Background()

	if _, err := env.orch.ProcessChatTurn(ctx, "u1", "sess_1", "carbonara", nil, "", 0); err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}

	// The turn declares the job pending before the goroutine runs
	state, _ := env.store.Sessions.Get("sess_1")
	if state.ImageJob != models.ImageJobPending && state.ImageJob != models.ImageJobDone {
		t.Errorf("expected pending or done job, got %q", state.ImageJob)
	}

	env.orch.WaitForImageJobs()

	resp, err := env.orch.GetSessionImages("sess_1")
	if err != nil {
		t.Fatalf("GetSessionImages failed: %v", err)
	}
	if resp.Status != models.ImageJobDone {
		t.Errorf("expected done status, got %q", resp.Status)
	}
	if len(resp.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(resp.Images))
	}

	// Files landed in the user's image directory
	entries, err := os.ReadDir(env.cfg.UserImagesDir("u1"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 stored files, got %d", len(entries))
	}
}

func TestImageJobFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t, &stubImages{err: errors.New("image model unavailable")})
	ctx := context.Background()

	if _, err := env.orch.ProcessChatTurn(ctx, "u1", "sess_1", "carbonara", nil, "", 0); err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}
	env.orch.WaitForImageJobs()

	resp, err := env.orch.GetSessionImages("sess_1")
	if err != nil {
		t.Fatalf("GetSessionImages failed: %v", err)
	}
	if resp.Status != models.ImageJobFailed {
		t.Errorf("expected failed status, got %q", resp.Status)
	}
	if len(resp.Images) != 0 {
		t.Errorf("expected no images, got %v", resp.Images)
	}
}

func TestImageJobBackfillsMealSelectedEarly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fake-image-bytes"))
	}))
	defer server.Close()

	gate := make(chan struct{})
	env := newTestEnv(t, &gatedImages{url: server.URL + "/img.jpg", gate: gate})
	ctx := context.Background()

	if _, err := env.orch.ProcessChatTurn(ctx, "u1", "sess_1", "carbonara", nil, "", 0); err != nil {
		t.Fatalf("ProcessChatTurn failed: %v", err)
	}

	// Select while generation is still blocked: no image yet
	resp, err := env.orch.ProcessSelection(ctx, "u1", "sess_1", "sug_1")
	if err != nil {
		t.Fatalf("ProcessSelection failed: %v", err)
	}
	if resp.ImageURL != "" {
		t.Errorf("expected no image before the job finishes, got %q", resp.ImageURL)
	}

	close(gate)
	env.orch.WaitForImageJobs()

	meal, err := env.store.Meals.Get(resp.MealID)
	if err != nil || meal == nil {
		t.Fatalf("Get meal failed: %v", err)
	}
	if meal.GeneratedImagePath == "" {
		t.Fatal("expected generated image attached after the job finished")
	}
	if !strings.HasSuffix(meal.GeneratedImagePath, "sess_1_sug_1.jpg") {
		t.Errorf("unexpected image path %q", meal.GeneratedImagePath)
	}
}

func TestGetSessionImagesMissingSession(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.orch.GetSessionImages("sess_missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveUploadedImages(t *testing.T) {
	env := newTestEnv(t, nil)

	paths, err := env.orch.SaveUploadedImages("u1", []UploadedImage{
		{Filename: "dinner.png", Data: []byte("png-bytes")},
		{Filename: "noext", Data: []byte("jpg-bytes")},
	})
	if err != nil {
		t.Fatalf("SaveUploadedImages failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if ext := paths[0][len(paths[0])-4:]; ext != ".png" {
		t.Errorf("expected .png extension kept, got %q", ext)
	}
	if ext := paths[1][len(paths[1])-4:]; ext != ".jpg" {
		t.Errorf("expected .jpg default extension, got %q", ext)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected file at %s: %v", p, err)
		}
	}
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "img-*.jpg")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	if _, err := f.Write([]byte("jpeg-bytes")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	_ = f.Close()
	return f.Name()
}
