// ABOUTME: Structured input/output types exchanged with the generative agents
// ABOUTME: Shapes are stable wire contracts; agents validate into these on parse
package models

// VisionKind classifies what an image shows
type VisionKind string

const (
	VisionMealPhoto        VisionKind = "meal_photo"
	VisionIngredientsPhoto VisionKind = "ingredients_photo"
	VisionUnknown          VisionKind = "unknown"
)

// DetectedItem is a single ingredient detected in an image
type DetectedItem struct {
	Name         string `json:"name"`
	QuantityHint string `json:"quantity_hint,omitempty"`
}

// VisionDetected holds the entities extracted from an image
type VisionDetected struct {
	MealName    string         `json:"meal_name,omitempty"`
	Ingredients []DetectedItem `json:"ingredients,omitempty"`
	CuisineHint string         `json:"cuisine_hint,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// VisionResult is the vision agent's classification of uploaded images
type VisionResult struct {
	Kind              VisionKind     `json:"kind"`
	Confidence        float64        `json:"confidence"`
	Detected          VisionDetected `json:"detected"`
	Warnings          []string       `json:"warnings,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
}

// InputKind classifies the user's normalized request
type InputKind string

const (
	InputTextMeal         InputKind = "text_meal"
	InputTextIngredients  InputKind = "text_ingredients"
	InputMealPhoto        InputKind = "meal_photo"
	InputIngredientsPhoto InputKind = "ingredients_photo"
	InputUnknown          InputKind = "unknown"
)

// NormalizedInput is the common internal representation of a user request
type NormalizedInput struct {
	InputKind            InputKind `json:"input_kind"`
	MealName             string    `json:"meal_name,omitempty"`
	Ingredients          []string  `json:"ingredients,omitempty"`
	MaxTimeMinutes       int       `json:"max_time_minutes,omitempty"`
	EquipmentOverrides   []string  `json:"equipment_overrides,omitempty"`
	MissingInfoQuestions []string  `json:"missing_info_questions,omitempty"`
}

// Suggestion is a candidate meal idea offered before a full recipe exists
type Suggestion struct {
	SuggestionID         string   `json:"suggestion_id"`
	Title                string   `json:"title"`
	Summary              string   `json:"summary"`
	HealthRationale      []string `json:"health_rationale,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	KeyIngredients       []string `json:"key_ingredients,omitempty"`
	TweakOptions         []string `json:"tweak_options,omitempty"`
	EstimatedTimeMinutes int      `json:"estimated_time_minutes"`
	Difficulty           string   `json:"difficulty"`
	ImageURL             string   `json:"image_url,omitempty"`
}

// SuggestionsResult is the suggestion agent's output: candidates or follow-ups
type SuggestionsResult struct {
	Suggestions       []Suggestion `json:"suggestions"`
	FollowUpQuestions []string     `json:"follow_up_questions,omitempty"`
}

// RecipeIngredient is one line of a recipe's ingredient list
type RecipeIngredient struct {
	Name        string   `json:"name"`
	Quantity    string   `json:"quantity"`
	Optional    bool     `json:"optional,omitempty"`
	Substitutes []string `json:"substitutes,omitempty"`
}

// NutritionEstimate holds rough per-serving nutrition numbers
type NutritionEstimate struct {
	Calories int `json:"calories,omitempty"`
	ProteinG int `json:"protein_g,omitempty"`
	CarbsG   int `json:"carbs_g,omitempty"`
	FatG     int `json:"fat_g,omitempty"`
}

// Recipe is a complete, cookable recipe
type Recipe struct {
	Name            string             `json:"name"`
	Summary         string             `json:"summary"`
	HealthRationale []string           `json:"health_rationale,omitempty"`
	Ingredients     []RecipeIngredient `json:"ingredients"`
	Steps           []string           `json:"steps"`
	TimeMinutes     int                `json:"time_minutes"`
	Difficulty      string             `json:"difficulty"`
	Equipment       []string           `json:"equipment,omitempty"`
	Servings        int                `json:"servings"`
	Nutrition       NutritionEstimate  `json:"nutrition_estimate"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// MemoryKind classifies a learned memory item
type MemoryKind string

const (
	MemoryLike       MemoryKind = "like"
	MemoryDislike    MemoryKind = "dislike"
	MemoryConstraint MemoryKind = "constraint"
	MemoryPattern    MemoryKind = "pattern"
)

// LearnedMemory is a memory sentence produced by the learning step
type LearnedMemory struct {
	Text     string     `json:"text"`
	Kind     MemoryKind `json:"kind"`
	Salience float64    `json:"salience"`
}

// PreferenceDelta is an additive strength adjustment for one fact key
type PreferenceDelta struct {
	FactKey       string  `json:"fact_key"`
	DeltaStrength float64 `json:"delta_strength"`
	Reason        string  `json:"reason,omitempty"`
}

// ProfilePatch carries set-union additions to the profile; it never removes
type ProfilePatch struct {
	LikesAdd    []string `json:"likes_add,omitempty"`
	DislikesAdd []string `json:"dislikes_add,omitempty"`
	NotesAppend []string `json:"notes_append,omitempty"`
}

// IsEmpty reports whether the patch would change nothing
func (p ProfilePatch) IsEmpty() bool {
	return len(p.LikesAdd) == 0 && len(p.DislikesAdd) == 0 && len(p.NotesAppend) == 0
}

// LearningResult is the learning step's full output for one feedback event
type LearningResult struct {
	MemoryItems     []LearnedMemory   `json:"memory_items"`
	PreferenceFacts []PreferenceDelta `json:"preference_facts"`
	ProfilePatch    ProfilePatch      `json:"profile_patch"`
}
