// ABOUTME: Centralized configuration for the meal coach service
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Config holds all configuration for the meal coach
type Config struct {
	// Storage settings
	DataDir string

	// OpenAI settings
	OpenAIKey      string
	TextModel      string
	VisionModel    string
	EmbeddingModel string
	ImageModel     string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Context builder settings
	TopKPreferenceFacts int
	RecentMealsCount    int
	TopKMemories        int

	// Suggestion settings
	MealSuggestionCount        int
	IngredientsSuggestionCount int

	// Server settings
	ListenAddr string
	PublicURL  string

	// Single-tenant default user
	DefaultUserID string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:             getEnv("MEALCOACH_DATA_DIR", defaultDataDir()),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		TextModel:           getEnv("MEALCOACH_TEXT_MODEL", "gpt-4o-mini"),
		VisionModel:         getEnv("MEALCOACH_VISION_MODEL", "gpt-4o"),
		EmbeddingModel:      getEnv("MEALCOACH_EMBEDDING_MODEL", "text-embedding-3-small"),
		ImageModel:          getEnv("MEALCOACH_IMAGE_MODEL", "dall-e-3"),
		Timeout:             getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		TopKPreferenceFacts: getEnvInt("MEALCOACH_TOP_K_FACTS", 10),
		RecentMealsCount:    getEnvInt("MEALCOACH_RECENT_MEALS", 5),
		TopKMemories:        getEnvInt("MEALCOACH_TOP_K_MEMORIES", 5),

		MealSuggestionCount:        getEnvInt("MEALCOACH_MEAL_SUGGESTIONS", 3),
		IngredientsSuggestionCount: getEnvInt("MEALCOACH_INGREDIENT_SUGGESTIONS", 4),

		ListenAddr:    getEnv("MEALCOACH_LISTEN_ADDR", "127.0.0.1:8080"),
		PublicURL:     getEnv("MEALCOACH_PUBLIC_URL", "http://127.0.0.1:8080"),
		DefaultUserID: getEnv("MEALCOACH_USER_ID", "user_0001"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.TopKPreferenceFacts <= 0 {
		return fmt.Errorf("MEALCOACH_TOP_K_FACTS must be positive, got %d", c.TopKPreferenceFacts)
	}
	if c.RecentMealsCount <= 0 {
		return fmt.Errorf("MEALCOACH_RECENT_MEALS must be positive, got %d", c.RecentMealsCount)
	}
	if c.TopKMemories <= 0 {
		return fmt.Errorf("MEALCOACH_TOP_K_MEMORIES must be positive, got %d", c.TopKMemories)
	}
	return nil
}

// DBPath returns the SQLite database file path
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "mealcoach.db")
}

// UserImagesDir returns the directory for a user's stored images
func (c *Config) UserImagesDir(userID string) string {
	return filepath.Join(c.DataDir, "images", userID)
}

func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "mealcoach")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
