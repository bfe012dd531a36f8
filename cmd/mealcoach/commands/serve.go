// ABOUTME: Serve command starts the HTTP API with the full pipeline wired
// ABOUTME: Rebuilds the in-memory vector index from SQLite before listening
package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tweakmymeal/mealcoach/internal/agents"
	"github.com/tweakmymeal/mealcoach/internal/config"
	"github.com/tweakmymeal/mealcoach/internal/core"
	"github.com/tweakmymeal/mealcoach/internal/llm"
	"github.com/tweakmymeal/mealcoach/internal/server"
	"github.com/tweakmymeal/mealcoach/internal/storage/sqlite"
	"github.com/tweakmymeal/mealcoach/internal/vector"
)

// rehydrateLimit caps how many stored memories are re-embedded at startup
const rehydrateLimit = 1000

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the meal coach HTTP API",
		Long: `Start the HTTP API server.

The server exposes the chat pipeline (analysis, suggestions, recipes),
profile management, meal history, and feedback endpoints.

Examples:
  mealcoach serve
  MEALCOACH_LISTEN_ADDR=0.0.0.0:9000 mealcoach serve`,
		RunE: runServe,
	}

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	db, err := sqlite.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	store := sqlite.New(db)

	client, err := llm.NewOpenAIClient(cfg)
	if err != nil {
		return fmt.Errorf("initializing OpenAI client: %w", err)
	}

	index := vector.NewIndex(client)
	items, err := store.Memories.List(cfg.DefaultUserID, rehydrateLimit)
	if err != nil {
		return fmt.Errorf("loading stored memories: %w", err)
	}
	if len(items) > 0 {
		if err := index.Rehydrate(cmd.Context(), items); err != nil {
			// Recall degrades but serving can continue
			log.Printf("rehydrating vector index: %v", err)
		} else {
			log.Printf("rehydrated %d memories into the vector index", len(items))
		}
	}

	orch := core.New(cfg, store, index, core.Deps{
		Vision:     agents.NewVisionAgent(client),
		Normalizer: agents.NewNormalizer(client),
		Suggester:  agents.NewSuggester(client, cfg.MealSuggestionCount, cfg.IngredientsSuggestionCount),
		Recipes:    agents.NewRecipeAgent(client),
		Learner:    agents.NewLearner(client),
		Images:     client,
	})

	srv := server.New(cfg, orch, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
