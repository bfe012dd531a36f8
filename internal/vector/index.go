// ABOUTME: In-process vector index over memory items using chromem-go
// ABOUTME: Per-user collections; rebuilt from SQLite at startup, not persisted
package vector

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// Embedder produces an embedding vector for a piece of text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index holds per-user vector collections of memory items.
// The index is a cache over the SQLite memory_items table; losing it
// costs recall quality, never data.
type Index struct {
	db          *chromem.DB
	embedder    Embedder
	collections map[string]*chromem.Collection
	mu          sync.RWMutex
}

// NewIndex creates an empty in-memory index
func NewIndex(embedder Embedder) *Index {
	return &Index{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
	}
}

// getOrCreateCollection returns the collection for a user, creating it
// on first use
func (ix *Index) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	ix.mu.RLock()
	col, exists := ix.collections[userID]
	ix.mu.RUnlock()
	if exists {
		return col, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Double-check after acquiring write lock
	if col, exists := ix.collections[userID]; exists {
		return col, nil
	}

	col, err := ix.db.CreateCollection("user_"+userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	ix.collections[userID] = col
	return col, nil
}

// Add embeds a memory item's text and stores it in the user's collection
func (ix *Index) Add(ctx context.Context, item *models.MemoryItem) error {
	embedding, err := ix.embedder.Embed(ctx, item.Text)
	if err != nil {
		return fmt.Errorf("embed memory text: %w", err)
	}
	return ix.addWithEmbedding(ctx, item, embedding)
}

func (ix *Index) addWithEmbedding(ctx context.Context, item *models.MemoryItem, embedding []float32) error {
	col, err := ix.getOrCreateCollection(item.UserID)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        item.MemoryID,
		Content:   item.Text,
		Embedding: embedding,
		Metadata: map[string]string{
			"kind":           string(item.Kind),
			"salience":       strconv.FormatFloat(item.Salience, 'f', -1, 64),
			"source_meal_id": item.SourceMealID,
			"created_at":     item.CreatedAt.Format(time.RFC3339),
		},
	}

	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Search embeds the query and returns the user's nearest memory items.
// Returns an empty slice when the user has no indexed memories.
func (ix *Index) Search(ctx context.Context, userID, query string, topK int) ([]models.MemoryHit, error) {
	col, err := ix.getOrCreateCollection(userID)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults greater than the collection size
	if count := col.Count(); count < topK {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	embedding, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	hits := make([]models.MemoryHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, models.MemoryHit{
			MemoryID: r.ID,
			Text:     r.Content,
			Metadata: r.Metadata,
			Distance: float64(1 - r.Similarity),
		})
	}
	return hits, nil
}

// Rehydrate rebuilds a user's collection from stored memory items.
// Items are re-embedded; intended for startup after process restart.
func (ix *Index) Rehydrate(ctx context.Context, items []models.MemoryItem) error {
	for i := range items {
		if err := ix.Add(ctx, &items[i]); err != nil {
			return fmt.Errorf("rehydrate %s: %w", items[i].MemoryID, err)
		}
	}
	return nil
}

// Count returns the number of indexed items for a user
func (ix *Index) Count(userID string) int {
	ix.mu.RLock()
	col, exists := ix.collections[userID]
	ix.mu.RUnlock()
	if !exists {
		return 0
	}
	return col.Count()
}
