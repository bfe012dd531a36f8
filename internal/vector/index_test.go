// ABOUTME: Tests for the vector index using a deterministic stub embedder
// ABOUTME: Verifies per-user isolation, nearest-first ordering, and rehydration
package vector

import (
	"context"
	"testing"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// stubEmbedder maps known texts to fixed unit vectors so similarity
// ordering is predictable
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestIndex() *Index {
	return NewIndex(&stubEmbedder{
		vectors: map[string][]float32{
			"User liked spicy ramen":  {1, 0, 0},
			"User disliked oysters":   {0, 1, 0},
			"spicy noodles":           {0.9, 0.1, 0},
			"User prefers quick food": {0, 0, 1},
		},
	})
}

func TestSearchReturnsNearestFirst(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()

	items := []models.MemoryItem{
		{MemoryID: "mem_1", UserID: "u1", Kind: models.MemoryLike, Text: "User liked spicy ramen", Salience: 0.6},
		{MemoryID: "mem_2", UserID: "u1", Kind: models.MemoryDislike, Text: "User disliked oysters", Salience: 0.8},
	}
	for i := range items {
		if err := ix.Add(ctx, &items[i]); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	hits, err := ix.Search(ctx, "u1", "spicy noodles", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].MemoryID != "mem_1" {
		t.Errorf("expected nearest memory first, got %q", hits[0].MemoryID)
	}
	if hits[0].Distance >= hits[1].Distance {
		t.Errorf("expected ascending distance, got %v then %v", hits[0].Distance, hits[1].Distance)
	}
	if hits[0].Metadata["kind"] != "like" {
		t.Errorf("expected kind metadata, got %v", hits[0].Metadata)
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	ix := newTestIndex()

	hits, err := ix.Search(context.Background(), "nobody", "anything", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for empty collection, got %d", len(hits))
	}
}

func TestSearchClampsTopK(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()

	item := models.MemoryItem{MemoryID: "mem_1", UserID: "u1", Kind: models.MemoryLike, Text: "User liked spicy ramen"}
	if err := ix.Add(ctx, &item); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Asking for more results than stored items must not error
	hits, err := ix.Search(ctx, "u1", "spicy noodles", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestUserIsolation(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()

	a := models.MemoryItem{MemoryID: "mem_a", UserID: "alice", Kind: models.MemoryLike, Text: "User liked spicy ramen"}
	b := models.MemoryItem{MemoryID: "mem_b", UserID: "bob", Kind: models.MemoryDislike, Text: "User disliked oysters"}
	if err := ix.Add(ctx, &a); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := ix.Add(ctx, &b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	hits, err := ix.Search(ctx, "alice", "spicy noodles", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].MemoryID != "mem_a" {
		t.Errorf("expected only alice's memory, got %+v", hits)
	}
}

func TestRehydrate(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()

	items := []models.MemoryItem{
		{MemoryID: "mem_1", UserID: "u1", Kind: models.MemoryLike, Text: "User liked spicy ramen"},
		{MemoryID: "mem_2", UserID: "u1", Kind: models.MemoryPattern, Text: "User prefers quick food"},
	}
	if err := ix.Rehydrate(ctx, items); err != nil {
		t.Fatalf("Rehydrate failed: %v", err)
	}

	if got := ix.Count("u1"); got != 2 {
		t.Errorf("expected 2 indexed items, got %d", got)
	}
}
