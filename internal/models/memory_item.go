// ABOUTME: MemoryItem is an append-only retrievable fact about the user
// ABOUTME: Never updated after creation; superseded by newer items, not deleted
package models

import "time"

// MemoryItem is a short textual memory with a salience score
type MemoryItem struct {
	MemoryID     string     `json:"memory_id"`
	UserID       string     `json:"user_id"`
	Kind         MemoryKind `json:"kind"`
	Text         string     `json:"text"`
	Salience     float64    `json:"salience"`
	SourceMealID string     `json:"source_meal_id,omitempty"`
	EmbeddingID  string     `json:"embedding_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// MemoryHit is a vector-search result for a memory item
type MemoryHit struct {
	MemoryID string            `json:"memory_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Distance float64           `json:"distance"`
}
