// ABOUTME: Memory item storage operations for SQLite
// ABOUTME: Append-only; items are never updated or deleted by this subsystem
package sqlite

import (
	"database/sql"
	"time"

	"github.com/tweakmymeal/mealcoach/internal/models"
)

// MemoryStore handles memory item persistence
type MemoryStore struct {
	db *DB
}

// NewMemoryStore creates a new MemoryStore
func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Append inserts a new memory item
func (s *MemoryStore) Append(item *models.MemoryItem) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO memory_items (memory_id, user_id, created_at, kind, text, salience, source_meal_id, embedding_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.MemoryID, item.UserID, createdAt, string(item.Kind), item.Text,
		item.Salience, nullString(item.SourceMealID), nullString(item.EmbeddingID))

	return err
}

// List returns the user's memory items ordered by salience descending
func (s *MemoryStore) List(userID string, limit int) ([]models.MemoryItem, error) {
	rows, err := s.db.Query(`
		SELECT memory_id, user_id, created_at, kind, text, salience, source_meal_id, embedding_id
		FROM memory_items
		WHERE user_id = ?
		ORDER BY salience DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []models.MemoryItem
	for rows.Next() {
		var (
			item        models.MemoryItem
			kind        string
			sourceMeal  sql.NullString
			embeddingID sql.NullString
		)
		if err := rows.Scan(&item.MemoryID, &item.UserID, &item.CreatedAt,
			&kind, &item.Text, &item.Salience, &sourceMeal, &embeddingID); err != nil {
			return nil, err
		}
		item.Kind = models.MemoryKind(kind)
		item.SourceMealID = sourceMeal.String
		item.EmbeddingID = embeddingID.String
		items = append(items, item)
	}

	return items, rows.Err()
}
