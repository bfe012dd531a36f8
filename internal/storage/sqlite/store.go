// ABOUTME: Aggregates the per-entity stores behind a single facade
// ABOUTME: Construct with New(db) after opening the database
package sqlite

// Store bundles all entity stores over one database handle
type Store struct {
	Users    *UserStore
	Profiles *ProfileStore
	Facts    *PreferenceStore
	Meals    *MealStore
	Outcomes *OutcomeStore
	Memories *MemoryStore
	Sessions *SessionStore
}

// New creates a Store over an open database
func New(db *DB) *Store {
	return &Store{
		Users:    NewUserStore(db),
		Profiles: NewProfileStore(db),
		Facts:    NewPreferenceStore(db),
		Meals:    NewMealStore(db),
		Outcomes: NewOutcomeStore(db),
		Memories: NewMemoryStore(db),
		Sessions: NewSessionStore(db),
	}
}
