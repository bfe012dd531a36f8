// ABOUTME: SQLite database schema for meal coach storage
// ABOUTME: Creates all tables and indexes for users, meals, preferences, sessions
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Users: identity anchors, created on first reference
CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One profile per user; JSON columns for list attributes
CREATE TABLE IF NOT EXISTS user_profile (
    user_id TEXT PRIMARY KEY REFERENCES users(user_id) ON DELETE CASCADE,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    display_name TEXT,
    diet_style TEXT,
    goals_json TEXT NOT NULL DEFAULT '[]',
    allergies_json TEXT NOT NULL DEFAULT '[]',
    dislikes_json TEXT NOT NULL DEFAULT '[]',
    likes_json TEXT NOT NULL DEFAULT '[]',
    cooking_skill TEXT,
    time_per_meal_minutes INTEGER,
    budget TEXT,
    household_size INTEGER,
    equipment_json TEXT NOT NULL DEFAULT '[]',
    units TEXT NOT NULL DEFAULT 'metric',
    notes TEXT
);

-- Preference facts: additive strength accumulators per (user, key)
CREATE TABLE IF NOT EXISTS preference_facts (
    user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    fact_key TEXT NOT NULL,
    strength REAL NOT NULL DEFAULT 0.0,
    last_updated_at DATETIME NOT NULL,
    source_meal_id TEXT,
    PRIMARY KEY (user_id, fact_key)
);

CREATE INDEX IF NOT EXISTS idx_preference_facts_strength
    ON preference_facts(user_id, strength DESC);

-- Meals: one per generated-and-accepted recipe, with provenance
CREATE TABLE IF NOT EXISTS meals (
    meal_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    title TEXT NOT NULL,
    source_kind TEXT NOT NULL,
    input_text TEXT,
    input_image_paths_json TEXT NOT NULL DEFAULT '[]',
    vision_result_json TEXT,
    suggestion_id TEXT,
    recipe_json TEXT NOT NULL,
    tags_json TEXT NOT NULL DEFAULT '[]',
    generated_image_path TEXT
);

CREATE INDEX IF NOT EXISTS idx_meals_user_created
    ON meals(user_id, created_at DESC);

-- Meal outcomes: one per meal, upsertable feedback
CREATE TABLE IF NOT EXISTS meal_outcomes (
    meal_id TEXT PRIMARY KEY REFERENCES meals(meal_id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    liked INTEGER NOT NULL,
    cooked_again INTEGER NOT NULL,
    tags_json TEXT NOT NULL DEFAULT '[]',
    notes TEXT
);

-- Memory items: append-only learned facts with salience
CREATE TABLE IF NOT EXISTS memory_items (
    memory_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    kind TEXT NOT NULL,
    text TEXT NOT NULL,
    salience REAL NOT NULL DEFAULT 0.0,
    source_meal_id TEXT,
    embedding_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_memory_user_salience
    ON memory_items(user_id, salience DESC);

-- Session state: one JSON blob per conversation, overwritten wholesale
CREATE TABLE IF NOT EXISTS session_state (
    session_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    state_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_updated
    ON session_state(updated_at DESC);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
