package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database holding all durable application state.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	create_time TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS worlds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	tags TEXT,
	is_public INTEGER NOT NULL DEFAULT 0,
	worldview TEXT,
	master_setting TEXT,
	origin_world_id INTEGER,
	create_time TEXT NOT NULL,
	popularity INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS world_characters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	world_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	background TEXT
);
CREATE TABLE IF NOT EXISTS chapters (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	world_id INTEGER NOT NULL,
	creator_user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	opening TEXT,
	background TEXT,
	is_default INTEGER NOT NULL DEFAULT 0,
	origin_chapter_id INTEGER,
	create_time TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS conversation_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chapter_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('user', 'ai')),
	content TEXT NOT NULL,
	create_time TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS novel_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chapter_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	title TEXT,
	content TEXT NOT NULL,
	create_time TEXT NOT NULL,
	popularity INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS user_worlds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	world_id INTEGER NOT NULL,
	role TEXT NOT NULL CHECK (role IN ('creator', 'participant', 'viewer')),
	create_time TEXT NOT NULL,
	UNIQUE (user_id, world_id)
);
CREATE INDEX IF NOT EXISTS idx_chapters_world ON chapters(world_id);
CREATE INDEX IF NOT EXISTS idx_messages_chapter ON conversation_messages(chapter_id);
CREATE INDEX IF NOT EXISTS idx_novels_chapter ON novel_records(chapter_id);
CREATE INDEX IF NOT EXISTS idx_world_characters_world ON world_characters(world_id);
`)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
