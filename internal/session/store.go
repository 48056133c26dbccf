package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Seka35/visual-crm/internal/llm"
)

// Snapshot is the persistable subset of a session.
type Snapshot struct {
	ChatID       int64
	UserID       string
	Email        string
	Timezone     string
	WorkflowID   string
	WorkflowName string
	Messages     []llm.Message
	UpdatedAt    time.Time
}

// Store persists session snapshots in SQLite so chats survive restarts.
type Store struct {
	db     *sql.DB
	dbPath string
}

// OpenStore opens (or creates) the session database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.db.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		chat_id INTEGER PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT '',
		workflow_id TEXT NOT NULL DEFAULT '',
		workflow_name TEXT NOT NULL DEFAULT '',
		history TEXT NOT NULL DEFAULT '[]',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := st.db.Exec(schema)
	return err
}

// Save upserts a snapshot.
func (st *Store) Save(snap Snapshot) error {
	history, err := json.Marshal(snap.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	_, err = st.db.Exec(`
		INSERT INTO sessions (chat_id, user_id, email, timezone, workflow_id, workflow_name, history, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			timezone = excluded.timezone,
			workflow_id = excluded.workflow_id,
			workflow_name = excluded.workflow_name,
			history = excluded.history,
			updated_at = excluded.updated_at`,
		snap.ChatID, snap.UserID, snap.Email, snap.Timezone,
		snap.WorkflowID, snap.WorkflowName, string(history), snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session %d: %w", snap.ChatID, err)
	}
	return nil
}

// Load fetches a snapshot by chat id; returns (nil, nil) when absent.
func (st *Store) Load(chatID int64) (*Snapshot, error) {
	row := st.db.QueryRow(`
		SELECT user_id, email, timezone, workflow_id, workflow_name, history, updated_at
		FROM sessions WHERE chat_id = ?`, chatID)

	var snap Snapshot
	var history string
	snap.ChatID = chatID
	err := row.Scan(&snap.UserID, &snap.Email, &snap.Timezone,
		&snap.WorkflowID, &snap.WorkflowName, &history, &snap.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", chatID, err)
	}

	if err := json.Unmarshal([]byte(history), &snap.Messages); err != nil {
		// Corrupt history should not lock the user out of their chat.
		snap.Messages = nil
	}
	return &snap, nil
}

// Delete removes a stored session.
func (st *Store) Delete(chatID int64) error {
	if _, err := st.db.Exec(`DELETE FROM sessions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", chatID, err)
	}
	return nil
}
