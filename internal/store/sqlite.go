package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	// ErrNotFound is returned by updates and deletes against missing rows.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a history rewrite carries a stale
	// version: another writer got there first.
	ErrVersionConflict = errors.New("conversation was modified concurrently")
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS files (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        filename TEXT NOT NULL,
        file_path TEXT NOT NULL,
        file_type TEXT NOT NULL CHECK (file_type IN ('log', 'csv', 'xlsx', 'txt')),
        file_size INTEGER NOT NULL,
        upload_date DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS conversations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id INTEGER NOT NULL,
        file_id INTEGER,
        title TEXT NOT NULL DEFAULT '',
        history_json TEXT NOT NULL DEFAULT '[]',
        version INTEGER NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id),
        FOREIGN KEY (file_id) REFERENCES files (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

// GetOrCreateUser returns the user with the given username, creating it on
// first use. The application runs with a single default user.
func (s *SQLiteStore) GetOrCreateUser(username string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, username, created_at FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err == nil {
		return &user, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec("INSERT INTO users (username, created_at) VALUES (?, ?)", username, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Username: username, CreatedAt: now}, nil
}

// File methods

func (s *SQLiteStore) CreateFile(f *FileRecord) error {
	f.UploadDate = time.Now()
	res, err := s.db.Exec(
		"INSERT INTO files (user_id, filename, file_path, file_type, file_size, upload_date) VALUES (?, ?, ?, ?, ?, ?)",
		f.UserID, f.Filename, f.FilePath, f.FileType, f.FileSize, f.UploadDate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file record: %w", err)
	}
	f.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) GetFileByID(fileID, userID int64) (*FileRecord, error) {
	var f FileRecord
	err := s.db.QueryRow(
		"SELECT id, user_id, filename, file_path, file_type, file_size, upload_date FROM files WHERE id = ? AND user_id = ?",
		fileID, userID,
	).Scan(&f.ID, &f.UserID, &f.Filename, &f.FilePath, &f.FileType, &f.FileSize, &f.UploadDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}
	return &f, nil
}

func (s *SQLiteStore) GetFilesByUserID(userID int64) ([]FileRecord, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, filename, file_path, file_type, file_size, upload_date FROM files WHERE user_id = ? ORDER BY upload_date DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.FilePath, &f.FileType, &f.FileSize, &f.UploadDate); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		records = append(records, f)
	}
	return records, nil
}

// DeleteFile removes the file record and nulls the foreign key on any
// conversation that referenced it. History blobs keep their frozen snapshots.
func (s *SQLiteStore) DeleteFile(fileID, userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE conversations SET file_id = NULL WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("failed to unlink conversations: %w", err)
	}

	res, err := tx.Exec("DELETE FROM files WHERE id = ? AND user_id = ?", fileID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Conversation methods

func (s *SQLiteStore) CreateConversation(userID int64, fileID *int64, title string) (*Conversation, error) {
	now := time.Now()
	res, err := s.db.Exec(
		"INSERT INTO conversations (user_id, file_id, title, history_json, version, created_at, updated_at) VALUES (?, ?, ?, '[]', 0, ?, ?)",
		userID, fileID, title, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	id, _ := res.LastInsertId()
	return &Conversation{
		ID:        id,
		UserID:    userID,
		FileID:    fileID,
		Title:     title,
		History:   []ConversationMessage{},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetConversationByID(conversationID, userID int64) (*Conversation, error) {
	var (
		conv        Conversation
		fileID      sql.NullInt64
		historyJSON string
	)
	err := s.db.QueryRow(
		"SELECT id, user_id, file_id, title, history_json, version, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID,
	).Scan(&conv.ID, &conv.UserID, &fileID, &conv.Title, &historyJSON, &conv.Version, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if fileID.Valid {
		conv.FileID = &fileID.Int64
	}
	if err := json.Unmarshal([]byte(historyJSON), &conv.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history for conversation %d: %w", conv.ID, err)
	}
	return &conv, nil
}

func (s *SQLiteStore) GetConversationsByUserID(userID int64) ([]Conversation, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, file_id, title, version, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var (
			conv   Conversation
			fileID sql.NullInt64
		)
		if err := rows.Scan(&conv.ID, &conv.UserID, &fileID, &conv.Title, &conv.Version, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		if fileID.Valid {
			conv.FileID = &fileID.Int64
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// UpdateConversationHistory rewrites the whole history blob. The caller passes
// the version it read; a stale version means a concurrent turn already rewrote
// the blob and the update is rejected with ErrVersionConflict.
func (s *SQLiteStore) UpdateConversationHistory(conversationID, userID int64, history []ConversationMessage, expectVersion int64) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE conversations SET history_json = ?, version = version + 1, updated_at = ? WHERE id = ? AND user_id = ? AND version = ?",
		string(historyJSON), time.Now(), conversationID, userID, expectVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation history: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Distinguish a missing conversation from a lost race.
		existing, err := s.GetConversationByID(conversationID, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLiteStore) UpdateConversationTitle(conversationID, userID int64, title string) error {
	res, err := s.db.Exec(
		"UPDATE conversations SET title = ? WHERE id = ? AND user_id = ?",
		title, conversationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteConversation(conversationID, userID int64) error {
	res, err := s.db.Exec("DELETE FROM conversations WHERE id = ? AND user_id = ?", conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
