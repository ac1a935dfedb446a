package store

import (
	"time"

	"github.com/datachat-labs/datachat/internal/agent"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type FileRecord struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"-"` // storage location, not exposed
	FileType   string    `json:"file_type"` // log, csv, xlsx, txt
	FileSize   int64     `json:"file_size"`
	UploadDate time.Time `json:"upload_date"`
}

// ConversationMessage is one turn in a conversation's history blob. The
// visualization and table payloads are frozen snapshots: they stay renderable
// even after the source file is deleted.
type ConversationMessage struct {
	Role           string                    `json:"role"` // "user" or "assistant"
	Content        string                    `json:"content"`
	TimestampIso   string                    `json:"timestampIso"`
	Visualizations []agent.VisualizationSpec `json:"visualizations,omitempty"`
	Tables         []agent.TableSpec         `json:"tables,omitempty"`
}

// Conversation holds an ordered message history serialized as a single JSON
// blob, rewritten wholesale on every update. Version increments on each
// rewrite and guards concurrent turns against clobbering each other.
type Conversation struct {
	ID        int64                 `json:"id"`
	UserID    int64                 `json:"user_id"`
	FileID    *int64                `json:"file_id"` // nullable
	Title     string                `json:"title"`
	History   []ConversationMessage `json:"history"`
	Version   int64                 `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}
