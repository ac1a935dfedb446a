package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/datachat-labs/datachat/internal/agent"
	"github.com/datachat-labs/datachat/internal/files"
	"github.com/datachat-labs/datachat/internal/store"
)

// ErrConversationNotFound distinguishes a missing conversation from internal
// failures at the HTTP boundary.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrFileNotFound is the file-record counterpart.
var ErrFileNotFound = errors.New("file not found")

// ChatService orchestrates a chat turn: read history, process the referenced
// file fresh, build the prompt, call the generator once, interpret the output,
// rewrite the history blob. Each turn is one synchronous request/response
// cycle with no retries.
type ChatService struct {
	dbStore   *store.SQLiteStore
	blobs     *files.Storage
	generator Generator
	log       *zap.SugaredLogger
}

func NewChatService(db *store.SQLiteStore, blobs *files.Storage, gen Generator, log *zap.SugaredLogger) *ChatService {
	return &ChatService{
		dbStore:   db,
		blobs:     blobs,
		generator: gen,
		log:       log,
	}
}

// File operations

// UploadFile validates, stores, and records one uploaded file. Validation
// happens before any blob or store mutation.
func (s *ChatService) UploadFile(userID int64, filename string, content []byte) (*store.FileRecord, error) {
	tag, err := files.TypeTag(filename)
	if err != nil {
		return nil, err
	}

	path, err := s.blobs.Save(filename, content)
	if err != nil {
		return nil, err
	}

	rec := &store.FileRecord{
		UserID:   userID,
		Filename: filename,
		FilePath: path,
		FileType: tag,
		FileSize: int64(len(content)),
	}
	if err := s.dbStore.CreateFile(rec); err != nil {
		// Keep the blob directory consistent with the store.
		if delErr := s.blobs.Delete(path); delErr != nil {
			s.log.Warnw("failed to remove orphaned blob", "path", path, "error", delErr)
		}
		return nil, err
	}
	return rec, nil
}

func (s *ChatService) ListFiles(userID int64) ([]store.FileRecord, error) {
	return s.dbStore.GetFilesByUserID(userID)
}

func (s *ChatService) GetFile(fileID, userID int64) (*store.FileRecord, error) {
	rec, err := s.dbStore.GetFileByID(fileID, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrFileNotFound
	}
	return rec, nil
}

func (s *ChatService) DeleteFile(fileID, userID int64) error {
	rec, err := s.dbStore.GetFileByID(fileID, userID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrFileNotFound
	}
	if err := s.dbStore.DeleteFile(fileID, userID); err != nil {
		return err
	}
	if err := s.blobs.Delete(rec.FilePath); err != nil {
		s.log.Warnw("failed to delete file blob", "path", rec.FilePath, "error", err)
	}
	return nil
}

// ProcessFile reads a file's blob and derives its request-scoped summary.
// Nothing is cached: every call processes the stored content fresh.
func (s *ChatService) ProcessFile(fileID, userID int64) (*files.ProcessedFile, error) {
	rec, err := s.GetFile(fileID, userID)
	if err != nil {
		return nil, err
	}
	content, err := s.blobs.Read(rec.FilePath)
	if err != nil {
		return nil, err
	}
	return files.Process(rec.Filename, content, rec.FileType)
}

// Conversation operations

func (s *ChatService) CreateConversation(userID int64, fileID *int64, title string) (*store.Conversation, error) {
	if fileID != nil {
		if _, err := s.GetFile(*fileID, userID); err != nil {
			return nil, err
		}
	}
	return s.dbStore.CreateConversation(userID, fileID, title)
}

func (s *ChatService) ListConversations(userID int64) ([]store.Conversation, error) {
	return s.dbStore.GetConversationsByUserID(userID)
}

func (s *ChatService) GetConversation(conversationID, userID int64) (*store.Conversation, error) {
	conv, err := s.dbStore.GetConversationByID(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *ChatService) DeleteConversation(conversationID, userID int64) error {
	err := s.dbStore.DeleteConversation(conversationID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// PostMessage runs one chat turn and returns the persisted assistant message
// together with the full structured response. fileID, when set, overrides the
// conversation's attached file for this turn.
func (s *ChatService) PostMessage(ctx context.Context, conversationID, userID int64, content string, fileID *int64) (*store.ConversationMessage, *agent.AgentResponse, error) {
	conv, err := s.GetConversation(conversationID, userID)
	if err != nil {
		return nil, nil, err
	}

	effectiveFileID := conv.FileID
	if fileID != nil {
		effectiveFileID = fileID
	}

	var pf *files.ProcessedFile
	if effectiveFileID != nil {
		pf, err = s.ProcessFile(*effectiveFileID, userID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to process referenced file: %w", err)
		}
	}

	history := make([]agent.HistoryEntry, 0, len(conv.History))
	for _, msg := range conv.History {
		history = append(history, agent.HistoryEntry{Role: msg.Role, Content: msg.Content})
	}

	systemInstruction, userInstruction := agent.BuildPrompt(content, pf, history)

	var response *agent.AgentResponse
	raw, err := s.generator.Generate(ctx, systemInstruction, userInstruction)
	if err != nil {
		// Generation failure is recovered locally with the fixed fallback,
		// never surfaced as a hard error.
		s.log.Errorw("generation call failed", "conversation_id", conversationID, "error", err)
		response = agent.FallbackResponse()
	} else {
		response = agent.Interpret(raw, pf)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	userMsg := store.ConversationMessage{
		Role:         "user",
		Content:      content,
		TimestampIso: now,
	}
	assistantMsg := store.ConversationMessage{
		Role:           "assistant",
		Content:        response.DisplayText,
		TimestampIso:   now,
		Visualizations: response.Visualizations,
		Tables:         response.Tables,
	}

	updated := append(conv.History, userMsg, assistantMsg)
	if err := s.dbStore.UpdateConversationHistory(conversationID, userID, updated, conv.Version); err != nil {
		return nil, nil, fmt.Errorf("failed to persist conversation history: %w", err)
	}

	if conv.Title == "" {
		go s.generateAndSaveTitle(conversationID, userID, content)
	}

	return &assistantMsg, response, nil
}

func (s *ChatService) generateAndSaveTitle(conversationID, userID int64, basisContent string) {
	title, err := s.generator.GenerateTitle(context.Background(), basisContent)
	if err != nil {
		s.log.Warnw("failed to generate conversation title", "conversation_id", conversationID, "error", err)
		return
	}
	if err := s.dbStore.UpdateConversationTitle(conversationID, userID, title); err != nil {
		s.log.Warnw("failed to save conversation title", "conversation_id", conversationID, "error", err)
		return
	}
	s.log.Infow("generated conversation title", "conversation_id", conversationID, "title", title)
}
