package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datachat-labs/datachat/internal/files"
	"github.com/datachat-labs/datachat/internal/store"
)

// stubGenerator plays the hosted generation collaborator in tests.
type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (g *stubGenerator) Generate(_ context.Context, system, user string) (string, error) {
	g.lastSystem = system
	g.lastUser = user
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *stubGenerator) GenerateTitle(context.Context, string) (string, error) {
	return "Test Conversation", nil
}

func newTestService(t *testing.T, gen Generator) (*ChatService, *store.SQLiteStore, int64) {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobs, err := files.NewStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewChatService(db, blobs, gen, zap.NewNop().Sugar())

	user, err := db.GetOrCreateUser("default")
	require.NoError(t, err)
	return svc, db, user.ID
}

func TestUploadFileRejectedBeforeStorage(t *testing.T) {
	svc, db, userID := newTestService(t, &stubGenerator{})

	_, err := svc.UploadFile(userID, "payload.exe", []byte("MZ"))
	require.ErrorIs(t, err, files.ErrUnsupportedFileType)

	records, err := db.GetFilesByUserID(userID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUploadAndProcessFile(t *testing.T) {
	svc, _, userID := newTestService(t, &stubGenerator{})

	rec, err := svc.UploadFile(userID, "sales.csv", []byte("region,total\nNorth,120"))
	require.NoError(t, err)
	assert.Equal(t, "csv", rec.FileType)
	assert.Equal(t, int64(22), rec.FileSize)

	pf, err := svc.ProcessFile(rec.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, files.KindTable, pf.Kind)
	assert.Equal(t, []string{"region", "total"}, pf.Columns)
}

func TestPostMessageEndToEnd(t *testing.T) {
	gen := &stubGenerator{response: "Here: [VIZ:bar:Sample:Demo]"}
	svc, db, userID := newTestService(t, gen)

	conv, err := svc.CreateConversation(userID, nil, "")
	require.NoError(t, err)

	msg, resp, err := svc.PostMessage(context.Background(), conv.ID, userID, "Show me a bar chart", nil)
	require.NoError(t, err)

	assert.Equal(t, "Here:", resp.DisplayText)
	require.Len(t, resp.Visualizations, 1)
	assert.Equal(t, "bar", resp.Visualizations[0].ChartKind)
	assert.Equal(t, 0.85, resp.ConfidenceScore)
	assert.Empty(t, resp.SourceTags)

	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "Here:", msg.Content)
	require.Len(t, msg.Visualizations, 1)

	stored, err := db.GetConversationByID(conv.ID, userID)
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	assert.Equal(t, "user", stored.History[0].Role)
	assert.Equal(t, "Show me a bar chart", stored.History[0].Content)
}

func TestPostMessageWithFileContext(t *testing.T) {
	gen := &stubGenerator{response: "[VIZ:pie:Levels:Breakdown] See the chart."}
	svc, _, userID := newTestService(t, gen)

	rec, err := svc.UploadFile(userID, "app.log", []byte("2024-01-15 ERROR 10.0.0.1 boom"))
	require.NoError(t, err)

	conv, err := svc.CreateConversation(userID, &rec.ID, "")
	require.NoError(t, err)

	_, resp, err := svc.PostMessage(context.Background(), conv.ID, userID, "Break down log levels", nil)
	require.NoError(t, err)

	assert.Contains(t, gen.lastSystem, "Filename: app.log")
	assert.Contains(t, gen.lastSystem, "Contains timestamps.")
	require.Len(t, resp.Visualizations, 1)
	assert.Equal(t, []string{"ERROR", "WARN", "INFO", "DEBUG"}, resp.Visualizations[0].Series.CategoryLabels)
	assert.Equal(t, []string{"log"}, resp.SourceTags)
}

func TestPostMessageHistoryAccumulates(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	svc, db, userID := newTestService(t, gen)

	conv, err := svc.CreateConversation(userID, nil, "t")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := svc.PostMessage(context.Background(), conv.ID, userID, "again", nil)
		require.NoError(t, err)
	}

	stored, err := db.GetConversationByID(conv.ID, userID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 6)
	assert.Contains(t, gen.lastUser, "Current question: again")
}

func TestPostMessageGenerationFailureFallsBack(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	svc, db, userID := newTestService(t, gen)

	conv, err := svc.CreateConversation(userID, nil, "t")
	require.NoError(t, err)

	msg, resp, err := svc.PostMessage(context.Background(), conv.ID, userID, "hello", nil)
	require.NoError(t, err) // never surfaced as a hard error

	assert.Equal(t, float64(0), resp.ConfidenceScore)
	assert.Empty(t, resp.Visualizations)
	assert.Empty(t, resp.Tables)
	assert.NotEmpty(t, msg.Content)

	// The fallback turn is still persisted.
	stored, err := db.GetConversationByID(conv.ID, userID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 2)
}

func TestPostMessageUnknownConversation(t *testing.T) {
	svc, _, userID := newTestService(t, &stubGenerator{response: "ok"})
	_, _, err := svc.PostMessage(context.Background(), 42, userID, "hello", nil)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestDeleteFileRemovesBlob(t *testing.T) {
	svc, _, userID := newTestService(t, &stubGenerator{})

	rec, err := svc.UploadFile(userID, "notes.txt", []byte("hello"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFile(rec.ID, userID))
	assert.ErrorIs(t, svc.DeleteFile(rec.ID, userID), ErrFileNotFound)
}

func TestTitleGenerated(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	svc, db, userID := newTestService(t, gen)

	conv, err := svc.CreateConversation(userID, nil, "")
	require.NoError(t, err)

	_, _, err = svc.PostMessage(context.Background(), conv.ID, userID, "What is in my data?", nil)
	require.NoError(t, err)

	// Title generation runs in the background.
	require.Eventually(t, func() bool {
		stored, err := db.GetConversationByID(conv.ID, userID)
		return err == nil && stored.Title == "Test Conversation"
	}, 2*time.Second, 10*time.Millisecond)
}
