package agent

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-labs/datachat/internal/files"
)

func TestBuildPromptNoFileNoHistory(t *testing.T) {
	system, user := BuildPrompt("What is in the data?", nil, nil)

	assert.Contains(t, system, "[VIZ:<chartKind>:<title>:<description>]")
	assert.Contains(t, system, "[TABLE:<title>:<description>]")
	assert.NotContains(t, system, "uploaded a file")
	assert.Equal(t, "What is in the data?", user)
}

func TestBuildPromptWithFile(t *testing.T) {
	pf, err := files.Process("sales.csv", []byte("region,total\nNorth,120\nSouth,80"), "csv")
	require.NoError(t, err)

	system, _ := BuildPrompt("Which region leads?", pf, nil)

	assert.Contains(t, system, "Filename: sales.csv")
	assert.Contains(t, system, "Type: table")
	assert.Contains(t, system, "CSV file with 2 rows and 2 columns.")
	assert.Contains(t, system, "region,total")
	assert.Contains(t, system, "  delimiter: ,")
	assert.Contains(t, system, "  rowCount: 2")
}

func TestBuildPromptHistoryWindow(t *testing.T) {
	var history []HistoryEntry
	for i := 0; i < 5; i++ {
		history = append(history,
			HistoryEntry{Role: "user", Content: fmt.Sprintf("question %d", i)},
			HistoryEntry{Role: "assistant", Content: fmt.Sprintf("answer %d", i)},
		)
	}

	_, user := BuildPrompt("final question", nil, history)

	// Only the trailing six turns survive.
	assert.NotContains(t, user, "question 1")
	assert.Contains(t, user, "User: question 2")
	assert.Contains(t, user, "Assistant: answer 4")
	assert.True(t, strings.HasSuffix(user, "Current question: final question"))

	lines := strings.Split(user, "\n")
	assert.Len(t, lines, 8) // 6 history lines, blank separator, current question
}

func TestBuildPromptShortHistory(t *testing.T) {
	history := []HistoryEntry{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	_, user := BuildPrompt("next", nil, history)
	assert.Equal(t, "User: hi\nAssistant: hello\n\nCurrent question: next", user)
}
