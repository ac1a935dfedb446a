package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datachat-labs/datachat/internal/files"
)

const historyWindow = 6

const baseSystemInstruction = `You are a data analysis assistant. The user uploads a data file and asks questions about it in plain language. Answer concisely and ground every claim in the provided file context. If the context is insufficient, say so instead of guessing.

When a chart would help the user, include a visualization directive inline in your answer, on its own or inside a sentence:
[VIZ:<chartKind>:<title>:<description>]
where <chartKind> is one of: bar, line, pie, area.

When a data table would help, include a table directive:
[TABLE:<title>:<description>]

Titles and descriptions must not contain ':' or ']'. The directives are extracted and rendered by the application; do not describe them to the user.`

// HistoryEntry is one prior conversation turn, as needed for prompting.
type HistoryEntry struct {
	Role    string // "user" or "assistant"
	Content string
}

// BuildPrompt assembles the system and user instructions for one chat turn.
// pf may be nil when no file is attached to the conversation.
func BuildPrompt(query string, pf *files.ProcessedFile, history []HistoryEntry) (system, user string) {
	var sys strings.Builder
	sys.WriteString(baseSystemInstruction)

	if pf != nil {
		sys.WriteString("\n\nThe user has uploaded a file:\n")
		fmt.Fprintf(&sys, "Filename: %s\n", pf.Filename)
		fmt.Fprintf(&sys, "Type: %s\n", pf.Kind)
		fmt.Fprintf(&sys, "Size: %s\n", files.FormatFileSize(pf.ByteSize))
		fmt.Fprintf(&sys, "Summary: %s\n", pf.Summary())
		fmt.Fprintf(&sys, "Preview:\n%s\n", pf.PreviewText)
		if len(pf.Structure) > 0 {
			sys.WriteString("Structure:\n")
			sys.WriteString(formatStructure(pf.Structure))
		}
	}

	if len(history) == 0 {
		return sys.String(), query
	}

	turns := history
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}

	var usr strings.Builder
	for _, h := range turns {
		label := "User"
		if h.Role == "assistant" {
			label = "Assistant"
		}
		fmt.Fprintf(&usr, "%s: %s\n", label, h.Content)
	}
	usr.WriteString("\n")
	fmt.Fprintf(&usr, "Current question: %s", query)

	return sys.String(), usr.String()
}

// formatStructure renders the structure summary as indented key-value lines,
// with keys sorted so prompts are stable across runs.
func formatStructure(structure map[string]any) string {
	keys := make([]string, 0, len(structure))
	for k := range structure {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %v\n", k, structure[k])
	}
	return b.String()
}
