package files

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FileKind classifies an uploaded file for downstream prompt construction
// and payload synthesis.
type FileKind string

const (
	KindText        FileKind = "text"
	KindLog         FileKind = "log"
	KindTable       FileKind = "table"
	KindSpreadsheet FileKind = "spreadsheet"
)

// ErrUnsupportedFileType is returned when a file's declared type tag does not
// map to a known kind.
var ErrUnsupportedFileType = errors.New("unsupported file type")

const (
	textPreviewLines  = 10
	logPreviewLines   = 10
	tablePreviewLines = 6

	spreadsheetPlaceholder = "Spreadsheet content is not parsed inline. Full processing available after upload."
)

// ProcessedFile is the ephemeral, request-scoped summary derived from a file's
// raw content. It is rebuilt on every query that references the file and is
// never cached or persisted.
type ProcessedFile struct {
	Kind        FileKind
	Filename    string
	RawContent  string
	ByteSize    int64
	LineCount   int
	PreviewText string
	Columns     []string
	Structure   map[string]any
}

var (
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}:\d{2})?`)
	levelPattern     = regexp.MustCompile(`(?i)\b(ERROR|WARN|INFO|DEBUG|TRACE|FATAL)\b`)
	ipPattern        = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
)

// Process derives a ProcessedFile from raw content and a declared type tag.
// Tags follow the upload extensions: txt, log, csv, xlsx. There is no content
// sniffing beyond the tag.
func Process(filename string, content []byte, typeTag string) (*ProcessedFile, error) {
	switch strings.ToLower(typeTag) {
	case "txt":
		return processText(filename, content), nil
	case "log":
		return processLog(filename, content), nil
	case "csv":
		return processTable(filename, content), nil
	case "xlsx":
		return processSpreadsheet(filename, content), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, typeTag)
	}
}

func processText(filename string, content []byte) *ProcessedFile {
	text := string(content)
	lines := strings.Split(text, "\n")

	preview := lines
	if len(preview) > textPreviewLines {
		preview = preview[:textPreviewLines]
	}

	return &ProcessedFile{
		Kind:        KindText,
		Filename:    filename,
		RawContent:  text,
		ByteSize:    int64(len(content)),
		LineCount:   len(lines),
		PreviewText: strings.Join(preview, "\n"),
		Structure: map[string]any{
			"lineCount": len(lines),
		},
	}
}

func processLog(filename string, content []byte) *ProcessedFile {
	text := string(content)

	var entries []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			entries = append(entries, line)
		}
	}

	hasTimestamps := timestampPattern.MatchString(text)
	hasLevels := levelPattern.MatchString(text)
	hasIPs := ipPattern.MatchString(text)

	preview := entries
	if len(preview) > logPreviewLines {
		preview = preview[:logPreviewLines]
	}

	return &ProcessedFile{
		Kind:        KindLog,
		Filename:    filename,
		RawContent:  text,
		ByteSize:    int64(len(content)),
		LineCount:   len(entries),
		PreviewText: strings.Join(preview, "\n"),
		Structure: map[string]any{
			"entryCount":    len(entries),
			"hasTimestamps": hasTimestamps,
			"hasLevels":     hasLevels,
			"hasIPs":        hasIPs,
		},
	}
}

// processTable handles comma-delimited text. The first line is the header row;
// cells are split on raw commas with no quote or escape handling. That
// simplification is part of the contract, not an oversight.
func processTable(filename string, content []byte) *ProcessedFile {
	text := string(content)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	var headers []string
	if len(lines) > 0 {
		for _, cell := range strings.Split(lines[0], ",") {
			cell = strings.TrimSpace(cell)
			cell = strings.Trim(cell, `"`)
			headers = append(headers, cell)
		}
	}

	rowCount := 0
	if len(lines) > 1 {
		rowCount = len(lines) - 1
	}

	preview := lines
	if len(preview) > tablePreviewLines {
		preview = preview[:tablePreviewLines]
	}

	return &ProcessedFile{
		Kind:        KindTable,
		Filename:    filename,
		RawContent:  text,
		ByteSize:    int64(len(content)),
		LineCount:   len(lines),
		PreviewText: strings.Join(preview, "\n"),
		Columns:     headers,
		Structure: map[string]any{
			"headers":     headers,
			"rowCount":    rowCount,
			"columnCount": len(headers),
			"delimiter":   ",",
		},
	}
}

// processSpreadsheet is a placeholder: no binary parsing is attempted.
func processSpreadsheet(filename string, content []byte) *ProcessedFile {
	return &ProcessedFile{
		Kind:        KindSpreadsheet,
		Filename:    filename,
		RawContent:  spreadsheetPlaceholder,
		ByteSize:    int64(len(content)),
		PreviewText: spreadsheetPlaceholder,
		Structure: map[string]any{
			"sheets": []string{"Sheet1"},
			"format": "spreadsheet",
		},
	}
}

// Summary renders the one-line human-readable description used in prompts and
// file listings.
func (pf *ProcessedFile) Summary() string {
	switch pf.Kind {
	case KindText:
		return fmt.Sprintf("Text file with %d lines (%s)", pf.LineCount, FormatFileSize(pf.ByteSize))
	case KindLog:
		parts := []string{fmt.Sprintf("Log file with %d entries.", pf.LineCount)}
		if b, _ := pf.Structure["hasTimestamps"].(bool); b {
			parts = append(parts, "Contains timestamps.")
		}
		if b, _ := pf.Structure["hasLevels"].(bool); b {
			parts = append(parts, "Contains log levels.")
		}
		if b, _ := pf.Structure["hasIPs"].(bool); b {
			parts = append(parts, "Contains IP addresses.")
		}
		return strings.Join(parts, " ")
	case KindTable:
		rowCount, _ := pf.Structure["rowCount"].(int)
		headers := pf.Columns
		shown := headers
		suffix := ""
		if len(shown) > 3 {
			shown = shown[:3]
			suffix = "..."
		}
		return fmt.Sprintf("CSV file with %d rows and %d columns. Headers: %s%s",
			rowCount, len(headers), strings.Join(shown, ", "), suffix)
	case KindSpreadsheet:
		return fmt.Sprintf("Excel file (%s). Full processing available after upload.", FormatFileSize(pf.ByteSize))
	default:
		return fmt.Sprintf("File (%s)", FormatFileSize(pf.ByteSize))
	}
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count as "1.5 KB" style text. Zero renders as
// "0 Bytes" exactly; values are rounded to two decimals.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	exp := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if exp < 0 {
		exp = 0
	}
	if exp >= len(sizeUnits) {
		exp = len(sizeUnits) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(exp))
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[exp]
}
