package agent

import (
	"regexp"
	"strings"
)

// DirectiveType tags the parse result for one bracketed candidate.
type DirectiveType int

const (
	// DirectiveVisualization is a well-formed [VIZ:kind:title:description] tag.
	DirectiveVisualization DirectiveType = iota
	// DirectiveTable is a well-formed [TABLE:title:description] tag.
	DirectiveTable
	// DirectiveInvalid is a bracketed run that opens like a directive but does
	// not parse. Invalid candidates stay in the display text verbatim.
	DirectiveInvalid
)

// Directive is one parsed candidate from the generated text. Raw holds the
// exact matched substring, including brackets, and Start/End its position in
// the source text.
type Directive struct {
	Type        DirectiveType
	Raw         string
	Start, End  int
	ChartKind   string // visualization only
	Title       string
	Description string
}

// directiveCandidate matches any bracketed run opening with a known directive
// name. Field validation happens afterwards so malformed tags become an
// explicit DirectiveInvalid case rather than silently not matching.
var directiveCandidate = regexp.MustCompile(`\[(VIZ|TABLE):[^\[\]]*\]`)

// ParseDirectives scans text left to right for non-overlapping directive
// candidates and classifies each one.
//
// Grammar: [VIZ:<kind>:<title>:<description>] and [TABLE:<title>:<description>].
// Kind and title may not contain ':' or ']'; the final field may contain ':'
// (extra colons are captured into the description). Empty or missing fields
// make the candidate invalid.
func ParseDirectives(text string) []Directive {
	var out []Directive
	for _, loc := range directiveCandidate.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		d := parseCandidate(raw)
		d.Start, d.End = loc[0], loc[1]
		out = append(out, d)
	}
	return out
}

func parseCandidate(raw string) Directive {
	inner := raw[1 : len(raw)-1] // strip brackets

	if rest, ok := strings.CutPrefix(inner, "VIZ:"); ok {
		fields := strings.SplitN(rest, ":", 3)
		if len(fields) != 3 || fields[0] == "" || fields[1] == "" || fields[2] == "" {
			return Directive{Type: DirectiveInvalid, Raw: raw}
		}
		return Directive{
			Type:        DirectiveVisualization,
			Raw:         raw,
			ChartKind:   fields[0],
			Title:       fields[1],
			Description: fields[2],
		}
	}

	if rest, ok := strings.CutPrefix(inner, "TABLE:"); ok {
		fields := strings.SplitN(rest, ":", 2)
		if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
			return Directive{Type: DirectiveInvalid, Raw: raw}
		}
		return Directive{
			Type:        DirectiveTable,
			Raw:         raw,
			Title:       fields[0],
			Description: fields[1],
		}
	}

	return Directive{Type: DirectiveInvalid, Raw: raw}
}

// StripDirectives removes well-formed directives from text, leaving invalid
// candidates in place, and trims the remainder. Running it on already-stripped
// text is a no-op beyond trimming.
func StripDirectives(text string, directives []Directive) string {
	var b strings.Builder
	last := 0
	for _, d := range directives {
		if d.Type == DirectiveInvalid {
			continue
		}
		b.WriteString(text[last:d.Start])
		last = d.End
	}
	b.WriteString(text[last:])
	return strings.TrimSpace(b.String())
}
