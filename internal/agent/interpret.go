package agent

import "github.com/datachat-labs/datachat/internal/files"

// defaultConfidence is reported for every successfully interpreted response.
// Nothing in the pipeline measures answer quality, so the score is a constant.
const defaultConfidence = 0.85

const fallbackText = "I'm sorry, I ran into a problem while generating a response. Please try again."

// Interpret parses raw generated text for visualization and table directives,
// synthesizes their payloads from the file context, and strips the directive
// tags from the displayed text. pf may be nil when the query referenced no
// file.
func Interpret(raw string, pf *files.ProcessedFile) *AgentResponse {
	directives := ParseDirectives(raw)

	resp := &AgentResponse{
		DisplayText:     StripDirectives(raw, directives),
		Visualizations:  []VisualizationSpec{},
		Tables:          []TableSpec{},
		ConfidenceScore: defaultConfidence,
		SourceTags:      []string{},
	}

	for _, d := range directives {
		switch d.Type {
		case DirectiveVisualization:
			resp.Visualizations = append(resp.Visualizations, VisualizationSpec{
				RenderKind:  "chart",
				ChartKind:   d.ChartKind,
				Title:       d.Title,
				Description: d.Description,
				Series:      seriesFor(d.ChartKind, pf),
				Style:       styleFor(d.ChartKind),
			})
		case DirectiveTable:
			headers, rows := tableDataFor(pf)
			resp.Tables = append(resp.Tables, NewTableSpec(d.Title, d.Description, headers, rows))
		}
	}

	if pf != nil {
		resp.SourceTags = []string{string(pf.Kind)}
	}
	return resp
}

// FallbackResponse is returned when the generation call fails for any reason.
// No retry, no partial recovery: a fixed apologetic answer with zero
// confidence.
func FallbackResponse() *AgentResponse {
	return &AgentResponse{
		DisplayText:     fallbackText,
		Visualizations:  []VisualizationSpec{},
		Tables:          []TableSpec{},
		ConfidenceScore: 0,
		SourceTags:      []string{},
	}
}
