// Package agent turns free-form generated text plus file-derived context into
// a structured response: display text, chart specs, and table specs.
package agent

// VisualizationSpec describes one chart the client should render alongside
// the answer text.
type VisualizationSpec struct {
	RenderKind  string        `json:"renderKind"` // always "chart"
	ChartKind   string        `json:"chartKind"`  // bar, line, pie, area
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Series      SeriesPayload `json:"series"`
	Style       StyleConfig   `json:"styleConfig"`
}

// SeriesPayload is a chart-ready dataset bundle.
type SeriesPayload struct {
	CategoryLabels []string  `json:"categoryLabels"`
	Datasets       []Dataset `json:"datasets"`
}

type Dataset struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// StyleConfig carries rendering hints for the client-side chart library.
// Pie charts have no y axis, so the begin-at-zero hint is omitted for them.
type StyleConfig struct {
	Responsive       bool   `json:"responsive"`
	LegendPosition   string `json:"legendPosition"`
	YAxisBeginAtZero *bool  `json:"yAxisBeginAtZero,omitempty"`
}

// TableSpec describes one data table to render. Every row has exactly
// len(ColumnHeaders) cells; NewTableSpec enforces that at construction.
type TableSpec struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ColumnHeaders []string   `json:"columnHeaders"`
	Rows          [][]string `json:"rows"`
}

// NewTableSpec builds a TableSpec, padding short rows with empty cells and
// truncating long ones so the row shape always matches the headers.
func NewTableSpec(title, description string, headers []string, rows [][]string) TableSpec {
	shaped := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		shaped = append(shaped, cells)
	}
	return TableSpec{
		Title:         title,
		Description:   description,
		ColumnHeaders: headers,
		Rows:          shaped,
	}
}

// AgentResponse is the pipeline's output for one chat turn. It is constructed
// once, then serialized for transport and history persistence; never mutated.
type AgentResponse struct {
	DisplayText     string              `json:"displayText"`
	Visualizations  []VisualizationSpec `json:"visualizations"`
	Tables          []TableSpec         `json:"tables"`
	ConfidenceScore float64             `json:"confidenceScore"`
	SourceTags      []string            `json:"sourceTags"`
}
