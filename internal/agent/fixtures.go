package agent

import "github.com/datachat-labs/datachat/internal/files"

// The generator only supplies the shape of a chart or table request; no
// numeric extraction from file content is attempted. Series and table bodies
// are fixed illustrative fixtures chosen by (file kind, chart kind). Replacing
// a fixture with real data-derived series only requires swapping the lookup
// result here.

const defaultChartKind = "bar"

var chartKinds = map[string]bool{
	"bar":  true,
	"line": true,
	"pie":  true,
	"area": true,
}

// normalizeChartKind maps unrecognized kinds onto the default bar branch.
func normalizeChartKind(kind string) string {
	if chartKinds[kind] {
		return kind
	}
	return defaultChartKind
}

var defaultSeries = SeriesPayload{
	CategoryLabels: []string{"Category A", "Category B", "Category C", "Category D"},
	Datasets: []Dataset{
		{Label: "Sample Data", Values: []float64{12, 19, 7, 14}},
	},
}

// tableFileSeries keys chart kinds to fixtures for delimited-table files.
var tableFileSeries = map[string]SeriesPayload{
	"line": {
		CategoryLabels: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"},
		Datasets: []Dataset{
			{Label: "Sales", Values: []float64{65, 59, 80, 81, 56, 72}},
			{Label: "Profit", Values: []float64{28, 25, 36, 40, 22, 31}},
		},
	},
	"pie": {
		CategoryLabels: []string{"Product A", "Product B", "Product C", "Product D"},
		Datasets: []Dataset{
			{Label: "Revenue Share", Values: []float64{40, 25, 20, 15}},
		},
	},
	"area": {
		CategoryLabels: []string{"Q1", "Q2", "Q3", "Q4"},
		Datasets: []Dataset{
			{Label: "Revenue", Values: []float64{120, 150, 180, 210}},
			{Label: "Costs", Values: []float64{80, 95, 100, 115}},
		},
	},
	defaultChartKind: {
		CategoryLabels: []string{"North", "South", "East", "West", "Central"},
		Datasets: []Dataset{
			{Label: "Sales", Values: []float64{45, 37, 60, 28, 52}},
		},
	},
}

// logFileSeries keys chart kinds to fixtures for log files.
var logFileSeries = map[string]SeriesPayload{
	"pie": {
		CategoryLabels: []string{"ERROR", "WARN", "INFO", "DEBUG"},
		Datasets: []Dataset{
			{Label: "Log Levels", Values: []float64{14, 32, 120, 85}},
		},
	},
	"line": {
		CategoryLabels: []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00"},
		Datasets: []Dataset{
			{Label: "Error Count", Values: []float64{2, 5, 3, 8, 4, 1}},
			{Label: "Warning Count", Values: []float64{6, 9, 7, 12, 8, 5}},
		},
	},
	defaultChartKind: {
		CategoryLabels: []string{"auth", "api", "database", "cache", "worker"},
		Datasets: []Dataset{
			{Label: "Error Count", Values: []float64{4, 11, 7, 2, 5}},
		},
	},
}

// seriesFor resolves the canned series for a chart request. Text and
// spreadsheet files carry no tabular structure, so they fall through to the
// no-file default.
func seriesFor(chartKind string, pf *files.ProcessedFile) SeriesPayload {
	if pf == nil {
		return defaultSeries
	}
	kind := normalizeChartKind(chartKind)
	switch pf.Kind {
	case files.KindTable:
		if s, ok := tableFileSeries[kind]; ok {
			return s
		}
		return tableFileSeries[defaultChartKind]
	case files.KindLog:
		if s, ok := logFileSeries[kind]; ok {
			return s
		}
		return logFileSeries[defaultChartKind]
	default:
		return defaultSeries
	}
}

// styleFor builds the rendering hints for a chart kind. Axis-based kinds pin
// the y axis at zero; pie has no y axis.
func styleFor(chartKind string) StyleConfig {
	style := StyleConfig{Responsive: true, LegendPosition: "top"}
	if normalizeChartKind(chartKind) != "pie" {
		beginAtZero := true
		style.YAxisBeginAtZero = &beginAtZero
	}
	return style
}

var defaultTableFixture = struct {
	headers []string
	rows    [][]string
}{
	headers: []string{"Item", "Value", "Status"},
	rows: [][]string{
		{"Alpha", "42", "Active"},
		{"Beta", "17", "Pending"},
		{"Gamma", "88", "Active"},
	},
}

var tableFixturesByFileKind = map[files.FileKind]struct {
	headers []string
	rows    [][]string
}{
	files.KindTable: {
		headers: []string{"Product", "Sales", "Growth", "Region"},
		rows: [][]string{
			{"Widget A", "1250", "+12%", "North"},
			{"Widget B", "980", "+5%", "South"},
			{"Widget C", "1430", "+18%", "East"},
			{"Widget D", "760", "-3%", "West"},
			{"Widget E", "1100", "+9%", "Central"},
		},
	},
	files.KindLog: {
		headers: []string{"Timestamp", "Level", "Component", "Message"},
		rows: [][]string{
			{"2024-01-15 10:30:00", "ERROR", "auth", "Login failed for user"},
			{"2024-01-15 10:31:12", "WARN", "api", "Slow response: 2.4s"},
			{"2024-01-15 10:32:05", "INFO", "worker", "Batch job completed"},
			{"2024-01-15 10:33:48", "ERROR", "database", "Connection timeout"},
		},
	},
	files.KindText: {
		headers: []string{"Key", "Value", "Type"},
		rows: [][]string{
			{"lines", "120", "number"},
			{"words", "1834", "number"},
			{"encoding", "utf-8", "string"},
		},
	},
	files.KindSpreadsheet: {
		headers: []string{"Key", "Value", "Type"},
		rows: [][]string{
			{"sheets", "1", "number"},
			{"format", "xlsx", "string"},
			{"parsed", "false", "boolean"},
		},
	},
}

// tableDataFor resolves the canned header/row fixture for a table request.
func tableDataFor(pf *files.ProcessedFile) (headers []string, rows [][]string) {
	if pf == nil {
		return defaultTableFixture.headers, defaultTableFixture.rows
	}
	if f, ok := tableFixturesByFileKind[pf.Kind]; ok {
		return f.headers, f.rows
	}
	return defaultTableFixture.headers, defaultTableFixture.rows
}
