package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-labs/datachat/internal/files"
)

func processedFile(t *testing.T, name, content, tag string) *files.ProcessedFile {
	t.Helper()
	pf, err := files.Process(name, []byte(content), tag)
	require.NoError(t, err)
	return pf
}

func TestInterpretPlainText(t *testing.T) {
	resp := Interpret("  Just an answer with no tags.  ", nil)

	assert.Equal(t, "Just an answer with no tags.", resp.DisplayText)
	assert.Empty(t, resp.Visualizations)
	assert.Empty(t, resp.Tables)
	assert.Equal(t, 0.85, resp.ConfidenceScore)
	assert.Empty(t, resp.SourceTags)
}

func TestInterpretVisualizationNoFile(t *testing.T) {
	resp := Interpret("Here: [VIZ:bar:Sample:Demo]", nil)

	assert.Equal(t, "Here:", resp.DisplayText)
	require.Len(t, resp.Visualizations, 1)

	viz := resp.Visualizations[0]
	assert.Equal(t, "chart", viz.RenderKind)
	assert.Equal(t, "bar", viz.ChartKind)
	assert.Equal(t, "Sample", viz.Title)
	assert.Equal(t, "Demo", viz.Description)
	assert.Equal(t, defaultSeries, viz.Series)
	assert.Equal(t, 0.85, resp.ConfidenceScore)
	assert.Empty(t, resp.SourceTags)
}

func TestInterpretSourceTagFromFile(t *testing.T) {
	pf := processedFile(t, "app.log", "2024-01-15 ERROR boom", "log")
	resp := Interpret("All good.", pf)
	assert.Equal(t, []string{"log"}, resp.SourceTags)
}

func TestInterpretTableFileSeries(t *testing.T) {
	pf := processedFile(t, "sales.csv", "a,b\n1,2", "csv")

	for kind, want := range map[string]SeriesPayload{
		"line":    tableFileSeries["line"],
		"pie":     tableFileSeries["pie"],
		"area":    tableFileSeries["area"],
		"bar":     tableFileSeries["bar"],
		"scatter": tableFileSeries["bar"], // unrecognized kind takes the bar branch
	} {
		resp := Interpret("[VIZ:"+kind+":T:D]", pf)
		require.Len(t, resp.Visualizations, 1, kind)
		assert.Equal(t, want, resp.Visualizations[0].Series, kind)
		assert.Equal(t, kind, resp.Visualizations[0].ChartKind, kind)
	}
}

func TestInterpretLogFileSeries(t *testing.T) {
	pf := processedFile(t, "app.log", "ERROR boom", "log")

	resp := Interpret("[VIZ:pie:Levels:Distribution]", pf)
	require.Len(t, resp.Visualizations, 1)
	assert.Equal(t, []string{"ERROR", "WARN", "INFO", "DEBUG"}, resp.Visualizations[0].Series.CategoryLabels)

	resp = Interpret("[VIZ:line:Errors:Hourly]", pf)
	require.Len(t, resp.Visualizations, 1)
	require.Len(t, resp.Visualizations[0].Series.Datasets, 2)
	assert.Equal(t, "Error Count", resp.Visualizations[0].Series.Datasets[0].Label)

	resp = Interpret("[VIZ:bar:Errors:By subsystem]", pf)
	require.Len(t, resp.Visualizations, 1)
	assert.Equal(t, logFileSeries["bar"], resp.Visualizations[0].Series)
}

func TestInterpretTextFileFallsToDefaultSeries(t *testing.T) {
	pf := processedFile(t, "notes.txt", "hello", "txt")
	resp := Interpret("[VIZ:line:T:D]", pf)
	require.Len(t, resp.Visualizations, 1)
	assert.Equal(t, defaultSeries, resp.Visualizations[0].Series)
}

func TestInterpretStyleConfig(t *testing.T) {
	resp := Interpret("[VIZ:bar:T:D] [VIZ:pie:T:D]", nil)
	require.Len(t, resp.Visualizations, 2)

	bar := resp.Visualizations[0].Style
	assert.True(t, bar.Responsive)
	assert.Equal(t, "top", bar.LegendPosition)
	require.NotNil(t, bar.YAxisBeginAtZero)
	assert.True(t, *bar.YAxisBeginAtZero)

	pie := resp.Visualizations[1].Style
	assert.Nil(t, pie.YAxisBeginAtZero)
}

func TestInterpretTables(t *testing.T) {
	noFile := Interpret("[TABLE:Sample:Rows]", nil)
	require.Len(t, noFile.Tables, 1)
	assert.Equal(t, []string{"Item", "Value", "Status"}, noFile.Tables[0].ColumnHeaders)
	assert.Len(t, noFile.Tables[0].Rows, 3)

	csv := Interpret("[TABLE:Sample:Rows]", processedFile(t, "d.csv", "a,b\n1,2", "csv"))
	require.Len(t, csv.Tables, 1)
	assert.Equal(t, []string{"Product", "Sales", "Growth", "Region"}, csv.Tables[0].ColumnHeaders)
	assert.Len(t, csv.Tables[0].Rows, 5)

	logResp := Interpret("[TABLE:Sample:Rows]", processedFile(t, "a.log", "ERROR x", "log"))
	require.Len(t, logResp.Tables, 1)
	assert.Equal(t, []string{"Timestamp", "Level", "Component", "Message"}, logResp.Tables[0].ColumnHeaders)

	txt := Interpret("[TABLE:Sample:Rows]", processedFile(t, "n.txt", "x", "txt"))
	require.Len(t, txt.Tables, 1)
	assert.Equal(t, []string{"Key", "Value", "Type"}, txt.Tables[0].ColumnHeaders)
}

func TestInterpretMalformedTagLeftInText(t *testing.T) {
	resp := Interpret("Data below [VIZ:bar:missing-desc] end", nil)
	assert.Equal(t, "Data below [VIZ:bar:missing-desc] end", resp.DisplayText)
	assert.Empty(t, resp.Visualizations)
}

func TestNewTableSpecShapesRows(t *testing.T) {
	spec := NewTableSpec("T", "D", []string{"a", "b", "c"}, [][]string{
		{"1"},
		{"1", "2", "3", "4"},
	})
	require.Len(t, spec.Rows, 2)
	assert.Equal(t, []string{"1", "", ""}, spec.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, spec.Rows[1])
}

func TestFallbackResponse(t *testing.T) {
	resp := FallbackResponse()
	assert.Equal(t, fallbackText, resp.DisplayText)
	assert.Equal(t, float64(0), resp.ConfidenceScore)
	assert.Empty(t, resp.Visualizations)
	assert.Empty(t, resp.Tables)
	assert.Empty(t, resp.SourceTags)
}
