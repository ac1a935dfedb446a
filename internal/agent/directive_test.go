package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirectivesNone(t *testing.T) {
	assert.Empty(t, ParseDirectives("No tags here, just an answer."))
}

func TestParseVisualization(t *testing.T) {
	ds := ParseDirectives("Here you go [VIZ:bar:Sales by Region:Quarterly totals] done.")
	require.Len(t, ds, 1)

	d := ds[0]
	assert.Equal(t, DirectiveVisualization, d.Type)
	assert.Equal(t, "bar", d.ChartKind)
	assert.Equal(t, "Sales by Region", d.Title)
	assert.Equal(t, "Quarterly totals", d.Description)
	assert.Equal(t, "[VIZ:bar:Sales by Region:Quarterly totals]", d.Raw)
}

func TestParseTable(t *testing.T) {
	ds := ParseDirectives("[TABLE:Top Errors:Most frequent error messages]")
	require.Len(t, ds, 1)

	d := ds[0]
	assert.Equal(t, DirectiveTable, d.Type)
	assert.Equal(t, "Top Errors", d.Title)
	assert.Equal(t, "Most frequent error messages", d.Description)
}

func TestParseVisualizationExtraColonsGoToDescription(t *testing.T) {
	ds := ParseDirectives("[VIZ:line:Trend:Errors per hour: last day]")
	require.Len(t, ds, 1)
	assert.Equal(t, DirectiveVisualization, ds[0].Type)
	assert.Equal(t, "Errors per hour: last day", ds[0].Description)
}

func TestParseMultipleDirectivesInOrder(t *testing.T) {
	text := "First [VIZ:pie:Share:Split] then [TABLE:Rows:Sample] end."
	ds := ParseDirectives(text)
	require.Len(t, ds, 2)
	assert.Equal(t, DirectiveVisualization, ds[0].Type)
	assert.Equal(t, DirectiveTable, ds[1].Type)
	assert.Less(t, ds[0].Start, ds[1].Start)
}

func TestParseMalformedCandidates(t *testing.T) {
	cases := []string{
		"[VIZ:bar:OnlyTwoFields]",
		"[VIZ::Title:Desc]",
		"[TABLE:TitleOnly]",
		"[TABLE::Desc]",
		"[VIZ:]",
	}
	for _, text := range cases {
		ds := ParseDirectives(text)
		require.Len(t, ds, 1, text)
		assert.Equal(t, DirectiveInvalid, ds[0].Type, text)
	}
}

func TestParseUnclosedBracketIgnored(t *testing.T) {
	// No closing bracket: not even a candidate, passes through untouched.
	assert.Empty(t, ParseDirectives("Oops [VIZ:bar:Title:Desc and it never closes"))
}

func TestStripDirectivesRemovesValidOnly(t *testing.T) {
	text := "Keep [VIZ:bad] this [VIZ:bar:T:D] clean."
	ds := ParseDirectives(text)
	assert.Equal(t, "Keep [VIZ:bad] this  clean.", StripDirectives(text, ds))
}

func TestStripDirectivesIdempotent(t *testing.T) {
	text := "Answer text. [VIZ:area:Growth:Over time]"
	once := StripDirectives(text, ParseDirectives(text))
	twice := StripDirectives(once, ParseDirectives(once))
	assert.Equal(t, once, twice)
	assert.Equal(t, "Answer text.", once)
}
