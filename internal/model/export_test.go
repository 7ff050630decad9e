package model

import (
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"
)

func buildMixedConfiguration(t *testing.T) Configuration {
	t.Helper()
	configuration := NewConfiguration()
	require.NoError(t, configuration.SetLayout(LayoutCentered))
	configuration.SetDataSource(testDataSource)

	_, err := configuration.AddComponent(ComponentKindChart)
	require.NoError(t, err)
	_, err = configuration.AddComponent(ComponentKindTable)
	require.NoError(t, err)
	_, err = configuration.AddComponent(ComponentKindText)
	require.NoError(t, err)

	require.NoError(t, configuration.UpdateComponentField(0, ComponentFieldChartType, string(ChartTypeLine)))
	require.NoError(t, configuration.UpdateComponentField(0, ComponentFieldXAxis, testXAxisColumn))
	require.NoError(t, configuration.UpdateComponentField(0, ComponentFieldYAxis, testYAxisColumn))
	require.NoError(t, configuration.UpdateComponentField(1, ComponentFieldNumRows, "7"))
	require.NoError(t, configuration.UpdateComponentField(2, ComponentFieldContent, testTextContent))
	return configuration
}

func TestExportConfigurationLayout(t *testing.T) {
	exported, err := ExportConfiguration(buildMixedConfiguration(t))
	require.NoError(t, err)

	expected := heredoc.Doc(`
		{
		  "layout": "centered",
		  "data_source": "data/sales.csv",
		  "components": [
		    {
		      "type": "Chart",
		      "id": 0,
		      "chart_type": "line",
		      "x_axis": "month",
		      "y_axis": "revenue"
		    },
		    {
		      "type": "Table",
		      "id": 1,
		      "num_rows": 7
		    },
		    {
		      "type": "Text",
		      "id": 2,
		      "content": "Quarterly revenue overview"
		    }
		  ]
		}`)
	require.Equal(t, expected, string(exported))
}

func TestExportConfigurationEmptyComponents(t *testing.T) {
	exported, err := ExportConfiguration(NewConfiguration())
	require.NoError(t, err)

	expected := heredoc.Doc(`
		{
		  "layout": "wide",
		  "data_source": "",
		  "components": []
		}`)
	require.Equal(t, expected, string(exported))
}

func TestExportConfigurationKeepsPartialComponents(t *testing.T) {
	configuration := NewConfiguration()
	_, err := configuration.AddComponent(ComponentKindChart)
	require.NoError(t, err)

	exported, err := ExportConfiguration(configuration)
	require.NoError(t, err)

	body := string(exported)
	require.Contains(t, body, `"chart_type": ""`)
	require.Contains(t, body, `"x_axis": ""`)
	require.Contains(t, body, `"y_axis": ""`)
}

func TestExportConfigurationDoesNotEscapeMarkup(t *testing.T) {
	configuration := NewConfiguration()
	configuration.SetDataSource("https://example.com/api?a=1&b=<2>")

	exported, err := ExportConfiguration(configuration)
	require.NoError(t, err)
	require.Contains(t, string(exported), `"data_source": "https://example.com/api?a=1&b=<2>"`)
}

func TestExportConfigurationRoundTrip(t *testing.T) {
	singleComponent := NewConfiguration()
	singleComponent.SetDataSource("warehouse.orders")
	_, err := singleComponent.AddComponent(ComponentKindText)
	require.NoError(t, err)
	require.NoError(t, singleComponent.UpdateComponentField(0, ComponentFieldContent, "line one\nline 'two'"))

	testCases := []struct {
		name          string
		configuration Configuration
	}{
		{name: "no components", configuration: NewConfiguration()},
		{name: "one component", configuration: singleComponent},
		{name: "mixed components", configuration: buildMixedConfiguration(t)},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			exported, err := ExportConfiguration(testCase.configuration)
			require.NoError(t, err)

			parsed, err := ParseConfiguration(exported)
			require.NoError(t, err)

			require.Equal(t, testCase.configuration.Layout, parsed.Layout)
			require.Equal(t, testCase.configuration.DataSource, parsed.DataSource)
			require.Equal(t, testCase.configuration.Components, parsed.Components)
		})
	}
}

func TestExportKeyOrderFollowsFieldOrder(t *testing.T) {
	exported, err := ExportConfiguration(buildMixedConfiguration(t))
	require.NoError(t, err)
	body := string(exported)

	orderedKeys := []string{`"layout"`, `"data_source"`, `"components"`, `"type"`, `"id"`, `"chart_type"`, `"x_axis"`, `"y_axis"`, `"num_rows"`, `"content"`}
	previousPosition := -1
	for _, key := range orderedKeys {
		position := strings.Index(body, key)
		require.Greater(t, position, previousPosition, key)
		previousPosition = position
	}
}

func TestParseConfigurationRejectsUnknownComponentType(t *testing.T) {
	_, err := ParseConfiguration([]byte(`{"layout":"wide","data_source":"","components":[{"type":"Map","id":0}]}`))
	require.ErrorIs(t, err, ErrInvalidComponentKind)
}

func TestParseConfigurationRejectsMalformedJSON(t *testing.T) {
	_, err := ParseConfiguration([]byte(`{"layout":`))
	require.Error(t, err)
}

func TestParseConfigurationDefaultsMissingRows(t *testing.T) {
	parsed, err := ParseConfiguration([]byte(`{"layout":"wide","data_source":"x.csv","components":[{"type":"Table","id":0}]}`))
	require.NoError(t, err)
	require.Equal(t, []Component{&TableComponent{ID: 0, NumRows: DefaultTableRows}}, parsed.Components)
}

func TestParseConfigurationValidatesTableRows(t *testing.T) {
	testCases := []struct {
		name     string
		numRows  string
		expected error
	}{
		{name: "zero", numRows: "0", expected: ErrInvalidNumRows},
		{name: "negative", numRows: "-3", expected: ErrInvalidNumRows},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			_, err := ParseConfiguration([]byte(`{"layout":"wide","data_source":"x.csv","components":[{"type":"Table","id":0,"num_rows":` + testCase.numRows + `}]}`))
			require.ErrorIs(t, err, testCase.expected)
		})
	}

	parsed, err := ParseConfiguration([]byte(`{"layout":"wide","data_source":"x.csv","components":[{"type":"Table","id":4,"num_rows":1}]}`))
	require.NoError(t, err)
	require.Equal(t, []Component{&TableComponent{ID: 4, NumRows: 1}}, parsed.Components)
}

func TestParseConfigurationRejectsUnknownLayout(t *testing.T) {
	for _, document := range []string{
		`{"data_source":"x.csv","components":[]}`,
		`{"layout":"full","data_source":"x.csv","components":[]}`,
	} {
		_, err := ParseConfiguration([]byte(document))
		require.ErrorIs(t, err, ErrInvalidLayout, document)
	}
}
