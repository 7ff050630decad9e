package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
)

const (
	testDataSource = "data/sales.csv"

	expectedEmptyConfigurationOutput = `
import streamlit as st
import pandas as pd
import plotly.express as px

st.set_page_config(layout='wide')

# Data loading
data = pd.read_csv('')  # Replace with appropriate data loading method

`

	expectedMixedConfigurationOutput = `
import streamlit as st
import pandas as pd
import plotly.express as px

st.set_page_config(layout='centered')

# Data loading
data = pd.read_csv('data/sales.csv')  # Replace with appropriate data loading method


# Text component
st.write('''Weekly report''')

# Chart component
chart_type = 'bar'
if chart_type == 'bar':
    fig = px.bar(data, x='a', y='b')
elif chart_type == 'line':
    fig = px.line(data, x='a', y='b')
elif chart_type == 'scatter':
    fig = px.scatter(data, x='a', y='b')
st.plotly_chart(fig)

# Table component
st.dataframe(data.head(7))
`

	chartBlockToken = "# Chart component"
	tableBlockToken = "# Table component"
	textBlockToken  = "# Text component"
)

func addComponent(t *testing.T, configuration *model.Configuration, kind model.ComponentKind, fields map[model.ComponentField]string) {
	t.Helper()
	component, err := configuration.AddComponent(kind)
	require.NoError(t, err)
	for field, value := range fields {
		require.NoError(t, configuration.UpdateComponentField(component.ComponentID(), field, value))
	}
}

func buildMixedConfiguration(t *testing.T) model.Configuration {
	t.Helper()
	configuration := model.NewConfiguration()
	require.NoError(t, configuration.SetLayout(model.LayoutCentered))
	configuration.SetDataSource(testDataSource)
	addComponent(t, &configuration, model.ComponentKindText, map[model.ComponentField]string{
		model.ComponentFieldContent: "Weekly report",
	})
	addComponent(t, &configuration, model.ComponentKindChart, map[model.ComponentField]string{
		model.ComponentFieldChartType: "bar",
		model.ComponentFieldXAxis:     "a",
		model.ComponentFieldYAxis:     "b",
	})
	addComponent(t, &configuration, model.ComponentKindTable, map[model.ComponentField]string{
		model.ComponentFieldNumRows: "7",
	})
	return configuration
}

func TestGenerateEmptyConfigurationIsBoilerplateOnly(t *testing.T) {
	output, err := Generate(model.NewConfiguration())
	require.NoError(t, err)
	require.Equal(t, expectedEmptyConfigurationOutput, output)
	require.NotContains(t, output, "component")
}

func TestGenerateMixedConfiguration(t *testing.T) {
	output, err := Generate(buildMixedConfiguration(t))
	require.NoError(t, err)
	require.Equal(t, expectedMixedConfigurationOutput, output)
}

func TestGenerateKeepsComponentOrder(t *testing.T) {
	output, err := Generate(buildMixedConfiguration(t))
	require.NoError(t, err)

	textPosition := strings.Index(output, textBlockToken)
	chartPosition := strings.Index(output, chartBlockToken)
	tablePosition := strings.Index(output, tableBlockToken)

	require.Positive(t, textPosition)
	require.Greater(t, chartPosition, textPosition)
	require.Greater(t, tablePosition, chartPosition)
}

func TestGenerateIsDeterministic(t *testing.T) {
	configuration := buildMixedConfiguration(t)

	first, err := Generate(configuration)
	require.NoError(t, err)
	second, err := Generate(configuration)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGenerateChartReferencesSelectedColumns(t *testing.T) {
	configuration := model.NewConfiguration()
	addComponent(t, &configuration, model.ComponentKindChart, map[model.ComponentField]string{
		model.ComponentFieldChartType: "bar",
		model.ComponentFieldXAxis:     "a",
		model.ComponentFieldYAxis:     "b",
	})

	output, err := Generate(configuration)
	require.NoError(t, err)

	require.Contains(t, output, "chart_type = 'bar'\n")
	require.Contains(t, output, "if chart_type == 'bar':\n    fig = px.bar(data, x='a', y='b')\n")
	require.Equal(t, 3, strings.Count(output, "x='"))
	require.Equal(t, 3, strings.Count(output, "x='a', y='b'"))
	require.Equal(t, 1, strings.Count(output, "st.plotly_chart(fig)"))
}

func TestGenerateTableTruncatesToRowCount(t *testing.T) {
	configuration := model.NewConfiguration()
	addComponent(t, &configuration, model.ComponentKindTable, map[model.ComponentField]string{
		model.ComponentFieldNumRows: "7",
	})

	output, err := Generate(configuration)
	require.NoError(t, err)
	require.Contains(t, output, "st.dataframe(data.head(7))")
}

func TestGenerateTableUsesDefaultRowCount(t *testing.T) {
	configuration := model.NewConfiguration()
	addComponent(t, &configuration, model.ComponentKindTable, nil)

	output, err := Generate(configuration)
	require.NoError(t, err)
	require.Contains(t, output, "st.dataframe(data.head(5))")
}

func TestGenerateUnsetChartTypeStillEmitsBranches(t *testing.T) {
	configuration := model.NewConfiguration()
	configuration.SetDataSource(testDataSource)
	addComponent(t, &configuration, model.ComponentKindChart, nil)

	output, err := Generate(configuration)
	require.NoError(t, err)
	require.Contains(t, output, "chart_type = ''\n")
	require.Contains(t, output, "elif chart_type == 'scatter':")
	require.Contains(t, output, "st.plotly_chart(fig)")

	findings := Inspect(configuration)
	require.Equal(t, []FindingCode{FindingChartTypeUnset}, findingCodes(findings))
	require.Equal(t, 0, findings[0].ComponentIndex)
}

func TestGenerateDoesNotEscapeTextDelimiter(t *testing.T) {
	configuration := model.NewConfiguration()
	configuration.SetDataSource(testDataSource)
	content := "before''' after"
	addComponent(t, &configuration, model.ComponentKindText, map[model.ComponentField]string{
		model.ComponentFieldContent: content,
	})

	output, err := Generate(configuration)
	require.NoError(t, err)
	require.Contains(t, output, "st.write('''before''' after''')")
	require.Equal(t, 3, strings.Count(output, TextDelimiter), "an odd delimiter count leaves the literal unterminated")

	findings := Inspect(configuration)
	require.Equal(t, []FindingCode{FindingTextDelimiter}, findingCodes(findings))
}

func TestGenerateDoesNotEscapeDataSource(t *testing.T) {
	configuration := model.NewConfiguration()
	configuration.SetDataSource("it's.csv")

	output, err := Generate(configuration)
	require.NoError(t, err)
	require.Contains(t, output, "data = pd.read_csv('it's.csv')")
	require.Equal(t, []FindingCode{FindingDataSourceQuote}, findingCodes(Inspect(configuration)))
}

func TestGenerateIgnoresDataSourceType(t *testing.T) {
	configuration := buildMixedConfiguration(t)
	csvOutput, err := Generate(configuration)
	require.NoError(t, err)

	require.NoError(t, configuration.SetDataSourceType(model.DataSourceTypeAPI))
	apiOutput, err := Generate(configuration)
	require.NoError(t, err)

	require.Equal(t, csvOutput, apiOutput)
	require.Contains(t, apiOutput, "pd.read_csv(")
}

func TestGenerateRejectsMissingComponent(t *testing.T) {
	configuration := model.NewConfiguration()
	configuration.Components = append(configuration.Components, nil)

	_, err := Generate(configuration)
	require.ErrorIs(t, err, ErrUnsupportedComponent)
	require.Equal(t, []FindingCode{FindingDataSourceEmpty, FindingComponentUnknown}, findingCodes(Inspect(configuration)))
}

func TestInspectCleanConfiguration(t *testing.T) {
	require.Empty(t, Inspect(buildMixedConfiguration(t)))
}

func findingCodes(findings []Finding) []FindingCode {
	codes := make([]FindingCode, 0, len(findings))
	for _, finding := range findings {
		codes = append(codes, finding.Code)
	}
	return codes
}
