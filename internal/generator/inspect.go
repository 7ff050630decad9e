package generator

import (
	"fmt"
	"strings"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
)

// FindingCode identifies a known defect in generated code.
type FindingCode string

const (
	FindingChartTypeUnset   FindingCode = "chart_type_unset"
	FindingTextDelimiter    FindingCode = "text_delimiter"
	FindingDataSourceQuote  FindingCode = "data_source_quote"
	FindingDataSourceEmpty  FindingCode = "data_source_empty"
	FindingComponentUnknown FindingCode = "component_unknown"

	// ConfigurationScope marks a finding that is not tied to a component.
	ConfigurationScope = -1

	// TextDelimiter encloses text content in the generated st.write call.
	TextDelimiter = "'''"
	stringQuote   = "'"
)

// Finding describes a place where the generated code will not behave as the
// user expects.
type Finding struct {
	Code           FindingCode `json:"code"`
	ComponentIndex int         `json:"component_index"`
	Message        string      `json:"message"`
}

// Inspect lists the defects Generate will reproduce for the configuration.
// It never changes what Generate emits.
func Inspect(configuration model.Configuration) []Finding {
	findings := make([]Finding, 0)

	if configuration.DataSource == "" {
		findings = append(findings, Finding{
			Code:           FindingDataSourceEmpty,
			ComponentIndex: ConfigurationScope,
			Message:        "data source is empty; read_csv will fail",
		})
	} else if strings.Contains(configuration.DataSource, stringQuote) {
		findings = append(findings, Finding{
			Code:           FindingDataSourceQuote,
			ComponentIndex: ConfigurationScope,
			Message:        "data source contains a quote and breaks the read_csv call",
		})
	}

	for index, component := range configuration.Components {
		switch typedComponent := component.(type) {
		case *model.ChartComponent:
			if typedComponent.ChartType == "" {
				findings = append(findings, Finding{
					Code:           FindingChartTypeUnset,
					ComponentIndex: index,
					Message:        fmt.Sprintf("component %d has no chart type; fig is undefined when st.plotly_chart runs", index+1),
				})
			}
		case *model.TableComponent:
		case *model.TextComponent:
			if strings.Contains(typedComponent.Content, TextDelimiter) {
				findings = append(findings, Finding{
					Code:           FindingTextDelimiter,
					ComponentIndex: index,
					Message:        fmt.Sprintf("component %d content contains %s and ends the string literal early", index+1, TextDelimiter),
				})
			}
		default:
			findings = append(findings, Finding{
				Code:           FindingComponentUnknown,
				ComponentIndex: index,
				Message:        fmt.Sprintf("component %d has an unsupported type %T", index+1, component),
			})
		}
	}

	return findings
}
