// Package generator turns a builder configuration into Streamlit source code.
//
// The output is illustrative text that is never executed here. User supplied
// values are interpolated without escaping, so a quote in a column name or a
// triple quote in text content produces code that does not parse. Inspect
// reports those cases; Generate keeps them as they are.
package generator

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"text/template"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
)

const (
	templateNameHeader = "header"
	templateNameChart  = "chart"
	templateNameTable  = "table"
	templateNameText   = "text"

	errorMessageRenderHeader    = "generator: render header"
	errorMessageRenderComponent = "generator: render component"
)

// ErrUnsupportedComponent is returned for a component variant the generator
// has no block for.
var ErrUnsupportedComponent = errors.New("generator: unsupported component")

//go:embed templates/streamlit_app.py.tmpl
var streamlitAppTemplateSource string

var streamlitAppTemplate = template.Must(template.New("streamlit_app.py").Parse(streamlitAppTemplateSource))

// Generate renders the boilerplate followed by one block per component, in
// component order. The same configuration always yields the same text.
func Generate(configuration model.Configuration) (string, error) {
	var buffer bytes.Buffer
	if err := streamlitAppTemplate.ExecuteTemplate(&buffer, templateNameHeader, configuration); err != nil {
		return "", fmt.Errorf("%s: %w", errorMessageRenderHeader, err)
	}

	for index, component := range configuration.Components {
		templateName, nameErr := componentTemplateName(component)
		if nameErr != nil {
			return "", fmt.Errorf("%s %d: %w", errorMessageRenderComponent, index, nameErr)
		}
		if err := streamlitAppTemplate.ExecuteTemplate(&buffer, templateName, component); err != nil {
			return "", fmt.Errorf("%s %d: %w", errorMessageRenderComponent, index, err)
		}
	}

	return buffer.String(), nil
}

func componentTemplateName(component model.Component) (string, error) {
	switch component.(type) {
	case *model.ChartComponent:
		return templateNameChart, nil
	case *model.TableComponent:
		return templateNameTable, nil
	case *model.TextComponent:
		return templateNameText, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedComponent, component)
	}
}
