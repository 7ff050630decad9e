package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// ExportFileName is the file name offered for configuration downloads.
	ExportFileName = "app_config.json"
	// ExportContentType is the MIME type of configuration downloads.
	ExportContentType = "application/json"

	exportIndent = "  "
)

// Field order of the document structs is the key order of the export.
type configurationDocument struct {
	Layout     Layout `json:"layout"`
	DataSource string `json:"data_source"`
	Components []any  `json:"components"`
}

type configurationEnvelope struct {
	Layout     Layout            `json:"layout"`
	DataSource string            `json:"data_source"`
	Components []json.RawMessage `json:"components"`
}

type componentHeader struct {
	Type ComponentKind `json:"type"`
	ID   int           `json:"id"`
}

type chartDocument struct {
	Type      ComponentKind `json:"type"`
	ID        int           `json:"id"`
	ChartType ChartType     `json:"chart_type"`
	XAxis     string        `json:"x_axis"`
	YAxis     string        `json:"y_axis"`
}

type tableDocument struct {
	Type    ComponentKind `json:"type"`
	ID      int           `json:"id"`
	NumRows int           `json:"num_rows"`
}

type tableRowsDocument struct {
	NumRows *int `json:"num_rows"`
}

type textDocument struct {
	Type    ComponentKind `json:"type"`
	ID      int           `json:"id"`
	Content string        `json:"content"`
}

// ExportConfiguration encodes the configuration as indented JSON. Components
// are written as they are, including fields the user has not filled in yet.
func ExportConfiguration(configuration Configuration) ([]byte, error) {
	document := configurationDocument{
		Layout:     configuration.Layout,
		DataSource: configuration.DataSource,
		Components: make([]any, 0, len(configuration.Components)),
	}

	for _, component := range configuration.Components {
		switch typedComponent := component.(type) {
		case *ChartComponent:
			document.Components = append(document.Components, chartDocument{
				Type:      ComponentKindChart,
				ID:        typedComponent.ID,
				ChartType: typedComponent.ChartType,
				XAxis:     typedComponent.XAxis,
				YAxis:     typedComponent.YAxis,
			})
		case *TableComponent:
			document.Components = append(document.Components, tableDocument{
				Type:    ComponentKindTable,
				ID:      typedComponent.ID,
				NumRows: typedComponent.NumRows,
			})
		case *TextComponent:
			document.Components = append(document.Components, textDocument{
				Type:    ComponentKindText,
				ID:      typedComponent.ID,
				Content: typedComponent.Content,
			})
		default:
			return nil, fmt.Errorf("%w: %T", ErrInvalidComponentKind, component)
		}
	}

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", exportIndent)
	if encodeErr := encoder.Encode(document); encodeErr != nil {
		return nil, fmt.Errorf("export configuration: %w", encodeErr)
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

// ParseConfiguration decodes a document produced by ExportConfiguration.
// The layout, the component type and a table's num_rows are validated as
// SetLayout, AddComponent and UpdateComponentField would; the remaining values
// are taken verbatim. A table without num_rows gets DefaultTableRows.
func ParseConfiguration(data []byte) (Configuration, error) {
	var envelope configurationEnvelope
	if decodeErr := json.Unmarshal(data, &envelope); decodeErr != nil {
		return Configuration{}, fmt.Errorf("parse configuration: %w", decodeErr)
	}

	layout, layoutErr := ParseLayout(string(envelope.Layout))
	if layoutErr != nil {
		return Configuration{}, fmt.Errorf("parse configuration: %w", layoutErr)
	}

	configuration := NewConfiguration()
	configuration.Layout = layout
	configuration.DataSource = envelope.DataSource

	for position, rawComponent := range envelope.Components {
		component, componentErr := parseComponent(rawComponent)
		if componentErr != nil {
			return Configuration{}, fmt.Errorf("parse component %d: %w", position, componentErr)
		}
		configuration.Components = append(configuration.Components, component)
	}

	return configuration, nil
}

func parseComponent(rawComponent json.RawMessage) (Component, error) {
	var header componentHeader
	if decodeErr := json.Unmarshal(rawComponent, &header); decodeErr != nil {
		return nil, decodeErr
	}

	switch header.Type {
	case ComponentKindChart:
		var document chartDocument
		if decodeErr := json.Unmarshal(rawComponent, &document); decodeErr != nil {
			return nil, decodeErr
		}
		return &ChartComponent{
			ID:        document.ID,
			ChartType: document.ChartType,
			XAxis:     document.XAxis,
			YAxis:     document.YAxis,
		}, nil
	case ComponentKindTable:
		var document tableRowsDocument
		if decodeErr := json.Unmarshal(rawComponent, &document); decodeErr != nil {
			return nil, decodeErr
		}
		numRows := DefaultTableRows
		if document.NumRows != nil {
			numRows = *document.NumRows
		}
		if numRows < 1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidNumRows, numRows)
		}
		return &TableComponent{ID: header.ID, NumRows: numRows}, nil
	case ComponentKindText:
		var document textDocument
		if decodeErr := json.Unmarshal(rawComponent, &document); decodeErr != nil {
			return nil, decodeErr
		}
		return &TextComponent{ID: document.ID, Content: document.Content}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidComponentKind, header.Type)
	}
}
