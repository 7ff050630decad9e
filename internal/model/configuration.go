package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Layout selects the page width of the generated dashboard.
type Layout string

// DataSourceType is the kind of data source chosen on the builder page.
type DataSourceType string

// ComponentKind tags the variant of a Component.
type ComponentKind string

// ChartType selects the plotting call emitted for a chart component.
type ChartType string

// ComponentField names an editable component field.
type ComponentField string

const (
	LayoutWide     Layout = "wide"
	LayoutCentered Layout = "centered"

	DataSourceTypeCSV      DataSourceType = "CSV"
	DataSourceTypeDatabase DataSourceType = "Database"
	DataSourceTypeAPI      DataSourceType = "API"

	ComponentKindChart ComponentKind = "Chart"
	ComponentKindTable ComponentKind = "Table"
	ComponentKindText  ComponentKind = "Text"

	ChartTypeBar     ChartType = "bar"
	ChartTypeLine    ChartType = "line"
	ChartTypeScatter ChartType = "scatter"

	ComponentFieldChartType ComponentField = "chart_type"
	ComponentFieldXAxis     ComponentField = "x_axis"
	ComponentFieldYAxis     ComponentField = "y_axis"
	ComponentFieldNumRows   ComponentField = "num_rows"
	ComponentFieldContent   ComponentField = "content"

	// DefaultTableRows is the row count a new table component starts with.
	DefaultTableRows = 5
	minimumTableRows = 1
)

var (
	ErrInvalidLayout            = errors.New("invalid_layout")
	ErrInvalidDataSourceType    = errors.New("invalid_data_source_type")
	ErrInvalidComponentKind     = errors.New("invalid_component_kind")
	ErrInvalidChartType         = errors.New("invalid_chart_type")
	ErrInvalidNumRows           = errors.New("invalid_num_rows")
	ErrUnknownComponentField    = errors.New("unknown_component_field")
	ErrComponentIndexOutOfRange = errors.New("component_index_out_of_range")
)

// Layouts lists the accepted layouts in selector order.
var Layouts = []Layout{LayoutWide, LayoutCentered}

// DataSourceTypes lists the accepted data source types in selector order.
var DataSourceTypes = []DataSourceType{DataSourceTypeCSV, DataSourceTypeDatabase, DataSourceTypeAPI}

// ComponentKinds lists the component kinds that can be added.
var ComponentKinds = []ComponentKind{ComponentKindChart, ComponentKindTable, ComponentKindText}

// ChartTypes lists the supported chart types in selector order.
var ChartTypes = []ChartType{ChartTypeBar, ChartTypeLine, ChartTypeScatter}

// Configuration describes the dashboard being assembled in one builder session.
// Components are kept in insertion order, which is also the generation order.
type Configuration struct {
	Layout         Layout
	DataSource     string
	DataSourceType DataSourceType
	Components     []Component
}

// NewConfiguration returns the configuration a session starts with.
func NewConfiguration() Configuration {
	return Configuration{
		Layout:         LayoutWide,
		DataSource:     "",
		DataSourceType: DataSourceTypeCSV,
		Components:     []Component{},
	}
}

// SetLayout stores one of the enumerated layouts.
func (configuration *Configuration) SetLayout(value Layout) error {
	if !isKnownLayout(value) {
		return fmt.Errorf("%w: %s", ErrInvalidLayout, value)
	}
	configuration.Layout = value
	return nil
}

// SetDataSource stores the data source verbatim. Whether it can be loaded is
// only discovered when the generated code runs.
func (configuration *Configuration) SetDataSource(value string) {
	configuration.DataSource = value
}

// SetDataSourceType records the selected data source type. It has no effect on
// generated code.
func (configuration *Configuration) SetDataSourceType(value DataSourceType) error {
	switch value {
	case DataSourceTypeCSV, DataSourceTypeDatabase, DataSourceTypeAPI:
		configuration.DataSourceType = value
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDataSourceType, value)
	}
}

// AddComponent appends a component of the given kind. Its id is the number of
// components present before the append; ids are never reassigned.
func (configuration *Configuration) AddComponent(kind ComponentKind) (Component, error) {
	componentID := len(configuration.Components)

	var component Component
	switch kind {
	case ComponentKindChart:
		component = &ChartComponent{ID: componentID}
	case ComponentKindTable:
		component = &TableComponent{ID: componentID, NumRows: DefaultTableRows}
	case ComponentKindText:
		component = &TextComponent{ID: componentID}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidComponentKind, kind)
	}

	configuration.Components = append(configuration.Components, component)
	return component, nil
}

// UpdateComponentField sets one field of the component at index. Free-text
// fields are stored as given; chart_type and num_rows are constrained to the
// values the builder page offers.
func (configuration *Configuration) UpdateComponentField(index int, field ComponentField, value string) error {
	if index < 0 || index >= len(configuration.Components) {
		return fmt.Errorf("%w: %d", ErrComponentIndexOutOfRange, index)
	}

	switch component := configuration.Components[index].(type) {
	case *ChartComponent:
		return component.updateField(field, value)
	case *TableComponent:
		return component.updateField(field, value)
	case *TextComponent:
		return component.updateField(field, value)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidComponentKind, component)
	}
}

// Component returns the component at index.
func (configuration Configuration) Component(index int) (Component, error) {
	if index < 0 || index >= len(configuration.Components) {
		return nil, fmt.Errorf("%w: %d", ErrComponentIndexOutOfRange, index)
	}
	return configuration.Components[index], nil
}

// ParseLayout validates a raw layout value.
func ParseLayout(rawValue string) (Layout, error) {
	layout := Layout(strings.TrimSpace(rawValue))
	if !isKnownLayout(layout) {
		return "", fmt.Errorf("%w: %s", ErrInvalidLayout, rawValue)
	}
	return layout, nil
}

// ParseComponentKind validates a raw component kind.
func ParseComponentKind(rawValue string) (ComponentKind, error) {
	kind := ComponentKind(strings.TrimSpace(rawValue))
	switch kind {
	case ComponentKindChart, ComponentKindTable, ComponentKindText:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidComponentKind, rawValue)
	}
}

func isKnownLayout(layout Layout) bool {
	return layout == LayoutWide || layout == LayoutCentered
}

func parseChartType(rawValue string) (ChartType, error) {
	chartType := ChartType(rawValue)
	switch chartType {
	case ChartTypeBar, ChartTypeLine, ChartTypeScatter:
		return chartType, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidChartType, rawValue)
	}
}

func parseNumRows(rawValue string) (int, error) {
	numRows, parseErr := strconv.Atoi(strings.TrimSpace(rawValue))
	if parseErr != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidNumRows, parseErr)
	}
	if numRows < minimumTableRows {
		return 0, fmt.Errorf("%w: %d", ErrInvalidNumRows, numRows)
	}
	return numRows, nil
}
