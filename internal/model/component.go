package model

import "fmt"

// Component is one dashboard element. The concrete types are *ChartComponent,
// *TableComponent and *TextComponent.
type Component interface {
	Kind() ComponentKind
	ComponentID() int
	isComponent()
}

// ChartComponent renders a plotly chart of two columns.
type ChartComponent struct {
	ID        int
	ChartType ChartType
	XAxis     string
	YAxis     string
}

// TableComponent renders the first NumRows rows of the data.
type TableComponent struct {
	ID      int
	NumRows int
}

// TextComponent renders free-form text.
type TextComponent struct {
	ID      int
	Content string
}

func (component *ChartComponent) Kind() ComponentKind { return ComponentKindChart }
func (component *TableComponent) Kind() ComponentKind { return ComponentKindTable }
func (component *TextComponent) Kind() ComponentKind  { return ComponentKindText }

func (component *ChartComponent) ComponentID() int { return component.ID }
func (component *TableComponent) ComponentID() int { return component.ID }
func (component *TextComponent) ComponentID() int  { return component.ID }

func (*ChartComponent) isComponent() {}
func (*TableComponent) isComponent() {}
func (*TextComponent) isComponent()  {}

func (component *ChartComponent) updateField(field ComponentField, value string) error {
	switch field {
	case ComponentFieldChartType:
		chartType, parseErr := parseChartType(value)
		if parseErr != nil {
			return parseErr
		}
		component.ChartType = chartType
	case ComponentFieldXAxis:
		component.XAxis = value
	case ComponentFieldYAxis:
		component.YAxis = value
	default:
		return unknownFieldError(component, field)
	}
	return nil
}

func (component *TableComponent) updateField(field ComponentField, value string) error {
	if field != ComponentFieldNumRows {
		return unknownFieldError(component, field)
	}
	numRows, parseErr := parseNumRows(value)
	if parseErr != nil {
		return parseErr
	}
	component.NumRows = numRows
	return nil
}

func (component *TextComponent) updateField(field ComponentField, value string) error {
	if field != ComponentFieldContent {
		return unknownFieldError(component, field)
	}
	component.Content = value
	return nil
}

func unknownFieldError(component Component, field ComponentField) error {
	return fmt.Errorf("%w: %s has no field %s", ErrUnknownComponentField, component.Kind(), field)
}
