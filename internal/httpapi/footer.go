package httpapi

import (
	"html/template"

	"github.com/MarkoPoloResearchLab/appbuilder/pkg/footer"
)

const (
	footerElementID         = "builder-footer"
	footerBaseClass         = "border-top mt-5 py-3 small text-muted"
	footerInnerClass        = "container d-flex align-items-center gap-2"
	footerPrefixClass       = "builder-footer__prefix"
	footerPrefixText        = "Generated apps run on"
	footerToggleButtonID    = "builder-footer-toggle"
	footerToggleButtonClass = "btn btn-link btn-sm dropdown-toggle p-0"
	footerToggleLabel       = "Streamlit, pandas and Plotly Express"
	footerMenuClass         = "dropdown-menu"
	footerMenuItemClass     = "dropdown-item"
)

var footerLinks = []footer.Link{
	{Label: "Streamlit API reference", URL: "https://docs.streamlit.io/develop/api-reference"},
	{Label: "pandas read_csv", URL: "https://pandas.pydata.org/docs/reference/api/pandas.read_csv.html"},
	{Label: "Plotly Express", URL: "https://plotly.com/python/plotly-express/"},
}

var builderFooterConfig = footer.Config{
	ElementID:         footerElementID,
	BaseClass:         footerBaseClass,
	InnerClass:        footerInnerClass,
	PrefixClass:       footerPrefixClass,
	PrefixText:        footerPrefixText,
	ToggleButtonID:    footerToggleButtonID,
	ToggleButtonClass: footerToggleButtonClass,
	ToggleLabel:       footerToggleLabel,
	MenuClass:         footerMenuClass,
	MenuItemClass:     footerMenuItemClass,
	Links:             footerLinks,
}

func renderBuilderFooter() (template.HTML, error) {
	return footer.Render(builderFooterConfig)
}
