package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
)

const (
	builderTemplateName    = "builder"
	builderHTMLContentType = "text/html; charset=utf-8"
	builderPageTitle       = "Streamlit App Builder"
	errorValueRenderFailed = "builder_render_failed"
	logEventRenderBuilder  = "render_builder_page"
	logEventRenderFooter   = "render_footer"
)

type builderOption struct {
	Value    string
	Selected bool
}

type builderComponentView struct {
	Index        int
	Number       int
	ID           int
	Kind         model.ComponentKind
	IsChart      bool
	IsTable      bool
	IsText       bool
	ChartTypeSet bool
	ChartTypes   []builderOption
	XAxis        string
	YAxis        string
	NumRows      int
	Content      string
}

type builderTemplateData struct {
	Title           string
	APIPrefix       string
	ExportPath      string
	ExportFileName  string
	Layouts         []builderOption
	DataSourceTypes []builderOption
	DataSource      string
	ComponentKinds  []model.ComponentKind
	Components      []builderComponentView
	FooterHTML      template.HTML
}

// BuilderPageHandlers renders the builder page for the caller's session.
type BuilderPageHandlers struct {
	logger       *zap.Logger
	template     *template.Template
	sessionStore BuilderSessionStore
	footerHTML   template.HTML
}

// NewBuilderPageHandlers constructs handlers that render the builder template.
func NewBuilderPageHandlers(logger *zap.Logger, sessionStore BuilderSessionStore) *BuilderPageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiledTemplate := template.Must(template.New(builderTemplateName).Parse(builderTemplateHTML))
	footerHTML, footerErr := renderBuilderFooter()
	if footerErr != nil {
		logger.Warn(logEventRenderFooter, zap.Error(footerErr))
	}
	return &BuilderPageHandlers{
		logger:       logger,
		template:     compiledTemplate,
		sessionStore: sessionStore,
		footerHTML:   footerHTML,
	}
}

// RenderBuilderPage writes the builder page populated with the current configuration.
func (handlers *BuilderPageHandlers) RenderBuilderPage(context *gin.Context) {
	sessionID, ok := BuilderSessionIDFromContext(context)
	if !ok {
		context.AbortWithStatusJSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueSessionNotFound})
		return
	}

	state, loadErr := handlers.sessionStore.Load(context.Request.Context(), sessionID)
	if loadErr != nil {
		handlers.logger.Error(logEventRenderBuilder, zap.String(logFieldSessionID, sessionID), zap.Error(loadErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}

	var buffer bytes.Buffer
	if executeErr := handlers.template.Execute(&buffer, newBuilderTemplateData(state.Configuration, handlers.footerHTML)); executeErr != nil {
		handlers.logger.Error(logEventRenderBuilder, zap.Error(executeErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}
	context.Data(http.StatusOK, builderHTMLContentType, buffer.Bytes())
}

func newBuilderTemplateData(configuration model.Configuration, footerHTML template.HTML) builderTemplateData {
	layouts := make([]builderOption, 0, len(model.Layouts))
	for _, layout := range model.Layouts {
		layouts = append(layouts, builderOption{Value: string(layout), Selected: layout == configuration.Layout})
	}

	dataSourceTypes := make([]builderOption, 0, len(model.DataSourceTypes))
	for _, dataSourceType := range model.DataSourceTypes {
		dataSourceTypes = append(dataSourceTypes, builderOption{Value: string(dataSourceType), Selected: dataSourceType == configuration.DataSourceType})
	}

	components := make([]builderComponentView, 0, len(configuration.Components))
	for index, component := range configuration.Components {
		view := builderComponentView{
			Index:  index,
			Number: index + 1,
			ID:     component.ComponentID(),
			Kind:   component.Kind(),
		}
		switch typedComponent := component.(type) {
		case *model.ChartComponent:
			view.IsChart = true
			view.ChartTypeSet = typedComponent.ChartType != ""
			view.XAxis = typedComponent.XAxis
			view.YAxis = typedComponent.YAxis
			for _, chartType := range model.ChartTypes {
				view.ChartTypes = append(view.ChartTypes, builderOption{Value: string(chartType), Selected: chartType == typedComponent.ChartType})
			}
		case *model.TableComponent:
			view.IsTable = true
			view.NumRows = typedComponent.NumRows
		case *model.TextComponent:
			view.IsText = true
			view.Content = typedComponent.Content
		}
		components = append(components, view)
	}

	return builderTemplateData{
		Title:           builderPageTitle,
		APIPrefix:       BuilderAPIPrefix,
		ExportPath:      BuilderAPIPrefix + BuilderRouteExport,
		ExportFileName:  model.ExportFileName,
		Layouts:         layouts,
		DataSourceTypes: dataSourceTypes,
		DataSource:      configuration.DataSource,
		ComponentKinds:  model.ComponentKinds,
		Components:      components,
		FooterHTML:      footerHTML,
	}
}
