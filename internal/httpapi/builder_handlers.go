package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/generator"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/highlight"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/model"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/storage"
)

const (
	jsonKeyError = "error"

	errorValueInvalidJSON      = "invalid_json"
	errorValueInvalidIndex     = "invalid_component_index"
	errorValueQueryFailed      = "query_failed"
	errorValueSaveFailed       = "save_failed"
	errorValueGenerateFailed   = "generate_failed"
	errorValueExportFailed     = "export_failed"
	contentDispositionHeader   = "Content-Disposition"
	contentDispositionTemplate = "attachment; filename=%q"
	pathParameterIndex         = "index"

	logEventUpdateConfiguration = "update_configuration"
	logEventLoadConfiguration   = "load_configuration"
	logEventGenerateCode        = "generate_code"
	logEventHighlightCode       = "highlight_code"
	logEventExportConfiguration = "export_configuration"
	logFieldWarnings            = "warnings"
)

var clientConfigurationErrors = []error{
	model.ErrInvalidLayout,
	model.ErrInvalidDataSourceType,
	model.ErrInvalidComponentKind,
	model.ErrInvalidChartType,
	model.ErrInvalidNumRows,
	model.ErrUnknownComponentField,
	model.ErrComponentIndexOutOfRange,
}

type layoutRequest struct {
	Layout string `json:"layout"`
}

type dataSourceRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type addComponentRequest struct {
	Type string `json:"type"`
}

type updateComponentFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type configurationResponse struct {
	DataSourceType string          `json:"data_source_type"`
	Configuration  json.RawMessage `json:"configuration"`
}

type generateResponse struct {
	Code     string              `json:"code"`
	HTML     template.HTML       `json:"html"`
	Warnings []generator.Finding `json:"warnings"`
}

// BuilderHandlers serves the JSON API that edits, generates and exports the
// caller's configuration.
type BuilderHandlers struct {
	logger       *zap.Logger
	sessionStore BuilderSessionStore
}

// NewBuilderHandlers constructs BuilderHandlers.
func NewBuilderHandlers(logger *zap.Logger, sessionStore BuilderSessionStore) *BuilderHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuilderHandlers{
		logger:       logger,
		sessionStore: sessionStore,
	}
}

// GetConfiguration returns the caller's configuration.
func (handlers *BuilderHandlers) GetConfiguration(context *gin.Context) {
	state, ok := handlers.loadState(context)
	if !ok {
		return
	}
	handlers.respondWithState(context, http.StatusOK, state)
}

// SetLayout stores the selected page layout.
func (handlers *BuilderHandlers) SetLayout(context *gin.Context) {
	var payload layoutRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	handlers.applyMutation(context, http.StatusOK, func(configuration *model.Configuration) error {
		layout, parseErr := model.ParseLayout(payload.Layout)
		if parseErr != nil {
			return parseErr
		}
		return configuration.SetLayout(layout)
	})
}

// SetDataSource stores the data source text and, when given, its type.
func (handlers *BuilderHandlers) SetDataSource(context *gin.Context) {
	var payload dataSourceRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	handlers.applyMutation(context, http.StatusOK, func(configuration *model.Configuration) error {
		if payload.Type != "" {
			if typeErr := configuration.SetDataSourceType(model.DataSourceType(payload.Type)); typeErr != nil {
				return typeErr
			}
		}
		configuration.SetDataSource(payload.Value)
		return nil
	})
}

// AddComponent appends a component of the requested kind.
func (handlers *BuilderHandlers) AddComponent(context *gin.Context) {
	var payload addComponentRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	handlers.applyMutation(context, http.StatusCreated, func(configuration *model.Configuration) error {
		kind, parseErr := model.ParseComponentKind(payload.Type)
		if parseErr != nil {
			return parseErr
		}
		_, addErr := configuration.AddComponent(kind)
		return addErr
	})
}

// UpdateComponentField edits one field of the component at the path index.
func (handlers *BuilderHandlers) UpdateComponentField(context *gin.Context) {
	index, indexErr := strconv.Atoi(context.Param(pathParameterIndex))
	if indexErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidIndex})
		return
	}

	var payload updateComponentFieldRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}

	handlers.applyMutation(context, http.StatusOK, func(configuration *model.Configuration) error {
		return configuration.UpdateComponentField(index, model.ComponentField(payload.Field), payload.Value)
	})
}

// Generate renders the Streamlit code for the caller's configuration together
// with the known defects it carries.
func (handlers *BuilderHandlers) Generate(context *gin.Context) {
	state, ok := handlers.loadState(context)
	if !ok {
		return
	}

	code, generateErr := generator.Generate(state.Configuration)
	if generateErr != nil {
		handlers.logger.Error(logEventGenerateCode, zap.String(logFieldSessionID, state.ID), zap.Error(generateErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueGenerateFailed})
		return
	}

	highlightedCode, highlightErr := highlight.Python(code)
	if highlightErr != nil {
		handlers.logger.Warn(logEventHighlightCode, zap.Error(highlightErr))
		highlightedCode = template.HTML(template.HTMLEscapeString(code))
	}

	warnings := generator.Inspect(state.Configuration)
	handlers.logger.Debug(logEventGenerateCode, zap.String(logFieldSessionID, state.ID), zap.Int(logFieldWarnings, len(warnings)))

	context.JSON(http.StatusOK, generateResponse{
		Code:     code,
		HTML:     highlightedCode,
		Warnings: warnings,
	})
}

// Export downloads the caller's configuration as app_config.json.
func (handlers *BuilderHandlers) Export(context *gin.Context) {
	state, ok := handlers.loadState(context)
	if !ok {
		return
	}

	document, exportErr := model.ExportConfiguration(state.Configuration)
	if exportErr != nil {
		handlers.logger.Error(logEventExportConfiguration, zap.String(logFieldSessionID, state.ID), zap.Error(exportErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueExportFailed})
		return
	}

	context.Header(contentDispositionHeader, fmt.Sprintf(contentDispositionTemplate, model.ExportFileName))
	context.Data(http.StatusOK, model.ExportContentType, document)
}

func (handlers *BuilderHandlers) loadState(context *gin.Context) (storage.SessionState, bool) {
	sessionID, ok := BuilderSessionIDFromContext(context)
	if !ok {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueSessionNotFound})
		return storage.SessionState{}, false
	}

	state, loadErr := handlers.sessionStore.Load(context.Request.Context(), sessionID)
	if loadErr != nil {
		if errors.Is(loadErr, storage.ErrSessionNotFound) {
			context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueSessionNotFound})
			return storage.SessionState{}, false
		}
		handlers.logger.Error(logEventLoadConfiguration, zap.String(logFieldSessionID, sessionID), zap.Error(loadErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return storage.SessionState{}, false
	}
	return state, true
}

func (handlers *BuilderHandlers) applyMutation(context *gin.Context, successStatus int, mutator storage.ConfigurationMutator) {
	sessionID, ok := BuilderSessionIDFromContext(context)
	if !ok {
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueSessionNotFound})
		return
	}

	state, updateErr := handlers.sessionStore.Update(context.Request.Context(), sessionID, mutator)
	if updateErr != nil {
		if clientErrorCode, isClientError := configurationErrorCode(updateErr); isClientError {
			context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: clientErrorCode})
			return
		}
		if errors.Is(updateErr, storage.ErrSessionNotFound) {
			context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueSessionNotFound})
			return
		}
		handlers.logger.Error(logEventUpdateConfiguration, zap.String(logFieldSessionID, sessionID), zap.Error(updateErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}

	handlers.respondWithState(context, successStatus, state)
}

func (handlers *BuilderHandlers) respondWithState(context *gin.Context, status int, state storage.SessionState) {
	document, exportErr := model.ExportConfiguration(state.Configuration)
	if exportErr != nil {
		handlers.logger.Error(logEventExportConfiguration, zap.String(logFieldSessionID, state.ID), zap.Error(exportErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueExportFailed})
		return
	}
	context.JSON(status, configurationResponse{
		DataSourceType: string(state.Configuration.DataSourceType),
		Configuration:  json.RawMessage(document),
	})
}

func configurationErrorCode(err error) (string, bool) {
	for _, clientErr := range clientConfigurationErrors {
		if errors.Is(err, clientErr) {
			return clientErr.Error(), true
		}
	}
	return "", false
}
