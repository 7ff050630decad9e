package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/httpapi"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/storage"
	"github.com/MarkoPoloResearchLab/appbuilder/internal/testutil"
)

const (
	testSessionSecret  = "builder-test-session-secret-0123456789"
	testSessionMaxAge  = time.Hour
	jsonContentType    = "application/json"
	contentTypeHeader  = "Content-Type"
	responseErrorField = "error"
)

type builderHarness struct {
	router       *gin.Engine
	database     *gorm.DB
	sessionStore *storage.SessionStore
}

type builderClient struct {
	testingT *testing.T
	router   *gin.Engine
	cookies  map[string]*http.Cookie
}

type configurationPayload struct {
	DataSourceType string          `json:"data_source_type"`
	Configuration  json.RawMessage `json:"configuration"`
}

type exportedComponent struct {
	Type      string `json:"type"`
	ID        int    `json:"id"`
	ChartType string `json:"chart_type"`
	XAxis     string `json:"x_axis"`
	YAxis     string `json:"y_axis"`
	NumRows   int    `json:"num_rows"`
	Content   string `json:"content"`
}

type exportedConfiguration struct {
	Layout     string              `json:"layout"`
	DataSource string              `json:"data_source"`
	Components []exportedComponent `json:"components"`
}

type generatePayload struct {
	Code     string `json:"code"`
	HTML     string `json:"html"`
	Warnings []struct {
		Code           string `json:"code"`
		ComponentIndex int    `json:"component_index"`
		Message        string `json:"message"`
	} `json:"warnings"`
}

func buildBuilderHarness(testingT *testing.T) builderHarness {
	testingT.Helper()

	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	database := testutil.NewSQLiteTestDatabase(testingT).OpenMigrated(testingT)
	sessionStore := storage.NewSessionStore(database)

	sessionManager := httpapi.NewBuilderSessionManager(logger, sessionStore, []byte(testSessionSecret), testSessionMaxAge)
	builderHandlers := httpapi.NewBuilderHandlers(logger, sessionStore)
	pageHandlers := httpapi.NewBuilderPageHandlers(logger, sessionStore)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))

	httpapi.RegisterBuilderPageRoute(router, sessionManager, pageHandlers)
	httpapi.RegisterBuilderAPIRoutes(router.Group(httpapi.BuilderAPIPrefix), sessionManager, builderHandlers)

	return builderHarness{
		router:       router,
		database:     database,
		sessionStore: sessionStore,
	}
}

func (harness builderHarness) newClient(testingT *testing.T) *builderClient {
	return &builderClient{
		testingT: testingT,
		router:   harness.router,
		cookies:  make(map[string]*http.Cookie),
	}
}

func (client *builderClient) do(method string, path string, body any) *httptest.ResponseRecorder {
	client.testingT.Helper()

	var requestBody io.Reader
	if body != nil {
		switch typedBody := body.(type) {
		case string:
			requestBody = bytes.NewBufferString(typedBody)
		default:
			encoded, encodeErr := json.Marshal(typedBody)
			require.NoError(client.testingT, encodeErr)
			requestBody = bytes.NewReader(encoded)
		}
	}

	request := httptest.NewRequest(method, path, requestBody)
	if body != nil {
		request.Header.Set(contentTypeHeader, jsonContentType)
	}
	for _, cookie := range client.cookies {
		request.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	client.router.ServeHTTP(recorder, request)

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(client.cookies, cookie.Name)
			continue
		}
		client.cookies[cookie.Name] = cookie
	}
	return recorder
}

func (client *builderClient) api(method string, route string, body any) *httptest.ResponseRecorder {
	client.testingT.Helper()
	return client.do(method, httpapi.BuilderAPIPrefix+route, body)
}

func decodeConfiguration(testingT *testing.T, recorder *httptest.ResponseRecorder) (string, exportedConfiguration) {
	testingT.Helper()

	var payload configurationPayload
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &payload))

	var configuration exportedConfiguration
	require.NoError(testingT, json.Unmarshal(payload.Configuration, &configuration))
	return payload.DataSourceType, configuration
}

func decodeErrorCode(testingT *testing.T, recorder *httptest.ResponseRecorder) string {
	testingT.Helper()

	var payload map[string]string
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload[responseErrorField]
}
