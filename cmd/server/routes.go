package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MarkoPoloResearchLab/appbuilder/internal/httpapi"
)

const (
	rootRoutePath           = "/"
	corsHeaderContentType   = "Content-Type"
	corsHeaderDisposition   = "Content-Disposition"
	corsPreflightMaxAge     = 12 * time.Hour
	builderAPIRouteWildcard = "/*path"
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType, corsHeaderDisposition}
)

func registerFrontendRoutes(
	router *gin.Engine,
	sessionManager *httpapi.BuilderSessionManager,
	pageHandlers *httpapi.BuilderPageHandlers,
) {
	router.GET(rootRoutePath, func(context *gin.Context) {
		context.Redirect(http.StatusFound, httpapi.BuilderPagePath)
	})
	httpapi.RegisterBuilderPageRoute(router, sessionManager, pageHandlers)
}

func registerBackendRoutes(
	router *gin.Engine,
	sessionManager *httpapi.BuilderSessionManager,
	builderHandlers *httpapi.BuilderHandlers,
	allowedOrigins []string,
) {
	apiGroup := router.Group(httpapi.BuilderAPIPrefix)
	if len(allowedOrigins) > 0 {
		builderCORS := newBuilderCORS(allowedOrigins)
		apiGroup.Use(builderCORS)
		apiGroup.OPTIONS(builderAPIRouteWildcard, builderCORS)
	}
	httpapi.RegisterBuilderAPIRoutes(apiGroup, sessionManager, builderHandlers)
}

func newBuilderCORS(allowedOrigins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: true,
		MaxAge:           corsPreflightMaxAge,
	})
}
