package httpapi

import "github.com/gin-gonic/gin"

const (
	// BuilderPagePath serves the builder page.
	BuilderPagePath = "/builder"
	// BuilderAPIPrefix groups the builder JSON API.
	BuilderAPIPrefix = "/api/builder"

	BuilderRouteConfiguration = "/configuration"
	BuilderRouteLayout        = "/layout"
	BuilderRouteDataSource    = "/data-source"
	BuilderRouteComponents    = "/components"
	BuilderRouteComponent     = "/components/:index"
	BuilderRouteGenerate      = "/generate"
	BuilderRouteExport        = "/export"
	BuilderRouteSession       = "/session"
)

// RegisterBuilderPageRoute mounts the builder page behind the session middleware.
func RegisterBuilderPageRoute(router gin.IRoutes, sessionManager *BuilderSessionManager, pageHandlers *BuilderPageHandlers) {
	router.GET(BuilderPagePath, sessionManager.RequireBuilderSession(), pageHandlers.RenderBuilderPage)
}

// RegisterBuilderAPIRoutes mounts the builder JSON API on a group rooted at
// BuilderAPIPrefix. Middleware already attached to the group runs first.
func RegisterBuilderAPIRoutes(apiGroup *gin.RouterGroup, sessionManager *BuilderSessionManager, builderHandlers *BuilderHandlers) {
	apiGroup.Use(sessionManager.RequireBuilderSession())
	apiGroup.GET(BuilderRouteConfiguration, builderHandlers.GetConfiguration)
	apiGroup.PUT(BuilderRouteLayout, builderHandlers.SetLayout)
	apiGroup.PUT(BuilderRouteDataSource, builderHandlers.SetDataSource)
	apiGroup.POST(BuilderRouteComponents, builderHandlers.AddComponent)
	apiGroup.PATCH(BuilderRouteComponent, builderHandlers.UpdateComponentField)
	apiGroup.POST(BuilderRouteGenerate, builderHandlers.Generate)
	apiGroup.GET(BuilderRouteExport, builderHandlers.Export)
	apiGroup.DELETE(BuilderRouteSession, sessionManager.EndSession)
}
