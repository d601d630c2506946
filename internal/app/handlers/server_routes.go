package handlers

import (
	"net/http"

	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/core/domain"
)

// registerRoutes sets up the complete HTTP routing table
func (a *Application) registerRoutes() {
	// operational endpoints are independent of the prefix, status calls
	// LM Studio so it sits behind the same chain as a listing
	a.routeRegistry.Register(http.MethodGet, constants.DefaultHealthCheckEndpoint, a.healthHandler, "Health check endpoint")
	a.routeRegistry.Register(http.MethodGet, constants.DefaultVersionEndpoint, a.versionHandler, "lmsgate version information")
	a.routeRegistry.RegisterWithAccess(http.MethodGet, constants.DefaultStatusEndpoint,
		a.statusHandler, "LM Studio reachability", domain.RoleUser)

	prefix := a.Config.Server.RoutePrefix
	a.routeRegistry.RegisterWithAccess(http.MethodGet, prefix+"/models",
		a.listModelsHandler, "List LM Studio models", domain.RoleUser)
	a.routeRegistry.RegisterWithAccess(http.MethodPost, prefix+"/models/load",
		a.modelActionHandler(domain.OpLoadModel, a.client.LoadModel), "Load a model", domain.RoleAdmin)
	a.routeRegistry.RegisterWithAccess(http.MethodPost, prefix+"/models/unload",
		a.modelActionHandler(domain.OpUnloadModel, a.client.UnloadModel), "Unload a model", domain.RoleAdmin)

	// model ids are often publisher/model so the wildcard spans segments
	a.routeRegistry.RegisterWithAccess(http.MethodGet, prefix+"/models/{model_id...}",
		a.modelInfoHandler, "LM Studio model details", domain.RoleUser)
}
