package constants

const (
	DefaultHealthCheckEndpoint = "/internal/health"
	DefaultStatusEndpoint      = "/internal/status"
	DefaultVersionEndpoint     = "/version"
	DefaultRoutePrefix         = "/lmstudio"

	// LM Studio follows the OpenAI versioned layout for its management API
	UpstreamPathModels       = "/v1/models"
	UpstreamPathModelsLoad   = "/v1/models/load"
	UpstreamPathModelsUnload = "/v1/models/unload"
)
