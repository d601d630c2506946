package constants

const (
	ContextRequestIdKey = "request_id" // generated per inbound request by the logging middleware
	ContextPrincipalKey = "principal"  // authenticated caller attached by the auth middleware
)
