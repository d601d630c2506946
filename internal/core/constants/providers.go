package constants

const (
	ProviderTypeLMStudio    = "lmstudio"
	ProviderDisplayLMStudio = "LM Studio"

	DefaultLMStudioURL = "http://localhost:1234"
)
