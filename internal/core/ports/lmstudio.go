package ports

import (
	"context"

	"github.com/thushan/lmsgate/internal/core/domain"
)

// LMStudioClient forwards management calls to a single LM Studio daemon.
// Every method returns one of the domain upstream, unreachable or internal
// errors on failure.
type LMStudioClient interface {
	ListModels(ctx context.Context) ([]domain.ModelDescriptor, error)
	LoadModel(ctx context.Context, model string) error
	UnloadModel(ctx context.Context, model string) error

	// ModelInfo returns the upstream document untouched
	ModelInfo(ctx context.Context, modelID string) ([]byte, error)

	BaseURL() string
}

// Authenticator resolves a bearer token to a caller
type Authenticator interface {
	Authenticate(token string) (domain.Principal, bool)
	Enabled() bool
}
