package domain

import "strings"

// ModelLoadRequest is the body accepted by the load and unload operations
type ModelLoadRequest struct {
	Model string `json:"model"`
}

// Normalise trims the identifier, returning false when nothing is left
func (r *ModelLoadRequest) Normalise() bool {
	r.Model = strings.TrimSpace(r.Model)
	return r.Model != ""
}

// ModelDescriptor is the projection returned by the listing endpoint.
// Path and Size are pointers so absent upstream fields are omitted rather
// than rendered as zero values.
type ModelDescriptor struct {
	Path     *string `json:"path,omitempty"`
	Size     *int64  `json:"size,omitempty"`
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Provider string  `json:"provider"`
	Loaded   bool    `json:"loaded"`
}

// ActionResponse acknowledges a load or unload
type ActionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const ActionStatusSuccess = "success"
