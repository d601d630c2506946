package handlers

import (
	"net/http"

	"github.com/thushan/lmsgate/internal/core/constants"
)

var responseJSON = []byte(`{"status":"healthy"}`)

// healthHandler reports process liveness only, LM Studio is not contacted
func (a *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseJSON)
}
