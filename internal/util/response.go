package util

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/thushan/lmsgate/internal/core/constants"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the body of every failure this service produces
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// WriteJSON encodes v as the response body with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteDetail writes {"detail": detail}
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	_ = WriteJSON(w, status, ErrorResponse{Detail: detail})
}
