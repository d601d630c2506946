package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError means LM Studio answered, but with a non-success status.
// The status is passed through to the caller untouched.
type UpstreamError struct {
	Op         Operation
	Body       string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op.rejectedPrefix(), e.Body)
}

// UnreachableError means the round trip never completed: refused
// connections, DNS failures, transport timeouts and cancelled requests.
type UnreachableError struct {
	Err   error
	Op    Operation
	URL   string
	Model string
}

func (e *UnreachableError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("Failed to connect to LM Studio at %s (model %s): %v", e.URL, e.Model, e.Err)
	}
	return fmt.Sprintf("Failed to connect to LM Studio at %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// InternalError covers everything else, typically a response we could not decode
type InternalError struct {
	Err error
	Op  Operation
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op.failedPrefix(), e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(op Operation, statusCode int, body string) *UpstreamError {
	return &UpstreamError{
		Op:         op,
		StatusCode: statusCode,
		Body:       body,
	}
}

func NewUnreachableError(op Operation, url, model string, err error) *UnreachableError {
	return &UnreachableError{
		Op:    op,
		URL:   url,
		Model: model,
		Err:   err,
	}
}

func NewInternalError(op Operation, err error) *InternalError {
	return &InternalError{
		Op:  op,
		Err: err,
	}
}

// StatusCode maps an error from the forwarder onto the HTTP status the
// caller should see. Upstream 4xx and 5xx pass through; informational and
// unfollowed redirect statuses cannot carry an error body and become 502.
func StatusCode(err error) int {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		if upstreamErr.StatusCode < http.StatusBadRequest {
			return http.StatusBadGateway
		}
		return upstreamErr.StatusCode
	}

	var unreachableErr *UnreachableError
	if errors.As(err, &unreachableErr) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// Tier returns a short label for logging and metrics
func Tier(err error) string {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return "upstream_rejected"
	}
	var unreachableErr *UnreachableError
	if errors.As(err, &unreachableErr) {
		return "upstream_unreachable"
	}
	return "internal"
}

// ConfigValidationError is returned when a configuration value is unusable
type ConfigValidationError struct {
	Value  interface{}
	Field  string
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s=%v: %s", e.Field, e.Value, e.Reason)
}

func NewConfigValidationError(field string, value interface{}, reason string) *ConfigValidationError {
	return &ConfigValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
