package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/thushan/lmsgate/internal/app/middleware"
	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/util"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	detailModelRequired   = "model is required"
	detailModelIDRequired = "model_id is required"
	detailModelIDSegments = "model_id must not contain empty path segments"
	detailBodyTooLarge    = "Request body too large"
)

// listModelsHandler returns every model LM Studio reports, in its order.
// endpoint: GET {prefix}/models
func (a *Application) listModelsHandler(w http.ResponseWriter, r *http.Request) {
	models, err := a.client.ListModels(r.Context())
	if err != nil {
		a.writeError(w, r, domain.OpListModels, err)
		return
	}

	a.logger.InfoWithCount("Listed LM Studio models", len(models))
	_ = util.WriteJSON(w, http.StatusOK, models)
}

// modelActionHandler serves load and unload, which differ only in the
// upstream call and the verb used in the acknowledgement.
// endpoints: POST {prefix}/models/load, POST {prefix}/models/unload
func (a *Application) modelActionHandler(op domain.Operation, action func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, status, detail := decodeModelRequest(r)
		if status != http.StatusOK {
			middleware.GetLogger(r.Context()).Warn("Invalid model request", "op", op, "status", status, "detail", detail)
			util.WriteDetail(w, status, detail)
			return
		}

		if err := action(r.Context(), req.Model); err != nil {
			a.writeError(w, r, op, err)
			return
		}

		a.logger.InfoWithModel(fmt.Sprintf("Model %s", op.Verb()), req.Model)
		_ = util.WriteJSON(w, http.StatusOK, domain.ActionResponse{
			Status:  domain.ActionStatusSuccess,
			Message: fmt.Sprintf("Model %s %s successfully", req.Model, op.Verb()),
		})
	}
}

// modelInfoHandler relays LM Studio's document for one model untouched.
// endpoint: GET {prefix}/models/{model_id}
func (a *Application) modelInfoHandler(w http.ResponseWriter, r *http.Request) {
	modelID := strings.Trim(r.PathValue("model_id"), "/")
	if modelID == "" {
		util.WriteDetail(w, http.StatusNotFound, detailModelIDRequired)
		return
	}
	// a//b would otherwise name a different model upstream
	if strings.Contains(modelID, "//") {
		util.WriteDetail(w, http.StatusNotFound, detailModelIDSegments)
		return
	}

	body, err := a.client.ModelInfo(r.Context(), modelID)
	if err != nil {
		a.writeError(w, r, domain.OpModelInfo, err)
		return
	}

	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// decodeModelRequest returns http.StatusOK with a normalised request, or the
// status and detail to reject it with. The body is validated before decoding
// as jsoniter treats a truncated document as complete.
func decodeModelRequest(r *http.Request) (domain.ModelLoadRequest, int, string) {
	var req domain.ModelLoadRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, http.StatusRequestEntityTooLarge, detailBodyTooLarge
		}
		return req, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return req, http.StatusUnprocessableEntity, detailModelRequired
	}
	if !gjson.ValidBytes(body) {
		return req, http.StatusUnprocessableEntity, "Invalid request body: malformed JSON"
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, http.StatusUnprocessableEntity, fmt.Sprintf("Invalid request body: %v", err)
	}

	if !req.Normalise() {
		return req, http.StatusUnprocessableEntity, detailModelRequired
	}
	return req, http.StatusOK, ""
}

// writeError is the single place forwarder errors become HTTP responses
func (a *Application) writeError(w http.ResponseWriter, r *http.Request, op domain.Operation, err error) {
	status := domain.StatusCode(err)
	tier := domain.Tier(err)

	log := middleware.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("LM Studio call failed", "op", op, "tier", tier, "status", status, "error", err)
	} else {
		log.Warn("LM Studio rejected call", "op", op, "tier", tier, "status", status, "error", err)
	}

	util.WriteDetail(w, status, err.Error())
}
