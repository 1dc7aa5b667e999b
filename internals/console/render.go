package console

import (
	"encoding/json"
	"net/http"

	"github.com/Oudwins/botdesk/internals/botapi"
)

type JsonResponseStatus string

const JsonResponseStatusFailed JsonResponseStatus = "failed"

type JsonResponseErrorCode string

const (
	JsonResponseErrorCodeInvalidJson       JsonResponseErrorCode = "invalid_json"
	JsonResponseErrorCodeValidationFailed  JsonResponseErrorCode = "validation_failed"
	JsonResponseErrorCodeInternal          JsonResponseErrorCode = "internal"
	JsonResponseErrorCodeCredentialMissing JsonResponseErrorCode = "credential_missing"
	JsonResponseErrorCodeRemoteRejected    JsonResponseErrorCode = "remote_rejected"
	JsonResponseErrorCodeTransportFailure  JsonResponseErrorCode = "transport_failure"
)

type ErrorResponse struct {
	Status  JsonResponseStatus    `json:"status"`
	Code    JsonResponseErrorCode `json:"code"`
	Message string                `json:"message"`
	Errors  map[string][]string   `json:"errors,omitempty"`
}

func JsonResponseError(code JsonResponseErrorCode, message string, errors map[string][]string) *ErrorResponse {
	return &ErrorResponse{
		Status:  JsonResponseStatusFailed,
		Code:    code,
		Message: message,
		Errors:  errors,
	}
}

type RenderOption = func(w http.ResponseWriter, r *http.Request)

type Renderer struct {
}

func (r *Renderer) Status(status int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

var Render = Renderer{}

func RenderJSON(w http.ResponseWriter, r *http.Request, payload any, opts ...RenderOption) {
	w.Header().Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(w, r)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RenderBotError maps a bot client failure onto a status code and error code.
func RenderBotError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := botapi.KindOf(err)
	if !ok {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
		return
	}
	switch kind {
	case botapi.KindCredentialMissing:
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeCredentialMissing, err.Error(), nil), Render.Status(http.StatusPreconditionFailed))
	case botapi.KindRemoteRejected:
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeRemoteRejected, err.Error(), nil), Render.Status(http.StatusBadGateway))
	default:
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeTransportFailure, err.Error(), nil), Render.Status(http.StatusBadGateway))
	}
}
