// Package httpapi exposes the photo service over HTTP: routing, auth
// middleware, and JSON request/response mapping. All business rules live in
// the services package; handlers only translate between the wire and the
// services.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/photovault/internal/common"
)

// Envelope is the standard API response envelope.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries a stable machine-readable code plus a human-readable
// message. Internal error detail, stack traces, and storage credentials are
// never included.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func writeCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// writeError maps an error kind to its HTTP status and stable code. Unknown
// errors collapse to a generic 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		status, message = http.StatusBadRequest, "invalid input"
	case errors.Is(err, common.ErrorUnsupportedMediaType):
		status, message = http.StatusUnsupportedMediaType, "only image files are allowed"
	case errors.Is(err, common.ErrorPayloadTooLarge):
		status, message = http.StatusRequestEntityTooLarge, "file size must not exceed 50MB"
	case errors.Is(err, common.ErrorNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		status, message = http.StatusConflict, "already exists"
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrorUploadFailed):
		message = "file upload failed"
	case errors.Is(err, common.ErrorDeleteFailed):
		message = "file delete failed"
	case errors.Is(err, common.ErrorPresignFailed):
		message = "failed to generate download URL"
	}

	writeJSON(w, status, Envelope{Success: false, Error: &ErrorBody{Code: common.Code(err), Message: message}})
}
