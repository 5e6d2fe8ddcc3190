// Package common defines shared sentinel errors used across all server layers.
// Callers should use errors.Is to match these values; the HTTP layer maps them
// to stable machine-readable codes.
package common

import "errors"

var (
	// Validation errors (no side effects performed when these are returned).
	ErrorInvalidInput         = errors.New("invalid input")
	ErrorUnsupportedMediaType = errors.New("unsupported media type")
	ErrorPayloadTooLarge      = errors.New("payload too large")

	// Repository-level errors. A resource that exists but is owned by someone
	// else is reported as not found, never as forbidden.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Blob store transport errors.
	ErrorUploadFailed  = errors.New("upload failed")
	ErrorDeleteFailed  = errors.New("delete failed")
	ErrorPresignFailed = errors.New("presign failed")

	// Auth errors.
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrorForbidden         = errors.New("forbidden")
	ErrInvalidToken        = errors.New("invalid token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Generic internal flow control.
	ErrorInternal = errors.New("internal error")
)

// Code returns the stable machine-readable code for err, or "INTERNAL_ERROR"
// when the error does not match any known kind. Responses carry this code plus
// a human-readable message and never include internal error detail.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrorInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrorUnsupportedMediaType):
		return "UNSUPPORTED_MEDIA_TYPE"
	case errors.Is(err, ErrorPayloadTooLarge):
		return "PAYLOAD_TOO_LARGE"
	case errors.Is(err, ErrorNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrorAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrorUploadFailed):
		return "UPLOAD_FAILED"
	case errors.Is(err, ErrorDeleteFailed):
		return "DELETE_FAILED"
	case errors.Is(err, ErrorPresignFailed):
		return "PRESIGN_FAILED"
	case errors.Is(err, ErrorUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrorForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidToken):
		return "INVALID_TOKEN"
	case errors.Is(err, ErrRefreshTokenExpired):
		return "REFRESH_TOKEN_EXPIRED"
	default:
		return "INTERNAL_ERROR"
	}
}
