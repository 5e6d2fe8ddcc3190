package models

import "time"

// AuditAction is the kind of a security-relevant event.
type AuditAction string

const (
	AuditSignup       AuditAction = "SIGNUP"
	AuditLoginSuccess AuditAction = "LOGIN_SUCCESS"
	AuditLoginFailure AuditAction = "LOGIN_FAILURE"

	AuditPhotoUpload AuditAction = "PHOTO_UPLOAD"
	AuditPhotoDelete AuditAction = "PHOTO_DELETE"

	AuditAlbumCreate       AuditAction = "ALBUM_CREATE"
	AuditAlbumDelete       AuditAction = "ALBUM_DELETE"
	AuditAlbumShareEnable  AuditAction = "ALBUM_SHARE_ENABLE"
	AuditAlbumShareDisable AuditAction = "ALBUM_SHARE_DISABLE"
)

// AuditEntry is an immutable, append-only fact record. UserID is nil for
// pre-authentication failures (e.g. login with an unknown email).
type AuditEntry struct {
	ID         int64
	UserID     *int64
	UserEmail  *string
	Action     AuditAction
	TargetType string
	TargetID   *int64
	Detail     string
	IPAddress  *string
	CreatedAt  time.Time
}
