package models

import "time"

// Photo is the metadata record for one uploaded image. The binary itself
// lives in object storage under StorageKey, which is system-generated and
// immutable for the life of the record.
//
// AlbumID is nullable and mutable: a photo can be moved between albums or
// detached entirely.
type Photo struct {
	ID               int64
	UserID           int64
	AlbumID          *int64
	OriginalFilename string
	StorageKey       string
	ContentType      string
	FileSize         int64
	Title            *string
	Description      *string
	CreatedAt        time.Time
}
