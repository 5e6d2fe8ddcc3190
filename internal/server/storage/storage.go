// Package storage implements the blob store gateway: uploads, deletes, and
// time-limited read grants for binary objects in an S3-compatible store.
// It owns no business rules beyond upload validation and key synthesis.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/google/uuid"
)

// MaxUploadSize is the hard ceiling for a single uploaded object (50 MiB).
const MaxUploadSize = 50 * 1024 * 1024

// Upload carries a validated-at-the-edge payload into the gateway. The
// gateway still enforces its own invariants (non-empty, image/*, size cap)
// before any network call.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Gateway is the capability over keyed binary blobs.
//
// Put stores the payload and returns the synthesized storage key. Delete is
// idempotent from the caller's perspective: removing an absent key is not an
// error. Presign returns a URL granting time-bounded, credential-free read
// access to one object; the TTL is fixed by configuration, never
// caller-controlled.
type Gateway interface {
	Put(ctx context.Context, ownerID int64, upload Upload) (string, error)
	Delete(ctx context.Context, storageKey string) error
	Presign(ctx context.Context, storageKey string) (string, error)
}

// ValidateUpload checks gateway invariants locally, before any network call:
// the payload must be non-empty, carry an image content type, and not exceed
// MaxUploadSize.
func ValidateUpload(upload Upload) error {
	if len(upload.Data) == 0 {
		return fmt.Errorf("%w: file is empty", common.ErrorInvalidInput)
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return fmt.Errorf("%w: only image files are allowed", common.ErrorUnsupportedMediaType)
	}
	if len(upload.Data) > MaxUploadSize {
		return fmt.Errorf("%w: file size must not exceed 50MB", common.ErrorPayloadTooLarge)
	}
	return nil
}

// NewStorageKey synthesizes an object key of the form
// users/{ownerID}/photos/{uuid}{ext}. The UUID guarantees collision-freedom
// independent of the user-supplied filename; namespacing by owner supports
// coarse-grained operational cleanup.
func NewStorageKey(ownerID int64, filename string) string {
	return fmt.Sprintf("users/%d/photos/%s%s", ownerID, uuid.New(), fileExtension(filename))
}

// fileExtension returns the trailing ".ext" of filename, or "" when there is
// no dot.
func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
