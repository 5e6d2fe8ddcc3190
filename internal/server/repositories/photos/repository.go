// Package photos declares the repository contract for photo metadata records.
package photos

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type Repository interface {
	// Create inserts a new photo record and returns it with the assigned id.
	// The storage key is set once here and never updated afterwards.
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)

	// GetByIDAndOwner returns the photo only when it exists AND belongs to
	// ownerID; otherwise common.ErrorNotFound.
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Photo, error)

	// ListByOwner returns the owner's photos, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Photo, error)

	// ListByAlbum returns the photos of one album, newest first.
	ListByAlbum(ctx context.Context, albumID int64) ([]*models.Photo, error)

	// ListUnassigned returns the owner's photos not linked to any album,
	// newest first.
	ListUnassigned(ctx context.Context, ownerID int64) ([]*models.Photo, error)

	// Update persists album linkage, title, and description. The storage key
	// is deliberately not part of the statement.
	Update(ctx context.Context, photo *models.Photo) error

	// Delete removes the photo row.
	Delete(ctx context.Context, id int64) error
}
