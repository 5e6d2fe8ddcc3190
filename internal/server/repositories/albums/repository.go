// Package albums declares the repository contract for album records.
package albums

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type Repository interface {
	// Create inserts a new album and returns it with the assigned id.
	Create(ctx context.Context, album *models.Album) (*models.Album, error)

	// GetByIDAndOwner returns the album only when it exists AND belongs to
	// ownerID; otherwise common.ErrorNotFound. Non-owned albums are therefore
	// indistinguishable from absent ones.
	GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Album, error)

	// GetByShareToken returns the album carrying the given share token, or
	// common.ErrorNotFound.
	GetByShareToken(ctx context.Context, token string) (*models.Album, error)

	// ListByOwner returns the owner's albums, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Album, error)

	// Update persists title, description, share token, and sharing flag.
	Update(ctx context.Context, album *models.Album) error

	// Delete removes the album row. Photos referencing it are detached by the
	// schema (ON DELETE SET NULL).
	Delete(ctx context.Context, id int64) error
}
