// Package refreshtokens declares the repository contract for server-stored
// refresh tokens backing the authentication flow.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string. Absent tokens
	// yield common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a non-existent token is not an
	// error.
	Delete(ctx context.Context, token string) error
}
