// Package users declares the repository contract for account records.
package users

import (
	"context"

	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type Repository interface {
	// Create inserts a new user and returns it with the assigned id.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the user with the given email, or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
