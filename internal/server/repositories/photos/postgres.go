package photos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const photoColumns = `id, user_id, album_id, original_filename, storage_key,
	content_type, file_size, title, description, created_at`

func (r *PostgresRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query := `
		INSERT INTO photos (user_id, album_id, original_filename, storage_key,
			content_type, file_size, title, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		photo.UserID, photo.AlbumID, photo.OriginalFilename, photo.StorageKey,
		photo.ContentType, photo.FileSize, photo.Title, photo.Description).
		Scan(&photo.ID, &photo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photo, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE id = $1 AND user_id = $2`

	photo := &models.Photo{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).
		Scan(&photo.ID, &photo.UserID, &photo.AlbumID, &photo.OriginalFilename,
			&photo.StorageKey, &photo.ContentType, &photo.FileSize,
			&photo.Title, &photo.Description, &photo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photo, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListByAlbum(ctx context.Context, albumID int64) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE album_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, albumID)
}

func (r *PostgresRepository) ListUnassigned(ctx context.Context, ownerID int64) ([]*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = $1 AND album_id IS NULL ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) Update(ctx context.Context, photo *models.Photo) error {
	query := `
		UPDATE photos
		SET album_id = $1, title = $2, description = $3
		WHERE id = $4
	`
	if _, err := r.db.ExecContext(ctx, query,
		photo.AlbumID, photo.Title, photo.Description, photo.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.Photo, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Photo
	for rows.Next() {
		photo := &models.Photo{}
		if err := rows.Scan(&photo.ID, &photo.UserID, &photo.AlbumID, &photo.OriginalFilename,
			&photo.StorageKey, &photo.ContentType, &photo.FileSize,
			&photo.Title, &photo.Description, &photo.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
