package albums

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

const albumColumns = `id, user_id, title, description, share_token, is_shared, created_at`

func (r *PostgresRepository) Create(ctx context.Context, album *models.Album) (*models.Album, error) {
	query := `
		INSERT INTO albums (user_id, title, description, is_shared)
		VALUES ($1, $2, $3, false)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		album.UserID, album.Title, album.Description).
		Scan(&album.ID, &album.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return album, nil
}

func (r *PostgresRepository) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE id = $1 AND user_id = $2`
	return scanAlbum(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *PostgresRepository) GetByShareToken(ctx context.Context, token string) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE share_token = $1`
	return scanAlbum(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var albums []*models.Album
	for rows.Next() {
		album := &models.Album{}
		if err := rows.Scan(&album.ID, &album.UserID, &album.Title, &album.Description,
			&album.ShareToken, &album.IsShared, &album.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return albums, nil
}

func (r *PostgresRepository) Update(ctx context.Context, album *models.Album) error {
	query := `
		UPDATE albums
		SET title = $1, description = $2, share_token = $3, is_shared = $4
		WHERE id = $5
	`
	if _, err := r.db.ExecContext(ctx, query,
		album.Title, album.Description, album.ShareToken, album.IsShared, album.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func scanAlbum(row *sql.Row) (*models.Album, error) {
	album := &models.Album{}
	err := row.Scan(&album.ID, &album.UserID, &album.Title, &album.Description,
		&album.ShareToken, &album.IsShared, &album.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return album, nil
}
