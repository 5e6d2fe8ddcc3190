package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photovault/internal/server/storage"
)

// AlbumService manages albums and their sharing lifecycle. The share token
// is minted once, on first activation, and stays stable across
// disable/re-enable cycles.
type AlbumService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.Gateway
	audit       Recorder
	logger      logging.Logger
}

func NewAlbumService(db *sql.DB, m repomanager.RepositoryManager, store storage.Gateway, audit Recorder, logger logging.Logger) *AlbumService {
	return &AlbumService{
		db:          db,
		repomanager: m,
		store:       store,
		audit:       audit,
		logger:      logger.With("module", "albums"),
	}
}

// Create inserts a new album for ownerID.
func (s *AlbumService) Create(ctx context.Context, ownerID int64, title string, description *string, clientIP *string) (*models.Album, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	album := &models.Album{UserID: ownerID, Title: title, Description: description}
	if _, err := s.repomanager.Albums(s.db).Create(ctx, album); err != nil {
		return nil, fmt.Errorf("error creating album: %w", err)
	}

	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     models.AuditAlbumCreate,
		TargetType: "album",
		TargetID:   &album.ID,
		Detail:     fmt.Sprintf("title=%s", album.Title),
		IPAddress:  clientIP,
	})

	s.logger.Info(ctx, "album created", "album_id", album.ID, "user_id", ownerID)
	return album, nil
}

// List returns the owner's albums, newest first.
func (s *AlbumService) List(ctx context.Context, ownerID int64) ([]*models.Album, error) {
	return s.repomanager.Albums(s.db).ListByOwner(ctx, ownerID)
}

// Get returns one owned album.
func (s *AlbumService) Get(ctx context.Context, ownerID, albumID int64) (*models.Album, error) {
	return s.repomanager.Albums(s.db).GetByIDAndOwner(ctx, albumID, ownerID)
}

// Update applies a partial update: a nil or blank title is ignored, a nil
// description means "no change".
func (s *AlbumService) Update(ctx context.Context, ownerID, albumID int64, title *string, description *string) (*models.Album, error) {
	albumRepo := s.repomanager.Albums(s.db)

	album, err := albumRepo.GetByIDAndOwner(ctx, albumID, ownerID)
	if err != nil {
		return nil, err
	}

	if title != nil && *title != "" {
		album.Title = *title
	}
	if description != nil {
		album.Description = description
	}

	if err := albumRepo.Update(ctx, album); err != nil {
		return nil, fmt.Errorf("error updating album: %w", err)
	}

	s.logger.Info(ctx, "album updated", "album_id", albumID, "user_id", ownerID)
	return album, nil
}

// Delete removes an owned album. Its photos survive and are detached by the
// schema.
func (s *AlbumService) Delete(ctx context.Context, ownerID, albumID int64, clientIP *string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return err
	}

	albumRepo := s.repomanager.Albums(s.db)
	album, err := albumRepo.GetByIDAndOwner(ctx, albumID, ownerID)
	if err != nil {
		return err
	}

	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     models.AuditAlbumDelete,
		TargetType: "album",
		TargetID:   &album.ID,
		Detail:     fmt.Sprintf("title=%s", album.Title),
		IPAddress:  clientIP,
	})

	if err := albumRepo.Delete(ctx, album.ID); err != nil {
		return fmt.Errorf("error deleting album: %w", err)
	}

	s.logger.Info(ctx, "album deleted", "album_id", albumID, "user_id", ownerID)
	return nil
}

// EnableSharing turns on the sharing flag. The token is generated only if
// the album never had one; enabling twice, or re-enabling after a disable,
// never rotates an existing token.
func (s *AlbumService) EnableSharing(ctx context.Context, ownerID, albumID int64, clientIP *string) (*models.Album, error) {
	return s.setSharing(ctx, ownerID, albumID, true, models.AuditAlbumShareEnable, clientIP)
}

// DisableSharing clears the sharing flag but keeps the token for a potential
// re-enable.
func (s *AlbumService) DisableSharing(ctx context.Context, ownerID, albumID int64, clientIP *string) (*models.Album, error) {
	return s.setSharing(ctx, ownerID, albumID, false, models.AuditAlbumShareDisable, clientIP)
}

func (s *AlbumService) setSharing(ctx context.Context, ownerID, albumID int64, shared bool, action models.AuditAction, clientIP *string) (*models.Album, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var album *models.Album
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		albumRepo := s.repomanager.Albums(tx)

		album, err = albumRepo.GetByIDAndOwner(ctx, albumID, ownerID)
		if err != nil {
			return err
		}

		if shared && album.ShareToken == nil {
			token := uuid.New().String()
			album.ShareToken = &token
		}
		album.IsShared = shared

		return albumRepo.Update(ctx, album)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     action,
		TargetType: "album",
		TargetID:   &album.ID,
		Detail:     fmt.Sprintf("title=%s", album.Title),
		IPAddress:  clientIP,
	})

	s.logger.Info(ctx, "album sharing changed", "album_id", albumID, "user_id", ownerID, "shared", shared)
	return album, nil
}

// GetShared resolves an album by its share token for an anonymous caller.
// Holding a token for an album whose sharing is off yields Forbidden, not
// NotFound: the token proves the album exists, but grants nothing while
// sharing is disabled.
func (s *AlbumService) GetShared(ctx context.Context, shareToken string) (*models.Album, error) {
	album, err := s.repomanager.Albums(s.db).GetByShareToken(ctx, shareToken)
	if err != nil {
		return nil, err
	}
	if !album.IsShared {
		return nil, fmt.Errorf("%w: album is not shared", common.ErrorForbidden)
	}
	return album, nil
}

// ListSharedPhotos returns the photos of a shared album, each with a fresh
// download grant, for an anonymous caller holding the share token.
func (s *AlbumService) ListSharedPhotos(ctx context.Context, shareToken string) ([]*PhotoView, error) {
	album, err := s.GetShared(ctx, shareToken)
	if err != nil {
		return nil, err
	}

	photos, err := s.repomanager.Photos(s.db).ListByAlbum(ctx, album.ID)
	if err != nil {
		return nil, err
	}

	views := make([]*PhotoView, 0, len(photos))
	for _, photo := range photos {
		url, err := s.store.Presign(ctx, photo.StorageKey)
		if err != nil {
			return nil, err
		}
		views = append(views, &PhotoView{Photo: photo, DownloadURL: url})
	}
	return views, nil
}
