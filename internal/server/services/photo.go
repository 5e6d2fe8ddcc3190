package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photovault/internal/server/storage"
)

// PhotoView is a photo record paired with a freshly minted download grant.
// Grants are never cached or reused across responses, so revoking the
// underlying object takes effect on the very next read.
type PhotoView struct {
	Photo       *models.Photo
	DownloadURL string
}

// UploadCommand is the validated upload request handed to the coordinator by
// the routing layer.
type UploadCommand struct {
	Upload      storage.Upload
	AlbumID     *int64
	Title       *string
	Description *string
	ClientIP    *string
}

// UpdateCommand carries a partial photo update. Nil text fields mean "no
// change". AlbumID moves the photo into another album owned by the caller;
// DetachAlbum explicitly clears the album link. Supplying both is invalid.
type UpdateCommand struct {
	Title       *string
	Description *string
	AlbumID     *int64
	DetachAlbum bool
}

// PhotoService coordinates the two-phase write/delete across the blob store
// gateway and the metadata repository. It owns neither store; it only
// sequences operations against both.
type PhotoService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.Gateway
	audit       Recorder
	logger      logging.Logger
}

func NewPhotoService(db *sql.DB, m repomanager.RepositoryManager, store storage.Gateway, audit Recorder, logger logging.Logger) *PhotoService {
	return &PhotoService{
		db:          db,
		repomanager: m,
		store:       store,
		audit:       audit,
		logger:      logger.With("module", "photos"),
	}
}

// Upload runs the upload protocol: resolve and authorize the owner and the
// target album, write the blob, commit the metadata record in a single
// transaction, then mint a download grant and fire the audit event.
//
// Ordering matters: every check that can be done without touching the blob
// store happens first, so a request that will be rejected never writes an
// unreferenced blob. A metadata-commit failure after a successful blob write
// leaves an orphaned blob; one best-effort delete is attempted and its
// failure only logged, so the caller always sees the original commit error.
func (s *PhotoService) Upload(ctx context.Context, ownerID int64, cmd UploadCommand) (*PhotoView, error) {
	userRepo := s.repomanager.Users(s.db)
	albumRepo := s.repomanager.Albums(s.db)

	user, err := userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var album *models.Album
	if cmd.AlbumID != nil {
		album, err = albumRepo.GetByIDAndOwner(ctx, *cmd.AlbumID, ownerID)
		if err != nil {
			return nil, err
		}
	}

	storageKey, err := s.store.Put(ctx, ownerID, cmd.Upload)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		UserID:           ownerID,
		AlbumID:          cmd.AlbumID,
		OriginalFilename: cmd.Upload.Filename,
		StorageKey:       storageKey,
		ContentType:      cmd.Upload.ContentType,
		FileSize:         int64(len(cmd.Upload.Data)),
		Title:            cmd.Title,
		Description:      cmd.Description,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repomanager.Photos(tx).Create(ctx, photo)
		return err
	})
	if err != nil {
		// The blob is now orphaned. Try to remove it, but never let that
		// mask the commit error; the reconciliation sweep catches leftovers.
		if delErr := s.store.Delete(ctx, storageKey); delErr != nil {
			s.logger.Warn(ctx, "orphaned blob cleanup failed",
				"storage_key", storageKey, "error", delErr.Error())
		}
		return nil, fmt.Errorf("error creating photo: %w", err)
	}

	url, err := s.store.Presign(ctx, storageKey)
	if err != nil {
		return nil, err
	}

	albumTitle := "none"
	if album != nil {
		albumTitle = album.Title
	}
	detail := fmt.Sprintf("file=%s, size=%d bytes, album=%s",
		photo.OriginalFilename, photo.FileSize, albumTitle)
	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     models.AuditPhotoUpload,
		TargetType: "photo",
		TargetID:   &photo.ID,
		Detail:     detail,
		IPAddress:  cmd.ClientIP,
	})

	s.logger.Info(ctx, "photo uploaded", "photo_id", photo.ID, "user_id", ownerID, "size", photo.FileSize)

	return &PhotoView{Photo: photo, DownloadURL: url}, nil
}

// Delete runs the delete protocol: authorize, audit before the destructive
// action (the filename and size are about to become unrecoverable), remove
// the blob, then remove the record. A blob-delete failure aborts with the
// record intact: a dangling record can be retried by the user, whereas a
// blob without a record can only be found by an offline sweep.
func (s *PhotoService) Delete(ctx context.Context, ownerID, photoID int64, clientIP *string) error {
	userRepo := s.repomanager.Users(s.db)
	photoRepo := s.repomanager.Photos(s.db)

	user, err := userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}

	photo, err := photoRepo.GetByIDAndOwner(ctx, photoID, ownerID)
	if err != nil {
		return err
	}

	detail := fmt.Sprintf("file=%s, size=%d bytes", photo.OriginalFilename, photo.FileSize)
	s.audit.Record(&models.AuditEntry{
		UserID:     &user.ID,
		UserEmail:  &user.Email,
		Action:     models.AuditPhotoDelete,
		TargetType: "photo",
		TargetID:   &photo.ID,
		Detail:     detail,
		IPAddress:  clientIP,
	})

	if err := s.store.Delete(ctx, photo.StorageKey); err != nil {
		return err
	}

	if err := photoRepo.Delete(ctx, photo.ID); err != nil {
		return fmt.Errorf("error deleting photo: %w", err)
	}

	s.logger.Info(ctx, "photo deleted", "photo_id", photoID, "user_id", ownerID)
	return nil
}

// Update applies a metadata-only partial update; there is no blob
// interaction. Nil title/description leave the stored values unchanged.
func (s *PhotoService) Update(ctx context.Context, ownerID, photoID int64, cmd UpdateCommand) (*PhotoView, error) {
	if cmd.AlbumID != nil && cmd.DetachAlbum {
		return nil, fmt.Errorf("%w: albumId and detachAlbum are mutually exclusive", common.ErrorInvalidInput)
	}

	albumRepo := s.repomanager.Albums(s.db)
	photoRepo := s.repomanager.Photos(s.db)

	photo, err := photoRepo.GetByIDAndOwner(ctx, photoID, ownerID)
	if err != nil {
		return nil, err
	}

	if cmd.AlbumID != nil {
		if _, err := albumRepo.GetByIDAndOwner(ctx, *cmd.AlbumID, ownerID); err != nil {
			return nil, err
		}
		photo.AlbumID = cmd.AlbumID
	}
	if cmd.DetachAlbum {
		photo.AlbumID = nil
	}
	if cmd.Title != nil {
		photo.Title = cmd.Title
	}
	if cmd.Description != nil {
		photo.Description = cmd.Description
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Photos(tx).Update(ctx, photo)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating photo: %w", err)
	}

	url, err := s.store.Presign(ctx, photo.StorageKey)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "photo updated", "photo_id", photoID, "user_id", ownerID)
	return &PhotoView{Photo: photo, DownloadURL: url}, nil
}

// Get returns one owned photo with a fresh download grant.
func (s *PhotoService) Get(ctx context.Context, ownerID, photoID int64) (*PhotoView, error) {
	photo, err := s.repomanager.Photos(s.db).GetByIDAndOwner(ctx, photoID, ownerID)
	if err != nil {
		return nil, err
	}
	return s.withGrant(ctx, photo)
}

// List returns the owner's photos, newest first, each with a fresh grant.
func (s *PhotoService) List(ctx context.Context, ownerID int64) ([]*PhotoView, error) {
	photos, err := s.repomanager.Photos(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.withGrants(ctx, photos)
}

// ListByAlbum returns the photos of an album owned by the caller.
func (s *PhotoService) ListByAlbum(ctx context.Context, ownerID, albumID int64) ([]*PhotoView, error) {
	if _, err := s.repomanager.Albums(s.db).GetByIDAndOwner(ctx, albumID, ownerID); err != nil {
		return nil, err
	}
	photos, err := s.repomanager.Photos(s.db).ListByAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	return s.withGrants(ctx, photos)
}

// ListUnassigned returns the owner's photos not linked to any album.
func (s *PhotoService) ListUnassigned(ctx context.Context, ownerID int64) ([]*PhotoView, error) {
	photos, err := s.repomanager.Photos(s.db).ListUnassigned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.withGrants(ctx, photos)
}

func (s *PhotoService) withGrant(ctx context.Context, photo *models.Photo) (*PhotoView, error) {
	url, err := s.store.Presign(ctx, photo.StorageKey)
	if err != nil {
		return nil, err
	}
	return &PhotoView{Photo: photo, DownloadURL: url}, nil
}

func (s *PhotoService) withGrants(ctx context.Context, photos []*models.Photo) ([]*PhotoView, error) {
	views := make([]*PhotoView, 0, len(photos))
	for _, photo := range photos {
		view, err := s.withGrant(ctx, photo)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
