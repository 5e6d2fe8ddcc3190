package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dbx"
	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/models"
	albumsrepo "github.com/dmitrijs2005/photovault/internal/server/repositories/albums"
	auditlogrepo "github.com/dmitrijs2005/photovault/internal/server/repositories/auditlog"
	photosrepo "github.com/dmitrijs2005/photovault/internal/server/repositories/photos"
	refreshtokensrepo "github.com/dmitrijs2005/photovault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/photovault/internal/server/storage"
	usersrepo "github.com/dmitrijs2005/photovault/internal/server/repositories/users"
)

// -------- test fakes --------

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUsersRepo struct {
	user      *models.User
	getErr    error
	createErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = 1
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.user, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.user, nil
}

type fakeAlbumsRepo struct {
	album     *models.Album
	getErr    error
	byToken   *models.Album
	tokenErr  error
	list      []*models.Album
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	updated []*models.Album
	deleted []int64
}

func (f *fakeAlbumsRepo) Create(ctx context.Context, a *models.Album) (*models.Album, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	a.ID = 5
	return a, nil
}

func (f *fakeAlbumsRepo) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Album, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.album, nil
}

func (f *fakeAlbumsRepo) GetByShareToken(ctx context.Context, token string) (*models.Album, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return f.byToken, nil
}

func (f *fakeAlbumsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Album, error) {
	return f.list, f.listErr
}

func (f *fakeAlbumsRepo) Update(ctx context.Context, a *models.Album) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, a)
	return nil
}

func (f *fakeAlbumsRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePhotosRepo struct {
	photo     *models.Photo
	getErr    error
	list      []*models.Photo
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	created []*models.Photo
	updated []*models.Photo
	deleted []int64
}

func (f *fakePhotosRepo) Create(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = 10
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePhotosRepo) GetByIDAndOwner(ctx context.Context, id, ownerID int64) (*models.Photo, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.photo, nil
}

func (f *fakePhotosRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Photo, error) {
	return f.list, f.listErr
}

func (f *fakePhotosRepo) ListByAlbum(ctx context.Context, albumID int64) ([]*models.Photo, error) {
	return f.list, f.listErr
}

func (f *fakePhotosRepo) ListUnassigned(ctx context.Context, ownerID int64) ([]*models.Photo, error) {
	return f.list, f.listErr
}

func (f *fakePhotosRepo) Update(ctx context.Context, p *models.Photo) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakePhotosRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAuditLogRepo struct {
	createErr error
	entries   []*models.AuditEntry
	entered   chan struct{}
	release   chan struct{}
}

func (f *fakeAuditLogRepo) Create(ctx context.Context, entry *models.AuditEntry) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeRefreshTokensRepo struct {
	findOut   *models.RefreshToken
	findErr   error
	createErr error
	deleteErr error
}

func (f *fakeRefreshTokensRepo) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	return f.createErr
}

func (f *fakeRefreshTokensRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshTokensRepo) Delete(ctx context.Context, token string) error {
	return f.deleteErr
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	a  *fakeAlbumsRepo
	p  *fakePhotosRepo
	al *fakeAuditLogRepo
	r  *fakeRefreshTokensRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Albums(db dbx.DBTX) albumsrepo.Repository     { return m.a }
func (m *fakeRepoManager) Photos(db dbx.DBTX) photosrepo.Repository     { return m.p }
func (m *fakeRepoManager) AuditLog(db dbx.DBTX) auditlogrepo.Repository { return m.al }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository {
	return m.r
}

// fakeGateway mimics the blob store: it validates like the real gateway and
// records every call.
type fakeGateway struct {
	putErr     error
	putCalls   int
	lastPutKey string

	delErr  error
	deleted []string

	presignErr error
}

func (f *fakeGateway) Put(ctx context.Context, ownerID int64, upload storage.Upload) (string, error) {
	if err := storage.ValidateUpload(upload); err != nil {
		return "", err
	}
	f.putCalls++
	if f.putErr != nil {
		return "", f.putErr
	}
	f.lastPutKey = storage.NewStorageKey(ownerID, upload.Filename)
	return f.lastPutKey, nil
}

func (f *fakeGateway) Delete(ctx context.Context, storageKey string) error {
	f.deleted = append(f.deleted, storageKey)
	return f.delErr
}

func (f *fakeGateway) Presign(ctx context.Context, storageKey string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://signed.example/" + storageKey, nil
}

type fakeRecorder struct {
	entries []*models.AuditEntry
}

func (f *fakeRecorder) Record(entry *models.AuditEntry) {
	f.entries = append(f.entries, entry)
}

func testUser() *models.User {
	return &models.User{ID: 1, Email: "alice@example.com", Name: "Alice", IsActive: true}
}

// -------- upload protocol --------

func TestPhotoUpload_Success_NoAlbum(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{user: testUser()}, a: &fakeAlbumsRepo{}, p: &fakePhotosRepo{}}
	gw := &fakeGateway{}
	rec := &fakeRecorder{}
	s := NewPhotoService(db, rm, gw, rec, testLogger())

	view, err := s.Upload(context.Background(), 1, UploadCommand{
		Upload: storage.Upload{Data: []byte{1, 2, 3}, ContentType: "image/jpeg", Filename: "cat.jpg"},
	})
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	if view.Photo.ID != 10 || view.Photo.FileSize != 3 || view.Photo.AlbumID != nil {
		t.Fatalf("unexpected photo: %+v", view.Photo)
	}
	if !strings.HasPrefix(view.DownloadURL, "https://signed.example/users/1/photos/") {
		t.Fatalf("unexpected download url: %s", view.DownloadURL)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("want 1 audit entry, got %d", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Action != models.AuditPhotoUpload || e.Detail != "file=cat.jpg, size=3 bytes, album=none" {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestPhotoUpload_Success_WithAlbum(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	albumID := int64(5)
	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		a: &fakeAlbumsRepo{album: &models.Album{ID: 5, UserID: 1, Title: "Trip"}},
		p: &fakePhotosRepo{},
	}
	rec := &fakeRecorder{}
	s := NewPhotoService(db, rm, &fakeGateway{}, rec, testLogger())

	view, err := s.Upload(context.Background(), 1, UploadCommand{
		Upload:  storage.Upload{Data: []byte{1, 2}, ContentType: "image/png", Filename: "a.png"},
		AlbumID: &albumID,
	})
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if view.Photo.AlbumID == nil || *view.Photo.AlbumID != 5 {
		t.Fatalf("photo not linked to album: %+v", view.Photo)
	}
	if rec.entries[0].Detail != "file=a.png, size=2 bytes, album=Trip" {
		t.Fatalf("unexpected audit detail: %s", rec.entries[0].Detail)
	}
}

func TestPhotoUpload_AlbumNotOwned(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	albumID := int64(5)
	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		a: &fakeAlbumsRepo{getErr: common.ErrorNotFound},
		p: &fakePhotosRepo{},
	}
	gw := &fakeGateway{}
	s := NewPhotoService(db, rm, gw, &fakeRecorder{}, testLogger())

	_, err := s.Upload(context.Background(), 1, UploadCommand{
		Upload:  storage.Upload{Data: []byte{1}, ContentType: "image/png", Filename: "a.png"},
		AlbumID: &albumID,
	})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if gw.putCalls != 0 {
		t.Fatal("rejected upload must not write a blob")
	}
}

func TestPhotoUpload_EmptyFileRejectedBeforeBlobWrite(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{u: &fakeUsersRepo{user: testUser()}, a: &fakeAlbumsRepo{}, p: &fakePhotosRepo{}}
	gw := &fakeGateway{}
	s := NewPhotoService(db, rm, gw, &fakeRecorder{}, testLogger())

	_, err := s.Upload(context.Background(), 1, UploadCommand{
		Upload: storage.Upload{Data: nil, ContentType: "image/png", Filename: "a.png"},
	})
	if !errors.Is(err, common.ErrorInvalidInput) {
		t.Fatalf("want ErrorInvalidInput, got %v", err)
	}
	if gw.putCalls != 0 || len(rm.p.created) != 0 {
		t.Fatal("rejected upload must touch neither store")
	}
}

func TestPhotoUpload_CommitFailureCleansUpBlob(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		a: &fakeAlbumsRepo{},
		p: &fakePhotosRepo{createErr: errBoom{}},
	}
	gw := &fakeGateway{}
	rec := &fakeRecorder{}
	s := NewPhotoService(db, rm, gw, rec, testLogger())

	_, err := s.Upload(context.Background(), 1, UploadCommand{
		Upload: storage.Upload{Data: []byte{1}, ContentType: "image/png", Filename: "a.png"},
	})
	if err == nil || !regexp.MustCompile(`error creating photo: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped commit error, got %v", err)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != gw.lastPutKey {
		t.Fatalf("orphaned blob not cleaned up: %v", gw.deleted)
	}
	if len(rec.entries) != 0 {
		t.Fatal("failed upload must not be audited as a success")
	}
}

func TestPhotoUpload_CleanupFailureDoesNotMaskCommitError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		a: &fakeAlbumsRepo{},
		p: &fakePhotosRepo{createErr: errBoom{}},
	}
	gw := &fakeGateway{delErr: errors.New("also down")}
	s := NewPhotoService(db, rm, gw, &fakeRecorder{}, testLogger())

	_, err := s.Upload(context.Background(), 1, UploadCommand{
		Upload: storage.Upload{Data: []byte{1}, ContentType: "image/png", Filename: "a.png"},
	})
	if err == nil || !regexp.MustCompile(`error creating photo: .*boom`).MatchString(err.Error()) {
		t.Fatalf("caller must always see the commit error, got %v", err)
	}
}

// -------- delete protocol --------

func TestPhotoDelete_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		p: &fakePhotosRepo{photo: &models.Photo{
			ID: 10, UserID: 1, OriginalFilename: "cat.jpg",
			StorageKey: "users/1/photos/k.jpg", FileSize: 3,
		}},
	}
	gw := &fakeGateway{}
	rec := &fakeRecorder{}
	s := NewPhotoService(db, rm, gw, rec, testLogger())

	if err := s.Delete(context.Background(), 1, 10, nil); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if len(gw.deleted) != 1 || gw.deleted[0] != "users/1/photos/k.jpg" {
		t.Fatalf("blob not deleted: %v", gw.deleted)
	}
	if len(rm.p.deleted) != 1 || rm.p.deleted[0] != 10 {
		t.Fatalf("record not deleted: %v", rm.p.deleted)
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != models.AuditPhotoDelete {
		t.Fatalf("unexpected audit entries: %+v", rec.entries)
	}
	if rec.entries[0].Detail != "file=cat.jpg, size=3 bytes" {
		t.Fatalf("unexpected audit detail: %s", rec.entries[0].Detail)
	}
}

func TestPhotoDelete_BlobFailureKeepsRecord(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		p: &fakePhotosRepo{photo: &models.Photo{ID: 10, UserID: 1, StorageKey: "k", OriginalFilename: "a.png"}},
	}
	gw := &fakeGateway{delErr: errBoom{}}
	s := NewPhotoService(db, rm, gw, &fakeRecorder{}, testLogger())

	err := s.Delete(context.Background(), 1, 10, nil)
	if err == nil {
		t.Fatal("expected blob delete error")
	}
	if len(rm.p.deleted) != 0 {
		t.Fatal("record must survive a failed blob delete")
	}
}

func TestPhotoDelete_NotOwned(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		u: &fakeUsersRepo{user: testUser()},
		p: &fakePhotosRepo{getErr: common.ErrorNotFound},
	}
	gw := &fakeGateway{}
	rec := &fakeRecorder{}
	s := NewPhotoService(db, rm, gw, rec, testLogger())

	err := s.Delete(context.Background(), 1, 99, nil)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if len(gw.deleted) != 0 || len(rec.entries) != 0 {
		t.Fatal("unauthorized delete must have no side effects")
	}
}

// -------- partial update --------

func TestPhotoUpdate_AlbumAndDetachMutuallyExclusive(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	albumID := int64(5)
	rm := &fakeRepoManager{a: &fakeAlbumsRepo{}, p: &fakePhotosRepo{}}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	_, err := s.Update(context.Background(), 1, 10, UpdateCommand{AlbumID: &albumID, DetachAlbum: true})
	if !errors.Is(err, common.ErrorInvalidInput) {
		t.Fatalf("want ErrorInvalidInput, got %v", err)
	}
}

func TestPhotoUpdate_Detach(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	albumID := int64(5)
	rm := &fakeRepoManager{
		a: &fakeAlbumsRepo{},
		p: &fakePhotosRepo{photo: &models.Photo{ID: 10, UserID: 1, AlbumID: &albumID, StorageKey: "k"}},
	}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	view, err := s.Update(context.Background(), 1, 10, UpdateCommand{DetachAlbum: true})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if view.Photo.AlbumID != nil {
		t.Fatalf("album link not cleared: %+v", view.Photo)
	}
	if len(rm.p.updated) != 1 {
		t.Fatalf("update not persisted: %v", rm.p.updated)
	}
}

func TestPhotoUpdate_MoveChecksAlbumOwnership(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	albumID := int64(5)
	rm := &fakeRepoManager{
		a: &fakeAlbumsRepo{getErr: common.ErrorNotFound},
		p: &fakePhotosRepo{photo: &models.Photo{ID: 10, UserID: 1, StorageKey: "k"}},
	}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	_, err := s.Update(context.Background(), 1, 10, UpdateCommand{AlbumID: &albumID})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
	if len(rm.p.updated) != 0 {
		t.Fatal("move into a foreign album must not be persisted")
	}
}

func TestPhotoUpdate_NilFieldsKeepValues(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	title := "old title"
	desc := "old desc"
	newTitle := "new title"
	rm := &fakeRepoManager{
		a: &fakeAlbumsRepo{},
		p: &fakePhotosRepo{photo: &models.Photo{ID: 10, UserID: 1, StorageKey: "k", Title: &title, Description: &desc}},
	}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	view, err := s.Update(context.Background(), 1, 10, UpdateCommand{Title: &newTitle})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if *view.Photo.Title != "new title" || *view.Photo.Description != "old desc" {
		t.Fatalf("unexpected fields: %+v", view.Photo)
	}
}

// -------- reads --------

func TestPhotoGet_FreshGrantPerRead(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{p: &fakePhotosRepo{photo: &models.Photo{ID: 10, UserID: 1, StorageKey: "users/1/photos/k.jpg"}}}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	view, err := s.Get(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if view.DownloadURL != "https://signed.example/users/1/photos/k.jpg" {
		t.Fatalf("unexpected url: %s", view.DownloadURL)
	}
}

func TestPhotoList_GrantsForEveryItem(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{p: &fakePhotosRepo{list: []*models.Photo{
		{ID: 1, StorageKey: "a"}, {ID: 2, StorageKey: "b"},
	}}}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	views, err := s.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(views) != 2 || views[0].DownloadURL == "" || views[1].DownloadURL == "" {
		t.Fatalf("unexpected views: %+v", views)
	}
}

func TestPhotoList_PresignFailureFailsTheRead(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{p: &fakePhotosRepo{list: []*models.Photo{{ID: 1, StorageKey: "a"}}}}
	gw := &fakeGateway{presignErr: common.ErrorPresignFailed}
	s := NewPhotoService(db, rm, gw, &fakeRecorder{}, testLogger())

	_, err := s.List(context.Background(), 1)
	if !errors.Is(err, common.ErrorPresignFailed) {
		t.Fatalf("want ErrorPresignFailed, got %v", err)
	}
}

func TestPhotoListByAlbum_ChecksOwnership(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := &fakeRepoManager{
		a: &fakeAlbumsRepo{getErr: common.ErrorNotFound},
		p: &fakePhotosRepo{list: []*models.Photo{{ID: 1, StorageKey: "a"}}},
	}
	s := NewPhotoService(db, rm, &fakeGateway{}, &fakeRecorder{}, testLogger())

	_, err := s.ListByAlbum(context.Background(), 1, 5)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
