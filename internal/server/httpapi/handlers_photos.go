package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/services"
	"github.com/dmitrijs2005/photovault/internal/server/storage"
)

// uploadBodyLimit caps the multipart request body: the object ceiling plus
// slack for the other form fields. The gateway still enforces the exact
// object-size rule.
const uploadBodyLimit = storage.MaxUploadSize + 1<<20

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, common.ErrorPayloadTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	cmd := services.UploadCommand{
		Upload: storage.Upload{
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
			Filename:    header.Filename,
		},
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		ClientIP:    clientIP(r),
	}
	if albumID := formValue(r, "albumId"); albumID != nil {
		id, err := strconv.ParseInt(*albumID, 10, 64)
		if err != nil {
			writeError(w, common.ErrorInvalidInput)
			return
		}
		cmd.AlbumID = &id
	}

	view, err := s.photos.Upload(r.Context(), ownerID, cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, toPhotoResponse(view))
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	views, err := s.photos.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toPhotoResponses(views))
}

func (s *Server) handleListUnassignedPhotos(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	views, err := s.photos.ListUnassigned(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toPhotoResponses(views))
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	photoID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	view, err := s.photos.Get(r.Context(), ownerID, photoID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toPhotoResponse(view))
}

type photoUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AlbumID     *int64  `json:"albumId"`
	DetachAlbum bool    `json:"detachAlbum"`
}

func (s *Server) handleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	photoID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	var req photoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	view, err := s.photos.Update(r.Context(), ownerID, photoID, services.UpdateCommand{
		Title:       req.Title,
		Description: req.Description,
		AlbumID:     req.AlbumID,
		DetachAlbum: req.DetachAlbum,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toPhotoResponse(view))
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	photoID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	if err := s.photos.Delete(r.Context(), ownerID, photoID, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// formValue returns a pointer to the named multipart form value, or nil when
// the field is absent.
func formValue(r *http.Request, name string) *string {
	values, ok := r.MultipartForm.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
