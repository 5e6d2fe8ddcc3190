package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/models"
)

type albumCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type albumUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req albumCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	album, err := s.albums.Create(r.Context(), ownerID, req.Title, req.Description, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, toAlbumResponse(album))
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	albums, err := s.albums.List(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toAlbumResponses(albums))
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	albumID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	album, err := s.albums.Get(r.Context(), ownerID, albumID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toAlbumResponse(album))
}

func (s *Server) handleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	albumID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	var req albumUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	album, err := s.albums.Update(r.Context(), ownerID, albumID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toAlbumResponse(album))
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	albumID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	if err := s.albums.Delete(r.Context(), ownerID, albumID, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	albumID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	views, err := s.photos.ListByAlbum(r.Context(), ownerID, albumID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toPhotoResponses(views))
}

func (s *Server) handleEnableSharing(w http.ResponseWriter, r *http.Request) {
	s.handleSharing(w, r, true)
}

func (s *Server) handleDisableSharing(w http.ResponseWriter, r *http.Request) {
	s.handleSharing(w, r, false)
}

func (s *Server) handleSharing(w http.ResponseWriter, r *http.Request, enable bool) {
	ownerID, ok := userID(r)
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}
	albumID, err := pathID(r)
	if err != nil {
		writeError(w, common.ErrorNotFound)
		return
	}

	var album *models.Album
	if enable {
		album, err = s.albums.EnableSharing(r.Context(), ownerID, albumID, clientIP(r))
	} else {
		album, err = s.albums.DisableSharing(r.Context(), ownerID, albumID, clientIP(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toAlbumResponse(album))
}

func (s *Server) handleSharedAlbum(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	album, err := s.albums.GetShared(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toAlbumResponse(album))
}

func (s *Server) handleSharedAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	views, err := s.albums.ListSharedPhotos(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toPhotoResponses(views))
}
