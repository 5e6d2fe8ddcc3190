package httpapi

import (
	"time"

	"github.com/dmitrijs2005/photovault/internal/server/models"
	"github.com/dmitrijs2005/photovault/internal/server/services"
)

type authResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       int64  `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

func toAuthResponse(result *services.AuthResult) authResponse {
	return authResponse{
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		UserID:       result.User.ID,
		Email:        result.User.Email,
		Name:         result.User.Name,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type photoResponse struct {
	ID               int64     `json:"id"`
	AlbumID          *int64    `json:"albumId"`
	OriginalFilename string    `json:"originalFilename"`
	ContentType      string    `json:"contentType"`
	FileSize         int64     `json:"fileSize"`
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	DownloadURL      string    `json:"downloadUrl"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toPhotoResponse(view *services.PhotoView) photoResponse {
	return photoResponse{
		ID:               view.Photo.ID,
		AlbumID:          view.Photo.AlbumID,
		OriginalFilename: view.Photo.OriginalFilename,
		ContentType:      view.Photo.ContentType,
		FileSize:         view.Photo.FileSize,
		Title:            view.Photo.Title,
		Description:      view.Photo.Description,
		DownloadURL:      view.DownloadURL,
		CreatedAt:        view.Photo.CreatedAt,
	}
}

func toPhotoResponses(views []*services.PhotoView) []photoResponse {
	result := make([]photoResponse, 0, len(views))
	for _, view := range views {
		result = append(result, toPhotoResponse(view))
	}
	return result
}

type albumResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsShared    bool      `json:"isShared"`
	ShareToken  *string   `json:"shareToken"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toAlbumResponse(album *models.Album) albumResponse {
	return albumResponse{
		ID:          album.ID,
		Title:       album.Title,
		Description: album.Description,
		IsShared:    album.IsShared,
		ShareToken:  album.ShareToken,
		CreatedAt:   album.CreatedAt,
	}
}

func toAlbumResponses(albums []*models.Album) []albumResponse {
	result := make([]albumResponse, 0, len(albums))
	for _, album := range albums {
		result = append(result, toAlbumResponse(album))
	}
	return result
}
