package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/photovault/internal/common"
)

type signupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" || req.Password == "" {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	result, err := s.users.Register(r.Context(), req.Email, req.Name, req.Password, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCreated(w, toAuthResponse(result))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	result, err := s.users.Login(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, toAuthResponse(result))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, common.ErrorInvalidInput)
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
