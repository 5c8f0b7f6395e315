package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pollenjp/gameserver/internal/users"
)

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "user_create") {
		return
	}
	var req userCreateRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserName == "" {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	token, err := s.users.Create(r.Context(), req.UserName, req.LeaderCardID)
	if err != nil {
		s.log.Error("user create failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusOK, userCreateResponse{UserToken: token})
}

func (s *Server) handleUserMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:           user.ID,
		Name:         user.Name,
		LeaderCardID: user.LeaderCardID,
	})
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credential")
		return
	}
	var req userCreateRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserName == "" {
		writeError(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := s.users.Update(r.Context(), token, req.UserName, req.LeaderCardID); err != nil {
		if errors.Is(err, users.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid credential")
			return
		}
		s.log.Error("user update failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, emptyResponse{})
}
