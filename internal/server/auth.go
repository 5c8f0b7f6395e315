package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pollenjp/gameserver/internal/users"
)

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme match is case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate resolves the request's bearer token to a user, writing the
// error response itself on failure. A malformed header and an unknown token
// produce the same outward signal; the distinction is not leaked.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (users.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credential")
		return users.User{}, false
	}
	user, err := s.users.ByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credential")
			return users.User{}, false
		}
		s.log.Error("token lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return users.User{}, false
	}
	return user, true
}
