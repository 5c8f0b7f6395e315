// Package server is the HTTP presentation layer. It translates the wire
// protocol into calls against the user directory and the room registry; all
// business rules live in those packages.
package server

import (
	"log/slog"
	"net/http"

	"github.com/pollenjp/gameserver/internal/config"
	"github.com/pollenjp/gameserver/internal/rooms"
	"github.com/pollenjp/gameserver/internal/users"
)

type Server struct {
	users   *users.Directory
	rooms   *rooms.Registry
	cfg     config.Config
	log     *slog.Logger
	limiter *rateLimiter
}

func New(userDir *users.Directory, roomReg *rooms.Registry, cfg config.Config, logger *slog.Logger) *Server {
	return &Server{
		users:   userDir,
		rooms:   roomReg,
		cfg:     cfg,
		log:     logger,
		limiter: newRateLimiter(defaultRateLimit, defaultRateWindow),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/create", s.handleUserCreate)
	mux.HandleFunc("GET /user/me", s.handleUserMe)
	mux.HandleFunc("POST /user/update", s.handleUserUpdate)
	mux.HandleFunc("POST /room/create", s.handleRoomCreate)
	mux.HandleFunc("POST /room/list", s.handleRoomList)
	mux.HandleFunc("POST /room/join", s.handleRoomJoin)
	mux.HandleFunc("POST /room/wait", s.handleRoomWait)
	mux.HandleFunc("POST /room/start", s.handleRoomStart)
	mux.HandleFunc("POST /room/end", s.handleRoomEnd)
	mux.HandleFunc("POST /room/result", s.handleRoomResult)
	mux.HandleFunc("POST /room/leave", s.handleRoomLeave)
	return mux
}
