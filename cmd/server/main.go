package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/pollenjp/gameserver/internal/config"
	"github.com/pollenjp/gameserver/internal/db"
	"github.com/pollenjp/gameserver/internal/rooms"
	"github.com/pollenjp/gameserver/internal/server"
	"github.com/pollenjp/gameserver/internal/users"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cfg.SlogLevel(),
		TimeFormat: time.RFC3339,
	}))

	conn, err := db.Open(cfg)
	if err != nil {
		logger.Error("db connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			logger.Error("db migration failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database migration complete")
	}

	srv := server.New(
		users.New(conn, logger),
		rooms.New(conn, logger, cfg.MaxRoomUsers),
		cfg,
		logger,
	)

	logger.Info("gameserver listening", slog.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
