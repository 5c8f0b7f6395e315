package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pollenjp/gameserver/internal/config"
	"github.com/pollenjp/gameserver/internal/db"
	"github.com/pollenjp/gameserver/internal/rooms"
	"github.com/pollenjp/gameserver/internal/users"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gameserver_test.db")
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(
		users.New(conn, logger),
		rooms.New(conn, logger, cfg.MaxRoomUsers),
		cfg,
		logger,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createUser(t *testing.T, ts *httptest.Server, name string, leaderCardID int) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/user/create", "", map[string]any{
		"user_name":      name,
		"leader_card_id": leaderCardID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user create: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	token, ok := body["user_token"].(string)
	if !ok || token == "" {
		t.Fatalf("user create: missing user_token in %v", body)
	}
	return token
}

func createRoom(t *testing.T, ts *httptest.Server, token string, liveID int64) int64 {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/room/create", token, map[string]any{
		"live_id":           liveID,
		"select_difficulty": int(rooms.DifficultyHard),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("room create: expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	roomID, ok := body["room_id"].(float64)
	if !ok || roomID <= 0 {
		t.Fatalf("room create: missing room_id in %v", body)
	}
	return int64(roomID)
}
