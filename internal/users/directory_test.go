package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pollenjp/gameserver/internal/db"
)

func newTestDirectory(t *testing.T) *Directory {
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
	return New(conn, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateAndLookup(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	token, err := dir.Create(ctx, "A", 7)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	user, err := dir.ByToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup by token: %v", err)
	}
	if user.Name != "A" || user.LeaderCardID != 7 {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.ID == 0 {
		t.Fatal("expected a generated user id")
	}
}

func TestLookupUnknownToken(t *testing.T) {
	dir := newTestDirectory(t)

	_, err := dir.ByToken(context.Background(), "nothing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	token, err := dir.Create(ctx, "A", 7)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := dir.Update(ctx, token, "B", 9); err != nil {
		t.Fatalf("update user: %v", err)
	}

	user, err := dir.ByToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup by token: %v", err)
	}
	if user.Name != "B" || user.LeaderCardID != 9 {
		t.Fatalf("update not applied, got %+v", user)
	}
}

func TestUpdateUnknownToken(t *testing.T) {
	dir := newTestDirectory(t)

	err := dir.Update(context.Background(), "nothing", "Hello", 0)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokensAreUnique(t *testing.T) {
	dir := newTestDirectory(t)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		token, err := dir.Create(ctx, "player", i)
		if err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = struct{}{}
	}
}
