// Package users is the user directory: registration, token lookup, and
// profile updates. The token issued at registration is the sole credential;
// possession implies identity.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pollenjp/gameserver/internal/db"
)

var (
	// ErrNotFound is returned when a token resolves to no user.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidToken is returned by Update when the token is unknown.
	ErrInvalidToken = errors.New("invalid user token")
)

// tokenAttempts bounds the collision-retry loop in Create. A uuid collision
// is already astronomically unlikely; hitting the bound means the token
// column is corrupt, not that we were unlucky.
const tokenAttempts = 5

// User is the directory's view of a registered player, without the token.
type User struct {
	ID           int64
	Name         string
	LeaderCardID int
}

type Directory struct {
	db  *gorm.DB
	log *slog.Logger
}

func New(conn *gorm.DB, logger *slog.Logger) *Directory {
	return &Directory{db: conn, log: logger}
}

// Create registers a user and returns the issued token. Token collisions are
// detected via the unique index and retried locally; the caller never sees
// them.
func (d *Directory) Create(ctx context.Context, name string, leaderCardID int) (string, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token := uuid.NewString()
		record := db.User{
			Name:         name,
			Token:        token,
			LeaderCardID: leaderCardID,
		}
		err := d.db.WithContext(ctx).Create(&record).Error
		if err == nil {
			d.log.Info("user created", slog.Int64("user_id", record.ID))
			return token, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			d.log.Warn("user token collision, retrying", slog.Int("attempt", attempt+1))
			continue
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return "", fmt.Errorf("create user: token collisions on %d consecutive attempts", tokenAttempts)
}

// ByToken resolves a bearer token to a user. A miss is ErrNotFound; callers
// treat it as an authentication failure.
func (d *Directory) ByToken(ctx context.Context, token string) (User, error) {
	var record db.User
	err := d.db.WithContext(ctx).Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by token: %w", err)
	}
	return User{
		ID:           record.ID,
		Name:         record.Name,
		LeaderCardID: record.LeaderCardID,
	}, nil
}

// Update overwrites the mutable profile fields of the token's user.
func (d *Directory) Update(ctx context.Context, token, name string, leaderCardID int) error {
	result := d.db.WithContext(ctx).Model(&db.User{}).
		Where("token = ?", token).
		Updates(map[string]any{
			"name":           name,
			"leader_card_id": leaderCardID,
		})
	if result.Error != nil {
		return fmt.Errorf("update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidToken
	}
	return nil
}
