// Package rooms implements the room registry and lifecycle: capacity-gated
// joins, the Waiting -> LiveStart transition, result aggregation behind an
// all-finished barrier, and count-driven teardown.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pollenjp/gameserver/internal/db"
)

// LiveDifficulty is the difficulty a member selected when joining.
type LiveDifficulty int

const (
	DifficultyNormal LiveDifficulty = 1
	DifficultyHard   LiveDifficulty = 2
)

// Valid reports whether the value is one of the defined difficulties.
func (d LiveDifficulty) Valid() bool {
	return d == DifficultyNormal || d == DifficultyHard
}

// JoinResult is the finite outcome space of Join. Join failures are expected
// business outcomes, not errors; unexpected faults collapse to JoinOtherError.
type JoinResult int

const (
	JoinOk         JoinResult = 1
	JoinRoomFull   JoinResult = 2
	JoinDisbanded  JoinResult = 3
	JoinOtherError JoinResult = 4
)

// Status is the room lifecycle state. StatusDissolution is only ever
// reported, never stored: an empty room is deleted outright, and the wait
// path translates the resulting miss into Dissolution for polling clients.
type Status int

const (
	StatusWaiting     Status = 1
	StatusLiveStart   Status = 2
	StatusDissolution Status = 3
)

var (
	// ErrNotFound is returned by status lookups on a room that no longer
	// exists. Legitimate between a list call and a status check.
	ErrNotFound = errors.New("room not found")
	// ErrNotInRoom is returned by Leave when no such membership exists.
	// Leaving a room you are not in is a caller bug, not a soft no-op.
	ErrNotInRoom = errors.New("user is not a member of the room")
	// ErrCorruptRoomState marks an invariant violation: a member count that
	// would drop below zero, or members outstanding for a vanished room.
	ErrCorruptRoomState = errors.New("corrupt room state")
)

// RoomInfo describes a joinable room in listings.
type RoomInfo struct {
	RoomID          int64
	LiveID          int64
	JoinedUserCount int
	MaxUserCount    int
}

// RoomUser is one member of a room as seen by a specific requesting user.
// IsMe is computed against the requester, never persisted.
type RoomUser struct {
	UserID       int64
	Name         string
	LeaderCardID int
	Difficulty   LiveDifficulty
	IsMe         bool
	IsHost       bool
}

// ResultUser is one member's aggregated play result.
type ResultUser struct {
	UserID      int64
	JudgeCounts [5]int
	Score       int
}

// JoinParams carries the membership snapshot taken at join time.
type JoinParams struct {
	RoomID       int64
	UserID       int64
	UserName     string
	LeaderCardID int
	Difficulty   LiveDifficulty
	IsHost       bool
}

// PlayResult is a member's finished-playing submission.
type PlayResult struct {
	RoomID            int64
	UserID            int64
	JudgeCountPerfect int
	JudgeCountGreat   int
	JudgeCountGood    int
	JudgeCountBad     int
	JudgeCountMiss    int
	Score             int
}

// Registry owns room state. All mutations of a room's (count, status,
// membership) run inside a transaction while holding that room's lock, so
// concurrent callers on the same room serialize; cross-room calls do not.
type Registry struct {
	db       *gorm.DB
	log      *slog.Logger
	maxUsers int
	locks    *roomLocks
}

func New(conn *gorm.DB, logger *slog.Logger, maxUsers int) *Registry {
	return &Registry{
		db:       conn,
		log:      logger,
		maxUsers: maxUsers,
		locks:    newRoomLocks(),
	}
}

// MaxUsers returns the configured room capacity.
func (r *Registry) MaxUsers() int { return r.maxUsers }

// Create inserts an empty room in Waiting. The creator is not added here;
// the caller joins the host as a separate call immediately after.
func (r *Registry) Create(ctx context.Context, liveID int64) (int64, error) {
	room := db.Room{
		LiveID:          liveID,
		JoinedUserCount: 0,
		Status:          int(StatusWaiting),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return appendEvent(tx, room.ID, "room_created", eventPayload{LiveID: liveID})
	})
	if err != nil {
		return 0, fmt.Errorf("create room: %w", err)
	}
	r.log.Info("room created", slog.Int64("room_id", room.ID), slog.Int64("live_id", liveID))
	return room.ID, nil
}

// Join adds a member to a room. The capacity check and the insert run as one
// atomic unit under the room lock; joined_user_count never exceeds the
// configured capacity no matter how many callers race. Every failure mode,
// including unexpected persistence errors, maps into the JoinResult space.
func (r *Registry) Join(ctx context.Context, p JoinParams) JoinResult {
	unlock := r.locks.lock(p.RoomID)
	defer unlock()

	result := JoinOk
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room db.Room
		if err := tx.First(&room, p.RoomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = JoinDisbanded
				return nil
			}
			return err
		}
		if Status(room.Status) != StatusWaiting {
			result = JoinOtherError
			return nil
		}
		if room.JoinedUserCount >= r.maxUsers {
			result = JoinRoomFull
			return nil
		}
		member := db.RoomMember{
			RoomID:       room.ID,
			UserID:       p.UserID,
			Name:         p.UserName,
			LeaderCardID: p.LeaderCardID,
			Difficulty:   int(p.Difficulty),
			IsHost:       p.IsHost,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		if err := tx.Model(&db.Room{}).Where("id = ?", room.ID).
			Update("joined_user_count", room.JoinedUserCount+1).Error; err != nil {
			return err
		}
		return appendEvent(tx, room.ID, "member_joined", eventPayload{UserID: p.UserID})
	})
	if err != nil {
		r.log.Error("join room failed",
			slog.Int64("room_id", p.RoomID),
			slog.Int64("user_id", p.UserID),
			slog.Any("error", err),
		)
		return JoinOtherError
	}
	r.log.Info("join room",
		slog.Int64("room_id", p.RoomID),
		slog.Int64("user_id", p.UserID),
		slog.Int("result", int(result)),
	)
	return result
}

// ByLiveID lists rooms still waiting for members. liveID 0 is a wildcard
// matching every song.
func (r *Registry) ByLiveID(ctx context.Context, liveID int64) ([]RoomInfo, error) {
	query := r.db.WithContext(ctx).Where("status = ?", int(StatusWaiting))
	if liveID != 0 {
		query = query.Where("live_id = ?", liveID)
	}
	var records []db.Room
	if err := query.Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	infos := make([]RoomInfo, 0, len(records))
	for _, room := range records {
		infos = append(infos, RoomInfo{
			RoomID:          room.ID,
			LiveID:          room.LiveID,
			JoinedUserCount: room.JoinedUserCount,
			MaxUserCount:    r.maxUsers,
		})
	}
	return infos, nil
}

// Status reports the room's lifecycle state, or ErrNotFound if the room was
// torn down.
func (r *Registry) Status(ctx context.Context, roomID int64) (Status, error) {
	var room db.Room
	err := r.db.WithContext(ctx).First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("room status: %w", err)
	}
	return Status(room.Status), nil
}

// Members lists the room's memberships with IsMe computed for the viewer.
func (r *Registry) Members(ctx context.Context, roomID, viewerID int64) ([]RoomUser, error) {
	var records []db.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("room members: %w", err)
	}
	members := make([]RoomUser, 0, len(records))
	for _, m := range records {
		members = append(members, RoomUser{
			UserID:       m.UserID,
			Name:         m.Name,
			LeaderCardID: m.LeaderCardID,
			Difficulty:   LiveDifficulty(m.Difficulty),
			IsMe:         m.UserID == viewerID,
			IsHost:       m.IsHost,
		})
	}
	return members, nil
}

// Start transitions the room to LiveStart. The write is unconditional, so it
// is idempotent; authorization is the presentation layer's concern. Starting
// a room that no longer exists is a no-op.
func (r *Registry) Start(ctx context.Context, roomID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Room{}).Where("id = ?", roomID).
			Update("status", int(StatusLiveStart))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return appendEvent(tx, roomID, "live_started", eventPayload{})
	})
	if err != nil {
		return fmt.Errorf("start room: %w", err)
	}
	r.log.Info("room started", slog.Int64("room_id", roomID))
	return nil
}

// Finish upserts the member's play result with end_playing=true, then
// releases the member's slot under the room lock. The membership row is kept
// so the result barrier stays answerable after teardown.
func (r *Registry) Finish(ctx context.Context, res PlayResult) error {
	unlock := r.locks.lock(res.RoomID)
	defer unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := db.RoomMemberResult{
			RoomID:            res.RoomID,
			UserID:            res.UserID,
			JudgeCountPerfect: res.JudgeCountPerfect,
			JudgeCountGreat:   res.JudgeCountGreat,
			JudgeCountGood:    res.JudgeCountGood,
			JudgeCountBad:     res.JudgeCountBad,
			JudgeCountMiss:    res.JudgeCountMiss,
			Score:             res.Score,
			EndPlaying:        true,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"judge_count_perfect",
				"judge_count_great",
				"judge_count_good",
				"judge_count_bad",
				"judge_count_miss",
				"score",
				"end_playing",
				"updated_at",
			}),
		}).Create(&record).Error
		if err != nil {
			return err
		}
		if err := appendEvent(tx, res.RoomID, "result_stored", eventPayload{
			UserID: res.UserID,
			Score:  res.Score,
		}); err != nil {
			return err
		}
		return r.releaseSlot(tx, res.RoomID)
	})
	if err != nil {
		return fmt.Errorf("store room user result: %w", err)
	}
	r.log.Info("result stored",
		slog.Int64("room_id", res.RoomID),
		slog.Int64("user_id", res.UserID),
		slog.Int("score", res.Score),
	)
	return nil
}

// Results implements the result barrier: the full list is released only once
// every member has a finished result row; until then it returns an empty
// list and the caller is expected to poll.
func (r *Registry) Results(ctx context.Context, roomID int64) ([]ResultUser, error) {
	var members []db.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("room results: %w", err)
	}
	var rows []db.RoomMemberResult
	err = r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("room results: %w", err)
	}
	byUser := make(map[int64]db.RoomMemberResult, len(rows))
	for _, row := range rows {
		byUser[row.UserID] = row
	}

	results := make([]ResultUser, 0, len(members))
	for _, m := range members {
		row, ok := byUser[m.UserID]
		if !ok || !row.EndPlaying {
			return []ResultUser{}, nil
		}
		results = append(results, ResultUser{
			UserID: row.UserID,
			JudgeCounts: [5]int{
				row.JudgeCountPerfect,
				row.JudgeCountGreat,
				row.JudgeCountGood,
				row.JudgeCountBad,
				row.JudgeCountMiss,
			},
			Score: row.Score,
		})
	}
	return results, nil
}

// Leave removes the membership row, then releases the slot the same way
// Finish does. A missing membership is ErrNotInRoom and is not masked.
func (r *Registry) Leave(ctx context.Context, roomID, userID int64) error {
	unlock := r.locks.lock(roomID)
	defer unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("room_id = ? AND user_id = ?", roomID, userID).
			Delete(&db.RoomMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotInRoom
		}
		if err := appendEvent(tx, roomID, "member_left", eventPayload{UserID: userID}); err != nil {
			return err
		}
		return r.releaseSlot(tx, roomID)
	})
	if err != nil {
		if errors.Is(err, ErrNotInRoom) {
			return err
		}
		return fmt.Errorf("leave room: %w", err)
	}
	r.log.Info("member left", slog.Int64("room_id", roomID), slog.Int64("user_id", userID))
	return nil
}

// releaseSlot decrements joined_user_count and deletes the room row when it
// reaches zero. Shared by Finish and Leave; must run inside the caller's
// transaction while the room lock is held.
func (r *Registry) releaseSlot(tx *gorm.DB, roomID int64) error {
	var room db.Room
	if err := tx.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: room %d already deleted while releasing a slot", ErrCorruptRoomState, roomID)
		}
		return err
	}
	count := room.JoinedUserCount - 1
	if count < 0 {
		return fmt.Errorf("%w: joined_user_count of room %d would drop below zero", ErrCorruptRoomState, roomID)
	}
	if count == 0 {
		if err := tx.Delete(&db.Room{}, roomID).Error; err != nil {
			return err
		}
		r.log.Info("room deleted", slog.Int64("room_id", roomID))
		return appendEvent(tx, roomID, "room_deleted", eventPayload{})
	}
	return tx.Model(&db.Room{}).Where("id = ?", roomID).
		Update("joined_user_count", count).Error
}
