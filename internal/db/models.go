package db

import (
	"time"

	"gorm.io/datatypes"
)

// User is a registered player. The token is the bearer credential issued at
// registration; it is unique and never rotated.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"size:255;not null"`
	Token        string    `gorm:"size:255;uniqueIndex;not null"`
	LeaderCardID int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// Room is a matchmaking session for one song selection. The row is deleted
// outright once the last member finishes or leaves.
type Room struct {
	ID              int64     `gorm:"primaryKey"`
	LiveID          int64     `gorm:"index;not null"`
	JoinedUserCount int       `gorm:"not null;default:0"`
	Status          int       `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
	Members         []RoomMember
	Events          []RoomEvent
}

// RoomMember is one user's participation in one room. Name and leader card
// are snapshots taken at join time.
type RoomMember struct {
	ID           int64     `gorm:"primaryKey"`
	RoomID       int64     `gorm:"index;not null;uniqueIndex:idx_room_members_room_user"`
	UserID       int64     `gorm:"index;not null;uniqueIndex:idx_room_members_room_user"`
	Name         string    `gorm:"size:255;not null"`
	LeaderCardID int       `gorm:"not null;default:0"`
	Difficulty   int       `gorm:"not null"`
	IsHost       bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// RoomMemberResult holds a member's play result. Absence of a row, or
// EndPlaying=false, means that member has not finished yet.
type RoomMemberResult struct {
	ID                int64     `gorm:"primaryKey"`
	RoomID            int64     `gorm:"index;not null;uniqueIndex:idx_room_results_room_user"`
	UserID            int64     `gorm:"index;not null;uniqueIndex:idx_room_results_room_user"`
	JudgeCountPerfect int       `gorm:"not null;default:0"`
	JudgeCountGreat   int       `gorm:"not null;default:0"`
	JudgeCountGood    int       `gorm:"not null;default:0"`
	JudgeCountBad     int       `gorm:"not null;default:0"`
	JudgeCountMiss    int       `gorm:"not null;default:0"`
	Score             int       `gorm:"not null;default:0"`
	EndPlaying        bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// RoomEvent is an append-only log of room lifecycle transitions.
type RoomEvent struct {
	ID        int64          `gorm:"primaryKey"`
	RoomID    int64          `gorm:"index;not null"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}
