package rooms

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pollenjp/gameserver/internal/db"
)

// eventPayload is the jsonb body of a room event. Zero fields are omitted.
type eventPayload struct {
	UserID int64 `json:"user_id,omitempty"`
	LiveID int64 `json:"live_id,omitempty"`
	Score  int   `json:"score,omitempty"`
}

// appendEvent writes a lifecycle event inside the caller's transaction so the
// log never disagrees with the state it describes.
func appendEvent(tx *gorm.DB, roomID int64, kind string, payload eventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	event := db.RoomEvent{
		RoomID:  roomID,
		Type:    kind,
		Payload: datatypes.JSON(body),
	}
	return tx.Create(&event).Error
}

// EventsForRoom returns the room's lifecycle events in append order. Events
// outlive the room row; this is the audit trail for torn-down rooms too.
func (r *Registry) EventsForRoom(ctx context.Context, roomID int64) ([]db.RoomEvent, error) {
	var events []db.RoomEvent
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("room events: %w", err)
	}
	return events, nil
}
