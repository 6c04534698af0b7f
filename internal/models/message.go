package models

import (
	"time"
)

// SeenMessage records that an activity id has already been relayed.
// Entries are write-once: the existence of the key is what enforces the
// at-most-once relay per activity.
type SeenMessage struct {
	ActivityID int64     `json:"activity_id"`
	ReceivedAt time.Time `json:"received_at"`
}
