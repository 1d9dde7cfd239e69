package domain

import "time"

type (
	// StreamID is the opaque external identifier a streamer announces.
	StreamID string
	// RecordID identifies a persisted stream record, unrelated to StreamID.
	RecordID string
)

// StreamRecord is the persisted metadata of a stream, managed by the store.
// The live session registry never depends on it.
type StreamRecord struct {
	ID          RecordID `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StreamerID  UserID   `json:"streamer_id"`
	// StreamerName is denormalized into listings, empty elsewhere.
	StreamerName string     `json:"streamer_name,omitempty"`
	IsLive       bool       `json:"is_live"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
}
