package models

import "time"

// QueueEntry is a pre-staged pick a participant lines up ahead of their turn.
// The queue is a convenience cache, not authoritative game state; the
// auto-pick engine consumes the first unused entry before falling back to
// synthesized payloads.
type QueueEntry struct {
	ID        int64     `json:"id"`
	DraftID   int64     `json:"-"`
	ActorID   string    `json:"-"`
	Rank      int       `json:"rank"`
	Payload   string    `json:"payload"`
	OptionID  *int64    `json:"option_id,omitempty"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
