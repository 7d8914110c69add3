package models

import "time"

// Pick is a single turn submission. PickNumber is 1-based and global across
// the draft, gap-free and unique per draft. Picks are immutable once written,
// except that a resolved challenge may delete the most recent one.
type Pick struct {
	ID           int64     `json:"-"`
	DraftID      int64     `json:"-"`
	PickNumber   int       `json:"pick_number"`
	ActorID      string    `json:"actor_id"`
	AuthorName   string    `json:"author_name,omitempty"`
	Payload      string    `json:"payload"`
	OptionID     *int64    `json:"option_id,omitempty"`
	Auto         bool      `json:"auto"`
	TimeTakenSec *int      `json:"time_taken_sec,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
