package models

import "time"

// Participant is one seat in a draft, one row per (draft, actor).
// Position is nil until the draft starts, then a permutation of 1..N.
type Participant struct {
	ID              int64      `json:"-"`
	DraftID         int64      `json:"-"`
	ActorID         string     `json:"actor_id"`
	DisplayName     string     `json:"display_name"`
	Position        *int       `json:"position,omitempty"`
	Ready           bool       `json:"ready"`
	IsGuest         bool       `json:"is_guest"`
	AutopickEnabled bool       `json:"autopick_enabled"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Actor returns the participant's identity as a tagged actor.
func (p *Participant) Actor() Actor {
	kind := ActorKindUser
	if p.IsGuest {
		kind = ActorKindGuest
	}
	return Actor{Kind: kind, ID: p.ActorID}
}
