package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftState defines the lifecycle state of a draft.
type DraftState string

const (
	DraftStateSettingUp       DraftState = "SETTING_UP"
	DraftStateActive          DraftState = "ACTIVE"
	DraftStateChallenge       DraftState = "CHALLENGE"
	DraftStateChallengeWindow DraftState = "CHALLENGE_WINDOW"
	DraftStateCompleted       DraftState = "COMPLETED"
	DraftStatePaused          DraftState = "PAUSED"
	DraftStateCanceled        DraftState = "CANCELED"
	DraftStateErrored         DraftState = "ERRORED"
)

// Draft represents one run of the picking game. The numeric ID is internal;
// the GUID is the only identifier exposed outside the process.
type Draft struct {
	ID                     int64      `json:"-"`
	GUID                   uuid.UUID  `json:"guid"`
	Name                   string     `json:"name"`
	State                  DraftState `json:"state"`
	MaxDrafters            int        `json:"max_drafters"`
	SecPerRound            int        `json:"sec_per_round"` // 0 = untimed, display counts up
	Rounds                 int        `json:"rounds"`
	CurrentPositionOnClock *int       `json:"current_position_on_clock,omitempty"`
	TurnStartedAt          *time.Time `json:"turn_started_at,omitempty"`
	TimerPaused            bool       `json:"timer_paused"`
	Freeform               bool       `json:"freeform"`
	ChallengeEnabled       bool       `json:"challenge_enabled"`
	JoinCode               *string    `json:"join_code,omitempty"`
	AdminActorID           string     `json:"admin_actor_id"`
	CreatedAt              time.Time  `json:"created_at"`
}

// IsTimed reports whether turn timers are enforced for this draft.
func (d *Draft) IsTimed() bool {
	return d.SecPerRound > 0
}

// TotalPicks returns how many picks complete the draft for the given
// participant count.
func (d *Draft) TotalPicks(numParticipants int) int {
	return d.Rounds * numParticipants
}
