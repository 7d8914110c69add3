package draft

import (
	"time"

	"github.com/draftnight/draftnight/internal/models"
)

// Settings bounds, enforced at creation.
const (
	MinRounds      = 1
	MaxRounds      = 10
	MinDrafters    = 2
	MaxDraftersCap = 20
	MinSecPerRound = 30
	MaxSecPerRound = 600
	MaxNameLen     = 100
)

// CreateDraftRequest carries the admin's draft settings.
type CreateDraftRequest struct {
	Name             string `json:"name"`
	MaxDrafters      int    `json:"max_drafters"`
	SecPerRound      int    `json:"sec_per_round"`
	Rounds           int    `json:"rounds"`
	Freeform         bool   `json:"freeform"`
	ChallengeEnabled bool   `json:"challenge_enabled"`
	// Options seeds the curated pool; required for non-freeform drafts.
	Options []string `json:"options,omitempty"`
}

// CreateDraftParams is the storage shape for a new draft.
type CreateDraftParams struct {
	Name             string
	MaxDrafters      int
	SecPerRound      int
	Rounds           int
	Freeform         bool
	ChallengeEnabled bool
	JoinCode         string
	AdminActorID     string
	Options          []string
}

// InsertParticipantParams is the storage shape for a joining participant.
type InsertParticipantParams struct {
	DraftID     int64
	ActorID     string
	DisplayName string
	IsGuest     bool
}

// JoinRequest carries a join-by-GUID or join-by-code attempt.
type JoinRequest struct {
	DisplayName string `json:"display_name"`
	JoinCode    string `json:"join_code,omitempty"`
}

// StateView is the polling read model for one draft.
type StateView struct {
	Draft            *models.Draft        `json:"draft"`
	Participants     []models.Participant `json:"participants"`
	Picks            []models.Pick        `json:"picks"`
	TotalPicks       int                  `json:"total_picks"`
	TimeRemainingSec *int                 `json:"time_remaining_sec,omitempty"`
	TimeElapsedSec   *int                 `json:"time_elapsed_sec,omitempty"`
}

// startTimestamp is a tiny helper used when re-arming timers.
func startTimestamp(t time.Time) *time.Time { return &t }
