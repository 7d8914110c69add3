package challenge

import (
	"time"

	"github.com/draftnight/draftnight/internal/models"
)

// WindowSec is the fixed grace period after the final pick during which the
// last pick may still be challenged.
const WindowSec = 30

// RollbackParams is the atomic write that undoes an upheld pick: the
// challenge is marked resolved, the pick row deleted (releasing its curated
// option), and the draft returned to the challenged seat with a fresh timer.
type RollbackParams struct {
	ChallengeID   int64
	DraftID       int64
	PickNumber    int
	RestorePos    int
	TurnStartedAt time.Time
	ResolvedAt    time.Time
}

// DismissParams is the atomic write for a dismissed challenge: status flips
// and the draft leaves the CHALLENGE state. The position on the clock is
// deliberately untouched.
type DismissParams struct {
	ChallengeID   int64
	DraftID       int64
	NextState     models.DraftState
	TurnStartedAt *time.Time
	ResolvedAt    time.Time
}

// VoteTally summarizes votes on a pending challenge.
type VoteTally struct {
	VotesFor     int `json:"votes_for"`     // "pick was invalid"
	VotesAgainst int `json:"votes_against"` // "pick stands"
	Threshold    int `json:"threshold"`
	Eligible     int `json:"eligible_voters"`
}

// Status is the polling view of the current challenge.
type Status struct {
	Challenge *models.Challenge `json:"challenge,omitempty"`
	Tally     *VoteTally        `json:"tally,omitempty"`
	YourVote  *bool             `json:"your_vote,omitempty"`
}
