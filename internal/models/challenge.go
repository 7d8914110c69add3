package models

import "time"

// ChallengeStatus defines the status of a challenge.
type ChallengeStatus string

const (
	ChallengeStatusPending   ChallengeStatus = "PENDING"
	ChallengeStatusResolved  ChallengeStatus = "RESOLVED"
	ChallengeStatusDismissed ChallengeStatus = "DISMISSED"
)

// Challenge is a vote-gated objection to the most recent pick. At most one
// pending challenge exists per draft.
type Challenge struct {
	ID                int64           `json:"id"`
	DraftID           int64           `json:"-"`
	PickNumber        int             `json:"pick_number"`
	ChallengedActorID string          `json:"challenged_actor_id"`
	ChallengerActorID string          `json:"challenger_actor_id"`
	Status            ChallengeStatus `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
}

// ChallengeVote is one voter's yes/no on a challenge. Vote == true means
// "the pick was invalid".
type ChallengeVote struct {
	ID           int64     `json:"-"`
	ChallengeID  int64     `json:"-"`
	VoterActorID string    `json:"voter_actor_id"`
	Vote         bool      `json:"vote"`
	CreatedAt    time.Time `json:"created_at"`
}
