package events

import "time"

// Event type names published on the bus.
const (
	TypeDraftStarted      = "DraftStarted"
	TypePickMade          = "PickMade"
	TypeDraftCompleted    = "DraftCompleted"
	TypeChallengeRaised   = "ChallengeRaised"
	TypeChallengeResolved = "ChallengeResolved"
)

// DraftStartedPayload is the payload for a DraftStarted event.
type DraftStartedPayload struct {
	DraftID      string    `json:"draft_id"`
	Name         string    `json:"name"`
	Participants int       `json:"participants"`
	Rounds       int       `json:"rounds"`
	TotalPicks   int       `json:"total_picks"`
	StartedAt    time.Time `json:"started_at"`
}

// PickMadePayload is the payload for a PickMade event.
type PickMadePayload struct {
	DraftID    string    `json:"draft_id"`
	PickNumber int       `json:"pick_number"`
	ActorID    string    `json:"actor_id"`
	AuthorName string    `json:"author_name"`
	Payload    string    `json:"payload"`
	Auto       bool      `json:"auto"`
	MadeAt     time.Time `json:"made_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event.
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	TotalPicks  int       `json:"total_picks"`
	CompletedAt time.Time `json:"completed_at"`
}

// ChallengeRaisedPayload is the payload for a ChallengeRaised event.
type ChallengeRaisedPayload struct {
	DraftID           string    `json:"draft_id"`
	ChallengeID       int64     `json:"challenge_id"`
	PickNumber        int       `json:"pick_number"`
	ChallengerActorID string    `json:"challenger_actor_id"`
	ChallengedActorID string    `json:"challenged_actor_id"`
	RaisedAt          time.Time `json:"raised_at"`
}

// ChallengeResolvedPayload is the payload for a ChallengeResolved event.
type ChallengeResolvedPayload struct {
	DraftID     string    `json:"draft_id"`
	ChallengeID int64     `json:"challenge_id"`
	PickNumber  int       `json:"pick_number"`
	Upheld      bool      `json:"upheld"` // true = pick rolled back
	ResolvedAt  time.Time `json:"resolved_at"`
}
