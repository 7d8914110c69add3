package pick

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/draftnight/draftnight/internal/models"
)

// ErrPickNumberTaken marks the Conflict raised when a concurrent writer
// claimed the pick number first. Repositories wrap it so the boundary can
// tell a lost race from a state conflict.
var ErrPickNumberTaken = errors.New("pick number already taken")

// MaxPayloadLen caps freeform pick text.
const MaxPayloadLen = 200

// TimerGraceSec is added to the per-round budget before a manual pick is
// rejected, absorbing network latency.
const TimerGraceSec = 1

// SubmitPickRequest is a request to commit one pick.
type SubmitPickRequest struct {
	DraftGUID uuid.UUID
	Actor     models.Actor
	Payload   string
	OptionID  *int64
	Auto      bool
	// SkipTurnValidation is set only by the trusted auto-pick caller, which
	// has already resolved the on-clock participant. Timer and duplicate
	// protections still apply.
	SkipTurnValidation bool
}

// CommitPickParams is the atomic write the repository performs for one
// successful pick: insert the pick row, flip the curated option when set,
// and update the draft row. The insert must enforce (draft_id, pick_number)
// uniqueness and report a conflict to the losing writer.
type CommitPickParams struct {
	DraftID       int64
	PickNumber    int
	ActorID       string
	Payload       string
	OptionID      *int64
	Auto          bool
	TimeTakenSec  *int
	NextPosition  *int
	NextState     models.DraftState
	TurnStartedAt *time.Time
}
