package pick

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/events"
	"github.com/draftnight/draftnight/internal/models"
)

// Repository defines what the pick resolver needs from storage.
type Repository interface {
	GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error)
	GetParticipant(ctx context.Context, draftID int64, actorID string) (*models.Participant, error)
	CountParticipants(ctx context.Context, draftID int64) (int, error)
	CountPicks(ctx context.Context, draftID int64) (int, error)
	GetCuratedOption(ctx context.Context, draftID, optionID int64) (*models.CuratedOption, error)
	CommitPick(ctx context.Context, params CommitPickParams) (*models.Pick, error)
}

// App validates and commits picks, advancing or completing the draft.
type App struct {
	repo      Repository
	publisher events.Publisher
	clock     clockwork.Clock
}

// NewApp creates a pick resolver.
func NewApp(repo Repository, publisher events.Publisher, clock clockwork.Clock) *App {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &App{repo: repo, publisher: publisher, clock: clock}
}

// SubmitPick validates turn ownership, the turn timer and the payload, then
// commits the pick atomically and advances the clock. Exactly one pick row,
// at most one curated-option flip and one draft update happen per successful
// call; rejected input never writes.
func (a *App) SubmitPick(ctx context.Context, req SubmitPickRequest) (*models.Pick, error) {
	draft, err := a.repo.GetDraftByGUID(ctx, req.DraftGUID)
	if err != nil {
		return nil, err
	}

	if !pickableState(draft.State) {
		return nil, apperr.Conflict("draft is not accepting picks")
	}

	participant, err := a.repo.GetParticipant(ctx, draft.ID, req.Actor.ID)
	if err != nil {
		if !req.SkipTurnValidation {
			return nil, apperr.Forbidden("you are not a participant in this draft")
		}
		if !apperr.IsKind(err, apperr.KindNotFound) {
			return nil, err
		}
		participant = nil
	}
	if !req.SkipTurnValidation {
		if participant.Position == nil || draft.CurrentPositionOnClock == nil ||
			*participant.Position != *draft.CurrentPositionOnClock {
			return nil, apperr.Forbidden("it is not your turn")
		}
	}

	payload := strings.TrimSpace(req.Payload)
	if req.OptionID == nil {
		if !draft.Freeform {
			return nil, apperr.Validation("this draft requires picking a curated option")
		}
		if payload == "" {
			return nil, apperr.Validation("pick cannot be empty")
		}
		if len(payload) > MaxPayloadLen {
			return nil, apperr.Validation("pick exceeds %d characters", MaxPayloadLen)
		}
	} else if draft.Freeform {
		return nil, apperr.Validation("this draft uses freeform picks")
	}

	var timeTaken *int
	if draft.TurnStartedAt != nil {
		elapsed := int(a.clock.Now().Sub(*draft.TurnStartedAt).Seconds())
		// The trusted auto-pick caller fires precisely because the timer ran
		// out; its backstop is pick-number uniqueness, not the expiry check.
		if !req.SkipTurnValidation &&
			draft.IsTimed() && !draft.TimerPaused && elapsed > draft.SecPerRound+TimerGraceSec {
			return nil, apperr.TimedOut("time is up: %ds over the %ds limit",
				elapsed-draft.SecPerRound, draft.SecPerRound)
		}
		timeTaken = &elapsed
	}

	if req.OptionID != nil {
		option, err := a.repo.GetCuratedOption(ctx, draft.ID, *req.OptionID)
		if err != nil {
			return nil, apperr.InvalidOption("option does not exist")
		}
		if option.Used {
			return nil, apperr.InvalidOption("option was already picked")
		}
		payload = option.Text
	}

	numParticipants, err := a.repo.CountParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	count, err := a.repo.CountPicks(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	pickNumber := count + 1

	turn := NextTurn(pickNumber, numParticipants, draft.Rounds)

	params := CommitPickParams{
		DraftID:      draft.ID,
		PickNumber:   pickNumber,
		ActorID:      req.Actor.ID,
		Payload:      payload,
		OptionID:     req.OptionID,
		Auto:         req.Auto,
		TimeTakenSec: timeTaken,
	}
	now := a.clock.Now()
	switch {
	case !turn.DraftCompleted:
		// Always re-arm the timer for the next player; untimed drafts use it
		// for elapsed-time tracking.
		params.NextPosition = turn.NextPosition
		params.NextState = models.DraftStateActive
		params.TurnStartedAt = &now
	case draft.ChallengeEnabled:
		params.NextState = models.DraftStateChallengeWindow
		params.TurnStartedAt = &now // window start
	default:
		params.NextState = models.DraftStateCompleted
	}

	committed, err := a.repo.CommitPick(ctx, params)
	if err != nil {
		return nil, err
	}
	if participant != nil {
		committed.AuthorName = participant.DisplayName
	}

	a.emitPickEvents(ctx, draft, committed, turn, numParticipants)

	log.Info().
		Str("draft_id", draft.GUID.String()).
		Int("pick_number", committed.PickNumber).
		Str("actor_id", req.Actor.ID).
		Bool("auto", req.Auto).
		Msg("pick committed")

	return committed, nil
}

func (a *App) emitPickEvents(ctx context.Context, draft *models.Draft, committed *models.Pick, turn TurnResult, numParticipants int) {
	made := events.PickMadePayload{
		DraftID:    draft.GUID.String(),
		PickNumber: committed.PickNumber,
		ActorID:    committed.ActorID,
		AuthorName: committed.AuthorName,
		Payload:    committed.Payload,
		Auto:       committed.Auto,
		MadeAt:     committed.CreatedAt,
	}
	if err := a.publisher.Publish(ctx, events.TypePickMade, draft.GUID, made); err != nil {
		log.Error().Err(err).Str("draft_id", draft.GUID.String()).Msg("failed to publish PickMade event")
	}

	if turn.DraftCompleted && !draft.ChallengeEnabled {
		done := events.DraftCompletedPayload{
			DraftID:     draft.GUID.String(),
			TotalPicks:  draft.TotalPicks(numParticipants),
			CompletedAt: a.clock.Now(),
		}
		if err := a.publisher.Publish(ctx, events.TypeDraftCompleted, draft.GUID, done); err != nil {
			log.Error().Err(err).Str("draft_id", draft.GUID.String()).Msg("failed to publish DraftCompleted event")
		}
	}
}

func pickableState(s models.DraftState) bool {
	return s == models.DraftStateActive
}
