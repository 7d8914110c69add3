package autopick

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/pick"
)

// minElapsedSec is a floor below which no auto-pick fires, so a timer that
// was just reset by a completed auto-pick elsewhere is not acted on again.
// The minimum configurable round length is 30s, so this cannot mask a
// legitimate expiry.
const minElapsedSec = 10

// Repository defines what the auto-pick engine needs from storage.
type Repository interface {
	GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error)
	GetParticipantByPosition(ctx context.Context, draftID int64, position int) (*models.Participant, error)
	CountPicks(ctx context.Context, draftID int64) (int, error)
	HasPick(ctx context.Context, draftID int64, pickNumber int) (bool, error)
	ListPicks(ctx context.Context, draftID int64) ([]models.Pick, error)
	ListUnusedOptions(ctx context.Context, draftID int64) ([]models.CuratedOption, error)
	NextQueueEntry(ctx context.Context, draftID int64, actorID string) (*models.QueueEntry, error)
	MarkQueueEntryUsed(ctx context.Context, entryID int64) error
	ListActiveTimedDrafts(ctx context.Context, limit int) ([]models.Draft, error)
}

// PickSubmitter is the trusted commit path shared with manual picks.
type PickSubmitter interface {
	SubmitPick(ctx context.Context, req pick.SubmitPickRequest) (*models.Pick, error)
}

// App synthesizes fallback picks for expired turns and commits them through
// the regular pick resolver.
type App struct {
	repo  Repository
	picks PickSubmitter
	clock clockwork.Clock
	cache *dedupeCache
	rng   *rand.Rand
}

// NewApp creates an auto-pick engine.
func NewApp(repo Repository, picks PickSubmitter, clock clockwork.Clock) *App {
	return &App{
		repo:  repo,
		picks: picks,
		clock: clock,
		cache: newDedupeCache(clock),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CheckAndAutoPick fires an auto-pick for the draft if its turn timer has
// truly expired. It is invoked speculatively by any connected client and by
// the scheduler, so every non-actionable condition is a silent no-op, never
// an error. Safe to call redundantly and concurrently: the de-dup cache cuts
// contention and the pick-number uniqueness constraint settles any race.
func (a *App) CheckAndAutoPick(ctx context.Context, draftGUID uuid.UUID) error {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if draft.State != models.DraftStateActive {
		return nil
	}
	if !draft.IsTimed() || draft.TurnStartedAt == nil || draft.TimerPaused {
		return nil
	}

	elapsed := int(a.clock.Now().Sub(*draft.TurnStartedAt).Seconds())
	if elapsed < draft.SecPerRound || elapsed < minElapsedSec {
		return nil
	}

	if draft.CurrentPositionOnClock == nil {
		return nil
	}
	participant, err := a.repo.GetParticipantByPosition(ctx, draft.ID, *draft.CurrentPositionOnClock)
	if err != nil || participant.ActorID == "" {
		return nil
	}

	if !a.cache.claim(draft.ID, participant.ActorID) {
		log.Debug().
			Str("draft_id", draftGUID.String()).
			Str("actor_id", participant.ActorID).
			Msg("skipping auto-pick: recent attempt for same actor")
		return nil
	}

	count, err := a.repo.CountPicks(ctx, draft.ID)
	if err != nil {
		return err
	}
	taken, err := a.repo.HasPick(ctx, draft.ID, count+1)
	if err != nil {
		return err
	}
	if taken {
		return nil
	}

	return a.makePick(ctx, draft, participant, count+1)
}

// Sweep runs CheckAndAutoPick across every active timed draft. Each check
// re-validates expiry itself, so sweeping a draft whose turn is still live
// is a no-op.
func (a *App) Sweep(ctx context.Context, limit int) error {
	drafts, err := a.repo.ListActiveTimedDrafts(ctx, limit)
	if err != nil {
		return err
	}
	for _, d := range drafts {
		if err := a.CheckAndAutoPick(ctx, d.GUID); err != nil {
			log.Error().Err(err).Str("draft_id", d.GUID.String()).Msg("sweep auto-pick failed for draft")
		}
	}
	return nil
}

// ForceAutoPick lets the draft admin push an auto-pick for whoever is on the
// clock, regardless of elapsed time.
func (a *App) ForceAutoPick(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) error {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return err
	}
	if actor.ID != draft.AdminActorID {
		return apperr.Forbidden("only the draft admin can force an auto-pick")
	}
	if draft.State != models.DraftStateActive {
		return apperr.Conflict("draft is not active")
	}
	if draft.CurrentPositionOnClock == nil {
		return apperr.Conflict("no one is on the clock")
	}
	participant, err := a.repo.GetParticipantByPosition(ctx, draft.ID, *draft.CurrentPositionOnClock)
	if err != nil {
		return err
	}

	count, err := a.repo.CountPicks(ctx, draft.ID)
	if err != nil {
		return err
	}
	return a.makePick(ctx, draft, participant, count+1)
}

// makePick synthesizes a payload and commits it through the resolver. A
// Conflict from the commit means someone else's pick already landed and is
// swallowed as a benign race loss.
func (a *App) makePick(ctx context.Context, draft *models.Draft, participant *models.Participant, pickNumber int) error {
	req := pick.SubmitPickRequest{
		DraftGUID:          draft.GUID,
		Actor:              participant.Actor(),
		Auto:               true,
		SkipTurnValidation: true,
	}

	if participant.AutopickEnabled {
		if entry, err := a.repo.NextQueueEntry(ctx, draft.ID, participant.ActorID); err == nil {
			queued := req
			queued.Payload = entry.Payload
			queued.OptionID = entry.OptionID
			if done, err := a.submit(ctx, draft, queued); done || err != nil {
				if err == nil {
					_ = a.repo.MarkQueueEntryUsed(ctx, entry.ID)
				}
				return err
			}
			// Queued entry was stale (its option got taken); burn it and
			// fall through to synthesis.
			_ = a.repo.MarkQueueEntryUsed(ctx, entry.ID)
		}
	}

	if draft.Freeform {
		picks, err := a.repo.ListPicks(ctx, draft.ID)
		if err != nil {
			return err
		}
		used := make(map[string]bool, len(picks))
		for _, p := range picks {
			used[strings.ToLower(p.Payload)] = true
		}
		req.Payload = fallbackPayload(draft.Name, pickNumber, used)
	} else {
		options, err := a.repo.ListUnusedOptions(ctx, draft.ID)
		if err != nil {
			return err
		}
		if len(options) == 0 {
			return nil
		}
		id := options[a.rng.Intn(len(options))].ID
		req.OptionID = &id
	}

	_, err := a.submitFinal(ctx, draft, req)
	return err
}

// submit attempts a commit, distinguishing "stale queued option" (retryable
// with synthesis) from everything else.
func (a *App) submit(ctx context.Context, draft *models.Draft, req pick.SubmitPickRequest) (bool, error) {
	_, err := a.picks.SubmitPick(ctx, req)
	if err == nil {
		a.logAutoPick(draft, req)
		return true, nil
	}
	if apperr.IsKind(err, apperr.KindInvalidOption) {
		return false, nil
	}
	if apperr.IsKind(err, apperr.KindConflict) {
		return true, nil
	}
	return true, err
}

func (a *App) submitFinal(ctx context.Context, draft *models.Draft, req pick.SubmitPickRequest) (*models.Pick, error) {
	committed, err := a.picks.SubmitPick(ctx, req)
	if err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			log.Debug().
				Str("draft_id", draft.GUID.String()).
				Msg("auto-pick lost the race, someone already picked")
			return nil, nil
		}
		return nil, err
	}
	a.logAutoPick(draft, req)
	return committed, nil
}

func (a *App) logAutoPick(draft *models.Draft, req pick.SubmitPickRequest) {
	log.Info().
		Str("draft_id", draft.GUID.String()).
		Str("actor_id", req.Actor.ID).
		Msg("auto-pick committed")
}
