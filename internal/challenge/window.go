package challenge

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/events"
	"github.com/draftnight/draftnight/internal/models"
)

// WindowRepository defines what the challenge-window watcher needs from
// storage.
type WindowRepository interface {
	GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error)
	CountPicks(ctx context.Context, draftID int64) (int, error)
	// CompleteDraft sets the draft COMPLETED and clears the clock position.
	CompleteDraft(ctx context.Context, draftID int64) error
	ListChallengeWindowDraftGUIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// WindowApp auto-completes drafts whose post-final-pick challenge window has
// lapsed without a challenge.
type WindowApp struct {
	repo      WindowRepository
	publisher events.Publisher
	clock     clockwork.Clock
}

// NewWindowApp creates the challenge-window watcher.
func NewWindowApp(repo WindowRepository, publisher events.Publisher, clock clockwork.Clock) *WindowApp {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &WindowApp{repo: repo, publisher: publisher, clock: clock}
}

// CheckExpiry completes the draft if its challenge window has lapsed.
// Idempotent and actor-agnostic: any viewer's idle client may trigger it,
// and redundant calls are no-ops.
func (w *WindowApp) CheckExpiry(ctx context.Context, draftGUID uuid.UUID) error {
	draft, err := w.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil
		}
		return err
	}
	if draft.State != models.DraftStateChallengeWindow || draft.TurnStartedAt == nil {
		return nil
	}
	if w.clock.Now().Sub(*draft.TurnStartedAt).Seconds() < WindowSec {
		return nil
	}
	return w.complete(ctx, draft)
}

// FinishEarly closes the window before it expires. Unlike CheckExpiry this
// is an explicit action and requires an identified caller.
func (w *WindowApp) FinishEarly(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) error {
	if actor.ID == "" {
		return apperr.Forbidden("an identified caller is required")
	}
	draft, err := w.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return err
	}
	if draft.State != models.DraftStateChallengeWindow {
		return apperr.Conflict("draft is not in its challenge window")
	}
	return w.complete(ctx, draft)
}

// SweepExpired checks every draft currently sitting in a challenge window.
// Called by the scheduler and by external periodic invokers.
func (w *WindowApp) SweepExpired(ctx context.Context, limit int) error {
	guids, err := w.repo.ListChallengeWindowDraftGUIDs(ctx, limit)
	if err != nil {
		return err
	}
	for _, guid := range guids {
		if err := w.CheckExpiry(ctx, guid); err != nil {
			log.Error().Err(err).Str("draft_id", guid.String()).Msg("challenge window sweep failed for draft")
		}
	}
	return nil
}

func (w *WindowApp) complete(ctx context.Context, draft *models.Draft) error {
	if err := w.repo.CompleteDraft(ctx, draft.ID); err != nil {
		return err
	}

	total, err := w.repo.CountPicks(ctx, draft.ID)
	if err != nil {
		total = 0
	}
	done := events.DraftCompletedPayload{
		DraftID:     draft.GUID.String(),
		TotalPicks:  total,
		CompletedAt: w.clock.Now(),
	}
	if err := w.publisher.Publish(ctx, events.TypeDraftCompleted, draft.GUID, done); err != nil {
		log.Error().Err(err).Str("draft_id", draft.GUID.String()).Msg("failed to publish DraftCompleted event")
	}

	log.Info().Str("draft_id", draft.GUID.String()).Msg("draft completed")
	return nil
}
