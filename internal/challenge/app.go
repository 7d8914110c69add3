package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/events"
	"github.com/draftnight/draftnight/internal/models"
)

// Repository defines what the challenge protocol needs from storage.
type Repository interface {
	GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error)
	GetParticipant(ctx context.Context, draftID int64, actorID string) (*models.Participant, error)
	CountParticipants(ctx context.Context, draftID int64) (int, error)
	CountPicks(ctx context.Context, draftID int64) (int, error)
	GetLatestPick(ctx context.Context, draftID int64) (*models.Pick, error)
	GetPendingChallenge(ctx context.Context, draftID int64) (*models.Challenge, error)
	// CreateChallenge inserts the pending row and moves the draft into the
	// CHALLENGE state atomically.
	CreateChallenge(ctx context.Context, draftID int64, pickNumber int, challengedActorID, challengerActorID string) (*models.Challenge, error)
	ListVotes(ctx context.Context, challengeID int64) ([]models.ChallengeVote, error)
	// InsertVote must reject a duplicate (challenge, voter) pair with a
	// Conflict.
	InsertVote(ctx context.Context, challengeID int64, voterActorID string, vote bool) error
	// RollbackPick applies an upheld challenge atomically. It must be a no-op
	// returning Conflict if the challenge is no longer pending.
	RollbackPick(ctx context.Context, params RollbackParams) error
	// Dismiss applies a rejected challenge atomically, with the same
	// pending-only guard.
	Dismiss(ctx context.Context, params DismissParams) error
}

// App runs the challenge voting protocol over the most recent pick.
type App struct {
	repo      Repository
	publisher events.Publisher
	clock     clockwork.Clock
}

// NewApp creates the challenge protocol.
func NewApp(repo Repository, publisher events.Publisher, clock clockwork.Clock) *App {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &App{repo: repo, publisher: publisher, clock: clock}
}

// Raise contests the most recent pick. Any participant other than the pick's
// author may raise; one pending challenge per draft.
func (a *App) Raise(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) (*models.Challenge, error) {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}
	if draft.State != models.DraftStateActive && draft.State != models.DraftStateChallengeWindow {
		return nil, apperr.Conflict("draft cannot be challenged right now")
	}

	if _, err := a.repo.GetParticipant(ctx, draft.ID, actor.ID); err != nil {
		return nil, apperr.Forbidden("you are not a participant in this draft")
	}

	latest, err := a.repo.GetLatestPick(ctx, draft.ID)
	if err != nil {
		return nil, apperr.NotFound("there is no pick to challenge")
	}
	if latest.ActorID == actor.ID {
		return nil, apperr.Forbidden("you cannot challenge your own pick")
	}

	if _, err := a.repo.GetPendingChallenge(ctx, draft.ID); err == nil {
		return nil, apperr.Conflict("a challenge is already pending")
	}

	ch, err := a.repo.CreateChallenge(ctx, draft.ID, latest.PickNumber, latest.ActorID, actor.ID)
	if err != nil {
		return nil, err
	}

	raised := events.ChallengeRaisedPayload{
		DraftID:           draft.GUID.String(),
		ChallengeID:       ch.ID,
		PickNumber:        ch.PickNumber,
		ChallengerActorID: ch.ChallengerActorID,
		ChallengedActorID: ch.ChallengedActorID,
		RaisedAt:          ch.CreatedAt,
	}
	if err := a.publisher.Publish(ctx, events.TypeChallengeRaised, draft.GUID, raised); err != nil {
		log.Error().Err(err).Str("draft_id", draft.GUID.String()).Msg("failed to publish ChallengeRaised event")
	}

	log.Info().
		Str("draft_id", draft.GUID.String()).
		Int("pick_number", ch.PickNumber).
		Str("challenger", actor.ID).
		Msg("challenge raised")
	return ch, nil
}

// Vote records one participant's yes/no on the pending challenge and
// resolves it the moment the vote count crosses the quorum threshold.
// Resolution happens exactly once; votes arriving after it see Conflict
// because the challenge is no longer pending.
func (a *App) Vote(ctx context.Context, draftGUID uuid.UUID, actor models.Actor, vote bool) (*Status, error) {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}

	ch, err := a.repo.GetPendingChallenge(ctx, draft.ID)
	if err != nil {
		return nil, apperr.NotFound("no pending challenge")
	}

	if _, err := a.repo.GetParticipant(ctx, draft.ID, actor.ID); err != nil {
		return nil, apperr.Forbidden("you are not a participant in this draft")
	}
	if actor.ID == ch.ChallengedActorID {
		return nil, apperr.Forbidden("the challenged player cannot vote")
	}

	if err := a.repo.InsertVote(ctx, ch.ID, actor.ID, vote); err != nil {
		if apperr.IsKind(err, apperr.KindConflict) {
			return nil, apperr.Conflict("you already voted on this challenge")
		}
		return nil, err
	}

	votes, err := a.repo.ListVotes(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	numParticipants, err := a.repo.CountParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}

	tally := tallyVotes(votes, numParticipants)
	if len(votes) >= tally.Threshold {
		if err := a.resolve(ctx, draft, ch, tally); err != nil {
			return nil, err
		}
	}

	mine := vote
	return &Status{Challenge: ch, Tally: &tally, YourVote: &mine}, nil
}

// GetStatus returns the pending challenge, tallies and the requesting
// actor's own vote, for the polling UI.
func (a *App) GetStatus(ctx context.Context, draftGUID uuid.UUID, actor *models.Actor) (*Status, error) {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}

	ch, err := a.repo.GetPendingChallenge(ctx, draft.ID)
	if err != nil {
		return &Status{}, nil
	}

	votes, err := a.repo.ListVotes(ctx, ch.ID)
	if err != nil {
		return nil, err
	}
	numParticipants, err := a.repo.CountParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}

	tally := tallyVotes(votes, numParticipants)
	status := &Status{Challenge: ch, Tally: &tally}
	if actor != nil {
		for _, v := range votes {
			if v.VoterActorID == actor.ID {
				vote := v.Vote
				status.YourVote = &vote
				break
			}
		}
	}
	return status, nil
}

func (a *App) resolve(ctx context.Context, draft *models.Draft, ch *models.Challenge, tally VoteTally) error {
	now := a.clock.Now()
	upheld := tally.VotesFor >= tally.Threshold

	if upheld {
		challenged, err := a.repo.GetParticipant(ctx, draft.ID, ch.ChallengedActorID)
		if err != nil {
			return err
		}
		if challenged.Position == nil {
			return apperr.Internal(nil)
		}
		err = a.repo.RollbackPick(ctx, RollbackParams{
			ChallengeID:   ch.ID,
			DraftID:       draft.ID,
			PickNumber:    ch.PickNumber,
			RestorePos:    *challenged.Position,
			TurnStartedAt: now,
			ResolvedAt:    now,
		})
		if err != nil {
			return err
		}
		ch.Status = models.ChallengeStatusResolved
	} else {
		// The pick stands. The clock position stays wherever the turn had
		// already advanced before the challenge was raised.
		nextState := models.DraftStateActive
		var turnStartedAt *time.Time
		numParticipants, err := a.repo.CountParticipants(ctx, draft.ID)
		if err != nil {
			return err
		}
		count, err := a.repo.CountPicks(ctx, draft.ID)
		if err != nil {
			return err
		}
		if count >= draft.TotalPicks(numParticipants) {
			// Final pick upheld: reopen the challenge window with a fresh
			// clock so it cannot expire mid-vote.
			nextState = models.DraftStateChallengeWindow
			turnStartedAt = &now
		}
		err = a.repo.Dismiss(ctx, DismissParams{
			ChallengeID:   ch.ID,
			DraftID:       draft.ID,
			NextState:     nextState,
			TurnStartedAt: turnStartedAt,
			ResolvedAt:    now,
		})
		if err != nil {
			return err
		}
		ch.Status = models.ChallengeStatusDismissed
	}
	ch.ResolvedAt = &now

	resolved := events.ChallengeResolvedPayload{
		DraftID:     draft.GUID.String(),
		ChallengeID: ch.ID,
		PickNumber:  ch.PickNumber,
		Upheld:      upheld,
		ResolvedAt:  now,
	}
	if err := a.publisher.Publish(ctx, events.TypeChallengeResolved, draft.GUID, resolved); err != nil {
		log.Error().Err(err).Str("draft_id", draft.GUID.String()).Msg("failed to publish ChallengeResolved event")
	}

	log.Info().
		Str("draft_id", draft.GUID.String()).
		Int("pick_number", ch.PickNumber).
		Bool("upheld", upheld).
		Msg("challenge resolved")
	return nil
}

func tallyVotes(votes []models.ChallengeVote, numParticipants int) VoteTally {
	eligible := numParticipants - 1 // challenged author never votes
	tally := VoteTally{
		Eligible:  eligible,
		Threshold: (eligible + 1) / 2, // ceil(eligible / 2)
	}
	for _, v := range votes {
		if v.Vote {
			tally.VotesFor++
		} else {
			tally.VotesAgainst++
		}
	}
	return tally
}
