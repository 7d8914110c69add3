package challenge_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/challenge"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/memstore"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/pick"
)

type fixture struct {
	st         *memstore.Store
	drafts     *draft.App
	picks      *pick.App
	challenges *challenge.App
	windows    *challenge.WindowApp
	clock      *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))
	st := memstore.New(clock)
	return &fixture{
		st:         st,
		drafts:     draft.NewApp(st, nil, clock),
		picks:      pick.NewApp(st, nil, clock),
		challenges: challenge.NewApp(st, nil, clock),
		windows:    challenge.NewWindowApp(st, nil, clock),
		clock:      clock,
	}
}

func (f *fixture) startedDraft(t *testing.T, req draft.CreateDraftRequest, numJoin int) (*models.Draft, []models.Actor) {
	t.Helper()
	ctx := context.Background()

	admin := models.Actor{Kind: models.ActorKindUser, ID: "user:1"}
	created, err := f.drafts.CreateDraft(ctx, admin, req)
	require.NoError(t, err)
	for i := 0; i < numJoin; i++ {
		actor := models.Actor{Kind: models.ActorKindUser, ID: fmt.Sprintf("user:%d", i+1)}
		_, err := f.drafts.Join(ctx, created.GUID, actor, draft.JoinRequest{
			DisplayName: fmt.Sprintf("Player %d", i+1),
		})
		require.NoError(t, err)
	}
	started, err := f.drafts.Start(ctx, created.GUID, admin)
	require.NoError(t, err)

	seats := make([]models.Actor, numJoin)
	for pos := 1; pos <= numJoin; pos++ {
		p, err := f.st.GetParticipantByPosition(ctx, started.ID, pos)
		require.NoError(t, err)
		seats[pos-1] = p.Actor()
	}
	return started, seats
}

func (f *fixture) submit(t *testing.T, d *models.Draft, actor models.Actor, payload string) {
	t.Helper()
	_, err := f.picks.SubmitPick(context.Background(), pick.SubmitPickRequest{
		DraftGUID: d.GUID,
		Actor:     actor,
		Payload:   payload,
	})
	require.NoError(t, err)
}

func fiveSeatReq() draft.CreateDraftRequest {
	return draft.CreateDraftRequest{
		Name:        "Album Draft",
		MaxDrafters: 5,
		Rounds:      1,
		Freeform:    true,
	}
}

func TestRaiseChallenge(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, fiveSeatReq(), 5)
	ctx := context.Background()

	// Nothing to challenge yet.
	_, err := f.challenges.Raise(ctx, d.GUID, seats[1])
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))

	f.submit(t, d, seats[0], "Thriller")

	stranger := models.Actor{Kind: models.ActorKindGuest, ID: "guest:lurker"}
	_, err = f.challenges.Raise(ctx, d.GUID, stranger)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.challenges.Raise(ctx, d.GUID, seats[0])
	require.True(t, apperr.IsKind(err, apperr.KindForbidden), "cannot challenge your own pick")

	ch, err := f.challenges.Raise(ctx, d.GUID, seats[1])
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusPending, ch.Status)
	require.Equal(t, 1, ch.PickNumber)
	require.Equal(t, seats[0].ID, ch.ChallengedActorID)

	// Raising freezes the draft: no picks, no second challenge.
	_, err = f.picks.SubmitPick(ctx, pick.SubmitPickRequest{
		DraftGUID: d.GUID, Actor: seats[1], Payload: "Purple Rain",
	})
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	_, err = f.challenges.Raise(ctx, d.GUID, seats[2])
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestVoteGuards(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, fiveSeatReq(), 5)
	ctx := context.Background()

	f.submit(t, d, seats[0], "Thriller")
	_, err := f.challenges.Raise(ctx, d.GUID, seats[1])
	require.NoError(t, err)

	_, err = f.challenges.Vote(ctx, d.GUID, seats[0], true)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden), "challenged author cannot vote")

	_, err = f.challenges.Vote(ctx, d.GUID, seats[1], true)
	require.NoError(t, err)
	_, err = f.challenges.Vote(ctx, d.GUID, seats[1], false)
	require.True(t, apperr.IsKind(err, apperr.KindConflict), "one vote per participant")
}

// Five seats: four eligible voters, quorum threshold two.
func TestChallengeUpheldRollsBackPick(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, fiveSeatReq(), 5)
	ctx := context.Background()

	f.submit(t, d, seats[0], "Thriller")
	_, err := f.challenges.Raise(ctx, d.GUID, seats[1])
	require.NoError(t, err)

	status, err := f.challenges.Vote(ctx, d.GUID, seats[1], true)
	require.NoError(t, err)
	require.Equal(t, 4, status.Tally.Eligible)
	require.Equal(t, 2, status.Tally.Threshold)
	require.Equal(t, models.ChallengeStatusPending, status.Challenge.Status)

	status, err = f.challenges.Vote(ctx, d.GUID, seats[2], true)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusResolved, status.Challenge.Status)

	// The pick is gone and the challenged seat is back on the clock with a
	// fresh timer.
	count, err := f.st.CountPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	after, err := f.st.GetDraftByGUID(ctx, d.GUID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStateActive, after.State)
	require.Equal(t, 1, *after.CurrentPositionOnClock)
	require.True(t, after.TurnStartedAt.Equal(f.clock.Now()))

	// Votes after resolution find no pending challenge.
	_, err = f.challenges.Vote(ctx, d.GUID, seats[3], true)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestChallengeDismissedLeavesPickStanding(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, fiveSeatReq(), 5)
	ctx := context.Background()

	f.submit(t, d, seats[0], "Thriller")
	_, err := f.challenges.Raise(ctx, d.GUID, seats[1])
	require.NoError(t, err)

	_, err = f.challenges.Vote(ctx, d.GUID, seats[1], true)
	require.NoError(t, err)
	status, err := f.challenges.Vote(ctx, d.GUID, seats[2], false)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusDismissed, status.Challenge.Status)

	count, err := f.st.CountPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// The clock position stays wherever the committed pick left it: seat 2.
	after, err := f.st.GetDraftByGUID(ctx, d.GUID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStateActive, after.State)
	require.Equal(t, 2, *after.CurrentPositionOnClock)
}

func TestFinalPickChallengeDismissedReopensWindow(t *testing.T) {
	f := newFixture(t)
	req := draft.CreateDraftRequest{
		Name:             "Duet Draft",
		MaxDrafters:      2,
		Rounds:           1,
		Freeform:         true,
		ChallengeEnabled: true,
	}
	d, seats := f.startedDraft(t, req, 2)
	ctx := context.Background()

	f.submit(t, d, seats[0], "Hey Jude")
	f.submit(t, d, seats[1], "Respect")

	windowed, err := f.st.GetDraftByGUID(ctx, d.GUID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStateChallengeWindow, windowed.State)

	f.clock.Advance(20 * time.Second)
	_, err = f.challenges.Raise(ctx, d.GUID, seats[0])
	require.NoError(t, err)

	// One eligible voter, threshold one; a no vote dismisses.
	status, err := f.challenges.Vote(ctx, d.GUID, seats[0], false)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusDismissed, status.Challenge.Status)

	// The window reopens with a fresh clock so it cannot lapse mid-vote.
	after, err := f.st.GetDraftByGUID(ctx, d.GUID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStateChallengeWindow, after.State)
	require.True(t, after.TurnStartedAt.Equal(f.clock.Now()))
}

func TestFinalPickChallengeUpheldReopensDraft(t *testing.T) {
	f := newFixture(t)
	req := draft.CreateDraftRequest{
		Name:             "Duet Draft",
		MaxDrafters:      2,
		Rounds:           1,
		Freeform:         true,
		ChallengeEnabled: true,
	}
	d, seats := f.startedDraft(t, req, 2)
	ctx := context.Background()

	f.submit(t, d, seats[0], "Hey Jude")
	f.submit(t, d, seats[1], "Respect")

	_, err := f.challenges.Raise(ctx, d.GUID, seats[0])
	require.NoError(t, err)
	status, err := f.challenges.Vote(ctx, d.GUID, seats[0], true)
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusResolved, status.Challenge.Status)

	after, err := f.st.GetDraftByGUID(ctx, d.GUID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStateActive, after.State)
	require.Equal(t, 2, *after.CurrentPositionOnClock, "challenged seat redoes the final pick")

	count, err := f.st.CountPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, fiveSeatReq(), 5)
	ctx := context.Background()

	status, err := f.challenges.GetStatus(ctx, d.GUID, &seats[0])
	require.NoError(t, err)
	require.Nil(t, status.Challenge)

	f.submit(t, d, seats[0], "Thriller")
	_, err = f.challenges.Raise(ctx, d.GUID, seats[1])
	require.NoError(t, err)
	_, err = f.challenges.Vote(ctx, d.GUID, seats[1], true)
	require.NoError(t, err)

	status, err = f.challenges.GetStatus(ctx, d.GUID, &seats[1])
	require.NoError(t, err)
	require.NotNil(t, status.Challenge)
	require.Equal(t, 1, status.Tally.VotesFor)
	require.NotNil(t, status.YourVote)
	require.True(t, *status.YourVote)

	// Non-voters see the tally but no own vote.
	status, err = f.challenges.GetStatus(ctx, d.GUID, &seats[2])
	require.NoError(t, err)
	require.Nil(t, status.YourVote)
}
