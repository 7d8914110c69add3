package draft_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/memstore"
	"github.com/draftnight/draftnight/internal/models"
)

type fixture struct {
	st     *memstore.Store
	drafts *draft.App
	clock  *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))
	st := memstore.New(clock)
	return &fixture{st: st, drafts: draft.NewApp(st, nil, clock), clock: clock}
}

func user(n int) models.Actor {
	return models.Actor{Kind: models.ActorKindUser, ID: fmt.Sprintf("user:%d", n)}
}

func validReq() draft.CreateDraftRequest {
	return draft.CreateDraftRequest{
		Name:        "Road Trip Stops",
		MaxDrafters: 4,
		Rounds:      3,
		Freeform:    true,
	}
}

func TestCreateDraftValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*draft.CreateDraftRequest)
	}{
		{"empty name", func(r *draft.CreateDraftRequest) { r.Name = "  " }},
		{"name too long", func(r *draft.CreateDraftRequest) { r.Name = strings.Repeat("x", draft.MaxNameLen+1) }},
		{"zero rounds", func(r *draft.CreateDraftRequest) { r.Rounds = 0 }},
		{"too many rounds", func(r *draft.CreateDraftRequest) { r.Rounds = draft.MaxRounds + 1 }},
		{"one drafter", func(r *draft.CreateDraftRequest) { r.MaxDrafters = 1 }},
		{"too many drafters", func(r *draft.CreateDraftRequest) { r.MaxDrafters = draft.MaxDraftersCap + 1 }},
		{"timer below minimum", func(r *draft.CreateDraftRequest) { r.SecPerRound = draft.MinSecPerRound - 1 }},
		{"timer above maximum", func(r *draft.CreateDraftRequest) { r.SecPerRound = draft.MaxSecPerRound + 1 }},
		{"curated pool too small", func(r *draft.CreateDraftRequest) {
			r.Freeform = false
			r.Options = []string{"only one"} // needs rounds * max_drafters
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validReq()
			tc.mutate(&req)
			_, err := f.drafts.CreateDraft(ctx, user(1), req)
			require.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}

	created, err := f.drafts.CreateDraft(ctx, user(1), validReq())
	require.NoError(t, err)
	require.Equal(t, models.DraftStateSettingUp, created.State)
	require.Equal(t, "user:1", created.AdminActorID)
	require.NotNil(t, created.JoinCode)
	require.Len(t, *created.JoinCode, 4)
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validReq()
	req.MaxDrafters = 2
	created, err := f.drafts.CreateDraft(ctx, user(1), req)
	require.NoError(t, err)

	p1, err := f.drafts.Join(ctx, created.GUID, user(1), draft.JoinRequest{DisplayName: "Sam"})
	require.NoError(t, err)
	require.Equal(t, "Sam", p1.DisplayName)

	// Joining twice is idempotent, not an error.
	again, err := f.drafts.Join(ctx, created.GUID, user(1), draft.JoinRequest{DisplayName: "Somebody Else"})
	require.NoError(t, err)
	require.Equal(t, p1.ID, again.ID)

	// A second Sam gets suffixed.
	p2, err := f.drafts.Join(ctx, created.GUID, user(2), draft.JoinRequest{DisplayName: "sam"})
	require.NoError(t, err)
	require.Equal(t, "sam (2)", p2.DisplayName)

	// The table is full.
	_, err = f.drafts.Join(ctx, created.GUID, user(3), draft.JoinRequest{DisplayName: "Alex"})
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestJoinByCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.drafts.CreateDraft(ctx, user(1), validReq())
	require.NoError(t, err)

	guest := models.Actor{Kind: models.ActorKindGuest, ID: "guest:tok"}
	p, err := f.drafts.Join(ctx, created.GUID, guest, draft.JoinRequest{
		DisplayName: "Drop-In",
		JoinCode:    *created.JoinCode,
	})
	require.NoError(t, err)
	require.True(t, p.IsGuest)

	_, err = f.drafts.Join(ctx, created.GUID, user(2), draft.JoinRequest{
		DisplayName: "Lost",
		JoinCode:    "0000x",
	})
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.drafts.CreateDraft(ctx, user(1), validReq())
	require.NoError(t, err)

	_, err = f.drafts.Join(ctx, created.GUID, user(1), draft.JoinRequest{DisplayName: "Sam"})
	require.NoError(t, err)

	// Two participants minimum.
	_, err = f.drafts.Start(ctx, created.GUID, user(1))
	require.True(t, apperr.IsKind(err, apperr.KindConflict))

	for i := 2; i <= 4; i++ {
		_, err = f.drafts.Join(ctx, created.GUID, user(i), draft.JoinRequest{DisplayName: fmt.Sprintf("Player %d", i)})
		require.NoError(t, err)
	}

	// Admin only.
	_, err = f.drafts.Start(ctx, created.GUID, user(2))
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	started, err := f.drafts.Start(ctx, created.GUID, user(1))
	require.NoError(t, err)
	require.Equal(t, models.DraftStateActive, started.State)
	require.Equal(t, 1, *started.CurrentPositionOnClock)
	require.NotNil(t, started.TurnStartedAt)
	require.Nil(t, started.JoinCode, "join code is cleared on start")

	// Seats are a permutation of 1..N.
	participants, err := f.st.ListParticipants(ctx, started.ID)
	require.NoError(t, err)
	seen := make(map[int]bool)
	for _, p := range participants {
		require.NotNil(t, p.Position)
		require.False(t, seen[*p.Position])
		seen[*p.Position] = true
	}
	require.Len(t, seen, 4)

	// No restart.
	_, err = f.drafts.Start(ctx, created.GUID, user(1))
	require.True(t, apperr.IsKind(err, apperr.KindConflict))

	// No late joiners.
	_, err = f.drafts.Join(ctx, created.GUID, user(9), draft.JoinRequest{DisplayName: "Late"})
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestPauseAndResumeRearmsTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validReq()
	req.SecPerRound = 60
	req.MaxDrafters = 2
	created, err := f.drafts.CreateDraft(ctx, user(1), req)
	require.NoError(t, err)
	for i := 1; i <= 2; i++ {
		_, err = f.drafts.Join(ctx, created.GUID, user(i), draft.JoinRequest{DisplayName: fmt.Sprintf("Player %d", i)})
		require.NoError(t, err)
	}
	_, err = f.drafts.Start(ctx, created.GUID, user(1))
	require.NoError(t, err)

	err = f.drafts.PauseTimer(ctx, created.GUID, user(2))
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	require.NoError(t, f.drafts.PauseTimer(ctx, created.GUID, user(1)))
	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.drafts.ResumeTimer(ctx, created.GUID, user(1)))

	after, err := f.st.GetDraftByGUID(ctx, created.GUID)
	require.NoError(t, err)
	require.False(t, after.TimerPaused)
	require.True(t, after.TurnStartedAt.Equal(f.clock.Now()), "resume grants a full fresh round")
}

func TestGetStateHidesJoinCodeFromNonAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.drafts.CreateDraft(ctx, user(1), validReq())
	require.NoError(t, err)

	admin := user(1)
	view, err := f.drafts.GetState(ctx, created.GUID, &admin)
	require.NoError(t, err)
	require.NotNil(t, view.Draft.JoinCode)

	other := user(2)
	view, err = f.drafts.GetState(ctx, created.GUID, &other)
	require.NoError(t, err)
	require.Nil(t, view.Draft.JoinCode)

	view, err = f.drafts.GetState(ctx, created.GUID, nil)
	require.NoError(t, err)
	require.Nil(t, view.Draft.JoinCode)
}

func TestGetStateTimerFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validReq()
	req.SecPerRound = 30
	req.MaxDrafters = 2
	created, err := f.drafts.CreateDraft(ctx, user(1), req)
	require.NoError(t, err)
	for i := 1; i <= 2; i++ {
		_, err = f.drafts.Join(ctx, created.GUID, user(i), draft.JoinRequest{DisplayName: fmt.Sprintf("Player %d", i)})
		require.NoError(t, err)
	}
	_, err = f.drafts.Start(ctx, created.GUID, user(1))
	require.NoError(t, err)

	f.clock.Advance(10 * time.Second)
	view, err := f.drafts.GetState(ctx, created.GUID, nil)
	require.NoError(t, err)
	require.Equal(t, 10, *view.TimeElapsedSec)
	require.Equal(t, 20, *view.TimeRemainingSec)

	// Past the budget the countdown clamps at zero rather than going negative.
	f.clock.Advance(25 * time.Second)
	view, err = f.drafts.GetState(ctx, created.GUID, nil)
	require.NoError(t, err)
	require.Equal(t, 0, *view.TimeRemainingSec)
}
