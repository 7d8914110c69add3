package autopick

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/memstore"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/pick"
)

type fixture struct {
	st     *memstore.Store
	drafts *draft.App
	picks  *pick.App
	engine *App
	clock  *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))
	st := memstore.New(clock)
	picks := pick.NewApp(st, nil, clock)
	return &fixture{
		st:     st,
		drafts: draft.NewApp(st, nil, clock),
		picks:  picks,
		engine: NewApp(st, picks, clock),
		clock:  clock,
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

func timedFreeformReq(name string) draft.CreateDraftRequest {
	return draft.CreateDraftRequest{
		Name:        name,
		MaxDrafters: 2,
		SecPerRound: 30,
		Rounds:      2,
		Freeform:    true,
	}
}

func TestCheckAndAutoPickGuardsAreSilentNoOps(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown draft", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.engine.CheckAndAutoPick(ctx, uuid.New()))
	})

	t.Run("draft not started", func(t *testing.T) {
		f := newFixture(t)
		admin := models.Actor{Kind: models.ActorKindUser, ID: "user:1"}
		created, err := f.drafts.CreateDraft(ctx, admin, timedFreeformReq("Setup Draft"))
		require.NoError(t, err)
		require.NoError(t, f.engine.CheckAndAutoPick(ctx, created.GUID))
		requirePickCount(t, f, created.ID, 0)
	})

	t.Run("untimed draft never fires", func(t *testing.T) {
		f := newFixture(t)
		req := timedFreeformReq("Untimed Draft")
		req.SecPerRound = 0
		d, _ := f.startedDraft(t, req, 2)
		f.clock.Advance(time.Hour)
		require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))
		requirePickCount(t, f, d.ID, 0)
	})

	t.Run("turn not yet expired", func(t *testing.T) {
		f := newFixture(t)
		d, _ := f.startedDraft(t, timedFreeformReq("Fast Draft"), 2)
		f.clock.Advance(29 * time.Second)
		require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))
		requirePickCount(t, f, d.ID, 0)
	})

	t.Run("paused timer", func(t *testing.T) {
		f := newFixture(t)
		d, _ := f.startedDraft(t, timedFreeformReq("Paused Draft"), 2)
		admin := models.Actor{Kind: models.ActorKindUser, ID: "user:1"}
		require.NoError(t, f.drafts.PauseTimer(ctx, d.GUID, admin))
		f.clock.Advance(time.Hour)
		require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))
		requirePickCount(t, f, d.ID, 0)
	})
}

func TestCheckAndAutoPickCommitsThemedFallback(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, timedFreeformReq("Movie Night Draft"), 2)
	ctx := context.Background()

	f.clock.Advance(31 * time.Second)
	require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))

	picks, err := f.st.ListPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	require.True(t, picks[0].Auto)
	require.Equal(t, seats[0].ID, picks[0].ActorID)
	require.Equal(t, "The Godfather", picks[0].Payload, "movie-themed draft gets a movie")

	after, err := f.st.GetDraftByGUID(ctx, d.GUID)
	require.NoError(t, err)
	require.Equal(t, 2, *after.CurrentPositionOnClock)
	require.Equal(t, f.clock.Now(), *after.TurnStartedAt, "timer re-armed for the next seat")
}

// The scheduler only calls in once the grace allowance is spent, so the
// engine must commit well past it, not just at the edge.
func TestCheckAndAutoPickCommitsLongAfterExpiry(t *testing.T) {
	f := newFixture(t)
	d, _ := f.startedDraft(t, timedFreeformReq("Sleepy Draft"), 2)
	ctx := context.Background()

	f.clock.Advance(45 * time.Second)
	require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))
	requirePickCount(t, f, d.ID, 1)

	picks, err := f.st.ListPicks(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, picks[0].Auto)
	require.Equal(t, 45, *picks[0].TimeTakenSec)
}

func TestCheckAndAutoPickConcurrentCallersProduceOnePick(t *testing.T) {
	f := newFixture(t)
	d, _ := f.startedDraft(t, timedFreeformReq("Crowded Draft"), 2)
	ctx := context.Background()

	f.clock.Advance(31 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.engine.CheckAndAutoPick(ctx, d.GUID)
		}()
	}
	wg.Wait()

	requirePickCount(t, f, d.ID, 1)
}

func TestAutoPickPrefersQueuedEntry(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, timedFreeformReq("Road Trip Draft"), 2)
	ctx := context.Background()

	entry, err := f.st.InsertQueueEntry(ctx, d.ID, seats[0].ID, "Grand Canyon", nil)
	require.NoError(t, err)

	f.clock.Advance(31 * time.Second)
	require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))

	picks, err := f.st.ListPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	require.Equal(t, "Grand Canyon", picks[0].Payload)

	_, err = f.st.NextQueueEntry(ctx, d.ID, seats[0].ID)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound), "consumed entry %d must be burned", entry.ID)
}

func TestAutoPickIgnoresQueueWhenDisabled(t *testing.T) {
	f := newFixture(t)
	d, seats := f.startedDraft(t, timedFreeformReq("Quiet Draft"), 2)
	ctx := context.Background()

	_, err := f.st.InsertQueueEntry(ctx, d.ID, seats[0].ID, "Niagara Falls", nil)
	require.NoError(t, err)
	f.st.SetAutopickEnabled(d.ID, seats[0].ID, false)

	f.clock.Advance(31 * time.Second)
	require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))

	picks, err := f.st.ListPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	require.NotEqual(t, "Niagara Falls", picks[0].Payload)
}

func TestAutoPickCuratedDraftTakesUnusedOption(t *testing.T) {
	f := newFixture(t)
	d, _ := f.startedDraft(t, draft.CreateDraftRequest{
		Name:        "Snack Draft",
		MaxDrafters: 2,
		SecPerRound: 30,
		Rounds:      1,
		Options:     []string{"Pretzels", "Popcorn"},
	}, 2)
	ctx := context.Background()

	f.clock.Advance(31 * time.Second)
	require.NoError(t, f.engine.CheckAndAutoPick(ctx, d.GUID))

	picks, err := f.st.ListPicks(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	require.NotNil(t, picks[0].OptionID)

	unused, err := f.st.ListUnusedOptions(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, unused, 1, "exactly one option flipped")
}

func TestForceAutoPick(t *testing.T) {
	f := newFixture(t)
	d, _ := f.startedDraft(t, timedFreeformReq("Stalled Draft"), 2)
	ctx := context.Background()

	admin := models.Actor{Kind: models.ActorKindUser, ID: "user:1"}
	other := models.Actor{Kind: models.ActorKindUser, ID: "user:2"}

	err := f.engine.ForceAutoPick(ctx, d.GUID, other)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	// No expiry needed: the admin can push through a fresh turn.
	require.NoError(t, f.engine.ForceAutoPick(ctx, d.GUID, admin))
	requirePickCount(t, f, d.ID, 1)

	// And through a long-dead one.
	f.clock.Advance(5 * time.Minute)
	require.NoError(t, f.engine.ForceAutoPick(ctx, d.GUID, admin))
	requirePickCount(t, f, d.ID, 2)
}

func requirePickCount(t *testing.T, f *fixture, draftID int64, want int) {
	t.Helper()
	count, err := f.st.CountPicks(context.Background(), draftID)
	require.NoError(t, err)
	require.Equal(t, want, count)
}
