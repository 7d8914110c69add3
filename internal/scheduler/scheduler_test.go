package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftnight/draftnight/internal/models"
)

type stubRepo struct {
	mu     sync.Mutex
	drafts []models.Draft
	err    error
	calls  chan struct{}
}

func (r *stubRepo) ListActiveTimedDrafts(ctx context.Context, limit int) ([]models.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls != nil {
		r.calls <- struct{}{}
	}
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Draft, len(r.drafts))
	copy(out, r.drafts)
	return out, nil
}

type stubPicker struct {
	checked chan uuid.UUID
}

func (p *stubPicker) CheckAndAutoPick(ctx context.Context, draftGUID uuid.UUID) error {
	p.checked <- draftGUID
	return nil
}

type stubSweeper struct {
	swept chan struct{}
}

func (s *stubSweeper) SweepExpired(ctx context.Context, limit int) error {
	s.swept <- struct{}{}
	return nil
}

func recv[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		var zero T
		return zero
	}
}

func testConfig() Config {
	return Config{
		Interval:         10 * time.Second,
		BatchSize:        50,
		InterDraftDelay:  100 * time.Millisecond,
		FailureThreshold: 5,
		RestartDelay:     30 * time.Second,
	}
}

func timedDraft(clock clockwork.Clock, secPerRound int, age time.Duration, paused bool) models.Draft {
	started := clock.Now().Add(-age)
	return models.Draft{
		GUID:          uuid.New(),
		State:         models.DraftStateActive,
		SecPerRound:   secPerRound,
		TurnStartedAt: &started,
		TimerPaused:   paused,
	}
}

func TestSchedulerScanFiresOnlyExpiredDrafts(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))

	expired := timedDraft(clock, 30, 32*time.Second, false)
	fresh := timedDraft(clock, 30, 5*time.Second, false)
	paused := timedDraft(clock, 30, 2*time.Minute, true)

	repo := &stubRepo{drafts: []models.Draft{expired, fresh, paused}}
	picker := &stubPicker{checked: make(chan uuid.UUID)}
	sweeper := &stubSweeper{swept: make(chan struct{})}

	svc := New(repo, picker, sweeper, clock, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1)) // ticker armed
	clock.Advance(10 * time.Second)

	got := recv(t, picker.checked, "auto-pick check")
	require.Equal(t, expired.GUID, got)

	// The scan throttles between drafts, then sweeps windows. Only one draft
	// was actionable, so one delay stands between us and the sweep.
	require.NoError(t, clock.BlockUntilContext(ctx, 2)) // ticker + inter-draft delay
	clock.Advance(100 * time.Millisecond)
	recv(t, sweeper.swept, "window sweep")
}

func TestSchedulerSuspendsAfterRepeatedFailuresThenRestarts(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))

	repo := &stubRepo{err: errors.New("db down"), calls: make(chan struct{})}
	picker := &stubPicker{checked: make(chan uuid.UUID)}
	sweeper := &stubSweeper{swept: make(chan struct{})}

	cfg := testConfig()
	cfg.FailureThreshold = 2

	svc := New(repo, picker, sweeper, clock, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)
	recv(t, repo.calls, "first failing scan")

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)
	recv(t, repo.calls, "second failing scan")

	// Threshold reached: the ticker is stopped and a single delayed restart is
	// scheduled. Nothing happens until the restart delay elapses. The sleep
	// lets the loop swap the stopped ticker for the restart timer before we
	// advance.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, clock.BlockUntilContext(ctx, 1)) // the restart timer
	clock.Advance(30 * time.Second)

	require.NoError(t, clock.BlockUntilContext(ctx, 1)) // fresh ticker
	clock.Advance(10 * time.Second)
	recv(t, repo.calls, "scan after restart")
}

func TestShouldScanRejectsOverlappingTicks(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC))
	svc := New(&stubRepo{}, &stubPicker{}, &stubSweeper{}, clock, testConfig())

	require.True(t, svc.shouldScan())
	require.False(t, svc.shouldScan(), "a tick inside the interval is skipped")

	clock.Advance(9 * time.Second)
	require.False(t, svc.shouldScan())

	clock.Advance(time.Second)
	require.True(t, svc.shouldScan())
}
