// Package scheduler runs the process-wide background scan that fires
// auto-picks for expired turns and closes lapsed challenge windows. It is
// deliberately best-effort: a missed or doubled tick is safe because every
// engine invocation is idempotent.
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/pick"
)

// Repository defines what the scheduler needs from storage.
type Repository interface {
	ListActiveTimedDrafts(ctx context.Context, limit int) ([]models.Draft, error)
}

// AutoPicker is the auto-pick engine entry point.
type AutoPicker interface {
	CheckAndAutoPick(ctx context.Context, draftGUID uuid.UUID) error
}

// WindowSweeper closes lapsed challenge windows in bulk.
type WindowSweeper interface {
	SweepExpired(ctx context.Context, limit int) error
}

// Config bounds the scan loop.
type Config struct {
	Interval         time.Duration
	BatchSize        int
	InterDraftDelay  time.Duration
	FailureThreshold int
	RestartDelay     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Interval:         10 * time.Second,
		BatchSize:        50,
		InterDraftDelay:  100 * time.Millisecond,
		FailureThreshold: 5,
		RestartDelay:     30 * time.Second,
	}
}

// Service is an explicitly constructed background task: the host process
// starts it with Run and stops it by cancelling the context. After too many
// consecutive failing scans it suspends itself and schedules a single
// delayed restart instead of spinning on a broken dependency.
type Service struct {
	repo       Repository
	autoPicker AutoPicker
	windows    WindowSweeper
	clock      clockwork.Clock
	cfg        Config
	instanceID string

	lastScanStarted time.Time
}

// New creates a scheduler service.
func New(repo Repository, autoPicker AutoPicker, windows WindowSweeper, clock clockwork.Clock, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		repo:       repo,
		autoPicker: autoPicker,
		windows:    windows,
		clock:      clock,
		cfg:        cfg,
		instanceID: uuid.New().String()[:8],
	}
}

// Run blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log.Info().
		Str("instance", s.instanceID).
		Dur("interval", s.cfg.Interval).
		Msg("scheduler started")

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	consecutiveFailures := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("instance", s.instanceID).Msg("scheduler shutdown requested")
			return ctx.Err()
		case <-ticker.Chan():
			if !s.shouldScan() {
				continue
			}
			if err := s.scan(ctx); err != nil {
				consecutiveFailures++
				log.Error().
					Err(err).
					Str("instance", s.instanceID).
					Int("consecutive_failures", consecutiveFailures).
					Msg("scheduler scan failed")
			} else {
				consecutiveFailures = 0
			}

			if consecutiveFailures >= s.cfg.FailureThreshold {
				log.Warn().
					Str("instance", s.instanceID).
					Dur("restart_delay", s.cfg.RestartDelay).
					Msg("scheduler suspending after repeated failures")
				ticker.Stop()
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-s.clock.After(s.cfg.RestartDelay):
				}
				consecutiveFailures = 0
				ticker = s.clock.NewTicker(s.cfg.Interval)
				log.Info().Str("instance", s.instanceID).Msg("scheduler restarted")
			}
		}
	}
}

// shouldScan is the re-entrancy guard: a tick arriving before the minimum
// interval has elapsed since the previous scan started is a no-op, so a
// long-running scan is never overlapped.
func (s *Service) shouldScan() bool {
	now := s.clock.Now()
	if !s.lastScanStarted.IsZero() && now.Sub(s.lastScanStarted) < s.cfg.Interval {
		log.Debug().Str("instance", s.instanceID).Msg("skipping overlapping scheduler tick")
		return false
	}
	s.lastScanStarted = now
	return true
}

// scan walks all active timed drafts and fires the auto-pick engine for each
// whose turn has expired, with a small delay between drafts to bound write
// load, then sweeps lapsed challenge windows.
func (s *Service) scan(ctx context.Context) error {
	drafts, err := s.repo.ListActiveTimedDrafts(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, d := range drafts {
		if d.TurnStartedAt == nil || d.TimerPaused {
			continue
		}
		elapsed := int(now.Sub(*d.TurnStartedAt).Seconds())
		if elapsed <= d.SecPerRound+pick.TimerGraceSec {
			continue
		}

		if err := s.autoPicker.CheckAndAutoPick(ctx, d.GUID); err != nil {
			log.Error().
				Err(err).
				Str("draft_id", d.GUID.String()).
				Msg("scheduled auto-pick failed")
			// keep going; the failure counter only tracks whole-scan errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.cfg.InterDraftDelay):
		}
	}

	if s.windows != nil {
		if err := s.windows.SweepExpired(ctx, s.cfg.BatchSize); err != nil {
			return err
		}
	}
	return nil
}
