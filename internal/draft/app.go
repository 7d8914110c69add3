package draft

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/events"
	"github.com/draftnight/draftnight/internal/models"
)

// Repository defines what the draft lifecycle needs from storage.
type Repository interface {
	CreateDraft(ctx context.Context, params CreateDraftParams) (*models.Draft, error)
	GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error)
	GetDraftByJoinCode(ctx context.Context, code string) (*models.Draft, error)
	GetParticipant(ctx context.Context, draftID int64, actorID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, draftID int64) ([]models.Participant, error)
	CountParticipants(ctx context.Context, draftID int64) (int, error)
	InsertParticipant(ctx context.Context, params InsertParticipantParams) (*models.Participant, error)
	SetParticipantReady(ctx context.Context, draftID int64, actorID string, ready bool) error
	// StartDraft assigns seat positions, activates the draft, arms the first
	// turn timer and clears the join code, all atomically.
	StartDraft(ctx context.Context, draftID int64, positions map[string]int, turnStartedAt time.Time) error
	SetTimerPaused(ctx context.Context, draftID int64, paused bool, turnStartedAt *time.Time) error
	ListPicks(ctx context.Context, draftID int64) ([]models.Pick, error)
}

// App handles the draft lifecycle around the pick engine: creation, joining,
// readiness, starting, timer pause and the polling read model.
type App struct {
	repo      Repository
	publisher events.Publisher
	clock     clockwork.Clock
	rng       *rand.Rand
}

// NewApp creates a draft lifecycle app.
func NewApp(repo Repository, publisher events.Publisher, clock clockwork.Clock) *App {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &App{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateDraft validates settings and creates a draft in SETTING_UP with a
// fresh 4-digit join code. The creating actor becomes the draft admin,
// whether or not they ever join as a participant.
func (a *App) CreateDraft(ctx context.Context, actor models.Actor, req CreateDraftRequest) (*models.Draft, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("draft name cannot be empty")
	}
	if len(name) > MaxNameLen {
		return nil, apperr.Validation("draft name exceeds %d characters", MaxNameLen)
	}
	if req.Rounds < MinRounds || req.Rounds > MaxRounds {
		return nil, apperr.Validation("rounds must be between %d and %d", MinRounds, MaxRounds)
	}
	if req.MaxDrafters < MinDrafters || req.MaxDrafters > MaxDraftersCap {
		return nil, apperr.Validation("max drafters must be between %d and %d", MinDrafters, MaxDraftersCap)
	}
	if req.SecPerRound != 0 && (req.SecPerRound < MinSecPerRound || req.SecPerRound > MaxSecPerRound) {
		return nil, apperr.Validation("seconds per round must be 0 or between %d and %d", MinSecPerRound, MaxSecPerRound)
	}
	if !req.Freeform && len(req.Options) < req.Rounds*req.MaxDrafters {
		return nil, apperr.Validation("curated drafts need at least %d options", req.Rounds*req.MaxDrafters)
	}

	draft, err := a.repo.CreateDraft(ctx, CreateDraftParams{
		Name:             name,
		MaxDrafters:      req.MaxDrafters,
		SecPerRound:      req.SecPerRound,
		Rounds:           req.Rounds,
		Freeform:         req.Freeform,
		ChallengeEnabled: req.ChallengeEnabled,
		JoinCode:         fmt.Sprintf("%04d", a.rng.Intn(10000)),
		AdminActorID:     actor.ID,
		Options:          req.Options,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", draft.GUID.String()).
		Str("admin", actor.ID).
		Msg("draft created")
	return draft, nil
}

// Join adds the actor as a participant. Joining is idempotent per actor; a
// display-name collision gets a " (2)", " (3)", ... suffix.
func (a *App) Join(ctx context.Context, draftGUID uuid.UUID, actor models.Actor, req JoinRequest) (*models.Participant, error) {
	var draft *models.Draft
	var err error
	if req.JoinCode != "" {
		draft, err = a.repo.GetDraftByJoinCode(ctx, req.JoinCode)
	} else {
		draft, err = a.repo.GetDraftByGUID(ctx, draftGUID)
	}
	if err != nil {
		return nil, err
	}

	if draft.State != models.DraftStateSettingUp {
		return nil, apperr.Conflict("draft is no longer accepting participants")
	}

	if existing, err := a.repo.GetParticipant(ctx, draft.ID, actor.ID); err == nil {
		return existing, nil
	}

	count, err := a.repo.CountParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	if count >= draft.MaxDrafters {
		return nil, apperr.Conflict("draft is full")
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, apperr.Validation("display name cannot be empty")
	}

	others, err := a.repo.ListParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	name = disambiguateName(name, others)

	participant, err := a.repo.InsertParticipant(ctx, InsertParticipantParams{
		DraftID:     draft.ID,
		ActorID:     actor.ID,
		DisplayName: name,
		IsGuest:     actor.Kind == models.ActorKindGuest,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", draft.GUID.String()).
		Str("actor_id", actor.ID).
		Str("name", name).
		Msg("participant joined")
	return participant, nil
}

// SetReady toggles the actor's ready flag.
func (a *App) SetReady(ctx context.Context, draftGUID uuid.UUID, actor models.Actor, ready bool) error {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return err
	}
	if _, err := a.repo.GetParticipant(ctx, draft.ID, actor.ID); err != nil {
		return apperr.Forbidden("you are not a participant in this draft")
	}
	return a.repo.SetParticipantReady(ctx, draft.ID, actor.ID, ready)
}

// Start activates the draft: admin only, at least two participants, seats
// shuffled into a random permutation of 1..N, first turn timer armed, join
// code cleared.
func (a *App) Start(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) (*models.Draft, error) {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}
	if actor.ID != draft.AdminActorID {
		return nil, apperr.Forbidden("only the draft admin can start the draft")
	}
	if draft.State != models.DraftStateSettingUp {
		return nil, apperr.Conflict("draft has already started")
	}

	participants, err := a.repo.ListParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	if len(participants) < MinDrafters {
		return nil, apperr.Conflict("at least %d participants are required to start", MinDrafters)
	}

	positions := make(map[string]int, len(participants))
	perm := a.rng.Perm(len(participants))
	for i, p := range participants {
		positions[p.ActorID] = perm[i] + 1
	}

	now := a.clock.Now()
	if err := a.repo.StartDraft(ctx, draft.ID, positions, now); err != nil {
		return nil, err
	}

	started := events.DraftStartedPayload{
		DraftID:      draft.GUID.String(),
		Name:         draft.Name,
		Participants: len(participants),
		Rounds:       draft.Rounds,
		TotalPicks:   draft.TotalPicks(len(participants)),
		StartedAt:    now,
	}
	if err := a.publisher.Publish(ctx, events.TypeDraftStarted, draft.GUID, started); err != nil {
		log.Error().Err(err).Str("draft_id", draft.GUID.String()).Msg("failed to publish DraftStarted event")
	}

	log.Info().
		Str("draft_id", draft.GUID.String()).
		Int("participants", len(participants)).
		Msg("draft started")

	return a.repo.GetDraftByGUID(ctx, draftGUID)
}

// PauseTimer suspends the turn timer. Admin only.
func (a *App) PauseTimer(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) error {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return err
	}
	if actor.ID != draft.AdminActorID {
		return apperr.Forbidden("only the draft admin can pause the timer")
	}
	if draft.State != models.DraftStateActive {
		return apperr.Conflict("draft is not active")
	}
	return a.repo.SetTimerPaused(ctx, draft.ID, true, nil)
}

// ResumeTimer re-arms the turn timer from now, so the on-clock player gets a
// full round rather than an instant expiry.
func (a *App) ResumeTimer(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) error {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return err
	}
	if actor.ID != draft.AdminActorID {
		return apperr.Forbidden("only the draft admin can resume the timer")
	}
	return a.repo.SetTimerPaused(ctx, draft.ID, false, startTimestamp(a.clock.Now()))
}

// GetState assembles the polling read model. The join code is only shown to
// the admin while joining by code is still meaningful.
func (a *App) GetState(ctx context.Context, draftGUID uuid.UUID, actor *models.Actor) (*StateView, error) {
	draft, err := a.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}
	if actor == nil || actor.ID != draft.AdminActorID {
		draft.JoinCode = nil
	}

	participants, err := a.repo.ListParticipants(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	picks, err := a.repo.ListPicks(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	attachAuthorNames(picks, participants)

	view := &StateView{
		Draft:        draft,
		Participants: participants,
		Picks:        picks,
		TotalPicks:   draft.TotalPicks(len(participants)),
	}

	if draft.TurnStartedAt != nil && !draft.TimerPaused {
		elapsed := int(a.clock.Now().Sub(*draft.TurnStartedAt).Seconds())
		view.TimeElapsedSec = &elapsed
		if draft.IsTimed() && draft.State == models.DraftStateActive {
			remaining := draft.SecPerRound - elapsed
			if remaining < 0 {
				remaining = 0
			}
			view.TimeRemainingSec = &remaining
		}
	}
	return view, nil
}

func attachAuthorNames(picks []models.Pick, participants []models.Participant) {
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.ActorID] = p.DisplayName
	}
	for i := range picks {
		picks[i].AuthorName = names[picks[i].ActorID]
	}
}

// disambiguateName suffixes " (2)", " (3)", ... until the name is unique
// within the draft.
func disambiguateName(name string, participants []models.Participant) string {
	taken := make(map[string]bool, len(participants))
	for _, p := range participants {
		taken[strings.ToLower(p.DisplayName)] = true
	}
	if !taken[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}
