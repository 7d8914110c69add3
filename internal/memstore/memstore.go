// Package memstore is an in-memory implementation of every app repository
// interface, mirroring the Postgres store's semantics (including conflict
// behavior on the pick-number unique constraint). It exists for tests; the
// server always runs against internal/store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/challenge"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/pick"
)

// Store holds all state behind one mutex. Every accessor returns copies so
// callers can never mutate shared state through a returned pointer.
type Store struct {
	mu    sync.Mutex
	clock clockwork.Clock

	lastID       int64
	drafts       map[int64]*models.Draft
	byGUID       map[uuid.UUID]int64
	participants map[int64][]*models.Participant
	options      map[int64][]*models.CuratedOption
	picks        map[int64][]*models.Pick
	challenges   map[int64][]*models.Challenge
	votes        map[int64][]*models.ChallengeVote
	queues       map[int64][]*models.QueueEntry
}

// New creates an empty store.
func New(clock clockwork.Clock) *Store {
	return &Store{
		clock:        clock,
		drafts:       make(map[int64]*models.Draft),
		byGUID:       make(map[uuid.UUID]int64),
		participants: make(map[int64][]*models.Participant),
		options:      make(map[int64][]*models.CuratedOption),
		picks:        make(map[int64][]*models.Pick),
		challenges:   make(map[int64][]*models.Challenge),
		votes:        make(map[int64][]*models.ChallengeVote),
		queues:       make(map[int64][]*models.QueueEntry),
	}
}

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func copyDraft(d *models.Draft) *models.Draft {
	c := *d
	if d.CurrentPositionOnClock != nil {
		p := *d.CurrentPositionOnClock
		c.CurrentPositionOnClock = &p
	}
	if d.TurnStartedAt != nil {
		t := *d.TurnStartedAt
		c.TurnStartedAt = &t
	}
	if d.JoinCode != nil {
		j := *d.JoinCode
		c.JoinCode = &j
	}
	return &c
}

func copyParticipant(p *models.Participant) *models.Participant {
	c := *p
	if p.Position != nil {
		pos := *p.Position
		c.Position = &pos
	}
	return &c
}

func copyPick(p *models.Pick) *models.Pick {
	c := *p
	if p.OptionID != nil {
		id := *p.OptionID
		c.OptionID = &id
	}
	if p.TimeTakenSec != nil {
		t := *p.TimeTakenSec
		c.TimeTakenSec = &t
	}
	return &c
}

// --- drafts ---

func (s *Store) CreateDraft(ctx context.Context, params draft.CreateDraftParams) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := params.JoinCode
	d := &models.Draft{
		ID:               s.nextID(),
		GUID:             uuid.New(),
		Name:             params.Name,
		State:            models.DraftStateSettingUp,
		MaxDrafters:      params.MaxDrafters,
		SecPerRound:      params.SecPerRound,
		Rounds:           params.Rounds,
		Freeform:         params.Freeform,
		ChallengeEnabled: params.ChallengeEnabled,
		JoinCode:         &code,
		AdminActorID:     params.AdminActorID,
		CreatedAt:        s.clock.Now(),
	}
	s.drafts[d.ID] = d
	s.byGUID[d.GUID] = d.ID
	for _, text := range params.Options {
		s.options[d.ID] = append(s.options[d.ID], &models.CuratedOption{
			ID:      s.nextID(),
			DraftID: d.ID,
			Text:    text,
		})
	}
	return copyDraft(d), nil
}

func (s *Store) GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDraftByGUIDLocked(guid)
}

func (s *Store) getDraftByGUIDLocked(guid uuid.UUID) (*models.Draft, error) {
	id, ok := s.byGUID[guid]
	if !ok {
		return nil, apperr.NotFound("draft not found")
	}
	return copyDraft(s.drafts[id]), nil
}

func (s *Store) GetDraftByJoinCode(ctx context.Context, code string) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.drafts {
		if d.State == models.DraftStateSettingUp && d.JoinCode != nil && *d.JoinCode == code {
			return copyDraft(d), nil
		}
	}
	return nil, apperr.NotFound("draft not found")
}

func (s *Store) ListActiveTimedDrafts(ctx context.Context, limit int) ([]models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Draft
	for _, d := range s.drafts {
		if d.State == models.DraftStateActive && d.SecPerRound > 0 {
			out = append(out, *copyDraft(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListChallengeWindowDraftGUIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for _, d := range s.drafts {
		if d.State == models.DraftStateChallengeWindow {
			out = append(out, d.GUID)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) StartDraft(ctx context.Context, draftID int64, positions map[string]int, turnStartedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return apperr.NotFound("draft not found")
	}
	for _, p := range s.participants[draftID] {
		if pos, ok := positions[p.ActorID]; ok {
			posCopy := pos
			p.Position = &posCopy
		}
	}
	first := 1
	d.State = models.DraftStateActive
	d.CurrentPositionOnClock = &first
	ts := turnStartedAt
	d.TurnStartedAt = &ts
	d.JoinCode = nil
	return nil
}

func (s *Store) SetTimerPaused(ctx context.Context, draftID int64, paused bool, turnStartedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return apperr.NotFound("draft not found")
	}
	d.TimerPaused = paused
	if turnStartedAt != nil {
		ts := *turnStartedAt
		d.TurnStartedAt = &ts
	}
	return nil
}

func (s *Store) CompleteDraft(ctx context.Context, draftID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return apperr.NotFound("draft not found")
	}
	d.State = models.DraftStateCompleted
	d.CurrentPositionOnClock = nil
	d.TurnStartedAt = nil
	return nil
}

// --- participants ---

func (s *Store) GetParticipant(ctx context.Context, draftID int64, actorID string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[draftID] {
		if p.ActorID == actorID {
			return copyParticipant(p), nil
		}
	}
	return nil, apperr.NotFound("participant not found")
}

func (s *Store) GetParticipantByPosition(ctx context.Context, draftID int64, position int) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[draftID] {
		if p.Position != nil && *p.Position == position {
			return copyParticipant(p), nil
		}
	}
	return nil, apperr.NotFound("participant not found")
}

func (s *Store) ListParticipants(ctx context.Context, draftID int64) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Participant
	for _, p := range s.participants[draftID] {
		out = append(out, *copyParticipant(p))
	}
	return out, nil
}

func (s *Store) CountParticipants(ctx context.Context, draftID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants[draftID]), nil
}

func (s *Store) InsertParticipant(ctx context.Context, params draft.InsertParticipantParams) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[params.DraftID] {
		if p.ActorID == params.ActorID {
			return nil, apperr.Conflict("already joined")
		}
		if p.DisplayName == params.DisplayName {
			return nil, apperr.Conflict("display name taken")
		}
	}
	p := &models.Participant{
		ID:              s.nextID(),
		DraftID:         params.DraftID,
		ActorID:         params.ActorID,
		DisplayName:     params.DisplayName,
		IsGuest:         params.IsGuest,
		AutopickEnabled: true,
		CreatedAt:       s.clock.Now(),
	}
	s.participants[params.DraftID] = append(s.participants[params.DraftID], p)
	return copyParticipant(p), nil
}

func (s *Store) SetParticipantReady(ctx context.Context, draftID int64, actorID string, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[draftID] {
		if p.ActorID == actorID {
			p.Ready = ready
			return nil
		}
	}
	return apperr.NotFound("participant not found")
}

// SetAutopickEnabled is a test hook for the queue-preference path.
func (s *Store) SetAutopickEnabled(draftID int64, actorID string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants[draftID] {
		if p.ActorID == actorID {
			p.AutopickEnabled = enabled
		}
	}
}

// --- picks ---

func (s *Store) CountPicks(ctx context.Context, draftID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.picks[draftID]), nil
}

func (s *Store) HasPick(ctx context.Context, draftID int64, pickNumber int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.picks[draftID] {
		if p.PickNumber == pickNumber {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListPicks(ctx context.Context, draftID int64) ([]models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Pick
	for _, p := range s.picks[draftID] {
		out = append(out, *copyPick(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PickNumber < out[j].PickNumber })
	return out, nil
}

func (s *Store) GetLatestPick(ctx context.Context, draftID int64) (*models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Pick
	for _, p := range s.picks[draftID] {
		if latest == nil || p.PickNumber > latest.PickNumber {
			latest = p
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("no picks yet")
	}
	return copyPick(latest), nil
}

func (s *Store) CommitPick(ctx context.Context, params pick.CommitPickParams) (*models.Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[params.DraftID]
	if !ok {
		return nil, apperr.NotFound("draft not found")
	}
	for _, p := range s.picks[params.DraftID] {
		if p.PickNumber == params.PickNumber {
			return nil, &apperr.Error{
				Kind: apperr.KindConflict,
				Msg:  fmt.Sprintf("pick %d was already made", params.PickNumber),
				Err:  pick.ErrPickNumberTaken,
			}
		}
	}

	if params.OptionID != nil {
		var option *models.CuratedOption
		for _, o := range s.options[params.DraftID] {
			if o.ID == *params.OptionID {
				option = o
				break
			}
		}
		if option == nil || option.Used {
			return nil, apperr.InvalidOption("option is not available")
		}
		option.Used = true
	}

	p := &models.Pick{
		ID:           s.nextID(),
		DraftID:      params.DraftID,
		PickNumber:   params.PickNumber,
		ActorID:      params.ActorID,
		Payload:      params.Payload,
		OptionID:     params.OptionID,
		Auto:         params.Auto,
		TimeTakenSec: params.TimeTakenSec,
		CreatedAt:    s.clock.Now(),
	}
	s.picks[params.DraftID] = append(s.picks[params.DraftID], p)

	d.State = params.NextState
	d.CurrentPositionOnClock = params.NextPosition
	if params.TurnStartedAt != nil {
		ts := *params.TurnStartedAt
		d.TurnStartedAt = &ts
	} else {
		d.TurnStartedAt = nil
	}
	return copyPick(p), nil
}

// --- curated options ---

func (s *Store) GetCuratedOption(ctx context.Context, draftID, optionID int64) (*models.CuratedOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.options[draftID] {
		if o.ID == optionID {
			c := *o
			return &c, nil
		}
	}
	return nil, apperr.NotFound("option not found")
}

func (s *Store) ListUnusedOptions(ctx context.Context, draftID int64) ([]models.CuratedOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CuratedOption
	for _, o := range s.options[draftID] {
		if !o.Used {
			out = append(out, *o)
		}
	}
	return out, nil
}

// --- challenges ---

func (s *Store) GetPendingChallenge(ctx context.Context, draftID int64) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.pendingChallengeLocked(draftID)
	if ch == nil {
		return nil, apperr.NotFound("no pending challenge")
	}
	c := *ch
	return &c, nil
}

func (s *Store) pendingChallengeLocked(draftID int64) *models.Challenge {
	for _, ch := range s.challenges[draftID] {
		if ch.Status == models.ChallengeStatusPending {
			return ch
		}
	}
	return nil
}

func (s *Store) CreateChallenge(ctx context.Context, draftID int64, pickNumber int, challengedActorID, challengerActorID string) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[draftID]
	if !ok {
		return nil, apperr.NotFound("draft not found")
	}
	if s.pendingChallengeLocked(draftID) != nil {
		return nil, apperr.Conflict("a challenge is already pending")
	}
	ch := &models.Challenge{
		ID:                s.nextID(),
		DraftID:           draftID,
		PickNumber:        pickNumber,
		ChallengedActorID: challengedActorID,
		ChallengerActorID: challengerActorID,
		Status:            models.ChallengeStatusPending,
		CreatedAt:         s.clock.Now(),
	}
	s.challenges[draftID] = append(s.challenges[draftID], ch)
	d.State = models.DraftStateChallenge
	c := *ch
	return &c, nil
}

func (s *Store) ListVotes(ctx context.Context, challengeID int64) ([]models.ChallengeVote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChallengeVote
	for _, v := range s.votes[challengeID] {
		out = append(out, *v)
	}
	return out, nil
}

func (s *Store) InsertVote(ctx context.Context, challengeID int64, voterActorID string, vote bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes[challengeID] {
		if v.VoterActorID == voterActorID {
			return apperr.Conflict("already voted")
		}
	}
	s.votes[challengeID] = append(s.votes[challengeID], &models.ChallengeVote{
		ID:           s.nextID(),
		ChallengeID:  challengeID,
		VoterActorID: voterActorID,
		Vote:         vote,
		CreatedAt:    s.clock.Now(),
	})
	return nil
}

func (s *Store) RollbackPick(ctx context.Context, params challenge.RollbackParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.challengeByIDLocked(params.DraftID, params.ChallengeID)
	if ch == nil || ch.Status != models.ChallengeStatusPending {
		return apperr.Conflict("challenge is no longer pending")
	}
	ch.Status = models.ChallengeStatusResolved
	resolved := params.ResolvedAt
	ch.ResolvedAt = &resolved

	picks := s.picks[params.DraftID]
	for i, p := range picks {
		if p.PickNumber == params.PickNumber {
			if p.OptionID != nil {
				for _, o := range s.options[params.DraftID] {
					if o.ID == *p.OptionID {
						o.Used = false
					}
				}
			}
			s.picks[params.DraftID] = append(picks[:i], picks[i+1:]...)
			break
		}
	}

	d := s.drafts[params.DraftID]
	pos := params.RestorePos
	ts := params.TurnStartedAt
	d.State = models.DraftStateActive
	d.CurrentPositionOnClock = &pos
	d.TurnStartedAt = &ts
	return nil
}

func (s *Store) Dismiss(ctx context.Context, params challenge.DismissParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.challengeByIDLocked(params.DraftID, params.ChallengeID)
	if ch == nil || ch.Status != models.ChallengeStatusPending {
		return apperr.Conflict("challenge is no longer pending")
	}
	ch.Status = models.ChallengeStatusDismissed
	resolved := params.ResolvedAt
	ch.ResolvedAt = &resolved

	d := s.drafts[params.DraftID]
	d.State = params.NextState
	if params.TurnStartedAt != nil {
		ts := *params.TurnStartedAt
		d.TurnStartedAt = &ts
	}
	return nil
}

func (s *Store) challengeByIDLocked(draftID, challengeID int64) *models.Challenge {
	for _, ch := range s.challenges[draftID] {
		if ch.ID == challengeID {
			return ch
		}
	}
	return nil
}

// --- autopick queue ---

func (s *Store) ListQueueEntries(ctx context.Context, draftID int64, actorID string) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range s.queues[draftID] {
		if e.ActorID == actorID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (s *Store) InsertQueueEntry(ctx context.Context, draftID int64, actorID, payload string, optionID *int64) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rank := 1
	for _, e := range s.queues[draftID] {
		if e.ActorID == actorID && e.Rank >= rank {
			rank = e.Rank + 1
		}
	}
	e := &models.QueueEntry{
		ID:        s.nextID(),
		DraftID:   draftID,
		ActorID:   actorID,
		Rank:      rank,
		Payload:   payload,
		OptionID:  optionID,
		CreatedAt: s.clock.Now(),
	}
	s.queues[draftID] = append(s.queues[draftID], e)
	c := *e
	return &c, nil
}

func (s *Store) DeleteQueueEntry(ctx context.Context, draftID int64, actorID string, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.queues[draftID]
	for i, e := range entries {
		if e.ID == entryID && e.ActorID == actorID {
			s.queues[draftID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("queue entry not found")
}

func (s *Store) NextQueueEntry(ctx context.Context, draftID int64, actorID string) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *models.QueueEntry
	for _, e := range s.queues[draftID] {
		if e.ActorID == actorID && !e.Used && (next == nil || e.Rank < next.Rank) {
			next = e
		}
	}
	if next == nil {
		return nil, apperr.NotFound("queue is empty")
	}
	c := *next
	return &c, nil
}

func (s *Store) MarkQueueEntryUsed(ctx context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entries := range s.queues {
		for _, e := range entries {
			if e.ID == entryID {
				e.Used = true
				return nil
			}
		}
	}
	return nil
}
