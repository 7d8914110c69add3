package autopick

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/models"
)

// QueueRepository covers the pre-staged pick queue, a per-participant
// convenience cache the engine drains before synthesizing payloads.
type QueueRepository interface {
	GetDraftByGUID(ctx context.Context, guid uuid.UUID) (*models.Draft, error)
	GetParticipant(ctx context.Context, draftID int64, actorID string) (*models.Participant, error)
	ListQueueEntries(ctx context.Context, draftID int64, actorID string) ([]models.QueueEntry, error)
	InsertQueueEntry(ctx context.Context, draftID int64, actorID, payload string, optionID *int64) (*models.QueueEntry, error)
	DeleteQueueEntry(ctx context.Context, draftID int64, actorID string, entryID int64) error
}

// QueueApp exposes the autopick queue CRUD surface. Entries are owned by the
// staging participant; nothing here is authoritative game state.
type QueueApp struct {
	repo QueueRepository
}

// NewQueueApp creates the queue surface.
func NewQueueApp(repo QueueRepository) *QueueApp {
	return &QueueApp{repo: repo}
}

// ListQueue returns the actor's staged entries in rank order.
func (q *QueueApp) ListQueue(ctx context.Context, draftGUID uuid.UUID, actor models.Actor) ([]models.QueueEntry, error) {
	draft, err := q.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}
	if _, err := q.repo.GetParticipant(ctx, draft.ID, actor.ID); err != nil {
		return nil, apperr.Forbidden("you are not a participant in this draft")
	}
	return q.repo.ListQueueEntries(ctx, draft.ID, actor.ID)
}

// Stage appends an entry to the actor's queue.
func (q *QueueApp) Stage(ctx context.Context, draftGUID uuid.UUID, actor models.Actor, payload string, optionID *int64) (*models.QueueEntry, error) {
	draft, err := q.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return nil, err
	}
	if _, err := q.repo.GetParticipant(ctx, draft.ID, actor.ID); err != nil {
		return nil, apperr.Forbidden("you are not a participant in this draft")
	}

	payload = strings.TrimSpace(payload)
	if optionID == nil {
		if payload == "" {
			return nil, apperr.Validation("queued pick cannot be empty")
		}
		if len(payload) > 200 {
			return nil, apperr.Validation("queued pick exceeds 200 characters")
		}
	}
	return q.repo.InsertQueueEntry(ctx, draft.ID, actor.ID, payload, optionID)
}

// Remove deletes one of the actor's own entries.
func (q *QueueApp) Remove(ctx context.Context, draftGUID uuid.UUID, actor models.Actor, entryID int64) error {
	draft, err := q.repo.GetDraftByGUID(ctx, draftGUID)
	if err != nil {
		return err
	}
	return q.repo.DeleteQueueEntry(ctx, draft.ID, actor.ID, entryID)
}
