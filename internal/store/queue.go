package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/models"
)

const queueColumns = `id, draft_id, actor_id, rank, payload, option_id, used, created_at`

func scanQueueEntry(row interface{ Scan(...any) error }) (*models.QueueEntry, error) {
	var e models.QueueEntry
	var optionID sql.NullInt64
	err := row.Scan(&e.ID, &e.DraftID, &e.ActorID, &e.Rank, &e.Payload, &optionID, &e.Used, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if optionID.Valid {
		e.OptionID = &optionID.Int64
	}
	return &e, nil
}

// ListQueueEntries returns the actor's staged picks in rank order.
func (s *Store) ListQueueEntries(ctx context.Context, draftID int64, actorID string) ([]models.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM autopick_queue
		WHERE draft_id = $1 AND actor_id = $2 ORDER BY rank, id`,
		draftID, actorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []models.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// InsertQueueEntry appends to the actor's queue.
func (s *Store) InsertQueueEntry(ctx context.Context, draftID int64, actorID, payload string, optionID *int64) (*models.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO autopick_queue (draft_id, actor_id, rank, payload, option_id)
		VALUES ($1, $2,
			COALESCE((SELECT MAX(rank) + 1 FROM autopick_queue WHERE draft_id = $1 AND actor_id = $2), 1),
			$3, $4)
		RETURNING `+queueColumns,
		draftID, actorID, payload, optionID)
	e, err := scanQueueEntry(row)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return e, nil
}

// DeleteQueueEntry removes one of the actor's own entries.
func (s *Store) DeleteQueueEntry(ctx context.Context, draftID int64, actorID string, entryID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM autopick_queue WHERE id = $1 AND draft_id = $2 AND actor_id = $3`,
		entryID, draftID, actorID)
	if err != nil {
		return apperr.Internal(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("queue entry not found")
	}
	return nil
}

// NextQueueEntry returns the first unused staged pick for the actor.
func (s *Store) NextQueueEntry(ctx context.Context, draftID int64, actorID string) (*models.QueueEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM autopick_queue
		WHERE draft_id = $1 AND actor_id = $2 AND used = false
		ORDER BY rank, id LIMIT 1`,
		draftID, actorID)
	e, err := scanQueueEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("queue is empty")
		}
		return nil, apperr.Internal(err)
	}
	return e, nil
}

// MarkQueueEntryUsed burns a staged pick once consumed (or found stale).
func (s *Store) MarkQueueEntryUsed(ctx context.Context, entryID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE autopick_queue SET used = true WHERE id = $1`, entryID)
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
