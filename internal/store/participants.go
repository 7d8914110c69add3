package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/draft"
	"github.com/draftnight/draftnight/internal/models"
)

const participantColumns = `id, draft_id, actor_id, display_name, position,
	ready, is_guest, autopick_enabled, created_at`

func scanParticipant(row interface{ Scan(...any) error }) (*models.Participant, error) {
	var p models.Participant
	var pos sql.NullInt64
	err := row.Scan(
		&p.ID, &p.DraftID, &p.ActorID, &p.DisplayName, &pos,
		&p.Ready, &p.IsGuest, &p.AutopickEnabled, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pos.Valid {
		v := int(pos.Int64)
		p.Position = &v
	}
	return &p, nil
}

// GetParticipant fetches the (draft, actor) row.
func (s *Store) GetParticipant(ctx context.Context, draftID int64, actorID string) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM participants WHERE draft_id = $1 AND actor_id = $2`, participantColumns),
		draftID, actorID)
	p, err := scanParticipant(row)
	if err != nil {
		return nil, translateRowErr(err, "participant")
	}
	return p, nil
}

// GetParticipantByPosition resolves the seat currently on the clock.
func (s *Store) GetParticipantByPosition(ctx context.Context, draftID int64, position int) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM participants WHERE draft_id = $1 AND position = $2`, participantColumns),
		draftID, position)
	p, err := scanParticipant(row)
	if err != nil {
		return nil, translateRowErr(err, "participant")
	}
	return p, nil
}

// ListParticipants returns all seats, joined order.
func (s *Store) ListParticipants(ctx context.Context, draftID int64) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM participants WHERE draft_id = $1 ORDER BY created_at, id`, participantColumns),
		draftID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CountParticipants counts seats in a draft.
func (s *Store) CountParticipants(ctx context.Context, draftID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE draft_id = $1`, draftID).Scan(&n)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

// InsertParticipant adds a seat; a duplicate (draft, actor) pair is a
// Conflict.
func (s *Store) InsertParticipant(ctx context.Context, params draft.InsertParticipantParams) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO participants (draft_id, actor_id, display_name, is_guest, autopick_enabled)
		VALUES ($1, $2, $3, $4, true)
		RETURNING %s`, participantColumns),
		params.DraftID, params.ActorID, params.DisplayName, params.IsGuest)
	p, err := scanParticipant(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("already joined")
		}
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// SetParticipantReady toggles the ready flag.
func (s *Store) SetParticipantReady(ctx context.Context, draftID int64, actorID string, ready bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE participants SET ready = $1 WHERE draft_id = $2 AND actor_id = $3`,
		ready, draftID, actorID)
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
