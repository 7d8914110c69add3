package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftnight/draftnight/internal/apperr"
	"github.com/draftnight/draftnight/internal/models"
	"github.com/draftnight/draftnight/internal/pick"
	"github.com/draftnight/draftnight/internal/sqlutil"
)

const pickColumns = `id, draft_id, pick_number, actor_id, payload, option_id,
	auto, time_taken_sec, created_at`

func scanPick(row interface{ Scan(...any) error }) (*models.Pick, error) {
	var p models.Pick
	var optionID sql.NullInt64
	var timeTaken sql.NullInt64
	err := row.Scan(
		&p.ID, &p.DraftID, &p.PickNumber, &p.ActorID, &p.Payload, &optionID,
		&p.Auto, &timeTaken, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if optionID.Valid {
		p.OptionID = &optionID.Int64
	}
	if timeTaken.Valid {
		v := int(timeTaken.Int64)
		p.TimeTakenSec = &v
	}
	return &p, nil
}

// CountPicks counts committed picks for a draft.
func (s *Store) CountPicks(ctx context.Context, draftID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM picks WHERE draft_id = $1`, draftID).Scan(&n)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

// HasPick reports whether a pick number is already taken.
func (s *Store) HasPick(ctx context.Context, draftID int64, pickNumber int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM picks WHERE draft_id = $1 AND pick_number = $2)`,
		draftID, pickNumber).Scan(&exists)
	if err != nil {
		return false, apperr.Internal(err)
	}
	return exists, nil
}

// ListPicks returns all picks in pick-number order.
func (s *Store) ListPicks(ctx context.Context, draftID int64) ([]models.Pick, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM picks WHERE draft_id = $1 ORDER BY pick_number`, pickColumns),
		draftID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var out []models.Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetLatestPick returns the highest-numbered pick.
func (s *Store) GetLatestPick(ctx context.Context, draftID int64) (*models.Pick, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM picks WHERE draft_id = $1 ORDER BY pick_number DESC LIMIT 1`, pickColumns),
		draftID)
	p, err := scanPick(row)
	if err != nil {
		return nil, translateRowErr(err, "pick")
	}
	return p, nil
}

// CommitPick performs the whole pick write atomically: the pick insert, the
// curated-option flip when set, and the draft-row advance. The unique
// (draft_id, pick_number) index makes exactly one concurrent writer win; the
// losers get a Conflict and no partial state.
func (s *Store) CommitPick(ctx context.Context, params pick.CommitPickParams) (*models.Pick, error) {
	var committed *models.Pick
	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, fmt.Sprintf(`
			INSERT INTO picks (draft_id, pick_number, actor_id, payload, option_id, auto, time_taken_sec)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING %s`, pickColumns),
			params.DraftID, params.PickNumber, params.ActorID, params.Payload,
			params.OptionID, params.Auto, params.TimeTakenSec)
		p, err := scanPick(row)
		if err != nil {
			if isUniqueViolation(err) {
				return &apperr.Error{
					Kind: apperr.KindConflict,
					Msg:  fmt.Sprintf("pick %d was already made", params.PickNumber),
					Err:  pick.ErrPickNumberTaken,
				}
			}
			return apperr.Internal(err)
		}

		if params.OptionID != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE curated_options SET used = true WHERE id = $1 AND draft_id = $2 AND used = false`,
				*params.OptionID, params.DraftID)
			if err != nil {
				return apperr.Internal(err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return apperr.Internal(err)
			}
			if affected == 0 {
				return apperr.InvalidOption("option was already picked")
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE drafts
			SET current_position = $1, state = $2, turn_started_at = $3
			WHERE id = $4`,
			params.NextPosition, params.NextState, params.TurnStartedAt, params.DraftID)
		if err != nil {
			return apperr.Internal(err)
		}

		committed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}
